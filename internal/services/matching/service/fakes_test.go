package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"vendormatch/internal/services/matching/domain"
	"vendormatch/internal/services/matching/fallback"
)

var errDown = errors.New("registry down")

// memRegistry is an in-memory registry with switchable failure modes
type memRegistry struct {
	entities []domain.RegisteredEntity

	probeErr  error
	exactErr  error
	activeErr error
	panicOn   string

	probes, exacts, actives, aliases atomic.Int32

	mu    sync.Mutex
	names []string
}

func (m *memRegistry) Probe(context.Context) error {
	m.probes.Add(1)
	return m.probeErr
}

func (m *memRegistry) FindExact(_ context.Context, name string) (*domain.RegisteredEntity, error) {
	m.exacts.Add(1)
	m.mu.Lock()
	m.names = append(m.names, name)
	m.mu.Unlock()
	if m.panicOn != "" && name == m.panicOn {
		panic("boom on " + name)
	}
	if m.exactErr != nil {
		return nil, m.exactErr
	}
	for _, e := range m.entities {
		if e.Name == name {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (m *memRegistry) ListActive(context.Context) ([]domain.RegisteredEntity, error) {
	m.actives.Add(1)
	if m.activeErr != nil {
		return nil, m.activeErr
	}
	return m.entities, nil
}

func (m *memRegistry) FindByAlias(_ context.Context, alias string) (*domain.RegisteredEntity, error) {
	m.aliases.Add(1)
	for _, e := range m.entities {
		for _, a := range e.Aliases {
			if a == alias {
				e := e
				return &e, nil
			}
		}
	}
	return nil, nil
}

func (m *memRegistry) registryCalls() int32 {
	return m.probes.Load() + m.exacts.Load() + m.actives.Load() + m.aliases.Load()
}

func newSvc(reg domain.Registry, cfg Config) *Service {
	return New(reg, fallback.New(nil), cfg)
}
