package repo

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"vendormatch/internal/services/matching/domain"
)

// Memory is an in process registry holding active entities only.
// Used when no database is configured and in tests
type Memory struct {
	mu       sync.RWMutex
	entities []domain.RegisteredEntity
}

var _ Storage = (*Memory)(nil)

// NewMemory returns a registry seeded with xs
func NewMemory(xs []domain.RegisteredEntity) *Memory {
	m := &Memory{}
	m.Replace(xs)
	return m
}

// Replace swaps the registry contents. Entities are kept in id order
func (m *Memory) Replace(xs []domain.RegisteredEntity) {
	cp := make([]domain.RegisteredEntity, len(xs))
	for i, e := range xs {
		cp[i] = clone(e)
	}
	slices.SortStableFunc(cp, func(a, b domain.RegisteredEntity) int { return cmp.Compare(a.ID, b.ID) })
	m.mu.Lock()
	m.entities = cp
	m.mu.Unlock()
}

// Probe implements domain.Registry
func (m *Memory) Probe(ctx context.Context) error { return ctx.Err() }

// FindExact implements domain.Registry
func (m *Memory) FindExact(ctx context.Context, name string) (*domain.RegisteredEntity, error) {
	return m.find(ctx, func(e domain.RegisteredEntity) bool { return e.Name == name })
}

// FindByAlias implements domain.AliasFinder
func (m *Memory) FindByAlias(ctx context.Context, alias string) (*domain.RegisteredEntity, error) {
	return m.find(ctx, func(e domain.RegisteredEntity) bool { return slices.Contains(e.Aliases, alias) })
}

// ListActive implements domain.Registry
func (m *Memory) ListActive(ctx context.Context) ([]domain.RegisteredEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.RegisteredEntity, len(m.entities))
	for i, e := range m.entities {
		out[i] = clone(e)
	}
	return out, nil
}

func (m *Memory) find(ctx context.Context, match func(domain.RegisteredEntity) bool) (*domain.RegisteredEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entities {
		if match(e) {
			c := clone(e)
			return &c, nil
		}
	}
	return nil, nil
}

func clone(e domain.RegisteredEntity) domain.RegisteredEntity {
	e.Aliases = slices.Clone(e.Aliases)
	return e
}
