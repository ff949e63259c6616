// Package service resolves counterparty names against the entity registry
package service

import (
	"context"

	"vendormatch/internal/services/matching/domain"
	"vendormatch/internal/services/matching/fallback"
)

// Defaults for the live ranking path
const (
	DefaultMinSimilarity  = 0.3
	DefaultMaxSuggestions = 5
	DefaultWorkers        = 4
)

// Config holds configuration options for the matching service
type Config struct {
	// Ranking
	MinSimilarity  float64 // <=0 -> 0.3
	MaxSuggestions int     // <=0 -> 5

	// Batch orchestration
	Workers int  // <=0 -> 4
	Dedupe  bool // one resolution per distinct name instead of per row

	// Aliases enables alias exact matches and alias aware ranking
	Aliases bool
}

// Service implements domain.Ports
type Service struct {
	// Registry is normally a *gateway.Gateway so every failure is already
	// bounded and classified; any error from it takes the fallback path
	Registry domain.Registry
	Fallback *fallback.Generator
	Cfg      Config
}

var _ domain.Ports = (*Service)(nil)

// New constructs the matching service
func New(reg domain.Registry, fb *fallback.Generator, cfg Config) *Service {
	if reg == nil {
		panic("matching.Service requires a non nil Registry")
	}
	if fb == nil {
		fb = fallback.New(nil)
	}
	if cfg.MinSimilarity <= 0 {
		cfg.MinSimilarity = DefaultMinSimilarity
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = DefaultMaxSuggestions
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Service{Registry: reg, Fallback: fb, Cfg: cfg}
}

// findEntity looks up name exactly and, with aliases on, by alias when the name misses
func (s *Service) findEntity(ctx context.Context, name string) (*domain.RegisteredEntity, domain.MatchField, error) {
	e, err := s.Registry.FindExact(ctx, name)
	if err != nil || e != nil {
		return e, domain.MatchedByName, err
	}
	if !s.Cfg.Aliases {
		return nil, "", nil
	}
	af, ok := s.Registry.(domain.AliasFinder)
	if !ok {
		return nil, "", nil
	}
	e, err = af.FindByAlias(ctx, name)
	if err != nil || e == nil {
		return nil, "", err
	}
	return e, domain.MatchedByAlias, nil
}
