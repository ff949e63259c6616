package service

import (
	"cmp"
	"context"
	"slices"

	"vendormatch/internal/platform/logger"
	"vendormatch/internal/services/matching/domain"
	"vendormatch/internal/services/matching/similarity"
)

// Resolve implements domain.Resolver for a vendor name
func (s *Service) Resolve(ctx context.Context, name string) domain.ResolutionResult {
	return s.ResolveAs(ctx, name, domain.RoleVendor)
}

// ResolveAs resolves name for the given role. It never fails: registry
// problems degrade to fallback suggestions with Exists=false
func (s *Service) ResolveAs(ctx context.Context, name string, role domain.Role) domain.ResolutionResult {
	if err := s.Registry.Probe(ctx); err != nil {
		return s.degraded(ctx, name, role, err)
	}

	exact, by, err := s.findEntity(ctx, name)
	if err != nil {
		return s.degraded(ctx, name, role, err)
	}
	pool, err := s.Registry.ListActive(ctx)
	if err != nil {
		return s.degraded(ctx, name, role, err)
	}

	res := domain.ResolutionResult{
		QueryName:   name,
		Role:        role,
		Exists:      exact != nil,
		Suggestions: s.rank(name, exact, pool),
	}
	if exact != nil {
		res.ExactMatch = cloneEntity(*exact)
		res.MatchedBy = by
	}

	logger.C(ctx).Debug().
		Str("component", "resolver").
		Str("role", string(role)).
		Str("name", name).
		Bool("exists", res.Exists).
		Int("suggestions", len(res.Suggestions)).
		Msg("name resolved")
	return res
}

// rank scores every active entity except the query itself and the exact match,
// keeps those at or above MinSimilarity and returns the best MaxSuggestions.
// pool may be shared with other callers and is never modified
func (s *Service) rank(name string, exact *domain.RegisteredEntity, pool []domain.RegisteredEntity) []domain.Candidate {
	out := make([]domain.Candidate, 0, min(len(pool), s.Cfg.MaxSuggestions))
	for _, e := range pool {
		if e.Name == name {
			continue
		}
		if exact != nil && e.ID == exact.ID {
			continue
		}
		sim, dist, by := s.score(name, e)
		if sim < s.Cfg.MinSimilarity {
			continue
		}
		out = append(out, domain.Candidate{
			Entity:     *cloneEntity(e),
			Similarity: sim,
			Distance:   dist,
			MatchedBy:  by,
			Source:     domain.SourceRegistry,
		})
	}

	slices.SortFunc(out, func(a, b domain.Candidate) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Entity.ID, b.Entity.ID)
	})
	if len(out) > s.Cfg.MaxSuggestions {
		out = out[:s.Cfg.MaxSuggestions]
	}
	return out
}

// score takes the best of the name and, with aliases on, every alias.
// The distance is the smallest seen so ties favor the closest spelling
func (s *Service) score(name string, e domain.RegisteredEntity) (float64, int, domain.MatchField) {
	sim, dist := similarity.Score(name, e.Name)
	by := domain.MatchedByName
	if !s.Cfg.Aliases {
		return sim, dist, by
	}
	for _, a := range e.Aliases {
		as, ad := similarity.Score(name, a)
		if as > sim {
			sim, by = as, domain.MatchedByAlias
		}
		dist = min(dist, ad)
	}
	return sim, dist, by
}

func (s *Service) degraded(ctx context.Context, name string, role domain.Role, cause error) domain.ResolutionResult {
	sugg := s.Fallback.Suggest(name)
	logger.C(ctx).Warn().
		Str("component", "resolver").
		Str("role", string(role)).
		Str("name", name).
		Int("suggestions", len(sugg)).
		Err(cause).
		Msg("registry unavailable, using fallback suggestions")
	return domain.ResolutionResult{
		QueryName:   name,
		Role:        role,
		Suggestions: sugg,
		Degraded:    true,
	}
}

func cloneEntity(e domain.RegisteredEntity) *domain.RegisteredEntity {
	e.Aliases = slices.Clone(e.Aliases)
	return &e
}
