package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"vendormatch/internal/platform/guardrails"
	"vendormatch/internal/services/matching/domain"
	"vendormatch/internal/services/matching/fallback"
	"vendormatch/internal/services/matching/gateway"
)

func TestNew_Defaults(t *testing.T) {
	s := New(&memRegistry{}, nil, Config{})
	if s.Cfg.MinSimilarity != DefaultMinSimilarity || s.Cfg.MaxSuggestions != DefaultMaxSuggestions || s.Cfg.Workers != DefaultWorkers {
		t.Fatalf("defaults not applied: %+v", s.Cfg)
	}
	if s.Fallback == nil {
		t.Fatalf("nil fallback generator")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on nil registry")
		}
	}()
	New(nil, nil, Config{})
}

func TestResolve_ExactMatchExcludedFromSuggestions(t *testing.T) {
	reg := &memRegistry{entities: []domain.RegisteredEntity{
		{ID: 1, Name: "Acme Inc", Email: "a@x.com"},
	}}
	got := newSvc(reg, Config{}).Resolve(context.Background(), "Acme Inc")

	if !got.Exists || got.ExactMatch == nil || got.ExactMatch.Name != "Acme Inc" {
		t.Fatalf("exact match missing: %+v", got)
	}
	if got.MatchedBy != domain.MatchedByName || got.Role != domain.RoleVendor || got.Degraded {
		t.Fatalf("result flags: %+v", got)
	}
	for _, c := range got.Suggestions {
		if c.Entity.ID == 1 {
			t.Fatalf("exact match listed as its own suggestion")
		}
	}
}

func TestResolve_NearMatchRankedFirst(t *testing.T) {
	reg := &memRegistry{entities: []domain.RegisteredEntity{
		{ID: 1, Name: "Acme Incorporated", Email: "a@x.com"},
		{ID: 2, Name: "Globex", Email: "g@x.com"},
	}}
	got := newSvc(reg, Config{}).Resolve(context.Background(), "Acme Inc")

	if got.Exists || got.ExactMatch != nil {
		t.Fatalf("unexpected exact match: %+v", got)
	}
	if len(got.Suggestions) == 0 || got.Suggestions[0].Entity.Name != "Acme Incorporated" {
		t.Fatalf("suggestions = %+v", got.Suggestions)
	}
	first := got.Suggestions[0]
	if first.Similarity < 0.3 || first.Source != domain.SourceRegistry || first.Synthetic() || first.Ref != "" {
		t.Fatalf("first candidate: %+v", first)
	}
	for _, c := range got.Suggestions {
		if c.Entity.Name == "Globex" {
			t.Fatalf("Globex is below threshold but was suggested")
		}
	}
}

func TestResolve_CaseVariantIsNotExact(t *testing.T) {
	reg := &memRegistry{entities: []domain.RegisteredEntity{{ID: 1, Name: "ACME INC"}}}
	got := newSvc(reg, Config{}).Resolve(context.Background(), "Acme Inc")

	if got.Exists {
		t.Fatalf("exact match must be byte for byte")
	}
	if len(got.Suggestions) != 1 || got.Suggestions[0].Similarity != 1.0 {
		t.Fatalf("case variant should be a perfect suggestion: %+v", got.Suggestions)
	}
}

func TestResolve_ThresholdCapAndTieBreaks(t *testing.T) {
	reg := &memRegistry{entities: []domain.RegisteredEntity{
		{ID: 9, Name: "Acme B"},
		{ID: 3, Name: "Acme A"},
		{ID: 5, Name: "Acme"},
		{ID: 6, Name: "Acme Ccc"},
		{ID: 7, Name: "Acm Cx"},
		{ID: 8, Name: "cme Cxy"},
		{ID: 10, Name: "Zzzzzzzzzzzzzzzz"},
	}}
	got := newSvc(reg, Config{}).Resolve(context.Background(), "Acme C")

	if len(got.Suggestions) != DefaultMaxSuggestions {
		t.Fatalf("len = %d, want %d: %+v", len(got.Suggestions), DefaultMaxSuggestions, got.Suggestions)
	}
	for i := 1; i < len(got.Suggestions); i++ {
		a, b := got.Suggestions[i-1], got.Suggestions[i]
		if a.Similarity < b.Similarity {
			t.Fatalf("not sorted by similarity at %d", i)
		}
		if a.Similarity == b.Similarity && a.Distance > b.Distance {
			t.Fatalf("tie not broken by distance at %d", i)
		}
		if a.Similarity == b.Similarity && a.Distance == b.Distance && a.Entity.ID > b.Entity.ID {
			t.Fatalf("tie not broken by id at %d", i)
		}
	}
	// "Acme A" and "Acme B" tie on similarity and distance; lower id first
	if got.Suggestions[0].Entity.ID != 3 || got.Suggestions[1].Entity.ID != 9 {
		t.Fatalf("tie order = %d,%d", got.Suggestions[0].Entity.ID, got.Suggestions[1].Entity.ID)
	}
	for _, c := range got.Suggestions {
		if c.Entity.ID == 10 {
			t.Fatalf("below threshold entity kept")
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	reg := &memRegistry{entities: []domain.RegisteredEntity{
		{ID: 1, Name: "Acme Incorporated"},
		{ID: 2, Name: "Acme Inc."},
		{ID: 3, Name: "Acme Ltd", Aliases: []string{"ACME"}},
	}}
	s := newSvc(reg, Config{Aliases: true})
	a := s.Resolve(context.Background(), "Acme Inc")
	b := s.Resolve(context.Background(), "Acme Inc")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("resolve not idempotent:\n%+v\n%+v", a, b)
	}
}

func TestResolve_ProbeFailureFailsFast(t *testing.T) {
	reg := &memRegistry{probeErr: errDown, entities: []domain.RegisteredEntity{{ID: 1, Name: "Acme Inc"}}}
	got := newSvc(reg, Config{}).Resolve(context.Background(), "Acme Inc")

	if got.Exists || got.ExactMatch != nil || !got.Degraded {
		t.Fatalf("degraded result expected: %+v", got)
	}
	if reg.exacts.Load() != 0 || reg.actives.Load() != 0 {
		t.Fatalf("queries issued after failed probe: exact=%d active=%d", reg.exacts.Load(), reg.actives.Load())
	}
}

func TestResolve_QueryFailureFallsBack(t *testing.T) {
	for name, reg := range map[string]*memRegistry{
		"exact":  {exactErr: errDown},
		"active": {activeErr: errDown},
	} {
		got := newSvc(reg, Config{}).Resolve(context.Background(), "㈜삼성전자")
		if got.Exists || !got.Degraded {
			t.Fatalf("%s: degraded result expected: %+v", name, got)
		}
		if len(got.Suggestions) == 0 || got.Suggestions[0].Entity.Name != "㈜삼성전자" {
			t.Fatalf("%s: fallback suggestions = %+v", name, got.Suggestions)
		}
	}
}

// slowRegistry answers nothing until the caller gives up
type slowRegistry struct{}

func (slowRegistry) Probe(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }
func (slowRegistry) FindExact(ctx context.Context, _ string) (*domain.RegisteredEntity, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (slowRegistry) ListActive(ctx context.Context) ([]domain.RegisteredEntity, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestResolve_TimeoutDegradesToFallbackOnly(t *testing.T) {
	gw := gateway.New(slowRegistry{}, gateway.Config{
		Timeouts: guardrails.Timeouts{Probe: 20 * time.Millisecond, Query: 40 * time.Millisecond},
	})
	fb := fallback.New([]string{"Acme Holdings", "Acme Group"})
	s := New(gw, fb, Config{})

	start := time.Now()
	got := s.Resolve(context.Background(), "Acme Inc")
	if time.Since(start) > time.Second {
		t.Fatalf("resolve hung for %v", time.Since(start))
	}
	if got.Exists || got.ExactMatch != nil || !got.Degraded {
		t.Fatalf("degraded result expected: %+v", got)
	}
	if len(got.Suggestions) == 0 {
		t.Fatalf("expected fallback suggestions")
	}
	for _, c := range got.Suggestions {
		if c.Source != domain.SourceFallback || c.Entity.ID >= 0 {
			t.Fatalf("non fallback candidate in degraded result: %+v", c)
		}
	}
}

func TestResolve_AliasExactMatch(t *testing.T) {
	reg := &memRegistry{entities: []domain.RegisteredEntity{
		{ID: 4, Name: "Acme Incorporated", Aliases: []string{"ACME", "Acme Inc"}},
		{ID: 5, Name: "Acme Inc.", Email: "x@x.com"},
	}}

	off := newSvc(reg, Config{}).Resolve(context.Background(), "Acme Inc")
	if off.Exists {
		t.Fatalf("alias match with aliases disabled: %+v", off)
	}

	on := newSvc(reg, Config{Aliases: true}).Resolve(context.Background(), "Acme Inc")
	if !on.Exists || on.ExactMatch.ID != 4 || on.MatchedBy != domain.MatchedByAlias {
		t.Fatalf("alias exact match expected: %+v", on)
	}
	for _, c := range on.Suggestions {
		if c.Entity.ID == 4 {
			t.Fatalf("alias matched entity listed as suggestion")
		}
	}
}

func TestResolve_AliasImprovesRanking(t *testing.T) {
	reg := &memRegistry{entities: []domain.RegisteredEntity{
		{ID: 1, Name: "International Business Machines", Aliases: []string{"IBM Corp"}},
	}}

	off := newSvc(reg, Config{}).Resolve(context.Background(), "IBM Corp.")
	if len(off.Suggestions) != 0 {
		t.Fatalf("name alone should be below threshold: %+v", off.Suggestions)
	}

	on := newSvc(reg, Config{Aliases: true}).Resolve(context.Background(), "IBM Corp.")
	if len(on.Suggestions) != 1 || on.Suggestions[0].MatchedBy != domain.MatchedByAlias || on.Suggestions[0].Distance != 1 {
		t.Fatalf("alias ranking: %+v", on.Suggestions)
	}
}

func TestResolveAs_Role(t *testing.T) {
	got := newSvc(&memRegistry{}, Config{}).ResolveAs(context.Background(), "Acme", domain.RoleDelivery)
	if got.Role != domain.RoleDelivery || got.QueryName != "Acme" {
		t.Fatalf("got %+v", got)
	}
}
