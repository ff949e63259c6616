// Package fallback produces advisory candidates from a static pattern list
// when the registry cannot be reached
package fallback

import (
	"slices"

	"vendormatch/internal/services/matching/domain"
	"vendormatch/internal/services/matching/similarity"

	"github.com/google/uuid"
)

const (
	// DefaultMinSimilarity is looser than the live path since the pool is small
	DefaultMinSimilarity = 0.2

	// DefaultMaxSuggestions caps the fallback list
	DefaultMaxSuggestions = 3

	// PlaceholderEmail marks a contact that was never read from the registry
	PlaceholderEmail = "unverified@fallback.invalid"

	// PlaceholderContact is the contact person of every fallback candidate
	PlaceholderContact = "unverified"

	refPrefix = "fallback:"
)

// refNamespace scopes the deterministic fallback refs
var refNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("vendormatch/fallback"))

// DefaultPatterns are common Korean company name shapes
var DefaultPatterns = []string{
	"㈜삼성전자", "㈜LG전자", "㈜현대자동차", "㈜SK하이닉스", "㈜포스코",
	"㈜삼성물산", "㈜현대건설", "㈜대우건설", "㈜GS건설", "㈜롯데건설",
	"㈜한화시스템", "㈜두산중공업", "㈜코웨이", "㈜아모레퍼시픽", "㈜CJ제일제당",
	"㈜신세계", "㈜롯데마트", "㈜이마트", "㈜홈플러스", "㈜메가마트",
	"테크놀로지㈜", "엔지니어링㈜", "건설㈜", "전자㈜", "시스템㈜",
	"솔루션㈜", "서비스㈜", "컨설팅㈜", "개발㈜", "제조㈜",
}

// Config tunes a Generator
type Config struct {
	MinSimilarity  float64
	MaxSuggestions int
}

// Generator ranks a name against a fixed pattern list.
// It holds no mutable state and is safe for concurrent use
type Generator struct {
	patterns []string
	cfg      Config
}

// New builds a Generator over patterns with the default thresholds.
// A nil or empty list uses DefaultPatterns
func New(patterns []string) *Generator {
	return NewWithConfig(patterns, Config{})
}

// NewWithConfig is New with explicit thresholds; zero values take the defaults
func NewWithConfig(patterns []string, cfg Config) *Generator {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	if cfg.MinSimilarity <= 0 {
		cfg.MinSimilarity = DefaultMinSimilarity
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = DefaultMaxSuggestions
	}
	return &Generator{patterns: slices.Clone(patterns), cfg: cfg}
}

// Patterns returns a copy of the pattern list
func (g *Generator) Patterns() []string { return slices.Clone(g.patterns) }

// Suggest returns at most MaxSuggestions synthetic candidates for name,
// best similarity first, ties by distance then pattern order
func (g *Generator) Suggest(name string) []domain.Candidate {
	type scored struct {
		idx  int
		sim  float64
		dist int
	}
	var hits []scored
	for i, p := range g.patterns {
		sim, dist := similarity.Score(name, p)
		if sim >= g.cfg.MinSimilarity {
			hits = append(hits, scored{idx: i, sim: sim, dist: dist})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int {
		switch {
		case a.sim > b.sim:
			return -1
		case a.sim < b.sim:
			return 1
		}
		return a.dist - b.dist
	})
	if len(hits) > g.cfg.MaxSuggestions {
		hits = hits[:g.cfg.MaxSuggestions]
	}

	out := make([]domain.Candidate, 0, len(hits))
	for _, h := range hits {
		out = append(out, g.candidate(h.idx, h.sim, h.dist))
	}
	return out
}

func (g *Generator) candidate(idx int, sim float64, dist int) domain.Candidate {
	p := g.patterns[idx]
	return domain.Candidate{
		Entity: domain.RegisteredEntity{
			ID:            -int64(idx + 1),
			Name:          p,
			Email:         PlaceholderEmail,
			ContactPerson: PlaceholderContact,
		},
		Similarity: sim,
		Distance:   dist,
		MatchedBy:  domain.MatchedByName,
		Source:     domain.SourceFallback,
		Ref:        Ref(p),
	}
}

// Ref is the synthetic identifier for a fallback pattern, stable across runs
func Ref(pattern string) string {
	return refPrefix + uuid.NewSHA1(refNamespace, []byte(pattern)).String()
}
