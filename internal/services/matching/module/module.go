// Package module wires the matching service from configuration
package module

import (
	"context"

	"vendormatch/internal/core/version"
	"vendormatch/internal/modkit"
	"vendormatch/internal/modkit/repokit"
	"vendormatch/internal/platform/config"
	"vendormatch/internal/platform/guardrails"
	"vendormatch/internal/platform/logger"
	"vendormatch/internal/platform/store"
	"vendormatch/internal/services/matching/domain"
	"vendormatch/internal/services/matching/fallback"
	"vendormatch/internal/services/matching/gateway"
	"vendormatch/internal/services/matching/repo"
	"vendormatch/internal/services/matching/service"
)

// Ports exposed by the matching module
type Ports struct {
	Resolver  domain.Resolver
	Conflicts domain.ConflictChecker
	Batch     domain.BatchValidator
}

// Module implements the matching service module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New constructs a new matching module. Without a database the registry is an
// empty in memory one and every lookup misses
func New(deps modkit.Deps) *Module {
	var reg domain.Registry
	if deps.PG != nil {
		reg = repokit.MustBind(repo.NewPG(), deps.PG)
	} else {
		reg = repo.NewMemory(nil)
	}
	return NewWithRegistry(deps, reg)
}

// NewWithRegistry is New over a caller supplied registry
func NewWithRegistry(deps modkit.Deps, reg domain.Registry) *Module {
	opts := FromConfig(deps.Cfg)

	gw := gateway.New(reg, gateway.Config{
		Timeouts: guardrails.Timeouts{Probe: opts.ProbeTimeout, Query: opts.QueryTimeout},
		RPS:      opts.RegistryRPS,
		Burst:    opts.RegistryBurst,
	})
	fb := fallback.NewWithConfig(opts.FallbackPatterns, fallback.Config{
		MinSimilarity:  opts.FallbackMinSimilarity,
		MaxSuggestions: opts.FallbackMaxSuggestions,
	})
	svc := service.New(gw, fb, service.Config{
		MinSimilarity:  opts.MinSimilarity,
		MaxSuggestions: opts.MaxSuggestions,
		Workers:        opts.Workers,
		Dedupe:         opts.Dedupe,
		Aliases:        opts.Aliases,
	})

	deps.Log.Info().
		Str("component", "matching").
		Str("build", version.Info().String()).
		Bool("database", deps.PG != nil).
		Int("workers", opts.Workers).
		Bool("dedupe", opts.Dedupe).
		Bool("aliases", opts.Aliases).
		Int("fallback_patterns", len(opts.FallbackPatterns)).
		Msg("matching module wired")

	m := &Module{deps: deps, opts: opts}
	m.ports = Ports{
		Resolver:  svc,
		Conflicts: svc,
		Batch:     svc,
	}
	return m
}

// Open loads .env files, connects the registry database when configured and wires the module.
// The returned store must be closed by the caller
func Open(ctx context.Context, dotenv ...string) (*Module, *store.Store, error) {
	if err := config.LoadDotenv(dotenv...); err != nil {
		return nil, nil, err
	}
	cfg := config.New()

	st, err := store.Open(ctx, StoreConfig(cfg), store.WithLogger(*logger.Named("store")))
	if err != nil {
		return nil, nil, err
	}
	deps := modkit.Deps{Log: *logger.Named("matching"), Cfg: cfg}
	if st.PG != nil {
		if err := st.Guard(ctx); err != nil {
			_ = st.Close(ctx)
			return nil, nil, err
		}
		deps.PG = st.PG
	}
	return New(deps), st, nil
}

// Name returns the module name
func (m *Module) Name() string { return "matching" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }

// Options returns the options the module was wired with
func (m *Module) Options() Options { return m.opts }
