// Package gateway bounds and classifies every call to the entity registry
package gateway

import (
	"context"
	"time"

	perr "vendormatch/internal/platform/errors"
	"vendormatch/internal/platform/guardrails"
	"vendormatch/internal/platform/logger"
	"vendormatch/internal/services/matching/domain"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Default budgets per call kind
const (
	DefaultProbeTimeout = 2 * time.Second
	DefaultQueryTimeout = 5 * time.Second
)

// Config tunes a Gateway
type Config struct {
	Timeouts guardrails.Timeouts

	// RPS caps registry calls per second, 0 disables the limiter
	RPS   float64
	Burst int
}

// Gateway wraps a domain.Registry. It satisfies domain.Registry and
// domain.AliasFinder itself, and every error it returns is ErrorCodeUnavailable
type Gateway struct {
	reg domain.Registry
	to  guardrails.Timeouts
	lim *rate.Limiter
	sf  singleflight.Group
}

var (
	_ domain.Registry    = (*Gateway)(nil)
	_ domain.AliasFinder = (*Gateway)(nil)
)

// New wraps reg; zero timeouts take the defaults
func New(reg domain.Registry, cfg Config) *Gateway {
	if reg == nil {
		panic("gateway.New requires a non nil Registry")
	}
	if cfg.Timeouts.Probe <= 0 {
		cfg.Timeouts.Probe = DefaultProbeTimeout
	}
	if cfg.Timeouts.Query <= 0 {
		cfg.Timeouts.Query = DefaultQueryTimeout
	}
	g := &Gateway{reg: reg, to: cfg.Timeouts}
	if cfg.RPS > 0 {
		g.lim = rate.NewLimiter(rate.Limit(cfg.RPS), max(cfg.Burst, 1))
	}
	return g
}

// IsUnavailable reports whether err came out of a Gateway
func IsUnavailable(err error) bool { return perr.IsUnavailable(err) }

// Timeouts returns the effective budgets
func (g *Gateway) Timeouts() guardrails.Timeouts { return g.to }

// Probe runs the registry liveness check under the probe budget
func (g *Gateway) Probe(ctx context.Context) error {
	_, err := call(ctx, g, "probe", "probe", guardrails.ForProbe, func(c context.Context) (struct{}, error) {
		return struct{}{}, g.reg.Probe(c)
	})
	return err
}

// FindExact looks up an active entity by byte identical name
func (g *Gateway) FindExact(ctx context.Context, name string) (*domain.RegisteredEntity, error) {
	return call(ctx, g, "find_exact", "exact\x00"+name, guardrails.ForQuery, func(c context.Context) (*domain.RegisteredEntity, error) {
		return g.reg.FindExact(c, name)
	})
}

// ListActive returns the candidate pool
func (g *Gateway) ListActive(ctx context.Context) ([]domain.RegisteredEntity, error) {
	return call(ctx, g, "list_active", "active", guardrails.ForQuery, func(c context.Context) ([]domain.RegisteredEntity, error) {
		return g.reg.ListActive(c)
	})
}

// FindByAlias looks up an active entity by alias.
// Registries without alias support report no match
func (g *Gateway) FindByAlias(ctx context.Context, alias string) (*domain.RegisteredEntity, error) {
	af, ok := g.reg.(domain.AliasFinder)
	if !ok {
		return nil, nil
	}
	return call(ctx, g, "find_alias", "alias\x00"+alias, guardrails.ForQuery, func(c context.Context) (*domain.RegisteredEntity, error) {
		return af.FindByAlias(c, alias)
	})
}

type bounder func(context.Context, guardrails.Timeouts) (context.Context, context.CancelFunc)

// call collapses identical in flight calls into one registry round trip.
// The shared call is detached from any single caller and bounded by the budget
// alone; each caller waits under its own bounded context
func call[T any](ctx context.Context, g *Gateway, op, key string, bound bounder, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, g.unavailable(ctx, op, err)
	}

	ch := g.sf.DoChan(key, func() (v any, err error) {
		// DoChan re-panics on a goroutine nobody can recover
		defer func() {
			if r := recover(); r != nil {
				err = perr.PanicErrf("registry %s panicked: %v", op, r)
			}
		}()
		sctx, cancel := bound(context.WithoutCancel(ctx), g.to)
		defer cancel()
		if g.lim != nil {
			if err := g.lim.Wait(sctx); err != nil {
				return nil, err
			}
		}
		return fn(sctx)
	})

	cctx, cancel := bound(ctx, g.to)
	defer cancel()

	select {
	case <-cctx.Done():
		return zero, g.unavailable(ctx, op, cctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, g.unavailable(ctx, op, res.Err)
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

// unavailable folds any failure into one kind and logs it once per caller
func (g *Gateway) unavailable(ctx context.Context, op string, cause error) error {
	if _, ok := perr.ExtractPgError(cause); ok && perr.CodeOf(cause) == perr.ErrorCodeUnknown {
		cause = perr.FromPostgres(cause, op)
	}
	log := logger.C(ctx)
	log.Warn().
		Str("component", "registry_gateway").
		Str("op", op).
		Str("cause_code", perr.CodeOf(cause).String()).
		Err(cause).
		Msg("registry unavailable")
	return perr.WithOp(perr.Wrap(cause, perr.ErrorCodeUnavailable, "registry unavailable"), op)
}
