// Package guardrails holds time budget helpers for calls to remote dependencies
package guardrails

import (
	"context"
	"time"
)

// Timeouts bundles the budgets for registry calls.
// Zero values mean no extra timeout at that level
type Timeouts struct {
	// Probe caps the cheap liveness check
	Probe time.Duration

	// Query caps exact lookups and active listings
	Query time.Duration
}

// ForProbe returns a sub context bounded by Probe and any remaining parent budget
func ForProbe(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Probe)
}

// ForQuery returns a sub context bounded by Query and any remaining parent budget
func ForQuery(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Query)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of the requested duration and any parent remainder.
// Never extends the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
