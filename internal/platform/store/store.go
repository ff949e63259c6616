// Package store provides the sql seam used by registry repos
package store

import (
	"context"
	"errors"
	"fmt"

	"vendormatch/internal/platform/logger"
)

// Store is the facade for the registry database
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	// zero means a no op zerolog logger
	Log logger.Logger

	// PG is the postgres sql seam, nil when disabled
	PG DB
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// RowQuerier is the read surface repos use for sql
// the registry is never written from this process
type RowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// DB is a RowQuerier that can also be probed and closed
type DB interface {
	RowQuerier
	Pinger
	Close() error
}

// Open constructs a Store with the requested backends
// backends not enabled in cfg remain nil on the Store
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	// defaults for zero logger to avoid nil checks
	s.Log = s.Log.With().Logger()

	if cfg.PG.Enabled {
		db, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = db
	}

	return s, nil
}

// Guard verifies all configured seams the Store knows about
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	if s.PG != nil {
		if err := s.PG.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pg: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close closes all initialized backends
// nil backends are ignored
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.PG == nil {
		return nil
	}
	return s.PG.Close()
}
