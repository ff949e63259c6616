package store

import (
	"vendormatch/internal/platform/logger"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger routes connection and query logs through log, tagged layer=store
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log.With().Str("layer", "store").Logger()
		return nil
	}
}
