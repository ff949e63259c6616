// Package modkit provides module wiring and core deps
package modkit

import (
	"vendormatch/internal/modkit/repokit"
	"vendormatch/internal/platform/config"
	"vendormatch/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf

	// PG is the registry database, nil when no database is configured
	PG repokit.Queryer
}
