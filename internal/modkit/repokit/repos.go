// Package repokit provides common types and helpers for repository implementations
package repokit

import (
	"vendormatch/internal/platform/store"
)

// Queryer is the minimal read surface for SQL repos
type Queryer = store.RowQuerier

type (
	// Rows are the result set of a query
	Rows = store.Rows

	// Row is a single row result from a query
	Row = store.Row
)
