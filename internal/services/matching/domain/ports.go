package domain

import "context"

// Registry is the read only capability the core queries.
// FindExact returns nil, nil when no active entity has that exact name
type Registry interface {
	Probe(ctx context.Context) error
	FindExact(ctx context.Context, name string) (*RegisteredEntity, error)
	ListActive(ctx context.Context) ([]RegisteredEntity, error)
}

// AliasFinder is an optional Registry extension for alias lookups.
// FindByAlias returns nil, nil when no active entity carries the alias
type AliasFinder interface {
	FindByAlias(ctx context.Context, alias string) (*RegisteredEntity, error)
}

// Resolver resolves one name
type Resolver interface {
	Resolve(ctx context.Context, name string) ResolutionResult
}

// ConflictChecker compares one spreadsheet email with the registry
type ConflictChecker interface {
	CheckConflict(ctx context.Context, name, email string) EmailConflict
}

// BatchValidator validates a whole batch of rows
type BatchValidator interface {
	ValidateBatch(ctx context.Context, rows []BatchRow) (BatchValidationReport, error)
}

// Ports exposed by the matching service
type Ports interface {
	Resolver
	ConflictChecker
	BatchValidator
}
