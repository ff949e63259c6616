// Package repo provides the registry implementations for the matching service
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"vendormatch/internal/modkit/repokit"
	perr "vendormatch/internal/platform/errors"
	"vendormatch/internal/platform/store"
	"vendormatch/internal/services/matching/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage is the registry read surface, alias lookups included
type Storage interface {
	domain.Registry
	domain.AliasFinder
}

var _ Storage = (*pg)(nil)

const entityCols = `id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(contact_person, ''), COALESCE(aliases, '[]'::jsonb)`

// Probe touches the vendors table so a missing relation fails as well as a dead pool
func (s *pg) Probe(ctx context.Context) error {
	if _, err := store.Scalar[bool](ctx, s.q, `SELECT EXISTS (SELECT 1 FROM vendors)`); err != nil {
		return perr.FromPostgres(err, "probe vendors")
	}
	return nil
}

// FindExact returns the lowest id active vendor whose name equals name, nil when none
func (s *pg) FindExact(ctx context.Context, name string) (*domain.RegisteredEntity, error) {
	return s.first(ctx, "find vendor by name", `SELECT `+entityCols+`
		FROM vendors
		WHERE name = $1 AND is_active
		ORDER BY id
		LIMIT 1`, name)
}

// FindByAlias returns the lowest id active vendor listing alias, nil when none
func (s *pg) FindByAlias(ctx context.Context, alias string) (*domain.RegisteredEntity, error) {
	return s.first(ctx, "find vendor by alias", `SELECT `+entityCols+`
		FROM vendors
		WHERE is_active AND aliases @> jsonb_build_array($1::text)
		ORDER BY id
		LIMIT 1`, alias)
}

// ListActive returns every active vendor ordered by id
func (s *pg) ListActive(ctx context.Context) ([]domain.RegisteredEntity, error) {
	out, err := store.Many(ctx, s.q, scanEntity, `SELECT `+entityCols+`
		FROM vendors
		WHERE is_active
		ORDER BY id`)
	if err != nil {
		return nil, perr.FromPostgres(err, "list active vendors")
	}
	if out == nil {
		out = []domain.RegisteredEntity{}
	}
	return out, nil
}

func (s *pg) first(ctx context.Context, op, sql, arg string) (*domain.RegisteredEntity, error) {
	e, err := store.First(ctx, s.q, scanEntity, sql, arg)
	if errors.Is(err, perr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.FromPostgres(err, op)
	}
	return &e, nil
}

func scanEntity(r store.Row) (domain.RegisteredEntity, error) {
	var (
		e   domain.RegisteredEntity
		raw []byte
	)
	if err := r.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.ContactPerson, &raw); err != nil {
		return e, err
	}
	aliases, err := decodeAliases(raw)
	if err != nil {
		return e, fmt.Errorf("vendor %d: %w", e.ID, err)
	}
	e.Aliases = aliases
	return e, nil
}

// decodeAliases reads the jsonb alias list. null and empty input mean no aliases
func decodeAliases(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var xs []string
	if err := json.Unmarshal(raw, &xs); err != nil {
		return nil, fmt.Errorf("decode aliases: %w", err)
	}
	if len(xs) == 0 {
		return nil, nil
	}
	return xs, nil
}
