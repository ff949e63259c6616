package service

import (
	"context"
	"strings"

	"vendormatch/internal/platform/logger"
	"vendormatch/internal/services/matching/domain"
)

// CheckConflict implements domain.ConflictChecker. Missing information is
// never a conflict: a blank name or email, an unreachable registry and an
// unknown name all report no_conflict
func (s *Service) CheckConflict(ctx context.Context, name, email string) domain.EmailConflict {
	res := domain.EmailConflict{
		Type:             domain.NoConflict,
		QueryName:        name,
		SpreadsheetEmail: email,
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return res
	}

	log := logger.C(ctx).With().Str("component", "conflict_checker").Str("name", name).Logger()
	if err := s.Registry.Probe(ctx); err != nil {
		log.Warn().Err(err).Msg("registry unavailable, skipping email check")
		return res
	}
	e, _, err := s.findEntity(ctx, name)
	if err != nil {
		log.Warn().Err(err).Msg("registry unavailable, skipping email check")
		return res
	}
	if e == nil {
		return res
	}

	id := e.ID
	res.RegistryEmail = e.Email
	res.EntityID = &id
	res.EntityName = e.Name
	if !sameEmail(e.Email, email) {
		res.Type = domain.Conflict
		log.Info().Str("registry_email", e.Email).Str("spreadsheet_email", email).Msg("email conflict")
	}
	return res
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
