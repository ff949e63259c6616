package service

import (
	"context"
	"strings"
	"sync"
	"time"

	perr "vendormatch/internal/platform/errors"
	"vendormatch/internal/platform/logger"
	"vendormatch/internal/platform/validate"
	"vendormatch/internal/services/matching/domain"

	"github.com/google/uuid"
)

type jobKind uint8

const (
	jobVendor jobKind = iota
	jobDelivery
	jobEmail
)

func (k jobKind) String() string {
	switch k {
	case jobVendor:
		return "vendor"
	case jobDelivery:
		return "delivery"
	default:
		return "email"
	}
}

// job is one resolution or email check. slot indexes the result slice of its kind
type job struct {
	kind  jobKind
	slot  int
	row   int
	name  string
	email string

	// placeholder jobs come from invalid rows and never reach the registry
	placeholder bool
}

// plan is the ordered work for a batch
type plan struct {
	jobs       []*job
	vendors    int
	deliveries int
	emails     int
	invalid    int
}

// planBatch lays out jobs in first appearance order. With dedupe each distinct
// key gets one job; a key first seen on an invalid row is upgraded when a valid
// row repeats it
func planBatch(ctx context.Context, rows []domain.BatchRow, dedupe bool) plan {
	var p plan
	seen := map[string]*job{}

	add := func(kind jobKind, key string, row int, name, email string, valid bool) {
		k := kind.String() + "\x00" + key
		if dedupe {
			if j, ok := seen[k]; ok {
				if valid && j.placeholder {
					j.placeholder = false
				}
				return
			}
		}
		j := &job{kind: kind, row: row, name: name, email: email, placeholder: !valid}
		switch kind {
		case jobVendor:
			j.slot = p.vendors
			p.vendors++
		case jobDelivery:
			j.slot = p.deliveries
			p.deliveries++
		case jobEmail:
			j.slot = p.emails
			p.emails++
		}
		p.jobs = append(p.jobs, j)
		if dedupe {
			seen[k] = j
		}
	}

	for i, r := range rows {
		valid := true
		if err := validate.Struct(r); err != nil {
			valid = false
			p.invalid++
			ev := logger.C(logger.WithRow(ctx, i)).Warn().Str("component", "batch_validator")
			if e, ok := perr.As(err); ok {
				ev = ev.Str("field", e.Field()).Str("reason", e.Message())
			}
			ev.Msg("invalid row, results will be unresolved placeholders")
		}

		if !blank(r.VendorName) {
			add(jobVendor, r.VendorName, i, r.VendorName, "", valid)
		}
		if !blank(r.DeliveryName) && r.DeliveryName != r.VendorName {
			add(jobDelivery, r.DeliveryName, i, r.DeliveryName, "", valid)
		}
		if !blank(r.Email) {
			add(jobEmail, r.VendorName+"\x00"+r.Email, i, r.VendorName, r.Email, valid)
		}
	}
	return p
}

// ValidateBatch implements domain.BatchValidator. Rows are resolved on a
// bounded worker pool; the error is non nil only when ctx ended before every
// job was dispatched, in which case the report holds the jobs that finished
func (s *Service) ValidateBatch(ctx context.Context, rows []domain.BatchRow) (domain.BatchValidationReport, error) {
	if logger.BatchID(ctx) == "" {
		ctx = logger.WithBatch(ctx, uuid.NewString())
	}
	start := time.Now()
	p := planBatch(ctx, rows, s.Cfg.Dedupe)

	vendors := make([]domain.ResolutionResult, p.vendors)
	deliveries := make([]domain.ResolutionResult, p.deliveries)
	emails := make([]domain.EmailConflict, p.emails)
	done := make([]bool, len(p.jobs))

	var dispatchErr error
	var wg sync.WaitGroup
	sem := make(chan struct{}, max(s.Cfg.Workers, 1))

dispatch:
	for i, j := range p.jobs {
		select {
		case <-ctx.Done():
			dispatchErr = ctx.Err()
			break dispatch
		case sem <- struct{}{}:
		}
		// both cases may be ready at once; never start work after cancellation
		if err := ctx.Err(); err != nil {
			<-sem
			dispatchErr = err
			break
		}
		wg.Add(1)
		go func(i int, j *job) {
			defer func() { <-sem; wg.Done() }()
			s.runJob(logger.WithRow(ctx, j.row), j, vendors, deliveries, emails)
			done[i] = true
		}(i, j)
	}
	wg.Wait()

	report := assemble(p, done, vendors, deliveries, emails)

	ev := logger.C(ctx).Info()
	if dispatchErr != nil {
		ev = logger.C(ctx).Warn().Err(dispatchErr)
	}
	ev.Str("component", "batch_validator").
		Int("rows", len(rows)).
		Int("invalid_rows", p.invalid).
		Int("vendors", len(report.VendorResults)).
		Int("deliveries", len(report.DeliveryResults)).
		Int("email_checks", len(report.EmailConflicts)).
		Int("conflicts", report.Conflicts()).
		Int("unresolved", report.Unresolved()).
		Dur("elapsed", time.Since(start)).
		Msg("batch validated")

	if dispatchErr != nil {
		return report, perr.Wrap(dispatchErr, perr.ErrorCodeUnavailable, "batch validation canceled")
	}
	return report, nil
}

// runJob writes exactly one result into its slot. A panic is recovered and
// replaced by the unresolved placeholder for that job
func (s *Service) runJob(ctx context.Context, j *job, vendors, deliveries []domain.ResolutionResult, emails []domain.EmailConflict) {
	defer func() {
		if r := recover(); r != nil {
			err := perr.PanicErrf("%s job for row %d: %v", j.kind, j.row, r)
			logger.C(ctx).Error().Str("component", "batch_validator").Err(err).Msg("job panicked, substituting unresolved result")
			writePlaceholder(j, vendors, deliveries, emails)
		}
	}()

	if j.placeholder {
		writePlaceholder(j, vendors, deliveries, emails)
		return
	}
	switch j.kind {
	case jobVendor:
		vendors[j.slot] = s.ResolveAs(ctx, j.name, domain.RoleVendor)
	case jobDelivery:
		deliveries[j.slot] = s.ResolveAs(ctx, j.name, domain.RoleDelivery)
	case jobEmail:
		emails[j.slot] = s.CheckConflict(ctx, j.name, j.email)
	}
}

func writePlaceholder(j *job, vendors, deliveries []domain.ResolutionResult, emails []domain.EmailConflict) {
	switch j.kind {
	case jobVendor:
		vendors[j.slot] = unresolved(j.name, domain.RoleVendor)
	case jobDelivery:
		deliveries[j.slot] = unresolved(j.name, domain.RoleDelivery)
	case jobEmail:
		emails[j.slot] = domain.EmailConflict{Type: domain.NoConflict, QueryName: j.name, SpreadsheetEmail: j.email}
	}
}

func unresolved(name string, role domain.Role) domain.ResolutionResult {
	return domain.ResolutionResult{QueryName: name, Role: role, Suggestions: []domain.Candidate{}}
}

// assemble keeps finished slots in plan order
func assemble(p plan, done []bool, vendors, deliveries []domain.ResolutionResult, emails []domain.EmailConflict) domain.BatchValidationReport {
	r := domain.BatchValidationReport{
		VendorResults:   make([]domain.ResolutionResult, 0, len(vendors)),
		DeliveryResults: make([]domain.ResolutionResult, 0, len(deliveries)),
		EmailConflicts:  make([]domain.EmailConflict, 0, len(emails)),
	}
	for i, j := range p.jobs {
		if !done[i] {
			continue
		}
		switch j.kind {
		case jobVendor:
			r.VendorResults = append(r.VendorResults, vendors[j.slot])
		case jobDelivery:
			r.DeliveryResults = append(r.DeliveryResults, deliveries[j.slot])
		case jobEmail:
			r.EmailConflicts = append(r.EmailConflicts, emails[j.slot])
		}
	}
	return r
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
