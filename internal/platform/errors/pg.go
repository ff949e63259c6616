package errors

// Postgres-specific helpers for mapping pgx errors to project ErrorCode and retry semantics

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the registry read path cares about
const (
	pgErrInvalidTextRepresentation = "22P02"
	pgErrUndefinedTable            = "42P01"
	pgErrUndefinedColumn           = "42703"
	pgErrQueryCanceled             = "57014"
	pgErrAdminShutdown             = "57P01"
	pgErrCannotConnectNow          = "57P03" // i.e. startup in progress

	pgErrSerializationFailure = "40001"
	pgErrDeadlockDetected     = "40P01"
	pgErrLockNotAvailable     = "55P03"

	// classes
	pgClassConnection = "08"
	pgClassResources  = "53"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError.
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsConnectionUnavailable reports whether the server refused or dropped us
func IsConnectionUnavailable(err error) bool {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return false
	}
	switch {
	case strings.HasPrefix(pgErr.Code, pgClassConnection),
		strings.HasPrefix(pgErr.Code, pgClassResources),
		pgErr.Code == pgErrCannotConnectNow,
		pgErr.Code == pgErrAdminShutdown:
		return true
	}
	return false
}

// DBErrorCode maps a Postgres error to an ErrorCode with an ok flag
// !ok means err wasn't a PgError; caller may fall back to generic handling
func DBErrorCode(err error) (ErrorCode, bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return ErrorCodeUnknown, false
	}

	if IsConnectionUnavailable(pgErr) {
		return ErrorCodeUnavailable, true
	}

	switch pgErr.Code {
	case pgErrQueryCanceled:
		// statement_timeout on the server side
		return ErrorCodeUnavailable, true

	case pgErrInvalidTextRepresentation:
		return ErrorCodeInvalidArgument, true

	case pgErrUndefinedTable, pgErrUndefinedColumn:
		// schema drift; the registry cannot answer
		return ErrorCodeUnavailable, true
	}

	return ErrorCodeDB, true
}

// FromPostgres wraps a pg error with a mapped ErrorCode and message.
// If err is nil, returns nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// IsRetryable reports whether a database error represents a transient condition
// worth retrying. Server side connection trouble counts; auth failures or a
// missing database do not
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Do not retry local cancellations/timeouts; let the caller decide higher-level retries
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}

	root := Root(err)

	var pgErr *pgconn.PgError
	if stderrs.As(root, &pgErr) {
		if IsConnectionUnavailable(pgErr) {
			return true
		}
		switch pgErr.Code {
		case pgErrSerializationFailure, pgErrDeadlockDetected, pgErrLockNotAvailable, pgErrCannotConnectNow:
			return true
		default:
			return false
		}
	}

	s := strings.ToLower(root.Error())
	switch {
	case strings.Contains(s, "canceling statement due to statement timeout"),
		strings.Contains(s, "terminating connection due to administrator command"),
		strings.Contains(s, "connection reset by peer"):
		return true
	default:
		return false
	}
}
