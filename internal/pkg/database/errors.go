package database

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStorageUnavailable marks failures where the store could not be reached
// or did not answer in time. Callers may retry.
var ErrStorageUnavailable = errors.New("storage unavailable")

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// ConstraintName returns the violated constraint name, if any.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// IsUnavailable reports whether err is a timeout or connection level failure.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify wraps err with ErrStorageUnavailable when it is a connectivity failure.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	if IsUnavailable(err) {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return err
}

const invalidTextRepresentationCode = "22P02"

// IsInvalidInput reports whether PostgreSQL rejected a parameter's text form,
// e.g. a malformed UUID. Lookups treat this as "not found".
func IsInvalidInput(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentationCode
}
