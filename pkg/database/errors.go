package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories react to.
const (
	CodeUniqueViolation  = "23505"
	CodeLockNotAvailable = "55P03"
	CodeQueryCanceled    = "57014"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports a unique index violation, optionally for a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != CodeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsLockNotAvailable covers NOWAIT failures and lock_timeout expiry; both raise 55P03.
func IsLockNotAvailable(err error) bool {
	return pgCode(err) == CodeLockNotAvailable
}

// IsQueryCanceled is raised when statement_timeout fires.
func IsQueryCanceled(err error) bool {
	return pgCode(err) == CodeQueryCanceled
}
