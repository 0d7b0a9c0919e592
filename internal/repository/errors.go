package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a referenced row does not exist. Repositories
// translate pgx.ErrNoRows so services never depend on the driver.
var ErrNotFound = errors.New("not found")

const uniqueViolationCode = "23505"

// UniqueViolation reports whether err is a unique-constraint violation, and if
// constraint is non-empty, whether it is a violation of that named constraint.
// Knowing the constraint matters: a join-code collision is retryable, a
// one-team-per-user violation is not. Falls back to message matching for
// errors that did not come from the driver.
func UniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != uniqueViolationCode {
			return false
		}
		return constraint == "" || pgErr.ConstraintName == constraint
	}

	msg := err.Error()
	if !strings.Contains(msg, "duplicate key") && !strings.Contains(msg, "unique constraint") {
		return false
	}
	return constraint == "" || strings.Contains(msg, constraint)
}
