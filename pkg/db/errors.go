package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint failure. A non-empty
// constraint narrows the match to that constraint. Postgres errors are matched by
// SQLSTATE; sqlite only exposes the message text.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return constraint == "" || pgErr.ConstraintName == constraint
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") && !strings.Contains(msg, "duplicate key value") {
		return false
	}
	return constraint == "" || strings.Contains(msg, constraint)
}
