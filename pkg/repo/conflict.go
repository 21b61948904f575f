package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// ConflictError reports a storage-level uniqueness violation on Field.
type ConflictError struct {
	Field      string
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("unique violation on %s (%s)", e.Field, e.Constraint)
	}
	return fmt.Sprintf("unique violation on %s", e.Field)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func NewConflict(field string) *ConflictError {
	return &ConflictError{Field: field}
}

// IsConflict reports whether err is a ConflictError. With a non-empty field it
// also requires the violated field to match.
func IsConflict(err error, field string) bool {
	var ce *ConflictError
	if !errors.As(err, &ce) {
		return false
	}
	return field == "" || ce.Field == field
}

// TranslateUniqueViolation converts a postgres unique violation into a
// ConflictError. fields maps constraint names to field names; unknown
// constraints fall back to a substring match on the field name.
func TranslateUniqueViolation(err error, fields map[string]string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return err
	}
	if field, ok := fields[pgErr.ConstraintName]; ok {
		return &ConflictError{Field: field, Constraint: pgErr.ConstraintName, Err: err}
	}
	for _, field := range fields {
		if strings.Contains(pgErr.ConstraintName, field) {
			return &ConflictError{Field: field, Constraint: pgErr.ConstraintName, Err: err}
		}
	}
	return &ConflictError{Field: "unknown", Constraint: pgErr.ConstraintName, Err: err}
}
