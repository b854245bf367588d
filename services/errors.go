package services

import (
	"errors"
	"strings"
)

// Domain errors returned by the registry, catalog and ledger services.
// Handlers translate these into HTTP responses; anything else is a 500.
var (
	ErrDuplicateName     = errors.New("name already exists")
	ErrDuplicateValue    = errors.New("value already exists")
	ErrActivationBlocked = errors.New("list setting needs at least one item before activation")
	ErrInvalidDateFormat = errors.New("date must be in dd.mm.yyyy format")
	ErrValidationFailed  = errors.New("validation failed")
	ErrNotFound          = errors.New("record not found")
)

// isUniqueViolation reports whether err looks like a unique-constraint
// rejection from the database. Concurrent writers racing past the
// pre-insert checks are serialized by the constraint itself; the losing
// writer's error is mapped back to the matching domain error.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || // postgres
		strings.Contains(msg, "Duplicate entry") || // mysql
		strings.Contains(msg, "UNIQUE constraint") // sqlite
}
