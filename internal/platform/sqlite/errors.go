package sqlite

import (
	"errors"

	"modernc.org/sqlite"
)

// sqlite extended result codes for constraint violations.
const (
	constraintPrimaryKey = 1555 // SQLITE_CONSTRAINT_PRIMARYKEY
	constraintUnique     = 2067 // SQLITE_CONSTRAINT_UNIQUE
)

// isUniqueViolation checks if the given error is a sqlite unique constraint
// violation, covering both primary key and secondary unique indexes.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == constraintPrimaryKey || code == constraintUnique
	}
	return false
}
