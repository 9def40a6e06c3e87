package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateKeyErr reports whether err is a unique-constraint violation from
// either supported dialect. Gorm translates some of these to ErrDuplicatedKey,
// but raw-SQL paths surface the driver message directly.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") || // postgres 23505
		strings.Contains(msg, "UNIQUE constraint failed") // sqlite 2067
}
