package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// duplicateSignatures are the raw driver messages for unique violations, for
// connections opened without TranslateError (tests, tooling).
var duplicateSignatures = []string{
	"duplicate key value violates unique constraint", // postgres
	"SQLSTATE 23505",            // pgx
	"Error 1062",                // mysql
	"UNIQUE constraint failed",  // sqlite
	"constraint failed: UNIQUE", // sqlite, extended code 2067
}

// IsDuplicateKeyErr reports a unique violation: a padron, boleta period,
// medidor serial or zona valor already taken.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, sig := range duplicateSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
