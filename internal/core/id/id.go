// Package id provides UUIDv7 row identifiers for students and employees.
// Human-facing numbers (S202500001) are issued by the numerator, not here.
package id

import (
	"github.com/google/uuid"

	"langschool/internal/core/apperror"
)

// ID is the primary key type of all persisted entities.
type ID = uuid.UUID

// New generates a time-ordered UUIDv7, falling back to v4.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID.
func Parse(s string) (ID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.NewInvalidInput("malformed id").WithDetail("id", s).WithCause(err)
	}
	return v, nil
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
