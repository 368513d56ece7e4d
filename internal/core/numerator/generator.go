package numerator

import (
	"context"
)

// Generator issues student and employee numbers.
// This is the domain contract - the implementation lives in infrastructure layer.
type Generator interface {
	// NextStudentNumber returns the next student number for the active year.
	// Pattern: SYYYYNNNNN (e.g., S202500001)
	NextStudentNumber(ctx context.Context) (string, error)

	// NextEmployeeNumber returns the next employee number for the active year.
	// Pattern: EYYYYNNNNN (e.g., E202500001)
	NextEmployeeNumber(ctx context.Context) (string, error)
}

// Source lists numbers that were already issued and persisted.
// The issuer reads it once at startup to recover its counters.
type Source interface {
	ListNumbers(ctx context.Context, class Class) ([]string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, class Class) ([]string, error)

// ListNumbers implements Source.
func (f SourceFunc) ListNumbers(ctx context.Context, class Class) ([]string, error) {
	return f(ctx, class)
}
