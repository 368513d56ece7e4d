package numerator

import (
	"context"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid wiring a real issuer.
type MockGenerator struct {
	NextStudentNumberFunc  func(ctx context.Context) (string, error)
	NextEmployeeNumberFunc func(ctx context.Context) (string, error)
}

// NextStudentNumber implements Generator.
func (m *MockGenerator) NextStudentNumber(ctx context.Context) (string, error) {
	if m.NextStudentNumberFunc != nil {
		return m.NextStudentNumberFunc(ctx)
	}
	return "S202600001", nil
}

// NextEmployeeNumber implements Generator.
func (m *MockGenerator) NextEmployeeNumber(ctx context.Context) (string, error) {
	if m.NextEmployeeNumberFunc != nil {
		return m.NextEmployeeNumberFunc(ctx)
	}
	return "E202600001", nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
