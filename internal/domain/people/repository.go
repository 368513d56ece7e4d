package people

import (
	"context"

	"langschool/internal/core/entity"
	"langschool/internal/core/id"
)

// Numbered is a record that carries an issued number.
type Numbered interface {
	entity.Validatable
	GetID() id.ID
	Number() *string
}

// Repository persists students or employees.
type Repository[T Numbered] interface {
	Create(ctx context.Context, record T) error
	GetByID(ctx context.Context, recordID id.ID) (T, error)

	// Update saves every column except the id, the number and created_at.
	Update(ctx context.Context, record T) error

	// ListNumbers returns every number already assigned.
	ListNumbers(ctx context.Context) ([]string, error)

	// ListUnnumbered returns up to limit records still waiting for a number,
	// oldest first.
	ListUnnumbered(ctx context.Context, limit uint64) ([]T, error)

	// AssignNumber sets the number of a record that has none yet.
	AssignNumber(ctx context.Context, recordID id.ID, number string) error
}

// StudentRepository is the student store.
type StudentRepository = Repository[*Student]

// EmployeeRepository is the employee store.
type EmployeeRepository = Repository[*Employee]
