package person_repo

import (
	"context"
	"fmt"

	"langschool/internal/core/numerator"
	"langschool/internal/domain/people"
	"langschool/internal/infrastructure/storage/postgres"
)

const (
	StudentTable  = "students"
	EmployeeTable = "employees"
)

// Compile-time interface checks.
var (
	_ people.StudentRepository  = (*StudentRepo)(nil)
	_ people.EmployeeRepository = (*EmployeeRepo)(nil)
	_ numerator.Source          = (*NumberSource)(nil)
)

// StudentRepo stores students.
type StudentRepo struct {
	*BaseRepo[*people.Student]
}

// NewStudentRepo creates the student repository.
func NewStudentRepo(txm *postgres.TxManager) *StudentRepo {
	return &StudentRepo{
		BaseRepo: NewBaseRepo(
			txm,
			"student",
			StudentTable,
			"student_number",
			postgres.ExtractDBColumns[people.Student](),
			func() *people.Student { return &people.Student{} },
		),
	}
}

// EmployeeRepo stores employees.
type EmployeeRepo struct {
	*BaseRepo[*people.Employee]
}

// NewEmployeeRepo creates the employee repository.
func NewEmployeeRepo(txm *postgres.TxManager) *EmployeeRepo {
	return &EmployeeRepo{
		BaseRepo: NewBaseRepo(
			txm,
			"employee",
			EmployeeTable,
			"employee_number",
			postgres.ExtractDBColumns[people.Employee](),
			func() *people.Employee { return &people.Employee{} },
		),
	}
}

// NumberSource feeds the issuer with the numbers already stored in both tables.
type NumberSource struct {
	students  *StudentRepo
	employees *EmployeeRepo
}

// NewNumberSource creates a numerator.Source over the two repositories.
func NewNumberSource(students *StudentRepo, employees *EmployeeRepo) *NumberSource {
	return &NumberSource{students: students, employees: employees}
}

// ListNumbers implements numerator.Source.
func (s *NumberSource) ListNumbers(ctx context.Context, class numerator.Class) ([]string, error) {
	switch class {
	case numerator.ClassStudent:
		return s.students.ListNumbers(ctx)
	case numerator.ClassEmployee:
		return s.employees.ListNumbers(ctx)
	default:
		return nil, fmt.Errorf("unknown class %q", class)
	}
}
