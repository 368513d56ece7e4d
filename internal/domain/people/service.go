package people

import (
	"context"
	"fmt"

	"langschool/internal/core/apperror"
	"langschool/internal/core/id"
	"langschool/internal/core/numerator"
	"langschool/internal/core/tx"
	"langschool/pkg/beans"
	"langschool/pkg/logger"
)

// Stats summarises one AssignPending pass.
type Stats struct {
	Students  int
	Employees int
	Failed    int
}

// Total is the number of records that received a number.
func (s Stats) Total() int { return s.Students + s.Employees }

// Service registers people and hands out their numbers.
type Service struct {
	students  StudentRepository
	employees EmployeeRepository
	numbers   numerator.Generator
	txm       tx.Manager
	publisher Publisher
	log       *logger.Logger
}

// NewService creates a people service.
func NewService(
	students StudentRepository,
	employees EmployeeRepository,
	numbers numerator.Generator,
	txm tx.Manager,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		students:  students,
		employees: employees,
		numbers:   numbers,
		txm:       txm,
		publisher: nopPublisher{},
		log:       log.WithComponent("people"),
	}
}

// RegisterStudent validates s, issues its student number and stores it.
func (s *Service) RegisterStudent(ctx context.Context, st *Student) error {
	if st.StudentNumber != nil {
		return apperror.NewValidation("student number is issued, not supplied").
			WithDetail("field", "studentNumber")
	}
	if err := st.Validate(ctx); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numbers.NextStudentNumber(ctx)
		if err != nil {
			return err
		}
		st.StudentNumber = &number

		if err := s.students.Create(ctx, st); err != nil {
			st.StudentNumber = nil
			// The number is spent; the sequence keeps a gap.
			s.log.WithContext(ctx).Warnw("student number not stored", "number", number, "error", err)
			return err
		}

		s.log.WithContext(ctx).Infow("student registered", "id", st.ID, "number", number)
		return nil
	})
	if err != nil {
		return err
	}

	s.announce(ctx, numerator.ClassStudent, st.ID, *st.StudentNumber)
	return nil
}

// RegisterEmployee validates e, issues its employee number and stores it.
func (s *Service) RegisterEmployee(ctx context.Context, e *Employee) error {
	if e.EmployeeNumber != nil {
		return apperror.NewValidation("employee number is issued, not supplied").
			WithDetail("field", "employeeNumber")
	}
	if err := e.Validate(ctx); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numbers.NextEmployeeNumber(ctx)
		if err != nil {
			return err
		}
		e.EmployeeNumber = &number

		if err := s.employees.Create(ctx, e); err != nil {
			e.EmployeeNumber = nil
			s.log.WithContext(ctx).Warnw("employee number not stored", "number", number, "error", err)
			return err
		}

		s.log.WithContext(ctx).Infow("employee registered", "id", e.ID, "number", number)
		return nil
	})
	if err != nil {
		return err
	}

	s.announce(ctx, numerator.ClassEmployee, e.ID, *e.EmployeeNumber)
	return nil
}

// AssignPending numbers up to batch students and batch employees that were
// stored without a number, oldest first. Each record gets its own transaction;
// a failing record is logged and skipped. Running out of numbers stops the pass.
func (s *Service) AssignPending(ctx context.Context, batch uint64) (Stats, error) {
	var stats Stats

	n, failed, err := assignPending(ctx, s, s.students, numerator.ClassStudent, s.numbers.NextStudentNumber, batch)
	stats.Students, stats.Failed = n, stats.Failed+failed
	if err != nil {
		return stats, err
	}

	n, failed, err = assignPending(ctx, s, s.employees, numerator.ClassEmployee, s.numbers.NextEmployeeNumber, batch)
	stats.Employees, stats.Failed = n, stats.Failed+failed
	return stats, err
}

func assignPending[T Numbered](
	ctx context.Context,
	s *Service,
	repo Repository[T],
	class numerator.Class,
	next func(ctx context.Context) (string, error),
	batch uint64,
) (assigned, failed int, err error) {
	pending, err := repo.ListUnnumbered(ctx, batch)
	if err != nil {
		return 0, 0, fmt.Errorf("list unnumbered: %w", err)
	}

	for _, record := range pending {
		if ctx.Err() != nil {
			return assigned, failed, ctx.Err()
		}

		var number string
		err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			number, err = next(ctx)
			if err != nil {
				return err
			}
			if err := repo.AssignNumber(ctx, record.GetID(), number); err != nil {
				s.log.WithContext(ctx).Warnw("number not stored", "id", record.GetID(), "number", number, "error", err)
				return err
			}
			return nil
		})

		switch {
		case err == nil:
			assigned++
			s.announce(ctx, class, record.GetID(), number)
		case apperror.IsCapacityExceeded(err), apperror.HasCode(err, apperror.CodeNotInitialized):
			return assigned, failed, err
		default:
			failed++
			s.log.WithContext(ctx).Errorw("number assignment failed", "id", record.GetID(), "error", err)
		}
	}

	return assigned, failed, nil
}

// UpdateStudent applies the populated fields of patch to the stored student.
// The id, the student number and created_at are never changed.
func (s *Service) UpdateStudent(ctx context.Context, studentID id.ID, patch *Student) (*Student, error) {
	return update(ctx, s, s.students, studentID, patch)
}

// UpdateEmployee applies the populated fields of patch to the stored employee.
func (s *Service) UpdateEmployee(ctx context.Context, employeeID id.ID, patch *Employee) (*Employee, error) {
	return update(ctx, s, s.employees, employeeID, patch)
}

func update[T Numbered](ctx context.Context, s *Service, repo Repository[T], recordID id.ID, patch T) (T, error) {
	var result T
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := repo.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		if err := beans.CopyNonNil(current, patch); err != nil {
			return apperror.NewInternal(err)
		}
		if err := current.Validate(ctx); err != nil {
			return err
		}
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		result = current
		return nil
	})
	return result, err
}
