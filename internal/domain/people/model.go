// Package people provides the student and employee records that carry
// issued numbers.
package people

import (
	"context"

	"langschool/internal/core/apperror"
	"langschool/internal/core/entity"
	"langschool/internal/core/policy"
)

// Student is an enrolled learner.
type Student struct {
	entity.Person

	// StudentNumber is issued once (S202500001) and never changes.
	StudentNumber *string `db:"student_number" json:"studentNumber,omitempty" beans:"-"`

	// VisaHolder marks students studying on a student visa.
	VisaHolder *bool `db:"visa_holder" json:"visaHolder,omitempty"`

	// WeeklyHours is the scheduled tuition load.
	WeeklyHours int `db:"weekly_hours" json:"weeklyHours"`
}

// NewStudent creates a Student without a number.
func NewStudent(firstName, lastName, email string, weeklyHours int) *Student {
	return &Student{
		Person:      entity.NewPerson(firstName, lastName, email),
		WeeklyHours: weeklyHours,
	}
}

// IsVisaHolder reports whether the student studies on a visa.
func (s *Student) IsVisaHolder() bool {
	return s.VisaHolder != nil && *s.VisaHolder
}

// Number implements Numbered.
func (s *Student) Number() *string { return s.StudentNumber }

// Validate implements entity.Validatable interface.
func (s *Student) Validate(ctx context.Context) error {
	if err := s.Person.Validate(ctx); err != nil {
		return err
	}
	if s.WeeklyHours < 0 || s.WeeklyHours > MaxWeeklyHours {
		return apperror.NewValidation("weekly hours out of range").
			WithDetail("field", "weeklyHours").
			WithDetail("value", s.WeeklyHours)
	}
	if s.IsVisaHolder() && !policy.MeetsVisaHours(s.WeeklyHours) {
		return apperror.NewValidation("visa holders need the minimum weekly hours").
			WithDetail("field", "weeklyHours").
			WithDetail("min", policy.VisaMinWeeklyHours)
	}
	return nil
}

// MaxWeeklyHours caps a student's schedule.
const MaxWeeklyHours = 40

// Role of an employee.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
)

// Employee is a teacher or member of staff.
type Employee struct {
	entity.Person

	// EmployeeNumber is issued once (E202500001) and never changes.
	EmployeeNumber *string `db:"employee_number" json:"employeeNumber,omitempty" beans:"-"`

	Role Role `db:"role" json:"role"`
}

// NewEmployee creates an Employee without a number.
func NewEmployee(firstName, lastName, email string, role Role) *Employee {
	return &Employee{
		Person: entity.NewPerson(firstName, lastName, email),
		Role:   role,
	}
}

// Number implements Numbered.
func (e *Employee) Number() *string { return e.EmployeeNumber }

// Validate implements entity.Validatable interface.
func (e *Employee) Validate(ctx context.Context) error {
	if err := e.Person.Validate(ctx); err != nil {
		return err
	}
	switch e.Role {
	case RoleTeacher, RoleAdmin, RoleStaff:
		return nil
	default:
		return apperror.NewValidation("unknown role").
			WithDetail("field", "role").
			WithDetail("value", e.Role)
	}
}
