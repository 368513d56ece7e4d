// Package entity provides base types for persisted people records.
package entity

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"langschool/internal/core/apperror"
	"langschool/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	Validate(ctx context.Context) error
}

// Person contains the fields shared by students and employees.
type Person struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id" beans:"-"`

	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	Email     string `db:"email" json:"email"`

	CreatedAt time.Time `db:"created_at" json:"createdAt" beans:"-"`
}

// NewPerson creates a Person with generated ID.
func NewPerson(firstName, lastName, email string) Person {
	return Person{
		ID:        id.New(),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     strings.TrimSpace(email),
		CreatedAt: time.Now().UTC(),
	}
}

// GetID returns the primary key.
func (p *Person) GetID() id.ID {
	return p.ID
}

// FullName returns "First Last".
func (p *Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Validate checks the shared invariants.
func (p *Person) Validate(ctx context.Context) error {
	if id.IsNil(p.ID) {
		return apperror.NewValidation("id is required").WithDetail("field", "id")
	}
	if strings.TrimSpace(p.FirstName) == "" {
		return apperror.NewValidation("first name is required").WithDetail("field", "firstName")
	}
	if strings.TrimSpace(p.LastName) == "" {
		return apperror.NewValidation("last name is required").WithDetail("field", "lastName")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return apperror.NewValidation("email is invalid").
			WithDetail("field", "email").
			WithDetail("value", p.Email)
	}
	return nil
}
