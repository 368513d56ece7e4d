package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"langschool/pkg/logger"
)

// ErrMigrationFailed wraps every migration failure.
var ErrMigrationFailed = errors.New("postgres: migration failed")

// Migration is one forward schema step.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// Migrations returns the schema of the registrar, in order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_students", UpSQL: migration001Up},
		{Version: 2, Name: "create_employees", UpSQL: migration002Up},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY,
    student_number VARCHAR(10) UNIQUE,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    visa_holder BOOLEAN,
    weekly_hours INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_student_number CHECK (student_number ~ '^S[0-9]{9}$'),
    CONSTRAINT valid_weekly_hours CHECK (weekly_hours >= 0)
);

CREATE INDEX IF NOT EXISTS idx_students_unnumbered
    ON students(created_at, id) WHERE student_number IS NULL;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS employees (
    id UUID PRIMARY KEY,
    employee_number VARCHAR(10) UNIQUE,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    role VARCHAR(20) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_employee_number CHECK (employee_number ~ '^E[0-9]{9}$'),
    CONSTRAINT valid_role CHECK (role IN ('teacher', 'admin', 'staff'))
);

CREATE INDEX IF NOT EXISTS idx_employees_unnumbered
    ON employees(created_at, id) WHERE employee_number IS NULL;
`

// Migrator applies pending migrations and records them in schema_migrations.
type Migrator struct {
	txm        *TxManager
	migrations []Migration
	tableName  string
}

// NewMigrator creates a migrator with the registrar schema.
func NewMigrator(txm *TxManager) *Migrator {
	return &Migrator{
		txm:        txm,
		migrations: Migrations(),
		tableName:  "schema_migrations",
	}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`, m.tableName)

	if _, err := m.txm.GetQuerier(ctx).Exec(ctx, query); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	return nil
}

// Applied returns the applied versions and when they were applied.
func (m *Migrator) Applied(ctx context.Context) (map[int]time.Time, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	rows, err := m.txm.GetQuerier(ctx).Query(ctx,
		fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName))
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var (
			version   int
			appliedAt time.Time
		)
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}
	return applied, rows.Err()
}

// Migrate applies every pending migration, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}

		err := m.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			q := m.txm.GetQuerier(ctx)
			if _, err := q.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := q.Exec(ctx,
				fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName),
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
		logger.Info(ctx, "migration applied", "version", mig.Version, "name", mig.Name)
	}
	return nil
}
