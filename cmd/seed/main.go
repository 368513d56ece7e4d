// Package main provides a CLI tool for seeding the database with demo
// students and employees.
//
// Numbers are issued by an in-process issuer. With REDIS_URL set the seed
// takes the issuer lease and refuses to run while the registrar holds it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"langschool/internal/core/apperror"
	appctx "langschool/internal/core/context"
	"langschool/internal/domain/people"
	"langschool/internal/infrastructure/lease"
	"langschool/internal/infrastructure/numerator"
	"langschool/internal/infrastructure/storage/postgres"
	"langschool/internal/infrastructure/storage/postgres/person_repo"
	"langschool/pkg/logger"
)

var (
	firstNames = []string{"Ana", "Bruno", "Chiara", "Daniel", "Eun-ji", "Farid", "Greta", "Hiro", "Ines", "Jonas"}
	lastNames  = []string{"Kovac", "Lima", "Moreau", "Nowak", "Okafor", "Petrov", "Quinn", "Rossi", "Sato", "Tanaka"}
	roles      = []people.Role{people.RoleTeacher, people.RoleTeacher, people.RoleAdmin, people.RoleStaff}
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(appctx.StartRun(context.Background()), log)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	loc, err := time.LoadLocation(getEnv("NUMBERING_TIMEZONE", "UTC"))
	if err != nil {
		log.Fatalw("invalid NUMBERING_TIMEZONE", "error", err)
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		rdb, err := lease.NewClient(ctx, redisURL)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer rdb.Close()

		l := lease.New(rdb, lease.WithLogger(log))
		if err := l.Acquire(ctx); err != nil {
			log.Fatalw("numbering is owned by another process", "key", l.Key(), "error", err)
		}
		defer l.Release(context.Background())

		var stopKeep func()
		ctx, stopKeep = l.Hold(ctx)
		defer stopKeep()
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)
	if err := postgres.NewMigrator(txm).Migrate(ctx); err != nil {
		log.Fatalw("failed to migrate schema", "error", err)
	}

	students := person_repo.NewStudentRepo(txm)
	employees := person_repo.NewEmployeeRepo(txm)

	issuer := numerator.New(
		person_repo.NewNumberSource(students, employees),
		numerator.WithLocation(loc),
		numerator.WithLogger(log),
	)
	if err := txm.ReadOnly(ctx, issuer.Initialize); err != nil {
		log.Fatalw("failed to initialize number issuer", "error", err)
	}

	svc := people.NewService(students, employees, issuer, txm, log)

	studentCount := getEnvInt("SEED_STUDENTS", 20)
	employeeCount := getEnvInt("SEED_EMPLOYEES", 5)

	created, skipped := seedStudents(ctx, svc, studentCount)
	log.Infow("students seeded", "created", created, "skipped", skipped)

	created, skipped = seedEmployees(ctx, svc, employeeCount)
	log.Infow("employees seeded", "created", created, "skipped", skipped)

	abortIfLeaseLost(ctx)
	log.Info("seeding completed successfully")
}

// abortIfLeaseLost stops the seed once the issuer lease held through ctx is
// gone, since another process may now issue the same numbers.
func abortIfLeaseLost(ctx context.Context) {
	if errors.Is(context.Cause(ctx), lease.ErrLost) {
		logger.Fatal(ctx, "issuer lease lost, seeding stopped", "key", lease.DefaultKey)
	}
}

// demoPerson returns the i-th demo name and a matching email.
func demoPerson(i int, domain string) (first, last, email string) {
	first = firstNames[i%len(firstNames)]
	last = lastNames[(i/len(firstNames))%len(lastNames)]
	email = fmt.Sprintf("%s.%s.%d@%s", first, last, i, domain)
	return first, last, email
}

func seedStudents(ctx context.Context, svc *people.Service, n int) (created, skipped int) {
	for i := 0; i < n; i++ {
		first, last, email := demoPerson(i, "students.example.com")
		st := people.NewStudent(first, last, email, 15+(i%4)*5)
		if i%3 == 0 {
			visa := true
			st.VisaHolder = &visa
		}

		abortIfLeaseLost(ctx)
		if err := svc.RegisterStudent(ctx, st); err != nil {
			if apperror.HasCode(err, apperror.CodeDuplicate) {
				logger.Debug(ctx, "student already seeded", "name", st.FullName(), "email", email)
				skipped++
				continue
			}
			abortIfLeaseLost(ctx)
			logger.Fatal(ctx, "failed to seed student", "email", email, "error", err)
		}
		created++
	}
	return created, skipped
}

func seedEmployees(ctx context.Context, svc *people.Service, n int) (created, skipped int) {
	for i := 0; i < n; i++ {
		first, last, email := demoPerson(i, "staff.example.com")
		e := people.NewEmployee(first, last, email, roles[i%len(roles)])

		abortIfLeaseLost(ctx)
		if err := svc.RegisterEmployee(ctx, e); err != nil {
			if apperror.HasCode(err, apperror.CodeDuplicate) {
				logger.Debug(ctx, "employee already seeded", "name", e.FullName(), "email", email)
				skipped++
				continue
			}
			abortIfLeaseLost(ctx)
			logger.Fatal(ctx, "failed to seed employee", "email", email, "error", err)
		}
		created++
	}
	return created, skipped
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
