// Package main is the entry point for the registrar: the single process that
// owns student and employee numbering.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	appctx "langschool/internal/core/context"
	"langschool/internal/domain/people"
	"langschool/internal/infrastructure/events"
	"langschool/internal/infrastructure/lease"
	"langschool/internal/infrastructure/numerator"
	"langschool/internal/infrastructure/storage/postgres"
	"langschool/internal/infrastructure/storage/postgres/person_repo"
	"langschool/pkg/logger"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting registrar", "timezone", cfg.Timezone.String())

	// The lease must be ours before counters are hydrated, otherwise a second
	// registrar could issue from the same starting point.
	var issuerLease *lease.Lease
	if cfg.RedisURL != "" {
		rdb, err := lease.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer rdb.Close()

		issuerLease = lease.New(rdb, lease.WithTTL(cfg.LeaseTTL), lease.WithLogger(log))
		if err := issuerLease.Acquire(ctx); err != nil {
			log.Fatalw("numbering is owned by another process", "key", issuerLease.Key(), "error", err)
		}
		defer func() {
			releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer releaseCancel()
			if err := issuerLease.Release(releaseCtx); err != nil {
				log.Warnw("failed to release lease", "error", err)
			}
		}()

		// Everything below stops once the lease is lost.
		var stopKeep func()
		ctx, stopKeep = issuerLease.Hold(ctx)
		defer stopKeep()
	} else {
		log.Warn("REDIS_URL not set: running without an issuer lease")
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.ApplicationName = "langschool-registrar"
	poolCfg.MaxConns = int32(cfg.PoolMaxConns)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	if err := postgres.NewMigrator(txm).Migrate(ctx); err != nil {
		log.Fatalw("failed to migrate schema", "error", err)
	}

	students := person_repo.NewStudentRepo(txm)
	employees := person_repo.NewEmployeeRepo(txm)

	issuer := numerator.New(
		person_repo.NewNumberSource(students, employees),
		numerator.WithLocation(cfg.Timezone),
		numerator.WithLogger(log),
	)
	// Counters must be recovered before the first number is issued.
	if err := txm.ReadOnly(ctx, issuer.Initialize); err != nil {
		log.Fatalw("failed to initialize number issuer", "error", err)
	}

	svc := people.NewService(students, employees, issuer, txm, log)
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL, "langschool-registrar")
		if err != nil {
			log.Fatalw("failed to connect to nats", "error", err)
		}
		defer nc.Drain()
		svc.WithPublisher(events.NewNATSPublisher(nc, cfg.NATSSubject))
	}

	rollover := numerator.NewRollover(issuer, log)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := rollover.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("rollover stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		runAssigner(ctx, svc, pool, cfg, log.WithComponent("assigner"))
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info("shutting down registrar...")
	case <-ctx.Done():
		log.Errorw("issuer lease lost, stopping to avoid duplicate numbers", "cause", context.Cause(ctx))
	}
	cancel()

	wg.Wait()
	log.Info("registrar stopped")
}

// runAssigner numbers records stored without a number until ctx is done.
func runAssigner(ctx context.Context, svc *people.Service, pool *postgres.Pool, cfg Config, log *logger.Logger) {
	ticker := time.NewTicker(cfg.AssignInterval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(time.Hour)
	defer statsTicker.Stop()

	assign := func() {
		runCtx := appctx.StartRun(ctx)
		stats, err := svc.AssignPending(runCtx, uint64(cfg.AssignBatchSize))
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithContext(runCtx).Errorw("assignment pass stopped", "error", err, "assigned", stats.Total())
			return
		}
		if stats.Total() > 0 || stats.Failed > 0 {
			log.WithContext(runCtx).Infow("assignment pass done",
				"students", stats.Students,
				"employees", stats.Employees,
				"failed", stats.Failed,
			)
		}
	}

	assign()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			assign()
		case <-statsTicker.C:
			postgres.LogPoolStats(ctx, pool)
		}
	}
}
