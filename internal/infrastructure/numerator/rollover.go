package numerator

import (
	"context"
	"time"

	"langschool/pkg/logger"
)

// defaultMaxWait bounds a single sleep so clock jumps (suspend, NTP steps)
// are noticed within an hour of the boundary.
const defaultMaxWait = time.Hour

// NextBoundary returns the first instant of the year following t in loc.
func NextBoundary(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year()+1, time.January, 1, 0, 0, 0, 0, loc)
}

// Rollover resets the issuer's counters once per calendar year.
type Rollover struct {
	svc     *Service
	log     *logger.Logger
	after   func(time.Duration) <-chan time.Time
	maxWait time.Duration
}

// RolloverOption configures a Rollover.
type RolloverOption func(*Rollover)

// WithTimer replaces time.After (tests drive the loop through it).
func WithTimer(after func(time.Duration) <-chan time.Time) RolloverOption {
	return func(r *Rollover) { r.after = after }
}

// WithMaxWait caps how long the loop sleeps before rechecking the clock.
func WithMaxWait(d time.Duration) RolloverOption {
	return func(r *Rollover) {
		if d > 0 {
			r.maxWait = d
		}
	}
}

// NewRollover creates the yearly reset job for svc. It uses svc's clock and timezone.
func NewRollover(svc *Service, log *logger.Logger, opts ...RolloverOption) *Rollover {
	if log == nil {
		log = logger.Default()
	}
	r := &Rollover{
		svc:     svc,
		log:     log.WithComponent("rollover"),
		after:   time.After,
		maxWait: defaultMaxWait,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sleeps until each new year and resets the counters, until ctx is done.
func (r *Rollover) Run(ctx context.Context) error {
	for {
		now := r.svc.now()
		boundary := NextBoundary(now, r.svc.loc)
		wait := boundary.Sub(now)
		if wait > r.maxWait {
			wait = r.maxWait
		}

		r.log.Debugw("waiting for year boundary", "boundary", boundary.Format(time.RFC3339), "sleep", wait.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.after(wait):
		}

		r.Tick(ctx)
	}
}

// Tick resets the counters if the clock has entered a year they do not belong to.
// It reports whether a reset happened. Repeated ticks in the same year are no-ops.
func (r *Rollover) Tick(ctx context.Context) bool {
	year := r.svc.currentYear()
	if !r.svc.Behind(year) {
		return false
	}

	r.log.Infow("year boundary reached, resetting counters", "year", year)
	r.svc.ResetCounters(ctx)
	return true
}
