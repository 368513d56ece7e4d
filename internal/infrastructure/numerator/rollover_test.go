package numerator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "langschool/internal/core/numerator"
	"langschool/pkg/logger"
)

func TestNextBoundary(t *testing.T) {
	loc := time.FixedZone("ALMT", 5*60*60)

	got := NextBoundary(time.Date(2025, time.June, 1, 12, 0, 0, 0, loc), loc)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, loc), got)

	// Exactly at the boundary the next one is a year away.
	got = NextBoundary(time.Date(2026, time.January, 1, 0, 0, 0, 0, loc), loc)
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, loc), got)

	// 2025-12-31 22:00 UTC is already 2026 in ALMT.
	got = NextBoundary(time.Date(2025, time.December, 31, 22, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, loc), got)
}

func TestRollover_Tick(t *testing.T) {
	clock := newClock(2025)
	svc := newService(t, nil, clock)
	ctx := context.Background()
	r := NewRollover(svc, logger.Nop())

	_, err := svc.NextStudentNumber(ctx)
	require.NoError(t, err)

	// Mid-year ticks never discard the current sequence.
	assert.False(t, r.Tick(ctx))
	_, seq := svc.Current(corenumerator.ClassStudent)
	assert.Equal(t, int64(1), seq)

	clock.Set(time.Date(2026, time.January, 1, 0, 0, 5, 0, time.UTC))
	assert.True(t, r.Tick(ctx))
	assert.False(t, r.Tick(ctx), "second tick in the same year must be a no-op")

	year, seq := svc.Current(corenumerator.ClassStudent)
	assert.Equal(t, 2026, year)
	assert.Zero(t, seq)
}

func TestRollover_Run(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC)}
	svc := newService(t, nil, clock)

	fire := make(chan time.Time)
	waits := make(chan time.Duration, 4)
	r := NewRollover(svc, logger.Nop(),
		WithMaxWait(24*time.Hour),
		WithTimer(func(d time.Duration) <-chan time.Time {
			waits <- d
			return fire
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Equal(t, time.Hour, <-waits)

	clock.Set(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	fire <- clock.Now()

	// The loop schedules the following boundary only after the tick ran.
	assert.Equal(t, 24*time.Hour, <-waits)

	num, err := svc.NextStudentNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "S202600001", num)

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("rollover did not stop")
	}
}
