package numerator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langschool/internal/core/apperror"
	corenumerator "langschool/internal/core/numerator"
	"langschool/pkg/logger"
)

// Mock objects
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(year int) *fakeClock {
	return &fakeClock{t: time.Date(year, time.March, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type mockSource struct {
	numbers map[corenumerator.Class][]string
	err     error
	calls   []corenumerator.Class
}

func (m *mockSource) ListNumbers(ctx context.Context, class corenumerator.Class) ([]string, error) {
	m.calls = append(m.calls, class)
	if m.err != nil {
		return nil, m.err
	}
	return m.numbers[class], nil
}

func newService(t *testing.T, src corenumerator.Source, clock *fakeClock) *Service {
	t.Helper()
	svc := New(src, WithClock(clock.Now), WithLogger(logger.Nop()))
	require.NoError(t, svc.Initialize(context.Background()))
	return svc
}

func TestNextStudentNumber_FreshYear(t *testing.T) {
	svc := newService(t, nil, newClock(2025))
	ctx := context.Background()

	num, err := svc.NextStudentNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S202500001", num)

	for i := 2; i < 42; i++ {
		_, err = svc.NextStudentNumber(ctx)
		require.NoError(t, err)
	}

	num, err = svc.NextStudentNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S202500042", num)
}

func TestInitialize_HydratesFromExistingNumbers(t *testing.T) {
	src := &mockSource{numbers: map[corenumerator.Class][]string{
		corenumerator.ClassStudent: {"S202500001", "S202500007", "S202500003", "X999999999"},
	}}
	svc := newService(t, src, newClock(2025))

	num, err := svc.NextStudentNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "S202500008", num)
}

func TestInitialize_NoMatchesStartsAtOne(t *testing.T) {
	src := &mockSource{numbers: map[corenumerator.Class][]string{
		corenumerator.ClassStudent:  {"S202400917", "E202500003", "garbage"},
		corenumerator.ClassEmployee: {"E202400050"},
	}}
	svc := newService(t, src, newClock(2025))
	ctx := context.Background()

	num, err := svc.NextStudentNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S202500001", num)

	num, err = svc.NextEmployeeNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "E202500001", num)
}

func TestInitialize_HydratesEmployees(t *testing.T) {
	src := &mockSource{numbers: map[corenumerator.Class][]string{
		corenumerator.ClassEmployee: {"E202500011", "E202500004"},
	}}
	svc := newService(t, src, newClock(2025))

	num, err := svc.NextEmployeeNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "E202500012", num)
	assert.ElementsMatch(t, corenumerator.Classes, src.calls)
}

func TestInitialize_AgainRehydrates(t *testing.T) {
	var mu sync.Mutex
	stored := []string{"S202500004"}
	src := corenumerator.SourceFunc(func(ctx context.Context, class corenumerator.Class) ([]string, error) {
		mu.Lock()
		defer mu.Unlock()
		if class != corenumerator.ClassStudent {
			return nil, nil
		}
		return append([]string(nil), stored...), nil
	})
	svc := newService(t, src, newClock(2025))
	ctx := context.Background()

	num, err := svc.NextStudentNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S202500005", num)

	// Another writer stored higher numbers meanwhile.
	mu.Lock()
	stored = append(stored, num, "S202500030")
	mu.Unlock()

	require.NoError(t, svc.Initialize(ctx))
	year, seq := svc.Current(corenumerator.ClassStudent)
	assert.Equal(t, 2025, year)
	assert.Equal(t, int64(30), seq)

	num, err = svc.NextStudentNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S202500031", num)

	num, err = svc.NextEmployeeNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "E202500001", num)
}

func TestInitialize_SourceError(t *testing.T) {
	src := &mockSource{err: errors.New("connection refused")}
	svc := New(src, WithClock(newClock(2025).Now), WithLogger(logger.Nop()))

	err := svc.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))
	assert.ErrorIs(t, err, src.err)

	_, err = svc.NextStudentNumber(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeNotInitialized))
}

func TestNext_BeforeInitialize(t *testing.T) {
	svc := New(nil, WithLogger(logger.Nop()))

	_, err := svc.NextEmployeeNumber(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeNotInitialized))
}

func TestNext_UnknownClass(t *testing.T) {
	svc := newService(t, nil, newClock(2025))

	_, err := svc.Next(context.Background(), corenumerator.Class(7))
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}

func TestNext_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	svc := newService(t, nil, newClock(2025))
	ctx := context.Background()

	const workers = 16
	const perWorker = 250

	var wg sync.WaitGroup
	results := make(chan string, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev := ""
			for i := 0; i < perWorker; i++ {
				num, err := svc.NextStudentNumber(ctx)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				// Numbers observed by one caller must keep increasing.
				if num <= prev {
					t.Errorf("non-increasing number %s after %s", num, prev)
				}
				prev = num
				results <- num
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]struct{}, workers*perWorker)
	all := make([]string, 0, workers*perWorker)
	for num := range results {
		_, dup := seen[num]
		require.False(t, dup, "duplicate number %s", num)
		seen[num] = struct{}{}
		all = append(all, num)
	}
	require.Len(t, all, workers*perWorker)

	// No gaps: exactly 1..N were issued.
	sort.Strings(all)
	assert.Equal(t, "S202500001", all[0])
	assert.Equal(t, fmt.Sprintf("S2025%05d", workers*perWorker), all[len(all)-1])
}

func TestNext_ClassesAreIndependent(t *testing.T) {
	svc := newService(t, nil, newClock(2025))
	ctx := context.Background()

	var got []string
	for i := 0; i < 3; i++ {
		s, err := svc.NextStudentNumber(ctx)
		require.NoError(t, err)
		e, err := svc.NextEmployeeNumber(ctx)
		require.NoError(t, err)
		got = append(got, s, e)
	}
	s, err := svc.NextStudentNumber(ctx)
	require.NoError(t, err)
	got = append(got, s)

	assert.Equal(t, []string{
		"S202500001", "E202500001",
		"S202500002", "E202500002",
		"S202500003", "E202500003",
		"S202500004",
	}, got)
}

func TestNext_CapacityExceeded(t *testing.T) {
	svc := newService(t, nil, newClock(2025))
	ctx := context.Background()

	require.NoError(t, svc.SetNextNumber(ctx, corenumerator.ClassStudent, corenumerator.MaxSequence))

	num, err := svc.NextStudentNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S202599999", num)

	for i := 0; i < 2; i++ {
		_, err = svc.NextStudentNumber(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsCapacityExceeded(err))
	}

	// Same details as Format reports for the class.
	_, formatErr := corenumerator.Format(corenumerator.ClassStudent.Config(), 2025, corenumerator.MaxSequence+1)
	var nextApp, formatApp *apperror.AppError
	require.ErrorAs(t, err, &nextApp)
	require.ErrorAs(t, formatErr, &formatApp)
	assert.Equal(t, formatApp.Details, nextApp.Details)
	assert.Equal(t, "student", nextApp.Details["class"])

	_, seq := svc.Current(corenumerator.ClassStudent)
	assert.Equal(t, corenumerator.MaxSequence, seq)

	// Employees are unaffected.
	num, err = svc.NextEmployeeNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "E202500001", num)
}

func TestResetCounters_NewYearNamespace(t *testing.T) {
	clock := newClock(2025)
	svc := newService(t, nil, clock)
	ctx := context.Background()

	require.NoError(t, svc.SetNextNumber(ctx, corenumerator.ClassStudent, 999))
	num, err := svc.NextStudentNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S202500999", num)

	clock.Set(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	svc.ResetCounters(ctx)

	num, err = svc.NextStudentNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S202600001", num)

	num, err = svc.NextEmployeeNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "E202600001", num)
}

func TestResetCounters_RacingIssuance(t *testing.T) {
	clock := newClock(2025)
	svc := newService(t, nil, clock)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var issued []string

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				num, err := svc.NextStudentNumber(ctx)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				mu.Lock()
				issued = append(issued, num)
				mu.Unlock()
			}
		}()
	}

	clock.Set(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	svc.ResetCounters(ctx)
	wg.Wait()

	// Every number is either a 2025 or a 2026 number and unique within its year.
	seen := make(map[string]struct{})
	for _, num := range issued {
		require.Len(t, num, 10)
		year := num[1:5]
		assert.Contains(t, []string{"2025", "2026"}, year)
		_, dup := seen[num]
		require.False(t, dup, "duplicate number %s", num)
		seen[num] = struct{}{}
	}
}

func TestSetNextNumber_Range(t *testing.T) {
	svc := newService(t, nil, newClock(2025))
	ctx := context.Background()

	err := svc.SetNextNumber(ctx, corenumerator.ClassEmployee, 0)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	err = svc.SetNextNumber(ctx, corenumerator.ClassEmployee, corenumerator.MaxSequence+2)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	require.NoError(t, svc.SetNextNumber(ctx, corenumerator.ClassEmployee, 50))
	num, err := svc.NextEmployeeNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "E202500050", num)
}

func TestCurrent(t *testing.T) {
	src := &mockSource{numbers: map[corenumerator.Class][]string{
		corenumerator.ClassStudent: {"S202500020"},
	}}
	svc := newService(t, src, newClock(2025))

	year, seq := svc.Current(corenumerator.ClassStudent)
	assert.Equal(t, 2025, year)
	assert.Equal(t, int64(20), seq)

	assert.False(t, svc.Behind(2025))
	assert.True(t, svc.Behind(2026))
}

func TestWithLocation_DecidesYear(t *testing.T) {
	// 2025-12-31 20:00 UTC is already 2026 in Tokyo.
	clock := &fakeClock{t: time.Date(2025, time.December, 31, 20, 0, 0, 0, time.UTC)}
	tokyo := time.FixedZone("JST", 9*60*60)

	svc := New(nil, WithClock(clock.Now), WithLocation(tokyo), WithLogger(logger.Nop()))
	require.NoError(t, svc.Initialize(context.Background()))

	num, err := svc.NextStudentNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "S202600001", num)
}
