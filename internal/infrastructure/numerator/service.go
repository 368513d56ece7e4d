// Package numerator provides the in-process student/employee number issuer.
// This is the infrastructure layer - it implements core/numerator.Generator.
//
// Counters live in memory only. After a restart they are recovered by
// Initialize, which rescans the numbers already persisted by the Source.
// One process must own issuance; two issuers over the same tables will
// hand out duplicates.
package numerator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"langschool/internal/core/apperror"
	corenumerator "langschool/internal/core/numerator"
	"langschool/pkg/logger"
)

var tracer = otel.Tracer("langschool/numerator")

// counter is one class's sequence space. year and seq change together
// under mu, so an issued number never mixes a new year with an old sequence.
type counter struct {
	mu   sync.Mutex
	year int
	seq  int64
}

// Service issues year-scoped sequential numbers.
type Service struct {
	source corenumerator.Source
	log    *logger.Logger
	now    func() time.Time
	loc    *time.Location

	initialized atomic.Bool

	// counters is populated in New and never modified afterwards.
	counters map[corenumerator.Class]*counter
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone that decides which year is current.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates an issuer reading existing numbers from source.
// A nil source means nothing has been persisted yet.
// The issuer refuses to issue until Initialize has run.
func New(source corenumerator.Source, opts ...Option) *Service {
	s := &Service{
		source:   source,
		log:      logger.Default(),
		now:      time.Now,
		loc:      time.UTC,
		counters: make(map[corenumerator.Class]*counter, len(corenumerator.Classes)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("numerator")
	for _, class := range corenumerator.Classes {
		s.counters[class] = &counter{}
	}
	return s
}

// currentYear is the calendar year of the clock in the configured location.
func (s *Service) currentYear() int {
	return s.now().In(s.loc).Year()
}

// Initialize seeds every counter with the highest sequence already persisted
// for the current year. Numbers of other years and malformed values are skipped.
//
// Call once during startup, before the service is shared with concurrent callers.
func (s *Service) Initialize(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "numerator.initialize")
	defer span.End()

	year := s.currentYear()
	span.SetAttributes(attribute.Int("numerator.year", year))

	for _, class := range corenumerator.Classes {
		var numbers []string
		if s.source != nil {
			var err error
			numbers, err = s.source.ListNumbers(ctx, class)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "list numbers")
				return apperror.NewDatabase("list "+class.String()+" numbers", err).
					WithDetail("class", class.String())
			}
		}

		highest, skipped := corenumerator.MaxIssued(class.Config(), year, numbers)

		c := s.counters[class]
		c.mu.Lock()
		c.year = year
		c.seq = highest
		c.mu.Unlock()

		span.SetAttributes(attribute.Int64("numerator."+class.String()+".sequence", highest))
		s.log.WithContext(ctx).Infow("counter hydrated",
			"class", class.String(),
			"year", year,
			"sequence", highest,
			"scanned", len(numbers),
			"skipped", skipped,
		)
	}

	s.initialized.Store(true)
	return nil
}

// NextStudentNumber implements Generator.
func (s *Service) NextStudentNumber(ctx context.Context) (string, error) {
	return s.Next(ctx, corenumerator.ClassStudent)
}

// NextEmployeeNumber implements Generator.
func (s *Service) NextEmployeeNumber(ctx context.Context) (string, error) {
	return s.Next(ctx, corenumerator.ClassEmployee)
}

// Next issues the next number of class.
// Once a class reaches MaxSequence every call fails with CAPACITY_EXCEEDED
// until the next reset; the counter is not advanced by failed calls.
func (s *Service) Next(ctx context.Context, class corenumerator.Class) (string, error) {
	if !s.initialized.Load() {
		return "", apperror.NewNotInitialized("numerator")
	}

	c, ok := s.counters[class]
	if !ok {
		return "", apperror.NewInvalidInput("unknown number class").WithDetail("class", int(class))
	}
	cfg := class.Config()
	limit := corenumerator.Limit(cfg)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seq >= limit {
		s.log.Errorw("sequence exhausted", "class", class.String(), "year", c.year, "limit", limit)
		return "", apperror.NewCapacityExceeded(class.String(), c.year, limit)
	}

	number, err := corenumerator.Format(cfg, c.year, c.seq+1)
	if err != nil {
		return "", err
	}
	c.seq++

	s.log.Debugw("number issued", "class", class.String(), "number", number)
	return number, nil
}

// ResetCounters moves every counter to the current year with sequence 0.
//
// It does not rescan persisted numbers and does not check the calendar:
// calling it in the middle of a year makes the issuer repeat numbers
// already handed out that year. Rollover.Run guards against that.
func (s *Service) ResetCounters(ctx context.Context) {
	year := s.currentYear()
	for _, class := range corenumerator.Classes {
		c := s.counters[class]
		c.mu.Lock()
		prevYear, prevSeq := c.year, c.seq
		c.year = year
		c.seq = 0
		c.mu.Unlock()

		s.log.WithContext(ctx).Infow("counter reset",
			"class", class.String(),
			"previous_year", prevYear,
			"previous_sequence", prevSeq,
			"year", year,
		)
	}
}

// Current returns a consistent snapshot of the class's year and last issued sequence.
func (s *Service) Current(class corenumerator.Class) (year int, seq int64) {
	c, ok := s.counters[class]
	if !ok {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.year, c.seq
}

// Behind reports whether any counter still belongs to a year before year.
func (s *Service) Behind(year int) bool {
	for _, class := range corenumerator.Classes {
		if y, _ := s.Current(class); y < year {
			return true
		}
	}
	return false
}

// SetNextNumber makes value the next sequence issued for class (for migration purposes).
func (s *Service) SetNextNumber(ctx context.Context, class corenumerator.Class, value int64) error {
	c, ok := s.counters[class]
	if !ok {
		return apperror.NewInvalidInput("unknown number class").WithDetail("class", int(class))
	}
	limit := corenumerator.Limit(class.Config())
	if value < 1 || value > limit+1 {
		return apperror.NewInvalidInput("next number out of range").
			WithDetail("value", value).
			WithDetail("limit", limit)
	}

	c.mu.Lock()
	prev := c.seq
	c.seq = value - 1
	year := c.year
	c.mu.Unlock()

	s.log.WithContext(ctx).Warnw("next number overridden",
		"class", class.String(),
		"year", year,
		"previous_sequence", prev,
		"next", value,
	)
	return nil
}
