package people

import (
	"context"
	"time"

	"langschool/internal/core/id"
	"langschool/internal/core/numerator"
)

// NumberIssued announces a number that has been committed to storage.
type NumberIssued struct {
	Class    string    `json:"class"`
	ID       id.ID     `json:"id"`
	Number   string    `json:"number"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Publisher delivers NumberIssued events to other systems.
// Delivery is best effort: a failure is logged, the number stays issued.
type Publisher interface {
	PublishNumberIssued(ctx context.Context, event NumberIssued) error
}

type nopPublisher struct{}

func (nopPublisher) PublishNumberIssued(context.Context, NumberIssued) error { return nil }

// WithPublisher sets where NumberIssued events go. Without one they are dropped.
func (s *Service) WithPublisher(p Publisher) *Service {
	if p == nil {
		p = nopPublisher{}
	}
	s.publisher = p
	return s
}

func (s *Service) announce(ctx context.Context, class numerator.Class, recordID id.ID, number string) {
	event := NumberIssued{
		Class:    class.String(),
		ID:       recordID,
		Number:   number,
		IssuedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishNumberIssued(ctx, event); err != nil {
		s.log.WithContext(ctx).Warnw("number issued event not published", "number", number, "error", err)
	}
}
