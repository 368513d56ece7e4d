// Package events publishes people domain events over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	appctx "langschool/internal/core/context"
	"langschool/internal/domain/people"
)

// DefaultSubjectPrefix is prepended to the class name: langschool.numbers.student.
const DefaultSubjectPrefix = "langschool.numbers."

// Compile-time interface check.
var _ people.Publisher = (*NATSPublisher)(nil)

// msgPublisher is satisfied by *nats.Conn.
type msgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NATSPublisher sends NumberIssued events as JSON messages.
type NATSPublisher struct {
	conn          msgPublisher
	subjectPrefix string
}

// NewNATSPublisher publishes on conn under subjectPrefix (DefaultSubjectPrefix if empty).
func NewNATSPublisher(conn msgPublisher, subjectPrefix string) *NATSPublisher {
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, subjectPrefix: subjectPrefix}
}

// Subject returns the subject events of class are published on.
func (p *NATSPublisher) Subject(class string) string {
	return p.subjectPrefix + class
}

// PublishNumberIssued implements people.Publisher.
func (p *NATSPublisher) PublishNumberIssued(ctx context.Context, event people.NumberIssued) error {
	msg, err := p.message(ctx, event)
	if err != nil {
		return err
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

func (p *NATSPublisher) message(ctx context.Context, event people.NumberIssued) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	msg := nats.NewMsg(p.Subject(event.Class))
	msg.Data = data
	// JetStream drops a second message with the same id inside its duplicate window.
	msg.Header.Set(nats.MsgIdHdr, event.Number)
	if trace := appctx.GetTrace(ctx); trace != nil {
		msg.Header.Set("Trace-Id", trace.TraceID)
	}
	return msg, nil
}

// Connect opens a NATS connection named name.
func Connect(url, name string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}
