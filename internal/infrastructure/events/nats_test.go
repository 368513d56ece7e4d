package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	appctx "langschool/internal/core/context"
	"langschool/internal/core/id"
	"langschool/internal/domain/people"
)

type captureConn struct {
	msgs []*nats.Msg
	err  error
}

func (c *captureConn) PublishMsg(msg *nats.Msg) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func TestPublishNumberIssued(t *testing.T) {
	conn := &captureConn{}
	pub := NewNATSPublisher(conn, "")

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{TraceID: "trace-1", RunID: "run-1"})
	event := people.NumberIssued{
		Class:    "student",
		ID:       id.New(),
		Number:   "S202500001",
		IssuedAt: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.PublishNumberIssued(ctx, event))

	require.Len(t, conn.msgs, 1)
	msg := conn.msgs[0]
	require.Equal(t, "langschool.numbers.student", msg.Subject)
	require.Equal(t, "S202500001", msg.Header.Get(nats.MsgIdHdr))
	require.Equal(t, "trace-1", msg.Header.Get("Trace-Id"))

	var decoded people.NumberIssued
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	require.Equal(t, event, decoded)
}

func TestPublishNumberIssued_CustomPrefixAndError(t *testing.T) {
	conn := &captureConn{err: errors.New("nats: connection closed")}
	pub := NewNATSPublisher(conn, "school.ids.")

	err := pub.PublishNumberIssued(context.Background(), people.NumberIssued{Class: "employee", Number: "E202500004"})
	require.ErrorContains(t, err, "publish school.ids.employee")
	require.Empty(t, conn.msgs[0].Header.Get("Trace-Id"))
}
