package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Event types published by the service.
const (
	TypeAttendanceFinalized = "attendance.finalized"
	TypeAttendanceReopened  = "attendance.reopened"
	TypeStudentTransferred  = "student.transferred"
)

// Event is the envelope written to the message bus.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

// NewEvent stamps a new event with an identifier and the current time.
func NewEvent(eventType string, payload map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers domain events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type natsConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes events as JSON on "<prefix>.<event type>" subjects.
type NATSPublisher struct {
	conn   natsConn
	prefix string
}

// Connect opens a NATS connection for the publisher.
func Connect(url string) (*nats.Conn, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("nats url must not be empty")
	}

	conn, err := nats.Connect(url, nats.Name("davomat-api"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}

	return conn, nil
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return newNATSPublisher(conn, prefix)
}

func newNATSPublisher(conn natsConn, prefix string) *NATSPublisher {
	return &NATSPublisher{
		conn:   conn,
		prefix: strings.Trim(strings.TrimSpace(prefix), "."),
	}
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	return p.conn.Publish(p.Subject(event.Type), payload)
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
