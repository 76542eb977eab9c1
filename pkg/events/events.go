package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/trailbliss/trailbliss-api/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("trailbliss-api"),
		nats.Timeout(3*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

func toMessage(msg *nats.Msg) *Message {
	now := time.Now()
	return &Message{
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: now,
		ID:        fmt.Sprintf("%d", now.UnixNano()),
	}
}

// NopEventBus drops every event. It stands in when NATS is disabled or unreachable.
type NopEventBus struct{}

func (NopEventBus) Publish(ctx context.Context, subject string, _ interface{}) error {
	logger.DebugContext(ctx, "Event bus disabled, dropping event", "subject", subject)
	return nil
}

func (NopEventBus) Subscribe(string, func(*Message)) error              { return nil }
func (NopEventBus) QueueSubscribe(string, string, func(*Message)) error { return nil }
func (NopEventBus) Close() error                                        { return nil }

// Booking subjects
const (
	BookingRequested     = "booking.requested"
	BookingStatusChanged = "booking.status_changed"
	BookingCompleted     = "booking.completed"
)

type BookingRequestedEvent struct {
	BookingID    int64     `json:"booking_id"`
	TouristEmail string    `json:"tourist_email"`
	GuideEmail   string    `json:"guide_email"`
	SpotName     string    `json:"spot_name"`
	Date         string    `json:"date"`
	Type         string    `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
}

type BookingStatusChangedEvent struct {
	BookingID    int64     `json:"booking_id"`
	TouristEmail string    `json:"tourist_email"`
	GuideEmail   string    `json:"guide_email"`
	SpotName     string    `json:"spot_name"`
	Status       string    `json:"status"`
	ChangedAt    time.Time `json:"changed_at"`
}

type BookingCompletedEvent struct {
	BookingID    int64     `json:"booking_id"`
	TouristEmail string    `json:"tourist_email"`
	GuideEmail   string    `json:"guide_email"`
	Rating       int       `json:"rating"`
	CompletedAt  time.Time `json:"completed_at"`
}
