// internal/adapter/events/publisher.go

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Envelope wraps every analysis event put on the bus.
type Envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

// Conn is the subset of *nats.Conn used by the publisher.
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes analysis results as JSON envelopes.
type NATSPublisher struct {
	conn Conn
	now  func() time.Time
}

// NewNATSPublisher creates a publisher over an established connection.
func NewNATSPublisher(conn Conn) *NATSPublisher {
	return &NATSPublisher{
		conn: conn,
		now:  time.Now,
	}
}

// Publish encodes payload and sends it on subject.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(subject, payload, p.now())
	if err != nil {
		return err
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("error publishing to %s: %w", subject, err)
	}
	return nil
}

// Encode builds the wire form of an event.
func Encode(subject string, payload any, at time.Time) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling payload: %w", err)
	}

	data, err := json.Marshal(Envelope{
		ID:      uuid.New().String(),
		Type:    subject,
		Time:    at.UTC(),
		Payload: raw,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling envelope: %w", err)
	}
	return data, nil
}

// Subscribe relays every message under topic (including nested subjects)
// to fn until the returned subscription is drained or unsubscribed.
func Subscribe(nc *nats.Conn, topic string, fn func(data []byte)) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(topic+".>", func(msg *nats.Msg) {
		fn(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("error subscribing to %s: %w", topic, err)
	}
	return sub, nil
}

// Stream relays the analysis events of one topic from NATS.
type Stream struct {
	nc    *nats.Conn
	topic string
}

// NewStream creates a stream over topic.
func NewStream(nc *nats.Conn, topic string) *Stream {
	return &Stream{nc: nc, topic: topic}
}

// Subscribe registers fn for every event and returns its cancel function.
func (s *Stream) Subscribe(fn func(data []byte)) (func(), error) {
	sub, err := Subscribe(s.nc, s.topic, fn)
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
