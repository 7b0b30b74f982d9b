// Package events notifies downstream services (book designer, PDF renderer)
// when an extraction run finishes. Publishing is best-effort: a broker
// outage never fails an upload.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"montchatsouvenir/pkg/domain"
)

const exchangeName = "extraction"

// ExtractionEvent describes a finished run.
type ExtractionEvent struct {
	UploadID         string              `json:"uploadId"`
	SessionID        string              `json:"sessionId"`
	Platform         domain.Platform     `json:"platform"`
	Status           domain.UploadStatus `json:"status"`
	MessageCount     int                 `json:"messageCount"`
	ParticipantCount int                 `json:"participantCount"`
	OccurredAt       time.Time           `json:"occurredAt"`
}

// Publisher emits extraction lifecycle events.
type Publisher interface {
	ExtractionFinished(ctx context.Context, evt ExtractionEvent) error
	Close() error
}

// AMQPPublisher publishes events to a RabbitMQ topic exchange with routing
// keys extraction.done / extraction.empty / extraction.failed.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, channel: channel}, nil
}

func (p *AMQPPublisher) ExtractionFinished(ctx context.Context, evt ExtractionEvent) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	routingKey := "extraction." + string(evt.Status)
	err = p.channel.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   evt.OccurredAt,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) ExtractionFinished(context.Context, ExtractionEvent) error { return nil }
func (NoopPublisher) Close() error                                              { return nil }
