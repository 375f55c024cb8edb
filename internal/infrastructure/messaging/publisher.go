package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/salesledger/backend/internal/domain/reporting"
	"github.com/salesledger/backend/internal/infrastructure/config"
)

// ReportPublisher publishes report dispatch jobs to a durable queue.
// Messages are persistent so a broker restart does not drop pending
// summaries; delivery is at-least-once.
type ReportPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewReportPublisher connects to the broker and declares the report queue
func NewReportPublisher(cfg config.RabbitMQConfig) (*ReportPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare queue (idempotent)
	if _, err := channel.QueueDeclare(
		cfg.ReportQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &ReportPublisher{
		conn:    conn,
		channel: channel,
		queue:   cfg.ReportQueue,
	}, nil
}

// Publish enqueues a dispatch job as a persistent JSON message
func (p *ReportPublisher) Publish(ctx context.Context, job reporting.DispatchJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch job: %w", err)
	}

	if err := p.channel.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("failed to publish dispatch job: %w", err)
	}

	return nil
}

// Close closes the channel and connection
func (p *ReportPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Ensure ReportPublisher implements Publisher
var _ reporting.Publisher = (*ReportPublisher)(nil)
