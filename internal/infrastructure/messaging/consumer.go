package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/salesledger/backend/internal/domain/reporting"
	"github.com/salesledger/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ReportConsumer consumes report dispatch jobs and hands them to a Sender.
// Acknowledgement is manual: a failed send is requeued, so the same job
// may be delivered more than once.
type ReportConsumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     config.RabbitMQConfig
	sender  reporting.Sender
	logger  *zap.Logger
}

// NewReportConsumer connects to the broker and applies the prefetch limit
func NewReportConsumer(cfg config.RabbitMQConfig, sender reporting.Sender, logger *zap.Logger) (*ReportConsumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.Qos(cfg.PrefetchCount, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &ReportConsumer{
		conn:    conn,
		channel: channel,
		cfg:     cfg,
		sender:  sender,
		logger:  logger,
	}, nil
}

// Start consumes the report queue until the context is cancelled or the
// channel closes
func (c *ReportConsumer) Start(ctx context.Context) error {
	// Declare queue (idempotent)
	if _, err := c.channel.QueueDeclare(
		c.cfg.ReportQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.cfg.ReportQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("consuming report queue", zap.String("queue", c.cfg.ReportQueue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handleDelivery(ctx, msg)
		}
	}
}

// handleDelivery sends one job and acknowledges accordingly. Malformed
// payloads are dropped instead of requeued, since redelivery cannot fix
// them.
func (c *ReportConsumer) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	var job reporting.DispatchJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		c.logger.Error("dropping malformed dispatch job", zap.Error(err))
		msg.Nack(false, false)
		return
	}

	if err := c.sender.Send(ctx, job.Email, job.Subject, job.Body); err != nil {
		c.logger.Error("failed to send report, requeueing",
			zap.String("email", job.Email),
			zap.Error(err),
		)
		msg.Nack(false, true)
		return
	}

	c.logger.Info("report sent", zap.String("email", job.Email))
	msg.Ack(false)
}

// Close closes the channel and connection
func (c *ReportConsumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
