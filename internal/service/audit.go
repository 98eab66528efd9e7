package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/venuehq/ticket-gate/internal/queue"
)

// auditQueue is the durable queue that receives every authentication and
// redemption audit event.
const auditQueue = "ticket.audit"

// AuditPublisher records authentication and redemption decisions for
// forensics. Implementations must never block the request path on broker
// failures; callers log and ignore the returned error.
type AuditPublisher interface {
	Publish(ctx context.Context, event queue.AuditEvent) error
}

// AmqpAuditPublisher publishes audit events to RabbitMQ. Messages are
// persistent and the queue is declared durable, so the trail survives
// broker restarts.
type AmqpAuditPublisher struct {
	url string
	log *slog.Logger
}

// NewAmqpAuditPublisher returns a publisher that dials the broker at the
// given URL on each publish.
func NewAmqpAuditPublisher(url string, log *slog.Logger) *AmqpAuditPublisher {
	return &AmqpAuditPublisher{url: url, log: log}
}

// Publish sends one audit event. Any error is logged and returned so the
// caller can choose to ignore it; a broker outage must not stop the gate.
func (p *AmqpAuditPublisher) Publish(ctx context.Context, event queue.AuditEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error("audit: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error("audit: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare so publishing works before any consumer exists.
	if _, err := ch.QueueDeclare(
		auditQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		p.log.Error("audit: queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("audit: marshal event failed", "err", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", auditQueue, false, false, pub); err != nil {
		p.log.Error("audit: publish failed", "err", err)
		return err
	}
	return nil
}

// NopAuditPublisher discards events. Used when no broker is configured.
type NopAuditPublisher struct{}

func (NopAuditPublisher) Publish(context.Context, queue.AuditEvent) error { return nil }
