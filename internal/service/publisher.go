// Package service holds outbound integrations used by the HTTP handlers.
// Publish errors are logged and returned so callers can ignore them without
// failing the request that triggered the event.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/aizah-price-admin/internal/metrics"
	q "github.com/iliyamo/aizah-price-admin/internal/queue"
)

// PricePublisher publishes price updated events to RabbitMQ.  A connection
// is opened per event; updates are rare operator actions.
type PricePublisher struct {
	URL         string
	DialTimeout time.Duration // bounds connect and handshake
	Logger      *zap.Logger
}

// DefaultDialTimeout bounds how long a submit can wait on an unreachable
// broker.
const DefaultDialTimeout = 2 * time.Second

// NewPricePublisher returns a publisher for the broker at url.
func NewPricePublisher(url string, logger *zap.Logger) *PricePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricePublisher{URL: url, DialTimeout: DefaultDialTimeout, Logger: logger}
}

// PublishPriceUpdated sends event to the price.updated queue as a
// persistent message.
func (p *PricePublisher) PublishPriceUpdated(ctx context.Context, event q.PriceUpdatedEvent) (err error) {
	defer func() { metrics.ObservePublish(err) }()

	timeout := p.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		p.Logger.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err = ch.QueueDeclare(
		q.PriceUpdatedQueue, // name
		true,                // durable
		false,               // autoDelete
		false,               // exclusive
		false,               // noWait
		nil,                 // args
	); err != nil {
		p.Logger.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.Logger.Warn("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err = ch.PublishWithContext(ctx, "", q.PriceUpdatedQueue, false, false, pub); err != nil {
		p.Logger.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	p.Logger.Debug("price updated event published",
		zap.String("room_id", event.RoomID),
		zap.String("room_name", event.RoomName),
	)
	return nil
}

// NopPublisher drops every event.  Used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishPriceUpdated(context.Context, q.PriceUpdatedEvent) error { return nil }
