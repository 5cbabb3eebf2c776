// Package rabbitmq publishes committed lifecycle events to a topic exchange
// so other services (billing exports, CRM sync) can follow membership changes.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"gym-admin-service/internal/domain/event"
	"gym-admin-service/internal/pkg/metrics"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	sinkAMQP       = "amqp"
	publishTimeout = 5 * time.Second
)

// Producer publishes a JSON body under a routing key.
type Producer interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	Close()
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	logger  *zap.Logger
}

// EventProducerFallback stands in when RabbitMQ is not configured or was
// unreachable at startup.
type EventProducerFallback struct {
	logger *zap.Logger
}

func NewFallback(logger *zap.Logger) *EventProducerFallback {
	return &EventProducerFallback{logger: logger}
}

func (p *EventProducerFallback) Publish(_ context.Context, exchange, routingKey string, _ interface{}) error {
	p.logger.Debug("publish skipped, broker unavailable",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
	)
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	if idx := strings.Index(strings.ToLower(clean), "amqp"); idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer dials the broker with a bounded timeout.
func NewEventProducer(amqpURL string, logger *zap.Logger) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch, logger: logger}, nil
}

// Publish declares the durable topic exchange and sends body as JSON. A
// failed channel is reopened once before giving up.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publish(ctx, exchange, routingKey, jsonBody)
	if err == nil {
		return nil
	}

	p.logger.Warn("publish failed; reopening channel",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
		zap.Error(err),
	)
	ch, chErr := p.conn.Channel()
	if chErr != nil {
		return chErr
	}
	p.channel = ch
	return p.publish(ctx, exchange, routingKey, jsonBody)
}

func (p *EventProducer) publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	if err := p.channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// LifecyclePublisher adapts a Producer to event.Publisher, using the event
// type as routing key. Publish only queues; the goroutine running Run talks
// to the broker so a slow broker never holds up a request.
type LifecyclePublisher struct {
	producer Producer
	exchange string
	queue    chan event.Event
	logger   *zap.Logger
}

func NewLifecyclePublisher(producer Producer, exchange string, buffer int, logger *zap.Logger) *LifecyclePublisher {
	if buffer <= 0 {
		buffer = 64
	}
	return &LifecyclePublisher{
		producer: producer,
		exchange: exchange,
		queue:    make(chan event.Event, buffer),
		logger:   logger,
	}
}

// Publish queues e for the broker. A full queue drops the event.
func (p *LifecyclePublisher) Publish(_ context.Context, e event.Event) {
	select {
	case p.queue <- e:
	default:
		metrics.EventsPublished.WithLabelValues(sinkAMQP, "dropped").Inc()
		p.logger.Warn("broker queue full, dropping lifecycle event",
			zap.String("event_id", e.ID),
			zap.String("event_type", string(e.Type)),
		)
	}
}

// Run sends queued events until ctx is done.
func (p *LifecyclePublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-p.queue:
			p.Deliver(ctx, e)
		}
	}
}

// Deliver sends e to the exchange, waiting at most publishTimeout. Failures
// are logged and counted.
func (p *LifecyclePublisher) Deliver(ctx context.Context, e event.Event) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.producer.Publish(ctx, p.exchange, string(e.Type), e); err != nil {
		metrics.EventsPublished.WithLabelValues(sinkAMQP, "error").Inc()
		p.logger.Warn("failed to publish lifecycle event",
			zap.String("event_id", e.ID),
			zap.String("event_type", string(e.Type)),
			zap.Error(err),
		)
		return
	}
	metrics.EventsPublished.WithLabelValues(sinkAMQP, "ok").Inc()
}
