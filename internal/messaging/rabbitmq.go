package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/garagekit/parking-service/internal/config"
)

const (
	connectAttempts = 5
	publishTimeout  = 5 * time.Second
)

// ErrNotConnected is returned when the broker connection is unavailable.
var ErrNotConnected = errors.New("rabbitmq not connected")

// RabbitMQ holds one connection and channel bound to a topic exchange.
type RabbitMQ struct {
	url      string
	exchange string
	logger   *zap.Logger

	mu     sync.RWMutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

// NewRabbitMQ dials the broker with backoff and declares the events exchange.
func NewRabbitMQ(ctx context.Context, cfg config.EventsConfig, logger *zap.Logger) (*RabbitMQ, error) {
	mq := &RabbitMQ{url: cfg.AMQPURL, exchange: cfg.Exchange, logger: logger}

	delay := time.Second
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		err := mq.connect()
		if err == nil {
			logger.Info("connected to rabbitmq", zap.String("exchange", mq.exchange), zap.Int("attempt", attempt))
			return mq, nil
		}
		logger.Warn("rabbitmq connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err))
		if attempt == connectAttempts {
			return nil, fmt.Errorf("connect rabbitmq after %d attempts: %w", connectAttempts, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return nil, ErrNotConnected
}

func (mq *RabbitMQ) connect() error {
	conn, err := amqp.Dial(mq.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(mq.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", mq.exchange, err)
	}

	mq.mu.Lock()
	mq.conn = conn
	mq.ch = ch
	mq.mu.Unlock()
	return nil
}

// Publish sends a persistent JSON message to the events exchange.
func (mq *RabbitMQ) Publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	if mq == nil {
		return ErrNotConnected
	}
	mq.mu.RLock()
	ch := mq.ch
	mq.mu.RUnlock()
	if ch == nil || ch.IsClosed() {
		return ErrNotConnected
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return ch.PublishWithContext(publishCtx, mq.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    messageID,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Ping reports whether the broker connection is still open.
func (mq *RabbitMQ) Ping(context.Context) error {
	if mq == nil {
		return ErrNotConnected
	}
	mq.mu.RLock()
	defer mq.mu.RUnlock()
	if mq.conn == nil || mq.conn.IsClosed() {
		return ErrNotConnected
	}
	return nil
}

// Close shuts the channel and connection once.
func (mq *RabbitMQ) Close() {
	if mq == nil {
		return
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	if mq.closed {
		return
	}
	mq.closed = true
	if mq.ch != nil {
		_ = mq.ch.Close()
	}
	if mq.conn != nil {
		_ = mq.conn.Close()
	}
	mq.logger.Info("rabbitmq connection closed")
}
