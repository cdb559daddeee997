package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quotesignal/internal/domain/interfaces"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const defaultPublishTimeout = 100 * time.Millisecond

// Publisher sends payloads to a fanout exchange. Each publish is bounded by a
// short timeout and never retried.
type Publisher struct {
	channel  *amqp.Channel
	exchange string
	timeout  time.Duration
	logger   *logrus.Entry
	mu       sync.Mutex
}

var _ interfaces.Publisher = (*Publisher)(nil)

func NewPublisher(conn *amqp.Connection, exchange string, timeout time.Duration, logger *logrus.Logger) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("rabbitmq connection is nil")
	}
	if exchange == "" {
		return nil, errors.New("exchange name cannot be empty")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &Publisher{
		channel:  ch,
		exchange: exchange,
		timeout:  timeout,
		logger:   logger.WithField("component", "publisher").WithField("exchange", exchange),
	}, nil
}

func (p *Publisher) TryPublish(ctx context.Context, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if err := p.channel.Close(); err != nil {
		p.logger.WithError(err).Error("close rabbitmq channel")
	}
}
