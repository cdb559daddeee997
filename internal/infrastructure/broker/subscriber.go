package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quotesignal/internal/config"
	"quotesignal/internal/domain/interfaces"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Subscriber consumes the inbound fanout exchange through an exclusive queue.
// Deliveries are auto-acknowledged: a quote that fails downstream is dropped.
type Subscriber struct {
	conn     *amqp.Connection
	exchange string
	prefetch int
	poll     time.Duration
	logger   *logrus.Entry

	channel    *amqp.Channel
	deliveries <-chan amqp.Delivery
}

var _ interfaces.Subscriber = (*Subscriber)(nil)

func NewSubscriber(conn *amqp.Connection, cfg config.RabbitMQConfig, logger *logrus.Logger) (*Subscriber, error) {
	if conn == nil {
		return nil, errors.New("rabbitmq connection is nil")
	}
	if cfg.InboundExchange == "" {
		return nil, errors.New("inbound exchange is required")
	}
	return &Subscriber{
		conn:     conn,
		exchange: cfg.InboundExchange,
		prefetch: cfg.Prefetch,
		poll:     cfg.PollTimeout,
		logger:   logger.WithField("component", "subscriber"),
	}, nil
}

// Start declares the exchange, binds a private queue to it and begins consuming.
func (s *Subscriber) Start(ctx context.Context) error {
	ch, err := s.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(s.exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("declare exchange %s: %w", s.exchange, err)
	}
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", s.exchange, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("bind queue %s to %s: %w", queue.Name, s.exchange, err)
	}
	prefetch := s.prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, queue.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("start consume: %w", err)
	}
	s.channel = ch
	s.deliveries = deliveries
	s.logger.WithFields(logrus.Fields{
		"exchange": s.exchange,
		"queue":    queue.Name,
	}).Info("subscribed")
	return nil
}

// TryReceive returns the next delivery if one is ready. With a positive poll
// timeout it waits up to that long before reporting an empty tick.
func (s *Subscriber) TryReceive(ctx context.Context) ([]byte, bool, error) {
	if s.deliveries == nil {
		return nil, false, errors.New("subscriber is not started")
	}
	if s.poll <= 0 {
		select {
		case delivery, ok := <-s.deliveries:
			return takeDelivery(delivery, ok)
		default:
			return nil, false, nil
		}
	}

	timer := time.NewTimer(s.poll)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case delivery, ok := <-s.deliveries:
		return takeDelivery(delivery, ok)
	case <-timer.C:
		return nil, false, nil
	}
}

func (s *Subscriber) Close() error {
	if s.channel == nil {
		return nil
	}
	err := s.channel.Close()
	s.channel = nil
	return err
}

func takeDelivery(delivery amqp.Delivery, ok bool) ([]byte, bool, error) {
	if !ok {
		return nil, false, interfaces.ErrSubscriptionClosed
	}
	return delivery.Body, true, nil
}
