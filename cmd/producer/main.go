package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"quotesignal/internal/application/service/simulator"
	"quotesignal/internal/config"
	"quotesignal/internal/infrastructure/broker"
	"quotesignal/internal/logging"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("falling back to info level")
	}

	rabbitConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatalf("connect rabbitmq: %v", err)
	}
	defer rabbitConn.Close()

	pub, err := broker.NewPublisher(rabbitConn, cfg.RabbitMQ.InboundExchange, cfg.RabbitMQ.PublishTimeout, logger)
	if err != nil {
		logger.Fatalf("init publisher: %v", err)
	}
	defer pub.Close()

	gen := simulator.NewGenerator(cfg.Producer.Symbol, simulator.Band{
		MinPrice: cfg.Producer.MinPrice,
		MaxPrice: cfg.Producer.MaxPrice,
		MinSize:  cfg.Producer.MinSize,
		MaxSize:  cfg.Producer.MaxSize,
	}, cfg.Producer.Seed)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return simulator.Feed(gctx, gen, pub, cfg.Producer.Interval, logger)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case amqpErr, ok := <-rabbitConn.NotifyClose(make(chan *amqp.Error, 1)):
			if ok && amqpErr != nil {
				return amqpErr
			}
			return errors.New("rabbitmq connection closed")
		}
	})

	logger.WithFields(logrus.Fields{
		"symbol":   cfg.Producer.Symbol,
		"exchange": cfg.RabbitMQ.InboundExchange,
		"interval": cfg.Producer.Interval.String(),
	}).Info("producer started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("producer stopped with error: %v", err)
		return
	}

	logger.Info("producer stopped")
}
