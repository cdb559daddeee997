package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appsignal "quotesignal/internal/application/service/signal"
	"quotesignal/internal/application/service/stream"
	"quotesignal/internal/config"
	"quotesignal/internal/domain/interfaces"
	"quotesignal/internal/infrastructure/broker"
	"quotesignal/internal/infrastructure/quotes"
	"quotesignal/internal/infrastructure/signals"
	"quotesignal/internal/logging"
	"quotesignal/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
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

	sub, err := broker.NewSubscriber(rabbitConn, cfg.RabbitMQ, logger)
	if err != nil {
		logger.Fatalf("init subscriber: %v", err)
	}
	defer sub.Close()
	if err := sub.Start(ctx); err != nil {
		logger.Fatalf("start subscriber: %v", err)
	}

	pub, err := broker.NewPublisher(rabbitConn, cfg.RabbitMQ.OutboundExchange, cfg.RabbitMQ.PublishTimeout, logger)
	if err != nil {
		logger.Fatalf("init publisher: %v", err)
	}
	defer pub.Close()

	var recorders []interfaces.Recorder

	var batchWriter *broker.BatchWriter
	if cfg.Postgres.DSN != "" {
		repo, err := quotes.NewRepository(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Fatalf("init quote repository: %v", err)
		}
		defer repo.Close()
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatalf("ensure schema: %v", err)
		}
		batchWriter = broker.NewBatchWriter(broker.BatchConfig{
			Size:    cfg.Postgres.BatchSize,
			Timeout: cfg.Postgres.BatchTimeout,
		}, repo, logger)
		batchWriter.Run(ctx)
		recorders = append(recorders, batchWriter)
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		recorders = append(recorders, signals.NewCache(redisClient, cfg.Redis.RecentSize, cfg.Redis.TTL))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)
	metricsServer := metrics.NewServer(cfg.Metrics.Addr, registry)

	engine := appsignal.NewEngine(cfg.Signal.WindowSize, cfg.Signal.Thresholds())
	loop := stream.NewLoop(sub, pub, engine, logger,
		stream.WithRecorders(recorders...),
		stream.WithObserver(collector),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		logger.Infof("metrics listening on %s", cfg.Metrics.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	logger.WithFields(logrus.Fields{
		"inbound":     cfg.RabbitMQ.InboundExchange,
		"outbound":    cfg.RabbitMQ.OutboundExchange,
		"window_size": cfg.Signal.WindowSize,
		"recorders":   len(recorders),
	}).Info("processor started")

	runErr := g.Wait()

	if batchWriter != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := batchWriter.Stop(stopCtx); err != nil {
			logger.WithError(err).Error("flush pending records")
		}
		stopCancel()
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Errorf("processor stopped with error: %v", runErr)
		return
	}
	logger.Info("processor stopped")
}
