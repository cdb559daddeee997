package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"quotesignal/docs"
	appmarketdata "quotesignal/internal/application/service/marketdata"
	"quotesignal/internal/config"
	"quotesignal/internal/domain/interfaces"
	"quotesignal/internal/infrastructure/broker"
	"quotesignal/internal/infrastructure/quotes"
	"quotesignal/internal/infrastructure/signals"
	infrahttp "quotesignal/internal/interfaces/http"
	"quotesignal/internal/logging"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const livePollTimeout = 250 * time.Millisecond

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

	var repo interfaces.QuoteRepository
	if cfg.Postgres.DSN != "" {
		quoteRepo, err := quotes.NewRepository(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Fatalf("failed to init quote repo: %v", err)
		}
		defer quoteRepo.Close()
		repo = quoteRepo
	}

	var (
		redisClient *redis.Client
		signalCache interfaces.SignalCache
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		signalCache = signals.NewCache(redisClient, cfg.Redis.RecentSize, cfg.Redis.TTL)
	}

	var hub *infrahttp.Hub
	if cfg.HTTP.LiveFeed {
		hub = infrahttp.NewHub(logger)
		stopFeed, err := startLiveFeed(ctx, cfg, hub, logger)
		if err != nil {
			logger.Fatalf("failed to start live feed: %v", err)
		}
		defer stopFeed()
	}

	marketdataService := appmarketdata.NewService(repo, signalCache)
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()
	handler := infrahttp.NewHandler(marketdataService, redisClient, cfg.HTTP.CacheTTL, hub)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: handler,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown error: %v", err)
	}
	logger.Info("server stopped")
}

// startLiveFeed subscribes to the outbound exchange and pumps it into hub.
func startLiveFeed(ctx context.Context, cfg *config.Config, hub *infrahttp.Hub, logger *logrus.Logger) (func(), error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	feedCfg := cfg.RabbitMQ
	feedCfg.InboundExchange = cfg.RabbitMQ.OutboundExchange
	if feedCfg.PollTimeout <= 0 {
		feedCfg.PollTimeout = livePollTimeout
	}
	sub, err := broker.NewSubscriber(conn, feedCfg, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := sub.Start(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	go func() {
		if err := hub.Run(ctx, sub); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("live feed stopped")
		}
	}()

	return func() {
		if err := errors.Join(sub.Close(), conn.Close()); err != nil {
			logger.WithError(err).Warn("close live feed")
		}
	}, nil
}
