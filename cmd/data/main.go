// Command data prepares the market_data table and seeds it with simulated,
// classified quotes so the read API has something to serve.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	appsignal "quotesignal/internal/application/service/signal"
	"quotesignal/internal/application/service/simulator"
	"quotesignal/internal/config"
	"quotesignal/internal/domain/entity/quote"
	"quotesignal/internal/infrastructure/quotes"
	"quotesignal/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var seedCount int

var rootCmd = &cobra.Command{
	Use:          "data",
	Short:        "Manage the market_data quote store",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the market_data table and its index",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRepository(cmd.Context(), func(ctx context.Context, _ *config.Config, repo *quotes.Repository, logger *logrus.Logger) error {
			logger.Info("market_data table ready")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert simulated, classified quotes",
	Long: `Generates quotes in the producer price band, classifies them through a
fresh engine and bulk-inserts the resulting records.

Example:
  data seed --count 500`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if seedCount <= 0 {
			return fmt.Errorf("--count must be positive, got %d", seedCount)
		}
		return withRepository(cmd.Context(), func(ctx context.Context, cfg *config.Config, repo *quotes.Repository, logger *logrus.Logger) error {
			records := seedRecords(cfg, seedCount, time.Now().UTC())
			if err := repo.AddRecords(ctx, records); err != nil {
				return fmt.Errorf("seed records: %w", err)
			}
			logger.WithFields(logrus.Fields{
				"records": len(records),
				"symbol":  cfg.Producer.Symbol,
			}).Info("seed finished")
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 100, "number of quotes to insert")
	rootCmd.AddCommand(migrateCmd, seedCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// withRepository loads config, opens the store and ensures the schema before
// handing control to fn.
func withRepository(ctx context.Context, fn func(context.Context, *config.Config, *quotes.Repository, *logrus.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("falling back to info level")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("DATABASE_DSN is required")
	}

	repo, err := quotes.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	return fn(ctx, cfg, repo, logger)
}

// seedRecords classifies count simulated quotes through a fresh engine,
// spacing their timestamps by the producer interval and ending at until.
func seedRecords(cfg *config.Config, count int, until time.Time) []quote.Record {
	gen := simulator.NewGenerator(cfg.Producer.Symbol, simulator.Band{
		MinPrice: cfg.Producer.MinPrice,
		MaxPrice: cfg.Producer.MaxPrice,
		MinSize:  cfg.Producer.MinSize,
		MaxSize:  cfg.Producer.MaxSize,
	}, cfg.Producer.Seed)
	engine := appsignal.NewEngine(cfg.Signal.WindowSize, cfg.Signal.Thresholds())

	records := make([]quote.Record, 0, count)
	start := until.Add(-time.Duration(count-1) * cfg.Producer.Interval)
	for i := 0; i < count; i++ {
		q := gen.Next()
		began := time.Now()
		features, verdict := engine.Evaluate(q)
		records = append(records, quote.Record{
			Quote:            q,
			Verdict:          verdict,
			Spread:           features.Spread,
			Imbalance:        features.Imbalance,
			ProcessingTimeMs: float64(time.Since(began)) / float64(time.Millisecond),
			ReceivedAt:       start.Add(time.Duration(i) * cfg.Producer.Interval),
		})
	}
	return records
}
