package main

import (
	"testing"
	"time"

	"quotesignal/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedRecords(t *testing.T) {
	cfg := &config.Config{
		Signal: config.SignalConfig{WindowSize: 50, BullishFactor: 1.5, BearishFactor: 0.5},
		Producer: config.ProducerConfig{
			Symbol:   "NSE:SBIN-EQ",
			Interval: time.Second,
			MinPrice: 680,
			MaxPrice: 700,
			MinSize:  100,
			MaxSize:  500,
			Seed:     11,
		},
	}
	until := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	records := seedRecords(cfg, 5, until)
	require.Len(t, records, 5)

	assert.Equal(t, until.Add(-4*time.Second), records[0].ReceivedAt)
	assert.Equal(t, until, records[4].ReceivedAt)
	for _, r := range records {
		assert.Equal(t, "NSE:SBIN-EQ", r.Symbol)
		assert.Equal(t, r.AskPrice-r.BidPrice, r.Spread)
		assert.Equal(t, r.BidSize-r.AskSize, r.Imbalance)
		assert.GreaterOrEqual(t, r.ProcessingTimeMs, 0.0)
		assert.NotEmpty(t, r.Signal)
	}
}

func TestSeedCommandRejectsNonPositiveCount(t *testing.T) {
	prev := seedCount
	t.Cleanup(func() { seedCount = prev })

	seedCount = 0
	err := seedCmd.RunE(seedCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--count must be positive")
}

func TestRootRegistersSubcommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "migrate")
	assert.Contains(t, names, "seed")
}
