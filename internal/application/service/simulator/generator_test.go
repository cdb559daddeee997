package simulator

import (
	"context"
	"testing"
	"time"

	"quotesignal/internal/domain/entity/quote"
	"quotesignal/internal/infrastructure/broker"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorStaysInBand(t *testing.T) {
	band := DefaultBand()
	g := NewGenerator("NSE:SBIN-EQ", band, 42)

	for i := 0; i < 500; i++ {
		q := g.Next()
		assert.Equal(t, "NSE:SBIN-EQ", q.Symbol)
		assert.GreaterOrEqual(t, q.BidPrice, band.MinPrice)
		assert.LessOrEqual(t, q.BidPrice, band.MaxPrice)
		assert.GreaterOrEqual(t, q.AskPrice, band.MinPrice)
		assert.LessOrEqual(t, q.AskPrice, band.MaxPrice)
		assert.GreaterOrEqual(t, q.BidSize, float64(band.MinSize))
		assert.LessOrEqual(t, q.AskSize, float64(band.MaxSize))
		assert.GreaterOrEqual(t, q.TotBuyQty, q.BidSize)
	}
}

func TestGeneratorIsDeterministicWhenSeeded(t *testing.T) {
	a := NewGenerator("X", DefaultBand(), 7)
	b := NewGenerator("X", DefaultBand(), 7)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestGeneratorFixedSize(t *testing.T) {
	g := NewGenerator("X", Band{MinPrice: 1, MaxPrice: 1, MinSize: 10, MaxSize: 10}, 1)
	q := g.Next()
	assert.Equal(t, 1.0, q.BidPrice)
	assert.Equal(t, 10.0, q.BidSize)
	assert.Equal(t, 10.0, q.AskSize)
}

func TestFeedPublishesDecodableQuotes(t *testing.T) {
	bus := broker.NewMemoryBus(16)
	logger, _ := logtest.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Feed(ctx, NewGenerator("NSE:SBIN-EQ", DefaultBand(), 3), bus, time.Millisecond, logger)
	}()

	require.Eventually(t, func() bool { return bus.Len() >= 3 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	payload, ok, err := bus.TryReceive(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	q, err := quote.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "NSE:SBIN-EQ", q.Symbol)
}
