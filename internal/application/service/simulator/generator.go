// Package simulator produces a synthetic quote feed for local runs and tests.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"quotesignal/internal/domain/entity/quote"
	"quotesignal/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Band bounds the generated prices and sizes. Bid and ask are drawn
// independently, so the spread may be negative.
type Band struct {
	MinPrice float64
	MaxPrice float64
	MinSize  int
	MaxSize  int
}

func DefaultBand() Band {
	return Band{MinPrice: 680, MaxPrice: 700, MinSize: 100, MaxSize: 500}
}

type Generator struct {
	symbol string
	band   Band
	rnd    *rand.Rand
}

// NewGenerator returns a generator for symbol. A zero seed picks one from the clock.
func NewGenerator(symbol string, band Band, seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		symbol: symbol,
		band:   band,
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

func (g *Generator) Next() quote.Quote {
	bidSize := g.size()
	askSize := g.size()
	return quote.Quote{
		Symbol:     g.symbol,
		BidPrice:   g.price(),
		AskPrice:   g.price(),
		BidSize:    bidSize,
		AskSize:    askSize,
		TotBuyQty:  bidSize * float64(1+g.rnd.Intn(20)),
		TotSellQty: askSize * float64(1+g.rnd.Intn(20)),
	}
}

func (g *Generator) price() float64 {
	p := g.band.MinPrice + g.rnd.Float64()*(g.band.MaxPrice-g.band.MinPrice)
	return math.Round(p*100) / 100
}

func (g *Generator) size() float64 {
	span := g.band.MaxSize - g.band.MinSize
	if span <= 0 {
		return float64(g.band.MinSize)
	}
	return float64(g.band.MinSize + g.rnd.Intn(span+1))
}

// Feed publishes one generated quote per interval until ctx is done.
// Publish failures are logged and the feed keeps going.
func Feed(ctx context.Context, g *Generator, pub interfaces.Publisher, interval time.Duration, logger logrus.FieldLogger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := logger.WithField("component", "simulator")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			q := g.Next()
			body, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("marshal quote: %w", err)
			}
			if err := pub.TryPublish(ctx, body); err != nil {
				log.WithError(err).Warn("publish quote failed")
				continue
			}
			log.WithFields(logrus.Fields{
				"symbol": q.Symbol,
				"bid":    q.BidPrice,
				"ask":    q.AskPrice,
			}).Debug("published quote")
		}
	}
}
