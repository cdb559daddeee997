// Package signals keeps the most recent classified records in Redis for the read API.
package signals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quotesignal/internal/domain/entity/quote"
	"quotesignal/internal/domain/interfaces"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSignalNotFound = fmt.Errorf("signal %w", interfaces.ErrNotFound)

const (
	latestKeyPrefix = "signals:latest:"
	recentKey       = "signals:recent"

	DefaultRecentSize = 10
)

type Cache struct {
	client     redis.UniversalClient
	recentSize int
	ttl        time.Duration
}

var (
	_ interfaces.SignalCache = (*Cache)(nil)
	_ interfaces.Recorder    = (*Cache)(nil)
)

// NewCache wraps an existing client. recentSize caps the shared recent list;
// ttl bounds how long a symbol's latest record survives without updates.
func NewCache(client redis.UniversalClient, recentSize int, ttl time.Duration) *Cache {
	if recentSize <= 0 {
		recentSize = DefaultRecentSize
	}
	return &Cache{client: client, recentSize: recentSize, ttl: ttl}
}

// Store saves record as the latest for its symbol and prepends it to the recent list.
func (c *Cache) Store(ctx context.Context, record quote.Record) error {
	data, err := marshalEntry(record)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, latestKey(record.Symbol), data, c.ttl)
	pipe.LPush(ctx, recentKey, data)
	pipe.LTrim(ctx, recentKey, 0, int64(c.recentSize-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store signal for %s: %w", record.Symbol, err)
	}
	return nil
}

// Record lets the cache sit behind the stream loop as a recorder.
func (c *Cache) Record(ctx context.Context, record quote.Record) error {
	return c.Store(ctx, record)
}

func (c *Cache) Latest(ctx context.Context, symbol string) (*quote.Record, error) {
	data, err := c.client.Get(ctx, latestKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSignalNotFound
		}
		return nil, fmt.Errorf("get latest signal for %s: %w", symbol, err)
	}
	record, err := unmarshalEntry(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Recent returns up to limit records, newest first. Limits above the list
// capacity are clamped.
func (c *Cache) Recent(ctx context.Context, limit int) ([]quote.Record, error) {
	if limit <= 0 || limit > c.recentSize {
		limit = c.recentSize
	}
	values, err := c.client.LRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent signals: %w", err)
	}
	records := make([]quote.Record, 0, len(values))
	for _, value := range values {
		record, err := unmarshalEntry([]byte(value))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func latestKey(symbol string) string {
	return latestKeyPrefix + symbol
}

// entry is the cached form of a record. Unlike the wire payload it keeps the
// derived features and identity.
type entry struct {
	ID                  uuid.UUID `json:"id"`
	Symbol              string    `json:"symbol"`
	BidPrice            float64   `json:"bid_price"`
	AskPrice            float64   `json:"ask_price"`
	BidSize             float64   `json:"bid_size"`
	AskSize             float64   `json:"ask_size"`
	TotBuyQty           float64   `json:"tot_buy_qty"`
	TotSellQty          float64   `json:"tot_sell_qty"`
	Spread              float64   `json:"spread"`
	Imbalance           float64   `json:"imbalance"`
	OrderBookPrediction string    `json:"order_book_prediction"`
	OrderFlowPrediction string    `json:"order_flow_prediction"`
	Signal              string    `json:"signal"`
	ProcessingTimeMs    float64   `json:"processing_time_ms"`
	ReceivedAt          time.Time `json:"received_at"`
}

func marshalEntry(r quote.Record) ([]byte, error) {
	data, err := json.Marshal(entry{
		ID:                  r.ID,
		Symbol:              r.Symbol,
		BidPrice:            r.BidPrice,
		AskPrice:            r.AskPrice,
		BidSize:             r.BidSize,
		AskSize:             r.AskSize,
		TotBuyQty:           r.TotBuyQty,
		TotSellQty:          r.TotSellQty,
		Spread:              r.Spread,
		Imbalance:           r.Imbalance,
		OrderBookPrediction: r.OrderBookPrediction,
		OrderFlowPrediction: r.OrderFlowPrediction,
		Signal:              r.Signal,
		ProcessingTimeMs:    r.ProcessingTimeMs,
		ReceivedAt:          r.ReceivedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal signal entry: %w", err)
	}
	return data, nil
}

func unmarshalEntry(data []byte) (quote.Record, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return quote.Record{}, fmt.Errorf("unmarshal signal entry: %w", err)
	}
	return quote.Record{
		ID: e.ID,
		Quote: quote.Quote{
			Symbol:     e.Symbol,
			BidPrice:   e.BidPrice,
			AskPrice:   e.AskPrice,
			BidSize:    e.BidSize,
			AskSize:    e.AskSize,
			TotBuyQty:  e.TotBuyQty,
			TotSellQty: e.TotSellQty,
		},
		Verdict: quote.Verdict{
			OrderBookPrediction: e.OrderBookPrediction,
			OrderFlowPrediction: e.OrderFlowPrediction,
			Signal:              e.Signal,
		},
		ProcessingTimeMs: e.ProcessingTimeMs,
		Spread:           e.Spread,
		Imbalance:        e.Imbalance,
		ReceivedAt:       e.ReceivedAt,
	}, nil
}
