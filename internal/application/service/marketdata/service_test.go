package marketdata

import (
	"context"
	"testing"

	"quotesignal/internal/domain/entity/quote"
	"quotesignal/internal/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	records   []quote.Record
	lastLimit int
}

func (r *stubRepository) AddRecord(_ context.Context, rec *quote.Record) error {
	r.records = append(r.records, *rec)
	return nil
}

func (r *stubRepository) AddRecords(_ context.Context, recs []quote.Record) error {
	r.records = append(r.records, recs...)
	return nil
}

func (r *stubRepository) GetLatest(_ context.Context, symbol string) (*quote.Record, error) {
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].Symbol == symbol {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *stubRepository) GetLast(_ context.Context, symbol string, limit int) ([]quote.Record, error) {
	r.lastLimit = limit
	var out []quote.Record
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].Symbol == symbol {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

func (r *stubRepository) Close() {}

type stubCache struct {
	latest map[string]quote.Record
	recent []quote.Record
}

func (c *stubCache) Store(_ context.Context, rec quote.Record) error {
	c.latest[rec.Symbol] = rec
	c.recent = append([]quote.Record{rec}, c.recent...)
	return nil
}

func (c *stubCache) Latest(_ context.Context, symbol string) (*quote.Record, error) {
	rec, ok := c.latest[symbol]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &rec, nil
}

func (c *stubCache) Recent(_ context.Context, limit int) ([]quote.Record, error) {
	if limit > len(c.recent) {
		limit = len(c.recent)
	}
	return c.recent[:limit], nil
}

func record(symbol, signal string) quote.Record {
	return quote.Record{Quote: quote.Quote{Symbol: symbol}, Verdict: quote.Verdict{Signal: signal}}
}

func TestSignalsFromCache(t *testing.T) {
	ctx := context.Background()
	cache := &stubCache{latest: map[string]quote.Record{}}
	require.NoError(t, cache.Store(ctx, record("A", quote.SignalBuy)))
	require.NoError(t, cache.Store(ctx, record("B", quote.SignalSell)))
	svc := NewService(nil, cache)

	latest, err := svc.LatestSignal(ctx, " A ")
	require.NoError(t, err)
	assert.Equal(t, quote.SignalBuy, latest.Signal)

	recent, err := svc.RecentSignals(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "B", recent[0].Symbol)

	_, err = svc.LatestSignal(ctx, "C")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&stubRepository{}, &stubCache{latest: map[string]quote.Record{}})

	_, err := svc.LatestSignal(ctx, "  ")
	assert.ErrorIs(t, err, ErrMissingSymbol)
	_, err = svc.RecentSignals(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
	_, err = svc.LatestQuote(ctx, "")
	assert.ErrorIs(t, err, ErrMissingSymbol)
	_, err = svc.LastQuotes(ctx, "A", -1)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestDisabledSources(t *testing.T) {
	ctx := context.Background()
	svc := NewService(nil, nil)

	_, err := svc.LatestSignal(ctx, "A")
	assert.ErrorIs(t, err, ErrSourceDisabled)
	_, err = svc.RecentSignals(ctx, 1)
	assert.ErrorIs(t, err, ErrSourceDisabled)
	_, err = svc.LatestQuote(ctx, "A")
	assert.ErrorIs(t, err, ErrSourceDisabled)
	_, err = svc.LastQuotes(ctx, "A", 1)
	assert.ErrorIs(t, err, ErrSourceDisabled)
}

func TestLastQuotesClampsLimit(t *testing.T) {
	ctx := context.Background()
	repo := &stubRepository{}
	require.NoError(t, repo.AddRecords(ctx, []quote.Record{
		record("A", quote.SignalNeutral),
		record("B", quote.SignalNeutral),
		record("A", quote.SignalBuy),
	}))
	svc := NewService(repo, nil)

	quotes, err := svc.LastQuotes(ctx, "A", MaxLimit+500)
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, repo.lastLimit)
	require.Len(t, quotes, 2)
	assert.Equal(t, quote.SignalBuy, quotes[0].Signal)

	latest, err := svc.LatestQuote(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, "B", latest.Symbol)
}
