package models

import (
	"context"
	"testing"
	"time"

	"quotesignal/internal/domain/entity/quote"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteTableLayout(t *testing.T) {
	table, err := QuoteTable()
	require.NoError(t, err)

	assert.Equal(t, "market_data", table.Name)
	assert.Equal(t, []string{
		"id", "symbol",
		"bid_price", "ask_price", "bid_size", "ask_size",
		"tot_buy_qty", "tot_sell_qty",
		"spread", "imbalance",
		"order_book_prediction", "order_flow_prediction", "signal",
		"processing_time_ms", "received_at",
	}, table.Columns)
}

func TestTableValuesAndScanTargets(t *testing.T) {
	table, err := QuoteTable()
	require.NoError(t, err)

	id := uuid.New()
	at := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	model := NewQuoteModel(quote.Record{
		ID:               id,
		Quote:            quote.Quote{Symbol: "NSE:SBIN-EQ", BidPrice: 690, AskPrice: 691, BidSize: 300, AskSize: 200},
		Verdict:          quote.BullishVerdict,
		ProcessingTimeMs: 0.2,
		Spread:           1,
		Imbalance:        100,
		ReceivedAt:       at,
	})

	values := table.Values(context.Background(), &model)
	require.Len(t, values, len(table.Columns))
	assert.Equal(t, id, values[0])
	assert.Equal(t, "NSE:SBIN-EQ", values[1])
	assert.Equal(t, quote.SignalBuy, values[12])
	assert.Equal(t, at, values[14])

	var scanned QuoteModel
	targets := table.ScanTargets(context.Background(), &scanned)
	require.Len(t, targets, len(table.Columns))
	*(targets[1].(*string)) = "NSE:INFY-EQ"
	*(targets[8].(*float64)) = 2.5
	assert.Equal(t, "NSE:INFY-EQ", scanned.Symbol)
	assert.Equal(t, 2.5, scanned.Spread)
}

func TestModelRecordRoundTrip(t *testing.T) {
	record := quote.Record{
		ID:               uuid.New(),
		Quote:            quote.Quote{Symbol: "X", BidPrice: 1, AskPrice: 2, TotBuyQty: 5, TotSellQty: 3},
		Verdict:          quote.NeutralVerdict,
		ProcessingTimeMs: 0.01,
		Spread:           1,
		ReceivedAt:       time.Unix(1700000000, 0).UTC(),
	}
	assert.Equal(t, record, NewQuoteModel(record).ToRecord())
}
