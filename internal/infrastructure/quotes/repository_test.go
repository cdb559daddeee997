package quotes

import (
	"testing"
	"time"

	"quotesignal/internal/domain/entity/quote"
	"quotesignal/internal/infrastructure/quotes/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQueries(t *testing.T) {
	table, err := models.QuoteTable()
	require.NoError(t, err)

	insert := buildInsertQuery(table)
	assert.Contains(t, insert, "INSERT INTO market_data (id, symbol, bid_price")
	assert.Contains(t, insert, "$15)")
	assert.NotContains(t, insert, "$16")

	selectQuery := buildSelectQuery(table)
	assert.Equal(t, "SELECT id, symbol, bid_price, ask_price, bid_size, ask_size, "+
		"tot_buy_qty, tot_sell_qty, spread, imbalance, order_book_prediction, "+
		"order_flow_prediction, signal, processing_time_ms, received_at FROM market_data", selectQuery)
}

func TestPrepareRecordAssignsIdentity(t *testing.T) {
	var record quote.Record
	prepareRecord(&record)
	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.False(t, record.ReceivedAt.IsZero())

	id := uuid.New()
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	kept := quote.Record{ID: id, ReceivedAt: at}
	prepareRecord(&kept)
	assert.Equal(t, id, kept.ID)
	assert.Equal(t, at, kept.ReceivedAt)
}
