package models

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"quotesignal/internal/domain/entity/quote"

	"github.com/google/uuid"
	"gorm.io/gorm/schema"
)

type QuoteModel struct {
	ID                  uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	Symbol              string    `gorm:"column:symbol;type:varchar(64);not null;index"`
	BidPrice            float64   `gorm:"column:bid_price;type:double precision;not null"`
	AskPrice            float64   `gorm:"column:ask_price;type:double precision;not null"`
	BidSize             float64   `gorm:"column:bid_size;type:double precision;not null"`
	AskSize             float64   `gorm:"column:ask_size;type:double precision;not null"`
	TotBuyQty           float64   `gorm:"column:tot_buy_qty;type:double precision;not null"`
	TotSellQty          float64   `gorm:"column:tot_sell_qty;type:double precision;not null"`
	Spread              float64   `gorm:"column:spread;type:double precision;not null"`
	Imbalance           float64   `gorm:"column:imbalance;type:double precision;not null"`
	OrderBookPrediction string    `gorm:"column:order_book_prediction;type:varchar(32);not null"`
	OrderFlowPrediction string    `gorm:"column:order_flow_prediction;type:varchar(32);not null"`
	Signal              string    `gorm:"column:signal;type:varchar(32);not null"`
	ProcessingTimeMs    float64   `gorm:"column:processing_time_ms;type:double precision;not null"`
	ReceivedAt          time.Time `gorm:"column:received_at;type:timestamptz;not null;index"`
}

func (QuoteModel) TableName() string {
	return "market_data"
}

func NewQuoteModel(r quote.Record) QuoteModel {
	return QuoteModel{
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
	}
}

func (m QuoteModel) ToRecord() quote.Record {
	return quote.Record{
		ID: m.ID,
		Quote: quote.Quote{
			Symbol:     m.Symbol,
			BidPrice:   m.BidPrice,
			AskPrice:   m.AskPrice,
			BidSize:    m.BidSize,
			AskSize:    m.AskSize,
			TotBuyQty:  m.TotBuyQty,
			TotSellQty: m.TotSellQty,
		},
		Verdict: quote.Verdict{
			OrderBookPrediction: m.OrderBookPrediction,
			OrderFlowPrediction: m.OrderFlowPrediction,
			Signal:              m.Signal,
		},
		ProcessingTimeMs: m.ProcessingTimeMs,
		Spread:           m.Spread,
		Imbalance:        m.Imbalance,
		ReceivedAt:       m.ReceivedAt,
	}
}

// Table describes the column layout of QuoteModel as derived from its gorm tags.
type Table struct {
	Name    string
	Columns []string
	fields  []*schema.Field
}

var (
	quoteTableOnce sync.Once
	quoteTable     *Table
	quoteTableErr  error
)

// QuoteTable parses QuoteModel once and returns its table layout.
func QuoteTable() (*Table, error) {
	quoteTableOnce.Do(func() {
		s, err := schema.Parse(&QuoteModel{}, &sync.Map{}, schema.NamingStrategy{})
		if err != nil {
			quoteTableErr = fmt.Errorf("parse quote model: %w", err)
			return
		}
		t := &Table{Name: s.Table}
		for _, name := range s.DBNames {
			t.Columns = append(t.Columns, name)
			t.fields = append(t.fields, s.FieldsByDBName[name])
		}
		quoteTable = t
	})
	return quoteTable, quoteTableErr
}

// Values returns the column values of m in Columns order.
func (t *Table) Values(ctx context.Context, m *QuoteModel) []any {
	rv := reflect.ValueOf(m).Elem()
	values := make([]any, 0, len(t.fields))
	for _, f := range t.fields {
		v, _ := f.ValueOf(ctx, rv)
		values = append(values, v)
	}
	return values
}

// ScanTargets returns pointers into m in Columns order, suitable for Row.Scan.
func (t *Table) ScanTargets(ctx context.Context, m *QuoteModel) []any {
	rv := reflect.ValueOf(m).Elem()
	targets := make([]any, 0, len(t.fields))
	for _, f := range t.fields {
		targets = append(targets, f.ReflectValueOf(ctx, rv).Addr().Interface())
	}
	return targets
}
