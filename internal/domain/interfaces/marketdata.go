package interfaces

import (
	"context"
	"errors"

	"quotesignal/internal/domain/entity/quote"
)

type QuoteRepository interface {
	AddRecord(ctx context.Context, record *quote.Record) error
	AddRecords(ctx context.Context, records []quote.Record) error
	GetLatest(ctx context.Context, symbol string) (*quote.Record, error)
	GetLast(ctx context.Context, symbol string, limit int) ([]quote.Record, error)

	Close()
}

type SignalCache interface {
	Store(ctx context.Context, record quote.Record) error
	Latest(ctx context.Context, symbol string) (*quote.Record, error)
	Recent(ctx context.Context, limit int) ([]quote.Record, error)
}

// ErrNotFound is wrapped by store-specific not-found errors so callers can
// match them without importing the store.
var ErrNotFound = errors.New("not found")
