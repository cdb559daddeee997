package marketdata

import (
	"context"
	"errors"
	"strings"

	"quotesignal/internal/domain/entity/quote"
	"quotesignal/internal/domain/interfaces"
)

var (
	ErrMissingSymbol  = errors.New("symbol is required")
	ErrInvalidLimit   = errors.New("limit must be positive")
	ErrSourceDisabled = errors.New("data source is not configured")
)

// MaxLimit caps how many stored quotes a single read may return.
const MaxLimit = 1000

// Service answers read queries over classified records. Either source may be
// nil when the corresponding backend is not configured.
type Service struct {
	repo  interfaces.QuoteRepository
	cache interfaces.SignalCache
}

func NewService(repo interfaces.QuoteRepository, cache interfaces.SignalCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Signals

func (s *Service) LatestSignal(ctx context.Context, symbol string) (*quote.Record, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if s.cache == nil {
		return nil, ErrSourceDisabled
	}
	return s.cache.Latest(ctx, symbol)
}

func (s *Service) RecentSignals(ctx context.Context, limit int) ([]quote.Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if s.cache == nil {
		return nil, ErrSourceDisabled
	}
	return s.cache.Recent(ctx, limit)
}

// Quotes

func (s *Service) LatestQuote(ctx context.Context, symbol string) (*quote.Record, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, ErrSourceDisabled
	}
	return s.repo.GetLatest(ctx, symbol)
}

func (s *Service) LastQuotes(ctx context.Context, symbol string, limit int) ([]quote.Record, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if s.repo == nil {
		return nil, ErrSourceDisabled
	}
	return s.repo.GetLast(ctx, symbol, limit)
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return "", ErrMissingSymbol
	}
	return symbol, nil
}
