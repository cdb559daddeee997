package quote

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDecode marks an inbound payload that could not be parsed as a quote.
var ErrDecode = errors.New("decode quote")

// Decode parses an inbound payload. Missing or non-numeric price and size
// fields default to zero and a missing symbol defaults to UnknownSymbol; only
// a payload that is not a JSON object is rejected.
func Decode(data []byte) (Quote, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if fields == nil {
		return Quote{}, fmt.Errorf("%w: payload is not an object", ErrDecode)
	}
	return Quote{
		Symbol:     stringField(fields, "symbol", UnknownSymbol),
		BidPrice:   numberField(fields, "bid_price"),
		AskPrice:   numberField(fields, "ask_price"),
		BidSize:    numberField(fields, "bid_size"),
		AskSize:    numberField(fields, "ask_size"),
		TotBuyQty:  numberField(fields, "tot_buy_qty"),
		TotSellQty: numberField(fields, "tot_sell_qty"),
	}, nil
}

// Encode renders the outbound payload for a record.
func Encode(record Record) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

func stringField(fields map[string]json.RawMessage, key, fallback string) string {
	raw, ok := fields[key]
	if !ok {
		return fallback
	}
	value := fallback
	if err := json.Unmarshal(raw, &value); err != nil {
		return fallback
	}
	return value
}

func numberField(fields map[string]json.RawMessage, key string) float64 {
	raw, ok := fields[key]
	if !ok {
		return 0
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0
	}
	return value
}
