package quote

import (
	"time"

	"github.com/google/uuid"
)

// UnknownSymbol is reported when an inbound payload carries no usable symbol.
const UnknownSymbol = "N/A"

// Quote is a single market snapshot decoded from the inbound bus.
type Quote struct {
	Symbol     string  `json:"symbol"`
	BidPrice   float64 `json:"bid_price"`
	AskPrice   float64 `json:"ask_price"`
	BidSize    float64 `json:"bid_size"`
	AskSize    float64 `json:"ask_size"`
	TotBuyQty  float64 `json:"tot_buy_qty"`
	TotSellQty float64 `json:"tot_sell_qty"`
}

// FeatureSet holds the instantaneous features derived from a quote, or the
// rolling means of those features.
type FeatureSet struct {
	Spread    float64
	Imbalance float64
	OrderFlow float64
}

// Order book predictions.
const (
	OrderBookBullish = "Bullish Breakout"
	OrderBookBearish = "Bearish Breakdown"
	OrderBookNeutral = "Neutral"
)

// Order flow predictions.
const (
	OrderFlowBullish = "Bullish"
	OrderFlowBearish = "Bearish"
	OrderFlowNeutral = "Neutral"
)

// Trading signals.
const (
	SignalBuy     = "Buy Signal"
	SignalSell    = "Sell Signal"
	SignalNeutral = "No Strong Signal"
)

// Verdict is the three-label classification of a quote.
type Verdict struct {
	OrderBookPrediction string `json:"order_book_prediction"`
	OrderFlowPrediction string `json:"order_flow_prediction"`
	Signal              string `json:"signal"`
}

var (
	BullishVerdict = Verdict{
		OrderBookPrediction: OrderBookBullish,
		OrderFlowPrediction: OrderFlowBullish,
		Signal:              SignalBuy,
	}
	BearishVerdict = Verdict{
		OrderBookPrediction: OrderBookBearish,
		OrderFlowPrediction: OrderFlowBearish,
		Signal:              SignalSell,
	}
	NeutralVerdict = Verdict{
		OrderBookPrediction: OrderBookNeutral,
		OrderFlowPrediction: OrderFlowNeutral,
		Signal:              SignalNeutral,
	}
)

// Record is the enriched quote published downstream. Spread and imbalance
// travel with the record for persistence but are not part of the wire payload.
type Record struct {
	ID uuid.UUID `json:"-"`
	Quote
	Verdict
	ProcessingTimeMs float64   `json:"processing_time_ms"`
	Spread           float64   `json:"-"`
	Imbalance        float64   `json:"-"`
	ReceivedAt       time.Time `json:"-"`
}
