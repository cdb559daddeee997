package signal

import "quotesignal/internal/domain/entity/quote"

// Extract derives spread, imbalance and order flow from a quote.
func Extract(q quote.Quote) quote.FeatureSet {
	return quote.FeatureSet{
		Spread:    q.AskPrice - q.BidPrice,
		Imbalance: q.BidSize - q.AskSize,
		OrderFlow: q.TotBuyQty - q.TotSellQty,
	}
}
