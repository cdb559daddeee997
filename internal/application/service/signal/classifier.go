package signal

import (
	"fmt"

	"quotesignal/internal/domain/entity/quote"
)

const (
	DefaultBullishFactor = 1.5
	DefaultBearishFactor = 0.5
)

// Thresholds scale the rolling means into breakout and breakdown levels.
type Thresholds struct {
	Bullish float64
	Bearish float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Bullish: DefaultBullishFactor, Bearish: DefaultBearishFactor}
}

func (t Thresholds) Validate() error {
	if t.Bearish < 0 {
		return fmt.Errorf("bearish factor must not be negative: %v", t.Bearish)
	}
	if t.Bullish <= t.Bearish {
		return fmt.Errorf("bullish factor %v must exceed bearish factor %v", t.Bullish, t.Bearish)
	}
	return nil
}

// Classifier compares instantaneous features against their rolling means.
// Only spread and imbalance take part; order flow is tracked but never consulted.
type Classifier struct {
	thresholds Thresholds
}

func NewClassifier(thresholds Thresholds) Classifier {
	return Classifier{thresholds: thresholds}
}

// Classify returns the bullish verdict when both spread and imbalance break
// above their scaled means, the bearish verdict when both fall below, and the
// neutral verdict otherwise. Bullish is checked first.
func (c Classifier) Classify(instant, means quote.FeatureSet) quote.Verdict {
	switch {
	case instant.Spread > means.Spread*c.thresholds.Bullish &&
		instant.Imbalance > means.Imbalance*c.thresholds.Bullish:
		return quote.BullishVerdict
	case instant.Spread < means.Spread*c.thresholds.Bearish &&
		instant.Imbalance < means.Imbalance*c.thresholds.Bearish:
		return quote.BearishVerdict
	default:
		return quote.NeutralVerdict
	}
}
