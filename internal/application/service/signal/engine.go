package signal

import "quotesignal/internal/domain/entity/quote"

// Engine owns one rolling window per feature. It is not safe for concurrent
// use and is meant to be confined to the goroutine driving the stream loop.
type Engine struct {
	spread     *Window[float64]
	imbalance  *Window[float64]
	orderFlow  *Window[float64]
	classifier Classifier
}

func NewEngine(windowSize int, thresholds Thresholds) *Engine {
	return &Engine{
		spread:     NewWindow[float64](windowSize),
		imbalance:  NewWindow[float64](windowSize),
		orderFlow:  NewWindow[float64](windowSize),
		classifier: NewClassifier(thresholds),
	}
}

// Evaluate pushes the quote's features into the windows and classifies the
// quote against the updated means, so each quote is part of its own baseline.
func (e *Engine) Evaluate(q quote.Quote) (quote.FeatureSet, quote.Verdict) {
	instant := Extract(q)
	e.spread.Push(instant.Spread)
	e.imbalance.Push(instant.Imbalance)
	e.orderFlow.Push(instant.OrderFlow)
	return instant, e.classifier.Classify(instant, e.Means())
}

// Means returns the current rolling means.
func (e *Engine) Means() quote.FeatureSet {
	return quote.FeatureSet{
		Spread:    e.spread.Mean(),
		Imbalance: e.imbalance.Mean(),
		OrderFlow: e.orderFlow.Mean(),
	}
}

// Samples reports how many quotes the windows currently hold.
func (e *Engine) Samples() int {
	return e.spread.Len()
}
