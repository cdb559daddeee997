package signal

import (
	"math/rand"
	"testing"

	"quotesignal/internal/domain/entity/quote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	q := quote.Quote{BidPrice: 100, AskPrice: 100.5, BidSize: 500, AskSize: 300, TotBuyQty: 900, TotSellQty: 1000}

	first := Extract(q)
	assert.InDelta(t, 0.5, first.Spread, 1e-9)
	assert.Equal(t, 200.0, first.Imbalance)
	assert.Equal(t, -100.0, first.OrderFlow)
	assert.Equal(t, first, Extract(q))
}

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	tests := []struct {
		name    string
		instant quote.FeatureSet
		means   quote.FeatureSet
		want    quote.Verdict
	}{
		{
			name:    "bullish breakout",
			instant: quote.FeatureSet{Spread: 2, Imbalance: 400},
			means:   quote.FeatureSet{Spread: 1, Imbalance: 100},
			want:    quote.BullishVerdict,
		},
		{
			name:    "bearish breakdown",
			instant: quote.FeatureSet{Spread: 0.4, Imbalance: 40},
			means:   quote.FeatureSet{Spread: 1, Imbalance: 100},
			want:    quote.BearishVerdict,
		},
		{
			name:    "only spread breaks out",
			instant: quote.FeatureSet{Spread: 2, Imbalance: 100},
			means:   quote.FeatureSet{Spread: 1, Imbalance: 100},
			want:    quote.NeutralVerdict,
		},
		{
			name:    "only imbalance breaks down",
			instant: quote.FeatureSet{Spread: 1, Imbalance: 10},
			means:   quote.FeatureSet{Spread: 1, Imbalance: 100},
			want:    quote.NeutralVerdict,
		},
		{
			name:    "exactly at bullish threshold",
			instant: quote.FeatureSet{Spread: 1.5, Imbalance: 150},
			means:   quote.FeatureSet{Spread: 1, Imbalance: 100},
			want:    quote.NeutralVerdict,
		},
		{
			name:    "both conditions hold with negative means, bullish wins",
			instant: quote.FeatureSet{Spread: -0.8, Imbalance: -0.8},
			means:   quote.FeatureSet{Spread: -1, Imbalance: -1},
			want:    quote.BullishVerdict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.instant, tt.means))
		})
	}
}

func TestClassifyIgnoresOrderFlow(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	instant := quote.FeatureSet{Spread: 2, Imbalance: 400}
	means := quote.FeatureSet{Spread: 1, Imbalance: 100}

	base := c.Classify(instant, means)
	instant.OrderFlow = -1e9
	means.OrderFlow = 1e9
	assert.Equal(t, base, c.Classify(instant, means))
}

func TestClassifyIsTotal(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	rnd := rand.New(rand.NewSource(7))
	valid := map[quote.Verdict]bool{
		quote.BullishVerdict: true,
		quote.BearishVerdict: true,
		quote.NeutralVerdict: true,
	}

	for i := 0; i < 10000; i++ {
		instant := quote.FeatureSet{Spread: rnd.Float64()*4 - 2, Imbalance: rnd.Float64()*800 - 400}
		means := quote.FeatureSet{Spread: rnd.Float64()*4 - 2, Imbalance: rnd.Float64()*800 - 400}
		got := c.Classify(instant, means)
		require.True(t, valid[got], "unexpected verdict %+v", got)
		assert.Equal(t, got, c.Classify(instant, means))
	}
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{Bullish: 0.5, Bearish: 0.5}.Validate())
	assert.Error(t, Thresholds{Bullish: 1.5, Bearish: -0.1}.Validate())
}
