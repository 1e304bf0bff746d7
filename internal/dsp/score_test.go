package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClarityScore(t *testing.T) {
	cfg := DefaultScoring()
	tests := []struct {
		jitter  float64
		shimmer float64
		want    int
	}{
		{0, 0, 100},
		{0.8, 1.2, 65},
		{1, 2, 51},
		{2, 5, 0},
		{0, 10, 50},
		{math.NaN(), 0, 100},
		{math.Inf(1), 0, 50},
		{-1, -1, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClarityScore(tt.jitter, tt.shimmer, cfg), "jitter=%v shimmer=%v", tt.jitter, tt.shimmer)
	}
}

func TestClarityScoreMonotonic(t *testing.T) {
	cfg := DefaultScoring()
	for _, fixed := range []float64{0, 0.5, 1.5, 3, 8} {
		prevJ, prevS := 101, 101
		for v := 0.0; v <= 6; v += 0.05 {
			j := ClarityScore(v, fixed, cfg)
			s := ClarityScore(fixed, v, cfg)
			assert.LessOrEqual(t, j, prevJ)
			assert.LessOrEqual(t, s, prevS)
			assert.GreaterOrEqual(t, j, 0)
			assert.LessOrEqual(t, j, 100)
			prevJ, prevS = j, s
		}
	}
}
