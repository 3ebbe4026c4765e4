package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextScore(t *testing.T) {
	tests := []struct {
		name  string
		old   float64
		shift float64
		want  float64
	}{
		{"positive shift", 0.5, 3, 0.7},
		{"saturates high", 0.9, 5, 1.0},
		{"saturates low", -0.9, -5, -1.0},
		{"decay only", -0.4, 0, -0.32},
		{"from neutral", 0, -2, -0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextScore(tt.old, tt.shift, DefaultMemoryDecay, DefaultImpactScale)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNextScore_DecayMovesTowardZero(t *testing.T) {
	for _, old := range []float64{-1, -0.4, 0.01, 0.6, 1} {
		got := NextScore(old, 0, DefaultMemoryDecay, DefaultImpactScale)
		assert.Less(t, abs(got), abs(old), "old=%v", old)
		assert.Equal(t, old > 0, got > 0, "sign preserved for old=%v", old)
	}
}

func TestNextScore_StaysBounded(t *testing.T) {
	score := 0.0
	for i := 0; i < 50; i++ {
		score = NextScore(score, 5, DefaultMemoryDecay, DefaultImpactScale)
		assert.LessOrEqual(t, score, MaxScore)
	}
	for i := 0; i < 50; i++ {
		score = NextScore(score, -5, DefaultMemoryDecay, DefaultImpactScale)
		assert.GreaterOrEqual(t, score, MinScore)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.7, Round2(0.7000000000000001))
	assert.Equal(t, -0.32, Round2(-0.32000000000000006))
	assert.Equal(t, 0.13, Round2(0.126))
	assert.Equal(t, -0.13, Round2(-0.126))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
