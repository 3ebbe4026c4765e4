package agent

import "math"

// Defaults for the score update.
const (
	DefaultMemoryDecay = 0.8
	DefaultImpactScale = 10.0

	MinScore = -1.0
	MaxScore = 1.0
)

// NextScore folds a raw sentiment shift into the previous score:
// clamp(old*decay + shift/scale, -1, 1).
func NextScore(old, shift, decay, scale float64) float64 {
	return Clamp(old*decay + shift/scale)
}

// Clamp saturates v to [MinScore, MaxScore].
func Clamp(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
