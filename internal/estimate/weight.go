package estimate

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ConfidenceWeight returns the inverse population standard deviation of
// samples. Stable, low-noise windows get high weights.
//
// A flat or empty window has zero deviation; its weight is maxWeight, the
// same bound used when clipping weights for fusion, rather than +Inf. A window
// containing NaN has weight 0.
//
// The deviation is computed in float64 by gonum/stat and only the result is
// narrowed to float32, so it can differ in the last bits from a float32
// accumulation.
func ConfidenceWeight(samples []float32, maxWeight float32) float32 {
	if len(samples) == 0 {
		return maxWeight
	}
	x := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = float64(s)
	}
	_, std := stat.PopMeanStdDev(x, nil)

	switch {
	case math.IsNaN(std):
		return 0
	case std == 0:
		return maxWeight
	}
	w := 1 / std
	if w > math.MaxFloat32 {
		return maxWeight
	}
	return float32(w)
}

// clip bounds w to [0, limit].
func clip(w, limit float32) float32 {
	if w < 0 || w != w {
		return 0
	}
	if w > limit {
		return limit
	}
	return w
}

// WeightedMean fuses raw estimates as Σ bpm·clip(w) / Σ clip(w). ok is false
// when there are no estimates or every clipped weight is zero.
func WeightedMean(estimates []RawEstimate, maxWeight float32) (float32, bool) {
	var num, den float64
	for _, e := range estimates {
		w := float64(clip(e.Weight, maxWeight))
		num += float64(e.BPM) * w
		den += w
	}
	if den == 0 {
		return 0, false
	}
	return float32(num / den), true
}
