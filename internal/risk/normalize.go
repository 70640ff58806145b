// Package risk implements batch normalization and the two weighted flood-risk
// scores: per-event and per-region. The two formulas are deliberately distinct
// and must not be unified; see the weight constants in event.go and region.go.
package risk

import "math"

// minMaxEpsilon is the degenerate-range guard: a series whose spread is below
// this is treated as constant and normalizes to all zeros.
const minMaxEpsilon = 1e-9

// MinMax scales a series to [0,1] using min-max normalization. NaN entries are
// ignored when computing the bounds and stay NaN in the output. A series with
// no finite entries, or with |max-min| < 1e-9, maps every finite entry to 0.0.
func MinMax(series []float64) []float64 {
	out := make([]float64, len(series))

	min, max := math.NaN(), math.NaN()
	for _, v := range series {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(min) || v < min {
			min = v
		}
		if math.IsNaN(max) || v > max {
			max = v
		}
	}

	if math.IsNaN(min) || math.IsNaN(max) || math.Abs(max-min) < minMaxEpsilon {
		for i, v := range series {
			if math.IsNaN(v) {
				out[i] = math.NaN()
			} else {
				out[i] = 0.0
			}
		}
		return out
	}

	rng := max - min
	for i, v := range series {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (v - min) / rng
	}
	return out
}

// clip01 clamps v to the [0,1] interval.
func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// nanMean returns the mean of the finite entries, or NaN if there are none.
func nanMean(series []float64) float64 {
	var sum float64
	var n int
	for _, v := range series {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
