package signal

import "math"

// Normalize rescales values into [0,1]. A constant channel yields all zeros
// instead of NaN. Non-finite inputs are ignored for min/max and map to 0.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	lo, hi, ok := MinMax(values)
	if !ok || hi == lo {
		return out
	}
	span := hi - lo
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = (v - lo) / span
	}
	return out
}

// MinMax returns the finite extremes of values; ok is false if none are finite.
func MinMax(values []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// Mean of the finite values, 0 if there are none.
func Mean(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
