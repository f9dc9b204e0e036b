// Package stats provides the statistical primitives the demand pipeline is
// built on. Percentiles use linear interpolation between closest ranks,
// matching the behavior the cleaning thresholds were tuned against.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Sum returns the sum of values.
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// StdDev returns the sample standard deviation (n-1 denominator).
// It returns NaN when fewer than two values are given, so callers can
// distinguish "undefined" from a genuinely zero spread.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	mean := Mean(values)
	ss := 0.0
	for _, v := range values {
		diff := v - mean
		ss += diff * diff
	}
	return math.Sqrt(ss / float64(n-1))
}

// Percentile computes the p-th percentile (0..100) of values using linear
// interpolation between closest ranks. Returns 0 for an empty slice.
// The input is not modified.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Positive filters values, keeping only entries strictly greater than zero.
func Positive(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// Tail returns the last n values (all of them when len < n).
func Tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
