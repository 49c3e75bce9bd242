// Package stats provides the shared numeric primitives used by the
// ability, calibration, and experiment services. All functions are pure
// and treat empty input as a defined zero rather than an error.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of xs, or 0 for empty input.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0.0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Median returns the middle value of xs, or the average of the two middle
// values for even-length input. Returns 0 for empty input.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

// Variance returns the population variance of xs, or 0 for empty input.
func Variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0.0
	}

	mean := Mean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return sumSq / float64(len(xs))
}

// StdDev returns the population standard deviation of xs.
func StdDev(xs []float64) float64 {
	return math.Sqrt(Variance(xs))
}

// NormalCDF returns the cumulative distribution function of the standard
// normal distribution evaluated at z.
func NormalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

// Logistic returns the standard logistic function 1 / (1 + e^-x).
func Logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
