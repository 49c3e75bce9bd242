// Package experiment compares metric samples between variants of an
// experiment using Welch's t-test.
package experiment

import (
	"math"

	"github.com/felixgeelhaar/mnemo/internal/stats"
)

const (
	// MinSampleSize is the per-variant count below which no test is run.
	MinSampleSize = 30

	// SignificanceLevel is the two-tailed alpha.
	SignificanceLevel = 0.05
)

// Summary describes one variant's samples for one metric.
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
}

// Summarize reduces raw samples to the summary the significance test needs.
func Summarize(samples []float64) Summary {
	return Summary{
		Count:  len(samples),
		Mean:   stats.Mean(samples),
		Median: stats.Median(samples),
		StdDev: stats.StdDev(samples),
	}
}

// Result is the outcome of a two-variant comparison. Computed is false when
// either variant is under-sampled or the pooled standard error is zero; the
// remaining fields are meaningless in that case.
type Result struct {
	PValue      float64
	Significant bool
	EffectSize  float64
	Computed    bool
}

// Significance runs Welch's t-test over two variant summaries. Both variants
// need at least MinSampleSize observations.
func Significance(a, b Summary) Result {
	if a.Count < MinSampleSize || b.Count < MinSampleSize {
		return Result{}
	}

	se := math.Sqrt(a.StdDev*a.StdDev/float64(a.Count) + b.StdDev*b.StdDev/float64(b.Count))
	if se == 0 {
		return Result{}
	}

	effect := math.Abs(a.Mean - b.Mean)
	t := effect / se
	p := 2 * (1 - stats.NormalCDF(t))

	return Result{
		PValue:      p,
		Significant: p < SignificanceLevel,
		EffectSize:  effect,
		Computed:    true,
	}
}
