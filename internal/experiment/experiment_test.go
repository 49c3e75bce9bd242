package experiment

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	samples := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	s := Summarize(samples)

	if s.Count != 8 {
		t.Errorf("Count = %d, want 8", s.Count)
	}
	if s.Mean != 5 {
		t.Errorf("Mean = %f, want 5", s.Mean)
	}
	if s.Median != 4.5 {
		t.Errorf("Median = %f, want 4.5", s.Median)
	}
	if s.StdDev != 2 {
		t.Errorf("StdDev = %f, want 2", s.StdDev)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Count != 0 || s.Mean != 0 || s.Median != 0 || s.StdDev != 0 {
		t.Errorf("Summarize(nil) = %+v, want zeros", s)
	}
}

func TestSignificance_UnderSampled(t *testing.T) {
	small := Summary{Count: 20, Mean: 10, StdDev: 2}
	large := Summary{Count: 100, Mean: 12, StdDev: 2}

	if r := Significance(small, large); r.Computed {
		t.Error("Computed = true with n=20, want false")
	}
	if r := Significance(large, small); r.Computed {
		t.Error("Computed = true with n=20 second variant, want false")
	}
}

func TestSignificance_ZeroVariance(t *testing.T) {
	a := Summary{Count: 50, Mean: 10, StdDev: 0}
	b := Summary{Count: 50, Mean: 10, StdDev: 0}

	if r := Significance(a, b); r.Computed {
		t.Error("Computed = true with zero pooled error, want false")
	}
}

func TestSignificance_ClearDifference(t *testing.T) {
	a := Summary{Count: 100, Mean: 72, StdDev: 8}
	b := Summary{Count: 100, Mean: 78, StdDev: 8}

	r := Significance(a, b)
	if !r.Computed {
		t.Fatal("Computed = false, want true")
	}
	if !r.Significant {
		t.Errorf("Significant = false at p=%f, want true", r.PValue)
	}
	if r.EffectSize != 6 {
		t.Errorf("EffectSize = %f, want 6", r.EffectSize)
	}

	// t = 6 / sqrt(64/100 + 64/100) ≈ 5.30, p well under alpha.
	if r.PValue >= 0.001 {
		t.Errorf("PValue = %f, want < 0.001", r.PValue)
	}
}

func TestSignificance_NoDifference(t *testing.T) {
	a := Summary{Count: 100, Mean: 72, StdDev: 8}
	b := Summary{Count: 100, Mean: 72.5, StdDev: 8}

	r := Significance(a, b)
	if !r.Computed {
		t.Fatal("Computed = false, want true")
	}
	if r.Significant {
		t.Errorf("Significant = true at p=%f, want false", r.PValue)
	}

	// t ≈ 0.44, p ≈ 0.66.
	if math.Abs(r.PValue-0.66) > 0.02 {
		t.Errorf("PValue = %f, want ≈0.66", r.PValue)
	}
}

func TestSignificance_Symmetric(t *testing.T) {
	a := Summary{Count: 60, Mean: 50, StdDev: 10}
	b := Summary{Count: 80, Mean: 55, StdDev: 12}

	ab := Significance(a, b)
	ba := Significance(b, a)
	if ab != ba {
		t.Errorf("Significance not symmetric: %+v vs %+v", ab, ba)
	}
}
