package ability

import "math"

// Scaled-score conversion. Abilities on the logit scale map linearly onto
// the 130-170 reporting scale used by the assessment surface. The practical
// ability range for reporting is [-2.5, 2.5]; values outside are clamped
// before conversion.
const (
	ScaleMinScore = 130
	ScaleMaxScore = 170

	scaleThetaMin = -2.5
	scaleThetaMax = 2.5
)

// ScaledScore converts an ability estimate to a scaled score in [130, 170].
func ScaledScore(theta float64) int {
	clamped := math.Min(math.Max(theta, scaleThetaMin), scaleThetaMax)

	normalized := (clamped - scaleThetaMin) / (scaleThetaMax - scaleThetaMin)
	score := ScaleMinScore + normalized*(ScaleMaxScore-ScaleMinScore)

	return int(math.Round(score))
}

// AbilityFromScaled converts a scaled score back to an ability estimate,
// rounded to two decimals.
func AbilityFromScaled(score int) float64 {
	clamped := score
	if clamped < ScaleMinScore {
		clamped = ScaleMinScore
	}
	if clamped > ScaleMaxScore {
		clamped = ScaleMaxScore
	}

	normalized := float64(clamped-ScaleMinScore) / float64(ScaleMaxScore-ScaleMinScore)
	theta := scaleThetaMin + normalized*(scaleThetaMax-scaleThetaMin)

	return math.Round(theta*100) / 100
}

// WeightedTheta pairs a sub-dimension ability with its contribution weight
// to a composite score.
type WeightedTheta struct {
	Dimension string
	Theta     float64
	Weight    float64
}

// DefaultCompositeWeights is the standard three-way split used when a
// composite covers a primary, secondary, and supporting dimension.
var DefaultCompositeWeights = []float64{0.5, 0.3, 0.2}

// CompositeTheta returns the weight-averaged ability across sub-dimensions.
// Returns 0 when parts is empty or all weights are zero.
func CompositeTheta(parts []WeightedTheta) float64 {
	var weightedSum, totalWeight float64
	for _, p := range parts {
		weightedSum += p.Theta * p.Weight
		totalWeight += p.Weight
	}
	if totalWeight == 0 {
		return 0.0
	}
	return weightedSum / totalWeight
}

// CompositeScore converts the weighted sub-dimension abilities to a single
// scaled score.
func CompositeScore(parts []WeightedTheta) int {
	return ScaledScore(CompositeTheta(parts))
}
