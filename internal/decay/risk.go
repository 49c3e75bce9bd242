// Package decay models forgetting of practiced skills. The current score
// combines a stability-parameterized exponential time decay with a stepped
// interference penalty from intervening learning activity, floored by
// muscle memory. All functions are pure over an explicit memory snapshot
// and a caller-supplied clock.
package decay

// Risk classifies a decayed score for dashboards and gating.
type Risk string

const (
	RiskSafe     Risk = "safe"     // score >= 90
	RiskWatch    Risk = "watch"    // 70 <= score < 90
	RiskAtRisk   Risk = "risk"     // 60 <= score < 70
	RiskCritical Risk = "critical" // score < 60
)

// Boundary-inclusive thresholds. The lower bound of each band belongs to
// that band.
const (
	safeThreshold     = 90.0
	watchThreshold    = 70.0
	criticalThreshold = 60.0
)

// RiskFor returns the risk band for a decayed score.
func RiskFor(score float64) Risk {
	switch {
	case score >= safeThreshold:
		return RiskSafe
	case score >= watchThreshold:
		return RiskWatch
	case score >= criticalThreshold:
		return RiskAtRisk
	default:
		return RiskCritical
	}
}
