package decay

import (
	"math"
	"time"
)

const (
	// MuscleMemoryFloor is the minimum a decayed score can reach once a
	// skill has ever been practiced. Direct failure penalties can go
	// lower; decay alone cannot.
	MuscleMemoryFloor = 40.0

	// DefaultStability substitutes when a record carries no stability.
	DefaultStability = 7.0

	// interferenceRatePerChapter is the penalty for each chapter completed
	// past the protected window.
	interferenceRatePerChapter = 0.02

	// protectedChapters is the number of recently completed chapters that
	// carry no interference penalty.
	protectedChapters = 2

	// maxInterferenceChapters caps the penalty at 40% total.
	maxInterferenceChapters = 20

	// justMasteredWindow suppresses decay right after practice.
	justMasteredWindow = time.Hour

	// BreachHorizonDays bounds the threshold-breach simulation.
	BreachHorizonDays = 30

	// daysPerChapter is the assumed external progress rate used only for
	// projections.
	daysPerChapter = 3.0
)

// Memory is the snapshot of one practiced skill the engine decays. Score
// is the proficiency at the last mastery event, not a decayed value. A
// zero LastUsedAt means the skill was never practiced.
type Memory struct {
	Score                float64
	Stability            float64
	LastUsedAt           time.Time
	ChaptersSinceMastery int
}

func (m Memory) stability() float64 {
	if m.Stability <= 0 {
		return DefaultStability
	}
	return m.Stability
}

func (m Memory) daysSinceLastUse(now time.Time) float64 {
	if m.LastUsedAt.IsZero() {
		return 0
	}
	d := now.Sub(m.LastUsedAt).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// justMastered reports whether the skill was practiced within the last
// hour, in which case no decay applies yet.
func (m Memory) justMastered(now time.Time) bool {
	if m.LastUsedAt.IsZero() {
		return false
	}
	return now.Sub(m.LastUsedAt) < justMasteredWindow
}

// Retention returns the time-decay factor e^(-days/stability). Returns 1
// for a never-used skill.
func Retention(m Memory, now time.Time) float64 {
	if m.LastUsedAt.IsZero() {
		return 1.0
	}
	days := m.daysSinceLastUse(now)
	if days <= 0 {
		return 1.0
	}
	return math.Exp(-days / m.stability())
}

// InterferenceFactor returns the multiplicative penalty from chapters
// completed since mastery. The first protected chapters are free; beyond
// them the penalty accrues per chapter up to a cap.
func InterferenceFactor(chaptersSince int) float64 {
	if chaptersSince <= protectedChapters {
		return 1.0
	}

	effective := chaptersSince - protectedChapters
	if effective > maxInterferenceChapters {
		effective = maxInterferenceChapters
	}
	return 1.0 - float64(effective)*interferenceRatePerChapter
}

// CurrentScore returns the decayed score: base * retention * interference,
// floored at the muscle-memory floor. A skill never practiced, or practiced
// within the last hour, keeps its base score untouched.
func CurrentScore(m Memory, now time.Time) float64 {
	if m.LastUsedAt.IsZero() || m.justMastered(now) {
		return m.Score
	}

	combined := m.Score * Retention(m, now) * InterferenceFactor(m.ChaptersSinceMastery)
	return math.Max(combined, MuscleMemoryFloor)
}

// futureScore simulates the decayed score daysAhead days from now with
// chaptersAhead additional chapters completed.
func futureScore(m Memory, now time.Time, daysAhead int, chaptersAhead int) float64 {
	totalDays := m.daysSinceLastUse(now) + float64(daysAhead)
	retention := math.Exp(-totalDays / m.stability())

	interference := InterferenceFactor(m.ChaptersSinceMastery + chaptersAhead)

	return math.Max(m.Score*retention*interference, MuscleMemoryFloor)
}

// PredictThresholdBreach simulates day by day up to the horizon and
// returns the first day the projected score drops below the threshold.
// Returns (0, true) when the current score is already below, and
// (0, false) when no breach occurs within the horizon. Chapters accrue at
// the assumed one-per-three-days external rate.
func PredictThresholdBreach(m Memory, threshold float64, now time.Time) (int, bool) {
	if CurrentScore(m, now) < threshold {
		return 0, true
	}

	for day := 1; day <= BreachHorizonDays; day++ {
		chaptersAhead := int(math.Floor(float64(day) / daysPerChapter))
		if futureScore(m, now, day, chaptersAhead) < threshold {
			return day, true
		}
	}
	return 0, false
}

// ProjectionPoint is one day in a decay projection.
type ProjectionPoint struct {
	Day          int
	Chapters     int
	Score        float64
	Retention    float64
	Interference float64
	Risk         Risk
}

// Projection produces one point per day from today through daysAhead,
// assuming chapters accrue at the fixed external rate. Score, retention,
// and interference are rounded to one decimal for display.
func Projection(m Memory, daysAhead int, now time.Time) []ProjectionPoint {
	points := make([]ProjectionPoint, 0, daysAhead+1)

	for day := 0; day <= daysAhead; day++ {
		chaptersAhead := int(math.Floor(float64(day) / daysPerChapter))
		score := futureScore(m, now, day, chaptersAhead)

		totalDays := m.daysSinceLastUse(now) + float64(day)
		retention := math.Exp(-totalDays / m.stability())

		points = append(points, ProjectionPoint{
			Day:          day,
			Chapters:     m.ChaptersSinceMastery + chaptersAhead,
			Score:        round1(score),
			Retention:    round1(retention * 100),
			Interference: round1(InterferenceFactor(m.ChaptersSinceMastery+chaptersAhead) * 100),
			Risk:         RiskFor(score),
		})
	}
	return points
}

// ReviewSuggestion is the recommended review timing for a skill.
type ReviewSuggestion struct {
	Urgency string
	Days    int
	Reason  string
}

// SuggestReviewTiming maps the current risk band to a review-day
// recommendation. Watch and safe bands pull the date forward when a
// threshold breach is predicted inside the horizon.
func SuggestReviewTiming(m Memory, now time.Time) ReviewSuggestion {
	score := CurrentScore(m, now)

	switch RiskFor(score) {
	case RiskCritical:
		return ReviewSuggestion{
			Urgency: "immediate",
			Days:    0,
			Reason:  "Score below 60% - immediate review required",
		}
	case RiskAtRisk:
		return ReviewSuggestion{
			Urgency: "high",
			Days:    1,
			Reason:  "Score below 70% - review within 24 hours",
		}
	case RiskWatch:
		days := 3
		if breach, ok := PredictThresholdBreach(m, watchThreshold, now); ok && breach/2 < days {
			days = breach / 2
		}
		return ReviewSuggestion{
			Urgency: "medium",
			Days:    days,
			Reason:  "Preventive review recommended",
		}
	default:
		days := 7
		if breach, ok := PredictThresholdBreach(m, 80.0, now); ok {
			if scaled := int(math.Round(float64(breach) * 0.7)); scaled < days {
				days = scaled
			}
		}
		return ReviewSuggestion{
			Urgency: "low",
			Days:    days,
			Reason:  "Maintenance review",
		}
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
