package retention

import (
	"errors"
	"math"
	"time"
)

// ErrNotFound is returned by stores when no review state exists for an item.
var ErrNotFound = errors.New("review state not found")

const (
	// DefaultDifficulty is the difficulty assigned to an item on its first
	// review.
	DefaultDifficulty = 5.0

	// DefaultStability is the memory stability assigned on first review.
	DefaultStability = 2.4

	difficultyMin = 1.0
	difficultyMax = 10.0

	stabilityMin = 0.8
	stabilityMax = 90.0

	// minIntervalDays keeps even a failed review from coming back in less
	// than half a day.
	minIntervalDays = 0.5
)

// State is the scheduling state of one review item. A zero State is valid
// input to Schedule and is treated as a brand-new item.
type State struct {
	ItemID       string
	Difficulty   float64
	Stability    float64
	Reps         int
	Lapses       int
	IntervalDays float64
	LastReviewAt time.Time
	NextReviewAt time.Time
	LastGrade    Grade

	// RetentionProbability is the modeled recall probability at the next
	// review, rounded to three decimals. Exposed for display only.
	RetentionProbability float64
}

// DefaultState returns the state a review item carries before its first
// review.
func DefaultState(itemID string) State {
	return State{
		ItemID:     itemID,
		Difficulty: DefaultDifficulty,
		Stability:  DefaultStability,
	}
}

// difficultyDelta is the per-grade additive difficulty adjustment.
func difficultyDelta(grade Grade) float64 {
	switch grade {
	case Easy:
		return -0.4
	case Good:
		return -0.2
	case Hard:
		return 0.2
	default:
		return 0.5
	}
}

// stabilityFactor is the per-grade multiplicative stability adjustment.
func stabilityFactor(grade Grade) float64 {
	switch grade {
	case Easy:
		return 1.5
	case Good:
		return 1.2
	case Hard:
		return 0.85
	default:
		return 0.6
	}
}

// intervalScale converts updated stability into the next interval.
func intervalScale(grade Grade) float64 {
	switch grade {
	case Easy:
		return 2.5
	case Good:
		return 1.6
	case Hard:
		return 0.9
	default:
		return 0.5
	}
}

// fallbackIntervalDays is the fixed schedule used when the grade is out of
// range or the prior state is malformed. A bad record must never break the
// review flow.
func fallbackIntervalDays(grade Grade) float64 {
	switch grade {
	case Easy:
		return 7.0
	case Good:
		return 3.0
	case Hard:
		return 1.0
	default:
		return 0.1
	}
}

// Schedule produces the next review state for the given grade. A zero or
// partially-filled prior state is normalized to the documented defaults.
// An out-of-range grade, or a prior state malformed beyond repair
// (non-finite numbers), falls back to a fixed schedule keyed only by the
// grade.
func Schedule(grade Grade, prior State, now time.Time) State {
	if !grade.IsValid() || malformed(prior) {
		return fallbackSchedule(grade, prior.ItemID, now)
	}

	difficulty := prior.Difficulty
	if difficulty == 0 {
		difficulty = DefaultDifficulty
	}
	stability := prior.Stability
	if stability == 0 {
		stability = DefaultStability
	}

	newDifficulty := clamp(difficulty+difficultyDelta(grade), difficultyMin, difficultyMax)
	newStability := clamp(stability*stabilityFactor(grade), stabilityMin, stabilityMax)
	intervalDays := math.Max(newStability*intervalScale(grade), minIntervalDays)

	lapses := prior.Lapses
	if grade.Lapsed() {
		lapses++
	}

	retention := math.Exp(-intervalDays / newStability)

	return State{
		ItemID:               prior.ItemID,
		Difficulty:           newDifficulty,
		Stability:            newStability,
		Reps:                 prior.Reps + 1,
		Lapses:               lapses,
		IntervalDays:         intervalDays,
		LastReviewAt:         now,
		NextReviewAt:         now.Add(days(intervalDays)),
		LastGrade:            grade,
		RetentionProbability: round3(retention),
	}
}

// fallbackSchedule ignores the prior numeric state entirely.
func fallbackSchedule(grade Grade, itemID string, now time.Time) State {
	intervalDays := fallbackIntervalDays(grade)
	fresh := DefaultState(itemID)
	fresh.Reps = 1
	if grade.Lapsed() {
		fresh.Lapses = 1
	}
	fresh.IntervalDays = intervalDays
	fresh.LastReviewAt = now
	fresh.NextReviewAt = now.Add(days(intervalDays))
	fresh.LastGrade = grade
	fresh.RetentionProbability = round3(math.Exp(-intervalDays / fresh.Stability))
	return fresh
}

// malformed reports whether the prior state carries values the update
// formulas cannot work with.
func malformed(s State) bool {
	return math.IsNaN(s.Difficulty) || math.IsInf(s.Difficulty, 0) ||
		math.IsNaN(s.Stability) || math.IsInf(s.Stability, 0) ||
		s.Difficulty < 0 || s.Stability < 0 ||
		s.Reps < 0 || s.Lapses < 0
}

func days(d float64) time.Duration {
	return time.Duration(d * 24 * float64(time.Hour))
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
