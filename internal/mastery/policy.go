package mastery

import (
	"math"
	"time"
)

const (
	// MaxScore is the ceiling for proficiency.
	MaxScore = 100.0

	// FailureFloor is the lowest a direct penalty can push a score. It sits
	// well below the decay floor: repeated failure is stronger evidence than
	// mere disuse.
	FailureFloor = 5.0

	// StabilityCap bounds stability growth at 120 days.
	StabilityCap = 120.0

	// MinStability keeps failed items on a short leash.
	MinStability = 0.5

	// fastAttemptSeconds is the cutoff for the quick-recall ease bonus.
	fastAttemptSeconds = 10.0
)

// AttemptContext carries the grading context of a single attempt. A zero
// TimeTakenSeconds means the duration was not measured; a zero Difficulty is
// treated as mid-scale.
type AttemptContext struct {
	AttemptNumber        int
	SawAnswer            bool
	HintsUsed            int
	TimeTakenSeconds     float64
	PreviousFailures     int
	ConsecutiveSuccesses int
	Difficulty           float64
}

// Policy converts graded attempts into score and stability updates.
type Policy struct{}

// OnSuccess applies the success decision table. Rules are checked in priority
// order and the first match wins: a first-try success jumps straight to full
// mastery no matter what else the context says.
func (Policy) OnSuccess(rec Record, ctx AttemptContext, now time.Time) Record {
	boost := successBoost(rec.Score, ctx)

	rec.Score = math.Min(rec.Score+boost, MaxScore)
	rec.ConsecutiveSuccesses++
	rec.ConsecutiveFailures = 0
	rec.TotalAttempts++
	rec.SuccessfulAttempts++
	rec.Stability = math.Min(rec.Stability*easeFactor(ctx), StabilityCap)
	rec.LastUsedAt = now
	rec.UpdatedAt = now
	return rec
}

// OnFailure shrinks the score by a fraction that escalates with the failure
// streak and halves stability.
func (Policy) OnFailure(rec Record, ctx AttemptContext, now time.Time) Record {
	rec.ConsecutiveFailures++
	rec.ConsecutiveSuccesses = 0
	rec.TotalAttempts++

	penalty := failurePenalty(rec.ConsecutiveFailures)
	rec.Score = math.Max(rec.Score*(1-penalty), FailureFloor)
	rec.Stability = math.Max(rec.Stability*0.5, MinStability)
	rec.LastUsedAt = now
	rec.UpdatedAt = now
	return rec
}

func successBoost(score float64, ctx AttemptContext) float64 {
	switch {
	case ctx.AttemptNumber == 1:
		return MaxScore - score
	case ctx.SawAnswer:
		return cappedBoost(15, 40, score)
	case ctx.PreviousFailures >= 3:
		return cappedBoost(20, 50, score)
	case ctx.PreviousFailures == 2:
		return cappedBoost(30, 65, score)
	case ctx.PreviousFailures == 1:
		return cappedBoost(40, 75, score)
	case ctx.ConsecutiveSuccesses >= 3:
		return MaxScore - score
	case ctx.ConsecutiveSuccesses == 2:
		return cappedBoost(35, 90, score)
	default:
		return cappedBoost(50, 80, score)
	}
}

// cappedBoost lifts the score toward a target, at most limit points at a time.
func cappedBoost(limit, target, score float64) float64 {
	return math.Min(limit, math.Max(0, target-score))
}

func failurePenalty(consecutiveFailures int) float64 {
	switch consecutiveFailures {
	case 1:
		return 0.10
	case 2:
		return 0.20
	case 3:
		return 0.35
	default:
		return 0.50
	}
}

// easeFactor keys the stability multiplier off the item's difficulty tier,
// with a bonus for clean fast first tries and a markdown for answers the
// learner had already seen.
func easeFactor(ctx AttemptContext) float64 {
	difficulty := ctx.Difficulty
	if difficulty <= 0 {
		difficulty = 5.0
	}

	var base float64
	switch {
	case difficulty <= 3:
		base = 2.5
	case difficulty <= 6:
		base = 2.0
	default:
		base = 1.6
	}

	switch {
	case ctx.SawAnswer:
		return base * 0.8
	case ctx.AttemptNumber == 1 && ctx.HintsUsed == 0 &&
		ctx.TimeTakenSeconds > 0 && ctx.TimeTakenSeconds <= fastAttemptSeconds:
		return base * 1.2
	default:
		return base
	}
}
