package mastery

import "time"

const (
	// GateThreshold is the decayed score required to pass a remedial gate.
	GateThreshold = 80.0

	// GateMinAttempts is the minimum practice count before a gate can pass.
	GateMinAttempts = 3
)

// GateReason explains why a command blocks progression.
type GateReason string

const (
	GateNotAttempted         GateReason = "not_attempted"
	GateLowProficiency       GateReason = "low_proficiency"
	GateInsufficientAttempts GateReason = "insufficient_attempts"
)

// GateCheck is the gate verdict for one command.
type GateCheck struct {
	Command        string
	Passed         bool
	Reason         GateReason
	CurrentScore   float64
	RequiredScore  float64
	TotalAttempts  int
	AttemptsNeeded int
}

// CheckGate evaluates one command against the gate. A nil record means the
// command was never attempted. The score is decayed as of now before
// comparison.
func CheckGate(rec *Record, command string, now time.Time) GateCheck {
	if rec == nil {
		return GateCheck{
			Command:        command,
			Reason:         GateNotAttempted,
			RequiredScore:  GateThreshold,
			AttemptsNeeded: EstimateAttemptsNeeded(0),
		}
	}

	score := rec.CurrentScore(now)
	check := GateCheck{
		Command:        command,
		CurrentScore:   score,
		RequiredScore:  GateThreshold,
		TotalAttempts:  rec.TotalAttempts,
		AttemptsNeeded: EstimateAttemptsNeeded(score),
	}

	switch {
	case rec.TotalAttempts == 0:
		check.Reason = GateNotAttempted
	case score < GateThreshold:
		check.Reason = GateLowProficiency
	case rec.TotalAttempts < GateMinAttempts:
		check.Reason = GateInsufficientAttempts
	default:
		check.Passed = true
	}
	return check
}

// EstimateAttemptsNeeded guesses how many more successful attempts a learner
// needs to clear the gate from the given score.
func EstimateAttemptsNeeded(score float64) int {
	switch {
	case score >= 90:
		return 1
	case score >= 70:
		return 2
	case score >= 50:
		return 3
	default:
		return 4
	}
}

// HintLevel is how much scaffolding a remedial drill should offer.
type HintLevel string

const (
	HintFull    HintLevel = "full"
	HintPartial HintLevel = "partial"
	HintMinimal HintLevel = "minimal"
	HintNone    HintLevel = "none"
)

// HintLevelFor maps a score to the scaffolding a drill should start with.
func HintLevelFor(score float64) HintLevel {
	switch {
	case score <= 30:
		return HintFull
	case score <= 60:
		return HintPartial
	case score <= 90:
		return HintMinimal
	default:
		return HintNone
	}
}

// ExerciseType is the drill format matched to the learner's level.
type ExerciseType string

const (
	ExerciseGuidedTutorial ExerciseType = "guided_tutorial"
	ExerciseFillInBlank    ExerciseType = "fill_in_blank"
	ExerciseMultipleChoice ExerciseType = "multiple_choice"
	ExerciseFreeForm       ExerciseType = "free_form"
)

// ExerciseTypeFor picks a drill format from attempt history and score.
func ExerciseTypeFor(totalAttempts int, score float64) ExerciseType {
	switch {
	case totalAttempts == 0:
		return ExerciseGuidedTutorial
	case score < 50:
		return ExerciseFillInBlank
	case score < 80:
		return ExerciseMultipleChoice
	default:
		return ExerciseFreeForm
	}
}
