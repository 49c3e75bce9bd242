// Package calibration recalibrates item parameters under the two-parameter
// logistic response model from windows of past graded responses. It runs as
// a periodic batch job; the online ability estimator picks up refreshed
// parameters on its next read.
package calibration

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mnemo/internal/stats"
)

// ErrItemNotFound is returned by stores when an item does not exist.
var ErrItemNotFound = errors.New("item not found")

const (
	// MinResponses is the qualifying-response threshold below which an
	// item is skipped rather than calibrated.
	MinResponses = 30

	// MaxWindow caps how many recent responses feed one calibration.
	MaxWindow = 200

	// refineIterations is the fixed number of gradient steps. There is no
	// convergence check; the pass count keeps calibration deterministic.
	refineIterations = 5

	// refineRate is the gradient ascent step size.
	refineRate = 0.01

	difficultyMin = -3.0
	difficultyMax = 3.0

	discriminationMin = 0.1
	discriminationMax = 3.0

	guessingMax = 0.5
)

// Parameters holds the calibrated 2PL parameters for one item.
type Parameters struct {
	ItemID         string
	Difficulty     float64 // b: ability level at which P(correct) = 0.5
	Discrimination float64 // a: slope separating low from high ability
	Guessing       float64 // c: floor probability for multiple-choice items
	CalibratedAt   time.Time
}

// DefaultParameters returns the authoring-time parameters an item carries
// before enough responses accumulate for its first calibration.
func DefaultParameters(itemID string) Parameters {
	return Parameters{
		ItemID:         itemID,
		Difficulty:     0.0,
		Discrimination: 1.0,
		Guessing:       0.0,
	}
}

// Response is one graded observation of an item, with the responder's
// ability estimate at response time. Produced by the grading path; this
// package only reads them.
type Response struct {
	ItemID    string
	LearnerID uuid.UUID
	Ability   float64
	Correct   bool
	At        time.Time
}

// Item describes the item under calibration. OptionCount matters only for
// multiple-choice items, where it bounds the guessing parameter.
type Item struct {
	ID          string
	MCQ         bool
	OptionCount int
}

// Probability returns the 2PL probability of a correct response for a
// learner at the given ability.
func Probability(theta, difficulty, discrimination float64) float64 {
	return stats.Logistic(discrimination * (theta - difficulty))
}

// Calibrate estimates fresh 2PL parameters from a response window. The
// caller is responsible for the MinResponses gate; Calibrate itself always
// produces a result.
func Calibrate(item Item, responses []Response, now time.Time) Parameters {
	abilities := make([]float64, len(responses))
	var correctAbilities, incorrectAbilities []float64
	for i, r := range responses {
		abilities[i] = r.Ability
		if r.Correct {
			correctAbilities = append(correctAbilities, r.Ability)
		} else {
			incorrectAbilities = append(incorrectAbilities, r.Ability)
		}
	}

	difficulty := initialDifficulty(correctAbilities, incorrectAbilities)
	discrimination := initialDiscrimination(abilities, correctAbilities, incorrectAbilities)

	for i := 0; i < refineIterations; i++ {
		difficulty, discrimination = refine(responses, difficulty, discrimination)
	}

	return Parameters{
		ItemID:         item.ID,
		Difficulty:     clamp(difficulty, difficultyMin, difficultyMax),
		Discrimination: clamp(discrimination, discriminationMin, discriminationMax),
		Guessing:       estimateGuessing(item, responses),
		CalibratedAt:   now,
	}
}

// initialDifficulty places the difficulty between the median abilities of
// the correct and incorrect groups. If either group is empty the split
// carries no signal and the estimate defaults to neutral.
func initialDifficulty(correctAbilities, incorrectAbilities []float64) float64 {
	if len(correctAbilities) == 0 || len(incorrectAbilities) == 0 {
		return 0.0
	}
	return (stats.Median(correctAbilities) + stats.Median(incorrectAbilities)) / 2.0
}

// initialDiscrimination is inversely related to the spread of the response
// abilities: more overlap between groups means less separating power.
func initialDiscrimination(abilities, correctAbilities, incorrectAbilities []float64) float64 {
	if len(correctAbilities) == 0 || len(incorrectAbilities) == 0 {
		return 1.0
	}
	discrimination := 2.0 / (1.0 + stats.Variance(abilities))
	return clamp(discrimination, discriminationMin, discriminationMax)
}

// refine performs one gradient ascent step on the 2PL log-likelihood.
func refine(responses []Response, difficulty, discrimination float64) (float64, float64) {
	var gradDifficulty, gradDiscrimination float64

	for _, r := range responses {
		p := Probability(r.Ability, difficulty, discrimination)

		outcome := 0.0
		if r.Correct {
			outcome = 1.0
		}
		err := outcome - p

		gradDifficulty += err * discrimination * p * (1 - p)
		gradDiscrimination += err * (r.Ability - difficulty) * p * (1 - p)
	}

	return difficulty + refineRate*gradDifficulty,
		discrimination + refineRate*gradDiscrimination
}

// estimateGuessing bounds the guessing parameter for multiple-choice items
// by the theoretical 1/options chance and the empirical floor of observed
// correctness. Non-MCQ items cannot be guessed and get zero.
func estimateGuessing(item Item, responses []Response) float64 {
	if !item.MCQ {
		return 0.0
	}

	options := item.OptionCount
	if options <= 0 {
		options = 4
	}

	empiricalFloor := 0.0
	if len(responses) > 0 {
		empiricalFloor = 1.0
		for _, r := range responses {
			if !r.Correct {
				empiricalFloor = 0.0
				break
			}
		}
	}

	guessing := 1.0 / float64(options)
	if empiricalFloor < guessing {
		guessing = empiricalFloor
	}
	if guessing > guessingMax {
		guessing = guessingMax
	}
	return guessing
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
