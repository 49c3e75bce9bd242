// Package ability maintains per-learner latent ability estimates on the
// logit scale, one per skill dimension. Estimates move with a fixed-rate
// online update after each graded response; item parameters produced by
// the calibration service feed back in through the item difficulty input.
package ability

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mnemo/internal/stats"
)

// ErrNotFound is returned by stores when no ability record exists for a
// (learner, dimension) pair.
var ErrNotFound = errors.New("ability record not found")

const (
	// LearningRate is the fixed step size applied to the surprise term.
	LearningRate = 0.3

	// SEFloor is the minimum standard error an estimate can shrink to.
	SEFloor = 0.3

	// seStep is subtracted from the standard error on each observation.
	seStep = 0.05

	// InitialTheta is the ability estimate before any observations.
	InitialTheta = 0.0

	// InitialStandardError is the uncertainty before any observations.
	InitialStandardError = 1.5

	// NeutralDifficulty substitutes for items without calibrated parameters.
	NeutralDifficulty = 0.0
)

// Record holds the ability estimate for one (learner, dimension) pair.
// Records are created lazily on the first observation in a dimension and
// are never deleted, only superseded.
type Record struct {
	LearnerID     uuid.UUID
	Dimension     string
	Theta         float64
	StandardError float64
	Observations  int
	UpdatedAt     time.Time
}

// NewRecord creates a fresh record with neutral ability and wide uncertainty.
func NewRecord(learnerID uuid.UUID, dimension string) *Record {
	return &Record{
		LearnerID:     learnerID,
		Dimension:     dimension,
		Theta:         InitialTheta,
		StandardError: InitialStandardError,
		UpdatedAt:     time.Now(),
	}
}

// Update returns the revised ability estimate after a graded response.
// The expected probability of a correct answer is logistic(theta - b);
// the estimate moves by LearningRate times the surprise. The standard
// error shrinks monotonically and never drops below SEFloor. Theta itself
// is not clamped on this online path.
func Update(theta, se, itemDifficulty float64, correct bool) (newTheta, newSE float64) {
	expected := stats.Logistic(theta - itemDifficulty)

	outcome := 0.0
	if correct {
		outcome = 1.0
	}
	surprise := outcome - expected

	newTheta = theta + LearningRate*surprise
	newSE = math.Max(se-seStep, SEFloor)
	return newTheta, newSE
}

// Observe applies Update to the record in place and stamps it.
func (r *Record) Observe(itemDifficulty float64, correct bool, now time.Time) {
	r.Theta, r.StandardError = Update(r.Theta, r.StandardError, itemDifficulty, correct)
	r.Observations++
	r.UpdatedAt = now
}

// ExpectedAccuracy returns the modeled probability that a learner at theta
// answers an item of the given difficulty correctly.
func ExpectedAccuracy(theta, itemDifficulty float64) float64 {
	return stats.Logistic(theta - itemDifficulty)
}
