// Package mastery maintains per-command proficiency records for a learner.
// Scores live on a 0-100 scale, rise through a priority decision table on
// success, shrink through multiplicative penalties on failure, and erode over
// time via the decay engine.
package mastery

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mnemo/internal/decay"
)

// Record is one learner's proficiency state for one canonical command.
type Record struct {
	LearnerID            uuid.UUID
	Command              string
	Score                float64
	Stability            float64
	ConsecutiveSuccesses int
	ConsecutiveFailures  int
	TotalAttempts        int
	SuccessfulAttempts   int
	LastUsedAt           time.Time
	ChaptersSinceMastery int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewRecord returns the state for a command's first practice attempt.
func NewRecord(learnerID uuid.UUID, command string, now time.Time) Record {
	return Record{
		LearnerID: learnerID,
		Command:   command,
		Score:     0,
		Stability: decay.DefaultStability,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Memory converts the record into the decay engine's snapshot form.
func (r Record) Memory() decay.Memory {
	return decay.Memory{
		Score:                r.Score,
		Stability:            r.Stability,
		LastUsedAt:           r.LastUsedAt,
		ChaptersSinceMastery: r.ChaptersSinceMastery,
	}
}

// CurrentScore is the decayed proficiency as of now.
func (r Record) CurrentScore(now time.Time) float64 {
	return decay.CurrentScore(r.Memory(), now)
}

// Risk classifies the decayed score into a risk band.
func (r Record) Risk(now time.Time) decay.Risk {
	return decay.RiskFor(r.CurrentScore(now))
}
