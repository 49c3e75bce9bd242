// Package grading turns queued attempt jobs into ability and mastery
// updates. It is the glue between the queue consumer and the modeling
// packages: each job moves the learner's ability estimate for the item's
// dimension and runs the mastery update policy for the command, then
// reports both through a mastery update message.
package grading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mnemo/internal/ability"
	"github.com/felixgeelhaar/mnemo/internal/keylock"
	"github.com/felixgeelhaar/mnemo/internal/mastery"
	"github.com/felixgeelhaar/mnemo/internal/queue"
)

// AbilityStore persists per-dimension ability estimates.
type AbilityStore interface {
	GetAbility(ctx context.Context, learnerID uuid.UUID, dimension string) (ability.Record, error)
	SaveAbility(ctx context.Context, rec ability.Record) error
}

// Grader processes graded attempts against the ability and mastery models.
type Grader struct {
	abilities AbilityStore
	tracker   *mastery.Tracker
	locks     *keylock.Locker
	logger    *slog.Logger
}

func NewGrader(abilities AbilityStore, tracker *mastery.Tracker, logger *slog.Logger) *Grader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Grader{
		abilities: abilities,
		tracker:   tracker,
		locks:     keylock.New(),
		logger:    logger,
	}
}

func abilityKey(learnerID uuid.UUID, dimension string) string {
	return learnerID.String() + "#" + dimension
}

// observe loads (or creates) the ability record for the job's dimension,
// applies the online update for the graded response, and persists it.
// Concurrent jobs for the same (learner, dimension) are serialized so
// neither observation is lost.
func (g *Grader) observe(ctx context.Context, job *queue.AttemptJob, now time.Time) (ability.Record, error) {
	unlock := g.locks.Lock(abilityKey(job.LearnerID, job.Dimension))
	defer unlock()

	rec, err := g.abilities.GetAbility(ctx, job.LearnerID, job.Dimension)
	if errors.Is(err, ability.ErrNotFound) {
		rec = *ability.NewRecord(job.LearnerID, job.Dimension)
	} else if err != nil {
		return ability.Record{}, fmt.Errorf("loading ability record: %w", err)
	}

	rec.Observe(job.ItemDifficulty, job.Correct, now)

	if err := g.abilities.SaveAbility(ctx, rec); err != nil {
		return ability.Record{}, fmt.Errorf("saving ability record: %w", err)
	}
	return rec, nil
}

// Grade applies one attempt job to both models and returns the combined
// outcome. The ability update and the mastery update are independent; a
// failure in either fails the job so the queue layer can report it.
func (g *Grader) Grade(ctx context.Context, job *queue.AttemptJob) (*queue.MasteryUpdate, error) {
	start := time.Now()

	abilityRec, err := g.observe(ctx, job, start)
	if err != nil {
		return nil, err
	}

	masteryRec, err := g.tracker.RecordAttempt(ctx, job.LearnerID, job.Command, job.Correct, attemptContext(job.Context))
	if err != nil {
		return nil, err
	}

	update := &queue.MasteryUpdate{
		JobID:         job.ID,
		LearnerID:     job.LearnerID,
		Command:       job.Command,
		Dimension:     job.Dimension,
		Status:        "completed",
		Theta:         abilityRec.Theta,
		StandardError: abilityRec.StandardError,
		Score:         masteryRec.Score,
		Stability:     masteryRec.Stability,
		Risk:          string(masteryRec.Risk(start)),
		Duration:      time.Since(start),
		CompletedAt:   time.Now(),
	}

	g.logger.Debug("attempt graded",
		"job", job.ID,
		"learner", job.LearnerID,
		"command", job.Command,
		"correct", job.Correct,
		"theta", update.Theta,
		"score", update.Score)

	return update, nil
}

// Handler adapts the grader to the queue consumer's handler signature.
func (g *Grader) Handler() queue.JobHandler {
	return g.Grade
}

func attemptContext(qc queue.AttemptContext) mastery.AttemptContext {
	return mastery.AttemptContext{
		AttemptNumber:        qc.AttemptNumber,
		SawAnswer:            qc.SawAnswer,
		HintsUsed:            qc.HintsUsed,
		TimeTakenSeconds:     qc.TimeTakenSeconds,
		PreviousFailures:     qc.PreviousFailures,
		ConsecutiveSuccesses: qc.ConsecutiveSuccesses,
		Difficulty:           qc.Difficulty,
	}
}
