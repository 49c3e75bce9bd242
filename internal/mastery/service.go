package mastery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mnemo/internal/decay"
	"github.com/felixgeelhaar/mnemo/internal/keylock"
)

// ErrNotFound is returned when no mastery record exists for a command.
var ErrNotFound = errors.New("mastery record not found")

// Store persists mastery records.
type Store interface {
	GetMastery(ctx context.Context, learnerID uuid.UUID, command string) (Record, error)
	SaveMastery(ctx context.Context, rec Record) error
	ListMasteries(ctx context.Context, learnerID uuid.UUID) ([]Record, error)
}

// Tracker coordinates attempt recording, decay persistence, and gate checks.
// Concurrent updates to the same (learner, command) record are serialized
// under a per-key lock so a second device cannot clobber the first's write.
type Tracker struct {
	store  Store
	policy Policy
	locks  *keylock.Locker
	logger *slog.Logger
}

func NewTracker(store Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  store,
		locks:  keylock.New(),
		logger: logger,
	}
}

func recordKey(learnerID uuid.UUID, command string) string {
	return learnerID.String() + "/" + command
}

// RecordAttempt loads (or creates) the record for the command, applies the
// update policy for the attempt outcome, and persists the result.
func (t *Tracker) RecordAttempt(ctx context.Context, learnerID uuid.UUID, command string, success bool, actx AttemptContext) (Record, error) {
	unlock := t.locks.Lock(recordKey(learnerID, command))
	defer unlock()

	now := time.Now()

	rec, err := t.store.GetMastery(ctx, learnerID, command)
	if errors.Is(err, ErrNotFound) {
		rec = NewRecord(learnerID, command, now)
	} else if err != nil {
		return Record{}, fmt.Errorf("loading mastery record: %w", err)
	}

	if success {
		rec = t.policy.OnSuccess(rec, actx, now)
	} else {
		rec = t.policy.OnFailure(rec, actx, now)
	}

	if err := t.store.SaveMastery(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("saving mastery record: %w", err)
	}

	t.logger.Debug("attempt recorded",
		"learner", learnerID,
		"command", command,
		"success", success,
		"score", rec.Score,
		"stability", rec.Stability)

	return rec, nil
}

// ApplyDecay folds the elapsed-time decay into the persisted score. Used by
// gate checks and review listings that need durable decayed values.
func (t *Tracker) ApplyDecay(ctx context.Context, learnerID uuid.UUID, command string) (Record, error) {
	unlock := t.locks.Lock(recordKey(learnerID, command))
	defer unlock()

	rec, err := t.store.GetMastery(ctx, learnerID, command)
	if err != nil {
		return Record{}, fmt.Errorf("loading mastery record: %w", err)
	}

	now := time.Now()
	decayed := rec.CurrentScore(now)
	if decayed >= rec.Score {
		return rec, nil
	}

	rec.Score = decayed
	rec.UpdatedAt = now
	if err := t.store.SaveMastery(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("saving decayed record: %w", err)
	}
	return rec, nil
}

// ReviewItem is one command surfaced by the review-needed listing.
type ReviewItem struct {
	Command      string
	CurrentScore float64
	DecayAmount  float64
	DaysSinceUse int
	Risk         decay.Risk
}

// CommandsNeedingReview lists practiced commands whose decayed score has
// slipped below the stored one, worst first.
func (t *Tracker) CommandsNeedingReview(ctx context.Context, learnerID uuid.UUID, limit int) ([]ReviewItem, error) {
	recs, err := t.store.ListMasteries(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("listing mastery records: %w", err)
	}

	now := time.Now()
	items := make([]ReviewItem, 0, len(recs))
	for _, rec := range recs {
		if rec.LastUsedAt.IsZero() {
			continue
		}

		current := rec.CurrentScore(now)
		amount := rec.Score - current
		if amount <= 0 {
			continue
		}

		items = append(items, ReviewItem{
			Command:      rec.Command,
			CurrentScore: round1(current),
			DecayAmount:  round1(amount),
			DaysSinceUse: int(math.Round(now.Sub(rec.LastUsedAt).Hours() / 24)),
			Risk:         decay.RiskFor(current),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CurrentScore < items[j].CurrentScore
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// GateStatus aggregates gate checks over a lesson's required commands.
type GateStatus struct {
	CanProgress   bool
	TotalCommands int
	MasteredCount int
	Blocked       []GateCheck
}

// CheckGate evaluates every required command and reports which ones block
// progression.
func (t *Tracker) CheckGate(ctx context.Context, learnerID uuid.UUID, commands []string) (GateStatus, error) {
	status := GateStatus{TotalCommands: len(commands)}
	now := time.Now()

	for _, command := range commands {
		rec, err := t.store.GetMastery(ctx, learnerID, command)

		var check GateCheck
		switch {
		case errors.Is(err, ErrNotFound):
			check = CheckGate(nil, command, now)
		case err != nil:
			return GateStatus{}, fmt.Errorf("loading mastery record: %w", err)
		default:
			check = CheckGate(&rec, command, now)
		}

		if check.Passed {
			status.MasteredCount++
		} else {
			status.Blocked = append(status.Blocked, check)
		}
	}

	status.CanProgress = len(status.Blocked) == 0
	return status, nil
}

// Drill describes one remedial exercise tuned to the learner's level.
type Drill struct {
	Command        string
	CurrentScore   float64
	HintLevel      HintLevel
	ExerciseType   ExerciseType
	AttemptsNeeded int
}

// RemedialDrills builds a drill per blocked command, scaling hints and
// exercise format to the current decayed score.
func (t *Tracker) RemedialDrills(ctx context.Context, learnerID uuid.UUID, commands []string) ([]Drill, error) {
	now := time.Now()
	drills := make([]Drill, 0, len(commands))

	for _, command := range commands {
		rec, err := t.store.GetMastery(ctx, learnerID, command)

		var score float64
		var attempts int
		switch {
		case errors.Is(err, ErrNotFound):
			// first exposure, full scaffolding
		case err != nil:
			return nil, fmt.Errorf("loading mastery record: %w", err)
		default:
			score = rec.CurrentScore(now)
			attempts = rec.TotalAttempts
		}

		drills = append(drills, Drill{
			Command:        command,
			CurrentScore:   round1(score),
			HintLevel:      HintLevelFor(score),
			ExerciseType:   ExerciseTypeFor(attempts, score),
			AttemptsNeeded: EstimateAttemptsNeeded(score),
		})
	}
	return drills, nil
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
