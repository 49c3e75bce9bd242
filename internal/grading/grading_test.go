package grading

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mnemo/internal/ability"
	"github.com/felixgeelhaar/mnemo/internal/mastery"
	"github.com/felixgeelhaar/mnemo/internal/queue"
)

type fakeAbilityStore struct {
	mu      sync.Mutex
	records map[string]ability.Record
	getErr  error
	saveErr error
}

func newFakeAbilityStore() *fakeAbilityStore {
	return &fakeAbilityStore{records: make(map[string]ability.Record)}
}

func (s *fakeAbilityStore) GetAbility(_ context.Context, learnerID uuid.UUID, dimension string) (ability.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return ability.Record{}, s.getErr
	}
	rec, ok := s.records[learnerID.String()+"#"+dimension]
	if !ok {
		return ability.Record{}, ability.ErrNotFound
	}
	return rec, nil
}

func (s *fakeAbilityStore) SaveAbility(_ context.Context, rec ability.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[rec.LearnerID.String()+"#"+rec.Dimension] = rec
	return nil
}

type fakeMasteryStore struct {
	mu      sync.Mutex
	records map[string]mastery.Record
}

func newFakeMasteryStore() *fakeMasteryStore {
	return &fakeMasteryStore{records: make(map[string]mastery.Record)}
}

func (s *fakeMasteryStore) GetMastery(_ context.Context, learnerID uuid.UUID, command string) (mastery.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[learnerID.String()+"/"+command]
	if !ok {
		return mastery.Record{}, mastery.ErrNotFound
	}
	return rec, nil
}

func (s *fakeMasteryStore) SaveMastery(_ context.Context, rec mastery.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.LearnerID.String()+"/"+rec.Command] = rec
	return nil
}

func (s *fakeMasteryStore) ListMasteries(_ context.Context, learnerID uuid.UUID) ([]mastery.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []mastery.Record
	for _, rec := range s.records {
		if rec.LearnerID == learnerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestGrader(abilities *fakeAbilityStore, masteries *fakeMasteryStore) *Grader {
	tracker := mastery.NewTracker(masteries, nil)
	return NewGrader(abilities, tracker, nil)
}

func TestGrade_FirstAttempt(t *testing.T) {
	abilities := newFakeAbilityStore()
	masteries := newFakeMasteryStore()
	grader := newTestGrader(abilities, masteries)

	learnerID := uuid.New()
	job := queue.CreateAttemptJob(learnerID, "shell", "grep", 0, true,
		queue.AttemptContext{AttemptNumber: 1, TimeTakenSeconds: 12})

	update, err := grader.Grade(context.Background(), job)
	if err != nil {
		t.Fatalf("Grade() error: %v", err)
	}

	if update.Status != "completed" {
		t.Errorf("Status = %q; want completed", update.Status)
	}
	if update.JobID != job.ID || update.LearnerID != learnerID {
		t.Error("update should carry job and learner identity")
	}

	// Neutral item, correct: theta moves 0.3 * (1 - 0.5) = 0.15 from 0.
	if math.Abs(update.Theta-0.15) > 1e-9 {
		t.Errorf("Theta = %f; want 0.15", update.Theta)
	}
	if math.Abs(update.StandardError-1.45) > 1e-9 {
		t.Errorf("StandardError = %f; want 1.45", update.StandardError)
	}

	// First-try success jumps mastery to full score.
	if update.Score != 100.0 {
		t.Errorf("Score = %f; want 100", update.Score)
	}
	if update.Risk != "safe" {
		t.Errorf("Risk = %q; want safe", update.Risk)
	}
}

func TestGrade_PersistsBothRecords(t *testing.T) {
	abilities := newFakeAbilityStore()
	masteries := newFakeMasteryStore()
	grader := newTestGrader(abilities, masteries)

	learnerID := uuid.New()
	job := queue.CreateAttemptJob(learnerID, "shell", "awk", 0.5, false,
		queue.AttemptContext{AttemptNumber: 3})

	if _, err := grader.Grade(context.Background(), job); err != nil {
		t.Fatalf("Grade() error: %v", err)
	}

	abilityRec, err := abilities.GetAbility(context.Background(), learnerID, "shell")
	if err != nil {
		t.Fatalf("ability record not persisted: %v", err)
	}
	if abilityRec.Observations != 1 {
		t.Errorf("Observations = %d; want 1", abilityRec.Observations)
	}
	if abilityRec.Theta >= 0 {
		t.Errorf("Theta = %f; want < 0 after an incorrect answer", abilityRec.Theta)
	}

	masteryRec, err := masteries.GetMastery(context.Background(), learnerID, "awk")
	if err != nil {
		t.Fatalf("mastery record not persisted: %v", err)
	}
	if masteryRec.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d; want 1", masteryRec.ConsecutiveFailures)
	}
}

func TestGrade_AbilityAccumulatesAcrossJobs(t *testing.T) {
	abilities := newFakeAbilityStore()
	masteries := newFakeMasteryStore()
	grader := newTestGrader(abilities, masteries)

	learnerID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		job := queue.CreateAttemptJob(learnerID, "shell", "sed", 0, true,
			queue.AttemptContext{AttemptNumber: 1})
		if _, err := grader.Grade(ctx, job); err != nil {
			t.Fatalf("Grade() error on job %d: %v", i, err)
		}
	}

	rec, err := abilities.GetAbility(ctx, learnerID, "shell")
	if err != nil {
		t.Fatalf("GetAbility() error: %v", err)
	}
	if rec.Observations != 5 {
		t.Errorf("Observations = %d; want 5", rec.Observations)
	}
	// Five correct answers on a neutral item push theta well above zero,
	// with shrinking steps as the estimate climbs.
	if rec.Theta <= 0.5 {
		t.Errorf("Theta = %f; want > 0.5 after five correct answers", rec.Theta)
	}
	if math.Abs(rec.StandardError-1.25) > 1e-9 {
		t.Errorf("StandardError = %f; want 1.25 after five observations", rec.StandardError)
	}
}

func TestGrade_DimensionsAreIndependent(t *testing.T) {
	abilities := newFakeAbilityStore()
	masteries := newFakeMasteryStore()
	grader := newTestGrader(abilities, masteries)

	learnerID := uuid.New()
	ctx := context.Background()

	correct := queue.CreateAttemptJob(learnerID, "shell", "grep", 0, true,
		queue.AttemptContext{AttemptNumber: 1})
	incorrect := queue.CreateAttemptJob(learnerID, "regex", "grep", 0, false,
		queue.AttemptContext{AttemptNumber: 1})

	if _, err := grader.Grade(ctx, correct); err != nil {
		t.Fatalf("Grade() error: %v", err)
	}
	if _, err := grader.Grade(ctx, incorrect); err != nil {
		t.Fatalf("Grade() error: %v", err)
	}

	shell, _ := abilities.GetAbility(ctx, learnerID, "shell")
	regex, _ := abilities.GetAbility(ctx, learnerID, "regex")

	if shell.Theta <= 0 {
		t.Errorf("shell Theta = %f; want > 0", shell.Theta)
	}
	if regex.Theta >= 0 {
		t.Errorf("regex Theta = %f; want < 0", regex.Theta)
	}
}

func TestGrade_AbilityStoreError(t *testing.T) {
	abilities := newFakeAbilityStore()
	abilities.getErr = errors.New("connection refused")
	grader := newTestGrader(abilities, newFakeMasteryStore())

	job := queue.CreateAttemptJob(uuid.New(), "shell", "grep", 0, true,
		queue.AttemptContext{AttemptNumber: 1})

	_, err := grader.Grade(context.Background(), job)
	if err == nil {
		t.Fatal("expected error from failing ability store")
	}
	if !errors.Is(err, abilities.getErr) {
		t.Errorf("error = %v; want wrapped store error", err)
	}
}

func TestGrade_SaveError(t *testing.T) {
	abilities := newFakeAbilityStore()
	abilities.saveErr = errors.New("disk full")
	grader := newTestGrader(abilities, newFakeMasteryStore())

	job := queue.CreateAttemptJob(uuid.New(), "shell", "grep", 0, true,
		queue.AttemptContext{AttemptNumber: 1})

	_, err := grader.Grade(context.Background(), job)
	if !errors.Is(err, abilities.saveErr) {
		t.Errorf("error = %v; want wrapped save error", err)
	}
}

func TestGrade_ConcurrentSameDimension(t *testing.T) {
	abilities := newFakeAbilityStore()
	masteries := newFakeMasteryStore()
	grader := newTestGrader(abilities, masteries)

	learnerID := uuid.New()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job := queue.CreateAttemptJob(learnerID, "shell", "tar", 0, true,
				queue.AttemptContext{AttemptNumber: 1})
			if _, err := grader.Grade(ctx, job); err != nil {
				t.Errorf("Grade() error: %v", err)
			}
		}()
	}
	wg.Wait()

	rec, err := abilities.GetAbility(ctx, learnerID, "shell")
	if err != nil {
		t.Fatalf("GetAbility() error: %v", err)
	}
	if rec.Observations != workers {
		t.Errorf("Observations = %d; want %d (no lost updates)", rec.Observations, workers)
	}
}

func TestHandler_AdaptsToQueueSignature(t *testing.T) {
	grader := newTestGrader(newFakeAbilityStore(), newFakeMasteryStore())

	var handler queue.JobHandler = grader.Handler()

	job := queue.CreateAttemptJob(uuid.New(), "shell", "cut", 0, true,
		queue.AttemptContext{AttemptNumber: 1})

	update, err := handler(context.Background(), job)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if update.JobID != job.ID {
		t.Errorf("JobID = %v; want %v", update.JobID, job.ID)
	}
}

func TestAttemptContext_Conversion(t *testing.T) {
	qc := queue.AttemptContext{
		AttemptNumber:        2,
		SawAnswer:            true,
		HintsUsed:            1,
		TimeTakenSeconds:     45.5,
		PreviousFailures:     3,
		ConsecutiveSuccesses: 0,
		Difficulty:           7,
	}

	mc := attemptContext(qc)

	want := mastery.AttemptContext{
		AttemptNumber:        2,
		SawAnswer:            true,
		HintsUsed:            1,
		TimeTakenSeconds:     45.5,
		PreviousFailures:     3,
		ConsecutiveSuccesses: 0,
		Difficulty:           7,
	}
	if mc != want {
		t.Errorf("attemptContext() = %+v; want %+v", mc, want)
	}
}
