package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mnemo/internal/retention"
)

// ReviewStore persists spaced-repetition scheduling state in SQLite.
type ReviewStore struct {
	db *DB
}

// NewReviewStore creates a new SQLite-backed review store.
func NewReviewStore(db *DB) *ReviewStore {
	return &ReviewStore{db: db}
}

const reviewColumns = `item_id, difficulty, stability, reps, lapses,
	interval_days, last_review_at, next_review_at, last_grade,
	retention_probability`

// GetReview retrieves the review state for a (learner, item) pair.
func (s *ReviewStore) GetReview(ctx context.Context, learnerID uuid.UUID, itemID string) (retention.State, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM review_states WHERE learner_id = ? AND item_id = ?`,
		learnerID.String(), itemID)

	state, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return retention.State{}, retention.ErrNotFound
	}
	return state, err
}

// SaveReview persists a review state (insert or update).
func (s *ReviewStore) SaveReview(ctx context.Context, learnerID uuid.UUID, state retention.State) error {
	var lastReview, nextReview any
	if !state.LastReviewAt.IsZero() {
		lastReview = state.LastReviewAt
	}
	if !state.NextReviewAt.IsZero() {
		nextReview = state.NextReviewAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_states (learner_id, `+reviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(learner_id, item_id) DO UPDATE SET
			difficulty=excluded.difficulty,
			stability=excluded.stability,
			reps=excluded.reps,
			lapses=excluded.lapses,
			interval_days=excluded.interval_days,
			last_review_at=excluded.last_review_at,
			next_review_at=excluded.next_review_at,
			last_grade=excluded.last_grade,
			retention_probability=excluded.retention_probability`,
		learnerID.String(), state.ItemID, state.Difficulty, state.Stability,
		state.Reps, state.Lapses, state.IntervalDays, lastReview, nextReview,
		int(state.LastGrade), state.RetentionProbability,
	)
	if err != nil {
		return fmt.Errorf("upsert review state: %w", err)
	}
	return nil
}

// ListDue returns review states due at or before now, most overdue first.
// A limit of 0 means no limit.
func (s *ReviewStore) ListDue(ctx context.Context, learnerID uuid.UUID, now time.Time, limit int) ([]retention.State, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_states
		WHERE learner_id = ? AND next_review_at IS NOT NULL AND next_review_at <= ?
		ORDER BY next_review_at`
	args := []any{learnerID.String(), now}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query due reviews: %w", err)
	}
	defer rows.Close()

	var states []retention.State
	for rows.Next() {
		state, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// ListAll returns every review state for a learner.
func (s *ReviewStore) ListAll(ctx context.Context, learnerID uuid.UUID) ([]retention.State, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM review_states WHERE learner_id = ? ORDER BY item_id`,
		learnerID.String())
	if err != nil {
		return nil, fmt.Errorf("query review states: %w", err)
	}
	defer rows.Close()

	var states []retention.State
	for rows.Next() {
		state, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

func scanReview(row rowScanner) (retention.State, error) {
	var state retention.State
	var lastReview, nextReview sql.NullTime
	var grade int

	err := row.Scan(&state.ItemID, &state.Difficulty, &state.Stability,
		&state.Reps, &state.Lapses, &state.IntervalDays,
		&lastReview, &nextReview, &grade, &state.RetentionProbability)
	if errors.Is(err, sql.ErrNoRows) {
		return retention.State{}, err
	}
	if err != nil {
		return retention.State{}, fmt.Errorf("scan review state: %w", err)
	}

	if lastReview.Valid {
		state.LastReviewAt = lastReview.Time
	}
	if nextReview.Valid {
		state.NextReviewAt = nextReview.Time
	}
	state.LastGrade = retention.Grade(grade)
	return state, nil
}
