package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/mnemo/internal/retention"
)

// ReviewRepository persists spaced-repetition state in PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

const reviewColumns = `item_id, difficulty, stability, reps, lapses,
	interval_days, last_review_at, next_review_at, last_grade,
	retention_probability`

// GetReview retrieves the review state for a (learner, item) pair.
func (r *ReviewRepository) GetReview(ctx context.Context, learnerID uuid.UUID, itemID string) (retention.State, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_states WHERE learner_id = $1 AND item_id = $2`

	state, err := scanReview(r.pool.QueryRow(ctx, query, learnerID, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return retention.State{}, retention.ErrNotFound
	}
	return state, err
}

// SaveReview persists a review state (insert or update).
func (r *ReviewRepository) SaveReview(ctx context.Context, learnerID uuid.UUID, state retention.State) error {
	query := `
		INSERT INTO review_states (learner_id, ` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (learner_id, item_id) DO UPDATE SET
			difficulty = EXCLUDED.difficulty,
			stability = EXCLUDED.stability,
			reps = EXCLUDED.reps,
			lapses = EXCLUDED.lapses,
			interval_days = EXCLUDED.interval_days,
			last_review_at = EXCLUDED.last_review_at,
			next_review_at = EXCLUDED.next_review_at,
			last_grade = EXCLUDED.last_grade,
			retention_probability = EXCLUDED.retention_probability
	`
	_, err := r.pool.Exec(ctx, query,
		learnerID, state.ItemID, state.Difficulty, state.Stability,
		state.Reps, state.Lapses, state.IntervalDays,
		nullTime(state.LastReviewAt), nullTime(state.NextReviewAt),
		int(state.LastGrade), state.RetentionProbability,
	)
	if err != nil {
		return fmt.Errorf("upsert review state: %w", err)
	}
	return nil
}

// ListDue returns review states due at or before now, most overdue first.
func (r *ReviewRepository) ListDue(ctx context.Context, learnerID uuid.UUID, now time.Time, limit int) ([]retention.State, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_states
		WHERE learner_id = $1 AND next_review_at IS NOT NULL AND next_review_at <= $2
		ORDER BY next_review_at LIMIT $3`

	rows, err := r.pool.Query(ctx, query, learnerID, now, limit)
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

func scanReview(row pgx.Row) (retention.State, error) {
	var state retention.State
	var lastReview, nextReview *time.Time
	var grade int

	err := row.Scan(&state.ItemID, &state.Difficulty, &state.Stability,
		&state.Reps, &state.Lapses, &state.IntervalDays,
		&lastReview, &nextReview, &grade, &state.RetentionProbability)
	if errors.Is(err, pgx.ErrNoRows) {
		return retention.State{}, err
	}
	if err != nil {
		return retention.State{}, fmt.Errorf("scan review state: %w", err)
	}

	if lastReview != nil {
		state.LastReviewAt = *lastReview
	}
	if nextReview != nil {
		state.NextReviewAt = *nextReview
	}
	state.LastGrade = retention.Grade(grade)
	return state, nil
}
