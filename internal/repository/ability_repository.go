package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/mnemo/internal/ability"
)

// AbilityRepository implements the grading ability store on PostgreSQL.
type AbilityRepository struct {
	pool *pgxpool.Pool
}

// NewAbilityRepository creates a new PostgreSQL-backed ability repository.
func NewAbilityRepository(pool *pgxpool.Pool) *AbilityRepository {
	return &AbilityRepository{pool: pool}
}

// GetAbility retrieves the ability record for a (learner, dimension) pair.
func (r *AbilityRepository) GetAbility(ctx context.Context, learnerID uuid.UUID, dimension string) (ability.Record, error) {
	query := `
		SELECT learner_id, dimension, theta, standard_error, observations, updated_at
		FROM ability_records WHERE learner_id = $1 AND dimension = $2
	`
	var rec ability.Record
	err := r.pool.QueryRow(ctx, query, learnerID, dimension).Scan(
		&rec.LearnerID, &rec.Dimension, &rec.Theta, &rec.StandardError,
		&rec.Observations, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ability.Record{}, ability.ErrNotFound
	}
	if err != nil {
		return ability.Record{}, fmt.Errorf("query ability record: %w", err)
	}
	return rec, nil
}

// SaveAbility persists an ability record (insert or update).
func (r *AbilityRepository) SaveAbility(ctx context.Context, rec ability.Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	query := `
		INSERT INTO ability_records (learner_id, dimension, theta, standard_error, observations, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (learner_id, dimension) DO UPDATE SET
			theta = EXCLUDED.theta,
			standard_error = EXCLUDED.standard_error,
			observations = EXCLUDED.observations,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		rec.LearnerID, rec.Dimension, rec.Theta, rec.StandardError,
		rec.Observations, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert ability record: %w", err)
	}
	return nil
}

// ListAbilities returns all ability records for a learner.
func (r *AbilityRepository) ListAbilities(ctx context.Context, learnerID uuid.UUID) ([]ability.Record, error) {
	query := `
		SELECT learner_id, dimension, theta, standard_error, observations, updated_at
		FROM ability_records WHERE learner_id = $1 ORDER BY dimension
	`
	rows, err := r.pool.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("query ability records: %w", err)
	}
	defer rows.Close()

	var records []ability.Record
	for rows.Next() {
		var rec ability.Record
		if err := rows.Scan(&rec.LearnerID, &rec.Dimension, &rec.Theta,
			&rec.StandardError, &rec.Observations, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ability record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
