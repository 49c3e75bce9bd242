package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mnemo/internal/ability"
)

// AbilityStore persists per-dimension ability estimates in SQLite.
type AbilityStore struct {
	db *DB
}

// NewAbilityStore creates a new SQLite-backed ability store.
func NewAbilityStore(db *DB) *AbilityStore {
	return &AbilityStore{db: db}
}

// GetAbility retrieves the ability record for a (learner, dimension) pair.
func (s *AbilityStore) GetAbility(ctx context.Context, learnerID uuid.UUID, dimension string) (ability.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT learner_id, dimension, theta, standard_error, observations, updated_at
		FROM ability_records WHERE learner_id = ? AND dimension = ?`,
		learnerID.String(), dimension)

	var rec ability.Record
	var id string
	err := row.Scan(&id, &rec.Dimension, &rec.Theta, &rec.StandardError, &rec.Observations, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ability.Record{}, ability.ErrNotFound
	}
	if err != nil {
		return ability.Record{}, fmt.Errorf("scan ability record: %w", err)
	}

	rec.LearnerID, err = uuid.Parse(id)
	if err != nil {
		return ability.Record{}, fmt.Errorf("parse learner id: %w", err)
	}
	return rec, nil
}

// SaveAbility persists an ability record (insert or update).
func (s *AbilityStore) SaveAbility(ctx context.Context, rec ability.Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ability_records (learner_id, dimension, theta, standard_error, observations, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(learner_id, dimension) DO UPDATE SET
			theta=excluded.theta,
			standard_error=excluded.standard_error,
			observations=excluded.observations,
			updated_at=excluded.updated_at`,
		rec.LearnerID.String(), rec.Dimension, rec.Theta, rec.StandardError,
		rec.Observations, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert ability record: %w", err)
	}
	return nil
}

// ListAbilities returns all ability records for a learner, one per dimension.
func (s *AbilityStore) ListAbilities(ctx context.Context, learnerID uuid.UUID) ([]ability.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT learner_id, dimension, theta, standard_error, observations, updated_at
		FROM ability_records WHERE learner_id = ? ORDER BY dimension`,
		learnerID.String())
	if err != nil {
		return nil, fmt.Errorf("query ability records: %w", err)
	}
	defer rows.Close()

	var records []ability.Record
	for rows.Next() {
		var rec ability.Record
		var id string
		if err := rows.Scan(&id, &rec.Dimension, &rec.Theta, &rec.StandardError, &rec.Observations, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ability record: %w", err)
		}
		rec.LearnerID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse learner id: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
