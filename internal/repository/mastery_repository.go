package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/mnemo/internal/mastery"
)

// MasteryRepository implements mastery.Store on PostgreSQL.
type MasteryRepository struct {
	pool *pgxpool.Pool
}

// NewMasteryRepository creates a new PostgreSQL-backed mastery repository.
func NewMasteryRepository(pool *pgxpool.Pool) *MasteryRepository {
	return &MasteryRepository{pool: pool}
}

const masteryColumns = `learner_id, command, score, stability,
	consecutive_successes, consecutive_failures, total_attempts,
	successful_attempts, last_used_at, chapters_since_mastery,
	created_at, updated_at`

// GetMastery retrieves the mastery record for a (learner, command) pair.
func (r *MasteryRepository) GetMastery(ctx context.Context, learnerID uuid.UUID, command string) (mastery.Record, error) {
	query := `SELECT ` + masteryColumns + ` FROM mastery_records WHERE learner_id = $1 AND command = $2`

	rec, err := scanMastery(r.pool.QueryRow(ctx, query, learnerID, command))
	if errors.Is(err, pgx.ErrNoRows) {
		return mastery.Record{}, mastery.ErrNotFound
	}
	return rec, err
}

// SaveMastery persists a mastery record (insert or update).
func (r *MasteryRepository) SaveMastery(ctx context.Context, rec mastery.Record) error {
	query := `
		INSERT INTO mastery_records (` + masteryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (learner_id, command) DO UPDATE SET
			score = EXCLUDED.score,
			stability = EXCLUDED.stability,
			consecutive_successes = EXCLUDED.consecutive_successes,
			consecutive_failures = EXCLUDED.consecutive_failures,
			total_attempts = EXCLUDED.total_attempts,
			successful_attempts = EXCLUDED.successful_attempts,
			last_used_at = EXCLUDED.last_used_at,
			chapters_since_mastery = EXCLUDED.chapters_since_mastery,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		rec.LearnerID, rec.Command, rec.Score, rec.Stability,
		rec.ConsecutiveSuccesses, rec.ConsecutiveFailures, rec.TotalAttempts,
		rec.SuccessfulAttempts, nullTime(rec.LastUsedAt), rec.ChaptersSinceMastery,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert mastery record: %w", err)
	}
	return nil
}

// ListMasteries returns all mastery records for a learner.
func (r *MasteryRepository) ListMasteries(ctx context.Context, learnerID uuid.UUID) ([]mastery.Record, error) {
	query := `SELECT ` + masteryColumns + ` FROM mastery_records WHERE learner_id = $1 ORDER BY command`

	rows, err := r.pool.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("query mastery records: %w", err)
	}
	defer rows.Close()

	var records []mastery.Record
	for rows.Next() {
		rec, err := scanMastery(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanMastery(row pgx.Row) (mastery.Record, error) {
	var rec mastery.Record
	var lastUsed *time.Time

	err := row.Scan(&rec.LearnerID, &rec.Command, &rec.Score, &rec.Stability,
		&rec.ConsecutiveSuccesses, &rec.ConsecutiveFailures, &rec.TotalAttempts,
		&rec.SuccessfulAttempts, &lastUsed, &rec.ChaptersSinceMastery,
		&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return mastery.Record{}, err
	}
	if err != nil {
		return mastery.Record{}, fmt.Errorf("scan mastery record: %w", err)
	}

	if lastUsed != nil {
		rec.LastUsedAt = *lastUsed
	}
	return rec, nil
}

// nullTime maps a zero time to SQL NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
