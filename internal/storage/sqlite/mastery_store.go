package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mnemo/internal/mastery"
)

// MasteryStore persists per-command mastery records in SQLite.
type MasteryStore struct {
	db *DB
}

// NewMasteryStore creates a new SQLite-backed mastery store.
func NewMasteryStore(db *DB) *MasteryStore {
	return &MasteryStore{db: db}
}

const masteryColumns = `learner_id, command, score, stability,
	consecutive_successes, consecutive_failures, total_attempts,
	successful_attempts, last_used_at, chapters_since_mastery,
	created_at, updated_at`

// GetMastery retrieves the mastery record for a (learner, command) pair.
func (s *MasteryStore) GetMastery(ctx context.Context, learnerID uuid.UUID, command string) (mastery.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+masteryColumns+` FROM mastery_records WHERE learner_id = ? AND command = ?`,
		learnerID.String(), command)

	rec, err := scanMastery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return mastery.Record{}, mastery.ErrNotFound
	}
	return rec, err
}

// SaveMastery persists a mastery record (insert or update).
func (s *MasteryStore) SaveMastery(ctx context.Context, rec mastery.Record) error {
	var lastUsed any
	if !rec.LastUsedAt.IsZero() {
		lastUsed = rec.LastUsedAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mastery_records (`+masteryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(learner_id, command) DO UPDATE SET
			score=excluded.score,
			stability=excluded.stability,
			consecutive_successes=excluded.consecutive_successes,
			consecutive_failures=excluded.consecutive_failures,
			total_attempts=excluded.total_attempts,
			successful_attempts=excluded.successful_attempts,
			last_used_at=excluded.last_used_at,
			chapters_since_mastery=excluded.chapters_since_mastery,
			updated_at=excluded.updated_at`,
		rec.LearnerID.String(), rec.Command, rec.Score, rec.Stability,
		rec.ConsecutiveSuccesses, rec.ConsecutiveFailures, rec.TotalAttempts,
		rec.SuccessfulAttempts, lastUsed, rec.ChaptersSinceMastery,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert mastery record: %w", err)
	}
	return nil
}

// ListMasteries returns all mastery records for a learner.
func (s *MasteryStore) ListMasteries(ctx context.Context, learnerID uuid.UUID) ([]mastery.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+masteryColumns+` FROM mastery_records WHERE learner_id = ? ORDER BY command`,
		learnerID.String())
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMastery(row rowScanner) (mastery.Record, error) {
	var rec mastery.Record
	var id string
	var lastUsed sql.NullTime

	err := row.Scan(&id, &rec.Command, &rec.Score, &rec.Stability,
		&rec.ConsecutiveSuccesses, &rec.ConsecutiveFailures, &rec.TotalAttempts,
		&rec.SuccessfulAttempts, &lastUsed, &rec.ChaptersSinceMastery,
		&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return mastery.Record{}, err
	}
	if err != nil {
		return mastery.Record{}, fmt.Errorf("scan mastery record: %w", err)
	}

	if lastUsed.Valid {
		rec.LastUsedAt = lastUsed.Time
	}
	rec.LearnerID, err = uuid.Parse(id)
	if err != nil {
		return mastery.Record{}, fmt.Errorf("parse learner id: %w", err)
	}
	return rec, nil
}
