package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sqlc-dev/pqtype"

	"github.com/felixgeelhaar/mnemo/internal/queue"
)

// AttemptRepository archives graded attempts in PostgreSQL. The grading
// context is kept as JSONB so new context fields do not require a schema
// change.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new PostgreSQL-backed attempt archive.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Record archives one attempt job at intake time.
func (r *AttemptRepository) Record(ctx context.Context, job *queue.AttemptJob) error {
	contextJSON, err := marshalContext(job.Context)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO attempts (id, learner_id, dimension, command, item_id, item_difficulty, correct, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = r.pool.Exec(ctx, query,
		job.ID, job.LearnerID, job.Dimension, job.Command,
		job.ItemID, job.ItemDifficulty, job.Correct, contextJSON, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// ListRecent returns a learner's most recent attempts, newest first.
func (r *AttemptRepository) ListRecent(ctx context.Context, learnerID uuid.UUID, limit int) ([]queue.AttemptJob, error) {
	query := `
		SELECT id, learner_id, dimension, command, item_id, item_difficulty, correct, context, created_at
		FROM attempts WHERE learner_id = $1
		ORDER BY created_at DESC LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var jobs []queue.AttemptJob
	for rows.Next() {
		var job queue.AttemptJob
		var itemID *string
		var contextJSON pqtype.NullRawMessage
		if err := rows.Scan(&job.ID, &job.LearnerID, &job.Dimension, &job.Command,
			&itemID, &job.ItemDifficulty, &job.Correct, &contextJSON, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if itemID != nil {
			job.ItemID = *itemID
		}
		if job.Context, err = unmarshalContext(contextJSON); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CountByCommand returns how many attempts a learner has made on a command.
func (r *AttemptRepository) CountByCommand(ctx context.Context, learnerID uuid.UUID, command string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE learner_id = $1 AND command = $2`,
		learnerID, command).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

func marshalContext(actx queue.AttemptContext) (pqtype.NullRawMessage, error) {
	data, err := json.Marshal(actx)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("marshal attempt context: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}

func unmarshalContext(raw pqtype.NullRawMessage) (queue.AttemptContext, error) {
	if !raw.Valid {
		return queue.AttemptContext{}, nil
	}
	var actx queue.AttemptContext
	if err := json.Unmarshal(raw.RawMessage, &actx); err != nil {
		return queue.AttemptContext{}, fmt.Errorf("unmarshal attempt context: %w", err)
	}
	return actx, nil
}
