package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/mnemo/internal/calibration"
)

// ItemRepository implements calibration.ItemStore on PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository creates a new PostgreSQL-backed item repository.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// SaveItem registers an item (insert or update of its authoring metadata).
func (r *ItemRepository) SaveItem(ctx context.Context, item calibration.Item) error {
	query := `
		INSERT INTO items (id, mcq, option_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			mcq = EXCLUDED.mcq,
			option_count = EXCLUDED.option_count
	`
	if _, err := r.pool.Exec(ctx, query, item.ID, item.MCQ, item.OptionCount); err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// ListItems returns all registered items.
func (r *ItemRepository) ListItems(ctx context.Context) ([]calibration.Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, mcq, option_count FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []calibration.Item
	for rows.Next() {
		var item calibration.Item
		if err := rows.Scan(&item.ID, &item.MCQ, &item.OptionCount); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// RecordResponse appends one graded observation for an item.
func (r *ItemRepository) RecordResponse(ctx context.Context, resp calibration.Response) error {
	if resp.At.IsZero() {
		resp.At = time.Now()
	}
	query := `
		INSERT INTO responses (item_id, learner_id, ability, correct, answered_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.pool.Exec(ctx, query, resp.ItemID, resp.LearnerID, resp.Ability, resp.Correct, resp.At); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// ResponsesForItem returns the most recent responses for an item, newest
// first, capped at limit.
func (r *ItemRepository) ResponsesForItem(ctx context.Context, itemID string, limit int) ([]calibration.Response, error) {
	query := `
		SELECT item_id, learner_id, ability, correct, answered_at
		FROM responses WHERE item_id = $1
		ORDER BY answered_at DESC LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var responses []calibration.Response
	for rows.Next() {
		var resp calibration.Response
		if err := rows.Scan(&resp.ItemID, &resp.LearnerID, &resp.Ability, &resp.Correct, &resp.At); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// SaveParameters persists the calibrated parameters for an item.
func (r *ItemRepository) SaveParameters(ctx context.Context, params calibration.Parameters) error {
	query := `
		INSERT INTO item_parameters (item_id, difficulty, discrimination, guessing, calibrated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id) DO UPDATE SET
			difficulty = EXCLUDED.difficulty,
			discrimination = EXCLUDED.discrimination,
			guessing = EXCLUDED.guessing,
			calibrated_at = EXCLUDED.calibrated_at
	`
	_, err := r.pool.Exec(ctx, query,
		params.ItemID, params.Difficulty, params.Discrimination, params.Guessing, params.CalibratedAt)
	if err != nil {
		return fmt.Errorf("upsert item parameters: %w", err)
	}
	return nil
}

// GetParameters retrieves the calibrated parameters for an item, falling
// back to authoring defaults for items without a calibration yet.
func (r *ItemRepository) GetParameters(ctx context.Context, itemID string) (calibration.Parameters, error) {
	query := `
		SELECT item_id, difficulty, discrimination, guessing, calibrated_at
		FROM item_parameters WHERE item_id = $1
	`
	var params calibration.Parameters
	err := r.pool.QueryRow(ctx, query, itemID).Scan(
		&params.ItemID, &params.Difficulty, &params.Discrimination, &params.Guessing, &params.CalibratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`, itemID).Scan(&exists); err != nil {
			return calibration.Parameters{}, fmt.Errorf("check item: %w", err)
		}
		if !exists {
			return calibration.Parameters{}, calibration.ErrItemNotFound
		}
		return calibration.DefaultParameters(itemID), nil
	}
	if err != nil {
		return calibration.Parameters{}, fmt.Errorf("scan item parameters: %w", err)
	}
	return params, nil
}
