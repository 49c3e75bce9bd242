package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mnemo/internal/calibration"
)

// ItemStore persists assessment items, their graded responses, and the
// calibrated parameters produced by the batch calibrator.
type ItemStore struct {
	db *DB
}

// NewItemStore creates a new SQLite-backed item store.
func NewItemStore(db *DB) *ItemStore {
	return &ItemStore{db: db}
}

// SaveItem registers an item (insert or update of its authoring metadata).
func (s *ItemStore) SaveItem(ctx context.Context, item calibration.Item) error {
	mcq := 0
	if item.MCQ {
		mcq = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, mcq, option_count)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mcq=excluded.mcq,
			option_count=excluded.option_count`,
		item.ID, mcq, item.OptionCount,
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// ListItems returns all registered items.
func (s *ItemStore) ListItems(ctx context.Context) ([]calibration.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, mcq, option_count FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []calibration.Item
	for rows.Next() {
		var item calibration.Item
		var mcq int
		if err := rows.Scan(&item.ID, &mcq, &item.OptionCount); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.MCQ = mcq != 0
		items = append(items, item)
	}
	return items, rows.Err()
}

// RecordResponse appends one graded observation for an item.
func (s *ItemStore) RecordResponse(ctx context.Context, resp calibration.Response) error {
	if resp.At.IsZero() {
		resp.At = time.Now()
	}
	correct := 0
	if resp.Correct {
		correct = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO responses (item_id, learner_id, ability, correct, answered_at)
		VALUES (?, ?, ?, ?, ?)`,
		resp.ItemID, resp.LearnerID.String(), resp.Ability, correct, resp.At,
	)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// ResponsesForItem returns the most recent responses for an item, newest
// first, capped at limit.
func (s *ItemStore) ResponsesForItem(ctx context.Context, itemID string, limit int) ([]calibration.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, learner_id, ability, correct, answered_at
		FROM responses WHERE item_id = ?
		ORDER BY answered_at DESC LIMIT ?`,
		itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var responses []calibration.Response
	for rows.Next() {
		var resp calibration.Response
		var id string
		var correct int
		if err := rows.Scan(&resp.ItemID, &id, &resp.Ability, &correct, &resp.At); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		resp.Correct = correct != 0
		resp.LearnerID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse learner id: %w", err)
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// SaveParameters persists the calibrated parameters for an item.
func (s *ItemStore) SaveParameters(ctx context.Context, params calibration.Parameters) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO item_parameters (item_id, difficulty, discrimination, guessing, calibrated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			difficulty=excluded.difficulty,
			discrimination=excluded.discrimination,
			guessing=excluded.guessing,
			calibrated_at=excluded.calibrated_at`,
		params.ItemID, params.Difficulty, params.Discrimination, params.Guessing, params.CalibratedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert item parameters: %w", err)
	}
	return nil
}

// GetParameters retrieves the calibrated parameters for an item. Items
// without a calibration yet get the authoring-time defaults.
func (s *ItemStore) GetParameters(ctx context.Context, itemID string) (calibration.Parameters, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT item_id, difficulty, discrimination, guessing, calibrated_at
		FROM item_parameters WHERE item_id = ?`, itemID)

	var params calibration.Parameters
	err := row.Scan(&params.ItemID, &params.Difficulty, &params.Discrimination, &params.Guessing, &params.CalibratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM items WHERE id = ?`, itemID).Scan(&exists); err != nil {
			return calibration.Parameters{}, fmt.Errorf("check item: %w", err)
		}
		if exists == 0 {
			return calibration.Parameters{}, calibration.ErrItemNotFound
		}
		return calibration.DefaultParameters(itemID), nil
	}
	if err != nil {
		return calibration.Parameters{}, fmt.Errorf("scan item parameters: %w", err)
	}
	return params, nil
}
