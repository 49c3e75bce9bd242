package calibration

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ItemStore is the persistence surface the batch calibrator needs. Items
// are independent, so a run is chunkable across items without coordination.
type ItemStore interface {
	ListItems(ctx context.Context) ([]Item, error)
	ResponsesForItem(ctx context.Context, itemID string, limit int) ([]Response, error)
	SaveParameters(ctx context.Context, params Parameters) error
}

// Report summarizes one batch calibration run.
type Report struct {
	Calibrated int
	Skipped    int
	StartedAt  time.Time
	Duration   time.Duration
}

// Service runs batch recalibration over all items with enough accumulated
// responses. Intended to be invoked from a periodic job.
type Service struct {
	store        ItemStore
	logger       *slog.Logger
	minResponses int
}

// ServiceConfig tunes batch recalibration. Zero values keep the package
// defaults.
type ServiceConfig struct {
	// MinResponses overrides the qualifying-response threshold.
	MinResponses int
}

// NewService creates a calibration service.
func NewService(store ItemStore, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	minResponses := cfg.MinResponses
	if minResponses <= 0 {
		minResponses = MinResponses
	}
	return &Service{store: store, logger: logger, minResponses: minResponses}
}

// CalibrateAll recalibrates every item with at least the configured minimum
// of qualifying responses; items below the threshold are counted as
// skipped, not treated as errors.
func (s *Service) CalibrateAll(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{StartedAt: start}

	items, err := s.store.ListItems(ctx)
	if err != nil {
		return report, fmt.Errorf("list items: %w", err)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		responses, err := s.store.ResponsesForItem(ctx, item.ID, MaxWindow)
		if err != nil {
			return report, fmt.Errorf("responses for item %s: %w", item.ID, err)
		}

		if len(responses) < s.minResponses {
			report.Skipped++
			continue
		}

		params := Calibrate(item, responses, time.Now())
		if err := s.store.SaveParameters(ctx, params); err != nil {
			return report, fmt.Errorf("save parameters for item %s: %w", item.ID, err)
		}

		s.logger.Debug("item calibrated",
			"item_id", item.ID,
			"responses", len(responses),
			"difficulty", params.Difficulty,
			"discrimination", params.Discrimination,
		)
		report.Calibrated++
	}

	report.Duration = time.Since(start)
	s.logger.Info("calibration run complete",
		"calibrated", report.Calibrated,
		"skipped", report.Skipped,
		"duration", report.Duration,
	)
	return report, nil
}
