package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Producer publishes attempt jobs to the queue
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishAttempt publishes a graded attempt to the queue
func (p *Producer) PublishAttempt(ctx context.Context, job *AttemptJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, AttemptQueueName, job); err != nil {
		return fmt.Errorf("failed to publish attempt job: %w", err)
	}

	slog.Info("published attempt job",
		"job_id", job.ID,
		"learner_id", job.LearnerID,
		"dimension", job.Dimension,
		"command", job.Command,
		"correct", job.Correct,
	)

	return nil
}

// PublishMasteryUpdate publishes a processed update to the mastery queue
func (p *Producer) PublishMasteryUpdate(ctx context.Context, update *MasteryUpdate) error {
	if update.CompletedAt.IsZero() {
		update.CompletedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, MasteryQueueName, update); err != nil {
		return fmt.Errorf("failed to publish mastery update: %w", err)
	}

	slog.Info("published mastery update",
		"job_id", update.JobID,
		"status", update.Status,
		"score", update.Score,
		"duration", update.Duration,
	)

	return nil
}

// CreateAttemptJob creates a new attempt job with the given parameters
func CreateAttemptJob(
	learnerID uuid.UUID,
	dimension, command string,
	itemDifficulty float64,
	correct bool,
	actx AttemptContext,
) *AttemptJob {
	return &AttemptJob{
		ID:             uuid.New(),
		LearnerID:      learnerID,
		Dimension:      dimension,
		Command:        command,
		ItemDifficulty: itemDifficulty,
		Correct:        correct,
		Context:        actx,
		CreatedAt:      time.Now(),
	}
}
