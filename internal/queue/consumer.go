package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// jobTimeout bounds how long a single attempt job may take to process.
const jobTimeout = 10 * time.Second

// JobHandler processes attempt jobs
type JobHandler func(ctx context.Context, job *AttemptJob) (*MasteryUpdate, error)

// Consumer consumes attempt jobs from the queue
type Consumer struct {
	conn       *Connection
	handler    JobHandler
	producer   *Producer
	workers    int
	prefetch   int
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int // Number of concurrent workers
	Prefetch int // Prefetch count per worker
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  4,
		Prefetch: 1, // Process one at a time per worker for fairness
	}
}

// NewConsumer creates a new queue consumer
func NewConsumer(conn *Connection, handler JobHandler, cfg ConsumerConfig) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		handler:  handler,
		producer: NewProducer(conn),
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	// Set QoS (prefetch)
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	// Start consuming
	msgs, err := ch.Consume(
		AttemptQueueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("starting attempt queue consumer", "workers", c.workers, "prefetch", c.prefetch)

	// Start worker goroutines
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

// worker processes messages from the queue
func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	slog.Info("worker started", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}

			c.processMessage(ctx, id, msg)
		}
	}
}

// processMessage handles a single message
func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	start := time.Now()

	// Parse job
	var job AttemptJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		slog.Error("failed to unmarshal job",
			"worker_id", workerID,
			"error", err,
		)
		// Reject without requeue for malformed messages
		_ = msg.Reject(false)
		return
	}

	slog.Info("processing attempt job",
		"worker_id", workerID,
		"job_id", job.ID,
		"learner_id", job.LearnerID,
		"command", job.Command,
	)

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	// Process job
	update, err := c.handler(jobCtx, &job)
	duration := time.Since(start)

	if err != nil {
		slog.Error("job processing failed",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
			"duration", duration,
		)

		// Create error result
		update = &MasteryUpdate{
			JobID:       job.ID,
			LearnerID:   job.LearnerID,
			Command:     job.Command,
			Dimension:   job.Dimension,
			Status:      "failed",
			Error:       err.Error(),
			Duration:    duration,
			CompletedAt: time.Now(),
		}
	} else {
		update.JobID = job.ID
		update.Duration = duration
		update.CompletedAt = time.Now()
		if update.Status == "" {
			update.Status = "completed"
		}

		slog.Info("job completed",
			"worker_id", workerID,
			"job_id", job.ID,
			"status", update.Status,
			"duration", duration,
		)
	}

	// Publish update
	if err := c.producer.PublishMasteryUpdate(ctx, update); err != nil {
		slog.Error("failed to publish mastery update",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
		)
	}

	// Acknowledge message
	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
		)
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}

// UpdateConsumer consumes mastery updates (for callers streaming progress
// back to clients)
type UpdateConsumer struct {
	conn       *Connection
	handlers   map[string]UpdateHandler
	handlersMu sync.RWMutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// UpdateHandler handles a mastery update for a specific job
type UpdateHandler func(update *MasteryUpdate)

// NewUpdateConsumer creates an update consumer
func NewUpdateConsumer(conn *Connection) *UpdateConsumer {
	return &UpdateConsumer{
		conn:     conn,
		handlers: make(map[string]UpdateHandler),
	}
}

// Subscribe registers a handler for updates of a specific job
func (uc *UpdateConsumer) Subscribe(jobID string, handler UpdateHandler) {
	uc.handlersMu.Lock()
	defer uc.handlersMu.Unlock()
	uc.handlers[jobID] = handler
}

// Unsubscribe removes a handler
func (uc *UpdateConsumer) Unsubscribe(jobID string) {
	uc.handlersMu.Lock()
	defer uc.handlersMu.Unlock()
	delete(uc.handlers, jobID)
}

// Start begins consuming updates
func (uc *UpdateConsumer) Start(ctx context.Context) error {
	ctx, uc.cancelFunc = context.WithCancel(ctx)

	ch := uc.conn.Channel()

	msgs, err := ch.Consume(
		MasteryQueueName,
		"",    // consumer tag
		true,  // auto-ack (updates are fire-and-forget)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start update consumer: %w", err)
	}

	uc.wg.Add(1)
	go uc.consume(ctx, msgs)

	return nil
}

func (uc *UpdateConsumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer uc.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var update MasteryUpdate
			if err := json.Unmarshal(msg.Body, &update); err != nil {
				slog.Error("failed to unmarshal update", "error", err)
				continue
			}

			// Find handler
			uc.handlersMu.RLock()
			handler, ok := uc.handlers[update.JobID.String()]
			uc.handlersMu.RUnlock()

			if ok {
				handler(&update)
			}
		}
	}
}

// Stop stops the update consumer
func (uc *UpdateConsumer) Stop() {
	if uc.cancelFunc != nil {
		uc.cancelFunc()
	}
	uc.wg.Wait()
}
