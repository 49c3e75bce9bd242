package mlclient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"
)

// Resilient wraps a Provider with resilience patterns from fortify. The
// availability flag mirrors the circuit breaker so callers can check whether
// to bother asking before falling back to local heuristics.
type Resilient struct {
	provider       Provider
	circuitBreaker circuitbreaker.CircuitBreaker[any]
	retrier        retry.Retry[any]
	bulkhead       bulkhead.Bulkhead[any]
	rateLimit      ratelimit.RateLimiter
	unavailable    atomic.Bool
	logger         *slog.Logger
	name           string
}

// ResilientConfig holds configuration for the resilient wrapper.
type ResilientConfig struct {
	EnableCircuitBreaker bool
	EnableRetry          bool
	EnableBulkhead       bool
	EnableRateLimit      bool

	// MaxConcurrent for bulkhead (default: 8)
	MaxConcurrent int

	// RatePerSecond for rate limiting (default: 20)
	RatePerSecond int

	Logger *slog.Logger
}

// DefaultResilientConfig returns sensible defaults for the ML service.
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		EnableCircuitBreaker: true,
		EnableRetry:          true,
		EnableBulkhead:       true,
		EnableRateLimit:      true,
		MaxConcurrent:        8,
		RatePerSecond:        20,
	}
}

// NewResilient wraps a provider with resilience patterns using fortify.
func NewResilient(provider Provider, cfg ResilientConfig) *Resilient {
	r := &Resilient{
		provider: provider,
		logger:   cfg.Logger,
		name:     provider.Name(),
	}

	if cfg.EnableCircuitBreaker {
		r.circuitBreaker = circuitbreaker.New[any](circuitbreaker.Config{
			MaxRequests: 2,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				r.unavailable.Store(to == circuitbreaker.StateOpen)
				if r.logger != nil {
					r.logger.Warn("ml service circuit state change",
						"provider", r.name,
						"from", from.String(),
						"to", to.String())
				}
			},
		})
	}

	if cfg.EnableRetry {
		r.retrier = retry.New[any](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryableHTTPError,
		})
	}

	if cfg.EnableBulkhead {
		maxConcurrent := cfg.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 8
		}
		r.bulkhead = bulkhead.New[any](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxConcurrent * 2,
			QueueTimeout:  10 * time.Second,
		})
	}

	if cfg.EnableRateLimit {
		rate := cfg.RatePerSecond
		if rate <= 0 {
			rate = 20
		}
		r.rateLimit = ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    rate * 2,
			Interval: time.Second,
		})
	}

	return r
}

func (r *Resilient) Name() string {
	return r.name
}

// Available reports whether the circuit is closed. Callers should fall back
// to local heuristics when this is false rather than pay the open-circuit
// error path on every request.
func (r *Resilient) Available() bool {
	return !r.unavailable.Load()
}

func (r *Resilient) RecommendNext(ctx context.Context, learnerID uuid.UUID, rctx RecommendationContext) (*Recommendation, error) {
	out, err := r.execute(ctx, func(ctx context.Context) (any, error) {
		return r.provider.RecommendNext(ctx, learnerID, rctx)
	})
	if err != nil {
		return nil, err
	}
	return out.(*Recommendation), nil
}

func (r *Resilient) PredictOutcome(ctx context.Context, learnerID uuid.UUID, itemID string) (*OutcomePrediction, error) {
	out, err := r.execute(ctx, func(ctx context.Context) (any, error) {
		return r.provider.PredictOutcome(ctx, learnerID, itemID)
	})
	if err != nil {
		return nil, err
	}
	return out.(*OutcomePrediction), nil
}

func (r *Resilient) execute(ctx context.Context, operation func(context.Context) (any, error)) (any, error) {
	if r.rateLimit != nil {
		if !r.rateLimit.Allow(ctx, r.name) {
			return nil, fmt.Errorf("rate limit exceeded for %s: %w", r.name, ErrUnavailable)
		}
	}

	if r.bulkhead != nil {
		inner := operation
		operation = func(ctx context.Context) (any, error) {
			return r.bulkhead.Execute(ctx, inner)
		}
	}

	if r.circuitBreaker != nil && r.retrier != nil {
		return r.circuitBreaker.Execute(ctx, func(ctx context.Context) (any, error) {
			return r.retrier.Do(ctx, operation)
		})
	}

	if r.circuitBreaker != nil {
		return r.circuitBreaker.Execute(ctx, operation)
	}

	if r.retrier != nil {
		return r.retrier.Do(ctx, operation)
	}

	return operation(ctx)
}

// Close releases resources held by the wrapper.
func (r *Resilient) Close() error {
	if r.rateLimit != nil {
		return r.rateLimit.Close()
	}
	return nil
}

// isRetryableHTTPError checks whether an error carries a retryable HTTP
// status.
func isRetryableHTTPError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	for _, pattern := range []string{"status 429", "status 500", "status 502", "status 503", "status 504"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
