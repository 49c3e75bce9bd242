// Package mlclient talks to the external adaptive-ML service. The engine
// treats it as an optional capability: callers fall back to local heuristics
// when the service is unavailable.
package mlclient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrUnavailable = errors.New("ml service unavailable")

// RecommendationContext narrows what the service may recommend.
type RecommendationContext struct {
	Dimension        string
	RecentTopics     []string
	ExcludeItemIDs   []string
	TargetDifficulty float64
}

// Recommendation is the service's pick for the next practice item.
type Recommendation struct {
	ItemID          string
	Topic           string
	Difficulty      float64
	Reason          string
	DifficultyMatch float64
}

// OutcomePrediction is the service's forecast for a learner-item pairing.
type OutcomePrediction struct {
	SuccessProbability  float64
	ExpectedTimeSeconds float64
	Confidence          float64
}

// Provider is the minimal surface the engine needs from the ML service.
type Provider interface {
	Name() string
	RecommendNext(ctx context.Context, learnerID uuid.UUID, rctx RecommendationContext) (*Recommendation, error)
	PredictOutcome(ctx context.Context, learnerID uuid.UUID, itemID string) (*OutcomePrediction, error)
}
