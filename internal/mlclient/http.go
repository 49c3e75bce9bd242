package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HTTPProvider implements Provider against the Flask ML microservice.
type HTTPProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// HTTPConfig holds configuration for the HTTP provider.
type HTTPConfig struct {
	BaseURL string // default: http://localhost:5000
	Token   string
}

func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5000"
	}
	return &HTTPProvider{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: newMLHTTPClient(),
	}
}

func (p *HTTPProvider) Name() string {
	return "flask-ml"
}

type recommendRequest struct {
	LearnerID string           `json:"learner_id"`
	Context   recommendContext `json:"context"`
}

type recommendContext struct {
	Dimension        string   `json:"skill_dimension,omitempty"`
	RecentTopics     []string `json:"recent_topics,omitempty"`
	ExcludeItemIDs   []string `json:"exclude_item_ids,omitempty"`
	TargetDifficulty float64  `json:"target_difficulty,omitempty"`
}

type recommendResponse struct {
	Item struct {
		ID         string  `json:"id"`
		Topic      string  `json:"topic"`
		Difficulty float64 `json:"difficulty"`
	} `json:"item"`
	Reason          string  `json:"reason"`
	DifficultyMatch float64 `json:"difficulty_match"`
}

func (p *HTTPProvider) RecommendNext(ctx context.Context, learnerID uuid.UUID, rctx RecommendationContext) (*Recommendation, error) {
	req := recommendRequest{
		LearnerID: learnerID.String(),
		Context: recommendContext{
			Dimension:        rctx.Dimension,
			RecentTopics:     rctx.RecentTopics,
			ExcludeItemIDs:   rctx.ExcludeItemIDs,
			TargetDifficulty: rctx.TargetDifficulty,
		},
	}

	var resp recommendResponse
	if err := p.post(ctx, "/api/v1/adaptive/next_item", req, &resp); err != nil {
		return nil, err
	}

	return &Recommendation{
		ItemID:          resp.Item.ID,
		Topic:           resp.Item.Topic,
		Difficulty:      resp.Item.Difficulty,
		Reason:          resp.Reason,
		DifficultyMatch: resp.DifficultyMatch,
	}, nil
}

type predictRequest struct {
	LearnerID string `json:"learner_id"`
	ItemID    string `json:"item_id"`
}

type predictResponse struct {
	SuccessProbability  float64 `json:"success_probability"`
	ExpectedTimeSeconds float64 `json:"expected_time_seconds"`
	Confidence          float64 `json:"confidence"`
}

func (p *HTTPProvider) PredictOutcome(ctx context.Context, learnerID uuid.UUID, itemID string) (*OutcomePrediction, error) {
	req := predictRequest{LearnerID: learnerID.String(), ItemID: itemID}

	var resp predictResponse
	if err := p.post(ctx, "/api/v1/adaptive/predict", req, &resp); err != nil {
		return nil, err
	}

	return &OutcomePrediction{
		SuccessProbability:  resp.SuccessProbability,
		ExpectedTimeSeconds: resp.ExpectedTimeSeconds,
		Confidence:          resp.Confidence,
	}, nil
}

func (p *HTTPProvider) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// newMLHTTPClient builds an HTTP client with timeouts tuned for the ML
// service's short synchronous endpoints.
func newMLHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   15 * time.Second,
		Transport: transport,
	}
}
