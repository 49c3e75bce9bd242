package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mnemo/internal/ability"
	"github.com/felixgeelhaar/mnemo/internal/calibration"
	"github.com/felixgeelhaar/mnemo/internal/config"
	"github.com/felixgeelhaar/mnemo/internal/decay"
	"github.com/felixgeelhaar/mnemo/internal/mastery"
	"github.com/felixgeelhaar/mnemo/internal/mlclient"
	"github.com/felixgeelhaar/mnemo/internal/queue"
	"github.com/felixgeelhaar/mnemo/internal/retention"
)

// AbilityStore reads per-dimension ability estimates for the read API.
type AbilityStore interface {
	GetAbility(ctx context.Context, learnerID uuid.UUID, dimension string) (ability.Record, error)
	ListAbilities(ctx context.Context, learnerID uuid.UUID) ([]ability.Record, error)
}

// ItemStore covers the item, response, and parameter persistence the API
// touches. Both storage backends satisfy it.
type ItemStore interface {
	SaveItem(ctx context.Context, item calibration.Item) error
	RecordResponse(ctx context.Context, resp calibration.Response) error
	GetParameters(ctx context.Context, itemID string) (calibration.Parameters, error)
}

// AttemptPublisher enqueues attempt jobs for asynchronous grading.
type AttemptPublisher interface {
	PublishAttempt(ctx context.Context, job *queue.AttemptJob) error
}

// AttemptArchive keeps a queryable history of graded attempts. Nil when the
// active storage backend does not archive attempts.
type AttemptArchive interface {
	Record(ctx context.Context, job *queue.AttemptJob) error
	ListRecent(ctx context.Context, learnerID uuid.UUID, limit int) ([]queue.AttemptJob, error)
	CountByCommand(ctx context.Context, learnerID uuid.UUID, command string) (int, error)
}

// ReviewStore persists per-item spaced review states.
type ReviewStore interface {
	GetReview(ctx context.Context, learnerID uuid.UUID, itemID string) (retention.State, error)
	SaveReview(ctx context.Context, learnerID uuid.UUID, state retention.State) error
	ListDue(ctx context.Context, learnerID uuid.UUID, now time.Time, limit int) ([]retention.State, error)
}

// Server represents the mnemo daemon HTTP server
type Server struct {
	cfg    *config.LocalConfig
	server *http.Server
	router *http.ServeMux

	tracker     *mastery.Tracker
	masteries   mastery.Store
	abilities   AbilityStore
	items       ItemStore
	reviews     ReviewStore
	producer    AttemptPublisher
	attempts    AttemptArchive
	recommender mlclient.Provider
	reviewLimit int
}

// ServerConfig holds the services a new server is wired with. Recommender
// may be nil when the ML service is disabled, Attempts when the backend has
// no attempt archive.
type ServerConfig struct {
	Config      *config.LocalConfig
	Tracker     *mastery.Tracker
	Masteries   mastery.Store
	Abilities   AbilityStore
	Items       ItemStore
	Reviews     ReviewStore
	Producer    AttemptPublisher
	Attempts    AttemptArchive
	Recommender mlclient.Provider
	ReviewLimit int
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		cfg:         cfg.Config,
		router:      http.NewServeMux(),
		tracker:     cfg.Tracker,
		masteries:   cfg.Masteries,
		abilities:   cfg.Abilities,
		items:       cfg.Items,
		reviews:     cfg.Reviews,
		producer:    cfg.Producer,
		attempts:    cfg.Attempts,
		recommender: cfg.Recommender,
		reviewLimit: cfg.ReviewLimit,
	}
	if s.reviewLimit <= 0 {
		s.reviewLimit = 20
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	handler := recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Attempts
	s.router.HandleFunc("POST /v1/attempts", s.handleCreateAttempt)
	s.router.HandleFunc("GET /v1/learners/{id}/attempts", s.handleListAttempts)

	// Ability estimates
	s.router.HandleFunc("GET /v1/learners/{id}/abilities", s.handleListAbilities)
	s.router.HandleFunc("GET /v1/learners/{id}/abilities/{dimension}", s.handleGetAbility)

	// Mastery & decay
	s.router.HandleFunc("GET /v1/learners/{id}/mastery", s.handleListMastery)
	s.router.HandleFunc("GET /v1/learners/{id}/mastery/{command}", s.handleGetMastery)
	s.router.HandleFunc("GET /v1/learners/{id}/review", s.handleReviewCommands)
	s.router.HandleFunc("POST /v1/learners/{id}/gate", s.handleCheckGate)

	// Spaced review queue
	s.router.HandleFunc("GET /v1/learners/{id}/queue", s.handleReviewQueue)
	s.router.HandleFunc("POST /v1/learners/{id}/reviews/{item}", s.handleGradeReview)

	// Items
	s.router.HandleFunc("POST /v1/items", s.handleCreateItem)
	s.router.HandleFunc("GET /v1/items/{id}/parameters", s.handleGetParameters)

	// Recommendations
	s.router.HandleFunc("GET /v1/learners/{id}/next", s.handleRecommendNext)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting mnemo daemon",
		"addr", s.server.Addr,
		"ml_provider", s.providerName(),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")
	return s.server.Shutdown(ctx)
}

func (s *Server) providerName() string {
	if s.recommender == nil {
		return "none"
	}
	return s.recommender.Name()
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":      "running",
		"version":     "0.1.0",
		"ml_provider": s.providerName(),
	})
}

type attemptRequest struct {
	LearnerID      uuid.UUID            `json:"learner_id"`
	Dimension      string               `json:"dimension"`
	Command        string               `json:"command"`
	ItemID         string               `json:"item_id,omitempty"`
	ItemDifficulty float64              `json:"item_difficulty"`
	Correct        bool                 `json:"correct"`
	Context        queue.AttemptContext `json:"context"`
}

// handleCreateAttempt enqueues an attempt for asynchronous grading. When the
// attempt names a calibrated item, the response is also archived for the
// next batch calibration with the learner's ability at answer time.
func (s *Server) handleCreateAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.LearnerID == uuid.Nil || req.Command == "" || req.Dimension == "" {
		s.jsonError(w, http.StatusBadRequest, "learner_id, dimension, and command are required", nil)
		return
	}

	job := queue.CreateAttemptJob(req.LearnerID, req.Dimension, req.Command, req.ItemDifficulty, req.Correct, req.Context)
	job.ItemID = req.ItemID

	if err := s.producer.PublishAttempt(r.Context(), job); err != nil {
		s.jsonError(w, http.StatusServiceUnavailable, "failed to enqueue attempt", err)
		return
	}

	if s.attempts != nil {
		if err := s.attempts.Record(r.Context(), job); err != nil {
			slog.Warn("failed to archive attempt", "job_id", job.ID, "error", err)
		}
	}

	if req.ItemID != "" {
		theta := ability.InitialTheta
		if rec, err := s.abilities.GetAbility(r.Context(), req.LearnerID, req.Dimension); err == nil {
			theta = rec.Theta
		}
		resp := calibration.Response{
			ItemID:    req.ItemID,
			LearnerID: req.LearnerID,
			Ability:   theta,
			Correct:   req.Correct,
			At:        time.Now(),
		}
		if err := s.items.RecordResponse(r.Context(), resp); err != nil {
			slog.Warn("failed to archive calibration response", "item_id", req.ItemID, "error", err)
		}
	}

	s.jsonResponse(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": "queued",
	})
}

// handleListAttempts returns a learner's archived attempt history, newest
// first. Only the postgres backend keeps the archive.
func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r)
	if !ok {
		return
	}
	if s.attempts == nil {
		s.jsonError(w, http.StatusNotFound, "attempt archive not available on this backend", nil)
		return
	}
	limit := s.intQuery(r, "limit", s.reviewLimit)

	jobs, err := s.attempts.ListRecent(r.Context(), learnerID, limit)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to list attempts", err)
		return
	}

	result := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		result = append(result, map[string]interface{}{
			"id":         job.ID,
			"dimension":  job.Dimension,
			"command":    job.Command,
			"item_id":    job.ItemID,
			"correct":    job.Correct,
			"created_at": job.CreatedAt,
		})
	}

	response := map[string]interface{}{
		"learner_id": learnerID,
		"attempts":   result,
	}

	if command := r.URL.Query().Get("command"); command != "" {
		count, err := s.attempts.CountByCommand(r.Context(), learnerID, command)
		if err != nil {
			s.jsonError(w, http.StatusInternalServerError, "failed to count attempts", err)
			return
		}
		response["command_total"] = count
	}

	s.jsonResponse(w, http.StatusOK, response)
}

func (s *Server) handleListAbilities(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r)
	if !ok {
		return
	}

	recs, err := s.abilities.ListAbilities(r.Context(), learnerID)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to list abilities", err)
		return
	}

	result := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		result = append(result, abilityJSON(rec))
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"learner_id": learnerID,
		"abilities":  result,
	})
}

func (s *Server) handleGetAbility(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r)
	if !ok {
		return
	}
	dimension := r.PathValue("dimension")

	rec, err := s.abilities.GetAbility(r.Context(), learnerID, dimension)
	if err != nil {
		if errors.Is(err, ability.ErrNotFound) {
			s.jsonError(w, http.StatusNotFound, "no ability estimate for dimension", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to load ability", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, abilityJSON(rec))
}

func (s *Server) handleListMastery(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r)
	if !ok {
		return
	}

	recs, err := s.masteries.ListMasteries(r.Context(), learnerID)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to list mastery records", err)
		return
	}

	now := time.Now()
	result := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		result = append(result, map[string]interface{}{
			"command":        rec.Command,
			"stored_score":   rec.Score,
			"current_score":  rec.CurrentScore(now),
			"risk":           string(rec.Risk(now)),
			"total_attempts": rec.TotalAttempts,
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"learner_id": learnerID,
		"commands":   result,
	})
}

func (s *Server) handleGetMastery(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r)
	if !ok {
		return
	}
	command := r.PathValue("command")

	rec, err := s.masteries.GetMastery(r.Context(), learnerID, command)
	if err != nil {
		if errors.Is(err, mastery.ErrNotFound) {
			s.jsonError(w, http.StatusNotFound, "command never practiced", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to load mastery record", err)
		return
	}

	now := time.Now()
	days := s.intQuery(r, "days", 30)
	mem := rec.Memory()

	projection := make([]map[string]interface{}, 0, days)
	for _, point := range decay.Projection(mem, days, now) {
		projection = append(projection, map[string]interface{}{
			"day":       point.Day,
			"score":     point.Score,
			"retention": point.Retention,
			"risk":      string(point.Risk),
		})
	}

	suggestion := decay.SuggestReviewTiming(mem, now)

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"command":              rec.Command,
		"stored_score":         rec.Score,
		"current_score":        rec.CurrentScore(now),
		"risk":                 string(rec.Risk(now)),
		"stability":            rec.Stability,
		"total_attempts":       rec.TotalAttempts,
		"successful_attempts":  rec.SuccessfulAttempts,
		"consecutive_failures": rec.ConsecutiveFailures,
		"projection":           projection,
		"review_suggestion": map[string]interface{}{
			"urgency": suggestion.Urgency,
			"days":    suggestion.Days,
			"reason":  suggestion.Reason,
		},
	})
}

func (s *Server) handleReviewCommands(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r)
	if !ok {
		return
	}
	limit := s.intQuery(r, "limit", s.reviewLimit)

	items, err := s.tracker.CommandsNeedingReview(r.Context(), learnerID, limit)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to build review list", err)
		return
	}

	result := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		result = append(result, map[string]interface{}{
			"command":        item.Command,
			"current_score":  item.CurrentScore,
			"decay_amount":   item.DecayAmount,
			"days_since_use": item.DaysSinceUse,
			"risk":           string(item.Risk),
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"learner_id": learnerID,
		"items":      result,
	})
}

type gateRequest struct {
	Commands []string `json:"commands"`
}

func (s *Server) handleCheckGate(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r)
	if !ok {
		return
	}

	var req gateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Commands) == 0 {
		s.jsonError(w, http.StatusBadRequest, "commands are required", nil)
		return
	}

	status, err := s.tracker.CheckGate(r.Context(), learnerID, req.Commands)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to check gate", err)
		return
	}

	blocked := make([]map[string]interface{}, 0, len(status.Blocked))
	blockedCommands := make([]string, 0, len(status.Blocked))
	for _, check := range status.Blocked {
		blockedCommands = append(blockedCommands, check.Command)
		blocked = append(blocked, map[string]interface{}{
			"command":         check.Command,
			"reason":          string(check.Reason),
			"current_score":   check.CurrentScore,
			"required_score":  check.RequiredScore,
			"attempts_needed": check.AttemptsNeeded,
		})
	}

	response := map[string]interface{}{
		"can_progress":   status.CanProgress,
		"total_commands": status.TotalCommands,
		"mastered_count": status.MasteredCount,
		"blocked":        blocked,
	}

	if !status.CanProgress {
		drills, err := s.tracker.RemedialDrills(r.Context(), learnerID, blockedCommands)
		if err != nil {
			s.jsonError(w, http.StatusInternalServerError, "failed to build drills", err)
			return
		}
		drillJSON := make([]map[string]interface{}, 0, len(drills))
		for _, drill := range drills {
			drillJSON = append(drillJSON, map[string]interface{}{
				"command":         drill.Command,
				"current_score":   drill.CurrentScore,
				"hint_level":      string(drill.HintLevel),
				"exercise_type":   string(drill.ExerciseType),
				"attempts_needed": drill.AttemptsNeeded,
			})
		}
		response["drills"] = drillJSON
	}

	s.jsonResponse(w, http.StatusOK, response)
}

func (s *Server) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r)
	if !ok {
		return
	}
	limit := s.intQuery(r, "limit", s.reviewLimit)
	now := time.Now()

	due, err := s.reviews.ListDue(r.Context(), learnerID, now, 0)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load due reviews", err)
		return
	}

	entries := retention.ReviewQueue(due, now, limit)
	result := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		result = append(result, map[string]interface{}{
			"item_id":        entry.State.ItemID,
			"urgency":        entry.Urgency,
			"overdue":        entry.Overdue,
			"stability":      entry.State.Stability,
			"reps":           entry.State.Reps,
			"next_review_at": entry.State.NextReviewAt,
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"learner_id": learnerID,
		"queue":      result,
	})
}

type gradeRequest struct {
	Grade int `json:"grade"`
}

// handleGradeReview applies one review grade to an item's schedule. A first
// review starts from the default state.
func (s *Server) handleGradeReview(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r)
	if !ok {
		return
	}
	itemID := r.PathValue("item")

	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	grade := retention.Grade(req.Grade)
	if !grade.IsValid() {
		s.jsonError(w, http.StatusBadRequest, "grade must be between 1 and 4", nil)
		return
	}

	prior, err := s.reviews.GetReview(r.Context(), learnerID, itemID)
	if err != nil {
		if !errors.Is(err, retention.ErrNotFound) {
			s.jsonError(w, http.StatusInternalServerError, "failed to load review state", err)
			return
		}
		prior = retention.DefaultState(itemID)
	}

	next := retention.Schedule(grade, prior, time.Now())
	if err := s.reviews.SaveReview(r.Context(), learnerID, next); err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to save review state", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"item_id":        next.ItemID,
		"grade":          grade.String(),
		"stability":      next.Stability,
		"difficulty":     next.Difficulty,
		"interval_days":  next.IntervalDays,
		"reps":           next.Reps,
		"lapses":         next.Lapses,
		"next_review_at": next.NextReviewAt,
		"retention":      next.RetentionProbability,
	})
}

type itemRequest struct {
	ID          string `json:"id"`
	MCQ         bool   `json:"mcq"`
	OptionCount int    `json:"option_count"`
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID == "" {
		s.jsonError(w, http.StatusBadRequest, "item id is required", nil)
		return
	}

	item := calibration.Item{ID: req.ID, MCQ: req.MCQ, OptionCount: req.OptionCount}
	if err := s.items.SaveItem(r.Context(), item); err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to save item", err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]interface{}{
		"id": item.ID,
	})
}

func (s *Server) handleGetParameters(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	params, err := s.items.GetParameters(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, calibration.ErrItemNotFound) {
			s.jsonError(w, http.StatusNotFound, "item not found", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to load parameters", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"item_id":        params.ItemID,
		"difficulty":     params.Difficulty,
		"discrimination": params.Discrimination,
		"guessing":       params.Guessing,
		"calibrated_at":  params.CalibratedAt,
	})
}

// handleRecommendNext asks the ML service for the next practice item. When
// the service is disabled or unavailable the worst-decayed command is
// offered instead, so the learner always gets something to work on.
func (s *Server) handleRecommendNext(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r)
	if !ok {
		return
	}
	dimension := r.URL.Query().Get("dimension")

	if s.recommender != nil {
		rctx := mlclient.RecommendationContext{Dimension: dimension}
		if rec, err := s.abilities.GetAbility(r.Context(), learnerID, dimension); err == nil {
			rctx.TargetDifficulty = rec.Theta
		}

		recommendation, err := s.recommender.RecommendNext(r.Context(), learnerID, rctx)
		if err == nil {
			s.jsonResponse(w, http.StatusOK, map[string]interface{}{
				"source":           "ml",
				"item_id":          recommendation.ItemID,
				"topic":            recommendation.Topic,
				"difficulty":       recommendation.Difficulty,
				"reason":           recommendation.Reason,
				"difficulty_match": recommendation.DifficultyMatch,
			})
			return
		}
		slog.Warn("ml recommendation failed, falling back", "learner_id", learnerID, "error", err)
	}

	items, err := s.tracker.CommandsNeedingReview(r.Context(), learnerID, 1)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to pick fallback item", err)
		return
	}
	if len(items) == 0 {
		s.jsonResponse(w, http.StatusOK, map[string]interface{}{
			"source": "fallback",
			"reason": "nothing needs review",
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"source":        "fallback",
		"command":       items[0].Command,
		"current_score": items[0].CurrentScore,
		"risk":          string(items[0].Risk),
		"reason":        "most decayed command",
	})
}

// Helpers

func (s *Server) learnerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid learner id", err)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func abilityJSON(rec ability.Record) map[string]interface{} {
	return map[string]interface{}{
		"dimension":      rec.Dimension,
		"theta":          rec.Theta,
		"standard_error": rec.StandardError,
		"scaled_score":   ability.ScaledScore(rec.Theta),
		"observations":   rec.Observations,
		"updated_at":     rec.UpdatedAt,
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}
