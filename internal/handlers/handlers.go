package handlers

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/footyodds/stats-api/internal/logic"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// AuditQueue is the prediction audit worker pool as seen by readiness checks.
type AuditQueue interface {
	QueueDepth() int
}

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

type Config struct {
	AuditQueue AuditQueue
	// Checks are reported by /ready, keyed by dependency name.
	Checks map[string]HealthCheck
	Logger *zap.Logger
	// Services
	Predictions logic.PredictionService
	MatchStats  logic.MatchStatsService
	Features    logic.TeamFeatureService
}

type Handler struct {
	audit       AuditQueue
	checks      map[string]HealthCheck
	logger      *zap.SugaredLogger
	validator   *validator.Validate
	predictions logic.PredictionService
	matchStats  logic.MatchStatsService
	features    logic.TeamFeatureService
}

func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		audit:       cfg.AuditQueue,
		checks:      cfg.Checks,
		logger:      logger.Sugar(),
		validator:   validator.New(),
		predictions: cfg.Predictions,
		matchStats:  cfg.MatchStats,
		features:    cfg.Features,
	}
}

// RegisterRoutes mounts the API endpoints. cmd/api mounts them under /api/v1.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/predictions", h.Predict)
	r.Post("/predictions/batch", h.PredictBatch)

	r.Get("/stats/matches", h.GetMatchStats)

	r.Get("/teams/{team}/features", h.GetTeamFeatures)
	r.Get("/teams/{home}/h2h/{away}", h.GetHeadToHead)

	r.Get("/ensemble/weights", h.GetEnsembleWeights)
	r.Post("/ensemble/feedback", h.SubmitFeedback)
}
