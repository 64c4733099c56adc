package logic

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/footyodds/stats-api/internal/models"
)

// PgPool defines the interface for PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// RedisClient defines the interface for Redis client
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// MatchQuerier is the match history collaborator. Results are ordered by
// match time, most recent first. An error means the store itself could not be
// reached or queried; an empty result is not an error.
type MatchQuerier interface {
	QueryMatches(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error)
	Ping(ctx context.Context) error
}

// FeatureCache stores extracted team features between requests.
type FeatureCache interface {
	Get(ctx context.Context, key string) (*models.TeamFeatures, bool)
	Set(ctx context.Context, key string, features *models.TeamFeatures)
}

// PredictionRecorder receives served predictions for the audit log. Record
// must not block.
type PredictionRecorder interface {
	Record(input models.PredictionInput, output *models.PredictionOutput) bool
}

// PredictionService is the engine surface used by handlers.
type PredictionService interface {
	Predict(ctx context.Context, input models.PredictionInput) (*models.PredictionOutput, error)
	PredictBatch(ctx context.Context, inputs []models.PredictionInput) ([]models.BatchPredictionResult, error)
	Weights() models.EnsembleWeights
	ApplyFeedback(ctx context.Context, feedback models.PredictionFeedback) (models.EnsembleWeights, error)
}

// MatchStatsService aggregates stored matches for dashboard cards.
type MatchStatsService interface {
	GetMatchStats(ctx context.Context, filter models.MatchFilter) (*models.MatchStats, error)
	GetDetailedMatchStats(ctx context.Context, filter models.MatchFilter) (*models.DetailedMatchStats, error)
}

// TeamFeatureService exposes extracted features.
type TeamFeatureService interface {
	GetTeamFeatures(ctx context.Context, team string, mc *models.MatchContext) (*models.TeamFeatures, error)
	GetHeadToHeadFeatures(ctx context.Context, homeTeam, awayTeam string, mc *models.MatchContext) (*models.HeadToHead, error)
}
