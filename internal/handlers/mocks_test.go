package handlers

import (
	"context"

	"github.com/footyodds/stats-api/internal/models"
)

// MockPredictionService
type MockPredictionService struct {
	PredictFunc       func(ctx context.Context, input models.PredictionInput) (*models.PredictionOutput, error)
	PredictBatchFunc  func(ctx context.Context, inputs []models.PredictionInput) ([]models.BatchPredictionResult, error)
	ApplyFeedbackFunc func(ctx context.Context, fb models.PredictionFeedback) (models.EnsembleWeights, error)
	CurrentWeights    models.EnsembleWeights
}

func (m *MockPredictionService) Predict(ctx context.Context, input models.PredictionInput) (*models.PredictionOutput, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, input)
	}
	return &models.PredictionOutput{HomeTeam: input.HomeTeam, AwayTeam: input.AwayTeam}, nil
}

func (m *MockPredictionService) PredictBatch(ctx context.Context, inputs []models.PredictionInput) ([]models.BatchPredictionResult, error) {
	if m.PredictBatchFunc != nil {
		return m.PredictBatchFunc(ctx, inputs)
	}
	return nil, nil
}

func (m *MockPredictionService) Weights() models.EnsembleWeights {
	return m.CurrentWeights
}

func (m *MockPredictionService) ApplyFeedback(ctx context.Context, fb models.PredictionFeedback) (models.EnsembleWeights, error) {
	if m.ApplyFeedbackFunc != nil {
		return m.ApplyFeedbackFunc(ctx, fb)
	}
	return m.CurrentWeights, nil
}

// MockMatchStatsService
type MockMatchStatsService struct {
	GetMatchStatsFunc         func(ctx context.Context, filter models.MatchFilter) (*models.MatchStats, error)
	GetDetailedMatchStatsFunc func(ctx context.Context, filter models.MatchFilter) (*models.DetailedMatchStats, error)
}

func (m *MockMatchStatsService) GetMatchStats(ctx context.Context, filter models.MatchFilter) (*models.MatchStats, error) {
	if m.GetMatchStatsFunc != nil {
		return m.GetMatchStatsFunc(ctx, filter)
	}
	return &models.MatchStats{}, nil
}

func (m *MockMatchStatsService) GetDetailedMatchStats(ctx context.Context, filter models.MatchFilter) (*models.DetailedMatchStats, error) {
	if m.GetDetailedMatchStatsFunc != nil {
		return m.GetDetailedMatchStatsFunc(ctx, filter)
	}
	return &models.DetailedMatchStats{}, nil
}

// MockTeamFeatureService
type MockTeamFeatureService struct {
	GetTeamFeaturesFunc       func(ctx context.Context, team string, mc *models.MatchContext) (*models.TeamFeatures, error)
	GetHeadToHeadFeaturesFunc func(ctx context.Context, home, away string, mc *models.MatchContext) (*models.HeadToHead, error)
}

func (m *MockTeamFeatureService) GetTeamFeatures(ctx context.Context, team string, mc *models.MatchContext) (*models.TeamFeatures, error) {
	if m.GetTeamFeaturesFunc != nil {
		return m.GetTeamFeaturesFunc(ctx, team, mc)
	}
	return &models.TeamFeatures{Team: team}, nil
}

func (m *MockTeamFeatureService) GetHeadToHeadFeatures(ctx context.Context, home, away string, mc *models.MatchContext) (*models.HeadToHead, error) {
	if m.GetHeadToHeadFeaturesFunc != nil {
		return m.GetHeadToHeadFeaturesFunc(ctx, home, away, mc)
	}
	return &models.HeadToHead{HomeTeam: home, AwayTeam: away}, nil
}

type MockAuditQueue struct {
	Depth int
}

func (m *MockAuditQueue) QueueDepth() int { return m.Depth }
