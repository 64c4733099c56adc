package logic

import (
	"context"
	"fmt"

	"github.com/footyodds/stats-api/internal/models"
)

type matchStatsService struct {
	matches MatchQuerier
}

func NewMatchStatsService(matches MatchQuerier) MatchStatsService {
	return &matchStatsService{matches: matches}
}

// GetMatchStats returns outcome, btts and goal aggregates for the matches
// selected by filter.
// @Summary Match Stats
// @Description Aggregate outcome percentages, btts, comebacks and average goals over stored matches
// @Tags Stats
// @Produce json
// @Param team query string false "Team name"
// @Param opponent query string false "Opponent (requires team)"
// @Param venue query string false "home or away (requires team)"
// @Param limit query int false "Most recent N matches" default(100)
// @Success 200 {object} models.MatchStats
// @Failure 503 {object} map[string]string "Match store unavailable"
// @Router /stats/matches [get]
func (s *matchStatsService) GetMatchStats(ctx context.Context, filter models.MatchFilter) (*models.MatchStats, error) {
	matches, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats := ComputeBasicStats(matches)
	return &stats, nil
}

// GetDetailedMatchStats extends GetMatchStats with goal splits, over/under
// lines, frequent scorelines and half-time transitions.
func (s *matchStatsService) GetDetailedMatchStats(ctx context.Context, filter models.MatchFilter) (*models.DetailedMatchStats, error) {
	matches, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats := ComputeDetailedStats(matches)
	return &stats, nil
}

func (s *matchStatsService) load(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error) {
	if err := filter.Validate(); err != nil {
		return nil, newPredictionError(KindValidation, "match stats", err)
	}
	matches, err := s.matches.QueryMatches(ctx, filter)
	if err != nil {
		return nil, newPredictionError(KindUpstreamUnavailable, "match stats", fmt.Errorf("match query failed: %w", err))
	}
	return matches, nil
}
