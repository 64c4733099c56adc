package logic

import (
	"context"
	"fmt"

	"github.com/footyodds/stats-api/internal/models"
)

// PgMatchStore reads match history through a pgx pool.
type PgMatchStore struct {
	pg PgPool
}

func NewPgMatchStore(pg PgPool) *PgMatchStore {
	return &PgMatchStore{pg: pg}
}

// QueryMatches returns matches for the filter, most recent first.
func (s *PgMatchStore) QueryMatches(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error) {
	query, args, err := BuildMatchQuery(filter, DialectPostgres)
	if err != nil {
		return nil, err
	}

	rows, err := s.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("match query failed: %w", err)
	}
	defer rows.Close()

	matches := make([]models.MatchRecord, 0)
	for rows.Next() {
		var (
			m              models.MatchRecord
			result         string
			htHome, htAway *int
		)
		if err := rows.Scan(
			&m.ID, &m.HomeTeam, &m.AwayTeam, &m.Competition, &m.Season,
			&m.FullTimeHomeGoals, &m.FullTimeAwayGoals,
			&htHome, &htAway,
			&result, &m.BTTS, &m.Comeback, &m.MatchTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.HalfTimeHomeGoals = htHome
		m.HalfTimeAwayGoals = htAway
		m.Result = models.Outcome(result)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match row iteration failed: %w", err)
	}

	return matches, nil
}

func (s *PgMatchStore) Ping(ctx context.Context) error {
	return s.pg.Ping(ctx)
}

// InsertMatches writes records one statement per row.
func (s *PgMatchStore) InsertMatches(ctx context.Context, matches []models.MatchRecord) error {
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			return err
		}
		if _, err := s.pg.Exec(ctx, insertMatchSQL(DialectPostgres), insertMatchArgs(m, nil)...); err != nil {
			return fmt.Errorf("inserting match %s v %s: %w", m.HomeTeam, m.AwayTeam, err)
		}
	}
	return nil
}

// Migrate creates the matches table and indexes.
func (s *PgMatchStore) Migrate(ctx context.Context) error {
	for _, stmt := range migrations(DriverPostgres) {
		if _, err := s.pg.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
