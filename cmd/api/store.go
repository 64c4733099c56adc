package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/footyodds/stats-api/internal/config"
	"github.com/footyodds/stats-api/internal/logic"
	"github.com/footyodds/stats-api/internal/models"
)

// matchStore is what the server needs from either store implementation.
type matchStore interface {
	QueryMatches(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error)
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// pgStore adapts the pgx-backed store to matchStore.
type pgStore struct {
	*logic.PgMatchStore
	pool *pgxpool.Pool
}

func (s pgStore) Close() error {
	s.pool.Close()
	return nil
}

func openMatchStore(ctx context.Context, cfg *config.Config) (matchStore, error) {
	var store matchStore

	switch cfg.MatchDBDriver {
	case config.DriverPgx:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		store = pgStore{PgMatchStore: logic.NewPgMatchStore(pool), pool: pool}
	default:
		s, err := logic.OpenSQLMatchStore(cfg.MatchDBDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = s
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
