package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/footyodds/stats-api/internal/config"
	"github.com/footyodds/stats-api/internal/logic"
	"github.com/footyodds/stats-api/internal/models"
)

// matchWriter is satisfied by both match store implementations.
type matchWriter interface {
	Migrate(ctx context.Context) error
	InsertMatches(ctx context.Context, matches []models.MatchRecord) error
}

func main() {
	seasons := flag.Int("seasons", 3, "number of seasons to generate")
	competition := flag.String("competition", "Synthetic League", "competition name")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, closeFn, err := openWriter(ctx, cfg)
	if err != nil {
		sugar.Fatalw("Failed to open match store", "driver", cfg.MatchDBDriver, "error", err)
	}
	defer closeFn()

	if err := store.Migrate(ctx); err != nil {
		sugar.Fatalw("Migration failed", "error", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	teams := defaultTeams()
	start := time.Date(time.Now().Year()-*seasons, 8, 10, 15, 0, 0, 0, time.UTC)

	total := 0
	for i := 0; i < *seasons; i++ {
		year := start.Year() + i
		season := fmt.Sprintf("%d/%02d", year, (year+1)%100)
		matches := generateSeason(rng, teams, *competition, season, start.AddDate(i, 0, 0))
		if err := store.InsertMatches(ctx, matches); err != nil {
			sugar.Fatalw("Insert failed", "season", season, "error", err)
		}
		total += len(matches)
		sugar.Infow("Seeded season", "season", season, "matches", len(matches))
	}

	sugar.Infow("Seeding complete", "matches", total, "teams", len(teams), "seed", *seed)
}

func openWriter(ctx context.Context, cfg *config.Config) (matchWriter, func(), error) {
	if cfg.MatchDBDriver == config.DriverPgx {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return logic.NewPgMatchStore(pool), pool.Close, nil
	}
	s, err := logic.OpenSQLMatchStore(cfg.MatchDBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}
