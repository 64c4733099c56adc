package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/footyodds/stats-api/internal/config"
	"github.com/footyodds/stats-api/internal/handlers"
	"github.com/footyodds/stats-api/internal/logic"
	"github.com/footyodds/stats-api/internal/worker"
)

// @title Football Match Prediction API
// @version 1.0
// @description Ensemble match outcome predictions and match history statistics.
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	sugar := logger.Sugar()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Match history
	store, err := openMatchStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	sugar.Infow("Match store ready", "driver", cfg.MatchDBDriver)

	checks := map[string]handlers.HealthCheck{
		"matches": store.Ping,
	}

	// Redis: feature cache and weight persistence
	var (
		cache     logic.FeatureCache
		persister logic.WeightPersister
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			sugar.Warnw("Redis unreachable at startup, continuing", "error", err)
		}
		cache = logic.NewRedisFeatureCache(rdb, cfg.FeatureCacheTTL, logger)
		persister = logic.NewRedisWeightPersister(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	weights, err := logic.NewWeightStore(logic.DefaultEnsembleWeights(), persister, logger)
	if err != nil {
		return err
	}
	if err := weights.Restore(ctx); err != nil {
		sugar.Warnw("Could not restore ensemble weights, using defaults", "error", err)
	}

	var gbm *logic.GBMParams
	if cfg.GBMModelPath != "" {
		if gbm, err = logic.LoadGBMParams(cfg.GBMModelPath); err != nil {
			return err
		}
		sugar.Infow("Loaded gradient-boosted model", "path", cfg.GBMModelPath, "version", gbm.Version)
	}

	// ClickHouse: prediction audit log
	var (
		recorder logic.PredictionRecorder
		audit    handlers.AuditQueue
		pool     *worker.Pool
	)
	if cfg.ClickHouseURL != "" {
		opts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
		if err != nil {
			return fmt.Errorf("invalid CLICKHOUSE_URL: %w", err)
		}
		chConn, err := clickhouse.Open(opts)
		if err != nil {
			return fmt.Errorf("failed to open clickhouse: %w", err)
		}
		defer chConn.Close()
		if err := worker.EnsureSchema(ctx, chConn); err != nil {
			return err
		}

		pool = worker.NewPool(worker.PoolConfig{
			WorkerCount:   cfg.WorkerCount,
			QueueSize:     cfg.QueueSize,
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval,
			ClickHouse:    chConn,
			Logger:        logger,
		})
		pool.Start(ctx)
		recorder, audit = pool, pool
		checks["clickhouse"] = chConn.Ping
	}

	features := logic.NewFeatureExtractor(store, cache, logic.FeatureConfig{
		RecentMatchLimit:        cfg.RecentMatchLimit,
		H2HLimit:                cfg.H2HMatchLimit,
		FetchTimeout:            cfg.FetchTimeout,
		TransitionPriorStrength: logic.DefaultFeatureConfig().TransitionPriorStrength,
	})

	engine, err := logic.NewPredictionEngine(features, store, logic.EngineConfig{
		Models:  logic.DefaultModels(gbm),
		Weights: weights,
		Ensemble: logic.EnsembleConfig{
			DisagreementThreshold: cfg.DisagreementThreshold,
			DisagreementPenalty:   cfg.DisagreementPenalty,
		},
		ModelVersion:     cfg.ModelVersion,
		BatchConcurrency: cfg.BatchConcurrency,
		MaxBatchSize:     cfg.MaxBatchSize,
		Recorder:         recorder,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	// AMQP: model feedback
	var consumer *worker.FeedbackConsumer
	if cfg.AMQPURL != "" {
		consumer = worker.NewFeedbackConsumer(worker.FeedbackConsumerConfig{
			URL:     cfg.AMQPURL,
			Queue:   cfg.FeedbackQueue,
			Applier: engine,
			Logger:  logger,
		})
		if err := consumer.Start(ctx); err != nil {
			sugar.Warnw("Feedback consumer disabled", "error", err)
			consumer = nil
		}
	}

	h := handlers.New(handlers.Config{
		AuditQueue:  audit,
		Checks:      checks,
		Logger:      logger,
		Predictions: engine,
		MatchStats:  logic.NewMatchStatsService(store),
		Features:    features,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      newRouter(cfg, h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		sugar.Infow("HTTP server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		sugar.Infow("Shutting down", "signal", sig.String())
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("HTTP server shutdown failed", "error", err)
	}

	if consumer != nil {
		consumer.Stop()
	}
	// After the server so in-flight predictions are still recorded.
	if pool != nil {
		pool.Stop()
	}

	sugar.Info("Server stopped")
	return nil
}
