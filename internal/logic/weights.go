package logic

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/footyodds/stats-api/internal/models"
)

const (
	defaultLearningRate = 0.1
	weightsRedisKey     = "ensemble:weights"
)

// WeightPersister saves and restores the ensemble weights.
type WeightPersister interface {
	Load(ctx context.Context) (models.EnsembleWeights, error)
	Save(ctx context.Context, weights models.EnsembleWeights) error
}

// WeightStore holds the process-wide ensemble weights. Readers always see a
// complete normalised map; writers publish a new map with compare-and-swap.
type WeightStore struct {
	current   atomic.Pointer[models.EnsembleWeights]
	persister WeightPersister
	logger    *zap.SugaredLogger

	// saveMu orders writes to the persister. Each save writes the snapshot
	// current at the time the lock is held.
	saveMu sync.Mutex
	saved  *models.EnsembleWeights
}

// NewWeightStore publishes the normalised initial weights. persister may be
// nil.
func NewWeightStore(initial models.EnsembleWeights, persister WeightPersister, logger *zap.Logger) (*WeightStore, error) {
	norm, err := initial.Normalized()
	if err != nil {
		return nil, fmt.Errorf("initial weights: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &WeightStore{persister: persister, logger: logger.Sugar()}
	s.current.Store(&norm)
	return s, nil
}

// Snapshot returns a copy of the current weights.
func (s *WeightStore) Snapshot() models.EnsembleWeights {
	return (*s.current.Load()).Clone()
}

// Replace publishes a new weight map after normalising it.
func (s *WeightStore) Replace(weights models.EnsembleWeights) error {
	norm, err := weights.Normalized()
	if err != nil {
		return err
	}
	s.current.Store(&norm)
	return nil
}

// Restore loads persisted weights, keeping the current ones when nothing is
// stored or the stored map does not cover every configured model.
func (s *WeightStore) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	stored, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		return nil
	}
	cur := s.Snapshot()
	for name := range cur {
		if _, ok := stored[name]; !ok {
			s.logger.Warnw("Ignoring persisted ensemble weights", "missing_model", name)
			return nil
		}
	}
	filtered := make(models.EnsembleWeights, len(cur))
	for name := range cur {
		filtered[name] = stored[name]
	}
	if err := s.Replace(filtered); err != nil {
		return fmt.Errorf("persisted weights: %w", err)
	}
	s.logger.Infow("Restored ensemble weights", "weights", filtered)
	return nil
}

// ApplyFeedback nudges each reported model's weight towards its share of the
// reported accuracy:
//
//	w' = (1-lr)*w + lr*mass*acc/sum(acc)
//
// where mass is the current weight held by the reported models, so models
// without feedback keep their weight. The result is renormalised.
func (s *WeightStore) ApplyFeedback(ctx context.Context, fb models.PredictionFeedback) (models.EnsembleWeights, error) {
	lr := fb.LearningRate
	if lr == 0 {
		lr = defaultLearningRate
	}
	if lr < 0 || lr > 1 {
		return nil, newPredictionError(KindValidation, "apply feedback", fmt.Errorf("learning rate %v out of range", lr))
	}

	for {
		old := s.current.Load()
		cur := *old

		var accSum, mass float64
		reported := 0
		for name, acc := range fb.ModelAccuracy {
			if _, ok := cur[name]; !ok {
				continue
			}
			if acc < 0 || acc > 1 {
				return nil, newPredictionError(KindValidation, "apply feedback", fmt.Errorf("accuracy %v for %s out of range", acc, name))
			}
			accSum += acc
			mass += cur[name]
			reported++
		}
		if reported == 0 {
			return nil, newPredictionError(KindValidation, "apply feedback", errors.New("no known models in feedback"))
		}
		if accSum == 0 {
			return cur.Clone(), nil
		}

		next := cur.Clone()
		for name, acc := range fb.ModelAccuracy {
			w, ok := cur[name]
			if !ok {
				continue
			}
			next[name] = (1-lr)*w + lr*mass*acc/accSum
		}
		norm, err := next.Normalized()
		if err != nil {
			return nil, newPredictionError(KindModelFailure, "apply feedback", err)
		}

		if s.current.CompareAndSwap(old, &norm) {
			s.persist(ctx)
			return norm.Clone(), nil
		}
	}
}

// persist saves the latest snapshot. A writer that lost the race to a newer
// snapshot saves that one instead, so the persister never ends up older than
// memory.
func (s *WeightStore) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	latest := s.current.Load()
	if latest == s.saved {
		return
	}
	if err := s.persister.Save(ctx, *latest); err != nil {
		s.logger.Warnw("Failed to persist ensemble weights", "error", err)
		return
	}
	s.saved = latest
}

// RedisWeightPersister keeps the weights in a Redis hash.
type RedisWeightPersister struct {
	redis RedisClient
	key   string
}

func NewRedisWeightPersister(redis RedisClient) *RedisWeightPersister {
	return &RedisWeightPersister{redis: redis, key: weightsRedisKey}
}

func (p *RedisWeightPersister) Load(ctx context.Context) (models.EnsembleWeights, error) {
	raw, err := p.redis.HGetAll(ctx, p.key).Result()
	if err != nil {
		return nil, fmt.Errorf("loading weights: %w", err)
	}
	weights := make(models.EnsembleWeights, len(raw))
	for name, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("weight for %s: %w", name, err)
		}
		weights[name] = f
	}
	return weights, nil
}

func (p *RedisWeightPersister) Save(ctx context.Context, weights models.EnsembleWeights) error {
	values := make(map[string]interface{}, len(weights))
	for name, w := range weights {
		values[name] = strconv.FormatFloat(w, 'f', -1, 64)
	}
	if err := p.redis.HSet(ctx, p.key, values).Err(); err != nil {
		return fmt.Errorf("saving weights: %w", err)
	}
	return nil
}
