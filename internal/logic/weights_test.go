package logic

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/footyodds/stats-api/internal/models"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func newTestWeightStore(t *testing.T, persister WeightPersister) *WeightStore {
	t.Helper()
	s, err := NewWeightStore(DefaultEnsembleWeights(), persister, nil)
	if err != nil {
		t.Fatalf("NewWeightStore() error = %v", err)
	}
	return s
}

func TestNewWeightStoreRejectsInvalid(t *testing.T) {
	if _, err := NewWeightStore(models.EnsembleWeights{ModelPoisson: 0}, nil, nil); err == nil {
		t.Error("expected error for zero weights")
	}
	if _, err := NewWeightStore(models.EnsembleWeights{ModelPoisson: -1, ModelMarkov: 2}, nil, nil); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := newTestWeightStore(t, nil)
	snap := s.Snapshot()
	snap[ModelPoisson] = 99
	if !approx(s.Snapshot()[ModelPoisson], 0.20) {
		t.Error("mutating a snapshot changed the store")
	}
}

func TestApplyFeedback(t *testing.T) {
	s := newTestWeightStore(t, nil)

	got, err := s.ApplyFeedback(context.Background(), models.PredictionFeedback{
		ModelAccuracy: map[string]float64{ModelPoisson: 0.9, ModelMarkov: 0.1},
		LearningRate:  0.5,
	})
	if err != nil {
		t.Fatalf("ApplyFeedback() error = %v", err)
	}

	// Reported mass 0.35 splits 0.315 / 0.035.
	want := models.EnsembleWeights{
		ModelEmpirical:       0.30,
		ModelGradientBoosted: 0.35,
		ModelPoisson:         0.5*0.20 + 0.5*0.315,
		ModelMarkov:          0.5*0.15 + 0.5*0.035,
	}
	for name, w := range want {
		if math.Abs(got[name]-w) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got[name], w)
		}
	}
	if math.Abs(got.Sum()-1) > 1e-9 {
		t.Errorf("weights sum to %v", got.Sum())
	}
	if s.Snapshot()[ModelPoisson] != got[ModelPoisson] {
		t.Error("store not updated")
	}
}

func TestApplyFeedbackEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown models only", func(t *testing.T) {
		s := newTestWeightStore(t, nil)
		_, err := s.ApplyFeedback(ctx, models.PredictionFeedback{ModelAccuracy: map[string]float64{"random_forest": 0.9}})
		if !IsValidation(err) {
			t.Errorf("error = %v, want validation", err)
		}
	})

	t.Run("unknown models ignored", func(t *testing.T) {
		s := newTestWeightStore(t, nil)
		got, err := s.ApplyFeedback(ctx, models.PredictionFeedback{
			ModelAccuracy: map[string]float64{"random_forest": 0.9, ModelPoisson: 1},
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := got["random_forest"]; ok {
			t.Error("unknown model added to weights")
		}
		// A single reported model keeps its own mass.
		if math.Abs(got[ModelPoisson]-0.20) > 1e-9 {
			t.Errorf("poisson = %v", got[ModelPoisson])
		}
	})

	t.Run("zero accuracy leaves weights", func(t *testing.T) {
		s := newTestWeightStore(t, nil)
		got, err := s.ApplyFeedback(ctx, models.PredictionFeedback{ModelAccuracy: map[string]float64{ModelPoisson: 0, ModelMarkov: 0}})
		if err != nil {
			t.Fatal(err)
		}
		if !approx(got[ModelPoisson], 0.20) || !approx(got[ModelMarkov], 0.15) {
			t.Errorf("weights changed: %v", got)
		}
	})

	t.Run("accuracy out of range", func(t *testing.T) {
		s := newTestWeightStore(t, nil)
		_, err := s.ApplyFeedback(ctx, models.PredictionFeedback{ModelAccuracy: map[string]float64{ModelPoisson: 1.5}})
		if !IsValidation(err) {
			t.Errorf("error = %v, want validation", err)
		}
	})
}

func TestWeightStoreConcurrentAccess(t *testing.T) {
	s := newTestWeightStore(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 400)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			acc := float64(i%10) / 10
			_, err := s.ApplyFeedback(ctx, models.PredictionFeedback{
				ModelAccuracy: map[string]float64{ModelEmpirical: acc, ModelPoisson: 1 - acc},
			})
			if err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				w := s.Snapshot()
				if len(w) != 4 || math.Abs(w.Sum()-1) > 1e-9 {
					errs <- errors.New("reader saw a partial weight map")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// gatedPersister records saves. The first Save blocks until release is
// closed.
type gatedPersister struct {
	mu      sync.Mutex
	saves   []models.EnsembleWeights
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedPersister) Load(ctx context.Context) (models.EnsembleWeights, error) {
	return nil, nil
}

func (p *gatedPersister) Save(ctx context.Context, w models.EnsembleWeights) error {
	first := false
	p.once.Do(func() { first = true })
	if first {
		close(p.entered)
		<-p.release
	}
	p.mu.Lock()
	p.saves = append(p.saves, w.Clone())
	p.mu.Unlock()
	return nil
}

func TestApplyFeedbackPersistsLatestSnapshot(t *testing.T) {
	p := &gatedPersister{entered: make(chan struct{}), release: make(chan struct{})}
	s := newTestWeightStore(t, p)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.ApplyFeedback(ctx, models.PredictionFeedback{
			ModelAccuracy: map[string]float64{ModelPoisson: 0.9, ModelMarkov: 0.1},
		})
	}()
	<-p.entered

	// First save is stalled; publish a newer snapshot behind it.
	afterFirst := s.Snapshot()
	go func() {
		defer wg.Done()
		s.ApplyFeedback(ctx, models.PredictionFeedback{
			ModelAccuracy: map[string]float64{ModelEmpirical: 1, ModelGradientBoosted: 0},
		})
	}()
	for i := 0; i < 1000 && approx(s.Snapshot()[ModelEmpirical], afterFirst[ModelEmpirical]); i++ {
		time.Sleep(time.Millisecond)
	}
	close(p.release)
	wg.Wait()

	final := s.Snapshot()
	if approx(final[ModelEmpirical], afterFirst[ModelEmpirical]) {
		t.Fatal("second feedback was not applied")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saves) == 0 {
		t.Fatal("nothing persisted")
	}
	last := p.saves[len(p.saves)-1]
	for name, w := range final {
		if !approx(last[name], w) {
			t.Errorf("persisted %s = %v, live = %v", name, last[name], w)
		}
	}
}

func TestRedisWeightPersister(t *testing.T) {
	ctx := context.Background()
	rdb := NewMockRedis()
	persister := NewRedisWeightPersister(rdb)

	s := newTestWeightStore(t, persister)
	updated, err := s.ApplyFeedback(ctx, models.PredictionFeedback{ModelAccuracy: map[string]float64{ModelMarkov: 1, ModelPoisson: 0.2}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rdb.Hashes[weightsRedisKey]) != 4 {
		t.Fatalf("persisted hash = %v", rdb.Hashes[weightsRedisKey])
	}

	restored := newTestWeightStore(t, persister)
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	for name, w := range updated {
		if math.Abs(restored.Snapshot()[name]-w) > 1e-12 {
			t.Errorf("%s = %v, want %v", name, restored.Snapshot()[name], w)
		}
	}
}

func TestRestoreKeepsDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		s := newTestWeightStore(t, NewRedisWeightPersister(NewMockRedis()))
		if err := s.Restore(ctx); err != nil {
			t.Fatal(err)
		}
		if !approx(s.Snapshot()[ModelGradientBoosted], 0.35) {
			t.Errorf("weights = %v", s.Snapshot())
		}
	})

	t.Run("incomplete map", func(t *testing.T) {
		rdb := NewMockRedis()
		rdb.Hashes[weightsRedisKey] = map[string]string{ModelPoisson: "1"}
		s := newTestWeightStore(t, NewRedisWeightPersister(rdb))
		if err := s.Restore(ctx); err != nil {
			t.Fatal(err)
		}
		if !approx(s.Snapshot()[ModelPoisson], 0.20) {
			t.Errorf("weights = %v", s.Snapshot())
		}
	})

	t.Run("redis down", func(t *testing.T) {
		rdb := NewMockRedis()
		rdb.Err = errors.New("connection refused")
		s := newTestWeightStore(t, NewRedisWeightPersister(rdb))
		if err := s.Restore(ctx); err == nil {
			t.Error("expected error")
		}
	})
}
