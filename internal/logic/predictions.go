package logic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/footyodds/stats-api/internal/models"
)

const (
	warnLimitedData     = "limited historical data"
	warnNoHeadToHead    = "no head-to-head history"
	qualityWarnBelow    = 0.7
	tierHighAtLeast     = 0.8
	tierMediumAtLeast   = 0.6
	topFeaturesPerModel = 3
)

// EngineConfig is built once at startup and shared by every request.
type EngineConfig struct {
	Models           []PredictionModel
	Weights          *WeightStore
	Ensemble         EnsembleConfig
	ModelVersion     string
	BatchConcurrency int
	MaxBatchSize     int
	Recorder         PredictionRecorder // optional audit sink
	Logger           *zap.Logger
}

// PredictionEngine runs feature extraction, the models and the ensemble for
// one fixture at a time.
type PredictionEngine struct {
	features TeamFeatureService
	matches  MatchQuerier
	cfg      EngineConfig
	validate *validator.Validate
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewPredictionEngine wires the engine. matches is only used to tell a
// globally unavailable store apart from a per-fixture failure in batches.
func NewPredictionEngine(features TeamFeatureService, matches MatchQuerier, cfg EngineConfig) (*PredictionEngine, error) {
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModels(nil)
	}
	if cfg.Weights == nil {
		ws, err := NewWeightStore(DefaultEnsembleWeights(), nil, cfg.Logger)
		if err != nil {
			return nil, err
		}
		cfg.Weights = ws
	}
	if cfg.Ensemble == (EnsembleConfig{}) {
		cfg.Ensemble = DefaultEnsembleConfig()
	}
	if cfg.ModelVersion == "" {
		cfg.ModelVersion = "dev"
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 8
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	seen := make(map[string]bool, len(cfg.Models))
	for _, m := range cfg.Models {
		if seen[m.Name()] {
			return nil, fmt.Errorf("duplicate model %q", m.Name())
		}
		seen[m.Name()] = true
	}

	return &PredictionEngine{
		features: features,
		matches:  matches,
		cfg:      cfg,
		validate: validator.New(),
		logger:   cfg.Logger.Sugar(),
		now:      time.Now,
	}, nil
}

// Weights returns the current ensemble weights.
func (e *PredictionEngine) Weights() models.EnsembleWeights {
	return e.cfg.Weights.Snapshot()
}

// ApplyFeedback validates feedback and updates the shared weights.
func (e *PredictionEngine) ApplyFeedback(ctx context.Context, fb models.PredictionFeedback) (models.EnsembleWeights, error) {
	if err := e.validate.Struct(fb); err != nil {
		return nil, newPredictionError(KindValidation, "apply feedback", err)
	}
	weights, err := e.cfg.Weights.ApplyFeedback(ctx, fb)
	if err != nil {
		return nil, err
	}
	e.logger.Infow("Ensemble weights updated", "prediction_id", fb.PredictionID, "weights", weights)
	return weights, nil
}

func (e *PredictionEngine) validateInput(in *models.PredictionInput) error {
	in.HomeTeam = strings.TrimSpace(in.HomeTeam)
	in.AwayTeam = strings.TrimSpace(in.AwayTeam)
	if err := e.validate.Struct(in); err != nil {
		return newPredictionError(KindValidation, "predict", err)
	}
	if strings.EqualFold(in.HomeTeam, in.AwayTeam) {
		return newPredictionError(KindValidation, "predict", errors.New("home and away team must differ"))
	}
	if (in.HalfTimeHomeGoals == nil) != (in.HalfTimeAwayGoals == nil) {
		return newPredictionError(KindValidation, "predict", errors.New("half-time goals must be given for both sides"))
	}
	return nil
}

// Predict produces a complete prediction. Missing or slow history degrades
// the result with warnings; only an unreachable match store is an error.
func (e *PredictionEngine) Predict(ctx context.Context, input models.PredictionInput) (*models.PredictionOutput, error) {
	start := e.now()
	defer func() { predictionDuration.Observe(time.Since(start).Seconds()) }()

	out, err := e.predict(ctx, input)
	if err != nil {
		kind, ok := KindOf(err)
		if !ok {
			kind = KindUpstreamUnavailable
		}
		predictionsFailed.WithLabelValues(string(kind)).Inc()
		return nil, err
	}

	predictionsServed.WithLabelValues(string(out.MostLikelyOutcome)).Inc()
	dataQuality.Observe(out.Metadata.DataQualityScore)
	if e.cfg.Recorder != nil && !e.cfg.Recorder.Record(input, out) {
		e.logger.Warnw("Prediction audit record dropped", "prediction_id", out.Metadata.PredictionID)
	}
	return out, nil
}

func (e *PredictionEngine) predict(ctx context.Context, input models.PredictionInput) (*models.PredictionOutput, error) {
	if err := e.validateInput(&input); err != nil {
		return nil, err
	}

	fs, warnings, err := e.gatherFeatures(ctx, input)
	if err != nil {
		return nil, err
	}

	quality := DataQualityScore(fs.HeadToHead.SampleSize, fs.Home.Historical.TotalMatches, fs.Away.Historical.TotalMatches)

	preds, failed := e.runModels(fs)
	for _, name := range failed {
		warnings = append(warnings, fmt.Sprintf("model %s unavailable", name))
	}
	if len(preds) == 0 {
		return nil, newPredictionError(KindModelFailure, "predict", errors.New("every model failed"))
	}

	combined, err := Combine(preds, e.cfg.Weights.Snapshot(), e.cfg.Ensemble)
	if err != nil {
		return nil, newPredictionError(KindModelFailure, "combine", err)
	}

	if quality < qualityWarnBelow {
		warnings = append(warnings, warnLimitedData)
	}

	out := &models.PredictionOutput{
		HomeTeam:          input.HomeTeam,
		AwayTeam:          input.AwayTeam,
		Probabilities:     combined.Probabilities,
		MostLikelyOutcome: combined.MostLikely,
		ConfidenceScore:   combined.Confidence,
		Explanations:      make([]models.ModelExplanation, 0, len(preds)),
		Metadata: models.PredictionMetadata{
			PredictionID:     uuid.NewString(),
			ModelVersion:     e.cfg.ModelVersion,
			GeneratedAt:      e.now().UTC(),
			DataQualityScore: quality,
			ConfidenceTier:   ConfidenceTier(combined.Confidence, quality),
			WarningFlags:     warnings,
		},
	}
	if out.Metadata.WarningFlags == nil {
		out.Metadata.WarningFlags = []string{}
	}

	for _, p := range preds {
		top := p.Features
		if len(top) > topFeaturesPerModel {
			top = top[:topFeaturesPerModel]
		}
		if top == nil {
			top = []models.FeatureContribution{}
		}
		out.Explanations = append(out.Explanations, models.ModelExplanation{
			Model:         p.Model,
			Weight:        combined.Weights[p.Model],
			Probabilities: p.Probabilities,
			Confidence:    p.Confidence,
			TopFeatures:   top,
		})
		if len(out.ScorelinePredictions) == 0 && len(p.Scorelines) > 0 {
			out.ScorelinePredictions = p.Scorelines
		}
	}

	return out, nil
}

// gatherFeatures fetches both teams and the head-to-head concurrently.
// Missing data falls back to neutral features with a warning.
func (e *PredictionEngine) gatherFeatures(ctx context.Context, input models.PredictionInput) (*FeatureSet, []string, error) {
	var (
		home, away       *models.TeamFeatures
		h2h              *models.HeadToHead
		homeErr, awayErr error
		h2hErr           error
	)

	soft := func(err error, dst *error) error {
		k, ok := KindOf(err)
		if ok && k == KindDataUnavailable {
			*dst = err
			return nil
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := e.features.GetTeamFeatures(gctx, input.HomeTeam, input.Context)
		if err != nil {
			return soft(err, &homeErr)
		}
		home = f
		return nil
	})
	g.Go(func() error {
		f, err := e.features.GetTeamFeatures(gctx, input.AwayTeam, input.Context)
		if err != nil {
			return soft(err, &awayErr)
		}
		away = f
		return nil
	})
	g.Go(func() error {
		f, err := e.features.GetHeadToHeadFeatures(gctx, input.HomeTeam, input.AwayTeam, input.Context)
		if err != nil {
			return soft(err, &h2hErr)
		}
		h2h = f
		return nil
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, nil, newPredictionError(KindUpstreamUnavailable, "predict", ctx.Err())
		}
		if _, ok := KindOf(err); ok {
			return nil, nil, err
		}
		return nil, nil, newPredictionError(KindUpstreamUnavailable, "predict", err)
	}

	var warnings []string
	now := e.now()
	if homeErr != nil {
		e.logger.Warnw("Using neutral features", "team", input.HomeTeam, "error", homeErr)
		warnings = append(warnings, fmt.Sprintf("match history unavailable for %s", input.HomeTeam))
	}
	if home == nil {
		f := ComputeTeamFeatures(input.HomeTeam, nil, nil, 0, now)
		home = &f
	}
	if awayErr != nil {
		e.logger.Warnw("Using neutral features", "team", input.AwayTeam, "error", awayErr)
		warnings = append(warnings, fmt.Sprintf("match history unavailable for %s", input.AwayTeam))
	}
	if away == nil {
		f := ComputeTeamFeatures(input.AwayTeam, nil, nil, 0, now)
		away = &f
	}
	if h2hErr != nil {
		e.logger.Warnw("Using default head-to-head", "home", input.HomeTeam, "away", input.AwayTeam, "error", h2hErr)
	}
	if h2h == nil {
		d := ComputeHeadToHead(input.HomeTeam, input.AwayTeam, nil, 0)
		h2h = &d
	}

	if home.Historical.TotalMatches == 0 {
		warnings = append(warnings, fmt.Sprintf("no match history for %s", input.HomeTeam))
	}
	if away.Historical.TotalMatches == 0 {
		warnings = append(warnings, fmt.Sprintf("no match history for %s", input.AwayTeam))
	}
	if h2h.SampleSize == 0 {
		warnings = append(warnings, warnNoHeadToHead)
	}

	// Copy before attaching the head-to-head; features may be shared.
	homeCopy := *home
	homeCopy.Historical.HeadToHead = h2h
	awayCopy := *away
	awayCopy.Historical.HeadToHead = h2h

	return &FeatureSet{Input: input, Home: &homeCopy, Away: &awayCopy, HeadToHead: h2h}, warnings, nil
}

// runModels evaluates every model concurrently. Failed or invalid outputs
// are excluded and reported by name, in registration order.
func (e *PredictionEngine) runModels(fs *FeatureSet) ([]models.ModelPrediction, []string) {
	results := make([]models.ModelPrediction, len(e.cfg.Models))
	errs := make([]error, len(e.cfg.Models))

	var g errgroup.Group
	for i, m := range e.cfg.Models {
		i, m := i, m
		g.Go(func() error {
			results[i], errs[i] = runModel(m, fs)
			return nil
		})
	}
	_ = g.Wait()

	preds := make([]models.ModelPrediction, 0, len(results))
	var failed []string
	for i, m := range e.cfg.Models {
		if errs[i] != nil {
			modelFailures.WithLabelValues(m.Name()).Inc()
			e.logger.Warnw("Model excluded from ensemble", "model", m.Name(), "error", errs[i])
			failed = append(failed, m.Name())
			continue
		}
		preds = append(preds, results[i])
	}
	return preds, failed
}

func runModel(m PredictionModel, fs *FeatureSet) (pred models.ModelPrediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPredictionError(KindModelFailure, m.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	pred, err = m.Predict(fs)
	if err != nil {
		return models.ModelPrediction{}, newPredictionError(KindModelFailure, m.Name(), err)
	}
	pred.Model = m.Name()
	if err := pred.Validate(); err != nil {
		return models.ModelPrediction{}, newPredictionError(KindModelFailure, m.Name(), err)
	}
	return pred, nil
}

// PredictBatch predicts every fixture in parallel. Results line up with the
// inputs by index. A failed fixture yields a failure marker, unless the match
// store is down altogether, in which case the whole batch fails.
func (e *PredictionEngine) PredictBatch(ctx context.Context, inputs []models.PredictionInput) ([]models.BatchPredictionResult, error) {
	if len(inputs) == 0 {
		return nil, newPredictionError(KindValidation, "predict batch", errors.New("no fixtures"))
	}
	if len(inputs) > e.cfg.MaxBatchSize {
		return nil, newPredictionError(KindValidation, "predict batch",
			fmt.Errorf("batch of %d exceeds maximum %d", len(inputs), e.cfg.MaxBatchSize))
	}

	results := make([]models.BatchPredictionResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.BatchConcurrency)

	for i := range inputs {
		i := i
		g.Go(func() error {
			out, err := e.Predict(gctx, inputs[i])
			if err == nil {
				results[i] = models.BatchPredictionResult{Index: i, Prediction: out}
				return nil
			}
			if IsUpstreamUnavailable(err) && gctx.Err() == nil && e.matches != nil {
				if pingErr := e.matches.Ping(gctx); pingErr != nil {
					return newPredictionError(KindUpstreamUnavailable, "predict batch", pingErr)
				}
			}
			kind, ok := KindOf(err)
			if !ok {
				kind = KindUpstreamUnavailable
			}
			results[i] = models.BatchPredictionResult{
				Index:   i,
				Failure: &models.PredictionFailure{Kind: string(kind), Message: err.Error()},
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, newPredictionError(KindUpstreamUnavailable, "predict batch", ctx.Err())
	}
	return results, nil
}

// DataQualityScore weighs head-to-head and per-team sample sizes. The score
// is at least 0.1 so that no prediction is reported as having no basis.
func DataQualityScore(h2hMatches, homeMatches, awayMatches int) float64 {
	sat := func(n int, full float64) float64 {
		return math.Min(1, float64(n)/full)
	}
	raw := 0.4*sat(h2hMatches, 10) + 0.3*sat(homeMatches, 20) + 0.3*sat(awayMatches, 20)
	return 0.1 + 0.9*raw
}

// ConfidenceTier grades the weaker of confidence and data quality.
func ConfidenceTier(confidence, quality float64) string {
	score := math.Min(confidence, quality)
	switch {
	case score >= tierHighAtLeast:
		return models.ConfidenceHigh
	case score >= tierMediumAtLeast:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
