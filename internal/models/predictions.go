package models

import (
	"fmt"
	"math"
	"time"
)

// Confidence tiers reported in prediction metadata.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// MatchContext narrows the history used for features. It is not modelled
// beyond filtering.
type MatchContext struct {
	Season      string    `json:"season,omitempty"`
	Competition string    `json:"competition,omitempty"`
	Date        time.Time `json:"date,omitempty"`
}

// PredictionInput is a single fixture to predict.
type PredictionInput struct {
	HomeTeam          string        `json:"home_team" validate:"required,max=128"`
	AwayTeam          string        `json:"away_team" validate:"required,max=128,nefield=HomeTeam"`
	HalfTimeHomeGoals *int          `json:"half_time_home_goals,omitempty" validate:"omitempty,min=0,max=30"`
	HalfTimeAwayGoals *int          `json:"half_time_away_goals,omitempty" validate:"omitempty,min=0,max=30"`
	Context           *MatchContext `json:"context,omitempty"`
}

// HalfTime returns the supplied half-time score. ok is false unless both
// sides were given.
func (in PredictionInput) HalfTime() (home, away int, ok bool) {
	if in.HalfTimeHomeGoals == nil || in.HalfTimeAwayGoals == nil {
		return 0, 0, false
	}
	return *in.HalfTimeHomeGoals, *in.HalfTimeAwayGoals, true
}

// FeatureContribution is one named input to a model's output.
type FeatureContribution struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Importance float64 `json:"importance"`
}

// ScorelineProbability is the probability of an exact final score.
type ScorelineProbability struct {
	HomeGoals   int     `json:"home_goals"`
	AwayGoals   int     `json:"away_goals"`
	Probability float64 `json:"probability"`
}

// Score formats the scoreline as "H-A".
func (s ScorelineProbability) Score() string {
	return fmt.Sprintf("%d-%d", s.HomeGoals, s.AwayGoals)
}

// ModelPrediction is the output of a single model.
type ModelPrediction struct {
	Model         string                 `json:"model"`
	Probabilities ProbabilityTriple      `json:"probabilities"`
	Confidence    float64                `json:"confidence"`
	Features      []FeatureContribution  `json:"features"`
	Scorelines    []ScorelineProbability `json:"scorelines,omitempty"`
}

// Validate checks the probability triple and confidence range.
func (p ModelPrediction) Validate() error {
	if err := p.Probabilities.Validate(); err != nil {
		return err
	}
	if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range", p.Confidence)
	}
	return nil
}

// ModelExplanation is the per-model section of a prediction.
type ModelExplanation struct {
	Model         string                `json:"model"`
	Weight        float64               `json:"weight"`
	Probabilities ProbabilityTriple     `json:"probabilities"`
	Confidence    float64               `json:"confidence"`
	TopFeatures   []FeatureContribution `json:"top_features"`
}

// PredictionMetadata describes how a prediction was produced.
type PredictionMetadata struct {
	PredictionID     string    `json:"prediction_id"`
	ModelVersion     string    `json:"model_version"`
	GeneratedAt      time.Time `json:"generated_at"`
	DataQualityScore float64   `json:"data_quality_score"`
	ConfidenceTier   string    `json:"confidence_tier"`
	WarningFlags     []string  `json:"warning_flags"`
}

// PredictionOutput is the engine result for one fixture.
type PredictionOutput struct {
	HomeTeam             string                 `json:"home_team"`
	AwayTeam             string                 `json:"away_team"`
	Probabilities        ProbabilityTriple      `json:"probabilities"`
	MostLikelyOutcome    Outcome                `json:"most_likely_outcome"`
	ConfidenceScore      float64                `json:"confidence_score"`
	ScorelinePredictions []ScorelineProbability `json:"scoreline_predictions,omitempty"`
	Explanations         []ModelExplanation     `json:"explanations"`
	Metadata             PredictionMetadata     `json:"metadata"`
}

// PredictionFailure is the typed marker for a failed batch element.
type PredictionFailure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BatchPredictionResult pairs a batch element with its prediction or failure.
type BatchPredictionResult struct {
	Index      int                `json:"index"`
	Prediction *PredictionOutput  `json:"prediction,omitempty"`
	Failure    *PredictionFailure `json:"failure,omitempty"`
}

// EnsembleWeights maps model names to their share of the ensemble. Published
// maps are never mutated; updates build a new map.
type EnsembleWeights map[string]float64

// Clone copies the map.
func (w EnsembleWeights) Clone() EnsembleWeights {
	out := make(EnsembleWeights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Sum totals all weights.
func (w EnsembleWeights) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// Normalized returns a copy scaled to sum to 1.
func (w EnsembleWeights) Normalized() (EnsembleWeights, error) {
	sum := 0.0
	for name, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid weight %v for model %s", v, name)
		}
		sum += v
	}
	if sum <= 0 {
		return nil, fmt.Errorf("weights sum to zero")
	}
	out := make(EnsembleWeights, len(w))
	for k, v := range w {
		out[k] = v / sum
	}
	return out, nil
}

// PredictionFeedback reports recent per-model accuracy (0-1) so the ensemble
// can shift weight towards better models.
type PredictionFeedback struct {
	PredictionID  string             `json:"prediction_id,omitempty"`
	ModelAccuracy map[string]float64 `json:"model_accuracy" validate:"required,min=1,dive,keys,required,endkeys,min=0,max=1"`
	LearningRate  float64            `json:"learning_rate,omitempty" validate:"omitempty,gt=0,lte=1"`
	SampleSize    int                `json:"sample_size,omitempty" validate:"omitempty,min=0"`
}
