package logic

import (
	"sort"

	"github.com/footyodds/stats-api/internal/models"
)

// Model names used in explanations and ensemble weights.
const (
	ModelEmpirical       = "empirical"
	ModelGradientBoosted = "gradient_boosted"
	ModelPoisson         = "poisson"
	ModelMarkov          = "markov"
)

// BaseRates are league-wide outcome frequencies used as the uninformed prior.
var BaseRates = models.ProbabilityTriple{Home: 0.46, Draw: 0.26, Away: 0.28}

// FeatureSet is everything a model may read for one fixture. Home, Away and
// HeadToHead are never nil.
type FeatureSet struct {
	Input      models.PredictionInput
	Home       *models.TeamFeatures
	Away       *models.TeamFeatures
	HeadToHead *models.HeadToHead
}

// PredictionModel maps features to an outcome distribution. Implementations
// must be safe for concurrent use and must not perform I/O.
type PredictionModel interface {
	Name() string
	Predict(fs *FeatureSet) (models.ModelPrediction, error)
}

// DefaultModels returns the four built-in models. gbm may be nil to use the
// built-in stumps.
func DefaultModels(gbm *GBMParams) []PredictionModel {
	return []PredictionModel{
		NewEmpiricalModel(),
		NewGradientBoostedModel(gbm),
		NewPoissonModel(),
		NewMarkovModel(),
	}
}

// meanOr averages values, falling back when the slice is empty.
func meanOr(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// rankFeatures sorts contributions by importance, highest first. Equal
// importances keep their declared order.
func rankFeatures(features []models.FeatureContribution) []models.FeatureContribution {
	sort.SliceStable(features, func(i, j int) bool {
		return features[i].Importance > features[j].Importance
	})
	return features
}
