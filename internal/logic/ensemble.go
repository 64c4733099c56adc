package logic

import (
	"errors"
	"math"

	"github.com/footyodds/stats-api/internal/models"
)

// DefaultEnsembleWeights is the starting weight state.
func DefaultEnsembleWeights() models.EnsembleWeights {
	return models.EnsembleWeights{
		ModelEmpirical:       0.30,
		ModelGradientBoosted: 0.35,
		ModelPoisson:         0.20,
		ModelMarkov:          0.15,
	}
}

// EnsembleConfig controls the disagreement penalty.
type EnsembleConfig struct {
	// DisagreementThreshold is the largest tolerated spread between two
	// models' probabilities for the same outcome.
	DisagreementThreshold float64
	// DisagreementPenalty multiplies the confidence when the spread is
	// exceeded.
	DisagreementPenalty float64
}

func DefaultEnsembleConfig() EnsembleConfig {
	return EnsembleConfig{DisagreementThreshold: 0.25, DisagreementPenalty: 0.8}
}

// EnsembleResult is the combined prediction.
type EnsembleResult struct {
	Probabilities models.ProbabilityTriple
	MostLikely    models.Outcome
	Confidence    float64
	// Weights are the renormalised weights actually applied, keyed by model.
	Weights      models.EnsembleWeights
	Disagreement float64
}

var ErrNoModelOutputs = errors.New("no model outputs to combine")

// Combine takes the weighted mean of the model outputs. Weights are
// renormalised over the models present; if none of them carries weight they
// are weighted equally.
func Combine(preds []models.ModelPrediction, weights models.EnsembleWeights, cfg EnsembleConfig) (EnsembleResult, error) {
	if len(preds) == 0 {
		return EnsembleResult{}, ErrNoModelOutputs
	}

	applied := make([]float64, len(preds))
	var total float64
	for i, p := range preds {
		w := weights[p.Model]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			w = 0
		}
		applied[i] = w
		total += w
	}
	if total <= 0 {
		for i := range applied {
			applied[i] = 1
		}
		total = float64(len(preds))
	}

	res := EnsembleResult{Weights: make(models.EnsembleWeights, len(preds))}
	var combined [3]float64
	lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i, p := range preds {
		w := applied[i] / total
		res.Weights[p.Model] += w
		probs := p.Probabilities.Array()
		for o := 0; o < 3; o++ {
			combined[o] += w * probs[o]
			lo[o] = math.Min(lo[o], probs[o])
			hi[o] = math.Max(hi[o], probs[o])
		}
		res.Confidence += w * p.Confidence
	}

	res.Probabilities = models.TripleFromArray(combined).Normalize()
	res.MostLikely = res.Probabilities.MostLikely()

	for o := 0; o < 3; o++ {
		res.Disagreement = math.Max(res.Disagreement, hi[o]-lo[o])
	}
	if res.Disagreement > cfg.DisagreementThreshold && cfg.DisagreementPenalty > 0 {
		res.Confidence *= cfg.DisagreementPenalty
	}
	res.Confidence = clamp(res.Confidence, 0, 1)

	return res, nil
}
