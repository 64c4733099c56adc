package logic

import (
	"fmt"
	"math"

	"github.com/footyodds/stats-api/internal/models"
)

// MarkovModel reads the full-time outcome off the head-to-head half-time
// transition matrix. A supplied half-time score selects its row; otherwise
// rows are blended by how often each half-time state occurred.
type MarkovModel struct{}

func NewMarkovModel() *MarkovModel {
	return &MarkovModel{}
}

func (m *MarkovModel) Name() string { return ModelMarkov }

func (m *MarkovModel) Predict(fs *FeatureSet) (models.ModelPrediction, error) {
	matrix := fs.HeadToHead.Transitions
	if err := matrix.Validate(); err != nil {
		return models.ModelPrediction{}, fmt.Errorf("transition matrix: %w", err)
	}

	sampleWeight := math.Min(1, float64(fs.HeadToHead.SampleSize)/10)

	if h, a, ok := fs.Input.HalfTime(); ok {
		state := models.HalfTimeStateOf(h, a)
		return models.ModelPrediction{
			Model:         ModelMarkov,
			Probabilities: matrix.Row(state),
			Confidence:    0.6 + 0.3*sampleWeight,
			Features: []models.FeatureContribution{
				{Name: "half_time_state", Value: float64(state), Importance: 1},
				{Name: "half_time_goal_diff", Value: float64(h - a), Importance: 0},
			},
		}, nil
	}

	freq := models.TripleFromArray(fs.HeadToHead.HalfTimeStates)
	if freq.Sum() <= 0 {
		freq = models.TripleFromArray(DefaultHalfTimeStates)
	}
	freq = freq.Normalize()

	var blended [3]float64
	for s := 0; s < 3; s++ {
		w := freq.At(s)
		for o := 0; o < 3; o++ {
			blended[o] += w * matrix[s][o]
		}
	}

	features := make([]models.FeatureContribution, 0, 3)
	for s := 0; s < 3; s++ {
		state := models.HalfTimeState(s)
		features = append(features, models.FeatureContribution{
			Name:       "p_half_time_" + state.String(),
			Value:      freq.At(s),
			Importance: freq.At(s),
		})
	}

	return models.ModelPrediction{
		Model:         ModelMarkov,
		Probabilities: models.TripleFromArray(blended).Normalize(),
		Confidence:    0.35 + 0.3*sampleWeight,
		Features:      rankFeatures(features),
	}, nil
}
