package logic

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/footyodds/stats-api/internal/models"
)

// Feature names understood by the gradient-boosted model.
const (
	FeatureFormDiff      = "form_diff"
	FeatureVenueFormDiff = "venue_form_diff"
	FeatureMomentumDiff  = "momentum_diff"
	FeatureGoalDiff      = "goal_diff"
	FeatureH2HAdvantage  = "h2h_advantage"
	FeatureStreakDiff    = "streak_diff"
	FeatureWinPctDiff    = "win_pct_diff"
)

var gbmFeatureOrder = []string{
	FeatureFormDiff,
	FeatureVenueFormDiff,
	FeatureMomentumDiff,
	FeatureGoalDiff,
	FeatureH2HAdvantage,
	FeatureStreakDiff,
	FeatureWinPctDiff,
}

// Stump is a depth-1 regression tree: Left when value <= Threshold.
type Stump struct {
	Feature   string  `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      float64 `json:"left"`
	Right     float64 `json:"right"`
}

func (s Stump) leaf(v float64) float64 {
	if v <= s.Threshold {
		return s.Left
	}
	return s.Right
}

// GBMTrees holds one additive stump ensemble per outcome.
type GBMTrees struct {
	Home []Stump `json:"home"`
	Draw []Stump `json:"draw"`
	Away []Stump `json:"away"`
}

func (t GBMTrees) at(i int) []Stump {
	switch i {
	case 0:
		return t.Home
	case 1:
		return t.Draw
	default:
		return t.Away
	}
}

// GBMParams are precomputed model parameters, fitted offline.
type GBMParams struct {
	Version      string     `json:"version"`
	Base         [3]float64 `json:"base"` // log-odds per outcome before any tree
	LearningRate float64    `json:"learning_rate"`
	Trees        GBMTrees   `json:"trees"`
}

// Validate rejects unknown features and non-finite parameters.
func (p *GBMParams) Validate() error {
	if p.LearningRate <= 0 || math.IsNaN(p.LearningRate) || math.IsInf(p.LearningRate, 0) {
		return fmt.Errorf("learning rate must be positive, got %v", p.LearningRate)
	}
	known := make(map[string]bool, len(gbmFeatureOrder))
	for _, f := range gbmFeatureOrder {
		known[f] = true
	}
	for i := 0; i < 3; i++ {
		if math.IsNaN(p.Base[i]) || math.IsInf(p.Base[i], 0) {
			return fmt.Errorf("base score %d is not finite", i)
		}
		for _, s := range p.Trees.at(i) {
			if !known[s.Feature] {
				return fmt.Errorf("unknown feature %q", s.Feature)
			}
			for _, v := range []float64{s.Threshold, s.Left, s.Right} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("stump on %s has non-finite value", s.Feature)
				}
			}
		}
	}
	return nil
}

// LoadGBMParams reads parameters from a JSON file.
func LoadGBMParams(path string) (*GBMParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model params: %w", err)
	}
	var p GBMParams
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding model params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model params: %w", err)
	}
	return &p, nil
}

// DefaultGBMParams are the built-in stumps.
func DefaultGBMParams() *GBMParams {
	return &GBMParams{
		Version:      "builtin-1",
		Base:         [3]float64{math.Log(BaseRates.Home), math.Log(BaseRates.Draw), math.Log(BaseRates.Away)},
		LearningRate: 1,
		Trees: GBMTrees{
			Home: []Stump{
				{Feature: FeatureFormDiff, Threshold: 0.15, Left: -0.05, Right: 0.30},
				{Feature: FeatureVenueFormDiff, Threshold: 0.2, Left: -0.05, Right: 0.20},
				{Feature: FeatureGoalDiff, Threshold: 0.5, Left: -0.05, Right: 0.25},
				{Feature: FeatureH2HAdvantage, Threshold: 0.2, Left: 0, Right: 0.15},
				{Feature: FeatureWinPctDiff, Threshold: -0.2, Left: -0.25, Right: 0.05},
				{Feature: FeatureMomentumDiff, Threshold: 0.25, Left: 0, Right: 0.10},
			},
			Draw: []Stump{
				{Feature: FeatureFormDiff, Threshold: -0.15, Left: -0.10, Right: 0.05},
				{Feature: FeatureFormDiff, Threshold: 0.15, Left: 0.10, Right: -0.10},
				{Feature: FeatureGoalDiff, Threshold: -0.5, Left: -0.05, Right: 0.05},
				{Feature: FeatureStreakDiff, Threshold: 0.4, Left: 0.03, Right: -0.05},
			},
			Away: []Stump{
				{Feature: FeatureFormDiff, Threshold: -0.15, Left: 0.30, Right: -0.05},
				{Feature: FeatureVenueFormDiff, Threshold: -0.2, Left: 0.20, Right: -0.05},
				{Feature: FeatureGoalDiff, Threshold: -0.5, Left: 0.25, Right: -0.05},
				{Feature: FeatureH2HAdvantage, Threshold: -0.2, Left: 0.15, Right: 0},
				{Feature: FeatureWinPctDiff, Threshold: 0.2, Left: 0.05, Right: -0.25},
				{Feature: FeatureMomentumDiff, Threshold: -0.25, Left: 0.10, Right: 0},
			},
		},
	}
}

// GradientBoostedModel scores each outcome with a sum of stumps and maps the
// scores to probabilities with a softmax.
type GradientBoostedModel struct {
	params *GBMParams
}

// NewGradientBoostedModel uses the built-in parameters when params is nil.
func NewGradientBoostedModel(params *GBMParams) *GradientBoostedModel {
	if params == nil {
		params = DefaultGBMParams()
	}
	return &GradientBoostedModel{params: params}
}

func (m *GradientBoostedModel) Name() string { return ModelGradientBoosted }

// Version reports the parameter set in use.
func (m *GradientBoostedModel) Version() string { return m.params.Version }

// FeatureVector flattens the feature set into the inputs the stumps split on.
func FeatureVector(fs *FeatureSet) map[string]float64 {
	home, away, h2h := fs.Home, fs.Away, fs.HeadToHead

	h2hAdvantage := 0.0
	if h2h.SampleSize > 0 {
		h2hAdvantage = float64(h2h.HomeWins-h2h.AwayWins) / float64(h2h.SampleSize)
	}

	return map[string]float64{
		FeatureFormDiff:      meanOr(home.Form.OverallForm, 0.5) - meanOr(away.Form.OverallForm, 0.5),
		FeatureVenueFormDiff: meanOr(home.Form.HomeForm, 0.5) - meanOr(away.Form.AwayForm, 0.5),
		FeatureMomentumDiff:  home.Form.Momentum - away.Form.Momentum,
		FeatureGoalDiff: (home.Goals.AvgScoredHome - home.Goals.AvgConcededHome) -
			(away.Goals.AvgScoredAway - away.Goals.AvgConcededAway),
		FeatureH2HAdvantage: h2hAdvantage,
		FeatureStreakDiff:   clamp(float64(home.Form.CurrentStreak-away.Form.CurrentStreak), -5, 5) / 5,
		FeatureWinPctDiff:   (home.Historical.WinPercentage - away.Historical.WinPercentage) / 100,
	}
}

func (m *GradientBoostedModel) Predict(fs *FeatureSet) (models.ModelPrediction, error) {
	x := FeatureVector(fs)

	var scores [3]float64
	influence := make(map[string]float64, len(x))
	for i := 0; i < 3; i++ {
		scores[i] = m.params.Base[i]
		for _, s := range m.params.Trees.at(i) {
			leaf := m.params.LearningRate * s.leaf(x[s.Feature])
			scores[i] += leaf
			influence[s.Feature] += math.Abs(leaf)
		}
	}

	probs := softmax(scores)
	if err := probs.Validate(); err != nil {
		return models.ModelPrediction{}, fmt.Errorf("softmax output: %w", err)
	}

	var totalInfluence float64
	for _, v := range influence {
		totalInfluence += v
	}
	features := make([]models.FeatureContribution, 0, len(gbmFeatureOrder))
	for _, name := range gbmFeatureOrder {
		imp := 0.0
		if totalInfluence > 0 {
			imp = influence[name] / totalInfluence
		}
		features = append(features, models.FeatureContribution{Name: name, Value: x[name], Importance: imp})
	}

	sorted := probs.Array()
	first, second := sorted[0], math.Inf(-1)
	for _, p := range sorted[1:] {
		if p > first {
			first, second = p, first
		} else if p > second {
			second = p
		}
	}

	return models.ModelPrediction{
		Model:         ModelGradientBoosted,
		Probabilities: probs,
		Confidence:    clamp(0.4+0.5*(first-second), 0, 1),
		Features:      rankFeatures(features),
	}, nil
}

func softmax(scores [3]float64) models.ProbabilityTriple {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	var out [3]float64
	for i, s := range scores {
		out[i] = math.Exp(s - max)
	}
	return models.TripleFromArray(out).Normalize()
}
