package logic

import (
	"fmt"
	"math"
	"sort"

	"github.com/footyodds/stats-api/internal/models"
)

// PoissonModel treats each side's goals as independent Poisson variables and
// sums the joint mass per outcome. A Dixon-Coles factor corrects the low
// scorelines.
type PoissonModel struct {
	MaxGoals        int     // goal range is 0..MaxGoals per side
	Rho             float64 // Dixon-Coles dependence
	DefaultHomeRate float64
	DefaultAwayRate float64
	TopScorelines   int
}

func NewPoissonModel() *PoissonModel {
	return &PoissonModel{
		MaxGoals:        9,
		Rho:             -0.03,
		DefaultHomeRate: 1.5,
		DefaultAwayRate: 1.15,
		TopScorelines:   5,
	}
}

func (m *PoissonModel) Name() string { return ModelPoisson }

// expectedGoals averages a side's scoring rate with the opponent's conceding
// rate. Samples with no matches are ignored.
func expectedGoals(scored float64, scoredN int, conceded float64, concededN int, fallback float64) float64 {
	var lambda float64
	switch {
	case scoredN > 0 && concededN > 0:
		lambda = (scored + conceded) / 2
	case scoredN > 0:
		lambda = scored
	case concededN > 0:
		lambda = conceded
	default:
		lambda = fallback
	}
	return clamp(lambda, 0.1, 6)
}

// poissonPMF returns P(X=k) for k in 0..max.
func poissonPMF(lambda float64, max int) []float64 {
	p := make([]float64, max+1)
	p[0] = math.Exp(-lambda)
	for k := 1; k <= max; k++ {
		p[k] = p[k-1] * lambda / float64(k)
	}
	return p
}

// tau is the Dixon-Coles adjustment for scorelines up to 1-1.
func tau(h, a int, lambda, mu, rho float64) float64 {
	switch {
	case h == 0 && a == 0:
		return 1 - lambda*mu*rho
	case h == 0 && a == 1:
		return 1 + lambda*rho
	case h == 1 && a == 0:
		return 1 + mu*rho
	case h == 1 && a == 1:
		return 1 - rho
	default:
		return 1
	}
}

// ScoreMatrix returns the renormalised joint scoreline distribution.
func (m *PoissonModel) ScoreMatrix(lambda, mu float64) ([][]float64, error) {
	ph := poissonPMF(lambda, m.MaxGoals)
	pa := poissonPMF(mu, m.MaxGoals)

	matrix := make([][]float64, m.MaxGoals+1)
	var total float64
	for h := range matrix {
		matrix[h] = make([]float64, m.MaxGoals+1)
		for a := range matrix[h] {
			v := ph[h] * pa[a] * tau(h, a, lambda, mu, m.Rho)
			if v < 0 {
				v = 0
			}
			matrix[h][a] = v
			total += v
		}
	}
	if total <= 0 || math.IsNaN(total) {
		return nil, fmt.Errorf("degenerate score matrix for rates %.3f/%.3f", lambda, mu)
	}
	for h := range matrix {
		for a := range matrix[h] {
			matrix[h][a] /= total
		}
	}
	return matrix, nil
}

func (m *PoissonModel) Predict(fs *FeatureSet) (models.ModelPrediction, error) {
	homeN := fs.Home.Historical.HomeMatches
	awayN := fs.Away.Historical.AwayMatches

	lambda := expectedGoals(fs.Home.Goals.AvgScoredHome, homeN, fs.Away.Goals.AvgConcededAway, awayN, m.DefaultHomeRate)
	mu := expectedGoals(fs.Away.Goals.AvgScoredAway, awayN, fs.Home.Goals.AvgConcededHome, homeN, m.DefaultAwayRate)

	matrix, err := m.ScoreMatrix(lambda, mu)
	if err != nil {
		return models.ModelPrediction{}, err
	}

	var outcome [3]float64
	scorelines := make([]models.ScorelineProbability, 0, len(matrix)*len(matrix))
	for h := range matrix {
		for a, p := range matrix[h] {
			outcome[models.OutcomeOf(h, a).Index()] += p
			scorelines = append(scorelines, models.ScorelineProbability{HomeGoals: h, AwayGoals: a, Probability: p})
		}
	}
	sort.SliceStable(scorelines, func(i, j int) bool {
		return scorelines[i].Probability > scorelines[j].Probability
	})
	if len(scorelines) > m.TopScorelines {
		scorelines = scorelines[:m.TopScorelines]
	}

	sample := homeN
	if awayN < sample {
		sample = awayN
	}
	confidence := 0.3 + 0.55*math.Min(1, float64(sample)/10)

	total := lambda + mu
	return models.ModelPrediction{
		Model:         ModelPoisson,
		Probabilities: models.TripleFromArray(outcome).Normalize(),
		Confidence:    confidence,
		Scorelines:    scorelines,
		Features: rankFeatures([]models.FeatureContribution{
			{Name: "expected_home_goals", Value: lambda, Importance: lambda / total},
			{Name: "expected_away_goals", Value: mu, Importance: mu / total},
		}),
	}, nil
}
