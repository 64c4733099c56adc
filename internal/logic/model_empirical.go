package logic

import (
	"math"

	"github.com/footyodds/stats-api/internal/models"
)

// EmpiricalModel blends recent venue form, head-to-head results and base
// rates with fixed weights.
type EmpiricalModel struct {
	FormWeight float64
	H2HWeight  float64
	BaseWeight float64
	// DrawShare is the draw probability assigned inside the form component.
	DrawShare float64
}

func NewEmpiricalModel() *EmpiricalModel {
	return &EmpiricalModel{FormWeight: 0.4, H2HWeight: 0.3, BaseWeight: 0.3, DrawShare: BaseRates.Draw}
}

func (m *EmpiricalModel) Name() string { return ModelEmpirical }

func (m *EmpiricalModel) Predict(fs *FeatureSet) (models.ModelPrediction, error) {
	homeForm := meanOr(fs.Home.Form.HomeForm, 0.5)
	awayForm := meanOr(fs.Away.Form.AwayForm, 0.5)

	// Split the non-draw mass by relative form.
	homeShare := 0.5
	if homeForm+awayForm > 0 {
		homeShare = homeForm / (homeForm + awayForm)
	}
	form := models.ProbabilityTriple{
		Home: (1 - m.DrawShare) * homeShare,
		Draw: m.DrawShare,
		Away: (1 - m.DrawShare) * (1 - homeShare),
	}

	h2h := BaseRates
	n := fs.HeadToHead.SampleSize
	if n > 0 {
		h2h = models.ProbabilityTriple{
			Home: float64(fs.HeadToHead.HomeWins) / float64(n),
			Draw: float64(fs.HeadToHead.Draws) / float64(n),
			Away: float64(fs.HeadToHead.AwayWins) / float64(n),
		}
	}

	probs := models.ProbabilityTriple{
		Home: m.FormWeight*form.Home + m.H2HWeight*h2h.Home + m.BaseWeight*BaseRates.Home,
		Draw: m.FormWeight*form.Draw + m.H2HWeight*h2h.Draw + m.BaseWeight*BaseRates.Draw,
		Away: m.FormWeight*form.Away + m.H2HWeight*h2h.Away + m.BaseWeight*BaseRates.Away,
	}.Normalize()

	// Saturates towards 0.9 as meetings accumulate.
	confidence := 0.4 + 0.5*(1-math.Exp(-float64(n)/5))

	half := m.FormWeight / 2
	return models.ModelPrediction{
		Model:         ModelEmpirical,
		Probabilities: probs,
		Confidence:    confidence,
		Features: rankFeatures([]models.FeatureContribution{
			{Name: "h2h_home_advantage", Value: fs.HeadToHead.HomeAdvantage, Importance: m.H2HWeight},
			{Name: "base_rate_home", Value: BaseRates.Home, Importance: m.BaseWeight},
			{Name: "home_venue_form", Value: homeForm, Importance: half},
			{Name: "away_venue_form", Value: awayForm, Importance: half},
		}),
	}, nil
}
