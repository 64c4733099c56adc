package models

import (
	"fmt"
	"math"
	"time"
)

// ProbabilityTolerance bounds floating drift when checking that a
// distribution sums to 1.
const ProbabilityTolerance = 1e-6

// ProbabilityTriple is a home/draw/away distribution.
type ProbabilityTriple struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

func (p ProbabilityTriple) Sum() float64 {
	return p.Home + p.Draw + p.Away
}

// At returns the probability at an outcome index (0=H, 1=D, 2=A).
func (p ProbabilityTriple) At(i int) float64 {
	switch i {
	case 0:
		return p.Home
	case 1:
		return p.Draw
	default:
		return p.Away
	}
}

// Array returns the triple in H, D, A order.
func (p ProbabilityTriple) Array() [3]float64 {
	return [3]float64{p.Home, p.Draw, p.Away}
}

// TripleFromArray builds a triple from H, D, A values.
func TripleFromArray(v [3]float64) ProbabilityTriple {
	return ProbabilityTriple{Home: v[0], Draw: v[1], Away: v[2]}
}

// Normalize rescales the triple to sum to exactly 1. A zero or invalid triple
// becomes uniform.
func (p ProbabilityTriple) Normalize() ProbabilityTriple {
	sum := p.Sum()
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return ProbabilityTriple{Home: 1.0 / 3, Draw: 1.0 / 3, Away: 1.0 / 3}
	}
	out := ProbabilityTriple{Home: p.Home / sum, Draw: p.Draw / sum}
	// Assign the remainder so the sum is exact.
	out.Away = 1 - out.Home - out.Draw
	if out.Away < 0 {
		out.Away = 0
	}
	return out
}

// Validate checks non-negativity and the unit sum.
func (p ProbabilityTriple) Validate() error {
	for i, v := range p.Array() {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("invalid probability %v at index %d", v, i)
		}
	}
	if math.Abs(p.Sum()-1) > ProbabilityTolerance {
		return fmt.Errorf("probabilities sum to %v", p.Sum())
	}
	return nil
}

// MostLikely picks the outcome with the highest probability. Ties resolve
// H before D before A.
func (p ProbabilityTriple) MostLikely() Outcome {
	best := OutcomeHome
	bestP := p.Home
	if p.Draw > bestP {
		best, bestP = OutcomeDraw, p.Draw
	}
	if p.Away > bestP {
		best = OutcomeAway
	}
	return best
}

// HalfTimeState is the leading side at half-time.
type HalfTimeState int

const (
	HalfTimeHomeLead HalfTimeState = iota
	HalfTimeDraw
	HalfTimeAwayLead
)

// HalfTimeStateOf classifies a half-time score.
func HalfTimeStateOf(home, away int) HalfTimeState {
	switch {
	case home > away:
		return HalfTimeHomeLead
	case home < away:
		return HalfTimeAwayLead
	default:
		return HalfTimeDraw
	}
}

func (s HalfTimeState) String() string {
	switch s {
	case HalfTimeHomeLead:
		return "home_lead"
	case HalfTimeAwayLead:
		return "away_lead"
	default:
		return "draw"
	}
}

// TransitionMatrix maps half-time state (rows: home lead, draw, away lead) to
// full-time outcome (columns: H, D, A). Rows are conditional distributions.
type TransitionMatrix [3][3]float64

// DefaultTransitionMatrix is the prior used when no sample is available.
func DefaultTransitionMatrix() TransitionMatrix {
	return TransitionMatrix{
		{0.65, 0.25, 0.10},
		{0.35, 0.30, 0.35},
		{0.10, 0.25, 0.65},
	}
}

// Row returns the full-time distribution given a half-time state.
func (m TransitionMatrix) Row(s HalfTimeState) ProbabilityTriple {
	return TripleFromArray(m[s])
}

// Validate checks every row is a distribution.
func (m TransitionMatrix) Validate() error {
	for i := range m {
		if err := TripleFromArray(m[i]).Validate(); err != nil {
			return fmt.Errorf("row %s: %w", HalfTimeState(i), err)
		}
	}
	return nil
}

// Streak classifications.
const (
	StreakWin   = "WIN"
	StreakDraw  = "DRAW"
	StreakLoss  = "LOSS"
	StreakMixed = "MIXED"
	StreakNone  = "NONE"
)

// FormFeatures describes recent results. Sequences are most recent first with
// 1 for a win, 0.5 for a draw and 0 for a loss.
type FormFeatures struct {
	HomeForm      []float64 `json:"home_form"`
	AwayForm      []float64 `json:"away_form"`
	OverallForm   []float64 `json:"overall_form"`
	CurrentStreak int       `json:"current_streak"`
	StreakType    string    `json:"streak_type"`
	Momentum      float64   `json:"momentum"`
}

// GoalFeatures are per-venue scoring profiles. Percentages are 0-100.
type GoalFeatures struct {
	AvgScoredHome     float64 `json:"avg_scored_home"`
	AvgConcededHome   float64 `json:"avg_conceded_home"`
	AvgScoredAway     float64 `json:"avg_scored_away"`
	AvgConcededAway   float64 `json:"avg_conceded_away"`
	BTTSHomePct       float64 `json:"btts_home_pct"`
	BTTSAwayPct       float64 `json:"btts_away_pct"`
	CleanSheetHomePct float64 `json:"clean_sheet_home_pct"`
	CleanSheetAwayPct float64 `json:"clean_sheet_away_pct"`
	ComebackRate      float64 `json:"comeback_rate"`
	LeadHoldingRate   float64 `json:"lead_holding_rate"`
}

// HistoricalFeatures summarise the fetched sample.
type HistoricalFeatures struct {
	TotalMatches   int     `json:"total_matches"`
	HomeMatches    int     `json:"home_matches"`
	AwayMatches    int     `json:"away_matches"`
	WinPercentage  float64 `json:"win_percentage"`
	DrawPercentage float64 `json:"draw_percentage"`
	LossPercentage float64 `json:"loss_percentage"`
	// HeadToHead is set when the features were extracted for a fixture.
	HeadToHead *HeadToHead `json:"head_to_head,omitempty"`
}

// TeamFeatures is the per-team feature snapshot used by the models.
type TeamFeatures struct {
	Team        string             `json:"team"`
	LastUpdated time.Time          `json:"last_updated"`
	Form        FormFeatures       `json:"form"`
	Goals       GoalFeatures       `json:"goals"`
	Historical  HistoricalFeatures `json:"historical"`
}

// HeadToHead describes recent meetings between two teams. Home/away counts
// are relative to the fixture being predicted, not to the historical venue.
type HeadToHead struct {
	HomeTeam       string           `json:"home_team"`
	AwayTeam       string           `json:"away_team"`
	SampleSize     int              `json:"sample_size"`
	HomeWins       int              `json:"home_wins"`
	Draws          int              `json:"draws"`
	AwayWins       int              `json:"away_wins"`
	HomeAdvantage  float64          `json:"home_advantage"`
	AvgGoals       float64          `json:"avg_goals"`
	BTTSRate       float64          `json:"btts_rate"`
	Transitions    TransitionMatrix `json:"transition_matrix"`
	HalfTimeStates [3]float64       `json:"half_time_state_frequency"`
}
