package models

// MatchStats is the basic aggregate over a set of matches.
type MatchStats struct {
	TotalMatches       int     `json:"total_matches"`
	HomeWins           int     `json:"home_wins"`
	Draws              int     `json:"draws"`
	AwayWins           int     `json:"away_wins"`
	HomeWinPercentage  float64 `json:"home_win_percentage"`
	DrawPercentage     float64 `json:"draw_percentage"`
	AwayWinPercentage  float64 `json:"away_win_percentage"`
	BTTSCount          int     `json:"btts_count"`
	BTTSPercentage     float64 `json:"btts_percentage"`
	ComebackCount      int     `json:"comeback_count"`
	ComebackPercentage float64 `json:"comeback_percentage"`
	AvgGoals           float64 `json:"avg_goals"`
}

// ScorelineFrequency is one entry of the most frequent final scores.
type ScorelineFrequency struct {
	Score      string  `json:"score"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// HalfTimeTransitions summarises how half-time leads turned out.
type HalfTimeTransitions struct {
	HomeLeads              int     `json:"home_leads"`
	AwayLeads              int     `json:"away_leads"`
	Draws                  int     `json:"draws"`
	HomeLeadsHeld          int     `json:"home_leads_held"`
	AwayLeadsHeld          int     `json:"away_leads_held"`
	HomeLeadHeldPercentage float64 `json:"home_lead_held_percentage"`
	AwayLeadHeldPercentage float64 `json:"away_lead_held_percentage"`
}

// DetailedMatchStats extends MatchStats with goal, clean sheet, over/under,
// scoreline and half-time breakdowns.
type DetailedMatchStats struct {
	MatchStats

	TotalHomeGoals int     `json:"total_home_goals"`
	TotalAwayGoals int     `json:"total_away_goals"`
	AvgHomeGoals   float64 `json:"avg_home_goals"`
	AvgAwayGoals   float64 `json:"avg_away_goals"`

	HomeCleanSheets          int     `json:"home_clean_sheets"`
	AwayCleanSheets          int     `json:"away_clean_sheets"`
	HomeCleanSheetPercentage float64 `json:"home_clean_sheet_percentage"`
	AwayCleanSheetPercentage float64 `json:"away_clean_sheet_percentage"`

	Over25Count       int     `json:"over_2_5_count"`
	Over25Percentage  float64 `json:"over_2_5_percentage"`
	Under25Count      int     `json:"under_2_5_count"`
	Under25Percentage float64 `json:"under_2_5_percentage"`
	Over35Count       int     `json:"over_3_5_count"`
	Over35Percentage  float64 `json:"over_3_5_percentage"`

	FrequentResults []ScorelineFrequency `json:"frequent_results"`
	HalfTime        HalfTimeTransitions  `json:"half_time"`
}
