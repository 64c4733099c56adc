package models

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the full-time result tag of a match from the home side's view.
type Outcome string

const (
	OutcomeHome Outcome = "H"
	OutcomeDraw Outcome = "D"
	OutcomeAway Outcome = "A"
)

// OutcomeOf compares goal counts.
func OutcomeOf(homeGoals, awayGoals int) Outcome {
	switch {
	case homeGoals > awayGoals:
		return OutcomeHome
	case homeGoals < awayGoals:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}

// Index maps an outcome onto its position in a probability triple.
func (o Outcome) Index() int {
	switch o {
	case OutcomeHome:
		return 0
	case OutcomeDraw:
		return 1
	default:
		return 2
	}
}

// MatchRecord is one row of the match history table.
type MatchRecord struct {
	ID                int64     `json:"id"`
	HomeTeam          string    `json:"home_team"`
	AwayTeam          string    `json:"away_team"`
	Competition       string    `json:"competition,omitempty"`
	Season            string    `json:"season,omitempty"`
	FullTimeHomeGoals int       `json:"full_time_home_goals"`
	FullTimeAwayGoals int       `json:"full_time_away_goals"`
	HalfTimeHomeGoals *int      `json:"half_time_home_goals"`
	HalfTimeAwayGoals *int      `json:"half_time_away_goals"`
	Result            Outcome   `json:"result_computed"`
	BTTS              bool      `json:"btts_computed"`
	Comeback          bool      `json:"comeback_computed"`
	MatchTime         time.Time `json:"match_time"`
}

// Outcome derives the result from the full-time score rather than trusting
// the stored tag.
func (m MatchRecord) Outcome() Outcome {
	return OutcomeOf(m.FullTimeHomeGoals, m.FullTimeAwayGoals)
}

// HalfTime returns half-time goals with missing values read as 0-0.
func (m MatchRecord) HalfTime() (home, away int) {
	if m.HalfTimeHomeGoals != nil {
		home = *m.HalfTimeHomeGoals
	}
	if m.HalfTimeAwayGoals != nil {
		away = *m.HalfTimeAwayGoals
	}
	return home, away
}

// BothScored reports whether both sides scored at full time.
func (m MatchRecord) BothScored() bool {
	return m.FullTimeHomeGoals > 0 && m.FullTimeAwayGoals > 0
}

// TotalGoals is the full-time goal sum.
func (m MatchRecord) TotalGoals() int {
	return m.FullTimeHomeGoals + m.FullTimeAwayGoals
}

// Scoreline formats the full-time score as "H-A".
func (m MatchRecord) Scoreline() string {
	return fmt.Sprintf("%d-%d", m.FullTimeHomeGoals, m.FullTimeAwayGoals)
}

// Involves reports whether team played in the match.
func (m MatchRecord) Involves(team string) bool {
	return m.HomeTeam == team || m.AwayTeam == team
}

// Validate checks the invariants the aggregation layer relies on.
func (m MatchRecord) Validate() error {
	if strings.TrimSpace(m.HomeTeam) == "" || strings.TrimSpace(m.AwayTeam) == "" {
		return fmt.Errorf("match %d: both teams are required", m.ID)
	}
	if m.HomeTeam == m.AwayTeam {
		return fmt.Errorf("match %d: %s cannot play itself", m.ID, m.HomeTeam)
	}
	if m.FullTimeHomeGoals < 0 || m.FullTimeAwayGoals < 0 {
		return fmt.Errorf("match %d: negative full-time goals", m.ID)
	}
	if (m.HalfTimeHomeGoals != nil && *m.HalfTimeHomeGoals < 0) ||
		(m.HalfTimeAwayGoals != nil && *m.HalfTimeAwayGoals < 0) {
		return fmt.Errorf("match %d: negative half-time goals", m.ID)
	}
	if m.Result != "" && m.Result != m.Outcome() {
		return fmt.Errorf("match %d: result %q does not match score %s", m.ID, m.Result, m.Scoreline())
	}
	if m.BTTS != m.BothScored() {
		return fmt.Errorf("match %d: btts flag inconsistent with score %s", m.ID, m.Scoreline())
	}
	return nil
}

// NewMatchRecord fills the computed columns from the raw score.
func NewMatchRecord(home, away string, ftHome, ftAway int, htHome, htAway *int, at time.Time) MatchRecord {
	m := MatchRecord{
		HomeTeam:          home,
		AwayTeam:          away,
		FullTimeHomeGoals: ftHome,
		FullTimeAwayGoals: ftAway,
		HalfTimeHomeGoals: htHome,
		HalfTimeAwayGoals: htAway,
		MatchTime:         at,
	}
	m.Result = m.Outcome()
	m.BTTS = m.BothScored()
	if htHome != nil && htAway != nil {
		ht := OutcomeOf(*htHome, *htAway)
		switch m.Result {
		case OutcomeHome:
			m.Comeback = ht == OutcomeAway
		case OutcomeAway:
			m.Comeback = ht == OutcomeHome
		default:
			m.Comeback = ht != OutcomeDraw
		}
	}
	return m
}

// Venue restricts a team filter to one side of the fixture.
type Venue string

const (
	VenueAny  Venue = ""
	VenueHome Venue = "home"
	VenueAway Venue = "away"
)

// MaxMatchLimit bounds MatchFilter.Limit.
const MaxMatchLimit = 1000

// MatchFilter describes a match history query. Zero-valued fields impose no
// constraint.
type MatchFilter struct {
	Team        string    `json:"team,omitempty"`
	Opponent    string    `json:"opponent,omitempty"`
	Venue       Venue     `json:"venue,omitempty"`
	Competition string    `json:"competition,omitempty"`
	Season      string    `json:"season,omitempty"`
	From        time.Time `json:"from,omitempty"`
	To          time.Time `json:"to,omitempty"`
	Limit       int       `json:"limit,omitempty"`
}

// Validate rejects filters that cannot be applied in full.
func (f MatchFilter) Validate() error {
	if f.Opponent != "" && f.Team == "" {
		return fmt.Errorf("opponent filter requires a team")
	}
	switch f.Venue {
	case VenueAny:
	case VenueHome, VenueAway:
		if f.Team == "" {
			return fmt.Errorf("venue filter requires a team")
		}
	default:
		return fmt.Errorf("invalid venue: %s", f.Venue)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return fmt.Errorf("date range end precedes start")
	}
	if f.Limit < 0 {
		return fmt.Errorf("negative limit")
	}
	if f.Limit > MaxMatchLimit {
		return fmt.Errorf("limit %d exceeds maximum %d", f.Limit, MaxMatchLimit)
	}
	return nil
}
