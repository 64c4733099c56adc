package logic

import (
	"math"
	"reflect"
	"testing"

	"github.com/footyodds/stats-api/internal/models"
)

func TestComputeBasicStatsEmpty(t *testing.T) {
	got := ComputeBasicStats(nil)
	if !reflect.DeepEqual(got, models.MatchStats{}) {
		t.Errorf("ComputeBasicStats(nil) = %+v, want zero value", got)
	}

	detailed := ComputeDetailedStats([]models.MatchRecord{})
	if detailed.TotalMatches != 0 || detailed.AvgGoals != 0 || detailed.HalfTime.HomeLeadHeldPercentage != 0 {
		t.Errorf("ComputeDetailedStats(empty) not zero: %+v", detailed)
	}
	if detailed.FrequentResults == nil || len(detailed.FrequentResults) != 0 {
		t.Errorf("FrequentResults = %#v, want empty non-nil slice", detailed.FrequentResults)
	}
}

// twentyMeetings is 12 home wins, 5 draws and 3 away wins with 54 goals.
func twentyMeetings() []models.MatchRecord {
	b := newFixtureBuilder()
	for i := 0; i < 12; i++ {
		b.add("Team A", "Team B", 2, 1)
	}
	for i := 0; i < 5; i++ {
		b.add("Team A", "Team B", 1, 1)
	}
	b.add("Team A", "Team B", 0, 2)
	b.add("Team A", "Team B", 0, 2)
	b.add("Team A", "Team B", 0, 4)
	return b.recent()
}

func TestComputeBasicStatsTwentyMeetings(t *testing.T) {
	got := ComputeBasicStats(twentyMeetings())

	want := models.MatchStats{
		TotalMatches:       20,
		HomeWins:           12,
		Draws:              5,
		AwayWins:           3,
		HomeWinPercentage:  60.0,
		DrawPercentage:     25.0,
		AwayWinPercentage:  15.0,
		BTTSCount:          17,
		BTTSPercentage:     85.0,
		ComebackCount:      0,
		ComebackPercentage: 0,
		AvgGoals:           2.7,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ComputeBasicStats() = %+v, want %+v", got, want)
	}
}

func TestOutcomePercentagesSumToHundred(t *testing.T) {
	tests := []struct {
		name    string
		matches []models.MatchRecord
	}{
		{"thirds", newFixtureBuilder().add("A", "B", 1, 0).add("A", "B", 0, 0).add("A", "B", 0, 1).recent()},
		{"sevenths", newFixtureBuilder().
			add("A", "B", 1, 0).add("A", "B", 2, 0).add("A", "B", 3, 0).
			add("A", "B", 0, 0).add("A", "B", 1, 1).
			add("A", "B", 0, 1).add("A", "B", 0, 2).recent()},
		{"single", newFixtureBuilder().add("A", "B", 4, 4).recent()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ComputeBasicStats(tt.matches)
			sum := s.HomeWinPercentage + s.DrawPercentage + s.AwayWinPercentage
			if math.Abs(sum-100) > 0.2 {
				t.Errorf("percentages sum to %v", sum)
			}
		})
	}
}

func TestComputeBasicStatsDerivesFromGoals(t *testing.T) {
	// Stored flags that contradict the score are ignored.
	m := models.MatchRecord{HomeTeam: "A", AwayTeam: "B", FullTimeHomeGoals: 0, FullTimeAwayGoals: 3, Result: models.OutcomeHome, BTTS: true}
	s := ComputeBasicStats([]models.MatchRecord{m})
	if s.AwayWins != 1 || s.HomeWins != 0 {
		t.Errorf("outcome counts = %d/%d/%d", s.HomeWins, s.Draws, s.AwayWins)
	}
	if s.BTTSCount != 0 {
		t.Errorf("BTTSCount = %d, want 0", s.BTTSCount)
	}
}

func TestComputeDetailedStats(t *testing.T) {
	matches := newFixtureBuilder().
		add("A", "B", 2, 0, 1, 0). // home lead held
		add("A", "B", 1, 1, 1, 0). // home lead lost
		add("A", "B", 0, 2, 0, 1). // away lead held
		add("A", "B", 1, 0).       // no half-time data, read as level
		add("A", "B", 3, 2, 0, 2). // comeback
		recent()

	d := ComputeDetailedStats(matches)

	if d.TotalHomeGoals != 7 || d.TotalAwayGoals != 5 {
		t.Errorf("goal totals = %d/%d, want 7/5", d.TotalHomeGoals, d.TotalAwayGoals)
	}
	if d.AvgHomeGoals != 1.4 || d.AvgAwayGoals != 1.0 {
		t.Errorf("averages = %v/%v, want 1.4/1.0", d.AvgHomeGoals, d.AvgAwayGoals)
	}
	if d.HomeCleanSheets != 2 || d.AwayCleanSheets != 1 {
		t.Errorf("clean sheets = %d/%d, want 2/1", d.HomeCleanSheets, d.AwayCleanSheets)
	}
	if d.HomeCleanSheetPercentage != 40.0 || d.AwayCleanSheetPercentage != 20.0 {
		t.Errorf("clean sheet pct = %v/%v", d.HomeCleanSheetPercentage, d.AwayCleanSheetPercentage)
	}
	if d.Over25Count != 1 || d.Under25Count != 4 || d.Over35Count != 1 {
		t.Errorf("over/under = %d/%d/%d, want 1/4/1", d.Over25Count, d.Under25Count, d.Over35Count)
	}
	// 3-2 from 0-2 down, and the away side levelling 1-1 from 1-0 down.
	if d.ComebackCount != 2 || d.ComebackPercentage != 40.0 {
		t.Errorf("comebacks = %d (%v%%)", d.ComebackCount, d.ComebackPercentage)
	}

	ht := d.HalfTime
	if ht.HomeLeads != 2 || ht.HomeLeadsHeld != 1 || ht.HomeLeadHeldPercentage != 50.0 {
		t.Errorf("home leads = %+v", ht)
	}
	if ht.AwayLeads != 2 || ht.AwayLeadsHeld != 1 || ht.AwayLeadHeldPercentage != 50.0 {
		t.Errorf("away leads = %+v", ht)
	}
	if ht.Draws != 1 {
		t.Errorf("half-time draws = %d, want 1", ht.Draws)
	}
}

func TestLeadHeldPercentageWithoutLeads(t *testing.T) {
	d := ComputeDetailedStats(newFixtureBuilder().add("A", "B", 1, 1, 0, 0).recent())
	if d.HalfTime.HomeLeadHeldPercentage != 0 || d.HalfTime.AwayLeadHeldPercentage != 0 {
		t.Errorf("held percentages = %+v, want 0", d.HalfTime)
	}
}

func TestFrequentResults(t *testing.T) {
	tests := []struct {
		name    string
		matches []models.MatchRecord
		want    []models.ScorelineFrequency
	}{
		{
			name:    "ranked by count",
			matches: twentyMeetings(),
			want: []models.ScorelineFrequency{
				{Score: "2-1", Count: 12, Percentage: 60.0},
				{Score: "1-1", Count: 5, Percentage: 25.0},
				{Score: "0-2", Count: 2, Percentage: 10.0},
				{Score: "0-4", Count: 1, Percentage: 5.0},
			},
		},
		{
			name: "ties keep first-seen order and truncate to four",
			matches: []models.MatchRecord{
				models.NewMatchRecord("A", "B", 1, 0, nil, nil, testTime),
				models.NewMatchRecord("A", "B", 0, 0, nil, nil, testTime),
				models.NewMatchRecord("A", "B", 1, 0, nil, nil, testTime),
				models.NewMatchRecord("A", "B", 0, 0, nil, nil, testTime),
				models.NewMatchRecord("A", "B", 2, 2, nil, nil, testTime),
				models.NewMatchRecord("A", "B", 3, 3, nil, nil, testTime),
				models.NewMatchRecord("A", "B", 4, 4, nil, nil, testTime),
			},
			want: []models.ScorelineFrequency{
				{Score: "1-0", Count: 2, Percentage: 28.6},
				{Score: "0-0", Count: 2, Percentage: 28.6},
				{Score: "2-2", Count: 1, Percentage: 14.3},
				{Score: "3-3", Count: 1, Percentage: 14.3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDetailedStats(tt.matches).FrequentResults
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FrequentResults = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRound1HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{12.25, 12.3},
		{-12.25, -12.3},
		{33.333, 33.3},
		{66.666, 66.7},
	}
	for _, tt := range tests {
		if got := round1(tt.in); got != tt.want {
			t.Errorf("round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func BenchmarkComputeDetailedStats(b *testing.B) {
	fb := newFixtureBuilder()
	for i := 0; i < 1000; i++ {
		fb.add("A", "B", i%4, (i/3)%3, i%2, (i/5)%2)
	}
	matches := fb.recent()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ComputeDetailedStats(matches)
	}
}
