package logic

import (
	"math"
	"sort"

	"github.com/footyodds/stats-api/internal/models"
)

// frequentResultsLimit is the number of scorelines kept in detailed stats.
const frequentResultsLimit = 4

// round1 rounds to one decimal place, halves away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// percentage returns count/total*100 rounded to one decimal, or 0 for an
// empty total.
func percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(count) / float64(total) * 100)
}

// average returns sum/n rounded to one decimal, or 0 for n == 0.
func average(sum, n int) float64 {
	if n <= 0 {
		return 0
	}
	return round1(float64(sum) / float64(n))
}

// ComputeBasicStats aggregates outcome, btts, comeback and goal counts. An
// empty slice yields the zero value.
func ComputeBasicStats(matches []models.MatchRecord) models.MatchStats {
	stats := models.MatchStats{TotalMatches: len(matches)}
	if len(matches) == 0 {
		return stats
	}

	totalGoals := 0
	for _, m := range matches {
		switch m.Outcome() {
		case models.OutcomeHome:
			stats.HomeWins++
		case models.OutcomeAway:
			stats.AwayWins++
		default:
			stats.Draws++
		}
		if m.BothScored() {
			stats.BTTSCount++
		}
		if m.Comeback {
			stats.ComebackCount++
		}
		totalGoals += m.TotalGoals()
	}

	n := stats.TotalMatches
	stats.HomeWinPercentage = percentage(stats.HomeWins, n)
	stats.DrawPercentage = percentage(stats.Draws, n)
	stats.AwayWinPercentage = percentage(stats.AwayWins, n)
	stats.BTTSPercentage = percentage(stats.BTTSCount, n)
	stats.ComebackPercentage = percentage(stats.ComebackCount, n)
	stats.AvgGoals = average(totalGoals, n)

	return stats
}

// ComputeDetailedStats extends the basic stats with goal splits, clean
// sheets, over/under lines, frequent scorelines and half-time transitions.
func ComputeDetailedStats(matches []models.MatchRecord) models.DetailedMatchStats {
	detailed := models.DetailedMatchStats{
		MatchStats:      ComputeBasicStats(matches),
		FrequentResults: []models.ScorelineFrequency{},
	}
	n := len(matches)
	if n == 0 {
		return detailed
	}

	type scoreCount struct {
		score string
		count int
		first int
	}
	scores := make(map[string]*scoreCount)
	ht := &detailed.HalfTime

	for i, m := range matches {
		detailed.TotalHomeGoals += m.FullTimeHomeGoals
		detailed.TotalAwayGoals += m.FullTimeAwayGoals

		if m.FullTimeAwayGoals == 0 {
			detailed.HomeCleanSheets++
		}
		if m.FullTimeHomeGoals == 0 {
			detailed.AwayCleanSheets++
		}

		total := m.TotalGoals()
		if total > 2 {
			detailed.Over25Count++
		} else {
			detailed.Under25Count++
		}
		if total > 3 {
			detailed.Over35Count++
		}

		key := m.Scoreline()
		if sc, ok := scores[key]; ok {
			sc.count++
		} else {
			scores[key] = &scoreCount{score: key, count: 1, first: i}
		}

		htHome, htAway := m.HalfTime()
		outcome := m.Outcome()
		switch models.HalfTimeStateOf(htHome, htAway) {
		case models.HalfTimeHomeLead:
			ht.HomeLeads++
			if outcome == models.OutcomeHome {
				ht.HomeLeadsHeld++
			}
		case models.HalfTimeAwayLead:
			ht.AwayLeads++
			if outcome == models.OutcomeAway {
				ht.AwayLeadsHeld++
			}
		default:
			ht.Draws++
		}
	}

	detailed.AvgHomeGoals = average(detailed.TotalHomeGoals, n)
	detailed.AvgAwayGoals = average(detailed.TotalAwayGoals, n)
	detailed.HomeCleanSheetPercentage = percentage(detailed.HomeCleanSheets, n)
	detailed.AwayCleanSheetPercentage = percentage(detailed.AwayCleanSheets, n)
	detailed.Over25Percentage = percentage(detailed.Over25Count, n)
	detailed.Under25Percentage = percentage(detailed.Under25Count, n)
	detailed.Over35Percentage = percentage(detailed.Over35Count, n)
	ht.HomeLeadHeldPercentage = percentage(ht.HomeLeadsHeld, ht.HomeLeads)
	ht.AwayLeadHeldPercentage = percentage(ht.AwayLeadsHeld, ht.AwayLeads)

	ranked := make([]*scoreCount, 0, len(scores))
	for _, sc := range scores {
		ranked = append(ranked, sc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})
	if len(ranked) > frequentResultsLimit {
		ranked = ranked[:frequentResultsLimit]
	}
	for _, sc := range ranked {
		detailed.FrequentResults = append(detailed.FrequentResults, models.ScorelineFrequency{
			Score:      sc.score,
			Count:      sc.count,
			Percentage: percentage(sc.count, n),
		})
	}

	return detailed
}
