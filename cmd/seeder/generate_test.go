package main

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestGenerateSeason(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	teams := defaultTeams()
	start := time.Date(2023, 8, 12, 15, 0, 0, 0, time.UTC)

	matches := generateSeason(rng, teams, "Synthetic League", "2023/24", start)

	if want := len(teams) * (len(teams) - 1); len(matches) != want {
		t.Fatalf("len(matches) = %d, want %d", len(matches), want)
	}

	pairs := make(map[string]bool)
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			t.Fatalf("invalid generated match: %v", err)
		}
		if m.Season != "2023/24" || m.Competition != "Synthetic League" {
			t.Errorf("match metadata = %q/%q", m.Competition, m.Season)
		}
		htHome, htAway := m.HalfTime()
		if htHome > m.FullTimeHomeGoals || htAway > m.FullTimeAwayGoals {
			t.Errorf("half-time %d-%d exceeds full-time %s", htHome, htAway, m.Scoreline())
		}
		if m.MatchTime.Before(start) {
			t.Errorf("match before season start: %v", m.MatchTime)
		}
		key := m.HomeTeam + "|" + m.AwayTeam
		if pairs[key] {
			t.Errorf("duplicate fixture %s", key)
		}
		pairs[key] = true
	}
}

func TestSamplePoissonMean(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n = 20000
	sum := 0
	for i := 0; i < n; i++ {
		sum += samplePoisson(rng, 1.4)
	}
	if mean := float64(sum) / n; math.Abs(mean-1.4) > 0.05 {
		t.Errorf("sample mean = %.3f, want about 1.4", mean)
	}
}

func TestSampleBinomialBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 8; n++ {
		if k := sampleBinomial(rng, n, 0.45); k < 0 || k > n {
			t.Errorf("sampleBinomial(%d) = %d", n, k)
		}
	}
}
