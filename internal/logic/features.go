package logic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/footyodds/stats-api/internal/models"
)

// DefaultHalfTimeStates is the prior half-time state frequency (home lead,
// draw, away lead) used when a head-to-head sample is empty.
var DefaultHalfTimeStates = [3]float64{0.33, 0.42, 0.25}

// FeatureConfig tunes how much history the extractor reads.
type FeatureConfig struct {
	RecentMatchLimit int           // per venue split
	FormWindow       int           // entries kept in each form sequence
	H2HLimit         int           // head-to-head meetings
	FetchTimeout     time.Duration // per query budget; 0 disables
	// TransitionPriorStrength is the pseudo-count given to the default
	// transition matrix when estimating one from a sample.
	TransitionPriorStrength float64
}

func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		RecentMatchLimit:        10,
		FormWindow:              5,
		H2HLimit:                10,
		FetchTimeout:            3 * time.Second,
		TransitionPriorStrength: 2,
	}
}

// FeatureExtractor derives team and head-to-head features from match history.
type FeatureExtractor struct {
	matches MatchQuerier
	cache   FeatureCache
	cfg     FeatureConfig
	now     func() time.Time
}

// NewFeatureExtractor builds an extractor. cache may be nil.
func NewFeatureExtractor(matches MatchQuerier, cache FeatureCache, cfg FeatureConfig) *FeatureExtractor {
	def := DefaultFeatureConfig()
	if cfg.RecentMatchLimit <= 0 {
		cfg.RecentMatchLimit = def.RecentMatchLimit
	}
	if cfg.FormWindow <= 0 {
		cfg.FormWindow = def.FormWindow
	}
	if cfg.H2HLimit <= 0 {
		cfg.H2HLimit = def.H2HLimit
	}
	if cfg.TransitionPriorStrength < 0 {
		cfg.TransitionPriorStrength = 0
	}
	return &FeatureExtractor{matches: matches, cache: cache, cfg: cfg, now: time.Now}
}

// contextFilter applies the optional match context to a filter. Only matches
// strictly before the fixture date are used.
func contextFilter(f models.MatchFilter, mc *models.MatchContext) models.MatchFilter {
	if mc == nil {
		return f
	}
	f.Competition = mc.Competition
	f.Season = mc.Season
	if !mc.Date.IsZero() {
		f.To = mc.Date.Add(-time.Second)
	}
	return f
}

// featureCacheKey uses the team name exactly as the store compares it.
func featureCacheKey(team string, mc *models.MatchContext) string {
	parts := []string{"features", team}
	if mc != nil {
		parts = append(parts, mc.Competition, mc.Season)
		if !mc.Date.IsZero() {
			parts = append(parts, mc.Date.UTC().Format("2006-01-02"))
		}
	}
	return strings.Join(parts, ":")
}

// fetch runs one query under the configured budget. A blown budget is
// reported as missing data; any other failure means the store is unavailable.
func (e *FeatureExtractor) fetch(ctx context.Context, op string, filter models.MatchFilter) ([]models.MatchRecord, error) {
	qctx := ctx
	if e.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()
	}

	matches, err := e.matches.QueryMatches(qctx, filter)
	if err == nil {
		return matches, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || qctx.Err() != nil {
		return nil, newPredictionError(KindDataUnavailable, op, fmt.Errorf("fetch exceeded %s: %w", e.cfg.FetchTimeout, err))
	}
	return nil, newPredictionError(KindUpstreamUnavailable, op, err)
}

// GetTeamFeatures reads the most recent home and away matches of team and
// derives its features.
func (e *FeatureExtractor) GetTeamFeatures(ctx context.Context, team string, mc *models.MatchContext) (*models.TeamFeatures, error) {
	team = strings.TrimSpace(team)
	if team == "" {
		return nil, newPredictionError(KindValidation, "team features", errors.New("team is required"))
	}

	key := featureCacheKey(team, mc)
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	var home, away []models.MatchRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		home, err = e.fetch(gctx, "fetch home matches for "+team, contextFilter(models.MatchFilter{
			Team: team, Venue: models.VenueHome, Limit: e.cfg.RecentMatchLimit,
		}, mc))
		return err
	})
	g.Go(func() error {
		var err error
		away, err = e.fetch(gctx, "fetch away matches for "+team, contextFilter(models.MatchFilter{
			Team: team, Venue: models.VenueAway, Limit: e.cfg.RecentMatchLimit,
		}, mc))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	features := ComputeTeamFeatures(team, home, away, e.cfg.FormWindow, e.now())
	if e.cache != nil {
		e.cache.Set(ctx, key, &features)
	}
	return &features, nil
}

// GetHeadToHeadFeatures reads recent meetings between the two teams with
// either side at home. Counts are relative to homeTeam.
func (e *FeatureExtractor) GetHeadToHeadFeatures(ctx context.Context, homeTeam, awayTeam string, mc *models.MatchContext) (*models.HeadToHead, error) {
	if strings.TrimSpace(homeTeam) == "" || strings.TrimSpace(awayTeam) == "" {
		return nil, newPredictionError(KindValidation, "head to head", errors.New("both teams are required"))
	}

	matches, err := e.fetch(ctx, fmt.Sprintf("fetch head to head %s v %s", homeTeam, awayTeam), contextFilter(models.MatchFilter{
		Team: homeTeam, Opponent: awayTeam, Limit: e.cfg.H2HLimit,
	}, mc))
	if err != nil {
		return nil, err
	}

	h2h := ComputeHeadToHead(homeTeam, awayTeam, matches, e.cfg.TransitionPriorStrength)
	return &h2h, nil
}

// teamResult is a match seen from one team's side.
type teamResult struct {
	scored, conceded     int
	htScored, htConceded int
	outcome              models.Outcome // H = team won, D = draw, A = team lost
}

func resultFor(m models.MatchRecord, team string) teamResult {
	htHome, htAway := m.HalfTime()
	r := teamResult{
		scored: m.FullTimeHomeGoals, conceded: m.FullTimeAwayGoals,
		htScored: htHome, htConceded: htAway,
	}
	if m.AwayTeam == team && m.HomeTeam != team {
		r.scored, r.conceded = r.conceded, r.scored
		r.htScored, r.htConceded = r.htConceded, r.htScored
	}
	r.outcome = models.OutcomeOf(r.scored, r.conceded)
	return r
}

// value maps a result onto the form scale.
func (r teamResult) value() float64 {
	switch r.outcome {
	case models.OutcomeHome:
		return 1
	case models.OutcomeDraw:
		return 0.5
	default:
		return 0
	}
}

// sortRecent orders matches most recent first.
func sortRecent(matches []models.MatchRecord) {
	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].MatchTime.Equal(matches[j].MatchTime) {
			return matches[i].MatchTime.After(matches[j].MatchTime)
		}
		return matches[i].ID > matches[j].ID
	})
}

func formSequence(matches []models.MatchRecord, team string, window int) []float64 {
	n := len(matches)
	if n > window {
		n = window
	}
	seq := make([]float64, 0, n)
	for _, m := range matches[:n] {
		seq = append(seq, resultFor(m, team).value())
	}
	return seq
}

// streak counts identical consecutive outcomes from the most recent match.
// Wins count up, losses count down; draws report their length with the
// DRAW type. Differing two most recent results yield 0 and MIXED.
func streak(results []teamResult) (int, string) {
	if len(results) == 0 {
		return 0, models.StreakNone
	}
	if len(results) >= 2 && results[0].outcome != results[1].outcome {
		return 0, models.StreakMixed
	}
	first := results[0].outcome
	count := 0
	for _, r := range results {
		if r.outcome != first {
			break
		}
		count++
	}
	switch first {
	case models.OutcomeHome:
		return count, models.StreakWin
	case models.OutcomeAway:
		return -count, models.StreakLoss
	default:
		return count, models.StreakDraw
	}
}

// momentum compares the mean form value of the most recent half of the
// sample with the older half. With an odd sample the middle match is left
// out. The result is in [-1, 1].
func momentum(results []teamResult) float64 {
	half := len(results) / 2
	if half == 0 {
		return 0
	}
	var recent, older float64
	for _, r := range results[:half] {
		recent += r.value()
	}
	for _, r := range results[len(results)-half:] {
		older += r.value()
	}
	m := (recent - older) / float64(half)
	return clamp(m, -1, 1)
}

type venueProfile struct {
	avgScored, avgConceded float64
	bttsPct, cleanSheetPct float64
}

func profile(matches []models.MatchRecord, team string) venueProfile {
	if len(matches) == 0 {
		return venueProfile{}
	}
	var scored, conceded, btts, clean int
	for _, m := range matches {
		r := resultFor(m, team)
		scored += r.scored
		conceded += r.conceded
		if r.scored > 0 && r.conceded > 0 {
			btts++
		}
		if r.conceded == 0 {
			clean++
		}
	}
	n := float64(len(matches))
	return venueProfile{
		avgScored:     float64(scored) / n,
		avgConceded:   float64(conceded) / n,
		bttsPct:       float64(btts) / n * 100,
		cleanSheetPct: float64(clean) / n * 100,
	}
}

// ComputeTeamFeatures derives features from a team's recent home and away
// matches. Empty samples produce neutral zero features.
func ComputeTeamFeatures(team string, home, away []models.MatchRecord, formWindow int, now time.Time) models.TeamFeatures {
	if formWindow <= 0 {
		formWindow = 5
	}
	home = append([]models.MatchRecord(nil), home...)
	away = append([]models.MatchRecord(nil), away...)
	sortRecent(home)
	sortRecent(away)

	all := make([]models.MatchRecord, 0, len(home)+len(away))
	all = append(all, home...)
	all = append(all, away...)
	sortRecent(all)

	results := make([]teamResult, len(all))
	for i, m := range all {
		results[i] = resultFor(m, team)
	}

	f := models.TeamFeatures{Team: team, LastUpdated: now.UTC()}

	f.Form.HomeForm = formSequence(home, team, formWindow)
	f.Form.AwayForm = formSequence(away, team, formWindow)
	f.Form.OverallForm = formSequence(all, team, formWindow)
	f.Form.CurrentStreak, f.Form.StreakType = streak(results)
	f.Form.Momentum = momentum(results)

	hp := profile(home, team)
	ap := profile(away, team)
	f.Goals.AvgScoredHome = hp.avgScored
	f.Goals.AvgConcededHome = hp.avgConceded
	f.Goals.BTTSHomePct = hp.bttsPct
	f.Goals.CleanSheetHomePct = hp.cleanSheetPct
	f.Goals.AvgScoredAway = ap.avgScored
	f.Goals.AvgConcededAway = ap.avgConceded
	f.Goals.BTTSAwayPct = ap.bttsPct
	f.Goals.CleanSheetAwayPct = ap.cleanSheetPct

	var trailed, recovered, led, held, wins, draws, losses int
	for _, r := range results {
		switch models.HalfTimeStateOf(r.htScored, r.htConceded) {
		case models.HalfTimeAwayLead:
			trailed++
			if r.outcome != models.OutcomeAway {
				recovered++
			}
		case models.HalfTimeHomeLead:
			led++
			if r.outcome == models.OutcomeHome {
				held++
			}
		}
		switch r.outcome {
		case models.OutcomeHome:
			wins++
		case models.OutcomeDraw:
			draws++
		default:
			losses++
		}
	}
	if trailed > 0 {
		f.Goals.ComebackRate = float64(recovered) / float64(trailed) * 100
	}
	if led > 0 {
		f.Goals.LeadHoldingRate = float64(held) / float64(led) * 100
	}

	f.Historical = models.HistoricalFeatures{
		TotalMatches:   len(all),
		HomeMatches:    len(home),
		AwayMatches:    len(away),
		WinPercentage:  percentage(wins, len(all)),
		DrawPercentage: percentage(draws, len(all)),
		LossPercentage: percentage(losses, len(all)),
	}

	return f
}

// ComputeHeadToHead summarises meetings from homeTeam's side. The transition
// matrix blends observed half-time/full-time counts with the default matrix
// weighted by priorStrength pseudo-observations per row; an empty sample
// returns the default matrix unchanged.
func ComputeHeadToHead(homeTeam, awayTeam string, matches []models.MatchRecord, priorStrength float64) models.HeadToHead {
	h2h := models.HeadToHead{
		HomeTeam:       homeTeam,
		AwayTeam:       awayTeam,
		Transitions:    models.DefaultTransitionMatrix(),
		HalfTimeStates: DefaultHalfTimeStates,
	}

	var counts [3][3]float64
	var stateCounts [3]float64
	var goals, btts int
	for _, m := range matches {
		if !(m.Involves(homeTeam) && m.Involves(awayTeam)) {
			continue
		}
		r := resultFor(m, homeTeam)
		switch r.outcome {
		case models.OutcomeHome:
			h2h.HomeWins++
		case models.OutcomeDraw:
			h2h.Draws++
		default:
			h2h.AwayWins++
		}
		goals += m.TotalGoals()
		if m.BothScored() {
			btts++
		}
		state := models.HalfTimeStateOf(r.htScored, r.htConceded)
		counts[state][r.outcome.Index()]++
		stateCounts[state]++
		h2h.SampleSize++
	}

	n := h2h.SampleSize
	if n == 0 {
		return h2h
	}
	h2h.HomeAdvantage = float64(h2h.HomeWins) / float64(n)
	h2h.AvgGoals = float64(goals) / float64(n)
	h2h.BTTSRate = float64(btts) / float64(n)

	prior := models.DefaultTransitionMatrix()
	for s := 0; s < 3; s++ {
		rowN := stateCounts[s]
		if rowN+priorStrength <= 0 {
			continue
		}
		var row [3]float64
		for o := 0; o < 3; o++ {
			row[o] = (counts[s][o] + priorStrength*prior[s][o]) / (rowN + priorStrength)
		}
		h2h.Transitions[s] = models.TripleFromArray(row).Normalize().Array()
	}

	total := float64(n) + priorStrength
	var freq [3]float64
	for s := 0; s < 3; s++ {
		freq[s] = (stateCounts[s] + priorStrength*DefaultHalfTimeStates[s]) / total
	}
	h2h.HalfTimeStates = models.TripleFromArray(freq).Normalize().Array()

	return h2h
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
