package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/footyodds/stats-api/internal/models"
)

// ============================================================================
// MATCH STATS & TEAM FEATURE ENDPOINTS
// ============================================================================

// GetMatchStats returns aggregate stats over stored matches
// @Summary Match Stats
// @Description Outcome percentages, btts, comebacks and average goals. detailed=true adds goal splits, over/under lines, frequent scorelines and half-time transitions.
// @Tags Stats
// @Produce json
// @Param team query string false "Team name"
// @Param opponent query string false "Opponent (requires team)"
// @Param venue query string false "home or away (requires team)"
// @Param competition query string false "Competition"
// @Param season query string false "Season"
// @Param from query string false "RFC3339 or YYYY-MM-DD"
// @Param to query string false "RFC3339 or YYYY-MM-DD"
// @Param limit query int false "Most recent N matches" default(100)
// @Param detailed query bool false "Include detailed breakdowns"
// @Success 200 {object} models.DetailedMatchStats
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 503 {object} map[string]string "Match store unavailable"
// @Router /stats/matches [get]
func (h *Handler) GetMatchStats(w http.ResponseWriter, r *http.Request) {
	req, err := parseStatsQuery(r.URL.Query())
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := req.filter()
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Detailed {
		stats, err := h.matchStats.GetDetailedMatchStats(r.Context(), filter)
		if err != nil {
			h.predictionErrorResponse(w, err, "calculate match stats")
			return
		}
		h.jsonResponse(w, http.StatusOK, stats)
		return
	}

	stats, err := h.matchStats.GetMatchStats(r.Context(), filter)
	if err != nil {
		h.predictionErrorResponse(w, err, "calculate match stats")
		return
	}
	h.jsonResponse(w, http.StatusOK, stats)
}

// GetTeamFeatures returns the form, goal and historical features for a team
// @Summary Team Features
// @Tags Teams
// @Produce json
// @Param team path string true "Team name"
// @Param competition query string false "Competition"
// @Param season query string false "Season"
// @Param date query string false "Only use matches before this date"
// @Success 200 {object} models.TeamFeatures
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 503 {object} map[string]string "Match store unavailable"
// @Router /teams/{team}/features [get]
func (h *Handler) GetTeamFeatures(w http.ResponseWriter, r *http.Request) {
	team := pathParam(r, "team")
	if team == "" {
		h.errorResponse(w, http.StatusBadRequest, "Team is required")
		return
	}
	mc, err := parseMatchContext(r.URL.Query())
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	features, err := h.features.GetTeamFeatures(r.Context(), team, mc)
	if err != nil {
		h.predictionErrorResponse(w, err, "get team features")
		return
	}
	h.jsonResponse(w, http.StatusOK, features)
}

// GetHeadToHead returns head-to-head features relative to the home team
// @Summary Head To Head
// @Tags Teams
// @Produce json
// @Param home path string true "Home team"
// @Param away path string true "Away team"
// @Param competition query string false "Competition"
// @Param season query string false "Season"
// @Param date query string false "Only use matches before this date"
// @Success 200 {object} models.HeadToHead
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 503 {object} map[string]string "Match store unavailable"
// @Router /teams/{home}/h2h/{away} [get]
func (h *Handler) GetHeadToHead(w http.ResponseWriter, r *http.Request) {
	home, away := pathParam(r, "home"), pathParam(r, "away")
	if home == "" || away == "" {
		h.errorResponse(w, http.StatusBadRequest, "Both teams are required")
		return
	}
	if strings.EqualFold(home, away) {
		h.errorResponse(w, http.StatusBadRequest, "Teams must differ")
		return
	}
	mc, err := parseMatchContext(r.URL.Query())
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h2h, err := h.features.GetHeadToHeadFeatures(r.Context(), home, away, mc)
	if err != nil {
		h.predictionErrorResponse(w, err, "get head to head")
		return
	}
	h.jsonResponse(w, http.StatusOK, h2h)
}

// pathParam reads and unescapes a chi URL parameter. Team names may contain
// spaces.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		raw = v
	}
	return strings.TrimSpace(raw)
}

type statsQuery struct {
	models.StatsQueryRequest
}

func parseStatsQuery(q url.Values) (statsQuery, error) {
	req := statsQuery{models.StatsQueryRequest{
		Team:        strings.TrimSpace(q.Get("team")),
		Opponent:    strings.TrimSpace(q.Get("opponent")),
		Venue:       q.Get("venue"),
		Competition: q.Get("competition"),
		Season:      q.Get("season"),
		From:        q.Get("from"),
		To:          q.Get("to"),
	}}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return req, fmt.Errorf("invalid limit: %s", s)
		}
		req.Limit = n
	}
	if s := q.Get("detailed"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return req, fmt.Errorf("invalid detailed flag: %s", s)
		}
		req.Detailed = b
	}
	return req, nil
}

func (req statsQuery) filter() (models.MatchFilter, error) {
	f := models.MatchFilter{
		Team:        req.Team,
		Opponent:    req.Opponent,
		Venue:       models.Venue(req.Venue),
		Competition: req.Competition,
		Season:      req.Season,
		Limit:       req.Limit,
	}
	var err error
	if f.From, err = parseDate(req.From); err != nil {
		return f, err
	}
	if f.To, err = parseDate(req.To); err != nil {
		return f, err
	}
	return f, f.Validate()
}

func parseMatchContext(q url.Values) (*models.MatchContext, error) {
	season, competition, date := q.Get("season"), q.Get("competition"), q.Get("date")
	if season == "" && competition == "" && date == "" {
		return nil, nil
	}
	at, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	return &models.MatchContext{Season: season, Competition: competition, Date: at}, nil
}

// parseDate accepts RFC3339 timestamps or plain dates. Empty means unset.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date: %s", s)
}
