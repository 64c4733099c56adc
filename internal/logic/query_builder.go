package logic

import (
	"fmt"
	"strings"
	"time"

	"github.com/footyodds/stats-api/internal/models"
)

// Dialect selects placeholder syntax for the match query.
type Dialect int

const (
	// DialectPostgres uses $1, $2, ... placeholders (pgx, lib/pq).
	DialectPostgres Dialect = iota
	// DialectQuestion uses ? placeholders (MySQL, SQLite).
	DialectQuestion
)

const defaultMatchLimit = 100

// matchColumns is the column list every store scans, in order.
const matchColumns = `id, home_team, away_team, competition, season,
		full_time_home_goals, full_time_away_goals,
		half_time_home_goals, half_time_away_goals,
		result_computed, btts_computed, comeback_computed, match_time`

// queryBuilder accumulates WHERE clauses and positional args.
type queryBuilder struct {
	dialect    Dialect
	clauses    []string
	args       []interface{}
	formatTime func(time.Time) interface{}
}

func (b *queryBuilder) placeholder() string {
	if b.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", len(b.args))
	}
	return "?"
}

// arg registers a value and returns its placeholder.
func (b *queryBuilder) arg(v interface{}) string {
	if t, ok := v.(time.Time); ok && b.formatTime != nil {
		v = b.formatTime(t)
	}
	b.args = append(b.args, v)
	return b.placeholder()
}

func (b *queryBuilder) where(clause string) {
	b.clauses = append(b.clauses, clause)
}

// BuildMatchQuery constructs a parameterised SELECT over the matches table.
// Every set filter field is applied; inconsistent filters are rejected.
func BuildMatchQuery(filter models.MatchFilter, dialect Dialect) (string, []interface{}, error) {
	return buildMatchQuery(filter, dialect, nil)
}

func buildMatchQuery(filter models.MatchFilter, dialect Dialect, formatTime func(time.Time) interface{}) (string, []interface{}, error) {
	if err := filter.Validate(); err != nil {
		return "", nil, fmt.Errorf("invalid match filter: %w", err)
	}

	b := &queryBuilder{dialect: dialect, formatTime: formatTime}

	// 1. Team / opponent / venue
	switch {
	case filter.Team != "" && filter.Opponent != "":
		switch filter.Venue {
		case models.VenueHome:
			b.where(fmt.Sprintf("(home_team = %s AND away_team = %s)", b.arg(filter.Team), b.arg(filter.Opponent)))
		case models.VenueAway:
			b.where(fmt.Sprintf("(home_team = %s AND away_team = %s)", b.arg(filter.Opponent), b.arg(filter.Team)))
		default:
			b.where(fmt.Sprintf("((home_team = %s AND away_team = %s) OR (home_team = %s AND away_team = %s))",
				b.arg(filter.Team), b.arg(filter.Opponent), b.arg(filter.Opponent), b.arg(filter.Team)))
		}
	case filter.Team != "":
		switch filter.Venue {
		case models.VenueHome:
			b.where(fmt.Sprintf("home_team = %s", b.arg(filter.Team)))
		case models.VenueAway:
			b.where(fmt.Sprintf("away_team = %s", b.arg(filter.Team)))
		default:
			b.where(fmt.Sprintf("(home_team = %s OR away_team = %s)", b.arg(filter.Team), b.arg(filter.Team)))
		}
	}

	// 2. Competition / season
	if filter.Competition != "" {
		b.where(fmt.Sprintf("competition = %s", b.arg(filter.Competition)))
	}
	if filter.Season != "" {
		b.where(fmt.Sprintf("season = %s", b.arg(filter.Season)))
	}

	// 3. Date range
	if !filter.From.IsZero() {
		b.where(fmt.Sprintf("match_time >= %s", b.arg(filter.From.UTC())))
	}
	if !filter.To.IsZero() {
		b.where(fmt.Sprintf("match_time <= %s", b.arg(filter.To.UTC())))
	}

	// 4. Assemble
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(matchColumns)
	sb.WriteString(" FROM matches")
	if len(b.clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.clauses, " AND "))
	}

	// 5. Order and limit
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultMatchLimit
	}
	sb.WriteString(fmt.Sprintf(" ORDER BY match_time DESC, id DESC LIMIT %d", limit))

	return sb.String(), b.args, nil
}
