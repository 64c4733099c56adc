package logic

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/footyodds/stats-api/internal/models"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// sqliteTimeLayout is fixed-width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

// SQLMatchStore reads match history through database/sql. It backs the
// lib/pq, MySQL and SQLite deployments.
type SQLMatchStore struct {
	db      *sql.DB
	driver  string
	dialect Dialect
}

// OpenSQLMatchStore opens and pings a database/sql connection.
func OpenSQLMatchStore(driver, dsn string) (*SQLMatchStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// Each SQLite connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}
	return NewSQLMatchStore(db, driver)
}

// NewSQLMatchStore wraps an existing handle.
func NewSQLMatchStore(db *sql.DB, driver string) (*SQLMatchStore, error) {
	s := &SQLMatchStore{db: db, driver: driver}
	switch driver {
	case DriverPostgres:
		s.dialect = DialectPostgres
	case DriverMySQL, DriverSQLite:
		s.dialect = DialectQuestion
	default:
		return nil, fmt.Errorf("unsupported match store driver: %s", driver)
	}
	return s, nil
}

func (s *SQLMatchStore) DB() *sql.DB {
	return s.db
}

func (s *SQLMatchStore) Close() error {
	return s.db.Close()
}

func (s *SQLMatchStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// timeArg converts time values into what the driver stores.
func (s *SQLMatchStore) timeArg(t time.Time) interface{} {
	if s.driver == DriverSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// QueryMatches returns matches for the filter, most recent first.
func (s *SQLMatchStore) QueryMatches(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error) {
	query, args, err := buildMatchQuery(filter, s.dialect, s.timeArg)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("match query failed: %w", err)
	}
	defer rows.Close()

	matches := make([]models.MatchRecord, 0)
	for rows.Next() {
		var (
			m              models.MatchRecord
			result         string
			htHome, htAway sql.NullInt64
			matchTime      scanTime
		)
		if err := rows.Scan(
			&m.ID, &m.HomeTeam, &m.AwayTeam, &m.Competition, &m.Season,
			&m.FullTimeHomeGoals, &m.FullTimeAwayGoals,
			&htHome, &htAway,
			&result, &m.BTTS, &m.Comeback, &matchTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if htHome.Valid {
			v := int(htHome.Int64)
			m.HalfTimeHomeGoals = &v
		}
		if htAway.Valid {
			v := int(htAway.Int64)
			m.HalfTimeAwayGoals = &v
		}
		m.Result = models.Outcome(result)
		m.MatchTime = matchTime.Time
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match row iteration failed: %w", err)
	}

	return matches, nil
}

// Migrate creates the matches table if it does not exist.
func (s *SQLMatchStore) Migrate(ctx context.Context) error {
	for _, q := range migrations(s.driver) {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// InsertMatches writes records in a single transaction.
func (s *SQLMatchStore) InsertMatches(ctx context.Context, matches []models.MatchRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertMatchSQL(s.dialect))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		if err := m.Validate(); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, insertMatchArgs(m, s.timeArg)...); err != nil {
			return fmt.Errorf("inserting match %s v %s: %w", m.HomeTeam, m.AwayTeam, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tx: %w", err)
	}
	return nil
}

func insertMatchSQL(d Dialect) string {
	ph := make([]interface{}, 12)
	for i := range ph {
		if d == DialectPostgres {
			ph[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ph[i] = "?"
		}
	}
	return fmt.Sprintf(`INSERT INTO matches (
		home_team, away_team, competition, season,
		full_time_home_goals, full_time_away_goals,
		half_time_home_goals, half_time_away_goals,
		result_computed, btts_computed, comeback_computed, match_time
	) VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`, ph...)
}

func insertMatchArgs(m models.MatchRecord, timeArg func(time.Time) interface{}) []interface{} {
	var htHome, htAway interface{}
	if m.HalfTimeHomeGoals != nil {
		htHome = *m.HalfTimeHomeGoals
	}
	if m.HalfTimeAwayGoals != nil {
		htAway = *m.HalfTimeAwayGoals
	}
	var at interface{} = m.MatchTime.UTC()
	if timeArg != nil {
		at = timeArg(m.MatchTime)
	}
	return []interface{}{
		m.HomeTeam, m.AwayTeam, m.Competition, m.Season,
		m.FullTimeHomeGoals, m.FullTimeAwayGoals,
		htHome, htAway,
		string(m.Outcome()), m.BothScored(), m.Comeback, at,
	}
}

func migrations(driver string) []string {
	switch driver {
	case DriverMySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS matches (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				home_team VARCHAR(128) NOT NULL,
				away_team VARCHAR(128) NOT NULL,
				competition VARCHAR(128) NOT NULL DEFAULT '',
				season VARCHAR(32) NOT NULL DEFAULT '',
				full_time_home_goals INT NOT NULL,
				full_time_away_goals INT NOT NULL,
				half_time_home_goals INT NULL,
				half_time_away_goals INT NULL,
				result_computed CHAR(1) NOT NULL,
				btts_computed BOOLEAN NOT NULL,
				comeback_computed BOOLEAN NOT NULL DEFAULT FALSE,
				match_time DATETIME(6) NOT NULL,
				INDEX idx_matches_home (home_team, match_time),
				INDEX idx_matches_away (away_team, match_time)
			)`,
		}
	case DriverSQLite:
		return []string{
			`CREATE TABLE IF NOT EXISTS matches (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				home_team TEXT NOT NULL,
				away_team TEXT NOT NULL,
				competition TEXT NOT NULL DEFAULT '',
				season TEXT NOT NULL DEFAULT '',
				full_time_home_goals INTEGER NOT NULL,
				full_time_away_goals INTEGER NOT NULL,
				half_time_home_goals INTEGER,
				half_time_away_goals INTEGER,
				result_computed TEXT NOT NULL,
				btts_computed BOOLEAN NOT NULL,
				comeback_computed BOOLEAN NOT NULL DEFAULT 0,
				match_time TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_matches_home ON matches(home_team, match_time)`,
			`CREATE INDEX IF NOT EXISTS idx_matches_away ON matches(away_team, match_time)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS matches (
				id BIGSERIAL PRIMARY KEY,
				home_team TEXT NOT NULL,
				away_team TEXT NOT NULL,
				competition TEXT NOT NULL DEFAULT '',
				season TEXT NOT NULL DEFAULT '',
				full_time_home_goals INT NOT NULL CHECK (full_time_home_goals >= 0),
				full_time_away_goals INT NOT NULL CHECK (full_time_away_goals >= 0),
				half_time_home_goals INT,
				half_time_away_goals INT,
				result_computed CHAR(1) NOT NULL,
				btts_computed BOOLEAN NOT NULL,
				comeback_computed BOOLEAN NOT NULL DEFAULT FALSE,
				match_time TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_matches_home ON matches(home_team, match_time DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_matches_away ON matches(away_team, match_time DESC)`,
		}
	}
}

// scanTime accepts the time representations returned by the supported
// drivers.
type scanTime struct {
	Time time.Time
}

var scanTimeLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *scanTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case int64:
		t.Time = time.Unix(v, 0).UTC()
		return nil
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
}

func (t *scanTime) parse(s string) error {
	for _, layout := range scanTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse time %q", s)
}
