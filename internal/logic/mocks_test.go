package logic

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/footyodds/stats-api/internal/models"
)

// MockQuerier serves matches from memory, applying filters the way the SQL
// stores do.
type MockQuerier struct {
	mu        sync.Mutex
	Matches   []models.MatchRecord
	QueryFunc func(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error)
	PingErr   error
	Filters   []models.MatchFilter
	Pings     int
}

func (m *MockQuerier) QueryMatches(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error) {
	m.mu.Lock()
	m.Filters = append(m.Filters, filter)
	fn := m.QueryFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, filter)
	}
	return applyFilter(m.Matches, filter), nil
}

func (m *MockQuerier) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pings++
	return m.PingErr
}

func (m *MockQuerier) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Filters)
}

func applyFilter(all []models.MatchRecord, f models.MatchFilter) []models.MatchRecord {
	out := make([]models.MatchRecord, 0)
	for _, m := range all {
		if f.Team != "" {
			home := m.HomeTeam == f.Team && (f.Opponent == "" || m.AwayTeam == f.Opponent)
			away := m.AwayTeam == f.Team && (f.Opponent == "" || m.HomeTeam == f.Opponent)
			switch f.Venue {
			case models.VenueHome:
				away = false
			case models.VenueAway:
				home = false
			}
			if !home && !away {
				continue
			}
		}
		if f.Competition != "" && m.Competition != f.Competition {
			continue
		}
		if f.Season != "" && m.Season != f.Season {
			continue
		}
		if !f.From.IsZero() && m.MatchTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && m.MatchTime.After(f.To) {
			continue
		}
		out = append(out, m)
	}
	sortRecent(out)
	limit := f.Limit
	if limit <= 0 {
		limit = defaultMatchLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MockRedis implements RedisClient over maps.
type MockRedis struct {
	mu      sync.Mutex
	Strings map[string]string
	Hashes  map[string]map[string]string
	TTLs    map[string]time.Duration
	Err     error
}

func NewMockRedis() *MockRedis {
	return &MockRedis{
		Strings: make(map[string]string),
		Hashes:  make(map[string]map[string]string),
		TTLs:    make(map[string]time.Duration),
	}
}

func (m *MockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return redis.NewStringResult("", m.Err)
	}
	v, ok := m.Strings[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *MockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return redis.NewStatusResult("", m.Err)
	}
	switch v := value.(type) {
	case []byte:
		m.Strings[key] = string(v)
	case string:
		m.Strings[key] = v
	default:
		return redis.NewStatusResult("", errors.New("unsupported value"))
	}
	m.TTLs[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *MockRedis) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return redis.NewMapStringStringResult(nil, m.Err)
	}
	out := make(map[string]string)
	for k, v := range m.Hashes[key] {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (m *MockRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return redis.NewIntResult(0, m.Err)
	}
	h, ok := m.Hashes[key]
	if !ok {
		h = make(map[string]string)
		m.Hashes[key] = h
	}
	var n int64
	for _, v := range values {
		if kv, ok := v.(map[string]interface{}); ok {
			for k, val := range kv {
				h[k] = val.(string)
				n++
			}
		}
	}
	return redis.NewIntResult(n, nil)
}

// MockPgPool implements PgPool with canned rows.
type MockPgPool struct {
	Rows     [][]interface{}
	QueryErr error
	ExecErr  error
	Queries  []string
	Args     [][]interface{}
	Execs    int
}

func (m *MockPgPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	m.Queries = append(m.Queries, sql)
	m.Args = append(m.Args, args)
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return &MockPgRows{Data: m.Rows}, nil
}

func (m *MockPgPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *MockPgPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.Execs++
	m.Queries = append(m.Queries, sql)
	m.Args = append(m.Args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), m.ExecErr
}

func (m *MockPgPool) Ping(ctx context.Context) error { return nil }

// MockPgRows implements pgx.Rows
type MockPgRows struct {
	pgx.Rows
	Data  [][]interface{}
	Index int
}

func (m *MockPgRows) Next() bool {
	m.Index++
	return m.Index <= len(m.Data)
}

func (m *MockPgRows) Scan(dest ...any) error {
	row := m.Data[m.Index-1]
	for i, val := range row {
		if i < len(dest) {
			setDest(dest[i], val)
		}
	}
	return nil
}

func (m *MockPgRows) Close()     {}
func (m *MockPgRows) Err() error { return nil }

// setDest assigns val through the pointer dest, allocating for pointer
// targets and leaving nil values as the zero value.
func setDest(dest interface{}, val interface{}) {
	v := reflect.ValueOf(dest).Elem()
	if val == nil {
		v.Set(reflect.Zero(v.Type()))
		return
	}
	valV := reflect.ValueOf(val)
	if v.Kind() == reflect.Ptr {
		p := reflect.New(v.Type().Elem())
		p.Elem().Set(valV.Convert(v.Type().Elem()))
		v.Set(p)
		return
	}
	if valV.Type().ConvertibleTo(v.Type()) {
		v.Set(valV.Convert(v.Type()))
	} else {
		v.Set(valV)
	}
}

// fixtureBuilder creates matches one day apart, oldest first.
type fixtureBuilder struct {
	start   time.Time
	next    int64
	matches []models.MatchRecord
}

func newFixtureBuilder() *fixtureBuilder {
	return &fixtureBuilder{start: time.Date(2024, 8, 1, 15, 0, 0, 0, time.UTC)}
}

func (b *fixtureBuilder) add(home, away string, ftH, ftA int, ht ...int) *fixtureBuilder {
	var htH, htA *int
	if len(ht) == 2 {
		htH, htA = &ht[0], &ht[1]
	}
	b.next++
	m := models.NewMatchRecord(home, away, ftH, ftA, htH, htA, b.start.Add(time.Duration(b.next)*24*time.Hour))
	m.ID = b.next
	b.matches = append(b.matches, m)
	return b
}

// recent returns the matches most recent first.
func (b *fixtureBuilder) recent() []models.MatchRecord {
	out := append([]models.MatchRecord(nil), b.matches...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchTime.After(out[j].MatchTime) })
	return out
}

func intPtr(v int) *int { return &v }

var testTime = time.Date(2024, 9, 1, 15, 0, 0, 0, time.UTC)
