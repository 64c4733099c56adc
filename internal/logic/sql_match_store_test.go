package logic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/footyodds/stats-api/internal/models"
)

func newSQLiteStore(t *testing.T) *SQLMatchStore {
	t.Helper()
	store, err := OpenSQLMatchStore(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func seedSQLite(t *testing.T, store *SQLMatchStore) []models.MatchRecord {
	t.Helper()
	base := time.Date(2024, 8, 10, 15, 0, 0, 0, time.UTC)
	records := []models.MatchRecord{
		models.NewMatchRecord("Arsenal", "Chelsea", 2, 1, intPtr(1), intPtr(0), base),
		models.NewMatchRecord("Chelsea", "Arsenal", 0, 0, nil, nil, base.Add(7*24*time.Hour)),
		models.NewMatchRecord("Arsenal", "Spurs", 3, 2, intPtr(0), intPtr(2), base.Add(14*24*time.Hour)),
		models.NewMatchRecord("Spurs", "Chelsea", 1, 1, intPtr(1), intPtr(0), base.Add(21*24*time.Hour)),
	}
	for i := range records {
		records[i].Competition = "EPL"
		records[i].Season = "2024/25"
	}
	records[3].Competition = "FA Cup"
	require.NoError(t, store.InsertMatches(context.Background(), records))
	return records
}

func TestSQLMatchStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	seeded := seedSQLite(t, store)
	ctx := context.Background()

	all, err := store.QueryMatches(ctx, models.MatchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)

	// Most recent first.
	assert.Equal(t, "Spurs", all[0].HomeTeam)
	assert.Equal(t, "Arsenal", all[3].HomeTeam)
	assert.True(t, all[0].MatchTime.Equal(seeded[3].MatchTime))

	comeback := all[1]
	assert.Equal(t, "Arsenal", comeback.HomeTeam)
	assert.Equal(t, 3, comeback.FullTimeHomeGoals)
	require.NotNil(t, comeback.HalfTimeHomeGoals)
	assert.Equal(t, 0, *comeback.HalfTimeHomeGoals)
	assert.Equal(t, models.OutcomeHome, comeback.Result)
	assert.True(t, comeback.BTTS)
	assert.True(t, comeback.Comeback)

	noHalfTime := all[2]
	assert.Nil(t, noHalfTime.HalfTimeHomeGoals)
	assert.Nil(t, noHalfTime.HalfTimeAwayGoals)
	assert.Equal(t, models.OutcomeDraw, noHalfTime.Result)
	assert.False(t, noHalfTime.BTTS)
}

func TestSQLMatchStoreFilters(t *testing.T) {
	store := newSQLiteStore(t)
	seeded := seedSQLite(t, store)
	ctx := context.Background()

	tests := []struct {
		name      string
		filter    models.MatchFilter
		wantHomes []string
	}{
		{"team at home", models.MatchFilter{Team: "Arsenal", Venue: models.VenueHome}, []string{"Arsenal", "Arsenal"}},
		{"team away", models.MatchFilter{Team: "Chelsea", Venue: models.VenueAway}, []string{"Spurs", "Arsenal"}},
		{"head to head", models.MatchFilter{Team: "Arsenal", Opponent: "Chelsea"}, []string{"Chelsea", "Arsenal"}},
		{"competition", models.MatchFilter{Competition: "FA Cup"}, []string{"Spurs"}},
		{"limit", models.MatchFilter{Team: "Arsenal", Limit: 1}, []string{"Arsenal"}},
		{"before date", models.MatchFilter{To: seeded[1].MatchTime.Add(-time.Second)}, []string{"Arsenal"}},
		{"from date", models.MatchFilter{From: seeded[2].MatchTime}, []string{"Spurs", "Arsenal"}},
		{"no match", models.MatchFilter{Team: "Leeds"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.QueryMatches(ctx, tt.filter)
			require.NoError(t, err)
			homes := make([]string, 0, len(got))
			for _, m := range got {
				homes = append(homes, m.HomeTeam)
			}
			assert.Equal(t, tt.wantHomes, homes)
		})
	}
}

func TestSQLMatchStoreRejectsBadInput(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	_, err := store.QueryMatches(ctx, models.MatchFilter{Opponent: "Chelsea"})
	assert.Error(t, err)

	bad := models.NewMatchRecord("Arsenal", "Arsenal", 1, 0, nil, nil, testTime)
	assert.Error(t, store.InsertMatches(ctx, []models.MatchRecord{bad}))

	// The failed batch left nothing behind.
	all, err := store.QueryMatches(ctx, models.MatchFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLMatchStorePing(t *testing.T) {
	store := newSQLiteStore(t)
	assert.NoError(t, store.Ping(context.Background()))
	store.Close()
	assert.Error(t, store.Ping(context.Background()))
}

func TestNewSQLMatchStoreUnknownDriver(t *testing.T) {
	_, err := NewSQLMatchStore(nil, "oracle")
	assert.Error(t, err)
}

func TestScanTime(t *testing.T) {
	want := time.Date(2024, 8, 10, 15, 0, 0, 0, time.UTC)
	inputs := []interface{}{
		want,
		"2024-08-10 15:00:00.000000000",
		[]byte("2024-08-10T15:00:00Z"),
		"2024-08-10 15:00:00",
		want.Unix(),
	}
	for _, in := range inputs {
		var st scanTime
		require.NoError(t, st.Scan(in), "input %v", in)
		assert.True(t, st.Time.Equal(want), "input %v gave %v", in, st.Time)
	}

	var st scanTime
	assert.Error(t, st.Scan("yesterday"))
	assert.Error(t, st.Scan(3.14))
}
