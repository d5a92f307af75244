package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEndpoint = "https://api.water.noaa.gov/nwps/v1/gauges/01"
	testSite     = "01"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, clock clockwork.Clock) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, ":memory:", clock, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("postgres", "host=localhost", nil, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestOpen_CreatesDatabaseDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gauges.db")
	s, err := Open(DriverSQLite, path, nil, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening an existing file must not fail on the already-created schema.
	s, err = Open(DriverSQLite, path, nil, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t, testClock())
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())

	for _, m := range models() {
		assert.True(t, s.db.Migrator().HasTable(m))
	}
}

func TestLatest_Absent(t *testing.T) {
	s := newTestStore(t, testClock())

	_, found, err := s.Latest(context.Background(), domain.KindDetails, testSite)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInsert_ThenLatest(t *testing.T) {
	clock := testClock()
	s := newTestStore(t, clock)
	ctx := context.Background()

	snap := domain.Snapshot{
		SiteNo:    testSite,
		Kind:      domain.KindStageflow,
		Payload:   []byte(`{"observed":{"data":[]}}`),
		FetchedAt: clock.Now(),
	}
	require.NoError(t, s.Insert(ctx, snap))

	got, found, err := s.Latest(ctx, domain.KindStageflow, testSite)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, testSite, got.SiteNo)
	assert.Equal(t, domain.KindStageflow, got.Kind)
	assert.JSONEq(t, `{"observed":{"data":[]}}`, string(got.Payload))
	assert.True(t, clock.Now().Equal(got.FetchedAt))

	// Kinds live in separate tables.
	_, found, err = s.Latest(ctx, domain.KindDetails, testSite)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInsert_KeepsHistoryAndNewestWins(t *testing.T) {
	clock := testClock()
	s := newTestStore(t, clock)
	ctx := context.Background()

	old := domain.Snapshot{SiteNo: testSite, Kind: domain.KindDetails, Payload: []byte(`{"v":1}`), FetchedAt: clock.Now()}
	require.NoError(t, s.Insert(ctx, old))

	clock.Advance(20 * time.Minute)
	newer := domain.Snapshot{SiteNo: testSite, Kind: domain.KindDetails, Payload: []byte(`{"v":2}`), FetchedAt: clock.Now()}
	require.NoError(t, s.Insert(ctx, newer))

	count, err := s.CountSnapshots(ctx, domain.KindDetails, testSite)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	got, found, err := s.Latest(ctx, domain.KindDetails, testSite)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"v":2}`, string(got.Payload))
}

func TestInsert_UnknownKind(t *testing.T) {
	s := newTestStore(t, testClock())
	err := s.Insert(context.Background(), domain.Snapshot{SiteNo: testSite, Kind: "forecast", Payload: []byte(`{}`)})
	require.Error(t, err)

	_, _, err = s.Latest(context.Background(), "forecast", testSite)
	require.Error(t, err)
}

func TestCalledWithin(t *testing.T) {
	window := 900 * time.Second
	ctx := context.Background()

	t.Run("true immediately after logging", func(t *testing.T) {
		s := newTestStore(t, testClock())
		require.NoError(t, s.LogCall(ctx, testEndpoint, "details"))

		recent, err := s.CalledWithin(ctx, testEndpoint, "details", window)
		require.NoError(t, err)
		assert.True(t, recent)
	})

	t.Run("false with empty log", func(t *testing.T) {
		s := newTestStore(t, testClock())
		recent, err := s.CalledWithin(ctx, testEndpoint, "details", window)
		require.NoError(t, err)
		assert.False(t, recent)
	})

	t.Run("false once the log is cleared", func(t *testing.T) {
		s := newTestStore(t, testClock())
		require.NoError(t, s.LogCall(ctx, testEndpoint, "details"))
		require.NoError(t, s.db.Where("1 = 1").Delete(&APICall{}).Error)

		recent, err := s.CalledWithin(ctx, testEndpoint, "details", window)
		require.NoError(t, err)
		assert.False(t, recent)
	})

	t.Run("true at the window edge, false after it", func(t *testing.T) {
		clock := testClock()
		s := newTestStore(t, clock)
		require.NoError(t, s.LogCall(ctx, testEndpoint, "details"))

		clock.Advance(window)
		recent, err := s.CalledWithin(ctx, testEndpoint, "details", window)
		require.NoError(t, err)
		assert.True(t, recent)

		clock.Advance(time.Second)
		recent, err = s.CalledWithin(ctx, testEndpoint, "details", window)
		require.NoError(t, err)
		assert.False(t, recent)
	})

	t.Run("keyed by endpoint and data type", func(t *testing.T) {
		s := newTestStore(t, testClock())
		require.NoError(t, s.LogCall(ctx, testEndpoint, "details"))

		recent, err := s.CalledWithin(ctx, testEndpoint, "stageflow", window)
		require.NoError(t, err)
		assert.False(t, recent)

		recent, err = s.CalledWithin(ctx, testEndpoint+"/stageflow", "details", window)
		require.NoError(t, err)
		assert.False(t, recent)
	})
}

func TestLogError(t *testing.T) {
	s := newTestStore(t, testClock())
	ctx := context.Background()

	require.NoError(t, s.LogError(ctx, testEndpoint, "unexpected status 500 Internal Server Error"))

	errs, err := s.CountErrors(ctx, testEndpoint)
	require.NoError(t, err)
	assert.Equal(t, int64(1), errs)

	calls, err := s.CountCalls(ctx, testEndpoint, "details")
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestSaveGauges_AllowsDuplicatesAcrossRuns(t *testing.T) {
	s := newTestStore(t, testClock())
	ctx := context.Background()
	gauges := []domain.Gauge{
		{SiteNo: "01189995", StationName: "FARMINGTON RIVER AT TARIFFVILLE, CT", Latitude: 41.9084, Longitude: -72.7601},
		{SiteNo: "01190070", StationName: "CONNECTICUT RIVER AT HARTFORD, CT", Latitude: 41.7699, Longitude: -72.6687},
	}

	require.NoError(t, s.SaveGauges(ctx, gauges))
	require.NoError(t, s.SaveGauges(ctx, gauges))
	require.NoError(t, s.SaveGauges(ctx, nil))

	var count int64
	require.NoError(t, s.db.Model(&Gauge{}).Where("site_no = ?", "01189995").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
