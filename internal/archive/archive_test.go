package archive

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rangekit/internal/obs"
	"github.com/banshee-data/rangekit/internal/timeutil"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "scans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func fixtureScan(label string, ts time.Time) *obs.RangeScan2D {
	s := obs.NewRangeScan2D()
	s.Aperture = float32(math.Pi)
	s.Ranges = []float32{1.5, 2.25, 3.0, 40.0}
	s.Valid = []bool{true, true, true, false}
	s.Intensity = []float32{0.1, 0.2, 0.3, 0}
	s.StdError = 0.02
	s.Timestamp = ts
	s.SensorLabel = label
	return s
}

func TestOpenMigratesSchema(t *testing.T) {
	a := openTestArchive(t)

	version, err := a.SchemaVersion()
	require.NoError(t, err)
	require.Equal(t, uint(2), version)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.db")

	a, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// Reopening an already-migrated archive must not fail.
	a, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestAppendAndDecodeRoundTrip(t *testing.T) {
	a := openTestArchive(t)

	session, err := a.BeginSession("SICK_LMS200")
	require.NoError(t, err)
	require.NotEmpty(t, session)

	captured := time.Date(2026, 8, 28, 9, 30, 0, 123456789, time.UTC)
	want := fixtureScan("SICK_LMS200", captured)

	id, err := a.AppendScan(session, want)
	require.NoError(t, err)

	stored, err := a.Scan(id)
	require.NoError(t, err)
	require.Equal(t, session, stored.SessionID)
	require.Equal(t, obs.CurrentScanVersion, stored.FormatVersion)
	require.Equal(t, len(want.Ranges), stored.RayCount)
	require.Equal(t, "SICK_LMS200", stored.SensorLabel)
	require.True(t, stored.CapturedAt.Equal(captured))

	got, err := stored.Decode()
	require.NoError(t, err)
	diff := cmp.Diff(want, got,
		cmpopts.IgnoreUnexported(obs.RangeScan2D{}),
		cmpopts.EquateEmpty(),
	)
	require.Empty(t, diff)
}

func TestSessionsNewestFirstWithCounts(t *testing.T) {
	a := openTestArchive(t)

	clock := timeutil.NewMockClock(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	a.clock = clock

	first, err := a.BeginSession("front")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := a.BeginSession("rear")
	require.NoError(t, err)

	scan := fixtureScan("front", time.Time{})
	for i := 0; i < 3; i++ {
		_, err := a.AppendScan(first, scan)
		require.NoError(t, err)
	}

	sessions, err := a.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, second, sessions[0].SessionID)
	require.Equal(t, 0, sessions[0].ScanCount)
	require.Equal(t, first, sessions[1].SessionID)
	require.Equal(t, 3, sessions[1].ScanCount)
	require.True(t, sessions[0].StartedAt.After(sessions[1].StartedAt))
}

func TestScansInsertionOrder(t *testing.T) {
	a := openTestArchive(t)

	session, err := a.BeginSession("front")
	require.NoError(t, err)

	var ids []int64
	for i := 0; i < 3; i++ {
		scan := fixtureScan("front", time.Time{})
		scan.Ranges[0] = float32(i)
		id, err := a.AppendScan(session, scan)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	scans, err := a.Scans(session)
	require.NoError(t, err)
	require.Len(t, scans, 3)
	for i, ss := range scans {
		require.Equal(t, ids[i], ss.ID)
		got, err := ss.Decode()
		require.NoError(t, err)
		require.Equal(t, float32(i), got.Ranges[0])
	}

	n, err := a.ScanCount(session)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestUnsetTimestampStoredAsZero(t *testing.T) {
	a := openTestArchive(t)

	session, err := a.BeginSession("front")
	require.NoError(t, err)
	id, err := a.AppendScan(session, fixtureScan("front", time.Time{}))
	require.NoError(t, err)

	stored, err := a.Scan(id)
	require.NoError(t, err)
	require.True(t, stored.CapturedAt.IsZero())
}

func TestAppendScanUnknownSession(t *testing.T) {
	a := openTestArchive(t)

	_, err := a.AppendScan("no-such-session", fixtureScan("front", time.Time{}))
	require.Error(t, err)
}

func TestScanMissing(t *testing.T) {
	a := openTestArchive(t)

	_, err := a.Scan(12345)
	require.Error(t, err)
}
