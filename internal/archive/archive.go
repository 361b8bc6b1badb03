// Package archive persists encoded range scans in a SQLite database. Scans
// are grouped into recording sessions; each stored scan carries the format
// version tag its payload was encoded at, which is exactly the tag handed
// back to the codec on decode. Old archives therefore stay readable across
// format revisions without rewriting.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/rangekit/internal/monitoring"
	"github.com/banshee-data/rangekit/internal/obs"
	"github.com/banshee-data/rangekit/internal/timeutil"
)

var logf = monitoring.Prefixed("archive")

// Archive is a handle on one scan archive file.
type Archive struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if necessary) the archive at path and brings its
// schema up to date.
func Open(path string) (*Archive, error) {
	// Pragmas go in the DSN so every pooled connection gets them, not just
	// the one a PRAGMA statement happens to run on.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: opening %s: %w", path, err)
	}

	a := &Archive{db: db, clock: timeutil.RealClock{}}
	if err := a.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	logf("opened %s", path)
	return a, nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Session describes one recording session.
type Session struct {
	SessionID   string    `json:"session_id"`
	SensorLabel string    `json:"sensor_label"`
	StartedAt   time.Time `json:"started_at"`
	ScanCount   int       `json:"scan_count"`
}

// BeginSession creates a new recording session for the given sensor and
// returns its ID.
func (a *Archive) BeginSession(sensorLabel string) (string, error) {
	id := uuid.New().String()
	_, err := a.db.Exec(
		`INSERT INTO scan_sessions (session_id, sensor_label, started_unix_nanos) VALUES (?, ?, ?)`,
		id, sensorLabel, a.clock.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("archive: beginning session for %q: %w", sensorLabel, err)
	}
	logf("session %s started (sensor %q)", id, sensorLabel)
	return id, nil
}

// AppendScan encodes the scan at the current format version and stores it
// under the session. Returns the new scan's archive ID.
func (a *Archive) AppendScan(sessionID string, scan *obs.RangeScan2D) (int64, error) {
	payload, version, err := obs.Marshal(scan)
	if err != nil {
		return 0, fmt.Errorf("archive: encoding scan for session %s: %w", sessionID, err)
	}
	res, err := a.db.Exec(
		`INSERT INTO scans (session_id, format_version, captured_unix_nanos, sensor_label, ray_count, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, version, capturedNanos(scan.Timestamp), scan.SensorLabel, len(scan.Ranges), payload,
	)
	if err != nil {
		return 0, fmt.Errorf("archive: appending scan to session %s: %w", sessionID, err)
	}
	return res.LastInsertId()
}

func capturedNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// StoredScan is one archived scan: the encoded payload plus the container
// metadata needed to decode and index it.
type StoredScan struct {
	ID            int64
	SessionID     string
	FormatVersion uint8
	CapturedAt    time.Time
	SensorLabel   string
	RayCount      int
	Payload       []byte
}

// Decode decodes the stored payload with its recorded format version.
func (ss *StoredScan) Decode() (*obs.RangeScan2D, error) {
	scan := obs.NewRangeScan2D()
	if err := obs.Unmarshal(ss.Payload, ss.FormatVersion, scan); err != nil {
		return nil, fmt.Errorf("archive: decoding scan %d: %w", ss.ID, err)
	}
	return scan, nil
}

// Sessions lists all recording sessions, newest first.
func (a *Archive) Sessions() ([]Session, error) {
	rows, err := a.db.Query(`
		SELECT s.session_id, s.sensor_label, s.started_unix_nanos, COUNT(sc.scan_id)
		FROM scan_sessions s
		LEFT JOIN scans sc ON sc.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.started_unix_nanos DESC`)
	if err != nil {
		return nil, fmt.Errorf("archive: listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var startedNanos int64
		if err := rows.Scan(&s.SessionID, &s.SensorLabel, &startedNanos, &s.ScanCount); err != nil {
			return nil, fmt.Errorf("archive: scanning session row: %w", err)
		}
		s.StartedAt = time.Unix(0, startedNanos).UTC()
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Scans returns the stored scans of a session in insertion order.
func (a *Archive) Scans(sessionID string) ([]StoredScan, error) {
	rows, err := a.db.Query(`
		SELECT scan_id, session_id, format_version, captured_unix_nanos, sensor_label, ray_count, payload
		FROM scans WHERE session_id = ? ORDER BY scan_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("archive: listing scans of session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var scans []StoredScan
	for rows.Next() {
		var ss StoredScan
		var capturedNanos int64
		if err := rows.Scan(&ss.ID, &ss.SessionID, &ss.FormatVersion, &capturedNanos, &ss.SensorLabel, &ss.RayCount, &ss.Payload); err != nil {
			return nil, fmt.Errorf("archive: scanning scan row: %w", err)
		}
		if capturedNanos != 0 {
			ss.CapturedAt = time.Unix(0, capturedNanos).UTC()
		}
		scans = append(scans, ss)
	}
	return scans, rows.Err()
}

// Scan returns a single stored scan by archive ID.
func (a *Archive) Scan(id int64) (*StoredScan, error) {
	row := a.db.QueryRow(`
		SELECT scan_id, session_id, format_version, captured_unix_nanos, sensor_label, ray_count, payload
		FROM scans WHERE scan_id = ?`, id)

	var ss StoredScan
	var capturedNanos int64
	if err := row.Scan(&ss.ID, &ss.SessionID, &ss.FormatVersion, &capturedNanos, &ss.SensorLabel, &ss.RayCount, &ss.Payload); err != nil {
		return nil, fmt.Errorf("archive: loading scan %d: %w", id, err)
	}
	if capturedNanos != 0 {
		ss.CapturedAt = time.Unix(0, capturedNanos).UTC()
	}
	return &ss, nil
}

// ScanCount returns the number of scans stored under a session.
func (a *Archive) ScanCount(sessionID string) (int, error) {
	var n int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM scans WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("archive: counting scans of session %s: %w", sessionID, err)
	}
	return n, nil
}
