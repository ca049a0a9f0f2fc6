// Package history implements a supplemental transcription history
// store, wired to exercise mattn/go-sqlite3, grounded on a WAL-mode
// SQLite log store pattern.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/transcribe"
)

// Entry records one completed transcription for later review or
// re-run, independent of the WAV file's own lifetime.
type Entry struct {
	ID         string
	SegmentID  string
	Timestamp  time.Time
	Text       string
	DurationMS int
	Origin     string // "vad" or "ptt"
	WAVPath    string
}

// Filter narrows a Query call.
type Filter struct {
	Since time.Time
	Limit int
}

// Store persists transcription history in a single SQLite file with
// WAL journaling, following the same WAL/synchronous connection-string
// shape a SQLite-backed log store uses.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates the database file and schema if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, ferr.Wrap(err, "create history directory failed").WithCode(ferr.CodeIOFailed)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, ferr.Wrap(err, "open history database failed").WithCode(ferr.CodeIOFailed)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS transcriptions (
		id TEXT PRIMARY KEY,
		segment_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		text TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		origin TEXT NOT NULL,
		wav_path TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_transcriptions_timestamp ON transcriptions(timestamp DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return ferr.Wrap(err, "initialize history schema failed").WithCode(ferr.CodeIOFailed)
	}
	return nil
}

// Record appends the result of one finished transcription. Called
// from the worker's onResult callback (internal/loop wires this); a
// segment with a transcription error is not recorded. origin carries
// the cursor's source ("vad" or "ptt"), which transcribe.Segment
// itself does not track.
func (s *Store) Record(ctx context.Context, seg transcribe.Segment, text, origin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	durationMS := int(seg.EndAbs-seg.StartAbs) * 1000 / seg.SampleRate
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcriptions (id, segment_id, timestamp, text, duration_ms, origin, wav_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, seg.ID, seg.ID, time.Now(), text, durationMS, origin, seg.WAVPath)
	if err != nil {
		return ferr.Wrap(err, "record transcription history failed").WithCode(ferr.CodeIOFailed)
	}
	return nil
}

// Query returns matching entries, most recent first.
func (s *Store) Query(ctx context.Context, f Filter) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, segment_id, timestamp, text, duration_ms, origin, wav_path FROM transcriptions WHERE 1=1`
	var args []any
	if !f.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, f.Since)
	}
	query += " ORDER BY timestamp DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ferr.Wrap(err, "query transcription history failed").WithCode(ferr.CodeIOFailed)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var wavPath sql.NullString
		if err := rows.Scan(&e.ID, &e.SegmentID, &e.Timestamp, &e.Text, &e.DurationMS, &e.Origin, &wavPath); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if wavPath.Valid {
			e.WAVPath = wavPath.String
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Prune deletes entries older than the given cutoff and returns the
// count removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	result, err := s.db.ExecContext(ctx, `DELETE FROM transcriptions WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, ferr.Wrap(err, "prune transcription history failed").WithCode(ferr.CodeIOFailed)
	}
	return result.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
