// Package diag records audio failures for the admin dashboard. Session ids are
// salted and hashed before they are stored.
package diag

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/aquoric/aquoric-dev/internal/audio"
)

// Record is one stored failure.
type Record struct {
	ID            string    `json:"id"`
	HashedSession string    `json:"hashed_session"`
	Kind          string    `json:"kind"`
	SourceIndex   int       `json:"source_index"`
	Source        string    `json:"source"`
	Message       string    `json:"message"`
	Cause         string    `json:"cause,omitempty"`
	Advanced      bool      `json:"advanced"`
	Timestamp     time.Time `json:"timestamp"`
}

type KindCount struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
}

type Stats struct {
	TotalEvents    int64       `json:"total_events"`
	Sessions       int64       `json:"sessions"`
	ExhaustedCount int64       `json:"exhausted_sessions"`
	EventsToday    int64       `json:"events_today"`
	EventsThisWeek int64       `json:"events_this_week"`
	ByKind         []KindCount `json:"by_kind"`
	RecentFailures []Record    `json:"recent_failures"`
}

type Store struct {
	db        *sql.DB
	salt      string
	retention int
	log       *zap.Logger
	queue     chan job
}

// job is one queued write. A job with a nil rec only marks a flush point.
type job struct {
	rec     *Record
	flushed chan struct{}
}

// queueSize bounds how many failures may wait for the writer before new ones
// are dropped.
const queueSize = 256

const schema = `
CREATE TABLE IF NOT EXISTS audio_failures (
	id TEXT PRIMARY KEY,
	hashed_session TEXT NOT NULL,
	kind TEXT NOT NULL,
	source_index INTEGER NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL,
	cause TEXT NOT NULL DEFAULT '',
	advanced INTEGER NOT NULL DEFAULT 0,
	timestamp DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS audio_failures_timestamp ON audio_failures(timestamp);
`

// Open opens the store at dsn, ":memory:" keeping everything in process.
// retention caps how many records are kept; 0 keeps all of them.
func Open(dsn string, retention int, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening diagnostics database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating diagnostics schema: %w", err)
	}
	salt, err := randomHex(16)
	if err != nil {
		db.Close()
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:        db,
		salt:      salt,
		retention: retention,
		log:       log,
		queue:     make(chan job, queueSize),
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Hash returns a salted digest of id that is stable for the process lifetime.
func (s *Store) Hash(id string) string {
	sum := sha256.Sum256([]byte(id + s.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// Recorder returns an audio.Recorder for one session. Events are queued for
// Run and never wait on the database; when the queue is full they are dropped.
func (s *Store) Recorder(sessionID string) audio.Recorder {
	hashed := s.Hash(sessionID)
	return audio.RecorderFunc(func(ev audio.Event) {
		rec := &Record{
			HashedSession: hashed,
			Kind:          string(ev.Kind),
			SourceIndex:   ev.Index,
			Source:        ev.Source,
			Message:       ev.Message,
			Cause:         ev.Cause,
			Advanced:      ev.Kind.Advances(),
			Timestamp:     time.Now().UTC(),
		}
		select {
		case s.queue <- job{rec: rec}:
		default:
			s.log.Warn("diagnostics queue full, dropping failure", zap.String("kind", rec.Kind))
		}
	})
}

// Run writes queued failures until ctx is done, then writes what is left.
func (s *Store) Run(ctx context.Context) error {
	for {
		select {
		case j := <-s.queue:
			s.write(j)
		case <-ctx.Done():
			for {
				select {
				case j := <-s.queue:
					s.write(j)
				default:
					return nil
				}
			}
		}
	}
}

func (s *Store) write(j job) {
	if j.rec != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Insert(ctx, *j.rec); err != nil {
			s.log.Error("recording audio failure", zap.Error(err))
		}
	}
	if j.flushed != nil {
		close(j.flushed)
	}
}

// Flush waits until every failure queued before the call has been written.
// It needs Run to be active.
func (s *Store) Flush(ctx context.Context) error {
	flushed := make(chan struct{})
	select {
	case s.queue <- job{flushed: flushed}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Insert stores rec, filling ID and Timestamp when unset, then prunes.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audio_failures (id, hashed_session, kind, source_index, source, message, cause, advanced, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.HashedSession, rec.Kind, rec.SourceIndex, rec.Source, rec.Message, rec.Cause, rec.Advanced, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting failure: %w", err)
	}
	if _, err := s.Prune(ctx); err != nil {
		return err
	}
	return nil
}

// Prune deletes all but the newest retention records.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM audio_failures WHERE id NOT IN (
			SELECT id FROM audio_failures ORDER BY timestamp DESC, rowid DESC LIMIT ?
		)
	`, s.retention)
	if err != nil {
		return 0, fmt.Errorf("pruning failures: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.log.Debug("pruned failure records", zap.Int64("count", n))
	}
	return n, nil
}

// Stats summarises the stored failures.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	now := time.Now().UTC()

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalEvents, `SELECT COUNT(*) FROM audio_failures`, nil},
		{&stats.Sessions, `SELECT COUNT(DISTINCT hashed_session) FROM audio_failures`, nil},
		{&stats.ExhaustedCount, `SELECT COUNT(DISTINCT hashed_session) FROM audio_failures WHERE kind = ?`, []any{string(audio.KindExhausted)}},
		{&stats.EventsToday, `SELECT COUNT(*) FROM audio_failures WHERE timestamp >= ?`, []any{now.Truncate(24 * time.Hour)}},
		{&stats.EventsThisWeek, `SELECT COUNT(*) FROM audio_failures WHERE timestamp >= ?`, []any{now.Add(-7 * 24 * time.Hour)}},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("counting failures: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM audio_failures GROUP BY kind ORDER BY COUNT(*) DESC, kind
	`)
	if err != nil {
		return nil, fmt.Errorf("grouping failures: %w", err)
	}
	for rows.Next() {
		var kc KindCount
		if err := rows.Scan(&kc.Kind, &kc.Count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByKind = append(stats.ByKind, kc)
	}
	rows.Close()

	stats.RecentFailures, err = s.Recent(ctx, 50)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Recent returns the newest limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_session, kind, source_index, source, message, cause, advanced, timestamp
		FROM audio_failures
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing failures: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.HashedSession, &r.Kind, &r.SourceIndex, &r.Source, &r.Message, &r.Cause, &r.Advanced, &r.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
