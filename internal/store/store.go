// Package store reads practice history recorded by tuipe in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/keystat/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// TextTypeGenerated is the text type assigned to tuipe lessons, which are
// always generated from word lists.
const TextTypeGenerated = "generated"

// ErrNoDatabase is returned when the database file does not exist.
var ErrNoDatabase = errors.New("tuipe database not found")

// Store wraps read access to a tuipe database.
type Store struct {
	db *sql.DB
}

// Query narrows the sessions returned by ListSessions.
type Query struct {
	Lang  string
	Since *time.Time
}

// Open opens an existing tuipe database. It never creates one.
func Open(path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoDatabase)
		}
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on ping failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	slog.Debug("store: opened tuipe database", "path", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListSessions returns tuipe sessions in chronological order, converted to
// lessons with per-key histograms. Speed is correct characters per minute.
func (s *Store) ListSessions(ctx context.Context, q Query) ([]model.Session, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if q.Lang != "" {
		clauses = append(clauses, "lang = ?")
		args = append(args, q.Lang)
	}
	if q.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, q.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, correct_nonspace, incorrect_nonspace, duration_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.Session
	index := map[int64]int{}
	for rows.Next() {
		var (
			id                 int64
			endedAt            string
			correct, incorrect int
			durationMs         int64
		)
		if err := rows.Scan(&id, &endedAt, &correct, &incorrect, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, fmt.Errorf("session %d: failed to parse ended_at: %w", id, err)
		}
		index[id] = len(sessions)
		sessions = append(sessions, model.Session{
			Timestamp:  parsed.UTC(),
			Speed:      charsPerMinute(correct, durationMs),
			Errors:     incorrect,
			Length:     correct + incorrect,
			DurationMs: durationMs,
			TextType:   TextTypeGenerated,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	if len(sessions) == 0 {
		return []model.Session{}, nil
	}
	if err := s.attachHistograms(ctx, sessions, index); err != nil {
		return nil, err
	}
	slog.Debug("store: sessions loaded", "count", len(sessions))
	return sessions, nil
}

func (s *Store) attachHistograms(ctx context.Context, sessions []model.Session, index map[int64]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, char, correct, incorrect, latency_sum_ms, latency_count
		 FROM session_char_stats
		 ORDER BY session_id, char`)
	if err != nil {
		return fmt.Errorf("failed to query char stats: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var (
			sessionID                 int64
			char                      string
			correct, incorrect, count int
			latencySum                int64
		)
		if err := rows.Scan(&sessionID, &char, &correct, &incorrect, &latencySum, &count); err != nil {
			return fmt.Errorf("failed to scan char stats: %w", err)
		}
		i, ok := index[sessionID]
		if !ok {
			continue
		}
		r, size := utf8.DecodeRuneInString(char)
		if size == 0 {
			continue
		}
		var latency float64
		if count > 0 {
			latency = float64(latencySum) / float64(count)
		}
		sessions[i].Histogram = append(sessions[i].Histogram, model.HistogramSample{
			CodePoint:  int(r),
			HitCount:   correct,
			MissCount:  incorrect,
			TimeToType: latency,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read char stats: %w", err)
	}
	return nil
}

func charsPerMinute(chars int, durationMs int64) float64 {
	if durationMs <= 0 {
		return 0
	}
	return float64(chars) / (float64(durationMs) / 60000.0)
}
