// Package history persists graded evaluation reports in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/snow-ghost/rubric/core"
	_ "modernc.org/sqlite" // driver: sqlite
)

// ErrNotFound is returned by Get for unknown record ids
var ErrNotFound = errors.New("history: record not found")

const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id          TEXT PRIMARY KEY,
	request_id  TEXT NOT NULL DEFAULT '',
	strategy    TEXT NOT NULL,
	model       TEXT NOT NULL DEFAULT '',
	query       TEXT NOT NULL DEFAULT '',
	score       REAL NOT NULL,
	raw_score   REAL NOT NULL,
	criteria    TEXT NOT NULL,
	report      TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_created ON evaluations(created_at);
CREATE INDEX IF NOT EXISTS idx_evaluations_strategy ON evaluations(strategy);
`

// Record is one stored grading call
type Record struct {
	ID        string                `json:"id"`
	RequestID string                `json:"request_id,omitempty"`
	Strategy  string                `json:"strategy"`
	Model     string                `json:"model,omitempty"`
	Query     string                `json:"query,omitempty"`
	Criteria  []core.Criterion      `json:"criteria"`
	Report    core.EvaluationReport `json:"report"`
	CreatedAt time.Time             `json:"created_at"`
}

// Filter narrows List results
type Filter struct {
	Strategy string
	Since    time.Time
	Limit    int
}

// Store is a SQLite-backed report history
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" is
// accepted for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	// a single writer keeps SQLite (and in-memory databases) consistent
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save stores rec, assigning an id and timestamp when missing
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	criteria, err := json.Marshal(rec.Criteria)
	if err != nil {
		return fmt.Errorf("history: marshal criteria: %w", err)
	}
	report, err := json.Marshal(rec.Report.Report)
	if err != nil {
		return fmt.Errorf("history: marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO evaluations
		(id, request_id, strategy, model, query, score, raw_score, criteria, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RequestID, rec.Strategy, rec.Model, rec.Query,
		rec.Report.Score, rec.Report.RawScore, string(criteria), string(report),
		rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("history: insert %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads one record by id
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		id, request_id, strategy, model, query, score, raw_score, criteria, report, created_at
		FROM evaluations WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns records newest first
func (s *Store) List(ctx context.Context, f Filter) ([]*Record, error) {
	query := `SELECT
		id, request_id, strategy, model, query, score, raw_score, criteria, report, created_at
		FROM evaluations WHERE 1 = 1`
	var args []any

	if f.Strategy != "" {
		query += ` AND strategy = ?`
		args = append(args, f.Strategy)
	}
	if !f.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, f.Since.UnixMilli())
	}
	query += ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a record; unknown ids are not an error
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM evaluations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("history: delete %s: %w", id, err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		rec      Record
		criteria string
		report   string
		created  int64
	)
	if err := sc.Scan(&rec.ID, &rec.RequestID, &rec.Strategy, &rec.Model, &rec.Query,
		&rec.Report.Score, &rec.Report.RawScore, &criteria, &report, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(criteria), &rec.Criteria); err != nil {
		return nil, fmt.Errorf("history: decode criteria %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(report), &rec.Report.Report); err != nil {
		return nil, fmt.Errorf("history: decode report %s: %w", rec.ID, err)
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()
	return &rec, nil
}
