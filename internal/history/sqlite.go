// Package history keeps a small SQLite index of past ranking runs so level means can be
// compared between runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/helheim/content_ranker/internal/domain"
)

// startedLayout is fixed width so started_at sorts chronologically as text.
const startedLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

// Run is one ranking pass over a single entity kind.
type Run struct {
	ID         string
	Kind       domain.Kind
	StartedAt  time.Time
	Kept       int
	Excluded   int
	Discovered int
	ReportPath string
}

// Means maps variant to level to mean score.
type Means map[domain.Variant]map[int]float64

func (m Means) Get(v domain.Variant, level int) (float64, bool) {
	byLevel, ok := m[v]
	if !ok {
		return 0, false
	}
	mean, ok := byLevel[level]
	return mean, ok
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty history db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			started_at TEXT NOT NULL,
			kept INTEGER NOT NULL,
			excluded INTEGER NOT NULL,
			discovered INTEGER NOT NULL,
			report_path TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS runs_kind_started ON runs(kind, started_at);`,
		`CREATE TABLE IF NOT EXISTS level_points (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			variant TEXT NOT NULL,
			level INTEGER NOT NULL,
			mean REAL NOT NULL,
			samples INTEGER NOT NULL,
			percent_change REAL,
			PRIMARY KEY (run_id, variant, level)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores run and every emitted bucket of summaries in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, summaries []domain.VariantSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs(id, kind, started_at, kept, excluded, discovered, report_path) VALUES(?,?,?,?,?,?,?)`,
		run.ID, string(run.Kind), run.StartedAt.UTC().Format(startedLayout),
		run.Kept, run.Excluded, run.Discovered, run.ReportPath,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO level_points(run_id, variant, level, mean, samples, percent_change) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare level points: %w", err)
	}
	defer stmt.Close()

	for _, sum := range summaries {
		change := make(map[int]float64, len(sum.Trend))
		for _, p := range sum.Trend {
			change[p.Level] = p.PercentChange
		}
		for _, b := range sum.Buckets {
			var pc sql.NullFloat64
			if v, ok := change[b.Level]; ok {
				pc = sql.NullFloat64{Float64: v, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, run.ID, string(sum.Variant), b.Level, b.Mean, b.Samples, pc); err != nil {
				return fmt.Errorf("insert level point %s/%d: %w", sum.Variant, b.Level, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// LastRun returns the most recent run of kind. ok is false when there is none.
func (s *Store) LastRun(ctx context.Context, kind domain.Kind) (Run, bool, error) {
	var (
		run     Run
		kindStr string
		started string
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, started_at, kept, excluded, discovered, report_path
		 FROM runs WHERE kind=? ORDER BY started_at DESC, rowid DESC LIMIT 1`, string(kind))
	err := row.Scan(&run.ID, &kindStr, &started, &run.Kept, &run.Excluded, &run.Discovered, &run.ReportPath)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("query last run: %w", err)
	}
	run.Kind = domain.Kind(kindStr)
	if t, err := time.Parse(startedLayout, started); err == nil {
		run.StartedAt = t
	}
	return run, true, nil
}

// PreviousMeans loads the bucket means recorded by the most recent run of kind.
// It returns an empty Means when no run exists yet.
func (s *Store) PreviousMeans(ctx context.Context, kind domain.Kind) (Means, error) {
	run, ok, err := s.LastRun(ctx, kind)
	if err != nil || !ok {
		return Means{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT variant, level, mean FROM level_points WHERE run_id=? ORDER BY variant, level`, run.ID)
	if err != nil {
		return Means{}, fmt.Errorf("query level points: %w", err)
	}
	defer rows.Close()

	out := Means{}
	for rows.Next() {
		var (
			variant string
			level   int
			mean    float64
		)
		if err := rows.Scan(&variant, &level, &mean); err != nil {
			return Means{}, fmt.Errorf("scan level point: %w", err)
		}
		v := domain.Variant(variant)
		if out[v] == nil {
			out[v] = make(map[int]float64)
		}
		out[v][level] = mean
	}
	if err := rows.Err(); err != nil {
		return Means{}, fmt.Errorf("read level points: %w", err)
	}
	return out, nil
}
