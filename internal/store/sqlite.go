package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/textan/internal/model"
)

// timeFormat is fixed width so stored timestamps compare as strings.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run ID matches nothing.
var ErrRunNotFound = errors.New("run not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL,
		finished_at TEXT,
		ngram_size  INTEGER NOT NULL,
		corpus_dir  TEXT NOT NULL,
		roster_size INTEGER NOT NULL DEFAULT 0,
		meta        TEXT,
		deleted_at  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_deleted ON runs(deleted_at);

	CREATE TABLE IF NOT EXISTS outcomes (
		id            TEXT PRIMARY KEY,
		run_id        TEXT NOT NULL REFERENCES runs(id),
		submission_id TEXT NOT NULL,
		state         TEXT NOT NULL,
		error         TEXT,
		seconds       REAL NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_submission ON outcomes(submission_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_state ON outcomes(state);

	CREATE TABLE IF NOT EXISTS op_timings (
		outcome_id TEXT NOT NULL REFERENCES outcomes(id),
		seq        INTEGER NOT NULL,
		name       TEXT NOT NULL,
		seconds    REAL NOT NULL,
		PRIMARY KEY (outcome_id, seq)
	);

	CREATE TABLE IF NOT EXISTS attributions (
		outcome_id TEXT NOT NULL REFERENCES outcomes(id),
		work       TEXT NOT NULL,
		author     TEXT NOT NULL,
		score      REAL NOT NULL,
		PRIMARY KEY (outcome_id, work, author)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(ctx context.Context, p CreateRunParams) (*model.Run, error) {
	now := time.Now().UTC()
	run := &model.Run{
		ID:         s.newID(),
		StartedAt:  now,
		NGramSize:  p.NGramSize,
		CorpusDir:  p.CorpusDir,
		RosterSize: p.RosterSize,
		Meta:       p.Meta,
	}

	var metaPtr *string
	if p.Meta != "" {
		metaPtr = &p.Meta
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, ngram_size, corpus_dir, roster_size, meta)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, now.Format(timeFormat), p.NGramSize, p.CorpusDir, p.RosterSize, metaPtr)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string) error {
	now := time.Now().UTC().Format(timeFormat)
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ? AND deleted_at IS NULL`, now, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func (s *SQLiteStore) RecordOutcome(ctx context.Context, o *model.Outcome) error {
	if !model.ValidStates[o.State] {
		return fmt.Errorf("invalid state %q", o.State)
	}
	o.ID = s.newID()
	o.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertOutcome(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit()
}

// insertOutcome writes o with its op timings and attributions inside tx.
// o.ID and o.CreatedAt must be set.
func insertOutcome(ctx context.Context, tx *sql.Tx, o *model.Outcome) error {
	var errPtr *string
	if o.Error != "" {
		errPtr = &o.Error
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO outcomes (id, run_id, submission_id, state, error, seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.RunID, o.SubmissionID, string(o.State), errPtr, o.Seconds,
		o.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}

	for i := range o.Ops {
		op := &o.Ops[i]
		op.Seq = i
		_, err = tx.ExecContext(ctx,
			`INSERT INTO op_timings (outcome_id, seq, name, seconds) VALUES (?, ?, ?, ?)`,
			o.ID, op.Seq, op.Name, op.Seconds)
		if err != nil {
			return fmt.Errorf("insert op timing: %w", err)
		}
	}

	for _, a := range o.Attributions {
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO attributions (outcome_id, work, author, score) VALUES (?, ?, ?, ?)`,
			o.ID, a.Work, a.Author, a.Score)
		if err != nil {
			return fmt.Errorf("insert attribution: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, p ListParams) ([]model.Run, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, ngram_size, corpus_dir, roster_size, meta, deleted_at
		 FROM runs WHERE deleted_at IS NULL
		 ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, ngram_size, corpus_dir, roster_size, meta, deleted_at
		 FROM runs WHERE id = ? AND deleted_at IS NULL`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	r.Outcomes, err = s.ListOutcomes(ctx, OutcomeParams{RunID: runID, Limit: -1})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) Rm(ctx context.Context, p RmParams) (int, error) {
	ids, err := s.matchRuns(ctx, p)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		if p.RunID != "" {
			return 0, fmt.Errorf("%w: %s", ErrRunNotFound, p.RunID)
		}
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeFormat)
	for _, id := range ids {
		if !p.Hard {
			if _, err := tx.ExecContext(ctx, `UPDATE runs SET deleted_at = ? WHERE id = ?`, now, id); err != nil {
				return 0, err
			}
			continue
		}
		for _, q := range []string{
			`DELETE FROM op_timings WHERE outcome_id IN (SELECT id FROM outcomes WHERE run_id = ?)`,
			`DELETE FROM attributions WHERE outcome_id IN (SELECT id FROM outcomes WHERE run_id = ?)`,
			`DELETE FROM outcomes WHERE run_id = ?`,
			`DELETE FROM runs WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return 0, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *SQLiteStore) matchRuns(ctx context.Context, p RmParams) ([]string, error) {
	var query string
	var args []interface{}
	switch {
	case p.RunID != "":
		query = `SELECT id FROM runs WHERE id = ?`
		args = []interface{}{p.RunID}
	case p.OlderThan != "":
		d, err := ParseAge(p.OlderThan)
		if err != nil {
			return nil, fmt.Errorf("invalid age: %w", err)
		}
		cutoff := time.Now().UTC().Add(-d).Format(timeFormat)
		query = `SELECT id FROM runs WHERE started_at < ?`
		args = []interface{}{cutoff}
	default:
		return nil, errors.New("run id or age required")
	}
	if !p.Hard {
		query += ` AND deleted_at IS NULL`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (model.Run, error) {
	var r model.Run
	var finishedAt, meta, deletedAt sql.NullString
	var startedAt string

	err := row.Scan(
		&r.ID, &startedAt, &finishedAt, &r.NGramSize, &r.CorpusDir,
		&r.RosterSize, &meta, &deletedAt,
	)
	if err != nil {
		return r, err
	}

	r.StartedAt, _ = time.Parse(timeFormat, startedAt)
	if finishedAt.Valid {
		t, _ := time.Parse(timeFormat, finishedAt.String)
		r.FinishedAt = &t
	}
	if meta.Valid {
		r.Meta = meta.String
	}
	if deletedAt.Valid {
		t, _ := time.Parse(timeFormat, deletedAt.String)
		r.DeletedAt = &t
	}
	return r, nil
}

var ageRegex = regexp.MustCompile(`^(\d+)([dhms])$`)

// ParseAge parses an age string like "7d", "24h", "30m" into a time.Duration.
func ParseAge(s string) (time.Duration, error) {
	m := ageRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid format %q (use e.g. 7d, 24h, 30m, 60s)", s)
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "s":
		return time.Duration(n) * time.Second, nil
	}
	return 0, fmt.Errorf("unknown unit %q", m[2])
}
