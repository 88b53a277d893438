package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/textan/internal/model"
)

// ExportAll returns every live run with its outcomes, oldest first.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, ngram_size, corpus_dir, roster_size, meta, deleted_at
		 FROM runs WHERE deleted_at IS NULL ORDER BY started_at, id`)
	if err != nil {
		return nil, err
	}
	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	for i := range runs {
		runs[i].Outcomes, err = s.ListOutcomes(ctx, OutcomeParams{RunID: runs[i].ID, Limit: -1})
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Import stores runs from an export, keeping run and outcome IDs. Runs
// already present are skipped. Each run is written in its own transaction,
// so a run that fails leaves nothing behind and can be imported again.
// Returns the number of runs imported.
func (s *SQLiteStore) Import(ctx context.Context, runs []model.Run) (int, error) {
	imported := 0
	for _, r := range runs {
		ok, err := s.importRun(ctx, r)
		if err != nil {
			return imported, fmt.Errorf("import run %s: %w", r.ID, err)
		}
		if ok {
			imported++
		}
	}
	return imported, nil
}

func (s *SQLiteStore) importRun(ctx context.Context, r model.Run) (bool, error) {
	for _, o := range r.Outcomes {
		if !model.ValidStates[o.State] {
			return false, fmt.Errorf("outcome %s: invalid state %q", o.SubmissionID, o.State)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, r.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check run: %w", err)
	}
	if exists > 0 {
		return false, nil
	}

	var finished, deleted *string
	if r.FinishedAt != nil {
		f := r.FinishedAt.UTC().Format(timeFormat)
		finished = &f
	}
	if r.DeletedAt != nil {
		d := r.DeletedAt.UTC().Format(timeFormat)
		deleted = &d
	}
	var meta *string
	if r.Meta != "" {
		meta = &r.Meta
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, ngram_size, corpus_dir, roster_size, meta, deleted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(timeFormat), finished,
		r.NGramSize, r.CorpusDir, r.RosterSize, meta, deleted)
	if err != nil {
		return false, fmt.Errorf("insert run: %w", err)
	}

	now := time.Now().UTC()
	for _, o := range r.Outcomes {
		o.RunID = r.ID
		if o.ID == "" {
			o.ID = s.newID()
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		if err := insertOutcome(ctx, tx, &o); err != nil {
			return false, fmt.Errorf("outcome %s: %w", o.SubmissionID, err)
		}
	}
	return true, tx.Commit()
}
