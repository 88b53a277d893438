package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string            `json:"db_path"`
	DBSizeBytes   int64             `json:"db_size_bytes"`
	TotalRuns     int               `json:"total_runs"`
	ActiveRuns    int               `json:"active_runs"`
	TotalOutcomes int               `json:"total_outcomes"`
	States        []StateStats      `json:"states"`
	Submissions   []SubmissionStats `json:"submissions"`
}

// StateStats holds per-state outcome counts.
type StateStats struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

// SubmissionStats holds per-submission outcome counts.
type SubmissionStats struct {
	SubmissionID string  `json:"submission_id"`
	Outcomes     int     `json:"outcomes"`
	Completed    int     `json:"completed"`
	AvgSeconds   float64 `json:"avg_seconds"`
}

// Stats returns database statistics over live runs.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&st.TotalRuns)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE deleted_at IS NULL`).Scan(&st.ActiveRuns)
	s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM outcomes o
		INNER JOIN runs r ON r.id = o.run_id WHERE r.deleted_at IS NULL`).Scan(&st.TotalOutcomes)

	rows, err := s.db.QueryContext(ctx, `
		SELECT o.state, COUNT(*) AS cnt
		FROM outcomes o INNER JOIN runs r ON r.id = o.run_id
		WHERE r.deleted_at IS NULL
		GROUP BY o.state ORDER BY cnt DESC, o.state`)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var ss StateStats
		rows.Scan(&ss.State, &ss.Count)
		st.States = append(st.States, ss)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT o.submission_id, COUNT(*) AS cnt,
		       SUM(CASE WHEN o.state = 'completed' THEN 1 ELSE 0 END),
		       AVG(o.seconds)
		FROM outcomes o INNER JOIN runs r ON r.id = o.run_id
		WHERE r.deleted_at IS NULL
		GROUP BY o.submission_id ORDER BY o.submission_id`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ss SubmissionStats
		rows.Scan(&ss.SubmissionID, &ss.Outcomes, &ss.Completed, &ss.AvgSeconds)
		st.Submissions = append(st.Submissions, ss)
	}

	return st, nil
}
