package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rcliao/textan/internal/model"
)

// ListOutcomes returns outcomes of live runs in recording order, each with
// its operation timings and attributions. A negative limit means no limit.
func (s *SQLiteStore) ListOutcomes(ctx context.Context, p OutcomeParams) ([]model.Outcome, error) {
	where := []string{"r.deleted_at IS NULL"}
	args := []interface{}{}

	if p.RunID != "" {
		where = append(where, "o.run_id = ?")
		args = append(args, p.RunID)
	}
	if p.SubmissionID != "" {
		where = append(where, "o.submission_id = ?")
		args = append(args, p.SubmissionID)
	}
	if p.State != "" {
		where = append(where, "o.state = ?")
		args = append(args, string(p.State))
	}

	limit := p.Limit
	if limit == 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.run_id, o.submission_id, o.state, o.error, o.seconds, o.created_at
		FROM outcomes o
		INNER JOIN runs r ON r.id = o.run_id
		WHERE %s
		ORDER BY o.created_at, o.id
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var outcomes []model.Outcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range outcomes {
		if err := s.loadDetails(ctx, &outcomes[i]); err != nil {
			return nil, err
		}
	}
	return outcomes, nil
}

func (s *SQLiteStore) loadDetails(ctx context.Context, o *model.Outcome) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, name, seconds FROM op_timings WHERE outcome_id = ? ORDER BY seq`, o.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var op model.OpTiming
		if err := rows.Scan(&op.Seq, &op.Name, &op.Seconds); err != nil {
			rows.Close()
			return err
		}
		o.Ops = append(o.Ops, op)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT work, author, score FROM attributions WHERE outcome_id = ?
		 ORDER BY work, score DESC, author`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a model.Attribution
		if err := rows.Scan(&a.Work, &a.Author, &a.Score); err != nil {
			return err
		}
		o.Attributions = append(o.Attributions, a)
	}
	return rows.Err()
}

func scanOutcome(row scanner) (model.Outcome, error) {
	var o model.Outcome
	var state, createdAt string
	var errText sql.NullString

	err := row.Scan(&o.ID, &o.RunID, &o.SubmissionID, &state, &errText, &o.Seconds, &createdAt)
	if err != nil {
		return o, err
	}
	o.State = model.State(state)
	if errText.Valid {
		o.Error = errText.String
	}
	o.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return o, nil
}
