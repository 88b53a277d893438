package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rcliao/textan/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestRun(t *testing.T, s *SQLiteStore) *model.Run {
	t.Helper()
	run, err := s.CreateRun(context.Background(), CreateRunParams{
		NGramSize: 2, CorpusDir: "/corpus", RosterSize: 3,
	})
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	return run
}

func TestCreateAndGetRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run := newTestRun(t, s)
	if run.ID == "" {
		t.Error("expected non-empty ID")
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.NGramSize != 2 || got.CorpusDir != "/corpus" || got.RosterSize != 3 {
		t.Errorf("unexpected run: %+v", got)
	}
	if got.FinishedAt != nil {
		t.Error("expected run to be unfinished")
	}

	if err := s.FinishRun(ctx, run.ID); err != nil {
		t.Fatalf("finish run: %v", err)
	}
	got, _ = s.GetRun(ctx, run.ID)
	if got.FinishedAt == nil {
		t.Error("expected finished_at to be set")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun(context.Background(), "nope")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRecordOutcome(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	run := newTestRun(t, s)

	o := &model.Outcome{
		RunID:        run.ID,
		SubmissionID: "abcd1234",
		State:        model.StateCompleted,
		Seconds:      1.25,
		Ops: []model.OpTiming{
			{Name: "load", Seconds: 0.01},
			{Name: "analyze", Seconds: 1.2},
		},
		Attributions: []model.Attribution{
			{Work: "inconnu.txt", Author: "B", Score: 0.4},
			{Work: "inconnu.txt", Author: "A", Score: 0.8},
		},
	}
	if err := s.RecordOutcome(ctx, o); err != nil {
		t.Fatalf("record: %v", err)
	}
	if o.ID == "" {
		t.Error("expected outcome ID to be set")
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if len(got.Outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(got.Outcomes))
	}
	out := got.Outcomes[0]
	if out.State != model.StateCompleted || out.Seconds != 1.25 {
		t.Errorf("unexpected outcome: %+v", out)
	}
	if len(out.Ops) != 2 || out.Ops[0].Name != "load" || out.Ops[1].Seq != 1 {
		t.Errorf("unexpected ops: %+v", out.Ops)
	}
	if len(out.Attributions) != 2 || out.Attributions[0].Author != "A" {
		t.Errorf("expected attributions sorted by score, got %+v", out.Attributions)
	}
}

func TestRecordOutcome_InvalidState(t *testing.T) {
	s := newTestStore(t)
	run := newTestRun(t, s)
	err := s.RecordOutcome(context.Background(), &model.Outcome{RunID: run.ID, SubmissionID: "x", State: "exploded"})
	if err == nil {
		t.Error("expected error for invalid state")
	}
}

func TestListOutcomesFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	run := newTestRun(t, s)

	for _, o := range []model.Outcome{
		{SubmissionID: "a", State: model.StateCompleted},
		{SubmissionID: "b", State: model.StateTimedOut, Error: "timeout"},
		{SubmissionID: "c", State: model.StateErrored, Error: "panic"},
	} {
		o.RunID = run.ID
		if err := s.RecordOutcome(ctx, &o); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	all, _ := s.ListOutcomes(ctx, OutcomeParams{RunID: run.ID})
	if len(all) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(all))
	}

	timedOut, _ := s.ListOutcomes(ctx, OutcomeParams{State: model.StateTimedOut})
	if len(timedOut) != 1 || timedOut[0].SubmissionID != "b" || timedOut[0].Error != "timeout" {
		t.Errorf("unexpected state filter result: %+v", timedOut)
	}

	bySub, _ := s.ListOutcomes(ctx, OutcomeParams{SubmissionID: "c"})
	if len(bySub) != 1 || bySub[0].State != model.StateErrored {
		t.Errorf("unexpected submission filter result: %+v", bySub)
	}
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		newTestRun(t, s)
	}
	runs, err := s.ListRuns(ctx, ListParams{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].StartedAt.Before(runs[1].StartedAt) {
		t.Error("expected most recent run first")
	}
}

func TestSoftDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	run := newTestRun(t, s)
	s.RecordOutcome(ctx, &model.Outcome{RunID: run.ID, SubmissionID: "a", State: model.StateCompleted})

	n, err := s.Rm(ctx, RmParams{RunID: run.ID})
	if err != nil || n != 1 {
		t.Fatalf("rm: n=%d err=%v", n, err)
	}
	if _, err := s.GetRun(ctx, run.ID); !errors.Is(err, ErrRunNotFound) {
		t.Error("expected soft-deleted run to be hidden")
	}
	outs, _ := s.ListOutcomes(ctx, OutcomeParams{SubmissionID: "a"})
	if len(outs) != 0 {
		t.Error("expected outcomes of deleted run to be hidden")
	}

	st, _ := s.Stats(ctx, "")
	if st.TotalRuns != 1 || st.ActiveRuns != 0 {
		t.Errorf("expected soft-deleted row to remain, got %+v", st)
	}

	if _, err := s.Rm(ctx, RmParams{RunID: run.ID}); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound on second rm, got %v", err)
	}
}

func TestHardDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	run := newTestRun(t, s)
	s.RecordOutcome(ctx, &model.Outcome{
		RunID: run.ID, SubmissionID: "a", State: model.StateCompleted,
		Ops: []model.OpTiming{{Name: "load"}},
	})

	if _, err := s.Rm(ctx, RmParams{RunID: run.ID, Hard: true}); err != nil {
		t.Fatalf("hard rm: %v", err)
	}
	st, _ := s.Stats(ctx, "")
	if st.TotalRuns != 0 || st.TotalOutcomes != 0 {
		t.Errorf("expected everything removed, got %+v", st)
	}
}

func TestRmOlderThan(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	newTestRun(t, s)

	n, err := s.Rm(ctx, RmParams{OlderThan: "1h"})
	if err != nil || n != 0 {
		t.Errorf("expected nothing older than 1h, got n=%d err=%v", n, err)
	}

	time.Sleep(1100 * time.Millisecond)
	n, err = s.Rm(ctx, RmParams{OlderThan: "1s"})
	if err != nil || n != 1 {
		t.Errorf("expected 1 run removed, got n=%d err=%v", n, err)
	}

	if _, err := s.Rm(ctx, RmParams{}); err == nil {
		t.Error("expected error without run id or age")
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"7d", 7 * 24 * time.Hour, true},
		{"24h", 24 * time.Hour, true},
		{"30m", 30 * time.Minute, true},
		{"60s", 60 * time.Second, true},
		{"1w", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseAge(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseAge(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("ParseAge(%q) expected error", tt.in)
		}
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "stats.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer s.Close()

	run, _ := s.CreateRun(ctx, CreateRunParams{NGramSize: 1, CorpusDir: "c"})
	s.RecordOutcome(ctx, &model.Outcome{RunID: run.ID, SubmissionID: "a", State: model.StateCompleted, Seconds: 2})
	s.RecordOutcome(ctx, &model.Outcome{RunID: run.ID, SubmissionID: "a", State: model.StateTimedOut, Seconds: 4})
	s.RecordOutcome(ctx, &model.Outcome{RunID: run.ID, SubmissionID: "b", State: model.StateCompleted, Seconds: 1})

	st, err := s.Stats(ctx, dbPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.DBSizeBytes == 0 {
		t.Error("expected non-zero db size")
	}
	if st.TotalOutcomes != 3 {
		t.Errorf("expected 3 outcomes, got %d", st.TotalOutcomes)
	}
	if len(st.States) != 2 || st.States[0].State != "completed" || st.States[0].Count != 2 {
		t.Errorf("unexpected states: %+v", st.States)
	}
	if len(st.Submissions) != 2 || st.Submissions[0].Completed != 1 || st.Submissions[0].AvgSeconds != 3 {
		t.Errorf("unexpected submissions: %+v", st.Submissions)
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	run := newTestRun(t, src)
	src.RecordOutcome(ctx, &model.Outcome{
		RunID: run.ID, SubmissionID: "a", State: model.StateCompleted,
		Attributions: []model.Attribution{{Work: "w", Author: "A", Score: 1}},
	})

	runs, err := src.ExportAll(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(runs) != 1 || len(runs[0].Outcomes) != 1 {
		t.Fatalf("unexpected export: %+v", runs)
	}

	dst := newTestStore(t)
	n, err := dst.Import(ctx, runs)
	if err != nil || n != 1 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	n, _ = dst.Import(ctx, runs)
	if n != 0 {
		t.Errorf("expected duplicate run to be skipped, got %d", n)
	}

	got, err := dst.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get imported run: %v", err)
	}
	if len(got.Outcomes) != 1 || len(got.Outcomes[0].Attributions) != 1 {
		t.Errorf("unexpected imported run: %+v", got)
	}
}

func TestImport_FailedRunRollsBack(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	run := newTestRun(t, src)
	if err := src.RecordOutcome(ctx, &model.Outcome{
		RunID: run.ID, SubmissionID: "good", State: model.StateCompleted,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	runs, err := src.ExportAll(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	wantID := runs[0].Outcomes[0].ID
	wantCreated := runs[0].Outcomes[0].CreatedAt

	bad := runs[0]
	bad.Outcomes = append([]model.Outcome{}, runs[0].Outcomes...)
	bad.Outcomes = append(bad.Outcomes, model.Outcome{SubmissionID: "bad", State: "bogus"})

	dst := newTestStore(t)
	n, err := dst.Import(ctx, []model.Run{bad})
	if err == nil || n != 0 {
		t.Fatalf("expected failed import, got n=%d err=%v", n, err)
	}
	if _, err := dst.GetRun(ctx, run.ID); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected no run after failed import, got %v", err)
	}

	n, err = dst.Import(ctx, runs)
	if err != nil || n != 1 {
		t.Fatalf("retry import: n=%d err=%v", n, err)
	}
	got, err := dst.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get imported run: %v", err)
	}
	if len(got.Outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(got.Outcomes))
	}
	if got.Outcomes[0].ID != wantID {
		t.Errorf("outcome ID = %s, want %s", got.Outcomes[0].ID, wantID)
	}
	if !got.Outcomes[0].CreatedAt.Equal(wantCreated) {
		t.Errorf("outcome created_at = %v, want %v", got.Outcomes[0].CreatedAt, wantCreated)
	}
}

func TestRecordOutcome_SameBaseNameWorks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	run := newTestRun(t, s)
	o := &model.Outcome{
		RunID: run.ID, SubmissionID: "a", State: model.StateCompleted,
		Attributions: []model.Attribution{
			{Work: "/set1/inconnu.txt", Author: "A", Score: 0.9},
			{Work: "/set2/inconnu.txt", Author: "A", Score: 0.2},
		},
	}
	if err := s.RecordOutcome(ctx, o); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if n := len(got.Outcomes[0].Attributions); n != 2 {
		t.Errorf("expected both attributions kept, got %d", n)
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}
