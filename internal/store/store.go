// Package store provides the results storage interface and SQLite implementation.
package store

import (
	"context"

	"github.com/rcliao/textan/internal/model"
)

// CreateRunParams holds parameters for starting a run.
type CreateRunParams struct {
	NGramSize  int
	CorpusDir  string
	RosterSize int
	Meta       string
}

// ListParams holds parameters for listing runs.
type ListParams struct {
	Limit int
}

// OutcomeParams filters outcomes.
type OutcomeParams struct {
	RunID        string
	SubmissionID string
	State        model.State
	Limit        int
}

// RmParams holds parameters for deleting runs. Either RunID or OlderThan
// must be set.
type RmParams struct {
	RunID     string
	OlderThan string // age such as "7d" or "24h"
	Hard      bool
}

// Store defines the results storage interface.
type Store interface {
	// CreateRun starts a new run and returns it with its generated ID.
	CreateRun(ctx context.Context, p CreateRunParams) (*model.Run, error)

	// FinishRun stamps the end time of a run.
	FinishRun(ctx context.Context, runID string) error

	// RecordOutcome stores an outcome with its operation timings and
	// attributions. ID and CreatedAt are filled in.
	RecordOutcome(ctx context.Context, o *model.Outcome) error

	// ListRuns lists runs, most recent first.
	ListRuns(ctx context.Context, p ListParams) ([]model.Run, error)

	// GetRun returns a run with all its outcomes.
	GetRun(ctx context.Context, runID string) (*model.Run, error)

	// ListOutcomes lists outcomes matching the filters.
	ListOutcomes(ctx context.Context, p OutcomeParams) ([]model.Outcome, error)

	// Rm soft-deletes (or hard-deletes) runs. Returns the number of runs removed.
	Rm(ctx context.Context, p RmParams) (int, error)

	// Close closes the store.
	Close() error
}
