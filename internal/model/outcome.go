// Package model defines the grading run and outcome data types.
package model

import "time"

// State is the terminal state of one submission.
type State string

const (
	StateCompleted  State = "completed"
	StateTimedOut   State = "timed_out"
	StateErrored    State = "errored"
	StateLoadFailed State = "load_failed"
)

// ValidStates are the allowed outcome states.
var ValidStates = map[State]bool{
	StateCompleted:  true,
	StateTimedOut:   true,
	StateErrored:    true,
	StateLoadFailed: true,
}

// Run is one batch over a roster.
type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	NGramSize  int        `json:"ngram_size"`
	CorpusDir  string     `json:"corpus_dir"`
	RosterSize int        `json:"roster_size"`
	Meta       string     `json:"meta,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	Outcomes   []Outcome  `json:"outcomes,omitempty"`
}

// Outcome is the result of evaluating one submission within a run.
type Outcome struct {
	ID           string        `json:"id"`
	RunID        string        `json:"run_id"`
	SubmissionID string        `json:"submission_id"`
	State        State         `json:"state"`
	Error        string        `json:"error,omitempty"`
	Seconds      float64       `json:"seconds"`
	CreatedAt    time.Time     `json:"created_at"`
	Ops          []OpTiming    `json:"ops,omitempty"`
	Attributions []Attribution `json:"attributions,omitempty"`
}

// OpTiming records one operation of the sequence.
type OpTiming struct {
	Seq     int     `json:"seq"`
	Name    string  `json:"name"`
	Seconds float64 `json:"seconds"`
}

// Attribution is the score of one author for one unknown work.
type Attribution struct {
	Work   string  `json:"work"`
	Author string  `json:"author"`
	Score  float64 `json:"score"`
}
