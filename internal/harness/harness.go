// Package harness evaluates submissions: it runs the operation sequence for
// each roster entry under a timeout and reports the results.
package harness

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/textan/internal/corpus"
	"github.com/rcliao/textan/internal/model"
	"github.com/rcliao/textan/internal/report"
	"github.com/rcliao/textan/internal/textan"
)

// GenerateSettings selects what text to generate.
type GenerateSettings struct {
	// Author generates one text from that author's counts.
	Author string
	// Multiple generates one text per author.
	Multiple bool
	// Fused generates one text from the sum of the authors' normalized vectors.
	Fused bool
	// Authors restricts Multiple and Fused. Empty means every author.
	Authors      []string
	Size         int
	NameTemplate string
	Dir          string
	Pretty       bool
}

// Enabled reports whether any generation is requested.
func (g GenerateSettings) Enabled() bool {
	return g.Author != "" || g.Multiple || g.Fused
}

// Settings is the immutable configuration shared by every submission.
type Settings struct {
	CorpusDir string
	NGramSize int
	Tokenizer corpus.Tokenizer
	Timeout   time.Duration
	Seed      int64
	// Unknown lists the resolved paths of works to attribute.
	Unknown  []string
	Kth      int
	Generate GenerateSettings
	Compare  bool
	Verbose  bool
}

// SomethingToDo reports whether any operation beyond load and analyze is
// enabled.
func (s Settings) SomethingToDo() bool {
	return s.Generate.Enabled() || len(s.Unknown) > 0 || s.Kth > 0 || s.Compare
}

// Recorder persists outcomes.
type Recorder interface {
	RecordOutcome(ctx context.Context, o *model.Outcome) error
}

// Harness evaluates submissions one after the other.
type Harness struct {
	settings Settings
	registry *textan.Registry
	report   *report.Reporter
	logger   *zap.Logger
	seq      *Sequencer
	guard    *Guard
	recorder Recorder
	now      func() time.Time
}

// Option configures a Harness.
type Option func(*Harness)

// WithRecorder stores every outcome in r.
func WithRecorder(r Recorder) Option {
	return func(h *Harness) { h.recorder = r }
}

// WithClock replaces time.Now for generated file names.
func WithClock(now func() time.Time) Option {
	return func(h *Harness) { h.now = now }
}

// New builds a harness and registers its operation sequence.
func New(s Settings, reg *textan.Registry, rep *report.Reporter, logger *zap.Logger, opts ...Option) *Harness {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Harness{
		settings: s,
		registry: reg,
		report:   rep,
		logger:   logger,
		seq:      NewSequencer(rep),
		guard:    &Guard{Timeout: s.Timeout, Report: rep, Logger: logger},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.registerOperations()
	return h
}

// Operations returns the registered sequence.
func (h *Harness) Operations() []Operation {
	return h.seq.Operations()
}

// RunOne evaluates submission id in a fresh session. Faults and timeouts
// end up in the outcome, never in a returned error.
func (h *Harness) RunOne(ctx context.Context, runID, id string) model.Outcome {
	start := time.Now()
	s := &Session{ID: id}

	state, err := h.guard.Run(ctx, id, func(ctx context.Context) error {
		return h.seq.Execute(ctx, s)
	})
	elapsed := time.Since(start).Seconds()
	h.report.Printf("\tid: %s - Total execution time: %.2f seconds\n\n", id, elapsed)

	o := model.Outcome{
		RunID:        runID,
		SubmissionID: id,
		State:        state,
		Seconds:      elapsed,
	}
	if err != nil {
		o.Error = err.Error()
	}
	o.Ops, o.Attributions = s.Results()
	return o
}

// RunAll evaluates ids in order and records every outcome. It stops early
// only when ctx is cancelled.
func (h *Harness) RunAll(ctx context.Context, runID string, ids []string) []model.Outcome {
	outcomes := make([]model.Outcome, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			h.logger.Warn("batch interrupted", zap.Int("remaining", len(ids)-len(outcomes)))
			break
		}
		o := h.RunOne(ctx, runID, id)
		h.logger.Info("submission evaluated",
			zap.String("id", id),
			zap.String("state", string(o.State)),
			zap.Float64("seconds", o.Seconds))

		if h.recorder != nil {
			if err := h.recorder.RecordOutcome(ctx, &o); err != nil {
				h.logger.Error("record outcome", zap.String("id", id), zap.Error(err))
			}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}
