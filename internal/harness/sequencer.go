package harness

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rcliao/textan/internal/model"
	"github.com/rcliao/textan/internal/report"
	"github.com/rcliao/textan/internal/textan"
)

const (
	// IDPlaceholder is replaced by the submission id in operation messages.
	IDPlaceholder = "X_ID_X"
	// DefaultPost is printed after an operation without its own message.
	DefaultPost = "\tExecution"
)

// Session is the state of one submission's evaluation. A new Session is
// built for every submission. A worker abandoned after a timeout may still
// write to it, so results go through the mutex.
type Session struct {
	ID      string
	Sub     textan.Submission
	Authors []string

	mu           sync.Mutex
	ops          []model.OpTiming
	attributions []model.Attribution
}

func (s *Session) addOp(name string, seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, model.OpTiming{Seq: len(s.ops), Name: name, Seconds: seconds})
}

func (s *Session) addAttribution(a model.Attribution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributions = append(s.attributions, a)
}

// Results returns copies of the recorded timings and attributions.
func (s *Session) Results() ([]model.OpTiming, []model.Attribution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OpTiming(nil), s.ops...), append([]model.Attribution(nil), s.attributions...)
}

// Operation is one step of the sequence.
type Operation struct {
	Name    string
	Enabled bool
	// Pre and Post are printed around the call, with IDPlaceholder replaced.
	Pre  string
	Post string
	Run  func(ctx context.Context, s *Session) error
}

// Sequencer runs registered operations in registration order.
type Sequencer struct {
	ops    []Operation
	report *report.Reporter
}

// NewSequencer creates an empty sequence reporting to rep.
func NewSequencer(rep *report.Reporter) *Sequencer {
	return &Sequencer{report: rep}
}

// Register appends op. An empty Post gets DefaultPost.
func (q *Sequencer) Register(op Operation) {
	if op.Post == "" {
		op.Post = DefaultPost
	}
	q.ops = append(q.ops, op)
}

// Operations returns the registered operations in order.
func (q *Sequencer) Operations() []Operation {
	return append([]Operation(nil), q.ops...)
}

// Execute runs every enabled operation for s and reports its elapsed time.
// It stops at the first error or when ctx is done.
func (q *Sequencer) Execute(ctx context.Context, s *Session) error {
	for _, op := range q.ops {
		if !op.Enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		q.report.Println(substitute(op.Pre, s.ID))
		if err := op.Run(ctx, s); err != nil {
			return fmt.Errorf("%s: %w", op.Name, err)
		}
		// An abandoned worker must not write into the next submission's section.
		if err := ctx.Err(); err != nil {
			return err
		}
		elapsed := time.Since(start).Seconds()
		q.report.Print(substitute(op.Post, s.ID))
		q.report.Printf(" in %.2f seconds\n", elapsed)

		s.addOp(op.Name, elapsed)
	}
	return nil
}

func substitute(msg, id string) string {
	return strings.ReplaceAll(msg, IDPlaceholder, id)
}
