package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/textan/internal/model"
	"github.com/rcliao/textan/internal/report"
	"github.com/rcliao/textan/internal/textan"
)

// ErrTimeout is returned when a submission runs past its deadline.
var ErrTimeout = errors.New("submission timed out")

// maxFrames bounds the call stack excerpt of a fault.
const maxFrames = 5

// FaultError describes an error or panic raised by submission code.
type FaultError struct {
	Kind    string
	Message string
	// Line is the file:line where the fault was raised, when known.
	Line   string
	Frames []string
	Err    error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FaultError) Unwrap() error { return e.Err }

func faultFromPanic(p any) *FaultError {
	f := &FaultError{Kind: fmt.Sprintf("%T", p), Message: fmt.Sprint(p)}
	if err, ok := p.(error); ok {
		f.Err = err
	}

	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		fr, more := frames.Next()
		if !strings.HasPrefix(fr.Function, "runtime.") {
			loc := fmt.Sprintf("%s:%d", fr.File, fr.Line)
			if f.Line == "" {
				f.Line = loc
			}
			f.Frames = append(f.Frames, fr.Function+" "+loc)
		}
		if !more || len(f.Frames) == maxFrames {
			break
		}
	}
	return f
}

func faultFromError(err error) *FaultError {
	var f *FaultError
	if errors.As(err, &f) {
		return f
	}
	root := err
	for u := errors.Unwrap(root); u != nil; u = errors.Unwrap(root) {
		root = u
	}
	return &FaultError{Kind: fmt.Sprintf("%T", root), Message: err.Error(), Err: err}
}

// Guard runs one submission under a deadline and contains its faults.
type Guard struct {
	Timeout time.Duration
	Report  *report.Reporter
	Logger  *zap.Logger
}

// Run calls fn on a worker goroutine. It returns when fn returns, panics,
// or the deadline passes; in the last case the worker is abandoned and
// keeps running until it observes ctx. The returned error is nil,
// ErrTimeout, a *textan.LoadError or a *FaultError.
func (g *Guard) Run(ctx context.Context, id string, fn func(context.Context) error) (model.State, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- faultFromPanic(p)
			}
		}()
		done <- fn(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		select {
		case err = <-done:
		default:
			err = ctx.Err()
		}
	}

	switch {
	case err == nil:
		return model.StateCompleted, nil
	case g.Timeout > 0 && errors.Is(err, context.DeadlineExceeded):
		g.timeoutBanner(id)
		g.Logger.Warn("submission timed out", zap.String("id", id), zap.Duration("timeout", g.Timeout))
		return model.StateTimedOut, ErrTimeout
	}

	fault := faultFromError(err)
	g.errorBanner(id, fault)

	var le *textan.LoadError
	if errors.As(err, &le) {
		g.Logger.Warn("submission failed to load", zap.String("id", id), zap.Error(err))
		return model.StateLoadFailed, le
	}
	g.Logger.Warn("submission failed", zap.String("id", id), zap.Error(err))
	return model.StateErrored, fault
}

func (g *Guard) timeoutBanner(id string) {
	g.Report.Println(strings.Repeat(">=", 75))
	g.Report.Printf("\tid:%s ===>>> COMPUTATION TIME EXCEEDED: more than %s\n", id, g.Timeout)
	g.Report.Println(strings.Repeat("<=", 75))
}

func (g *Guard) errorBanner(id string, f *FaultError) {
	g.Report.Println(strings.Repeat("=", 150))
	g.Report.Printf("\tid:%s ===>>> EXECUTION ERROR\n", id)
	g.Report.Printf("Exception: %s, Value: %s\n", f.Kind, f.Message)
	if f.Line != "" {
		g.Report.Printf("Line: %s\n", f.Line)
	}
	for _, fr := range f.Frames {
		g.Report.Printf("  %s\n", fr)
	}
	g.Report.Println()
	g.Report.Println(strings.Repeat("=", 150))
}
