// Package report writes the human-readable grading log.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Reporter is the single writer of the result log. Submission output never
// goes through it.
type Reporter struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	path   string
}

// New wraps w. Close does not close it.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Open creates the result file in dir, or reports to stdout when file is
// empty.
func Open(dir, file string) (*Reporter, error) {
	if file == "" {
		return New(os.Stdout), nil
	}
	path := file
	if dir != "" && !filepath.IsAbs(file) {
		path = filepath.Join(dir, file)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create results file: %w", err)
	}
	return &Reporter{w: f, closer: f, path: path}, nil
}

// Path returns the result file path, empty for stdout.
func (r *Reporter) Path() string { return r.path }

func (r *Reporter) Print(a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.w, a...)
}

func (r *Reporter) Println(a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, a...)
}

func (r *Reporter) Printf(format string, a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, a...)
}

// Close closes the result file, if any. It is safe to call more than once.
func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
