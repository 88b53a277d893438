// Package script loads submissions written as Go source files and runs them
// with the yaegi interpreter.
//
// A script is a package main file named textan_<ID>.go that defines:
//
//	func VectorSize(v map[string]float64) float64
//	func Normalize(v map[string]float64) map[string]float64
//	func AddDict(a, b map[string]float64) map[string]float64
//	func DotProduct(a, b map[string]float64) float64
//	func Analyze(works map[string][][]string, ngramSize int) map[string]map[string]int
//	func FindAuthor(tokens []string, ngramSize int, authors map[string]map[string]int) map[string]float64
//	func GenText(dist map[string]float64, ngramSize, size int, seed int64) string
//	func KthElement(counts map[string]int, k int) [][]string
//
// Analyze receives the tokens of every work, grouped by author.
package script

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"github.com/rcliao/textan/internal/textan"
)

// FilePattern names the source file of a submission from its identifier.
const FilePattern = "textan_%s.go"

// Loader resolves submission identifiers to script files in Dir.
type Loader struct {
	Dir    string
	Logger *zap.Logger
	// Output receives what scripts print. Nil keeps the process stdout.
	Output io.Writer
}

var _ textan.Loader = (*Loader)(nil)

// NewLoader creates a Loader for scripts in dir.
func NewLoader(dir string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{Dir: dir, Logger: logger}
}

// Path returns the script path for id.
func (l *Loader) Path(id string) string {
	return filepath.Join(l.Dir, fmt.Sprintf(FilePattern, id))
}

// Load reads and compiles the script of id.
func (l *Loader) Load(id string) (textan.Submission, error) {
	path := l.Path(id)
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, textan.ErrNotFound)
		}
		return nil, fmt.Errorf("read script: %w", err)
	}

	sub, err := Compile(string(src), l.Output)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.Logger.Debug("script loaded", zap.String("id", id), zap.String("path", path))
	return sub, nil
}

type functions struct {
	vectorSize func(map[string]float64) float64
	normalize  func(map[string]float64) map[string]float64
	addDict    func(map[string]float64, map[string]float64) map[string]float64
	dotProduct func(map[string]float64, map[string]float64) float64
	analyze    func(map[string][][]string, int) map[string]map[string]int
	findAuthor func([]string, int, map[string]map[string]int) map[string]float64
	genText    func(map[string]float64, int, int, int64) string
	kthElement func(map[string]int, int) [][]string
}

// Compile evaluates src and binds its functions. out receives the script's
// standard output and error; nil keeps the process streams.
func Compile(src string, out io.Writer) (*Submission, error) {
	opts := interp.Options{}
	if out != nil {
		opts.Stdout = out
		opts.Stderr = out
	}
	i := interp.New(opts)
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}

	if !strings.Contains(src, "package main") {
		src = "package main\n\n" + src
	}
	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	var fns functions
	var missing []string
	bind := func(name string, dst any) {
		v, err := i.Eval("main." + name)
		if err != nil {
			missing = append(missing, name)
			return
		}
		if !assign(v.Interface(), dst) {
			missing = append(missing, name+" (wrong signature)")
		}
	}
	bind("VectorSize", &fns.vectorSize)
	bind("Normalize", &fns.normalize)
	bind("AddDict", &fns.addDict)
	bind("DotProduct", &fns.dotProduct)
	bind("Analyze", &fns.analyze)
	bind("FindAuthor", &fns.findAuthor)
	bind("GenText", &fns.genText)
	bind("KthElement", &fns.kthElement)
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing functions: %s", strings.Join(missing, ", "))
	}

	return &Submission{Base: textan.NewBase(), fns: fns}, nil
}

func assign(fn any, dst any) bool {
	var ok bool
	switch d := dst.(type) {
	case *func(map[string]float64) float64:
		*d, ok = fn.(func(map[string]float64) float64)
	case *func(map[string]float64) map[string]float64:
		*d, ok = fn.(func(map[string]float64) map[string]float64)
	case *func(map[string]float64, map[string]float64) map[string]float64:
		*d, ok = fn.(func(map[string]float64, map[string]float64) map[string]float64)
	case *func(map[string]float64, map[string]float64) float64:
		*d, ok = fn.(func(map[string]float64, map[string]float64) float64)
	case *func(map[string][][]string, int) map[string]map[string]int:
		*d, ok = fn.(func(map[string][][]string, int) map[string]map[string]int)
	case *func([]string, int, map[string]map[string]int) map[string]float64:
		*d, ok = fn.(func([]string, int, map[string]map[string]int) map[string]float64)
	case *func(map[string]float64, int, int, int64) string:
		*d, ok = fn.(func(map[string]float64, int, int, int64) string)
	case *func(map[string]int, int) [][]string:
		*d, ok = fn.(func(map[string]int, int) [][]string)
	}
	return ok
}
