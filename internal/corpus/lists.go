package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadRoster reads submission identifiers, one or more per line. Lines
// containing '#' or '%' are ignored entirely.
func ReadRoster(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.ContainsAny(line, "#%") {
			continue
		}
		ids = append(ids, strings.Fields(line)...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return ids, nil
}

// ReadLines reads one entry per non-blank line, trimmed and with accents
// folded.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, NormalizeName(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return lines, nil
}

// ErrNoWorks is returned by ResolveWorks when none of the names resolve.
var ErrNoWorks = errors.New("no readable unknown work")

// ResolveWorks resolves names relative to dir to absolute file paths,
// following symlinks. Missing files and directories are returned as
// per-name errors; the remaining names still resolve.
func ResolveWorks(dir string, names []string) ([]string, []error) {
	var paths []string
	var errs []error
	for _, name := range names {
		p := name
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if real, err := filepath.EvalSymlinks(p); err == nil {
			p = real
		}

		info, err := os.Stat(p)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("file %s does not exist: %w", p, err))
		case info.IsDir():
			errs = append(errs, fmt.Errorf("%s is a directory, not a file", p))
		default:
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 && len(names) > 0 {
		errs = append(errs, ErrNoWorks)
	}
	return paths, errs
}
