// Package corpus discovers authors and their works on disk and turns text
// into n-grams.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WorkExt is the extension of files treated as works.
const WorkExt = ".txt"

// Author is one author directory of the corpus.
type Author struct {
	Name  string
	Dir   string
	Works []string
}

// NormalizeName folds accented characters to their base letters, so that
// "Ségur" and "Segur" name the same author.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Discover lists the author subdirectories of root, sorted by name. Each
// author's works are the regular .txt files directly inside its directory.
func Discover(root string) ([]Author, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}

	var authors []Author
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		works, err := listWorks(dir)
		if err != nil {
			return nil, err
		}
		authors = append(authors, Author{
			Name:  NormalizeName(e.Name()),
			Dir:   dir,
			Works: works,
		})
	}

	sort.Slice(authors, func(i, j int) bool {
		return authors[i].Name < authors[j].Name
	})
	return authors, nil
}

func listWorks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read author dir %s: %w", dir, err)
	}
	var works []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), WorkExt) {
			continue
		}
		works = append(works, filepath.Join(dir, e.Name()))
	}
	sort.Strings(works)
	return works, nil
}
