// Package textan defines the authorship-analysis capability a submission
// must provide, the helpers every submission inherits, and a built-in
// reference implementation.
package textan

import (
	"context"
	"errors"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/rcliao/textan/internal/corpus"
	"github.com/rcliao/textan/internal/vector"
)

// ErrEmptyDistribution is returned when text generation has nothing to draw
// from: an empty mapping or a non-positive total weight.
var ErrEmptyDistribution = errors.New("empty distribution")

// Submission is the capability a graded implementation provides.
type Submission interface {
	// Configuration helpers, provided by Base.
	SetNGramSize(n int)
	NGramSize() int
	SetAuthorDir(dir string) error
	SetTokenizer(t corpus.Tokenizer)
	SetSeed(seed int64)
	SetLogger(logger *zap.Logger)
	Authors() []string

	// Vector arithmetic.
	Normalize(v vector.Vector) vector.Vector
	VectorSize(v vector.Vector) float64
	AddDict(a, b vector.Vector) vector.Vector
	DotProduct(a, b vector.Vector) float64

	// Analyze fills the occurrence mapping of every author.
	Analyze(ctx context.Context) error
	// NormalizeAuthors computes each author's normalized vector from its counts.
	NormalizeAuthors()
	Counts(author string) vector.Counts
	Normalized(author string) vector.Vector

	// FindAuthor scores the unknown work at path against every author.
	FindAuthor(ctx context.Context, path string) ([]Similarity, error)
	// GenText writes size words drawn from dist to w.
	GenText(ctx context.Context, dist vector.Vector, size int, w io.Writer) error
	// KthElement returns the n-grams at rank k for author, false when k is
	// out of range.
	KthElement(author string, k int) (Rank, bool)

	NGramOccurrence(author string, words []string) int
	TotalOccurrences(author string) int
}

// Similarity is the score of one author against an unknown work.
type Similarity struct {
	Author string  `json:"author"`
	Score  float64 `json:"score"`
}

// SortSimilarities orders s by descending score, then by author name.
func SortSimilarities(s []Similarity) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].Author < s[j].Author
	})
}

// Rank is the result of a k-th most frequent n-gram query. All n-grams tied
// at that count are returned.
type Rank struct {
	K      int        `json:"k"`
	NGrams [][]string `json:"ngrams"`
	Count  int        `json:"count"`
	// Share is Count over the author's total occurrences.
	Share float64 `json:"share"`
}

// RankCounts finds the count at rank k (1-indexed) of c sorted by
// descending count and collects every n-gram sharing it.
func RankCounts(c vector.Counts, k int) (Rank, bool) {
	if k < 1 || k > len(c) {
		return Rank{}, false
	}

	keys := c.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return c[keys[i]] > c[keys[j]]
	})

	count := c[keys[k-1]]
	var grams [][]string
	for _, key := range keys {
		if c[key] == count {
			grams = append(grams, corpus.Split(key))
		}
	}

	r := Rank{K: k, NGrams: grams, Count: count}
	if total := c.Total(); total > 0 {
		r.Share = float64(count) / float64(total)
	}
	return r, true
}
