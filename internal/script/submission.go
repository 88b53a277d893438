package script

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/rcliao/textan/internal/textan"
	"github.com/rcliao/textan/internal/vector"
)

// Submission adapts an interpreted script to textan.Submission. The helper
// half comes from the embedded Base.
type Submission struct {
	*textan.Base
	fns functions
}

var _ textan.Submission = (*Submission)(nil)

// await runs fn on its own goroutine so a cancelled context stops waiting
// for interpreted code that does not return. Panics come back as errors.
func await[T any](ctx context.Context, name string, fn func() T) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- result{err: fmt.Errorf("%s: panic: %v", name, p)}
			}
		}()
		ch <- result{v: fn()}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%s: %w", name, ctx.Err())
	}
}

func (s *Submission) VectorSize(v vector.Vector) float64 {
	return s.fns.vectorSize(v)
}

func (s *Submission) Normalize(v vector.Vector) vector.Vector {
	return s.fns.normalize(v)
}

func (s *Submission) AddDict(a, b vector.Vector) vector.Vector {
	return s.fns.addDict(a, b)
}

func (s *Submission) DotProduct(a, b vector.Vector) float64 {
	return s.fns.dotProduct(a, b)
}

func (s *Submission) NormalizeAuthors() { s.NormalizeAuthorsWith(s.Normalize) }

// Analyze tokenizes every work on the host side and hands the tokens to the
// script.
func (s *Submission) Analyze(ctx context.Context) error {
	tok := s.Tokenizer()
	works := make(map[string][][]string)
	for _, a := range s.AuthorEntries() {
		for _, path := range a.Works {
			if err := ctx.Err(); err != nil {
				return err
			}
			tokens, err := tok.TokenizeFile(path)
			if err != nil {
				s.Logger().Warn("skipping unreadable work",
					zap.String("author", a.Name),
					zap.String("path", path),
					zap.Error(err))
				continue
			}
			works[a.Name] = append(works[a.Name], tokens)
		}
	}

	counts, err := await(ctx, "Analyze", func() map[string]map[string]int {
		return s.fns.analyze(works, s.NGramSize())
	})
	if err != nil {
		return err
	}
	for author, c := range counts {
		s.MergeCounts(author, c)
	}
	return nil
}

func (s *Submission) FindAuthor(ctx context.Context, path string) ([]textan.Similarity, error) {
	tokens, err := s.Tokenizer().TokenizeFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unknown work: %w", err)
	}
	authors := make(map[string]map[string]int)
	for _, name := range s.Authors() {
		authors[name] = s.Counts(name)
	}

	scores, err := await(ctx, "FindAuthor", func() map[string]float64 {
		return s.fns.findAuthor(tokens, s.NGramSize(), authors)
	})
	if err != nil {
		return nil, err
	}
	out := make([]textan.Similarity, 0, len(scores))
	for author, score := range scores {
		out = append(out, textan.Similarity{Author: author, Score: score})
	}
	return out, nil
}

func (s *Submission) GenText(ctx context.Context, dist vector.Vector, size int, w io.Writer) error {
	seed := s.Rand().Int63()
	text, err := await(ctx, "GenText", func() string {
		return s.fns.genText(dist, s.NGramSize(), size, seed)
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

func (s *Submission) KthElement(author string, k int) (textan.Rank, bool) {
	grams := s.fns.kthElement(s.Counts(author), k)
	return s.RankFrom(author, k, grams)
}
