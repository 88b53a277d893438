package textan

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/textan/internal/corpus"
	"github.com/rcliao/textan/internal/vector"
)

// ReferenceID is the registry identifier of the built-in implementation.
const ReferenceID = "reference"

// Reference is the built-in Submission.
type Reference struct {
	*Base
	workers int
}

var _ Submission = (*Reference)(nil)

// NewReference creates a Reference with a fresh Base.
func NewReference() *Reference {
	return &Reference{Base: NewBase(), workers: runtime.GOMAXPROCS(0)}
}

func (r *Reference) Normalize(v vector.Vector) vector.Vector { return vector.Normalize(v) }

func (r *Reference) VectorSize(v vector.Vector) float64 { return vector.Norm(v) }

func (r *Reference) AddDict(a, b vector.Vector) vector.Vector { return vector.Add(a, b) }

func (r *Reference) DotProduct(a, b vector.Vector) float64 { return vector.Dot(a, b) }

func (r *Reference) NormalizeAuthors() { r.NormalizeAuthorsWith(r.Normalize) }

// Analyze tokenizes every author's works, one goroutine per author up to
// the worker limit. Unreadable works are skipped with a warning.
func (r *Reference) Analyze(ctx context.Context) error {
	authors := r.AuthorEntries()
	results := make([]vector.Counts, len(authors))
	n := r.NGramSize()
	tok := r.Tokenizer()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, a := range authors {
		i, a := i, a
		g.Go(func() error {
			counts := vector.Counts{}
			for _, path := range a.Works {
				if err := gctx.Err(); err != nil {
					return err
				}
				tokens, err := tok.TokenizeFile(path)
				if err != nil {
					r.Logger().Warn("skipping unreadable work",
						zap.String("author", a.Name),
						zap.String("path", path),
						zap.Error(err))
					continue
				}
				corpus.Accumulate(counts, tokens, n)
			}
			results[i] = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	for i, a := range authors {
		r.MergeCounts(a.Name, results[i])
	}
	return nil
}

// FindAuthor returns the cosine similarity of the unknown work at path with
// every author, in author order.
func (r *Reference) FindAuthor(ctx context.Context, path string) ([]Similarity, error) {
	tokens, err := r.Tokenizer().TokenizeFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unknown work: %w", err)
	}
	unknown := vector.Counts{}
	corpus.Accumulate(unknown, tokens, r.NGramSize())
	u := r.Normalize(vector.FromCounts(unknown))

	authors := r.Authors()
	scores := make([]Similarity, 0, len(authors))
	for _, name := range authors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a := r.Normalize(vector.FromCounts(r.Counts(name)))
		scores = append(scores, Similarity{Author: name, Score: r.DotProduct(u, a)})
	}
	return scores, nil
}

// GenText draws size words from dist and writes them space-joined to w.
func (r *Reference) GenText(ctx context.Context, dist vector.Vector, size int, w io.Writer) error {
	gen, err := NewGenerator(dist, r.NGramSize(), r.Rand())
	if err != nil {
		return err
	}
	words, err := gen.Generate(ctx, size)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, corpus.Join(words))
	return err
}

func (r *Reference) KthElement(author string, k int) (Rank, bool) {
	return RankCounts(r.Counts(author), k)
}
