package textan

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rcliao/textan/internal/corpus"
	"github.com/rcliao/textan/internal/vector"
)

func writeWork(t *testing.T, root, author, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, author)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestReference(t *testing.T, root string, n int) *Reference {
	t.Helper()
	r := NewReference()
	r.SetLogger(zaptest.NewLogger(t))
	r.SetNGramSize(n)
	require.NoError(t, r.SetAuthorDir(root))
	return r
}

func TestAnalyze_TotalInvariant(t *testing.T) {
	root := t.TempDir()
	writeWork(t, root, "A", "one.txt", "a b c d")
	writeWork(t, root, "A", "two.txt", "e f g")
	writeWork(t, root, "B", "one.txt", "x y")

	r := newTestReference(t, root, 2)
	require.NoError(t, r.Analyze(context.Background()))

	// 7 words, 2 works, n=2
	assert.Equal(t, 7-1*2, r.TotalOccurrences("A"))
	assert.Equal(t, 1, r.TotalOccurrences("B"))
	assert.Equal(t, 1, r.NGramOccurrence("A", []string{"b", "c"}))
	assert.Equal(t, 0, r.NGramOccurrence("A", []string{"d", "e"}))
}

func TestAnalyze_MergesFoldedNames(t *testing.T) {
	root := t.TempDir()
	writeWork(t, root, "Ségur", "a.txt", "un deux")
	writeWork(t, root, "Segur", "b.txt", "un deux")

	r := newTestReference(t, root, 2)
	require.NoError(t, r.Analyze(context.Background()))
	assert.Equal(t, []string{"Segur"}, r.Authors())
	assert.Equal(t, vector.Counts{"un deux": 2}, r.Counts("Segur"))
}

func TestAnalyze_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeWork(t, root, "A", "one.txt", "a b c")

	r := newTestReference(t, root, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Analyze(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindAuthor_TwoAuthors(t *testing.T) {
	root := t.TempDir()
	writeWork(t, root, "A", "a.txt", "le chat dort")
	writeWork(t, root, "B", "b.txt", "le chien court")
	unknown := filepath.Join(t.TempDir(), "inconnu.txt")
	require.NoError(t, os.WriteFile(unknown, []byte("le chat"), 0o644))

	r := newTestReference(t, root, 1)
	require.NoError(t, r.Analyze(context.Background()))
	assert.Equal(t, vector.Counts{"le": 1, "chat": 1, "dort": 1}, r.Counts("A"))
	assert.Equal(t, vector.Counts{"le": 1, "chien": 1, "court": 1}, r.Counts("B"))

	scores, err := r.FindAuthor(context.Background(), unknown)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	SortSimilarities(scores)
	assert.Equal(t, "A", scores[0].Author)
	assert.Greater(t, scores[0].Score, scores[1].Score)
	assert.InDelta(t, 2/(sqrt2*sqrt3), scores[0].Score, 1e-9)
}

const (
	sqrt2 = 1.4142135623730951
	sqrt3 = 1.7320508075688772
)

func TestFindAuthor_EmptyUnknownScoresZero(t *testing.T) {
	root := t.TempDir()
	writeWork(t, root, "A", "a.txt", "le chat dort")
	unknown := filepath.Join(t.TempDir(), "vide.txt")
	require.NoError(t, os.WriteFile(unknown, nil, 0o644))

	r := newTestReference(t, root, 2)
	require.NoError(t, r.Analyze(context.Background()))
	scores, err := r.FindAuthor(context.Background(), unknown)
	require.NoError(t, err)
	assert.Equal(t, []Similarity{{Author: "A", Score: 0}}, scores)
}

func TestFindAuthor_MissingFile(t *testing.T) {
	r := NewReference()
	_, err := r.FindAuthor(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestNormalizeAuthors(t *testing.T) {
	root := t.TempDir()
	writeWork(t, root, "A", "a.txt", "a a b")

	r := newTestReference(t, root, 1)
	require.NoError(t, r.Analyze(context.Background()))
	assert.Empty(t, r.Normalized("A"))

	r.NormalizeAuthors()
	assert.InDelta(t, 1, vector.Norm(r.Normalized("A")), 1e-9)
}

func TestGenerate_Example(t *testing.T) {
	dist := vector.Vector{"a b": 3, "b c": 1}
	for seed := int64(1); seed <= 50; seed++ {
		gen, err := NewGenerator(dist, 2, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)

		words, err := gen.Generate(context.Background(), 5)
		require.NoError(t, err)
		require.Len(t, words, 5)
		assert.Contains(t, []string{"a", "b"}, words[0])
		for _, w := range words {
			assert.Contains(t, []string{"a", "b", "c"}, w)
		}
	}
}

func TestGenerate_FollowsContinuation(t *testing.T) {
	// every context has exactly one continuation
	dist := vector.Vector{"x y": 1, "y x": 1}
	gen, err := NewGenerator(dist, 2, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	words, err := gen.Generate(context.Background(), 6)
	require.NoError(t, err)
	for i := 1; i < len(words); i++ {
		assert.NotEqual(t, words[i-1], words[i])
	}
}

func TestGenerate_ResetKeepsLastWord(t *testing.T) {
	// "y" never starts an n-gram, so every step after the first restarts
	dist := vector.Vector{"x y": 1}
	gen, err := NewGenerator(dist, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	words, err := gen.Generate(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "y", "y", "y"}, words)
}

func TestGenerate_Reproducible(t *testing.T) {
	dist := vector.Vector{"a b": 3, "b c": 1, "c a": 2, "b a": 1}
	run := func() []string {
		gen, err := NewGenerator(dist, 2, rand.New(rand.NewSource(42)))
		require.NoError(t, err)
		words, err := gen.Generate(context.Background(), 20)
		require.NoError(t, err)
		return words
	}
	assert.Equal(t, run(), run())
}

func TestGenerate_Degenerate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := NewGenerator(vector.Vector{}, 2, rng)
	assert.ErrorIs(t, err, ErrEmptyDistribution)

	_, err = NewGenerator(vector.Vector{"a b": 0}, 2, rng)
	assert.ErrorIs(t, err, ErrEmptyDistribution)
}

func TestGenerate_Cancelled(t *testing.T) {
	gen, err := NewGenerator(vector.Vector{"a b": 1}, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gen.Generate(ctx, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenText_WritesWords(t *testing.T) {
	r := NewReference()
	r.SetSeed(3)
	r.SetNGramSize(1)

	var buf bytes.Buffer
	err := r.GenText(context.Background(), vector.Vector{"oui": 1, "non": 1}, 8, &buf)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(buf.String()), 8)
}

func TestKthElement(t *testing.T) {
	c := vector.Counts{"a b": 3, "b c": 3, "c d": 1}

	r, ok := RankCounts(c, 1)
	require.True(t, ok)
	assert.ElementsMatch(t, [][]string{{"a", "b"}, {"b", "c"}}, r.NGrams)
	assert.Equal(t, 3, r.Count)
	assert.InDelta(t, 3.0/7.0, r.Share, 1e-12)

	r, ok = RankCounts(c, 3)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"c", "d"}}, r.NGrams)
	assert.Equal(t, 1, r.Count)

	_, ok = RankCounts(c, 4)
	assert.False(t, ok)
	_, ok = RankCounts(c, 0)
	assert.False(t, ok)
}

func TestRankFrom(t *testing.T) {
	root := t.TempDir()
	writeWork(t, root, "A", "a.txt", "le le chat")

	r := newTestReference(t, root, 1)
	require.NoError(t, r.Analyze(context.Background()))
	rank, ok := r.RankFrom("A", 1, [][]string{{"le"}})
	require.True(t, ok)
	assert.Equal(t, 2, rank.Count)
	assert.InDelta(t, 2.0/3.0, rank.Share, 1e-12)

	_, ok = r.RankFrom("A", 9, nil)
	assert.False(t, ok)
}

type stubLoader struct {
	sub Submission
	err error
}

func (l stubLoader) Load(string) (Submission, error) { return l.sub, l.err }

func TestRegistry(t *testing.T) {
	t.Run("reference", func(t *testing.T) {
		sub, err := NewRegistry(nil).Load(ReferenceID)
		require.NoError(t, err)
		assert.IsType(t, &Reference{}, sub)
	})

	t.Run("fresh instance per load", func(t *testing.T) {
		reg := NewRegistry(nil)
		a, _ := reg.Load(ReferenceID)
		b, _ := reg.Load(ReferenceID)
		assert.NotSame(t, a, b)
	})

	t.Run("unknown without loader", func(t *testing.T) {
		_, err := NewRegistry(nil).Load("abcd1234")
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, "abcd1234", le.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("loader fallback", func(t *testing.T) {
		want := NewReference()
		sub, err := NewRegistry(stubLoader{sub: want}).Load("abcd1234")
		require.NoError(t, err)
		assert.Same(t, want, sub)
	})

	t.Run("loader error", func(t *testing.T) {
		boom := errors.New("syntax error")
		_, err := NewRegistry(stubLoader{err: boom}).Load("abcd1234")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("panicking factory", func(t *testing.T) {
		reg := NewRegistry(nil)
		reg.Register("bad", func() Submission { panic("constructor failed") })
		_, err := reg.Load("bad")
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Contains(t, err.Error(), "constructor failed")
	})
}

func TestBaseDefaults(t *testing.T) {
	b := NewBase()
	assert.Equal(t, DefaultNGramSize, b.NGramSize())
	assert.Equal(t, corpus.DefaultPunctuation, b.Tokenizer().Punctuation)
	assert.Empty(t, b.Counts("nobody"))
	assert.Error(t, b.SetAuthorDir(filepath.Join(t.TempDir(), "missing")))
}
