package textan

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/textan/internal/corpus"
	"github.com/rcliao/textan/internal/vector"
)

// DefaultNGramSize is used until SetNGramSize is called.
const DefaultNGramSize = 2

// Base holds the state every submission shares: configuration, the
// discovered authors and their mappings. Embed it to get the helper half of
// Submission.
type Base struct {
	mu         sync.RWMutex
	ngramSize  int
	authorDir  string
	authors    []corpus.Author
	tokenizer  corpus.Tokenizer
	counts     map[string]vector.Counts
	normalized map[string]vector.Vector
	rng        *rand.Rand
	logger     *zap.Logger
}

// NewBase returns a Base with the default n-gram size and a time-seeded
// random source.
func NewBase() *Base {
	return &Base{
		ngramSize:  DefaultNGramSize,
		tokenizer:  corpus.Tokenizer{Punctuation: corpus.DefaultPunctuation},
		counts:     make(map[string]vector.Counts),
		normalized: make(map[string]vector.Vector),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:     zap.NewNop(),
	}
}

func (b *Base) SetNGramSize(n int) { b.ngramSize = n }

func (b *Base) NGramSize() int { return b.ngramSize }

func (b *Base) SetTokenizer(t corpus.Tokenizer) { b.tokenizer = t }

func (b *Base) Tokenizer() corpus.Tokenizer { return b.tokenizer }

// SetSeed makes generation reproducible. Zero keeps the time-based seed.
func (b *Base) SetSeed(seed int64) {
	if seed == 0 {
		return
	}
	b.rng = rand.New(rand.NewSource(seed))
}

func (b *Base) Rand() *rand.Rand { return b.rng }

func (b *Base) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b.logger = logger
}

func (b *Base) Logger() *zap.Logger { return b.logger }

// SetAuthorDir discovers the authors under dir and their works.
func (b *Base) SetAuthorDir(dir string) error {
	authors, err := corpus.Discover(dir)
	if err != nil {
		return err
	}
	b.authorDir = dir
	b.authors = authors
	return nil
}

func (b *Base) AuthorDir() string { return b.authorDir }

// Authors returns the author names in sorted order.
func (b *Base) Authors() []string {
	names := make([]string, 0, len(b.authors))
	for _, a := range b.authors {
		if len(names) > 0 && names[len(names)-1] == a.Name {
			continue
		}
		names = append(names, a.Name)
	}
	return names
}

// AuthorEntries returns the discovered author directories.
func (b *Base) AuthorEntries() []corpus.Author { return b.authors }

// Works returns every work path of author.
func (b *Base) Works(author string) []string {
	var works []string
	for _, a := range b.authors {
		if a.Name == author {
			works = append(works, a.Works...)
		}
	}
	return works
}

// MergeCounts adds c into the occurrence mapping of author. Two directories
// folding to the same name share one mapping.
func (b *Base) MergeCounts(author string, c vector.Counts) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dst, ok := b.counts[author]
	if !ok {
		dst = make(vector.Counts, len(c))
		b.counts[author] = dst
	}
	for k, n := range c {
		dst[k] += n
	}
}

// Counts returns the occurrence mapping of author, or an empty mapping.
func (b *Base) Counts(author string) vector.Counts {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if c, ok := b.counts[author]; ok {
		return c
	}
	return vector.Counts{}
}

// Normalized returns the normalized vector of author, or an empty vector
// before NormalizeAuthors ran.
func (b *Base) Normalized(author string) vector.Vector {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.normalized[author]; ok {
		return v
	}
	return vector.Vector{}
}

// NormalizeAuthorsWith stores norm(counts) as every author's normalized
// vector.
func (b *Base) NormalizeAuthorsWith(norm func(vector.Vector) vector.Vector) {
	for _, name := range b.Authors() {
		v := norm(vector.FromCounts(b.Counts(name)))
		b.mu.Lock()
		b.normalized[name] = v
		b.mu.Unlock()
	}
}

// NGramOccurrence returns how many times words occurs as an n-gram of author.
func (b *Base) NGramOccurrence(author string, words []string) int {
	return b.Counts(author)[corpus.Join(words)]
}

// TotalOccurrences returns the number of n-grams scanned for author.
func (b *Base) TotalOccurrences(author string) int {
	return b.Counts(author).Total()
}

// RankFrom completes a rank reported as bare n-grams with the count and
// share read from author's mapping.
func (b *Base) RankFrom(author string, k int, grams [][]string) (Rank, bool) {
	if len(grams) == 0 {
		return Rank{}, false
	}
	r := Rank{K: k, NGrams: grams, Count: b.NGramOccurrence(author, grams[0])}
	if total := b.TotalOccurrences(author); total > 0 {
		r.Share = float64(r.Count) / float64(total)
	}
	return r, true
}
