package textan

import (
	"context"
	"math/rand"
	"sort"
	"strings"

	"github.com/rcliao/textan/internal/corpus"
	"github.com/rcliao/textan/internal/vector"
)

// sampler draws keys in proportion to their weight. Keys are kept sorted so
// a seeded source reproduces the same draws.
type sampler struct {
	keys []string
	cum  []float64
}

func (s *sampler) add(key string, weight float64) {
	var prev float64
	if len(s.cum) > 0 {
		prev = s.cum[len(s.cum)-1]
	}
	s.keys = append(s.keys, key)
	s.cum = append(s.cum, prev+weight)
}

func (s *sampler) total() float64 {
	if len(s.cum) == 0 {
		return 0
	}
	return s.cum[len(s.cum)-1]
}

func (s *sampler) draw(rng *rand.Rand) string {
	r := rng.Float64() * s.total()
	i := sort.Search(len(s.cum), func(i int) bool { return s.cum[i] > r })
	if i == len(s.cum) {
		i--
	}
	return s.keys[i]
}

// Generator produces word sequences from an n-gram distribution. The next
// word is drawn among the n-grams continuing the last n-1 words; when none
// does, a fresh n-gram is drawn from the whole distribution.
type Generator struct {
	n    int
	all  *sampler
	next map[string]*sampler
	rng  *rand.Rand
}

// NewGenerator indexes dist by n-gram prefix. Non-positive weights are
// ignored.
func NewGenerator(dist vector.Vector, n int, rng *rand.Rand) (*Generator, error) {
	g := &Generator{
		n:    n,
		all:  &sampler{},
		next: make(map[string]*sampler),
		rng:  rng,
	}
	for _, key := range dist.Keys() {
		w := dist[key]
		if w <= 0 || strings.TrimSpace(key) == "" {
			continue
		}
		g.all.add(key, w)

		words := corpus.Split(key)
		if len(words) < n || n < 1 {
			continue
		}
		prefix := corpus.Join(words[:n-1])
		s, ok := g.next[prefix]
		if !ok {
			s = &sampler{}
			g.next[prefix] = s
		}
		s.add(key, w)
	}
	if g.all.total() <= 0 {
		return nil, ErrEmptyDistribution
	}
	return g, nil
}

// Generate returns exactly size words.
func (g *Generator) Generate(ctx context.Context, size int) ([]string, error) {
	if size <= 0 {
		return nil, nil
	}
	words := make([]string, 0, size+g.n)
	words = append(words, strings.Fields(g.all.draw(g.rng))...)

	for len(words) < size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if g.n > 1 && len(words) >= g.n-1 {
			prefix := corpus.Join(words[len(words)-(g.n-1):])
			if s, ok := g.next[prefix]; ok {
				gram := corpus.Split(s.draw(g.rng))
				words = append(words, gram[len(gram)-1])
				continue
			}
		}
		// No continuation: restart from a fresh n-gram, keeping its last word.
		gram := strings.Fields(g.all.draw(g.rng))
		words = append(words, gram[len(gram)-1])
	}
	return words[:size], nil
}
