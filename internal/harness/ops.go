package harness

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/rcliao/textan/internal/beautify"
	"github.com/rcliao/textan/internal/model"
	"github.com/rcliao/textan/internal/textan"
	"github.com/rcliao/textan/internal/vector"
)

func (h *Harness) registerOperations() {
	s := h.settings
	h.seq.Register(Operation{
		Name:    "load",
		Enabled: true,
		Pre: ">>>------------>>> " + IDPlaceholder + " <<<----------------<<<\n" +
			"\tLoading submission " + IDPlaceholder,
		Run:  h.load,
		Post: "\tLoad succeeded",
	})
	h.seq.Register(Operation{
		Name:    "analyze",
		Enabled: true,
		Pre:     "\n\tCalling Analyze: n-gram extraction",
		Run:     h.analyze,
		Post:    "\tAnalysis done",
	})
	h.seq.Register(Operation{
		Name:    "generate",
		Enabled: s.Generate.Enabled(),
		Pre:     "\n\tCalling GenText: random text generation",
		Run:     h.generate,
		Post:    "\tText generation done",
	})
	h.seq.Register(Operation{
		Name:    "find",
		Enabled: len(s.Unknown) > 0,
		Pre:     "\n\tCalling FindAuthor: unknown author detection",
		Run:     h.find,
		Post:    "\tUnknown author detection done",
	})
	h.seq.Register(Operation{
		Name:    "kth",
		Enabled: s.Kth > 0,
		Pre:     "\n\tCalling KthElement: k-th most frequent n-gram",
		Run:     h.kth,
		Post:    "\tK-th n-gram computation done",
	})
	h.seq.Register(Operation{
		Name:    "compare",
		Enabled: s.Compare,
		Pre:     "\n\tComparing authors: cosine between author vectors",
		Run:     h.compare,
		Post:    "\tAuthor comparison done",
	})
}

func (h *Harness) load(_ context.Context, s *Session) error {
	sub, err := h.registry.Load(s.ID)
	if err != nil {
		return err
	}
	sub.SetLogger(h.logger.With(zap.String("id", s.ID)))
	sub.SetNGramSize(h.settings.NGramSize)
	sub.SetTokenizer(h.settings.Tokenizer)
	sub.SetSeed(h.settings.Seed)
	if err := sub.SetAuthorDir(h.settings.CorpusDir); err != nil {
		return fmt.Errorf("set author dir: %w", err)
	}
	s.Sub = sub
	s.Authors = sub.Authors()

	if h.settings.Verbose {
		h.printParams(s)
	}
	return nil
}

func (h *Harness) analyze(ctx context.Context, s *Session) error {
	if err := s.Sub.Analyze(ctx); err != nil {
		return err
	}
	s.Sub.NormalizeAuthors()
	return nil
}

func (h *Harness) generate(ctx context.Context, s *Session) error {
	g := h.settings.Generate
	h.report.Println()
	h.report.Printf("\tid: %s - Random text generation:\n", s.ID)

	authors := s.Authors
	if len(g.Authors) > 0 {
		authors = nil
		for _, a := range g.Authors {
			if !slices.Contains(s.Authors, a) {
				return fmt.Errorf("unknown author %q", a)
			}
			authors = append(authors, a)
		}
	}

	switch {
	case g.Author != "":
		if !slices.Contains(s.Authors, g.Author) {
			return fmt.Errorf("unknown author %q", g.Author)
		}
		return h.genFrom(ctx, s, g.Author, vector.FromCounts(s.Sub.Counts(g.Author)))
	case g.Fused:
		fused := vector.Vector{}
		for _, a := range authors {
			fused = s.Sub.AddDict(fused, s.Sub.Normalize(s.Sub.Normalized(a)))
		}
		return h.genFrom(ctx, s, fusedLabel(authors), s.Sub.Normalize(fused))
	default:
		for _, a := range authors {
			if err := h.genFrom(ctx, s, a, vector.FromCounts(s.Sub.Counts(a))); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Harness) genFrom(ctx context.Context, s *Session, author string, dist vector.Vector) error {
	g := h.settings.Generate
	name := FileName(g.NameTemplate, s.ID, author, h.now())
	path := filepath.Join(g.Dir, name)
	if g.Dir != "" {
		if err := os.MkdirAll(g.Dir, 0o755); err != nil {
			return fmt.Errorf("create generation dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create generated file: %w", err)
	}
	h.report.Printf("\t\t--> %d words, style: %s, file: %s\n", g.Size, author, name)
	if err := s.Sub.GenText(ctx, dist, g.Size, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if g.Pretty {
		var rng *rand.Rand
		if h.settings.Seed != 0 {
			rng = rand.New(rand.NewSource(h.settings.Seed))
		}
		if err := beautify.New(beautify.DefaultOptions(), rng).File(path); err != nil {
			return fmt.Errorf("prettify %s: %w", name, err)
		}
	}
	return nil
}

func (h *Harness) find(ctx context.Context, s *Session) error {
	for _, work := range h.settings.Unknown {
		h.report.Printf("\tid: %s - Computing frequencies for the work %q:\n", s.ID, filepath.Base(work))
		scores, err := s.Sub.FindAuthor(ctx, work)
		if err != nil {
			return err
		}
		textan.SortSimilarities(scores)

		h.report.Print("\t\t--> ")
		for _, sc := range scores {
			h.report.Printf("%s:%.4f ", sc.Author, sc.Score)
			s.addAttribution(model.Attribution{Work: work, Author: sc.Author, Score: sc.Score})
		}
		h.report.Println()
	}
	return nil
}

func ordinal(k int) string {
	suffix := "th"
	switch {
	case k%100 >= 11 && k%100 <= 13:
	case k%10 == 1:
		suffix = "st"
	case k%10 == 2:
		suffix = "nd"
	case k%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", k, suffix)
}

func (h *Harness) kth(_ context.Context, s *Session) error {
	k := h.settings.Kth
	ord := ordinal(k)
	if len(s.Authors) == 0 {
		h.report.Println("\tNo author: cannot compute the k-th n-gram")
		return nil
	}

	n := s.Sub.NGramSize()
	plural := ""
	if n > 1 {
		plural = "s"
	}
	for _, a := range s.Authors {
		h.report.Printf("\tid: %s - Computing the %s most frequent n-gram of author %s:\n", s.ID, ord, a)
		rank, ok := s.Sub.KthElement(a, k)
		if !ok {
			h.report.Printf("\tNo %s n-gram\n", ord)
			continue
		}
		mantissa, exp := vector.Sci(100 * rank.Share)
		h.report.Printf("\t\t--> %s n-gram of %d word%s: %q (Frequency: %3.2f X 10^%d %%)\n",
			ord, n, plural, rank.NGrams, mantissa, exp)
	}
	return nil
}

func (h *Harness) compare(_ context.Context, s *Session) error {
	h.report.Printf("\tid: %s - Author comparison:\n", s.ID)
	c := Compare(s.Authors, func(a, b string) float64 {
		return s.Sub.DotProduct(s.Sub.Normalized(a), s.Sub.Normalized(b))
	})
	h.report.Println(c.Table())
	h.report.Printf("\tClosest authors (%4.3f): %s, %s\n", c.Closest.Score, c.Closest.A, c.Closest.B)
	h.report.Printf("\tFarthest authors (%4.3f): %s, %s\n", c.Farthest.Score, c.Farthest.A, c.Farthest.B)
	return nil
}

func (h *Harness) printParams(s *Session) {
	st := h.settings
	h.report.Println("\tVerbose mode:", s.ID)
	for _, w := range st.Unknown {
		h.report.Println("\tUnknown work:", w)
	}
	h.report.Printf("\tComputing with %d-grams\n", st.NGramSize)
	if st.Kth > 0 {
		h.report.Printf("\tThe %s most frequent n-gram will be found\n", ordinal(st.Kth))
	}
	switch {
	case st.Generate.Author != "":
		h.report.Println("\tGenerating one random text from", st.Generate.Author)
	case st.Generate.Fused:
		h.report.Println("\tGenerating one random text from several authors")
	case st.Generate.Multiple:
		h.report.Println("\tGenerating one random text per author")
	}
	if st.Tokenizer.Strip {
		h.report.Println("\tPunctuation removed")
	} else {
		h.report.Println("\tPunctuation kept")
	}
	h.report.Printf("\tMaximum execution time: %s\n", st.Timeout)
	h.report.Println("\tAuthors directory:", st.CorpusDir)
	h.report.Println("\tAuthors:")
	for _, a := range s.Authors {
		h.report.Println("\t\t" + a)
	}
	if st.Compare {
		h.report.Println("\tAuthor proximity will be computed")
	}
}
