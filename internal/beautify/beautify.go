// Package beautify reformats generated text: sentence capitalization,
// punctuation spacing, paragraphs and bounded line length.
package beautify

import (
	"math/rand"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultLineMax        = 100
	DefaultParagraphWords = 100
	DefaultParagraphVar   = 40
)

// Options configures paragraph formatting.
type Options struct {
	// LineMax is the maximum number of characters on a line.
	LineMax int
	// ParagraphWords is the mean number of words in a paragraph.
	ParagraphWords int
	// ParagraphVar is the maximum deviation from ParagraphWords.
	ParagraphVar int
}

// DefaultOptions returns default formatting options.
func DefaultOptions() Options {
	return Options{
		LineMax:        DefaultLineMax,
		ParagraphWords: DefaultParagraphWords,
		ParagraphVar:   DefaultParagraphVar,
	}
}

type rule struct {
	re      *regexp.Regexp
	replace func(string) string
}

func swap(expr, repl string) rule {
	re := regexp.MustCompile(expr)
	return rule{re: re, replace: func(s string) string { return re.ReplaceAllString(s, repl) }}
}

func upper(expr string) rule {
	re := regexp.MustCompile(expr)
	return rule{re: re, replace: func(s string) string { return re.ReplaceAllStringFunc(s, strings.ToUpper) }}
}

// rules are applied in order, each over the whole text.
var rules = []rule{
	upper(`[.!?\-] [a-z]`),
	upper(`_[a-z]`),
	upper(`^.`),
	swap(`\n`, " "),
	swap(`  `, " "),
	swap(` \.`, "."),
	swap(` ,`, ","),
	swap(` !`, "!"),
	swap(` ' `, "'"),
	swap(` ;`, ";"),
	swap(` :`, ":"),
	swap(` - `, "-"),
	swap(`\( `, "("),
	swap(` \)`, ")"),
	swap(` m\.`, " M."),
	swap(` mme`, " Mme"),
	swap(`_ (.*?) _`, "_${1}_"),
	swap(` _ `, " "),
	swap(`__`, ""),
	swap(`--`, ""),
	swap(`\.\)`, ")."),
	swap(`\._`, "_."),
}

// Beautifier formats text. Paragraph lengths vary randomly.
type Beautifier struct {
	opts Options
	rng  *rand.Rand
}

// New creates a Beautifier. A nil rng uses a time-seeded source.
func New(opts Options, rng *rand.Rand) *Beautifier {
	if opts.LineMax == 0 {
		opts = DefaultOptions()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Beautifier{opts: opts, rng: rng}
}

// Clean applies the capitalization and punctuation rules.
func Clean(text string) string {
	for _, r := range rules {
		text = r.replace(text)
	}
	return text
}

// String cleans text and lays it out in paragraphs.
func (b *Beautifier) String(text string) string {
	return b.Paragraphs(Clean(text))
}

// File rewrites the file at path with its prettified content.
func (b *Beautifier) File(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String(string(data))), info.Mode().Perm())
}

func (b *Beautifier) threshold() float64 {
	p, v := float64(b.opts.ParagraphWords), float64(b.opts.ParagraphVar)
	return p + v - b.rng.Float64()*2*v
}

// Paragraphs ends the text with a period, breaks it into paragraphs at
// sentence ends once a random word threshold is passed, wraps lines at
// LineMax and indents every paragraph with a tab.
func (b *Beautifier) Paragraphs(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if !strings.HasSuffix(words[len(words)-1], ".") {
		words = append(words, ".")
	}

	size := 0
	limit := b.threshold()
	for i, w := range words {
		size++
		if float64(size) > limit && strings.HasSuffix(w, ".") {
			words[i] += "\n\n"
			size = 0
			limit = b.threshold()
		}
	}

	var sb strings.Builder
	sb.WriteString("\t")
	line := 0
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		if line+n+1 > b.opts.LineMax {
			sb.WriteString("\n")
			line = 0
		}
		sb.WriteString(" ")
		sb.WriteString(w)
		if strings.Contains(w, "\n\n") {
			line = 0
			sb.WriteString("\t")
		} else {
			line += n + 1
		}
	}
	return sb.String()
}
