package corpus

import (
	"os"
	"strings"

	"github.com/rcliao/textan/internal/vector"
)

// DefaultPunctuation is the set of marks treated as words unless stripping
// is enabled.
const DefaultPunctuation = "!;?:.,"

// Tokenizer splits text into word tokens.
type Tokenizer struct {
	// Punctuation lists the marks removed from tokens when Strip is set.
	Punctuation string
	Strip       bool
}

// Tokenize splits text on whitespace. With Strip set, punctuation marks are
// removed from every token and tokens left empty are dropped.
func (t Tokenizer) Tokenize(text string) []string {
	fields := strings.Fields(text)
	if !t.Strip || t.Punctuation == "" {
		return fields
	}

	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Map(func(r rune) rune {
			if strings.ContainsRune(t.Punctuation, r) {
				return -1
			}
			return r
		}, f)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// TokenizeFile reads path as UTF-8 text and tokenizes it.
func (t Tokenizer) TokenizeFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return t.Tokenize(string(b)), nil
}

// Windows returns the len(tokens)-n+1 overlapping n-grams of tokens, each
// joined by a single space.
func Windows(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return nil
	}
	grams := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+n], " "))
	}
	return grams
}

// Accumulate adds the n-grams of tokens to counts.
func Accumulate(counts vector.Counts, tokens []string, n int) {
	for _, g := range Windows(tokens, n) {
		counts[g]++
	}
}

// Split breaks a canonical n-gram back into its words.
func Split(ngram string) []string {
	return strings.Split(ngram, " ")
}

// Join builds the canonical form of an n-gram.
func Join(words []string) string {
	return strings.Join(words, " ")
}
