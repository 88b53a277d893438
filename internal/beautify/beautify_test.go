package beautify

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"first letter", "le chat", "Le chat"},
		{"after period", "il dort. le chien", "Il dort. Le chien"},
		{"after question", "qui ? personne", "Qui ? Personne"},
		{"punctuation spacing", "oui , non ; peut-être : fin .", "Oui, non; peut-être: fin."},
		{"newlines", "une\nligne", "Une ligne"},
		{"apostrophe", "l ' homme", "L'homme"},
		{"dash", "vingt - deux", "Vingt-Deux"},
		{"parentheses", "x ( entre ) y", "X (entre) y"},
		{"titles", "et m. dupont et mme dupont", "Et M. Dupont et Mme dupont"},
		{"underscores", "a _ titre _ b", "A _titre_ b"},
		{"double dash", "a -- b", "A  B"},
		{"period before paren", "(fin.)", "(fin)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParagraphs_Empty(t *testing.T) {
	b := New(DefaultOptions(), rand.New(rand.NewSource(1)))
	if got := b.Paragraphs("   "); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestParagraphs_AddsFinalPeriod(t *testing.T) {
	b := New(DefaultOptions(), rand.New(rand.NewSource(1)))
	got := b.Paragraphs("un deux trois")
	if got != "\t un deux trois ." {
		t.Errorf("got %q", got)
	}
}

func TestParagraphs_LineLength(t *testing.T) {
	opts := Options{LineMax: 30, ParagraphWords: 10, ParagraphVar: 2}
	b := New(opts, rand.New(rand.NewSource(3)))

	text := strings.Repeat("mot mot mot mot fin. ", 40)
	got := b.Paragraphs(text)

	if !strings.HasPrefix(got, "\t") {
		t.Error("expected leading indent")
	}
	if !strings.Contains(got, "\n\n\t") {
		t.Error("expected at least one indented paragraph break")
	}
	for _, line := range strings.Split(got, "\n") {
		line = strings.TrimLeft(line, "\t")
		if n := utf8.RuneCountInString(line); n > opts.LineMax {
			t.Errorf("line too long (%d > %d): %q", n, opts.LineMax, line)
		}
	}
}

func TestParagraphs_BreaksOnlyAtSentenceEnd(t *testing.T) {
	opts := Options{LineMax: 1000, ParagraphWords: 3, ParagraphVar: 1}
	b := New(opts, rand.New(rand.NewSource(9)))

	got := b.Paragraphs("a b c d e f g. h i j k l m n o.")
	for _, para := range strings.Split(got, "\n\n") {
		para = strings.TrimSpace(para)
		if para != "" && !strings.HasSuffix(para, ".") {
			t.Errorf("paragraph does not end a sentence: %q", para)
		}
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.txt")
	if err := os.WriteFile(path, []byte("le chat dort . il rêve"), 0o644); err != nil {
		t.Fatal(err)
	}
	b := New(DefaultOptions(), rand.New(rand.NewSource(1)))
	if err := b.File(path); err != nil {
		t.Fatalf("File: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "\t Le chat dort. Il rêve ." {
		t.Errorf("unexpected content %q", data)
	}
}
