package harness

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Pair is a similarity between two authors, stored in sorted order.
type Pair struct {
	A, B  string
	Score float64
}

// Comparison is the author-by-author similarity matrix.
type Comparison struct {
	Authors []string
	// Scores[i][j] is the similarity of Authors[i] and Authors[j].
	Scores   [][]float64
	Closest  Pair
	Farthest Pair
}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Compare scores every pair of authors with sim, computing each unordered
// pair once. Closest is the highest score between distinct authors,
// starting from 0; Farthest the lowest over all pairs including an author
// with itself, starting from 1.
func Compare(authors []string, sim func(a, b string) float64) Comparison {
	c := Comparison{
		Authors:  authors,
		Scores:   make([][]float64, len(authors)),
		Closest:  Pair{Score: 0},
		Farthest: Pair{Score: 1},
	}
	memo := make(map[[2]string]float64)

	for i, a := range authors {
		c.Scores[i] = make([]float64, len(authors))
		for j, b := range authors {
			key := pairKey(a, b)
			score, ok := memo[key]
			if !ok {
				score = sim(a, b)
				memo[key] = score
				if score < c.Farthest.Score {
					c.Farthest = Pair{A: key[0], B: key[1], Score: score}
				}
				if score > c.Closest.Score && a != b {
					c.Closest = Pair{A: key[0], B: key[1], Score: score}
				}
			}
			c.Scores[i][j] = score
		}
	}
	return c
}

// Table renders the matrix with a header row of author names, each line
// indented by a tab.
func (c Comparison) Table() string {
	headers := append([]string{""}, c.Authors...)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderRow(true).
		Headers(headers...)
	for i, a := range c.Authors {
		row := make([]string, 0, len(c.Authors)+1)
		row = append(row, a)
		for _, s := range c.Scores[i] {
			row = append(row, fmt.Sprintf("%.4f", s))
		}
		t.Row(row...)
	}
	return "\t" + strings.Join(strings.Split(t.String(), "\n"), "\n\t")
}
