package main

import (
	"math"
	"math/rand"
	"sort"
	"strings"
)

func VectorSize(v map[string]float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func Normalize(v map[string]float64) map[string]float64 {
	n := VectorSize(v)
	out := map[string]float64{}
	for k, x := range v {
		if n == 0 {
			out[k] = 0
		} else {
			out[k] = x / n
		}
	}
	return out
}

func AddDict(a, b map[string]float64) map[string]float64 {
	out := map[string]float64{}
	for k, x := range a {
		out[k] = x
	}
	for k, x := range b {
		out[k] = out[k] + x
	}
	return out
}

func DotProduct(a, b map[string]float64) float64 {
	sum := 0.0
	for k, x := range a {
		if y, ok := b[k]; ok {
			sum += x * y
		}
	}
	return sum
}

func grams(tokens []string, n int) []string {
	var out []string
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

func Analyze(works map[string][][]string, ngramSize int) map[string]map[string]int {
	out := map[string]map[string]int{}
	for author, texts := range works {
		counts := map[string]int{}
		for _, tokens := range texts {
			for _, g := range grams(tokens, ngramSize) {
				counts[g]++
			}
		}
		out[author] = counts
	}
	return out
}

func toFloat(c map[string]int) map[string]float64 {
	out := map[string]float64{}
	for k, n := range c {
		out[k] = float64(n)
	}
	return out
}

func FindAuthor(tokens []string, ngramSize int, authors map[string]map[string]int) map[string]float64 {
	unknown := map[string]int{}
	for _, g := range grams(tokens, ngramSize) {
		unknown[g]++
	}
	u := Normalize(toFloat(unknown))
	out := map[string]float64{}
	for name, counts := range authors {
		out[name] = DotProduct(u, Normalize(toFloat(counts)))
	}
	return out
}

func GenText(dist map[string]float64, ngramSize, size int, seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	var keys []string
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var words []string
	for len(words) < size {
		words = append(words, strings.Fields(keys[rng.Intn(len(keys))])...)
	}
	return strings.Join(words[:size], " ")
}

func KthElement(counts map[string]int, k int) [][]string {
	var keys []string
	for key := range counts {
		keys = append(keys, key)
	}
	if k < 1 || k > len(keys) {
		return nil
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	target := counts[keys[k-1]]
	var out [][]string
	for _, key := range keys {
		if counts[key] == target {
			out = append(out, strings.Split(key, " "))
		}
	}
	return out
}
