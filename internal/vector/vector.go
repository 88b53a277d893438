// Package vector provides sparse n-gram vectors and the arithmetic used to
// compare authors.
package vector

import (
	"math"
	"sort"
)

// Counts maps an n-gram to its number of occurrences.
type Counts map[string]int

// Vector maps an n-gram to a weight.
type Vector map[string]float64

// Total returns the sum of all occurrences.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Keys returns the n-grams of c in lexical order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FromCounts converts occurrence counts to float weights.
func FromCounts(c Counts) Vector {
	v := make(Vector, len(c))
	for k, n := range c {
		v[k] = float64(n)
	}
	return v
}

// Keys returns the n-grams of v in lexical order.
func (v Vector) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Norm returns the Euclidean norm of v.
func Norm(v Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize returns a copy of v scaled to unit length. A zero vector maps
// every key to 0.
func Normalize(v Vector) Vector {
	norm := Norm(v)
	out := make(Vector, len(v))
	for k, x := range v {
		if norm == 0 {
			out[k] = 0
			continue
		}
		out[k] = x / norm
	}
	return out
}

// Add returns the key-wise sum of a and b. Keys missing from either side
// count as 0.
func Add(a, b Vector) Vector {
	out := make(Vector, len(a)+len(b))
	for k, x := range a {
		out[k] = x
	}
	for k, x := range b {
		out[k] += x
	}
	return out
}

// Dot returns the sum of products over the keys present in both vectors.
func Dot(a, b Vector) float64 {
	// iterate the smaller map
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for k, x := range a {
		if y, ok := b[k]; ok {
			dot += x * y
		}
	}
	return dot
}

// Cosine computes the cosine similarity of a and b.
func Cosine(a, b Vector) float64 {
	normA, normB := Norm(a), Norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return Dot(a, b) / (normA * normB)
}

// Sci splits x into a base-10 mantissa and exponent so that
// x == mantissa * 10^exp with 1 <= |mantissa| < 10.
func Sci(x float64) (float64, int) {
	if x == 0 {
		return 0, 0
	}
	sign := 1.0
	if x < 0 {
		sign = -1
		x = -x
	}
	exp := int(math.Floor(math.Log10(x)))
	mantissa := x / math.Pow(10, float64(exp))
	// Log10 rounding can leave the mantissa at 10 or just under 1
	if mantissa >= 10 {
		mantissa /= 10
		exp++
	} else if mantissa < 1 {
		mantissa *= 10
		exp--
	}
	return sign * mantissa, exp
}
