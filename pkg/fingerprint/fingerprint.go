// Package fingerprint turns source text into fixed-size vectors whose
// cosine distance tracks shared vocabulary. Vectors are derived only from
// file content, so similar-file search works without any model.
package fingerprint

import (
	"math"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultDim is the vector size stored in the database by default
const DefaultDim = 256

var tokenPattern = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// Tokens returns the lower-cased identifier-like words in content.
// camelCase and snake_case words also contribute their parts.
func Tokens(content string) []string {
	var out []string
	for _, word := range tokenPattern.FindAllString(content, -1) {
		if len(word) < 2 {
			continue
		}
		lower := strings.ToLower(word)
		out = append(out, lower)

		parts := splitWord(word)
		if len(parts) > 1 {
			for _, p := range parts {
				if len(p) >= 2 {
					out = append(out, strings.ToLower(p))
				}
			}
		}
	}
	return out
}

// splitWord breaks camelCase and snake_case identifiers apart
func splitWord(word string) []string {
	var parts []string
	start := 0
	for i := 1; i < len(word); i++ {
		c := word[i]
		switch {
		case c == '_' || c == '$':
			if i > start {
				parts = append(parts, word[start:i])
			}
			start = i + 1
		case c >= 'A' && c <= 'Z' && word[i-1] >= 'a' && word[i-1] <= 'z':
			parts = append(parts, word[start:i])
			start = i
		}
	}
	if start < len(word) {
		parts = append(parts, word[start:])
	}
	return parts
}

// Vector hashes the tokens of content into dim buckets and L2-normalizes
// the result. Content without tokens yields the zero vector.
func Vector(content string, dim int) []float32 {
	if dim <= 0 {
		dim = DefaultDim
	}
	acc := make([]float64, dim)
	for _, tok := range Tokens(content) {
		h := xxhash.Sum64String(tok)
		idx := int(h % uint64(dim))
		if h>>63 == 1 {
			acc[idx]--
		} else {
			acc[idx]++
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	out := make([]float32, dim)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out
}

// IsZero reports whether every component of v is zero
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Cosine returns the cosine similarity of two equal-length vectors
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
