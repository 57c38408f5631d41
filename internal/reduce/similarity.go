package reduce

import (
	"strings"
	"unicode"
)

// Threshold is the minimum similarity for two lines to be treated as the same line.
const Threshold = 0.7

// NormalizeForCompare lowercases s, drops every rune that is neither a letter,
// a number nor a plain space, and collapses runs of spaces.
func NormalizeForCompare(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r == ' ' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity is the Jaccard index of the whitespace token sets of the two
// normalized strings; 0 when both are empty.
func Similarity(a, b string) float64 {
	return jaccard(tokenSet(NormalizeForCompare(a)), tokenSet(NormalizeForCompare(b)))
}

type tokens map[string]struct{}

func tokenSet(norm string) tokens {
	fields := strings.Fields(norm)
	set := make(tokens, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b tokens) float64 {
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
