package constants

import (
	"strings"
)

// Variant identifies one OCR pass over a document.
type Variant string

const (
	VariantOriginal     Variant = "original"
	VariantHighContrast Variant = "high_contrast"
	VariantRotated      Variant = "rotated"
)

var allVariants = []Variant{
	VariantOriginal,
	VariantHighContrast,
	VariantRotated,
}

// DefaultVariants returns the standard variant set in processing order.
func DefaultVariants() []Variant {
	out := make([]Variant, len(allVariants))
	copy(out, allVariants)
	return out
}

// IsValidVariant reports whether s names a known variant.
func IsValidVariant(s string) bool {
	for _, v := range allVariants {
		if string(v) == s {
			return true
		}
	}
	return false
}

// ParseVariants turns a comma separated list into variants, skipping blanks.
func ParseVariants(s string) []Variant {
	var out []Variant
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		out = append(out, Variant(part))
	}
	return out
}

// VariantStrings renders variants as plain strings.
func VariantStrings(vs []Variant) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}
