// Package strings normalizes the free-text tag slices that arrive from
// collaborators: evidence type lists, synonyms, source labels. Hand-edited
// inputs carry padding, casing drift, and duplicates.
package strings

import (
	"strings"
)

// Dedupe removes duplicates and empty strings from a slice, trimming
// whitespace from each element. First occurrence wins; order is preserved.
func Dedupe(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimLower is Dedupe with case folding, for tag vocabularies that
// are matched case-insensitively.
func DedupeAndTrimLower(values []string) []string {
	return dedupe(values, func(v string) string {
		return strings.ToLower(strings.TrimSpace(v))
	})
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}
