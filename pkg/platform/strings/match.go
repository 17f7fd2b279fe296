// Package strings provides term matching helpers for vocabulary-driven checks.
package strings

import (
	"strings"
)

// NormalizeTerms lowercases and trims each term, dropping empties and
// duplicates. Order is preserved.
//
// Example:
//
//	NormalizeTerms([]string{"  BMI ", "bmi", "", "Glucose"})
//	// Returns: []string{"bmi", "glucose"}
func NormalizeTerms(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		term := strings.ToLower(strings.TrimSpace(v))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; !ok {
			seen[term] = struct{}{}
			result = append(result, term)
		}
	}

	return result
}

// Matches returns the terms that occur in haystack, in term order.
// haystack is expected to be lowercased already.
func Matches(haystack string, terms []string) []string {
	var found []string
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			found = append(found, term)
		}
	}
	return found
}

// ContainsAny reports whether any term occurs in haystack.
func ContainsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// FirstMatch returns the first term found in haystack and true, or "" and false.
func FirstMatch(haystack string, terms []string) (string, bool) {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return term, true
		}
	}
	return "", false
}
