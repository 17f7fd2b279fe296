package engine

import "strings"

// NormalizeURL trims raw and prefixes https:// when no http(s) scheme is present.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + strings.TrimPrefix(raw, "//")
}
