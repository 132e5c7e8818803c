package relay

import "unicode/utf8"

const truncationMarker = "..."

// Truncate clips s to at most limit runes, appending a marker when clipped.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + truncationMarker
}
