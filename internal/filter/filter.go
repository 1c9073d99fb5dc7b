// Package filter decides which log entries are visible under a FilterState.
// Every function here is pure: the same entries and filter always yield the
// same result, and the input slice is never modified.
package filter

import (
	"strings"

	"github.com/tinytelemetry/logstream/internal/model"
)

var levelRank = map[string]int{
	model.LevelError: 0,
	model.LevelWarn:  1,
	model.LevelInfo:  2,
	model.LevelDebug: 3,
	model.LevelTrace: 4,
}

// Rank maps a level name to its severity rank (error=0 ... trace=4).
// Unknown levels rank 0 so they pass every cutoff and stay visible.
func Rank(level string) int {
	if r, ok := levelRank[strings.ToLower(strings.TrimSpace(level))]; ok {
		return r
	}
	return 0
}

// Matches reports whether entry passes the level, source and search
// predicates of f.
func Matches(entry model.LogEntry, f model.FilterState) bool {
	return matchLevel(entry, f.Level) &&
		matchSource(entry, f.Source) &&
		matchSearch(entry, f.SearchQuery)
}

func matchLevel(entry model.LogEntry, level string) bool {
	if level == "" || level == model.LevelAll {
		return true
	}
	return Rank(entry.Level) <= Rank(level)
}

func matchSource(entry model.LogEntry, source string) bool {
	return source == "" || source == model.SourceAll || entry.Source == source
}

func matchSearch(entry model.LogEntry, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(entry.Message), q) ||
		strings.Contains(strings.ToLower(entry.Source), q) ||
		strings.Contains(strings.ToLower(entry.Level), q)
}

// Apply returns the visible subset of entries in their original order.
func Apply(entries []model.LogEntry, f model.FilterState) []model.LogEntry {
	visible := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		if Matches(e, f) {
			visible = append(visible, e)
		}
	}
	return visible
}

// Span is a half-open byte range [Start, End) within a string.
type Span struct {
	Start, End int
}

// MatchRanges returns the non-overlapping case-insensitive occurrences of
// query in text, left to right. Offsets index into text.
func MatchRanges(text, query string) []Span {
	if query == "" || text == "" {
		return nil
	}
	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)
	// Case folding can change byte lengths for some runes; fall back to no
	// highlighting rather than slicing text at the wrong offsets.
	if len(lowerText) != len(text) || len(lowerQuery) != len(query) {
		return nil
	}

	var spans []Span
	for from := 0; from < len(lowerText); {
		idx := strings.Index(lowerText[from:], lowerQuery)
		if idx < 0 {
			break
		}
		start := from + idx
		spans = append(spans, Span{Start: start, End: start + len(lowerQuery)})
		from = start + len(lowerQuery)
	}
	return spans
}
