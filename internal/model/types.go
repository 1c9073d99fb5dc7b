package model

import (
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for LogEntry.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Level names, most to least severe.
const (
	LevelError   = "error"
	LevelWarn    = "warn"
	LevelInfo    = "info"
	LevelDebug   = "debug"
	LevelTrace   = "trace"
	LevelUnknown = "unknown"

	// LevelAll disables the level predicate of a filter.
	LevelAll = "all"
	// SourceAll disables the source predicate of a filter.
	SourceAll = "all"
)

// Levels lists the known levels in severity order.
var Levels = []string{LevelError, LevelWarn, LevelInfo, LevelDebug, LevelTrace}

// LogEntry is one emitted log line. Entries are immutable once stored.
type LogEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Source    string `json:"source"`
	Message   string `json:"message"`
}

// FormatTimestamp renders t in the layout used on the wire.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// LevelKey returns the stats bucket for a level string. Unrecognized
// levels share the "unknown" bucket.
func LevelKey(level string) string {
	l := strings.ToLower(strings.TrimSpace(level))
	for _, known := range Levels {
		if l == known {
			return known
		}
	}
	return LevelUnknown
}

// FilterState selects the visible subset of the entry store.
type FilterState struct {
	Level       string `json:"level" yaml:"level"`
	Source      string `json:"source" yaml:"source"`
	SearchQuery string `json:"searchQuery" yaml:"searchQuery"`
}

// DefaultFilter shows everything.
func DefaultFilter() FilterState {
	return FilterState{Level: LevelAll, Source: SourceAll}
}

// Stats holds per-level counts. Total always equals the sum of ByLevel.
type Stats struct {
	Total   int64            `json:"total"`
	ByLevel map[string]int64 `json:"byLevel"`
}

// ConnectionState is the transport state surfaced to the UI.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connected:
		return "Connected"
	case Connecting:
		return "Connecting"
	default:
		return "Disconnected"
	}
}
