package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/tinytelemetry/logstream/internal/filter"
	"github.com/tinytelemetry/logstream/internal/model"
)

const (
	timeColumn  = "15:04:05.000"
	levelColumn = 5
	minMessage  = 10
)

type renderedRow struct {
	entry model.LogEntry
	line  string
}

// logList is the rendered entry list. It mirrors the widget's visible
// entries: rebuilt on a full render, grown by one row on append, and
// trimmed by the ids the store evicted.
type logList struct {
	rows  []renderedRow
	width int
	query string
}

func (l *logList) Len() int { return len(l.rows) }

// rebuild replaces every row.
func (l *logList) rebuild(entries []model.LogEntry) {
	l.rows = make([]renderedRow, 0, len(entries))
	for _, e := range entries {
		l.rows = append(l.rows, renderedRow{entry: e, line: formatRow(e, l.width, l.query)})
	}
}

// append renders one entry at the bottom.
func (l *logList) append(e model.LogEntry) {
	l.rows = append(l.rows, renderedRow{entry: e, line: formatRow(e, l.width, l.query)})
}

// evict drops rows whose ids left the store and reports how many went.
func (l *logList) evict(ids []string) int {
	if len(ids) == 0 || len(l.rows) == 0 {
		return 0
	}
	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	kept := l.rows[:0]
	for _, r := range l.rows {
		if _, ok := gone[r.entry.ID]; !ok {
			kept = append(kept, r)
		}
	}
	removed := len(l.rows) - len(kept)
	clear(l.rows[len(kept):])
	l.rows = kept
	return removed
}

// restyle re-renders every row after a width or highlight change.
func (l *logList) restyle(width int, query string) {
	if width == l.width && query == l.query {
		return
	}
	l.width, l.query = width, query
	for i := range l.rows {
		l.rows[i].line = formatRow(l.rows[i].entry, width, query)
	}
}

func (l *logList) content() string {
	lines := make([]string, len(l.rows))
	for i, r := range l.rows {
		lines[i] = r.line
	}
	return strings.Join(lines, "\n")
}

func (l *logList) ids() []string {
	out := make([]string, len(l.rows))
	for i, r := range l.rows {
		out[i] = r.entry.ID
	}
	return out
}

// formatRow renders "time LEVEL [source] message", truncating the message
// to width and highlighting search matches in it.
func formatRow(e model.LogEntry, width int, query string) string {
	ts := displayTime(e.Timestamp)
	level := strings.ToUpper(e.Level)
	if len(level) > levelColumn {
		level = level[:levelColumn]
	}
	source := "[" + e.Source + "]"

	prefixWidth := len(ts) + 1 + levelColumn + 1 + len([]rune(source)) + 1
	msg := e.Message
	if width > 0 {
		msg = truncate(msg, max(width-prefixWidth, minMessage))
	}

	return fmt.Sprintf("%s %s %s %s",
		timeStyle.Render(ts),
		levelStyle(e.Level).Render(fmt.Sprintf("%-*s", levelColumn, level)),
		sourceStyle.Render(source),
		highlight(msg, query),
	)
}

func displayTime(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		if len(ts) > len(timeColumn) {
			return ts[:len(timeColumn)]
		}
		return fmt.Sprintf("%-*s", len(timeColumn), ts)
	}
	return t.Local().Format(timeColumn)
}

func highlight(text, query string) string {
	spans := filter.MatchRanges(text, query)
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.Start])
		b.WriteString(highlightStyle.Render(text[s.Start:s.End]))
		last = s.End
	}
	b.WriteString(text[last:])
	return b.String()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}
