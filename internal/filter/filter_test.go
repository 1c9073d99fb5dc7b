package filter

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/tinytelemetry/logstream/internal/model"
)

func mixedEntries() []model.LogEntry {
	levels := []string{"error", "warn", "info", "debug", "trace", "info", "warn", "error", "debug", "info"}
	sources := []string{"harness", "agent", "git"}
	entries := make([]model.LogEntry, len(levels))
	for i, lvl := range levels {
		entries[i] = model.LogEntry{
			ID:      fmt.Sprintf("%d", i+1),
			Level:   lvl,
			Source:  sources[i%len(sources)],
			Message: fmt.Sprintf("event %d", i+1),
		}
	}
	entries[3].Message = "Connected to Redis at 127.0.0.1:6379"
	entries[6].Message = "redis pool exhausted"
	return entries
}

func ids(entries []model.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestRank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  int
	}{
		{"error", 0}, {"warn", 1}, {"info", 2}, {"debug", 3}, {"trace", 4},
		{"WARN", 1}, {" Info ", 2},
		{"fatal", 0}, {"", 0}, {"bogus", 0},
	}
	for _, tt := range tests {
		if got := Rank(tt.level); got != tt.want {
			t.Errorf("Rank(%q) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestApply_EmptyFilterReturnsAllInOrder(t *testing.T) {
	t.Parallel()

	entries := mixedEntries()
	got := Apply(entries, model.FilterState{Level: model.LevelAll, Source: model.SourceAll})

	if !reflect.DeepEqual(ids(got), ids(entries)) {
		t.Fatalf("Apply = %v, want %v", ids(got), ids(entries))
	}
}

func TestApply_IsPure(t *testing.T) {
	t.Parallel()

	entries := mixedEntries()
	before := append([]model.LogEntry(nil), entries...)
	f := model.FilterState{Level: model.LevelWarn, Source: "agent", SearchQuery: "redis"}

	first := Apply(entries, f)
	second := Apply(entries, f)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Apply not deterministic: %v vs %v", ids(first), ids(second))
	}
	if !reflect.DeepEqual(entries, before) {
		t.Fatal("Apply mutated its input")
	}
}

func TestApply_LevelCutoffMonotonic(t *testing.T) {
	t.Parallel()

	entries := mixedEntries()
	entries = append(entries, model.LogEntry{ID: "odd", Level: "notice", Message: "custom level"})

	prev := map[string]bool{}
	for _, lvl := range model.Levels {
		visible := Apply(entries, model.FilterState{Level: lvl, Source: model.SourceAll})
		cur := map[string]bool{}
		for _, e := range visible {
			cur[e.ID] = true
			if Rank(e.Level) > Rank(lvl) {
				t.Errorf("level=%s: entry %s (%s) should be hidden", lvl, e.ID, e.Level)
			}
		}
		for id := range prev {
			if !cur[id] {
				t.Errorf("level=%s dropped %s visible at a stricter cutoff", lvl, id)
			}
		}
		if !cur["odd"] {
			t.Errorf("level=%s hid an unknown-level entry", lvl)
		}
		prev = cur
	}
}

func TestApply_WarnShowsErrorAndWarn(t *testing.T) {
	t.Parallel()

	got := Apply(mixedEntries(), model.FilterState{Level: model.LevelWarn, Source: model.SourceAll})
	want := []string{"1", "2", "7", "8"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("level=warn -> %v, want %v", ids(got), want)
	}
}

func TestApply_SourceExactMatch(t *testing.T) {
	t.Parallel()

	got := Apply(mixedEntries(), model.FilterState{Level: model.LevelAll, Source: "git"})
	want := []string{"3", "6", "9"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("source=git -> %v, want %v", ids(got), want)
	}

	if got := Apply(mixedEntries(), model.FilterState{Source: "gi"}); len(got) != 0 {
		t.Fatalf("source prefix matched %v, want none", ids(got))
	}
}

func TestApply_Search(t *testing.T) {
	t.Parallel()

	entries := mixedEntries()
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"message case-insensitive", "Redis", []string{"4", "7"}},
		{"matches source", "HARNESS", []string{"1", "4", "7", "10"}},
		{"matches level", "trace", []string{"5"}},
		{"no match", "xyznonexistent123", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(entries, model.FilterState{Level: model.LevelAll, Source: model.SourceAll, SearchQuery: tt.query})
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Fatalf("search %q -> %v, want %v", tt.query, ids(got), tt.want)
			}
		})
	}

	cleared := Apply(entries, model.FilterState{Level: model.LevelAll, Source: model.SourceAll})
	if len(cleared) != len(entries) {
		t.Fatalf("clearing search returned %d entries, want %d", len(cleared), len(entries))
	}
}

func TestMatchRanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text, query string
		want        []Span
	}{
		{"Redis down, redis up", "redis", []Span{{0, 5}, {12, 17}}},
		{"aaaa", "aa", []Span{{0, 2}, {2, 4}}},
		{"nothing here", "xyz", nil},
		{"anything", "", nil},
	}
	for _, tt := range tests {
		if got := MatchRanges(tt.text, tt.query); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("MatchRanges(%q, %q) = %v, want %v", tt.text, tt.query, got, tt.want)
		}
	}
}
