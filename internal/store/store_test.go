package store

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/tinytelemetry/logstream/internal/model"
)

func entry(id int) model.LogEntry {
	return model.LogEntry{
		ID:      fmt.Sprintf("%d", id),
		Level:   model.LevelInfo,
		Source:  "test",
		Message: fmt.Sprintf("message %d", id),
	}
}

func ids(entries []model.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestStore_CapacityInvariant(t *testing.T) {
	t.Parallel()

	s := New(10)
	next := 0
	for round := 0; round < 50; round++ {
		if round%3 == 0 {
			batch := make([]model.LogEntry, 0, 7)
			for i := 0; i < 7; i++ {
				next++
				batch = append(batch, entry(next))
			}
			s.AppendBatch(batch)
		} else {
			next++
			s.Append(entry(next))
		}
		if s.Len() > s.Cap() {
			t.Fatalf("round %d: len = %d exceeds cap %d", round, s.Len(), s.Cap())
		}
	}
}

func TestStore_FIFOEviction(t *testing.T) {
	t.Parallel()

	s := New(3)
	s.AppendBatch([]model.LogEntry{entry(1), entry(2), entry(3)})

	evicted := s.Append(entry(4))

	if got := ids(evicted); !reflect.DeepEqual(got, []string{"1"}) {
		t.Fatalf("evicted = %v, want [1]", got)
	}
	if got := ids(s.Snapshot()); !reflect.DeepEqual(got, []string{"2", "3", "4"}) {
		t.Fatalf("snapshot = %v, want [2 3 4]", got)
	}
	if s.Has("1") {
		t.Fatal("evicted id still reported present")
	}
	if !s.Has("4") {
		t.Fatal("appended id not reported present")
	}
}

// Not parallel: AllocsPerRun counts allocations process-wide.
func TestStore_SteadyStateAppend(t *testing.T) {
	const capacity = 100
	s := New(capacity)
	entries := make([]model.LogEntry, 20*capacity)
	for i := range entries {
		entries[i] = entry(i)
	}
	for i, e := range entries {
		evicted := s.Append(e)
		if i < capacity {
			if len(evicted) != 0 {
				t.Fatalf("append %d evicted %v before the store was full", i, ids(evicted))
			}
			continue
		}
		if len(evicted) != 1 || evicted[0].ID != entries[i-capacity].ID {
			t.Fatalf("append %d evicted %v, want [%s]", i, ids(evicted), entries[i-capacity].ID)
		}
	}
	if got, want := ids(s.Snapshot()), ids(entries[len(entries)-capacity:]); !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
	if got := cap(s.entries); got > 4*capacity {
		t.Fatalf("backing array grew to %d for capacity %d", got, capacity)
	}

	// Past warm-up an append costs the evicted slice plus amortized
	// compaction, not a copy of the whole store.
	next := 0
	allocs := testing.AllocsPerRun(1000, func() {
		s.Append(entries[next%len(entries)])
		next++
	})
	if allocs >= 1.5 {
		t.Fatalf("steady-state Append averaged %.2f allocations, want about 1", allocs)
	}
}

func TestStore_BatchLargerThanCapacity(t *testing.T) {
	t.Parallel()

	s := New(2)
	s.Append(entry(1))
	evicted := s.AppendBatch([]model.LogEntry{entry(2), entry(3), entry(4)})

	if got := ids(evicted); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("evicted = %v, want [1 2]", got)
	}
	if got := ids(s.Snapshot()); !reflect.DeepEqual(got, []string{"3", "4"}) {
		t.Fatalf("snapshot = %v, want [3 4]", got)
	}
}

func TestStore_ClearAndSnapshotIsolation(t *testing.T) {
	t.Parallel()

	s := New(5)
	s.AppendBatch([]model.LogEntry{entry(1), entry(2)})
	snap := s.Snapshot()

	s.Clear()

	if s.Len() != 0 {
		t.Fatalf("len after clear = %d, want 0", s.Len())
	}
	if s.Has("1") {
		t.Fatal("id present after clear")
	}
	if len(snap) != 2 || snap[0].ID != "1" {
		t.Fatalf("snapshot mutated by clear: %v", ids(snap))
	}
}

func TestStore_Tail(t *testing.T) {
	t.Parallel()

	s := New(10)
	for i := 1; i <= 6; i++ {
		s.Append(entry(i))
	}

	tests := []struct {
		n    int
		want []string
	}{
		{2, []string{"5", "6"}},
		{0, []string{"1", "2", "3", "4", "5", "6"}},
		{100, []string{"1", "2", "3", "4", "5", "6"}},
	}
	for _, tt := range tests {
		if got := ids(s.Tail(tt.n)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tail(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestNew_DefaultCapacity(t *testing.T) {
	t.Parallel()

	if got := New(0).Cap(); got != model.DefaultMaxDisplayEntries {
		t.Fatalf("cap = %d, want %d", got, model.DefaultMaxDisplayEntries)
	}
}
