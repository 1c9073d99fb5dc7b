package store

import "github.com/tinytelemetry/logstream/internal/model"

// Store is a bounded, arrival-ordered collection of log entries.
// When an append pushes it over capacity the oldest entries are evicted
// first. Arrival order is display order; timestamps are never consulted.
//
// Store is not safe for concurrent use. The dashboard owns one from a
// single event loop; the server wraps its copy in the hub lock.
type Store struct {
	entries  []model.LogEntry
	ids      map[string]struct{}
	capacity int
}

// New creates an empty store holding at most capacity entries.
// A non-positive capacity falls back to model.DefaultMaxDisplayEntries.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = model.DefaultMaxDisplayEntries
	}
	return &Store{
		entries:  make([]model.LogEntry, 0, capacity),
		ids:      make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

// Append adds one entry at the tail and trims. It does not check for
// duplicates; callers dedup by id before appending.
// The returned slice holds the entries evicted to restore the cap.
func (s *Store) Append(entry model.LogEntry) []model.LogEntry {
	s.entries = append(s.entries, entry)
	s.ids[entry.ID] = struct{}{}
	return s.Trim()
}

// AppendBatch adds entries at the tail preserving their order, then trims.
func (s *Store) AppendBatch(entries []model.LogEntry) []model.LogEntry {
	if len(entries) == 0 {
		return nil
	}
	s.entries = append(s.entries, entries...)
	for _, e := range entries {
		s.ids[e.ID] = struct{}{}
	}
	return s.Trim()
}

// Trim drops entries from the head until the store is within capacity.
// Survivors stay where they are: the head is resliced past the evicted
// prefix, and append moves them to a fresh array only when the tail runs
// out, so copying is amortized over roughly capacity appends.
func (s *Store) Trim() []model.LogEntry {
	over := len(s.entries) - s.capacity
	if over <= 0 {
		return nil
	}
	evicted := make([]model.LogEntry, over)
	copy(evicted, s.entries[:over])
	for _, e := range evicted {
		delete(s.ids, e.ID)
	}
	clear(s.entries[:over]) // release evicted strings to the GC
	s.entries = s.entries[over:]
	s.restoreIDs()
	return evicted
}

// restoreIDs re-adds ids of surviving entries that shared an id with an
// evicted one. Duplicate ids only occur if a caller skipped dedup.
func (s *Store) restoreIDs() {
	if len(s.ids) == len(s.entries) {
		return
	}
	for _, e := range s.entries {
		s.ids[e.ID] = struct{}{}
	}
}

// Clear empties the store unconditionally.
func (s *Store) Clear() {
	s.entries = make([]model.LogEntry, 0, s.capacity)
	s.ids = make(map[string]struct{}, s.capacity)
}

// Has reports whether an entry with id is present.
func (s *Store) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of stored entries.
func (s *Store) Len() int { return len(s.entries) }

// Cap returns the configured maximum entry count.
func (s *Store) Cap() int { return s.capacity }

// Snapshot returns a copy of the entries in arrival order. Renderers read
// snapshots so a concurrent Clear cannot pull entries out from under them.
func (s *Store) Snapshot() []model.LogEntry {
	out := make([]model.LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Tail returns a copy of the newest n entries in arrival order.
func (s *Store) Tail(n int) []model.LogEntry {
	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]model.LogEntry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out
}
