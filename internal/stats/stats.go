package stats

import (
	"sync"
	"time"

	"github.com/tinytelemetry/logstream/internal/model"
)

func newStats() model.Stats {
	return model.Stats{ByLevel: make(map[string]int64, len(model.Levels)+1)}
}

// Compute derives per-level counts over the full entry set, ignoring any
// filter.
func Compute(entries []model.LogEntry) model.Stats {
	s := newStats()
	for _, e := range entries {
		s.ByLevel[model.LevelKey(e.Level)]++
		s.Total++
	}
	return s
}

// Clone deep-copies s.
func Clone(s model.Stats) model.Stats {
	out := model.Stats{Total: s.Total, ByLevel: make(map[string]int64, len(s.ByLevel))}
	for k, v := range s.ByLevel {
		out.ByLevel[k] = v
	}
	return out
}

// Normalize rebuilds Total from ByLevel so a snapshot from an external
// source always satisfies sum(ByLevel) == Total.
func Normalize(s model.Stats) model.Stats {
	out := Clone(s)
	out.Total = 0
	for _, v := range out.ByLevel {
		out.Total += v
	}
	return out
}

// Aggregator tracks the client's view of log statistics.
//
// Local stats always describe the entry store. When the server has supplied
// an authoritative snapshot, Current reports that snapshot advanced by the
// live arrivals seen since, so entries evicted locally by the store cap
// remain counted.
type Aggregator struct {
	local     model.Stats
	server    *model.Stats
	fetchedAt time.Time
}

// NewAggregator returns an aggregator with empty stats.
func NewAggregator() *Aggregator {
	return &Aggregator{local: newStats()}
}

// Recompute replaces local stats with counts over entries.
func (a *Aggregator) Recompute(entries []model.LogEntry) {
	a.local = Compute(entries)
}

// Track moves local stats along with one store append: added is counted and
// every evicted entry is taken back out. Buckets that reach zero are
// removed, so the result equals Compute over the store.
func (a *Aggregator) Track(added model.LogEntry, evicted []model.LogEntry) {
	a.local.ByLevel[model.LevelKey(added.Level)]++
	a.local.Total++
	for _, e := range evicted {
		k := model.LevelKey(e.Level)
		if a.local.ByLevel[k]--; a.local.ByLevel[k] <= 0 {
			delete(a.local.ByLevel, k)
		}
		a.local.Total--
	}
}

// Observe records live arrivals against the authoritative snapshot.
// Local stats are recomputed separately from the store.
func (a *Aggregator) Observe(entries ...model.LogEntry) {
	if a.server == nil {
		return
	}
	for _, e := range entries {
		a.server.ByLevel[model.LevelKey(e.Level)]++
		a.server.Total++
	}
}

// ApplySnapshot installs an authoritative server snapshot.
func (a *Aggregator) ApplySnapshot(s model.Stats, at time.Time) {
	snap := Normalize(s)
	a.server = &snap
	a.fetchedAt = at
}

// Reset drops local and server stats, as after a clear.
func (a *Aggregator) Reset() {
	a.local = newStats()
	a.server = nil
	a.fetchedAt = time.Time{}
}

// Current returns the best available stats.
func (a *Aggregator) Current() model.Stats {
	if a.server != nil {
		return Clone(*a.server)
	}
	return Clone(a.local)
}

// Authoritative reports whether Current is backed by a server snapshot and
// when that snapshot was fetched.
func (a *Aggregator) Authoritative() (bool, time.Time) {
	return a.server != nil, a.fetchedAt
}

// Counter is the server's running tally of every entry published since the
// last clear. It is safe for concurrent use.
type Counter struct {
	mu sync.Mutex
	s  model.Stats
}

// NewCounter returns a zeroed counter.
func NewCounter() *Counter {
	return &Counter{s: newStats()}
}

// Add counts one entry.
func (c *Counter) Add(e model.LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.ByLevel[model.LevelKey(e.Level)]++
	c.s.Total++
}

// Reset zeroes the counter.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = newStats()
}

// Snapshot returns a copy of the current tally.
func (c *Counter) Snapshot() model.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Clone(c.s)
}
