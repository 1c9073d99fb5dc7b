// Package widget holds the state of one log-streaming dashboard instance.
//
// A Widget is driven from a single event loop: socket events, REST
// results, timer ticks and user input are applied one at a time through
// its methods, and each call runs to completion before the next. Nothing
// here locks; callers must not share a Widget across goroutines.
package widget

import (
	"log"
	"sort"
	"time"

	"github.com/tinytelemetry/logstream/internal/filter"
	"github.com/tinytelemetry/logstream/internal/model"
	"github.com/tinytelemetry/logstream/internal/stats"
	"github.com/tinytelemetry/logstream/internal/store"
)

// OpKind tells the renderer how to bring the view up to date.
type OpKind int

const (
	// OpNone leaves the entry list untouched (chrome may still redraw).
	OpNone OpKind = iota
	// OpFull rebuilds the visible list from the store and filter.
	OpFull
	// OpAppend adds Entry at the bottom of the visible list.
	OpAppend
)

// RenderOp is the result of applying one event.
// Evicted lists ids dropped from the head of the store by the same event;
// the renderer drops them from its own list so both honor one cap.
type RenderOp struct {
	Kind    OpKind
	Entry   model.LogEntry
	Evicted []string
}

// Widget owns the entry store, filter state, stats and connection state of
// one dashboard instance.
type Widget struct {
	store   *store.Store
	filter  model.FilterState
	stats   *stats.Aggregator
	paused  bool
	conn    model.ConnectionState
	sources map[string]struct{}

	epoch    uint64 // epoch of the current connection
	connects int    // connect events seen; >1 means reconnect epochs
	dropped  int    // live entries discarded while paused
	clears   uint64 // bumped by every clear; stamps in-flight requests

	destroyed bool
}

// New creates an empty widget holding at most maxEntries entries.
func New(maxEntries int) *Widget {
	return &Widget{
		store:   store.New(maxEntries),
		filter:  model.DefaultFilter(),
		stats:   stats.NewAggregator(),
		sources: make(map[string]struct{}),
	}
}

// Handle applies one transport event.
func (w *Widget) Handle(ev model.StreamEvent) RenderOp {
	if w.destroyed {
		return RenderOp{}
	}
	switch ev.Kind {
	case model.EventConnect:
		w.conn = model.Connected
		w.epoch = ev.Epoch
		w.connects++
		return RenderOp{}
	case model.EventReconnecting:
		w.conn = model.Connecting
		return RenderOp{}
	case model.EventDisconnect:
		w.conn = model.Disconnected
		if ev.Err != nil {
			log.Printf("widget: stream disconnected (epoch %d): %v", ev.Epoch, ev.Err)
		}
		return RenderOp{}
	case model.EventLogBackfill:
		if ev.Epoch < w.epoch {
			return RenderOp{}
		}
		batch := ev.Entries
		if w.connects > 1 {
			batch = resumeAfterKnown(batch, w.store)
		}
		return w.mergeBackfill(batch)
	case model.EventLogEntry:
		return w.appendLive(ev.Entry)
	case model.EventLogCleared:
		return w.Clear()
	default:
		log.Printf("widget: ignoring unknown event %q", ev.Kind)
		return RenderOp{}
	}
}

// ApplyBackfill merges an HTTP backfill batch and the server's known
// sources. Entries already present, including live entries that beat the
// response, are kept as they are. gen is the ClearGeneration the request
// was issued under; a response that straddles a clear is discarded.
func (w *Widget) ApplyBackfill(gen uint64, entries []model.LogEntry, sources []string) RenderOp {
	if w.destroyed {
		return RenderOp{}
	}
	if gen != w.clears {
		log.Printf("widget: discarding backfill issued before clear (generation %d, now %d)", gen, w.clears)
		return RenderOp{}
	}
	for _, s := range sources {
		w.addSource(s)
	}
	return w.mergeBackfill(entries)
}

func (w *Widget) mergeBackfill(batch []model.LogEntry) RenderOp {
	fresh := make([]model.LogEntry, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))
	for _, e := range batch {
		if w.store.Has(e.ID) {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		fresh = append(fresh, e)
		w.addSource(e.Source)
	}
	evicted := w.store.AppendBatch(fresh)
	w.stats.Recompute(w.store.Snapshot())
	return RenderOp{Kind: OpFull, Evicted: entryIDs(evicted)}
}

// resumeAfterKnown cuts a reconnect backfill after the newest entry the
// client already holds. Everything up to that point was delivered in an
// earlier epoch, even if the store has since evicted it.
func resumeAfterKnown(batch []model.LogEntry, s *store.Store) []model.LogEntry {
	for i := len(batch) - 1; i >= 0; i-- {
		if s.Has(batch[i].ID) {
			return batch[i+1:]
		}
	}
	return batch
}

func (w *Widget) appendLive(e model.LogEntry) RenderOp {
	if w.paused {
		w.dropped++
		return RenderOp{}
	}
	if w.store.Has(e.ID) {
		return RenderOp{}
	}
	w.addSource(e.Source)
	evicted := w.store.Append(e)
	w.stats.Track(e, evicted)
	w.stats.Observe(e)

	op := RenderOp{Evicted: entryIDs(evicted)}
	if filter.Matches(e, w.filter) {
		op.Kind = OpAppend
		op.Entry = e
	}
	return op
}

// Clear empties the store and resets stats.
func (w *Widget) Clear() RenderOp {
	if w.destroyed {
		return RenderOp{}
	}
	w.store.Clear()
	w.stats.Reset()
	w.clears++
	return RenderOp{Kind: OpFull}
}

// ClearGeneration counts the clears applied so far. Requests capture it when
// issued and hand it back with their response.
func (w *Widget) ClearGeneration() uint64 { return w.clears }

// SetFilter replaces the filter state. The store is never touched.
func (w *Widget) SetFilter(f model.FilterState) RenderOp {
	if f.Level == "" {
		f.Level = model.LevelAll
	}
	if f.Source == "" {
		f.Source = model.SourceAll
	}
	w.filter = f
	if w.destroyed {
		return RenderOp{}
	}
	return RenderOp{Kind: OpFull}
}

// Filter returns the active filter state.
func (w *Widget) Filter() model.FilterState { return w.filter }

// SetPaused toggles live-entry suppression. Entries dropped while paused
// are not replayed on resume.
func (w *Widget) SetPaused(paused bool) { w.paused = paused }

// Paused reports whether live entries are being dropped.
func (w *Widget) Paused() bool { return w.paused }

// Dropped returns the number of live entries discarded while paused.
func (w *Widget) Dropped() int { return w.dropped }

// ApplyStats installs an authoritative stats snapshot from the server.
// Snapshots taken before the latest clear are dropped.
func (w *Widget) ApplyStats(gen uint64, s model.Stats, at time.Time) {
	if w.destroyed || gen != w.clears {
		return
	}
	w.stats.ApplySnapshot(s, at)
}

// Stats returns the stats to display.
func (w *Widget) Stats() model.Stats { return w.stats.Current() }

// StatsAuthoritative reports whether Stats comes from a server snapshot.
func (w *Widget) StatsAuthoritative() bool {
	ok, _ := w.stats.Authoritative()
	return ok
}

// Visible returns the filtered entries in display order.
func (w *Widget) Visible() []model.LogEntry {
	return filter.Apply(w.store.Snapshot(), w.filter)
}

// Snapshot returns every stored entry in arrival order.
func (w *Widget) Snapshot() []model.LogEntry { return w.store.Snapshot() }

// Len returns the number of stored entries.
func (w *Widget) Len() int { return w.store.Len() }

// Cap returns the entry cap.
func (w *Widget) Cap() int { return w.store.Cap() }

// Connection returns the transport state.
func (w *Widget) Connection() model.ConnectionState { return w.conn }

// Sources returns the known sources, sorted.
func (w *Widget) Sources() []string {
	out := make([]string, 0, len(w.sources))
	for s := range w.sources {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (w *Widget) addSource(s string) {
	if s == "" {
		return
	}
	w.sources[s] = struct{}{}
}

// Destroy tears the widget down. Every later event, response or tick is a
// no-op.
func (w *Widget) Destroy() {
	w.destroyed = true
	w.conn = model.Disconnected
}

// Destroyed reports whether Destroy has been called.
func (w *Widget) Destroyed() bool { return w.destroyed }

func entryIDs(entries []model.LogEntry) []string {
	if len(entries) == 0 {
		return nil
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
