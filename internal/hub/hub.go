// Package hub is the server side of the log event stream. It keeps a
// bounded history, counts every published entry, and fans entries out to
// subscribed WebSocket clients.
package hub

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tinytelemetry/logstream/internal/model"
	"github.com/tinytelemetry/logstream/internal/stats"
	"github.com/tinytelemetry/logstream/internal/store"
	"github.com/tinytelemetry/logstream/internal/stream"
)

// DefaultSendBuffer is the per-client queue of pending frames. A client
// that falls this far behind is disconnected and must resubscribe.
const DefaultSendBuffer = 1024

// Config holds tunable parameters for a Hub.
type Config struct {
	HistorySize  int
	BackfillSize int
	SendBuffer   int
}

// Hub owns the server-side log history and its subscribers.
type Hub struct {
	mu       sync.Mutex
	history  *store.Store
	counter  *stats.Counter
	sources  map[string]struct{}
	clients  map[*client]struct{}
	backfill int
	sendBuf  int

	now   func() time.Time
	newID func() string

	wg        sync.WaitGroup
	closed    bool
	closeOnce sync.Once
}

// New creates a hub.
func New(cfg Config) *Hub {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = model.DefaultHistorySize
	}
	if cfg.BackfillSize <= 0 {
		cfg.BackfillSize = model.DefaultBackfillLimit
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultSendBuffer
	}
	return &Hub{
		history:  store.New(cfg.HistorySize),
		counter:  stats.NewCounter(),
		sources:  make(map[string]struct{}),
		clients:  make(map[*client]struct{}),
		backfill: cfg.BackfillSize,
		sendBuf:  cfg.SendBuffer,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Publish stamps entry with an id and timestamp when missing, records it,
// and pushes it to every subscriber. An id already in the history is a
// redelivery and is dropped.
func (h *Hub) Publish(entry model.LogEntry) (model.LogEntry, bool) {
	if entry.ID == "" {
		entry.ID = h.newID()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = model.FormatTimestamp(h.now())
	}
	if entry.Level == "" {
		entry.Level = model.LevelInfo
	}

	frame, err := stream.Encode(model.EventLogEntry, entry)
	if err != nil {
		log.Printf("hub: %v", err)
		return entry, false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.history.Has(entry.ID) {
		return entry, false
	}
	h.history.Append(entry)
	h.counter.Add(entry)
	if entry.Source != "" {
		h.sources[entry.Source] = struct{}{}
	}
	for c := range h.clients {
		if c.subscribed {
			h.enqueueLocked(c, frame)
		}
	}
	return entry, true
}

// Clear wipes history and counts and tells every client.
func (h *Hub) Clear() {
	frame, err := stream.Encode(model.EventLogCleared, nil)
	if err != nil {
		log.Printf("hub: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.history.Clear()
	h.counter.Reset()
	h.sources = make(map[string]struct{})
	for c := range h.clients {
		h.enqueueLocked(c, frame)
	}
}

// Recent returns the newest limit entries and every known source.
func (h *Hub) Recent(limit int) model.LogsPayload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return model.LogsPayload{
		Entries: h.history.Tail(limit),
		Sources: h.sourceListLocked(),
	}
}

// Stats returns counts over every entry published since the last clear,
// including entries that have aged out of the history.
func (h *Hub) Stats() model.Stats {
	return h.counter.Snapshot()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and waits for their goroutines.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		for c := range h.clients {
			h.dropLocked(c)
		}
		h.mu.Unlock()
		h.wg.Wait()
	})
}

func (h *Hub) subscribe(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	frame, err := stream.Encode(model.EventLogBackfill, h.history.Tail(h.backfill))
	if err != nil {
		log.Printf("hub: %v", err)
		return
	}
	// Queued under the lock so no live entry can overtake the backfill.
	c.subscribed = true
	h.enqueueLocked(c, frame)
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.subscribed = false
}

// register adds c and accounts for its two pumps, so Close never waits on
// a client it did not see.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.wg.Add(2)
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// enqueueLocked queues a frame without blocking the publisher; a client
// with a full queue is dropped.
func (h *Hub) enqueueLocked(c *client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		log.Printf("hub: client %s too slow, disconnecting", c.addr)
		h.dropLocked(c)
	}
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) sourceListLocked() []string {
	out := make([]string, 0, len(h.sources))
	for s := range h.sources {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
