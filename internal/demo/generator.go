// Package demo produces sample log entries shaped like the output of a
// coding-agent harness, for exercising the dashboard without real agents.
package demo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/logstream/internal/model"
)

// DefaultBatchSize is the number of entries produced per demo request.
const DefaultBatchSize = 12

type template struct {
	source string
	level  string
	format string
}

var templates = []template{
	{"harness", model.LevelInfo, "agent worker started, waiting for jobs"},
	{"harness", model.LevelInfo, "processing job job-%04d"},
	{"harness", model.LevelWarn, "%d unassigned features, adding to foundation agent"},
	{"harness", model.LevelError, "job job-%04d failed: worker exited with status 1"},
	{"agent", model.LevelInfo, "session %04d: reading feature list"},
	{"agent", model.LevelDebug, "tool call %d: read_file src/app.tsx"},
	{"agent", model.LevelTrace, "token usage: %d input"},
	{"agent", model.LevelWarn, "retrying request after rate limit (attempt %d)"},
	{"git", model.LevelInfo, "committed %d files on feature branch"},
	{"git", model.LevelDebug, "git status: %d modified"},
	{"tests", model.LevelInfo, "%d passed, 0 failed"},
	{"tests", model.LevelError, "%d tests failed: expected 200 got 500"},
	{"api", model.LevelInfo, "GET /api/logs 200 in %dms"},
	{"api", model.LevelWarn, "slow query: %dms against Redis cache"},
	{"api", model.LevelDebug, "websocket client %d subscribed"},
}

// Generator produces demo entries. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
}

// Batch returns n entries without ids; the hub assigns them on publish.
func (g *Generator) Batch(n int) []model.LogEntry {
	if n <= 0 {
		n = DefaultBatchSize
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := model.FormatTimestamp(g.now())
	out := make([]model.LogEntry, 0, n)
	for range n {
		t := templates[g.rnd.IntN(len(templates))]
		msg := t.format
		if strings.ContainsRune(msg, '%') {
			msg = fmt.Sprintf(msg, g.rnd.IntN(1000))
		}
		out = append(out, model.LogEntry{
			Timestamp: ts,
			Level:     t.level,
			Source:    t.source,
			Message:   msg,
		})
	}
	return out
}

// Run publishes one entry every interval until ctx is cancelled.
func (g *Generator) Run(ctx context.Context, interval time.Duration, publish func(model.LogEntry)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, e := range g.Batch(1) {
				publish(e)
			}
		}
	}
}
