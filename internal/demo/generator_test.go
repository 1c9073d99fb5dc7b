package demo

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tinytelemetry/logstream/internal/model"
)

func TestBatch(t *testing.T) {
	t.Parallel()
	g := NewGenerator(1)

	// Large enough to draw every template.
	entries := g.Batch(500)
	if len(entries) != 500 {
		t.Fatalf("len = %d, want 500", len(entries))
	}
	sources := map[string]bool{"harness": true, "agent": true, "git": true, "tests": true, "api": true}
	for _, e := range entries {
		if e.ID != "" {
			t.Errorf("entry has id %q; ids are assigned on publish", e.ID)
		}
		if model.LevelKey(e.Level) == model.LevelUnknown {
			t.Errorf("unknown level %q", e.Level)
		}
		if !sources[e.Source] {
			t.Errorf("unexpected source %q", e.Source)
		}
		if strings.Contains(e.Message, "%") {
			t.Errorf("unformatted message %q", e.Message)
		}
	}
}

func TestBatchDefaultSize(t *testing.T) {
	t.Parallel()
	if got := len(NewGenerator(2).Batch(0)); got != DefaultBatchSize {
		t.Fatalf("len = %d, want %d", got, DefaultBatchSize)
	}
}

func TestBatchDeterministic(t *testing.T) {
	t.Parallel()
	a, b := NewGenerator(7), NewGenerator(7)
	fixed := func() time.Time { return time.Unix(0, 0) }
	a.now, b.now = fixed, fixed

	x, y := a.Batch(20), b.Batch(20)
	for i := range x {
		if x[i] != y[i] {
			t.Fatalf("entry %d differs: %+v vs %+v", i, x[i], y[i])
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	g := NewGenerator(3)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	count := 0
	done := make(chan error, 1)
	go func() {
		done <- g.Run(ctx, time.Millisecond, func(model.LogEntry) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := count
		mu.Unlock()
		if n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Run published nothing")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run = %v", err)
	}
}
