package main

import (
	"context"
	"testing"
	"time"

	"github.com/tinytelemetry/logstream/internal/model"
)

type fakeSource struct {
	name    string
	lines   chan model.IngestEnvelope
	stopped chan struct{}
}

func newFakeSource(name string, buffer int) *fakeSource {
	return &fakeSource{
		name:    name,
		lines:   make(chan model.IngestEnvelope, buffer),
		stopped: make(chan struct{}),
	}
}

func (s *fakeSource) Lines() <-chan model.IngestEnvelope { return s.lines }
func (s *fakeSource) Name() string                       { return s.name }

func (s *fakeSource) Stop() {
	select {
	case <-s.stopped:
		return
	default:
		close(s.stopped)
		close(s.lines)
	}
}

func TestSourceMultiplexer_ForwardsFromAllSources(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := newFakeSource("tcp", 4)
	b := newFakeSource("stdin", 4)

	mux := NewSourceMultiplexer(ctx, []NamedLogSource{a, b}, 16)
	mux.Start()
	defer mux.Stop()

	a.lines <- model.IngestEnvelope{Source: "tcp", Line: "alpha"}
	a.lines <- model.IngestEnvelope{Source: "tcp", Line: ""}
	b.lines <- model.IngestEnvelope{Source: "stdin", Line: "beta"}
	a.Stop()
	b.Stop()

	var got []string
	for env := range mux.Lines() {
		got = append(got, env.Line)
	}
	if len(got) != 2 {
		t.Fatalf("lines = %q, want alpha and beta", got)
	}

	counts := mux.Forwarded()
	if counts["tcp"] != 1 || counts["stdin"] != 1 {
		t.Fatalf("Forwarded() = %v", counts)
	}
	if names := mux.SourceNames(); len(names) != 2 || names[0] != "tcp" {
		t.Fatalf("SourceNames() = %v", names)
	}
}

func TestSourceMultiplexer_NoSourcesClosesOutput(t *testing.T) {
	t.Parallel()

	mux := NewSourceMultiplexer(context.Background(), nil, 0)
	mux.Start()
	if mux.HasSources() {
		t.Fatal("HasSources() = true with no sources")
	}
	if _, ok := <-mux.Lines(); ok {
		t.Fatal("expected closed output")
	}
}

func TestSourceMultiplexer_StopInvokesSourceStop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := newFakeSource("x", 1)
	mux := NewSourceMultiplexer(ctx, []NamedLogSource{src}, 8)
	mux.Start()

	mux.Stop()

	select {
	case <-src.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("expected source Stop() to be called")
	}
}
