package logsource

import (
	"context"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/logstream/internal/tcpserver"
)

func TestStdinSourceStopClosesLines(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer func() { _ = w.Close() }()

	src := newStdinSourceWithReader(context.Background(), r)
	src.Stop()

	select {
	case _, ok := <-src.Lines():
		if ok {
			t.Fatal("expected lines channel to be closed after Stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lines channel to close")
	}
}

func TestStdinSourceStopIsIdempotent(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer func() { _ = w.Close() }()

	src := newStdinSourceWithReader(context.Background(), r)
	src.Stop()
	src.Stop()
}

func TestStdinSourceReadsLines(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}

	src := newStdinSourceWithReader(context.Background(), r)
	defer src.Stop()

	if _, err := w.WriteString("INFO agent started\n\nERROR tests failed\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = w.Close()

	var got []string
	for env := range src.Lines() {
		if env.Source != "stdin" {
			t.Errorf("source = %q, want stdin", env.Source)
		}
		got = append(got, env.Line)
	}
	if len(got) != 2 || got[0] != "INFO agent started" || got[1] != "ERROR tests failed" {
		t.Fatalf("lines = %q", got)
	}
}

func TestStdinSourceTruncatesLongLines(t *testing.T) {
	input := "short\r\n" + strings.Repeat("x", 20) + "\nafter\nno newline at end"
	src := newStdinSourceWithReader(context.Background(), strings.NewReader(input), StdinConfig{
		MaxLineSize: 8,
		SourceName:  "harness",
	})
	defer src.Stop()

	var got []string
	for env := range src.Lines() {
		if env.Source != "harness" {
			t.Errorf("source = %q, want harness", env.Source)
		}
		got = append(got, env.Line)
	}
	want := []string{"short", "xxxxxxxx", "after", "no newli"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	if n := src.Truncated(); n != 2 {
		t.Fatalf("Truncated() = %d, want 2", n)
	}
	if src.Name() != "harness" {
		t.Fatalf("Name() = %q", src.Name())
	}
}

func TestTCPSourceWrapsServer(t *testing.T) {
	srv := tcpserver.NewServer("127.0.0.1:0")
	src := NewTCPSource(srv)
	if src.Name() != "tcp" {
		t.Fatalf("Name() = %q", src.Name())
	}
	src.Stop()
	if _, ok := <-src.Lines(); ok {
		t.Fatal("lines channel open after Stop")
	}
}
