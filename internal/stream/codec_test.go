package stream

import (
	"testing"
	"time"

	"github.com/tinytelemetry/logstream/internal/model"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		frame   string
		kind    string
		entries int
		id      string
		wantErr bool
	}{
		{"backfill", `{"event":"log_backfill","data":[{"id":"1"},{"id":"2"}]}`, model.EventLogBackfill, 2, "", false},
		{"empty backfill", `{"event":"log_backfill"}`, model.EventLogBackfill, 0, "", false},
		{"entry", `{"event":"log_entry","data":{"id":"9","level":"warn"}}`, model.EventLogEntry, 0, "9", false},
		{"cleared", `{"event":"log_cleared"}`, model.EventLogCleared, 0, "", false},
		{"unknown", `{"event":"bogus"}`, "", 0, "", true},
		{"malformed", `{"event":`, "", 0, "", true},
		{"bad entry", `{"event":"log_entry","data":[1,2]}`, "", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.frame), 3)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Decode(%s) succeeded, want error", tt.frame)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%s): %v", tt.frame, err)
			}
			if ev.Kind != tt.kind || ev.Epoch != 3 || len(ev.Entries) != tt.entries || ev.Entry.ID != tt.id {
				t.Fatalf("Decode(%s) = %+v", tt.frame, ev)
			}
		})
	}
}

func TestEncodeRoundtrip(t *testing.T) {
	t.Parallel()

	frame, err := Encode(model.EventLogEntry, model.LogEntry{ID: "a", Message: "hi"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ev, err := Decode(frame, 1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Entry.ID != "a" || ev.Entry.Message != "hi" {
		t.Fatalf("roundtrip = %+v", ev.Entry)
	}

	if frame, _ := Encode(model.EventSubscribe, nil); string(frame) != `{"event":"subscribe_logs"}` {
		t.Fatalf("subscribe frame = %s", frame)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	mid := func() float64 { return 0.5 }
	low := func() float64 { return 0 }
	tests := []struct {
		n    int
		rnd  func() float64
		want time.Duration
	}{
		{0, mid, 500 * time.Millisecond},
		{1, mid, time.Second},
		{3, mid, 4 * time.Second},
		{10, mid, 30 * time.Second},
		{0, low, 400 * time.Millisecond},
		{10, low, 24 * time.Second},
	}
	for _, tt := range tests {
		if got := Backoff(tt.n, DefaultInitialBackoff, DefaultMaxBackoff, tt.rnd); got != tt.want {
			t.Errorf("Backoff(%d) = %s, want %s", tt.n, got, tt.want)
		}
	}

	for n := 0; n < 20; n++ {
		if got := Backoff(n, DefaultInitialBackoff, DefaultMaxBackoff, nil); got > DefaultMaxBackoff*6/5 {
			t.Fatalf("Backoff(%d) = %s exceeds jittered cap", n, got)
		}
	}
}
