package logsource

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync/atomic"

	"github.com/tinytelemetry/logstream/internal/model"
)

const (
	// DefaultStdinBuffer is the default channel buffer size for stdin lines.
	DefaultStdinBuffer = 50_000

	// DefaultStdinMaxLineSize is the default maximum size (in bytes) of a single stdin line.
	DefaultStdinMaxLineSize = 1024 * 1024 // 1MB

	defaultStdinSourceName = "stdin"
	stdinReadBuffer        = 64 * 1024
)

// StdinConfig holds tunable parameters for the stdin source.
type StdinConfig struct {
	BufferSize  int
	MaxLineSize int
	// SourceName tags every line; it becomes the entry source when the
	// line itself names none.
	SourceName string
}

// StdinSource reads log lines from stdin, so the server can sit at the end
// of a pipe such as `agent-harness 2>&1 | logstream`. A line longer than
// MaxLineSize is cut at the limit, the rest of it discarded, and reading
// continues with the next line.
type StdinSource struct {
	ch        chan model.IngestEnvelope
	cancel    context.CancelFunc
	name      string
	truncated atomic.Int64
}

// NewStdinSource creates a StdinSource that reads from stdin in a background goroutine.
func NewStdinSource(ctx context.Context, conf ...StdinConfig) *StdinSource {
	return newStdinSourceWithReader(ctx, os.Stdin, conf...)
}

func newStdinSourceWithReader(ctx context.Context, r io.Reader, conf ...StdinConfig) *StdinSource {
	bufferSize := DefaultStdinBuffer
	maxLineSize := DefaultStdinMaxLineSize
	name := defaultStdinSourceName
	if len(conf) > 0 {
		if conf[0].BufferSize > 0 {
			bufferSize = conf[0].BufferSize
		}
		if conf[0].MaxLineSize > 0 {
			maxLineSize = conf[0].MaxLineSize
		}
		if conf[0].SourceName != "" {
			name = conf[0].SourceName
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &StdinSource{
		ch:     make(chan model.IngestEnvelope, bufferSize),
		cancel: cancel,
		name:   name,
	}
	go s.read(ctx, r, maxLineSize)
	return s
}

func (s *StdinSource) read(ctx context.Context, r io.Reader, maxLineSize int) {
	defer close(s.ch)

	// The blocking read runs in its own goroutine so Stop is honored
	// while stdin is idle.
	lines := make(chan string)
	go s.scan(ctx, r, maxLineSize, lines)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			select {
			case s.ch <- model.IngestEnvelope{Source: s.name, Line: line}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *StdinSource) scan(ctx context.Context, r io.Reader, maxLineSize int, out chan<- string) {
	defer close(out)

	br := bufio.NewReaderSize(r, stdinReadBuffer)
	line := make([]byte, 0, min(maxLineSize, stdinReadBuffer))
	cut := false
	for {
		chunk, err := br.ReadSlice('\n')
		if err == nil {
			chunk = chunk[:len(chunk)-1]
		}
		if room := maxLineSize - len(line); len(chunk) > room {
			line = append(line, chunk[:room]...)
			cut = true
		} else {
			line = append(line, chunk...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		if err == nil || len(line) > 0 {
			if cut {
				s.truncated.Add(1)
				log.Printf("logsource: %s line exceeded %d bytes, truncated", s.name, maxLineSize)
			}
			text := string(line)
			if n := len(text); n > 0 && text[n-1] == '\r' {
				text = text[:n-1]
			}
			line, cut = line[:0], false
			if text != "" {
				select {
				case out <- text:
				case <-ctx.Done():
					return
				}
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("logsource: %s read error: %v", s.name, err)
			}
			return
		}
	}
}

// Truncated returns how many lines were cut at the size limit.
func (s *StdinSource) Truncated() int64 { return s.truncated.Load() }

func (s *StdinSource) Lines() <-chan model.IngestEnvelope { return s.ch }
func (s *StdinSource) Stop()                              { s.cancel() }
func (s *StdinSource) Name() string                       { return s.name }
