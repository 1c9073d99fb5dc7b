package ingest

import (
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/logstream/internal/model"
)

// maxJSONLines bounds multi-line JSON accumulation. An object that has
// not closed by then is flushed line by line as plain text.
const maxJSONLines = 1000

// jsonAccumulator gathers the lines of one multi-line JSON object.
type jsonAccumulator struct {
	buf   strings.Builder
	lines []string
	depth int
}

// Processor parses JSON and plain-text lines into entries and forwards
// them to a sink. ProcessEnvelope must be called from a single goroutine.
type Processor struct {
	sink EntrySink

	mu         sync.RWMutex
	sourceName string

	// Multi-line JSON is accumulated per source so interleaved inputs
	// cannot corrupt each other's objects.
	pending map[string]*jsonAccumulator

	now func() time.Time
}

// NewProcessor creates a new log processor.
func NewProcessor(sink EntrySink, sourceName string) *Processor {
	return &Processor{
		sink:       sink,
		sourceName: sourceName,
		pending:    make(map[string]*jsonAccumulator),
		now:        time.Now,
	}
}

func (p *Processor) Name() string { return ProcessorModeParse }

// ProcessLine processes an untagged line using the processor source name.
func (p *Processor) ProcessLine(line string) *ProcessResult {
	return p.ProcessEnvelope(model.IngestEnvelope{Line: line})
}

// ProcessEnvelope processes one source-tagged line. It returns nil while a
// multi-line JSON object is still open. When an unclosed object is
// abandoned, only the last of its flushed lines is returned; all of them
// reach the sink.
func (p *Processor) ProcessEnvelope(env model.IngestEnvelope) *ProcessResult {
	source := env.Source
	if source == "" {
		source = p.getSourceName()
	}

	acc, open := p.pending[source]
	if !open {
		trimmed := strings.TrimSpace(env.Line)
		if trimmed == "" {
			return nil
		}
		if !strings.HasPrefix(trimmed, "{") {
			return p.emit(p.parseText(env.Line, source))
		}
		acc = &jsonAccumulator{}
	}

	acc.buf.WriteString(env.Line)
	acc.buf.WriteString("\n")
	acc.lines = append(acc.lines, env.Line)
	acc.depth += CountJSONDepth(env.Line)

	if acc.depth <= 0 {
		delete(p.pending, source)
		complete := strings.TrimSpace(acc.buf.String())
		if entry, ok := p.parseJSON(complete, source); ok {
			return p.emit(entry)
		}
		return p.flushText(acc.lines, source)
	}

	if len(acc.lines) >= maxJSONLines {
		delete(p.pending, source)
		return p.flushText(acc.lines, source)
	}
	p.pending[source] = acc
	return nil
}

// SetSourceName updates the default source name for untagged lines.
func (p *Processor) SetSourceName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sourceName = name
}

func (p *Processor) getSourceName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sourceName
}

func (p *Processor) parseJSON(text, source string) (model.LogEntry, bool) {
	entry, ok := ParseJSONLogEntry(text, p.now())
	if !ok {
		return entry, false
	}
	if entry.Source == "" {
		entry.Source = source
	}
	return entry, true
}

func (p *Processor) parseText(line, source string) model.LogEntry {
	entry := CreateFallbackLogEntry(line, p.now())
	entry.Source = source
	return entry
}

func (p *Processor) flushText(lines []string, source string) *ProcessResult {
	var last *ProcessResult
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		last = p.emit(p.parseText(line, source))
	}
	return last
}

func (p *Processor) emit(entry model.LogEntry) *ProcessResult {
	if p.sink != nil {
		if published, ok := p.sink.Publish(entry); ok {
			entry = published
		}
	}
	return &ProcessResult{Entry: entry}
}

// CountJSONDepth counts the net change in JSON nesting depth for a line.
func CountJSONDepth(line string) int {
	depth := 0
	inString := false
	escaped := false

	for _, char := range line {
		if escaped {
			escaped = false
			continue
		}

		switch char {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				depth++
			}
		case '}', ']':
			if !inString {
				depth--
			}
		}
	}

	return depth
}
