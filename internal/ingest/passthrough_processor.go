package ingest

import (
	"sync"
	"time"

	"github.com/tinytelemetry/logstream/internal/model"
)

// PassthroughProcessor is a lightweight processor that avoids JSON parsing.
// It creates fallback entries directly from input lines.
type PassthroughProcessor struct {
	mu         sync.RWMutex
	sink       EntrySink
	sourceName string
	now        func() time.Time
}

// NewPassthroughProcessor creates a new passthrough processor.
func NewPassthroughProcessor(sink EntrySink, sourceName string) *PassthroughProcessor {
	return &PassthroughProcessor{
		sink:       sink,
		sourceName: sourceName,
		now:        time.Now,
	}
}

func (p *PassthroughProcessor) Name() string { return ProcessorModePassthrough }

// ProcessEnvelope processes one source-tagged line.
func (p *PassthroughProcessor) ProcessEnvelope(env model.IngestEnvelope) *ProcessResult {
	if env.Line == "" {
		return nil
	}

	source := env.Source
	if source == "" {
		source = p.getSourceName()
	}

	entry := CreateFallbackLogEntry(env.Line, p.now())
	entry.Source = source

	if p.sink != nil {
		if published, ok := p.sink.Publish(entry); ok {
			entry = published
		}
	}
	return &ProcessResult{Entry: entry}
}

// SetSourceName updates the default source name for untagged lines.
func (p *PassthroughProcessor) SetSourceName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sourceName = name
}

func (p *PassthroughProcessor) getSourceName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sourceName
}
