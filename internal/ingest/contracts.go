package ingest

import (
	"fmt"
	"strings"

	"github.com/tinytelemetry/logstream/internal/model"
)

const (
	// ProcessorModeParse recognises JSON objects (including multi-line
	// ones) and falls back to plain-text parsing.
	ProcessorModeParse = "parse"
	// ProcessorModePassthrough treats every line as plain text.
	ProcessorModePassthrough = "passthrough"
)

// EntrySink receives parsed entries. The hub satisfies it.
type EntrySink interface {
	Publish(entry model.LogEntry) (model.LogEntry, bool)
}

// ProcessResult holds the entry produced from one or more input lines.
type ProcessResult struct {
	Entry model.LogEntry
}

// EnvelopeProcessor consumes source-tagged ingest lines and emits entries.
type EnvelopeProcessor interface {
	Name() string
	ProcessEnvelope(model.IngestEnvelope) *ProcessResult
}

// NewEnvelopeProcessor creates the processor for mode. An empty mode
// selects ProcessorModeParse.
func NewEnvelopeProcessor(mode string, sink EntrySink, sourceName string) (EnvelopeProcessor, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ProcessorModeParse:
		return NewProcessor(sink, sourceName), nil
	case ProcessorModePassthrough:
		return NewPassthroughProcessor(sink, sourceName), nil
	default:
		return nil, fmt.Errorf("ingest: unknown processor mode %q", mode)
	}
}
