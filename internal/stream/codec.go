package stream

import (
	"encoding/json"
	"fmt"

	"github.com/tinytelemetry/logstream/internal/model"
)

// Decode turns one server frame into a stream event stamped with epoch.
func Decode(data []byte, epoch uint64) (model.StreamEvent, error) {
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.StreamEvent{}, fmt.Errorf("stream: decode envelope: %w", err)
	}

	ev := model.StreamEvent{Kind: env.Event, Epoch: epoch}
	switch env.Event {
	case model.EventLogBackfill:
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &ev.Entries); err != nil {
				return model.StreamEvent{}, fmt.Errorf("stream: decode %s: %w", env.Event, err)
			}
		}
	case model.EventLogEntry:
		if err := json.Unmarshal(env.Data, &ev.Entry); err != nil {
			return model.StreamEvent{}, fmt.Errorf("stream: decode %s: %w", env.Event, err)
		}
	case model.EventLogCleared:
	default:
		return model.StreamEvent{}, fmt.Errorf("stream: unknown event %q", env.Event)
	}
	return ev, nil
}

// Encode marshals a frame for the wire.
func Encode(event string, data any) ([]byte, error) {
	env, err := model.NewEnvelope(event, data)
	if err != nil {
		return nil, fmt.Errorf("stream: encode %s: %w", event, err)
	}
	return json.Marshal(env)
}
