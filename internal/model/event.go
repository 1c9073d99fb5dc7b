package model

import "encoding/json"

// Event names exchanged over the event stream.
const (
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventReconnecting = "reconnecting"
	EventSubscribe    = "subscribe_logs"
	EventUnsubscribe  = "unsubscribe_logs"
	EventLogBackfill  = "log_backfill"
	EventLogEntry     = "log_entry"
	EventLogCleared   = "log_cleared"
)

// Envelope is one WebSocket text frame: {"event": name, "data": payload}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an envelope. A nil data leaves Data empty.
func NewEnvelope(event string, data any) (Envelope, error) {
	env := Envelope{Event: event}
	if data == nil {
		return env, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return env, err
	}
	env.Data = raw
	return env, nil
}

// StreamEvent is a decoded event delivered to the widget in transport order.
// Epoch identifies the connection it arrived on; ordering is only
// guaranteed within one epoch.
type StreamEvent struct {
	Kind    string
	Epoch   uint64
	Entries []LogEntry // log_backfill
	Entry   LogEntry   // log_entry
	Err     error      // disconnect cause, if any
}

// APIResponse is the HTTP response envelope.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// LogsPayload is the data of GET /api/logs.
type LogsPayload struct {
	Entries []LogEntry `json:"entries"`
	Sources []string   `json:"sources"`
}
