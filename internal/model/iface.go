package model

// LogHistory is the server-side read contract used by the HTTP API.
type LogHistory interface {
	Recent(limit int) LogsPayload
	Stats() Stats
}

// LogPublisher accepts new entries and server-side wipes.
// Publish reports false when the entry's id was already delivered.
type LogPublisher interface {
	Publish(entry LogEntry) (LogEntry, bool)
	Clear()
}

// LogHub is the full contract of the server-side event hub.
type LogHub interface {
	LogHistory
	LogPublisher
}
