package model

import "time"

// Shared defaults used by both the server and dashboard binaries.
const (
	DefaultMaxDisplayEntries = 500
	DefaultBackfillLimit     = 200
	DefaultHistorySize       = 1000
	DefaultStatsInterval     = 15 * time.Second
	DefaultWidgetName        = "log-streaming"
)
