package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/tinytelemetry/logstream/internal/logparse"
	"github.com/tinytelemetry/logstream/internal/model"
	"github.com/tinytelemetry/logstream/internal/timestamp"
)

var (
	timestampKeys = []string{"timestamp", "time", "ts", "@timestamp", "date", "timeUnixNano"}
	levelKeys     = []string{"level", "severity", "severityText", "lvl", "levelname", "log.level"}
	sourceKeys    = []string{"source", "service", "service.name", "logger", "app", "_app", "component", "name"}
	messageKeys   = []string{"message", "msg", "text", "body", "log", "event"}
)

var tsParser = timestamp.NewParser()

// ParseJSONLogEntry maps a JSON object line onto an entry. Well-known key
// spellings from common loggers (pino, winston, zap, logrus, bunyan) are
// recognised; other fields are ignored, including a producer "id": entry
// ids are always assigned by the hub. It returns false when line is not a
// JSON object. Source is left empty when the object names none.
func ParseJSONLogEntry(line string, now time.Time) (model.LogEntry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return model.LogEntry{}, false
	}

	entry := model.LogEntry{
		Source:  ExtractStringField(raw, sourceKeys...),
		Message: sanitizeLogMessage(ExtractStringField(raw, messageKeys...)),
		Level:   extractLevel(raw),
	}
	if entry.Message == "" {
		entry.Message = sanitizeLogMessage(strings.TrimSpace(line))
	}

	ts := now
	for _, k := range timestampKeys {
		if v, ok := raw[k]; ok {
			if parsed, ok := tsParser.ParseTimestamp(v); ok {
				ts = parsed
				break
			}
		}
	}
	entry.Timestamp = model.FormatTimestamp(ts)
	return entry, true
}

// CreateFallbackLogEntry builds an entry from a plain-text line, taking
// a leading timestamp and the first severity word from the text.
func CreateFallbackLogEntry(line string, now time.Time) model.LogEntry {
	line = ansi.Strip(line)
	ts := now
	if r := tsParser.ParseFromText(line); r.Found {
		ts = r.Timestamp
	}
	return model.LogEntry{
		Timestamp: model.FormatTimestamp(ts),
		Level:     logparse.ExtractSeverityFromText(line),
		Message:   sanitizeLogMessage(tsParser.ExtractLogMessage(line)),
	}
}

func extractLevel(raw map[string]any) string {
	for _, k := range levelKeys {
		switch v := raw[k].(type) {
		case string:
			if v != "" {
				return logparse.NormalizeSeverity(v)
			}
		case float64:
			return logparse.PinoLevelToString(int(v))
		}
	}
	if n, ok := raw["severityNumber"].(float64); ok {
		return severityFromOTELNumber(int(n))
	}
	return model.LevelInfo
}

// severityFromOTELNumber maps the OpenTelemetry 1-24 severity scale.
func severityFromOTELNumber(number int) string {
	switch {
	case number <= 0:
		return model.LevelInfo
	case number <= 4:
		return model.LevelTrace
	case number <= 8:
		return model.LevelDebug
	case number <= 12:
		return model.LevelInfo
	case number <= 16:
		return model.LevelWarn
	default:
		return model.LevelError
	}
}

func stringifyJSONValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64, bool:
		return fmt.Sprintf("%v", v)
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return ""
}

// sanitizeLogMessage drops terminal escape sequences (colored harness and
// test-runner output) and flattens the message onto one line.
func sanitizeLogMessage(message string) string {
	clean := ansi.Strip(message)
	clean = strings.ReplaceAll(clean, "\t", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	clean = strings.ReplaceAll(clean, "\r", " ")
	return clean
}

// ExtractStringField returns the first non-empty string value found among the given keys.
func ExtractStringField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if str := stringifyJSONValue(v); str != "" {
				return str
			}
		}
	}
	return ""
}
