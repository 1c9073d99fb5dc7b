// Package logparse maps free-form severity spellings onto the dashboard's
// five levels.
package logparse

import (
	"regexp"
	"strings"

	"github.com/tinytelemetry/logstream/internal/model"
)

// SeverityRegex matches common severity words in log text.
var SeverityRegex = regexp.MustCompile(`(?i)\b(TRACE|DEBUG|INFO|WARN|WARNING|ERROR|FATAL|CRITICAL|PANIC)\b`)

// NormalizeSeverity converts a severity spelling to one of error, warn,
// info, debug or trace. Fatal-class severities collapse to error since the
// dashboard has nothing above it. Unrecognised input becomes info.
func NormalizeSeverity(severity string) string {
	normalized := strings.ToUpper(strings.TrimSpace(severity))

	switch normalized {
	case "TRACE", "TRAC", "TRC":
		return model.LevelTrace
	case "DEBUG", "DEBU", "DBG", "DEB":
		return model.LevelDebug
	case "INFO", "INFORMATION", "INF", "NOTICE":
		return model.LevelInfo
	case "WARN", "WARNING", "WRNG", "WRN":
		return model.LevelWarn
	case "ERROR", "ERR", "ERRO",
		"FATAL", "FATL", "FTL", "CRITICAL", "CRIT", "CRT", "PANIC", "PNC":
		return model.LevelError
	}
	if len(normalized) >= 4 {
		switch normalized[:4] {
		case "INFO":
			return model.LevelInfo
		case "WARN":
			return model.LevelWarn
		case "ERRO", "FATA", "CRIT", "PANI":
			return model.LevelError
		case "DEBU":
			return model.LevelDebug
		case "TRAC":
			return model.LevelTrace
		}
	}
	return model.LevelInfo
}

// ExtractSeverityFromText finds the first severity word in a message.
func ExtractSeverityFromText(message string) string {
	matches := SeverityRegex.FindStringSubmatch(message)
	if len(matches) > 1 {
		return NormalizeSeverity(matches[1])
	}
	return model.LevelInfo
}

// PinoLevelToString converts pino/bunyan numeric levels.
func PinoLevelToString(level int) string {
	switch {
	case level < 20:
		return model.LevelTrace
	case level < 30:
		return model.LevelDebug
	case level < 40:
		return model.LevelInfo
	case level < 50:
		return model.LevelWarn
	default:
		return model.LevelError
	}
}
