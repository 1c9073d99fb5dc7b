package logparse

import "testing"

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Standard forms
		{"TRACE", "trace"}, {"DEBUG", "debug"}, {"INFO", "info"},
		{"WARN", "warn"}, {"ERROR", "error"},
		// Variants
		{"TRAC", "trace"}, {"TRC", "trace"},
		{"DEBU", "debug"}, {"DBG", "debug"}, {"DEB", "debug"},
		{"INFORMATION", "info"}, {"INF", "info"}, {"NOTICE", "info"},
		{"WARNING", "warn"}, {"WRNG", "warn"}, {"WRN", "warn"},
		{"ERR", "error"}, {"ERRO", "error"},
		// Fatal class folds into error
		{"FATAL", "error"}, {"FTL", "error"}, {"CRITICAL", "error"},
		{"CRIT", "error"}, {"PANIC", "error"},
		// Case insensitive
		{"info", "info"}, {"Warn", "warn"}, {"error", "error"},
		// Prefix matching
		{"INFORMATION_EXTRA", "info"}, {"WARNING_LEVEL", "warn"},
		{"ERROR_CODE_42", "error"}, {"DEBUG_VERBOSE", "debug"},
		{"TRACE_ALL", "trace"}, {"FATAL_CRASH", "error"},
		// Unknown defaults to info
		{"", "info"}, {"UNKNOWN", "info"}, {"foo", "info"},
		// Whitespace
		{"  INFO  ", "info"}, {"\tWARN\t", "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeSeverity(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeSeverity(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractSeverityFromText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2024-01-01 INFO Starting server", "info"},
		{"ERROR: connection refused", "error"},
		{"[WARN] disk usage high", "warn"},
		{"FATAL out of memory", "error"},
		{"DEBUG checking cache", "debug"},
		{"trace entering function", "trace"},
		{"WARNING deprecated API", "warn"},
		{"no severity here", "info"},
		{"", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ExtractSeverityFromText(tt.input)
			if got != tt.expected {
				t.Errorf("ExtractSeverityFromText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPinoLevelToString(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{10, "trace"}, {20, "debug"}, {30, "info"},
		{40, "warn"}, {50, "error"}, {60, "error"},
		{5, "trace"}, {35, "info"}, {70, "error"},
	}

	for _, tt := range tests {
		got := PinoLevelToString(tt.input)
		if got != tt.expected {
			t.Errorf("PinoLevelToString(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
