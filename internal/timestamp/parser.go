// Package timestamp recognises timestamps in structured fields and at the
// head of plain-text log lines.
package timestamp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of ParseFromText.
type Result struct {
	Timestamp time.Time
	Found     bool
	// Remaining is the text after the timestamp, or the whole input when
	// nothing was found.
	Remaining string
}

type textPattern struct {
	re      *regexp.Regexp
	layouts []string
	// partial layouts lack a date; today's date in loc is filled in.
	partial bool
	noYear  bool
}

// Parser holds compiled patterns. It is safe for concurrent use.
type Parser struct {
	patterns []textPattern
	severity *regexp.Regexp
	now      func() time.Time
}

// NewParser returns a parser for the common log timestamp shapes.
func NewParser() *Parser {
	return &Parser{
		patterns: []textPattern{
			{
				re: regexp.MustCompile(`^\[?(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d{1,9})?(?:Z|[+-]\d{2}:?\d{2})?)\]?`),
				layouts: []string{
					"2006-01-02T15:04:05.999999999Z07:00",
					"2006-01-02T15:04:05.999999999Z0700",
					"2006-01-02T15:04:05.999999999",
					"2006-01-02 15:04:05.999999999Z07:00",
					"2006-01-02 15:04:05.999999999",
				},
			},
			{
				re:      regexp.MustCompile(`^\[?([A-Z][a-z]{2} +\d{1,2} \d{2}:\d{2}:\d{2})\]?`),
				layouts: []string{"Jan _2 15:04:05"},
				noYear:  true,
			},
			{
				re:      regexp.MustCompile(`^\[?(\d{2}:\d{2}:\d{2}(?:[.,]\d{1,9})?)\]?`),
				layouts: []string{"15:04:05.999999999"},
				partial: true,
			},
		},
		severity: regexp.MustCompile(`(?i)^\[?(TRACE|DEBUG|INFO|WARN|WARNING|ERROR|FATAL|CRITICAL)\]?:?\s+`),
		now:      time.Now,
	}
}

// ParseFromText looks for a timestamp at the start of text.
func (p *Parser) ParseFromText(text string) Result {
	trimmed := strings.TrimSpace(text)
	for _, pat := range p.patterns {
		m := pat.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		raw := strings.Replace(m[1], ",", ".", 1)
		for _, layout := range pat.layouts {
			ts, err := time.Parse(layout, raw)
			if err != nil {
				continue
			}
			now := p.now().UTC()
			switch {
			case pat.partial:
				ts = time.Date(now.Year(), now.Month(), now.Day(), ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), time.UTC)
			case pat.noYear:
				ts = ts.AddDate(now.Year(), 0, 0)
			}
			return Result{
				Timestamp: ts,
				Found:     true,
				Remaining: strings.TrimSpace(trimmed[len(m[0]):]),
			}
		}
	}
	return Result{Remaining: text}
}

// ParseTimestamp interprets a structured field value: a string in any
// supported layout or a unix epoch number whose unit is inferred from its
// magnitude.
func (p *Parser) ParseTimestamp(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return time.Time{}, false
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return parseUnix(n)
		}
		r := p.ParseFromText(v)
		if r.Found && r.Remaining == "" {
			return r.Timestamp, true
		}
		return time.Time{}, false
	case float64:
		return parseUnix(v)
	case int64:
		return parseUnix(float64(v))
	case int:
		return parseUnix(float64(v))
	}
	return time.Time{}, false
}

// ExtractLogMessage strips a leading timestamp and severity word.
func (p *Parser) ExtractLogMessage(text string) string {
	msg := p.ParseFromText(text).Remaining
	if loc := p.severity.FindStringIndex(msg); loc != nil {
		msg = msg[loc[1]:]
	}
	if msg == "" {
		return strings.TrimSpace(text)
	}
	return msg
}

func parseUnix(n float64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	switch {
	case n < 1e11:
		sec, frac := int64(n), n-float64(int64(n))
		return time.Unix(sec, int64(frac*1e9)).UTC(), true
	case n < 1e14:
		return time.UnixMilli(int64(n)).UTC(), true
	case n < 1e17:
		return time.UnixMicro(int64(n)).UTC(), true
	default:
		return time.Unix(0, int64(n)).UTC(), true
	}
}
