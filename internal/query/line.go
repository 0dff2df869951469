package query

import (
	"regexp"
	"strings"
	"time"
)

// Line is one stored log line split into the columns Lodge writes:
//
//	<RFC3339 timestamp> <LEVEL> [component] <file.go:line> <message>
//
// Lines written by other producers keep their text; unrecognized columns are
// left empty.
type Line struct {
	File      string
	Number    int
	Text      string
	Time      time.Time
	Level     string
	Component string
	Caller    string
	Message   string
}

var (
	levels   = map[string]struct{}{"DEBUG": {}, "INFO": {}, "WARN": {}, "ERROR": {}, "FATAL": {}}
	callerRe = regexp.MustCompile(`^[^\s]+\.go:\d+$`)
)

// ParseLine splits a stored line into columns.
func ParseLine(text string) Line {
	l := Line{Text: text}
	rest := text

	if tok, tail, ok := cut(rest); ok {
		if ts, err := time.Parse(time.RFC3339, tok); err == nil {
			l.Time = ts
			rest = tail
		}
	}
	if tok, tail, ok := cut(rest); ok {
		if _, known := levels[tok]; known {
			l.Level = tok
			rest = tail
		}
	}
	if strings.HasPrefix(rest, "[") {
		if end := strings.IndexByte(rest, ']'); end > 0 {
			l.Component = rest[1:end]
			rest = strings.TrimPrefix(rest[end+1:], " ")
		}
	}
	if tok, tail, ok := cut(rest); ok && callerRe.MatchString(tok) {
		l.Caller = tok
		rest = tail
	}
	l.Message = rest
	return l
}

// cut returns the first space-separated token of s and the remainder.
func cut(s string) (string, string, bool) {
	if s == "" {
		return "", "", false
	}
	tok, tail, found := strings.Cut(s, " ")
	if !found {
		return tok, "", true
	}
	return tok, tail, true
}
