package log

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TextFormatter renders entries as a single human-readable line:
//
//	2024-05-01T10:00:00.000Z INFO main.go:42 server started port=8080
type TextFormatter struct {
	// DisableTimestamp omits the leading timestamp. Storage lines carry their
	// own timestamp prefix, so the storage output formats without one.
	DisableTimestamp bool
	// TimestampFormat defaults to RFC3339 with milliseconds.
	TimestampFormat string
	// DisableCaller omits the file:line column.
	DisableCaller bool
	// NoNewline suppresses the trailing newline.
	NoNewline bool
}

const defaultTimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Format implements Formatter.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var b strings.Builder
	if !f.DisableTimestamp {
		layout := f.TimestampFormat
		if layout == "" {
			layout = defaultTimestampFormat
		}
		b.WriteString(entry.Timestamp.UTC().Format(layout))
		b.WriteByte(' ')
	}
	b.WriteString(entry.Level.String())
	if comp, ok := entry.Fields[ComponentKey]; ok {
		b.WriteString(" [")
		b.WriteString(fmt.Sprint(comp))
		b.WriteByte(']')
	}
	if !f.DisableCaller && entry.Caller != "" {
		b.WriteByte(' ')
		b.WriteString(entry.Caller)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)

	for _, k := range sortedKeys(entry.Fields) {
		if k == ComponentKey {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(textValue(entry.Fields[k]))
	}
	if !f.NoNewline {
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

// JSONFormatter renders entries as one JSON object per line.
type JSONFormatter struct {
	// DisableCaller omits the "caller" key.
	DisableCaller bool
}

// Format implements Formatter.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	obj := make(map[string]interface{}, len(entry.Fields)+4)
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		obj[k] = v
	}
	obj["time"] = entry.Timestamp.UTC().Format(time.RFC3339Nano)
	obj["level"] = entry.Level.String()
	obj["msg"] = entry.Message
	if !f.DisableCaller && entry.Caller != "" {
		obj["caller"] = entry.Caller
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("log: json format: %w", err)
	}
	return append(b, '\n'), nil
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func textValue(v interface{}) string {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case error:
		s = val.Error()
	case time.Duration:
		s = val.String()
	case time.Time:
		s = val.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		s = val.String()
	default:
		s = fmt.Sprint(val)
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, c := range s {
		if c <= ' ' || c == '"' || c == '\\' || c == '=' {
			return true
		}
	}
	return false
}
