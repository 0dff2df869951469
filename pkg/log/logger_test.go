package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type memStore struct {
	mu      sync.Mutex
	lines   []string
	flushes int
	reads   int
}

func (m *memStore) Submit(line string, _ time.Time) {
	m.mu.Lock()
	m.lines = append(m.lines, line)
	m.mu.Unlock()
}

func (m *memStore) ForceFlush() {
	m.mu.Lock()
	m.flushes++
	m.mu.Unlock()
}

func (m *memStore) CurrentLogContent() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return strings.Join(m.lines, "\n"), true
}

func (m *memStore) LogsDirectory() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return "/tmp/logs", true
}

func newBufferLogger(level Level, f Formatter, extra ...Output) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	opts := []LoggerOption{WithLevel(level), WithFormatter(f), WithOutput(NewWriterOutput(buf))}
	for _, o := range extra {
		opts = append(opts, WithOutput(o))
	}
	return NewLogger(opts...), buf
}

func TestLevelGate(t *testing.T) {
	l, buf := newBufferLogger(WarnLevel, &TextFormatter{})
	l.Info("hidden")
	l.Debug("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("entries below level were written: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "WARN") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn entry, got %q", buf.String())
	}

	l.SetLevel(DebugLevel)
	if l.GetLevel() != DebugLevel {
		t.Fatalf("level not updated: %v", l.GetLevel())
	}
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("debug entry missing after SetLevel")
	}
}

func TestTextFormatterCallerAndFields(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{DisableTimestamp: true})
	l.With(Component("store")).Info("flushed", Int("lines", 3), Str("file", "a b.log"))
	out := buf.String()
	if !strings.HasPrefix(out, "INFO [store] logger_test.go:") {
		t.Fatalf("unexpected prefix: %q", out)
	}
	if !strings.Contains(out, `file="a b.log"`) || !strings.Contains(out, "lines=3") {
		t.Fatalf("fields missing: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected trailing newline")
	}
}

func TestJSONFormatter(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &JSONFormatter{})
	l.WithError(errors.New("disk full")).Error("write failed", Int("n", 2))
	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if obj["level"] != "ERROR" || obj["msg"] != "write failed" || obj["error"] != "disk full" {
		t.Fatalf("unexpected object: %v", obj)
	}
	if obj["n"] != float64(2) {
		t.Fatalf("expected n=2, got %v", obj["n"])
	}
}

func TestRedaction(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(WithFormatter(&TextFormatter{}), WithOutput(NewWriterOutput(buf)), WithRedaction("token"))
	l.Info("login", Str("token", "s3cret"))
	if strings.Contains(buf.String(), "s3cret") || !strings.Contains(buf.String(), "[REDACTED]") {
		t.Fatalf("token not redacted: %q", buf.String())
	}
}

func TestStorageOutputSubmitsWithoutTimestamp(t *testing.T) {
	store := &memStore{}
	storage := NewStorageOutput(store)
	l, _ := newBufferLogger(InfoLevel, &TextFormatter{}, storage)
	l.Info("hello", Int("n", 1))

	if len(store.lines) != 1 {
		t.Fatalf("want 1 stored line, got %d", len(store.lines))
	}
	line := store.lines[0]
	if !strings.HasPrefix(line, "INFO logger_test.go:") || !strings.HasSuffix(line, "hello n=1") {
		t.Fatalf("unexpected stored line %q", line)
	}
	content, ok := storage.CurrentLog()
	if !ok || content != line {
		t.Fatalf("current log mismatch: %q %v", content, ok)
	}
}

func TestStorageOutputDisabled(t *testing.T) {
	store := &memStore{}
	storage := NewStorageOutput(store, WithStorageEnabled(false))
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{}, storage)
	storage.SetReporter(l)

	l.Info("not stored")
	if len(store.lines) != 0 {
		t.Fatalf("disabled storage received lines: %v", store.lines)
	}
	if _, ok := storage.CurrentLog(); ok {
		t.Fatalf("expected absence while disabled")
	}
	if _, ok := storage.LogsDirectory(); ok {
		t.Fatalf("expected absence while disabled")
	}
	if store.reads != 0 {
		t.Fatalf("store touched while disabled")
	}
	if strings.Count(buf.String(), "log storage is disabled") != 2 {
		t.Fatalf("expected two warnings, got %q", buf.String())
	}

	storage.SetEnabled(true)
	if dir, ok := storage.LogsDirectory(); !ok || dir != "/tmp/logs" {
		t.Fatalf("expected directory after enabling, got %q %v", dir, ok)
	}
}

func TestForwarder(t *testing.T) {
	var got []string
	fwd := NewForwarder(ListenerFunc(func(e *Entry) { got = append(got, e.Level.String()+":"+e.Message) }))
	l, _ := newBufferLogger(DebugLevel, &TextFormatter{}, fwd)
	l.Debug("a")
	l.Error("b")
	if strings.Join(got, ",") != "DEBUG:a,ERROR:b" {
		t.Fatalf("unexpected forwarded entries: %v", got)
	}

	fwd.Setup()
	l.Info("c")
	if len(got) != 2 {
		t.Fatalf("listener still registered after Setup(): %v", got)
	}
}

func TestFatalFlushesStorage(t *testing.T) {
	code := 0
	prev := exit
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = prev })

	store := &memStore{}
	storage := NewStorageOutput(store)
	l, _ := newBufferLogger(InfoLevel, &TextFormatter{}, storage)
	l.Fatal("boom")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if store.flushes != 1 || len(store.lines) != 1 {
		t.Fatalf("expected fatal line stored and flushed: lines=%v flushes=%d", store.lines, store.flushes)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"", InfoLevel, false},
		{"verbose", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyConfigRejectsUnknownFormat(t *testing.T) {
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := ApplyConfig(&Config{Level: "debug", Format: "json"}, NewNullOutput()); err != nil {
		t.Fatalf("apply: %v", err)
	}
}
