package logstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rzbill/lodge/pkg/log"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestStore(t *testing.T, opts Options) (*Store, *lockedBuffer) {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	out := &lockedBuffer{}
	if opts.Logger == nil {
		opts.Logger = log.NewLogger(
			log.WithFormatter(&log.TextFormatter{DisableTimestamp: true}),
			log.WithOutput(log.NewWriterOutput(out)),
		)
	}
	s, err := Open(opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(string(b), "\n")
}

func TestOpenValidatesOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing dir", Options{}},
		{"negative max files", Options{Dir: t.TempDir(), MaxFiles: -1}},
		{"negative threshold", Options{Dir: t.TempDir(), FlushThreshold: -1}},
		{"negative interval", Options{Dir: t.TempDir(), FlushInterval: -time.Second}},
		{"extension without dot", Options{Dir: t.TempDir(), Extension: "log"}},
		{"extension with separator", Options{Dir: t.TempDir(), Extension: ".a/b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s, err := Open(tt.opts); err == nil {
				_ = s.Close()
				t.Fatalf("expected error")
			}
		})
	}
}

func TestOpenDoesNotCreateFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	s, _ := newTestStore(t, Options{Dir: dir})
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("directory created before first write: %v", err)
	}
	if !strings.HasSuffix(s.CurrentFile(), ".log") || filepath.Dir(s.CurrentFile()) != dir {
		t.Fatalf("unexpected current file %q", s.CurrentFile())
	}
}

func TestSubmitBelowThresholdStaysBuffered(t *testing.T) {
	s, _ := newTestStore(t, Options{FlushInterval: time.Hour})
	ts := time.Unix(100, 0)
	for i := 0; i < 5; i++ {
		s.Submit(fmt.Sprintf("line %d", i), ts)
	}
	buf := s.CurrentBuffer()
	if len(buf) != 5 {
		t.Fatalf("want 5 buffered lines, got %d", len(buf))
	}
	if buf[0] != "1970-01-01T00:01:40Z line 0" {
		t.Fatalf("unexpected line format %q", buf[0])
	}
	if _, err := os.Stat(s.CurrentFile()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file written before flush: %v", err)
	}
}

func TestThresholdFlushDrainsBuffer(t *testing.T) {
	s, _ := newTestStore(t, Options{FlushInterval: time.Hour})
	ts := time.Unix(100, 0)
	var want []string
	// Queue all 22 submissions before the worker handles any of them.
	s.call(func() {
		for i := 0; i < 22; i++ {
			s.Submit(fmt.Sprintf("line %d", i), ts)
			want = append(want, formatLine(fmt.Sprintf("line %d", i), ts))
		}
	})
	waitFor(t, func() bool { return len(s.CurrentBuffer()) == 0 })

	got := readLines(t, s.CurrentFile())
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("file mismatch:\n got %q\nwant %q", got, want)
	}
	st := s.Stats()
	if st.Flushes != 1 || st.FlushedLines != 22 {
		t.Fatalf("expected one flush of 22 lines, got %+v", st)
	}
}

func TestRapidSubmissionsDrainInOrder(t *testing.T) {
	s, _ := newTestStore(t, Options{FlushInterval: 20 * time.Millisecond})
	ts := time.Unix(100, 0)
	var want []string
	for i := 0; i < 100; i++ {
		msg := fmt.Sprintf("msg %03d", i)
		s.Submit(msg, ts)
		want = append(want, formatLine(msg, ts))
	}
	waitFor(t, func() bool { return len(s.CurrentBuffer()) == 0 })

	got := readLines(t, s.CurrentFile())
	if len(got) != len(want) {
		t.Fatalf("want %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestTickerFlushesWithoutThreshold(t *testing.T) {
	s, _ := newTestStore(t, Options{FlushInterval: 20 * time.Millisecond})
	for i := 0; i < 3; i++ {
		s.Submit("tick", time.Unix(100, 0))
	}
	waitFor(t, func() bool { return s.Stats().FlushedLines == 3 })
	if got := readLines(t, s.CurrentFile()); len(got) != 3 {
		t.Fatalf("want 3 lines on disk, got %v", got)
	}
}

func TestForceFlushOnEmptyBufferIsNoop(t *testing.T) {
	s, out := newTestStore(t, Options{FlushInterval: time.Hour})
	s.ForceFlush()
	if _, err := os.Stat(s.CurrentFile()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("empty flush created a file: %v", err)
	}

	s.Submit("one", time.Unix(100, 0))
	s.ForceFlush()
	before, err := os.Stat(s.CurrentFile())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	s.ForceFlush()
	after, err := os.Stat(s.CurrentFile())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if before.Size() != after.Size() || !before.ModTime().Equal(after.ModTime()) {
		t.Fatalf("empty flush mutated the file")
	}
	if st := s.Stats(); st.Flushes != 1 || st.WriteErrors != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if out.String() != "" {
		t.Fatalf("unexpected reports: %q", out.String())
	}
}

func TestCurrentLogContentRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, Options{FlushInterval: time.Hour})
	ts := time.Unix(100, 0)
	var want []string
	for _, batch := range [][]string{{"a", "b"}, {"c"}, {"d", "e", "f"}} {
		for _, msg := range batch {
			s.Submit(msg, ts)
			want = append(want, formatLine(msg, ts))
		}
		s.ForceFlush()
	}
	s.Submit("unflushed", ts)
	want = append(want, formatLine("unflushed", ts))

	got, ok := s.CurrentLogContent()
	if !ok {
		t.Fatalf("expected content")
	}
	if got != strings.Join(want, "\n") {
		t.Fatalf("round trip mismatch:\n got %q\nwant %q", got, strings.Join(want, "\n"))
	}
}

func TestCurrentLogContentBeforeFirstWrite(t *testing.T) {
	s, out := newTestStore(t, Options{})
	if content, ok := s.CurrentLogContent(); ok || content != "" {
		t.Fatalf("expected absence, got %q %v", content, ok)
	}
	if out.String() != "" {
		t.Fatalf("missing file should not be reported: %q", out.String())
	}
}

func TestLogsDirectoryCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	s, _ := newTestStore(t, Options{Dir: dir})
	s.Submit("x", time.Unix(100, 0))
	got, ok := s.LogsDirectory()
	if !ok || got != dir {
		t.Fatalf("got %q %v, want %q", got, ok, dir)
	}
	if _, err := os.Stat(s.CurrentFile()); err != nil {
		t.Fatalf("LogsDirectory did not flush: %v", err)
	}
}

func TestSessionsWriteSeparateFiles(t *testing.T) {
	dir := t.TempDir()
	first, _ := newTestStore(t, Options{Dir: dir})
	first.Submit("first", time.Unix(111, 0))
	first.ForceFlush()
	oldFile := first.CurrentFile()
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, _ := newTestStore(t, Options{Dir: dir})
	second.Submit("second", time.Unix(222, 0))
	second.ForceFlush()
	if second.CurrentFile() == oldFile {
		t.Fatalf("new store reused %s", oldFile)
	}
	content, ok := second.CurrentLogContent()
	if !ok || !strings.HasSuffix(content, "second") || strings.Contains(content, "first") {
		t.Fatalf("unexpected new content %q", content)
	}
	old, err := os.ReadFile(oldFile)
	if err != nil {
		t.Fatalf("read old: %v", err)
	}
	if !strings.HasSuffix(string(old), "first") {
		t.Fatalf("old file changed: %q", old)
	}
}

func TestCloseFlushesAndDropsLateSubmits(t *testing.T) {
	s, _ := newTestStore(t, Options{FlushInterval: time.Hour})
	for i := 0; i < 3; i++ {
		s.Submit(fmt.Sprintf("pending %d", i), time.Unix(100, 0))
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if got := readLines(t, s.CurrentFile()); len(got) != 3 {
		t.Fatalf("want 3 lines after close, got %v", got)
	}

	s.Submit("late", time.Unix(100, 0))
	s.ForceFlush()
	if st := s.Stats(); st.Dropped != 1 || st.Submitted != 3 {
		t.Fatalf("unexpected stats %+v", st)
	}
	content, ok := s.CurrentLogContent()
	if !ok || strings.Contains(content, "late") {
		t.Fatalf("unexpected content after close %q %v", content, ok)
	}
}

func TestConcurrentSubmittersKeepPerGoroutineOrder(t *testing.T) {
	s, _ := newTestStore(t, Options{FlushThreshold: 7, FlushInterval: 10 * time.Millisecond})
	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.Submit(fmt.Sprintf("w%d %d", w, i), time.Unix(100, 0))
			}
		}(w)
	}
	wg.Wait()

	content, ok := s.CurrentLogContent()
	if !ok {
		t.Fatalf("expected content")
	}
	lines := strings.Split(content, "\n")
	if len(lines) != workers*perWorker {
		t.Fatalf("want %d lines, got %d", workers*perWorker, len(lines))
	}
	next := make(map[string]int)
	for _, line := range lines {
		var w string
		var i int
		if _, err := fmt.Sscanf(strings.TrimPrefix(line, "1970-01-01T00:01:40Z "), "%s %d", &w, &i); err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		if i != next[w] {
			t.Fatalf("%s: got index %d, want %d", w, i, next[w])
		}
		next[w]++
	}
}

func TestWriteFailureIsReportedAndDropped(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	s, out := newTestStore(t, Options{Dir: filepath.Join(blocker, "logs"), FlushInterval: time.Hour})

	s.Submit("lost", time.Unix(100, 0))
	s.ForceFlush()
	if n := len(s.CurrentBuffer()); n != 0 {
		t.Fatalf("failed flush should not restore lines, buffer has %d", n)
	}
	if st := s.Stats(); st.WriteErrors != 1 || st.Flushes != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if !strings.Contains(out.String(), "flush failed") {
		t.Fatalf("write failure not reported: %q", out.String())
	}

	if _, ok := s.LogsDirectory(); ok {
		t.Fatalf("expected absence for unusable directory")
	}
	if _, ok := s.CurrentLogContent(); ok {
		t.Fatalf("expected absence for unreadable file")
	}
	if !strings.Contains(out.String(), "logs directory unavailable") {
		t.Fatalf("directory failure not reported: %q", out.String())
	}

	// The store keeps operating after failures.
	s.Submit("still accepted", time.Unix(100, 0))
	if n := len(s.CurrentBuffer()); n != 1 {
		t.Fatalf("want 1 buffered line, got %d", n)
	}
}

func TestInvalidUTF8IsSanitized(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	s.Submit("bad \xff byte", time.Unix(100, 0))
	content, ok := s.CurrentLogContent()
	if !ok || !strings.HasSuffix(content, "bad � byte") {
		t.Fatalf("unexpected content %q", content)
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	opened  []string
	flushed []int
	removed []string
	closed  *Stats
}

func (r *recordingObserver) OnOpen(file string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, file)
}

func (r *recordingObserver) OnFlush(_ string, lines, _ int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.flushed = append(r.flushed, lines)
	}
}

func (r *recordingObserver) OnRemove(file string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.removed = append(r.removed, filepath.Base(file))
	}
}

func (r *recordingObserver) OnClose(_ string, st Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = &st
}

func TestObserverSeesLifecycle(t *testing.T) {
	dir := t.TempDir()
	writeLogFiles(t, dir, "1.log", "2.log", "3.log")
	obs := &recordingObserver{}
	s, _ := newTestStore(t, Options{Dir: dir, MaxFiles: 2, Observer: obs})
	s.Submit("a", time.Unix(100, 0))
	s.Submit("b", time.Unix(100, 0))
	s.ForceFlush()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.opened) != 1 || obs.opened[0] != s.CurrentFile() {
		t.Fatalf("unexpected opens %v", obs.opened)
	}
	if strings.Join(obs.removed, ",") != "1.log" {
		t.Fatalf("unexpected removals %v", obs.removed)
	}
	if len(obs.flushed) != 1 || obs.flushed[0] != 2 {
		t.Fatalf("unexpected flushes %v", obs.flushed)
	}
	if obs.closed == nil || obs.closed.Submitted != 2 {
		t.Fatalf("unexpected close stats %+v", obs.closed)
	}
}
