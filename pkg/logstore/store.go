package logstore

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/rzbill/lodge/pkg/log"
)

// Defaults used when the corresponding Options field is zero.
const (
	DefaultMaxFiles       = 20
	DefaultFlushThreshold = 20
	DefaultFlushInterval  = 3 * time.Second
	DefaultExtension      = ".log"
)

// Options configures a Store.
type Options struct {
	// Dir is the storage directory. Required. It is created on first write.
	Dir string
	// Extension of log files, including the dot.
	Extension string
	// MaxFiles is the number of log files kept by rotation.
	MaxFiles int
	// FlushThreshold triggers a flush once the buffer holds more lines.
	FlushThreshold int
	// FlushInterval bounds how long a submitted line stays in memory.
	FlushInterval time.Duration
	// Logger receives storage errors. Defaults to a stderr text logger.
	Logger log.Logger
	// Observer is notified of opens, flushes and removals. Optional.
	Observer Observer
	// Now overrides the clock used to name the current file.
	Now func() time.Time
}

func (o Options) withDefaults() (Options, error) {
	if strings.TrimSpace(o.Dir) == "" {
		return o, errors.New("logstore: Options.Dir is required")
	}
	if o.MaxFiles < 0 || o.FlushThreshold < 0 || o.FlushInterval < 0 {
		return o, fmt.Errorf("logstore: negative limit (maxFiles=%d flushThreshold=%d flushInterval=%s)",
			o.MaxFiles, o.FlushThreshold, o.FlushInterval)
	}
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	if !strings.HasPrefix(o.Extension, ".") || strings.ContainsAny(o.Extension, `/\`) {
		return o, fmt.Errorf("logstore: invalid extension %q", o.Extension)
	}
	if o.MaxFiles == 0 {
		o.MaxFiles = DefaultMaxFiles
	}
	if o.FlushThreshold == 0 {
		o.FlushThreshold = DefaultFlushThreshold
	}
	if o.FlushInterval == 0 {
		o.FlushInterval = DefaultFlushInterval
	}
	if o.Observer == nil {
		o.Observer = noopObserver{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o, nil
}

// Stats is a snapshot of store counters.
type Stats struct {
	Submitted    uint64
	FlushedLines uint64
	Flushes      uint64
	WriteErrors  uint64
	Dropped      uint64
}

type counters struct {
	submitted    atomic.Uint64
	flushedLines atomic.Uint64
	flushes      atomic.Uint64
	writeErrors  atomic.Uint64
	dropped      atomic.Uint64
}

// Store buffers log lines in memory and persists them to a log file that is
// created on the first flush. Each Store writes its own file; historical files
// in the directory are rotated when the Store opens.
type Store struct {
	opts     Options
	dir      string
	path     string
	started  time.Time
	reporter *reporter
	observer Observer
	stats    counters

	// Worker domain: pending is the hand-off queue; buf and ticker are owned by
	// the worker goroutine.
	qmu         sync.Mutex
	pending     []func()
	closed      bool
	wake        chan struct{}
	done        chan struct{}
	buf         []string
	ticker      *time.Ticker
	flushQueued bool

	// I/O domain.
	ioMu      sync.Mutex
	lock      *flock.Flock
	lockState lockState

	closeOnce sync.Once
	closeErr  error
}

// Open creates a Store for opts.Dir, rotates historical files and starts the
// worker. It fails only on invalid options; storage problems are reported
// through the logger and the store keeps running.
func Open(opts Options) (*Store, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, opts.Dir, err)
	}
	started := opts.Now()
	name, _ := newFileName(dir, opts.Extension, started)

	s := &Store{
		opts:     opts,
		dir:      dir,
		path:     filepath.Join(dir, name),
		started:  started,
		reporter: newReporter(opts.Logger),
		observer: opts.Observer,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	s.ioMu.Lock()
	s.observer.OnOpen(s.path, started)
	s.acquireLock()
	if s.lockState == lockHeld {
		if _, err := s.rotate(); err != nil {
			s.reporter.error("rotation failed", err, log.Str("dir", dir))
		}
	}
	s.ioMu.Unlock()

	go s.run()
	return s, nil
}

// Dir returns the absolute storage directory.
func (s *Store) Dir() string { return s.dir }

// Started returns the time the store was opened.
func (s *Store) Started() time.Time { return s.started }

// CurrentFile returns the path of this store's log file. The file may not
// exist until the first flush.
func (s *Store) CurrentFile() string { return s.path }

// SetLogger replaces the logger that receives storage errors.
func (s *Store) SetLogger(l log.Logger) { s.reporter.setLogger(l) }

// Submit enqueues one line stamped with ts. It never blocks on I/O. Lines
// submitted after Close are dropped.
func (s *Store) Submit(line string, ts time.Time) {
	entry := formatLine(strings.ToValidUTF8(line, "\uFFFD"), ts)
	if !s.post(func() { s.appendLine(entry) }) {
		s.stats.dropped.Add(1)
		return
	}
	s.stats.submitted.Add(1)
}

// ForceFlush writes every line submitted before the call and returns once
// they are on disk. After Close it is a no-op.
func (s *Store) ForceFlush() {
	s.call(s.flush)
}

// CurrentBuffer returns a copy of the lines not yet flushed.
func (s *Store) CurrentBuffer() []string {
	var out []string
	s.call(func() { out = append([]string(nil), s.buf...) })
	return out
}

// CurrentLogContent flushes, then returns the full content of the current
// file. It returns ("", false) when nothing has been written yet or the file
// cannot be read; read failures are reported.
func (s *Store) CurrentLogContent() (string, bool) {
	var (
		content string
		err     error
	)
	read := func() {
		s.ioMu.Lock()
		defer s.ioMu.Unlock()
		content, err = s.readCurrent()
	}
	if !s.call(func() { s.flush(); read() }) {
		read()
	}
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.reporter.error("read current log failed", err)
		}
		return "", false
	}
	return content, true
}

// LogsDirectory flushes, ensures the storage directory exists and returns it.
// It returns ("", false) if the directory cannot be created.
func (s *Store) LogsDirectory() (string, bool) {
	var err error
	ensure := func() {
		s.ioMu.Lock()
		defer s.ioMu.Unlock()
		err = s.ensureDir()
	}
	if !s.call(func() { s.flush(); ensure() }) {
		ensure()
	}
	if err != nil {
		s.reporter.error("logs directory unavailable", err)
		return "", false
	}
	return s.dir, true
}

// Rotate runs a rotation pass now. The current file is never removed. Only
// the store holding the directory lock may rotate.
func (s *Store) Rotate() ([]string, error) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	s.acquireLock()
	if s.lockState != lockHeld {
		return nil, ErrLocked
	}
	return s.rotate()
}

// rotate deletes overflow files. Callers hold ioMu and the directory lock.
func (s *Store) rotate() ([]string, error) {
	return Rotate(s.dir, RotateOptions{
		MaxFiles:  s.opts.MaxFiles,
		Extension: s.opts.Extension,
		Keep:      s.path,
		OnRemove:  s.observer.OnRemove,
	})
}

// Stats returns a snapshot of the store counters.
func (s *Store) Stats() Stats {
	return Stats{
		Submitted:    s.stats.submitted.Load(),
		FlushedLines: s.stats.flushedLines.Load(),
		Flushes:      s.stats.flushes.Load(),
		WriteErrors:  s.stats.writeErrors.Load(),
		Dropped:      s.stats.dropped.Load(),
	}
}

// Close flushes buffered lines, stops the worker and releases the directory
// lock. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.qmu.Lock()
		s.closed = true
		s.qmu.Unlock()
		s.signal()
		<-s.done

		s.ioMu.Lock()
		defer s.ioMu.Unlock()
		s.observer.OnClose(s.path, s.Stats())
		s.closeErr = s.releaseLock()
	})
	return s.closeErr
}
