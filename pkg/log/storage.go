package log

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Store is the durable line store behind StorageOutput.
// *logstore.Store satisfies it.
type Store interface {
	Submit(line string, ts time.Time)
	ForceFlush()
	CurrentLogContent() (string, bool)
	LogsDirectory() (string, bool)
}

// StorageOutput submits every entry to a Store and owns the switch that turns
// log storage on and off.
type StorageOutput struct {
	store     Store
	formatter Formatter
	enabled   atomic.Bool

	mu       sync.RWMutex
	reporter Logger
}

// StorageOption configures a StorageOutput.
type StorageOption func(*StorageOutput)

// WithStorageFormatter overrides the formatter used for stored lines.
func WithStorageFormatter(f Formatter) StorageOption {
	return func(o *StorageOutput) { o.formatter = f }
}

// WithStorageEnabled sets the initial state of the storage switch.
func WithStorageEnabled(enabled bool) StorageOption {
	return func(o *StorageOutput) { o.enabled.Store(enabled) }
}

// NewStorageOutput creates an enabled StorageOutput. Stored lines are
// formatted without a timestamp; the store prefixes its own.
func NewStorageOutput(store Store, opts ...StorageOption) *StorageOutput {
	o := &StorageOutput{
		store:     store,
		formatter: &TextFormatter{DisableTimestamp: true, NoNewline: true},
	}
	o.enabled.Store(true)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetReporter sets the logger used to warn about read-backs while disabled.
func (o *StorageOutput) SetReporter(l Logger) {
	o.mu.Lock()
	o.reporter = l
	o.mu.Unlock()
}

// SetEnabled turns log storage on or off.
func (o *StorageOutput) SetEnabled(enabled bool) { o.enabled.Store(enabled) }

// Enabled reports whether entries are being stored.
func (o *StorageOutput) Enabled() bool { return o.enabled.Load() }

// Write implements Output.
func (o *StorageOutput) Write(entry *Entry, _ []byte) error {
	if !o.enabled.Load() {
		return nil
	}
	line, err := o.formatter.Format(entry)
	if err != nil {
		return err
	}
	o.store.Submit(strings.TrimRight(string(line), "\n"), entry.Timestamp)
	return nil
}

// Flush forces buffered lines to disk. It is a no-op while disabled.
func (o *StorageOutput) Flush() {
	if o.enabled.Load() {
		o.store.ForceFlush()
	}
}

// CurrentLog returns the content of the current log file. While storage is
// disabled it returns ("", false) without touching disk.
func (o *StorageOutput) CurrentLog() (string, bool) {
	if !o.enabled.Load() {
		o.warnDisabled()
		return "", false
	}
	return o.store.CurrentLogContent()
}

// LogsDirectory returns the directory holding all log files. While storage is
// disabled it returns ("", false) without touching disk.
func (o *StorageOutput) LogsDirectory() (string, bool) {
	if !o.enabled.Load() {
		o.warnDisabled()
		return "", false
	}
	return o.store.LogsDirectory()
}

// Close flushes the store so a final Fatal entry is not lost. The store
// itself is closed by its owner.
func (o *StorageOutput) Close() error {
	o.Flush()
	return nil
}

func (o *StorageOutput) warnDisabled() {
	o.mu.RLock()
	r := o.reporter
	o.mu.RUnlock()
	if r != nil {
		r.Warn("log storage is disabled")
	}
}
