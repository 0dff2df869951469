package log

import (
	"io"
	"os"
	"sync"
)

// WriterOutput writes formatted entries to an io.Writer, one write per entry.
type WriterOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterOutput wraps w. Writes are serialized.
func NewWriterOutput(w io.Writer) *WriterOutput {
	return &WriterOutput{w: w}
}

// Write implements Output.
func (o *WriterOutput) Write(_ *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := o.w.Write(formatted)
	return err
}

// Close implements Output. The wrapped writer is owned by the caller.
func (o *WriterOutput) Close() error { return nil }

// ConsoleOutput is the platform sink: fire-and-forget writes to stderr.
type ConsoleOutput struct {
	WriterOutput
}

// NewConsoleOutput returns an output writing to os.Stderr.
func NewConsoleOutput() *ConsoleOutput {
	return &ConsoleOutput{WriterOutput{w: os.Stderr}}
}

// Write implements Output. Console failures are dropped.
func (o *ConsoleOutput) Write(entry *Entry, formatted []byte) error {
	_ = o.WriterOutput.Write(entry, formatted)
	return nil
}

// NullOutput discards everything.
type NullOutput struct{}

// NewNullOutput returns an output that discards entries.
func NewNullOutput() NullOutput { return NullOutput{} }

func (NullOutput) Write(*Entry, []byte) error { return nil }
func (NullOutput) Close() error               { return nil }
