package log

import "sync"

// Listener receives every entry that passes the level gate, after it has been
// written to the platform sink.
type Listener interface {
	Log(entry *Entry)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(entry *Entry)

// Log implements Listener.
func (f ListenerFunc) Log(entry *Entry) { f(entry) }

// Forwarder is an Output that fans entries out to registered listeners.
// Listeners are called synchronously on the logging goroutine.
type Forwarder struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewForwarder creates a Forwarder with an initial set of listeners.
func NewForwarder(listeners ...Listener) *Forwarder {
	f := &Forwarder{}
	f.Setup(listeners...)
	return f
}

// Setup replaces the registered listeners.
func (f *Forwarder) Setup(listeners ...Listener) {
	ls := append([]Listener(nil), listeners...)
	f.mu.Lock()
	f.listeners = ls
	f.mu.Unlock()
}

// Add registers one more listener.
func (f *Forwarder) Add(l Listener) {
	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	f.mu.Unlock()
}

// Write implements Output.
func (f *Forwarder) Write(entry *Entry, _ []byte) error {
	f.mu.RLock()
	ls := f.listeners
	f.mu.RUnlock()
	for _, l := range ls {
		l.Log(entry)
	}
	return nil
}

// Close implements Output.
func (f *Forwarder) Close() error { return nil }
