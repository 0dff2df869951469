package logstore

import "time"

// Observer receives storage events. Calls are made while the store holds its
// I/O lock, so implementations must not call back into the Store.
type Observer interface {
	OnOpen(file string, started time.Time)
	OnFlush(file string, lines, bytes int, err error)
	OnRemove(file string, err error)
	OnClose(file string, stats Stats)
}

type noopObserver struct{}

func (noopObserver) OnOpen(string, time.Time)        {}
func (noopObserver) OnFlush(string, int, int, error) {}
func (noopObserver) OnRemove(string, error)          {}
func (noopObserver) OnClose(string, Stats)           {}
