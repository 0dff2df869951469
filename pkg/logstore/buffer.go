package logstore

import (
	"time"

	"github.com/rzbill/lodge/pkg/log"
)

// post hands fn to the worker. It never blocks and reports false once the
// store is closed.
func (s *Store) post(fn func()) bool {
	s.qmu.Lock()
	if s.closed {
		s.qmu.Unlock()
		return false
	}
	s.pending = append(s.pending, fn)
	s.qmu.Unlock()
	s.signal()
	return true
}

func (s *Store) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// call runs fn on the worker and waits for it. It must not be used from the
// worker goroutine itself.
func (s *Store) call(fn func()) bool {
	done := make(chan struct{})
	if !s.post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	<-done
	return true
}

func (s *Store) takePending() ([]func(), bool) {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	ops := s.pending
	s.pending = nil
	return ops, s.closed
}

// run is the worker loop. It executes posted work in order, flushes on every
// tick once the ticker is armed, and performs the final flush on close.
func (s *Store) run() {
	defer close(s.done)
	defer func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
	}()

	for {
		select {
		case <-s.wake:
		case <-s.tick():
			s.flush()
			continue
		}
		ops, closed := s.takePending()
		for _, op := range ops {
			op()
		}
		if closed {
			s.flush()
			return
		}
	}
}

// tick returns the ticker channel, or nil (blocks forever) until armed.
func (s *Store) tick() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C
}

// appendLine runs on the worker. The first line arms the flush ticker for the
// rest of the store's life. Crossing the threshold queues one flush behind the
// work already pending.
func (s *Store) appendLine(line string) {
	s.buf = append(s.buf, line)
	if s.ticker == nil {
		s.ticker = time.NewTicker(s.opts.FlushInterval)
	}
	if len(s.buf) > s.opts.FlushThreshold && !s.flushQueued {
		s.flushQueued = true
		s.post(func() {
			s.flushQueued = false
			s.flush()
		})
	}
}

// flush runs on the worker. The buffer is taken and cleared in one step; a
// failed write drops the taken lines.
func (s *Store) flush() {
	if len(s.buf) == 0 {
		return
	}
	lines := s.buf
	s.buf = nil

	s.ioMu.Lock()
	n, err := s.writeBatch(lines)
	s.observer.OnFlush(s.path, len(lines), n, err)
	s.ioMu.Unlock()

	if err != nil {
		s.stats.writeErrors.Add(1)
		s.reporter.error("flush failed", err, log.Str("file", s.path), log.Int("lines", len(lines)))
		return
	}
	s.stats.flushes.Add(1)
	s.stats.flushedLines.Add(uint64(len(lines)))
}
