package logstore

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rzbill/lodge/pkg/log"
)

// LockFileName is the advisory lock held by the store that owns rotation for
// a directory. The leading dot keeps it out of file listings.
const LockFileName = ".lodge.lock"

type lockState int

const (
	lockUnknown lockState = iota
	lockHeld
	lockBusy
	lockReleased
)

// acquireLock tries to take the directory lock once the directory exists.
// A store that lost the race retries on later calls and warns only once.
// Callers hold ioMu.
func (s *Store) acquireLock() {
	if s.lockState == lockHeld || s.lockState == lockReleased {
		return
	}
	if info, err := os.Stat(s.dir); err != nil || !info.IsDir() {
		return
	}
	if s.lock == nil {
		s.lock = flock.New(filepath.Join(s.dir, LockFileName))
	}
	ok, err := s.lock.TryLock()
	switch {
	case err != nil:
		if s.lockState == lockUnknown {
			s.reporter.error("directory lock failed", err, log.Str("dir", s.dir))
		}
		s.lockState = lockBusy
	case !ok:
		if s.lockState == lockUnknown {
			s.reporter.warn("directory is locked by another store; rotation disabled", s.dir)
		}
		s.lockState = lockBusy
	default:
		s.lockState = lockHeld
	}
}

// releaseLock drops the directory lock if held. Callers hold ioMu.
func (s *Store) releaseLock() error {
	if s.lockState != lockHeld || s.lock == nil {
		return nil
	}
	s.lockState = lockReleased
	return s.lock.Unlock()
}
