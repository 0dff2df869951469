package logstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// encodeBatch joins lines with a newline separator. No trailing newline is
// added; the next batch is prefixed with one instead.
func encodeBatch(lines []string) ([]byte, error) {
	data := strings.Join(lines, "\n")
	if !utf8.ValidString(data) {
		return nil, ErrEncoding
	}
	return []byte(data), nil
}

// writeBatch durably writes one batch to the current file. Callers hold ioMu.
func (s *Store) writeBatch(lines []string) (int, error) {
	data, err := encodeBatch(lines)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, s.dir, err)
		}
		s.acquireLock()
		if err := createAtomic(s.path, data); err != nil {
			return 0, err
		}
		return len(data), nil
	case err != nil:
		return 0, fmt.Errorf("%w: stat %s: %w", ErrWrite, s.path, err)
	}

	if info.Size() > 0 {
		data = append([]byte{'\n'}, data...)
	}
	if err := appendFile(s.path, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// createAtomic writes data to a hidden temporary file next to path and renames
// it into place, so readers never observe a partially written file.
func createAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrWrite, path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrWrite, path, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrWrite, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrWrite, path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrWrite, path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrWrite, path, err)
	}
	return nil
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrWrite, path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: append %s: %w", ErrWrite, path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrWrite, path, err)
	}
	return nil
}

// readCurrent returns the content of the current file. Callers hold ioMu.
func (s *Store) readCurrent() (string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRead, s.path, err)
	}
	return string(b), nil
}

// ensureDir creates the storage directory if needed. Callers hold ioMu.
func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, s.dir, err)
	}
	s.acquireLock()
	return nil
}
