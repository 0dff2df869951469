package logstore

import "errors"

var (
	// ErrEncoding is returned when a batch cannot be converted to bytes.
	ErrEncoding = errors.New("logstore: encoding failure")
	// ErrDirectoryUnavailable is returned when the storage directory cannot be
	// resolved or created.
	ErrDirectoryUnavailable = errors.New("logstore: directory unavailable")
	// ErrWrite is returned when creating or appending to the current file fails.
	ErrWrite = errors.New("logstore: write failure")
	// ErrRead is returned when reading the current file or listing the
	// directory fails.
	ErrRead = errors.New("logstore: read failure")
	// ErrDelete is returned when rotation cannot remove an overflow file.
	ErrDelete = errors.New("logstore: delete failure")
	// ErrClosed is returned by operations on a closed Store.
	ErrClosed = errors.New("logstore: store closed")
	// ErrLocked is returned when another store holds the directory lock.
	ErrLocked = errors.New("logstore: directory locked by another store")
)
