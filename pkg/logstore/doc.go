// Package logstore implements Lodge's buffered, concurrent log storage.
//
// # Overview
//
// A Store accepts formatted lines from any goroutine, keeps them in an
// in-memory buffer and persists them to a single log file per Store:
//
//	<dir>/<unix-seconds-with-fraction>.log
//
// Each line on disk is "<RFC3339 UTC timestamp> <message>". Lines are joined
// with "\n" and the file never ends with a newline.
//
// # Concurrency
//
// Two serialized domains:
//   - a worker goroutine owns the buffer, the flush ticker and the threshold
//     trigger. Submit hands work to it through an unbounded queue and never
//     blocks.
//   - an I/O mutex serializes file writes, reads and rotation.
//
// The worker blocks on the I/O mutex while flushing. ForceFlush,
// CurrentLogContent and LogsDirectory wait for the worker, so they observe
// every line submitted before the call.
//
// # Flushing
//
// A flush is queued when the buffer holds more than FlushThreshold lines, and
// a ticker flushes every FlushInterval once the first line arrives. The file is
// created on the first non-empty flush by writing a temporary file and
// renaming it into place; later flushes append.
//
// # Rotation
//
// Open removes all but the MaxFiles newest log files, ordered by the numeric
// timestamp in their names. Files whose names are not numbers sort oldest.
// Deletion failures are collected and reported without stopping the pass.
// Only the store holding the directory lock (.lodge.lock) rotates.
//
// # Errors
//
// Storage errors never reach the caller of Submit. They are reported through
// the configured log.Logger, rate limited. Read-backs return ("", false).
//
// Usage:
//
//	s, err := logstore.Open(logstore.Options{Dir: dir})
//	if err != nil { /* invalid options */ }
//	defer s.Close()
//	s.Submit("INFO service started", time.Now())
//	content, ok := s.CurrentLogContent()
package logstore
