// Package log provides Lodge's leveled logging front-end.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that formats each entry once and
// hands it to a list of outputs:
//
//   - ConsoleOutput is the platform sink (stderr, fire-and-forget).
//   - StorageOutput submits lines to a durable Store (see pkg/logstore) and
//     owns the switch that enables or disables log storage.
//   - Forwarder fans entries out to registered Listeners.
//
// Quick start
//
//	store, _ := logstore.Open(logstore.Options{Dir: dir})
//	storage := log.NewStorageOutput(store)
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	    log.WithOutput(storage),
//	)
//	storage.SetReporter(l)
//	l = l.With(log.Component("capture"))
//	l.Info("session started", log.Str("dir", dir))
//	content, ok := storage.CurrentLog()
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config with text or
// JSON formatting and redacted keys.
//
// # Interop
//
// To integrate with libraries expecting *log.Logger, use ToStdLogger or
// RedirectStdLog.
package log
