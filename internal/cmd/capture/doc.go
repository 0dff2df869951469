// Package capture exposes the Run entrypoint behind `lodge capture`: it opens
// the Lodge runtime, logs each line read from the input through it, and closes
// the runtime on EOF or SIGINT/SIGTERM so the final flush happens.
//
// Example:
//
//	cfg := config.Default()
//	cfg.Directory = "./logs"
//	_ = capture.Run(context.Background(), capture.Options{Config: cfg, Input: os.Stdin})
package capture
