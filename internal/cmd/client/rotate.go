package client

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rzbill/lodge/internal/catalog"
	"github.com/rzbill/lodge/pkg/log"
	"github.com/rzbill/lodge/pkg/logstore"
	"github.com/spf13/cobra"
)

// removals collects the files a store deletes while rotating and marks their
// sessions removed when the catalog could be opened.
type removals struct {
	mu      sync.Mutex
	removed []string
	failed  []string
	catalog *catalog.Catalog
}

func (r *removals) OnOpen(string, time.Time)        {}
func (r *removals) OnFlush(string, int, int, error) {}
func (r *removals) OnClose(string, logstore.Stats)  {}

func (r *removals) OnRemove(file string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failed = append(r.failed, file)
		return
	}
	r.removed = append(r.removed, file)
	if r.catalog != nil {
		r.catalog.OnRemove(file, nil)
	}
}

// newRotateCommand constructs the `rotate` subcommand. It opens a store on the
// directory, which rotates when it can take the directory lock, so a running
// writer is never raced.
func newRotateCommand(config ConfigFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Delete the oldest log files beyond the retention limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config()
			if err != nil {
				return err
			}
			maxFiles, _ := cmd.Flags().GetInt("max")
			if maxFiles <= 0 {
				maxFiles = cfg.MaxFiles
			}

			if info, err := os.Stat(cfg.Directory); err != nil || !info.IsDir() {
				fmt.Fprintf(cmd.OutOrStdout(), "0 removed, %s does not exist\n", cfg.Directory)
				return nil
			}

			seen := &removals{}
			if c, err := openCatalog(cfg); err == nil {
				seen.catalog = c
				defer c.Close()
			}
			logger := log.NewLogger(
				log.WithFormatter(&log.TextFormatter{DisableTimestamp: true}),
				log.WithOutput(log.NewWriterOutput(cmd.ErrOrStderr())),
			)
			store, err := logstore.Open(logstore.Options{
				Dir:       cfg.Directory,
				Extension: cfg.Extension,
				MaxFiles:  maxFiles,
				Logger:    logger,
				Observer:  seen,
			})
			if err != nil {
				return err
			}
			// Open already rotated if it owns the directory; this reports
			// whether it could.
			_, rerr := store.Rotate()
			if cerr := store.Close(); cerr != nil && rerr == nil {
				rerr = cerr
			}

			out := cmd.OutOrStdout()
			seen.mu.Lock()
			defer seen.mu.Unlock()
			for _, f := range seen.removed {
				fmt.Fprintln(out, "removed", f)
			}
			for _, f := range seen.failed {
				fmt.Fprintln(out, "failed", f)
			}
			if errors.Is(rerr, logstore.ErrLocked) {
				return fmt.Errorf("%s is in use by another process: %w", cfg.Directory, rerr)
			}
			if rerr != nil {
				return rerr
			}
			fmt.Fprintf(out, "%d removed, keeping at most %d\n", len(seen.removed), maxFiles)
			return nil
		},
	}
	cmd.Flags().Int("max", 0, "Files to keep (default: configured maxFiles)")
	return cmd
}
