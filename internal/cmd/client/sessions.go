package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rzbill/lodge/internal/catalog"
	cfgpkg "github.com/rzbill/lodge/internal/config"
	pebblestore "github.com/rzbill/lodge/internal/storage/pebble"
	"github.com/spf13/cobra"
)

var errNoCatalog = errors.New("no session catalog")

// openCatalog opens an existing catalog. It never creates one.
func openCatalog(cfg cfgpkg.Config) (*catalog.Catalog, error) {
	if !cfg.CatalogEnabled {
		return nil, fmt.Errorf("%w: catalog disabled", errNoCatalog)
	}
	path := cfg.CatalogPath()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w at %s", errNoCatalog, path)
	}
	c, err := catalog.Open(catalog.Options{DataDir: path, Fsync: pebblestore.ParseFsyncMode(cfg.CatalogFsync)})
	if err != nil {
		// Pebble holds an exclusive lock while a writer has it open.
		return nil, fmt.Errorf("catalog busy or unreadable: %w", err)
	}
	return c, nil
}

// newSessionsCommand constructs the `sessions` subcommand.
func newSessionsCommand(config ConfigFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded store sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config()
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			all, _ := cmd.Flags().GetBool("all")
			anyDir, _ := cmd.Flags().GetBool("any-dir")

			c, err := openCatalog(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			opts := catalog.ListOptions{Limit: limit, IncludeRemoved: all}
			if !anyDir {
				dir, err := filepath.Abs(cfg.Directory)
				if err != nil {
					return err
				}
				opts.Dir = dir
			}
			sessions, err := c.List(opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tSTATE\tLINES\tBYTES\tERRORS\tFILE")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					s.ID, s.Started.Format(time.RFC3339), sessionState(s),
					s.Lines, s.Bytes, s.WriteErrors, filepath.Base(s.File))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum sessions to show (0 = all)")
	cmd.Flags().Bool("all", false, "Include sessions whose file was rotated away")
	cmd.Flags().Bool("any-dir", false, "Show sessions from every storage directory")
	return cmd
}

func sessionState(s catalog.Session) string {
	switch {
	case s.Removed:
		return "removed"
	case s.Open():
		return "open"
	default:
		return "closed"
	}
}
