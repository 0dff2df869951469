package client

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rzbill/lodge/pkg/logstore"
	"github.com/spf13/cobra"
)

var errNoLogs = errors.New("no log files")

// newListCommand constructs the `ls` subcommand.
func newListCommand(config ConfigFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List log files, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config()
			if err != nil {
				return err
			}
			files, err := logstore.ListFiles(cfg.Directory, cfg.Extension)
			if err != nil {
				return err
			}
			showPath, _ := cmd.Flags().GetBool("path")

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
			for _, f := range files {
				name := f.Name
				if showPath {
					name = f.Path
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, f.Size, f.ModTime.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Bool("path", false, "Print absolute paths instead of base names")
	return cmd
}

// newCatCommand constructs the `cat` subcommand.
func newCatCommand(config ConfigFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "cat [file]",
		Short: "Print a log file (default: the newest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config()
			if err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
				if filepath.Base(path) == path {
					path = filepath.Join(cfg.Directory, path)
				}
			} else {
				files, err := logstore.ListFiles(cfg.Directory, cfg.Extension)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					return fmt.Errorf("%w in %s", errNoLogs, cfg.Directory)
				}
				path = files[0].Path
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			out := cmd.OutOrStdout()
			n, err := io.Copy(out, f)
			if err != nil {
				return err
			}
			// Stored files carry no trailing newline.
			if n > 0 {
				_, err = fmt.Fprintln(out)
			}
			return err
		},
	}
}
