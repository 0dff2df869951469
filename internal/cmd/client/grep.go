package client

import (
	"fmt"

	"github.com/rzbill/lodge/internal/query"
	"github.com/spf13/cobra"
)

// newGrepCommand constructs the `grep` subcommand.
func newGrepCommand(config ConfigFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grep",
		Short: "Print stored lines matching a CEL expression",
		Long: `Print stored lines, oldest first, for which --expr evaluates to true.

Variables: text, message, level, component, caller, file, line, ts_ms, now_ms.

Examples:
  lodge grep --expr 'level == "ERROR"'
  lodge grep --expr 'component == "capture" && message.contains("timeout")'
  lodge grep --expr 'now_ms - ts_ms < 600000' --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config()
			if err != nil {
				return err
			}
			expr, _ := cmd.Flags().GetString("expr")
			files, _ := cmd.Flags().GetStringSlice("file")
			limit, _ := cmd.Flags().GetInt("limit")
			withFile, _ := cmd.Flags().GetBool("with-filename")

			filter, err := query.NewFilter(expr)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var werr error
			err = query.Search(cmd.Context(), query.SearchOptions{
				Dir:       cfg.Directory,
				Extension: cfg.Extension,
				Files:     files,
				Filter:    filter,
				Limit:     limit,
			}, func(l query.Line) bool {
				if withFile {
					_, werr = fmt.Fprintf(out, "%s:%d: %s\n", l.File, l.Number, l.Text)
				} else {
					_, werr = fmt.Fprintln(out, l.Text)
				}
				return werr == nil
			})
			if err != nil {
				return err
			}
			return werr
		},
	}
	cmd.Flags().String("expr", "", "CEL boolean expression (empty matches every line)")
	cmd.Flags().StringSlice("file", nil, "Restrict to these log files (repeatable)")
	cmd.Flags().Int("limit", 0, "Stop after this many matches (0 = no limit)")
	cmd.Flags().BoolP("with-filename", "H", false, "Prefix each line with file:line")
	return cmd
}
