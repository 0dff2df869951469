package client

import (
	cfgpkg "github.com/rzbill/lodge/internal/config"
	"github.com/spf13/cobra"
)

// ConfigFunc resolves the configuration a command runs against (e.g. from a
// --config flag and the environment).
type ConfigFunc func() (cfgpkg.Config, error)

// NewRoot constructs a root Cobra command for the Lodge client.
// It registers the read-side and maintenance commands.
func NewRoot(config ConfigFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "lodge",
		Short: "Lodge client commands",
	}
	AddCommands(root, config)
	return root
}

// AddCommands registers the client commands on parent.
func AddCommands(parent *cobra.Command, config ConfigFunc) {
	parent.AddCommand(
		newListCommand(config),
		newCatCommand(config),
		newGrepCommand(config),
		newRotateCommand(config),
		newSessionsCommand(config),
	)
}
