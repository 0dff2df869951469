package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rzbill/lodge/internal/cmd/capture"
	clientcmd "github.com/rzbill/lodge/internal/cmd/client"
	cfgpkg "github.com/rzbill/lodge/internal/config"
	logpkg "github.com/rzbill/lodge/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// initialize logger for CLI
	// Respect LODGE_LOG_LEVEL for CLI output
	level := os.Getenv("LODGE_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:           "lodge",
		Short:         "Lodge log storage CLI",
		Long:          "Lodge buffers log lines and stores them in rotated session files. This CLI captures input into a log directory and inspects stored logs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", os.Getenv("LODGE_CONFIG"), "Config file (JSON or YAML)")
	rootCmd.PersistentFlags().String("dir", "", "Log directory (overrides config and LODGE_DIRECTORY)")

	loadConfig := func() (cfgpkg.Config, error) {
		path, _ := rootCmd.PersistentFlags().GetString("config")
		cfg, err := cfgpkg.Load(path)
		if err != nil {
			return cfgpkg.Config{}, err
		}
		cfgpkg.FromEnv(&cfg)
		if dir, _ := rootCmd.PersistentFlags().GetString("dir"); dir != "" {
			cfg.Directory = dir
		}
		return cfg, cfg.Validate()
	}

	// capture
	captureCmd := &cobra.Command{
		Use:   "capture",
		Short: "Store lines read from stdin until EOF or interrupt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			component, _ := cmd.Flags().GetString("component")
			lineLevel, _ := cmd.Flags().GetString("level")
			noStorage, _ := cmd.Flags().GetBool("no-storage")
			if noStorage {
				cfg.StorageEnabled = false
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := capture.Run(ctx, capture.Options{
				Config:    cfg,
				Input:     cmd.InOrStdin(),
				Component: component,
				Level:     lineLevel,
			}); err != nil {
				return fmt.Errorf("capture error: %w", err)
			}
			return nil
		},
	}
	captureCmd.Flags().String("component", "capture", "Component tag for captured lines")
	captureCmd.Flags().String("level", "info", "Level captured lines are logged at: debug|info|warn|error")
	captureCmd.Flags().Bool("no-storage", false, "Echo to the console only; do not store lines")
	rootCmd.AddCommand(captureCmd)

	// config
	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "directory:       %s\n", cfg.Directory)
			fmt.Fprintf(out, "storage:         %t\n", cfg.StorageEnabled)
			fmt.Fprintf(out, "maxFiles:        %d\n", cfg.MaxFiles)
			fmt.Fprintf(out, "flushThreshold:  %d\n", cfg.FlushThreshold)
			fmt.Fprintf(out, "flushInterval:   %s\n", cfg.FlushInterval())
			fmt.Fprintf(out, "extension:       %s\n", cfg.Extension)
			fmt.Fprintf(out, "catalog:         %t (%s)\n", cfg.CatalogEnabled, cfg.CatalogPath())
			return nil
		},
	})

	// ls, cat, grep, rotate, sessions
	clientcmd.AddCommands(rootCmd, loadConfig)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", logpkg.Err(err))
		os.Exit(1)
	}
}
