// Package cli implements the itemsvc command-line interface.
package cli

import (
	"fmt"
	"os"

	"item-catalog/internal/config"
	"item-catalog/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags
var Version = "dev"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configFile string
}

var flags rootFlags

// NewRootCmd creates the top-level "itemsvc" command. Running it without a
// subcommand starts the API server.
func NewRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:   "itemsvc",
		Short: "Item catalog REST API",
		Long:  "itemsvc serves the item catalog over HTTP and manages its database schema.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "optional config file (yaml, json or toml)")

	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger shared by subcommands.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg := config.Load(flags.configFile)

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, log, nil
}
