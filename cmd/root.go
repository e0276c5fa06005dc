package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/addonctl/internal/config"
	"github.com/bnema/addonctl/internal/logger"
)

// Version info set via ldflags at build time
var (
	version = "dev"
	commit  = "unknown"
)

var (
	verbose    bool
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "addonctl",
	Short:   "Addon collection manager for your streaming account",
	Version: version + " (" + commit + ")",
	Long: `A CLI and TUI to curate the addon collection of a streaming platform account.
Reorder, enable, rename and update addons locally with undo/redo, then push
the result to your account.

Quick start:
  addonctl login           Sign in with email and password
  addonctl addons          Open the interactive editor
  addonctl addons push     Push local changes to your account`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		if err := cfg.Dirs.EnsureAll(); err != nil {
			return err
		}
		return logger.Init(cfg.LogFile, verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeApp()
		logger.Close()
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		closeApp()
		logger.Close()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/addonctl/config.yaml)")
}
