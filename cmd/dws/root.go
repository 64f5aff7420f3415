package main

import (
	"github.com/spf13/cobra"

	"github.com/heartmarshall/dictionary-writing-system/internal/app"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "dws",
		Short:        "Dictionary writing system for LIFT dictionaries stored in BaseX",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), opts.configPath)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default $CONFIG_PATH or ./config.yaml)")
	cmd.AddCommand(serveCmd(opts), importCmd(opts), versionCmd())
	return cmd
}

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), opts.configPath)
		},
	}
}
