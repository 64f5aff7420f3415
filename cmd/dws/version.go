package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/dictionary-writing-system/internal/app"
)

func versionCmd() *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := app.Info()
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "dws %s\ncommit: %s\nbuilt:  %s\ngo:     %s\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion)
			return err
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return c
}
