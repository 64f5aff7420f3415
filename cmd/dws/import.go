package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/dictionary-writing-system/internal/app"
	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
	"github.com/heartmarshall/dictionary-writing-system/internal/service/dictionary"
)

func importCmd(opts *options) *cobra.Command {
	var mode string
	var rangesPath string
	var format string

	c := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a LIFT file into the configured database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := domain.ImportMode(mode)
			if !m.IsValid() {
				return fmt.Errorf("invalid --mode %q (want skip, merge or replace)", mode)
			}
			if format != "pretty" && format != "json" {
				return fmt.Errorf("invalid --format %q (want pretty or json)", format)
			}

			res, err := app.Import(cmd.Context(), app.ImportOptions{
				ConfigPath: opts.configPath,
				Path:       args[0],
				RangesPath: rangesPath,
				Mode:       m,
			})
			if err != nil {
				return err
			}
			return printImport(cmd.OutOrStdout(), res, format)
		},
	}

	c.Flags().StringVarP(&mode, "mode", "m", string(domain.ImportModeSkip), "How to treat existing entries: skip|merge|replace")
	c.Flags().StringVar(&rangesPath, "ranges", "", "Optional .lift-ranges file stored before the entries")
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")
	return c
}

func printImport(w io.Writer, res *dictionary.ImportResult, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "entries:  %d\n", res.Total)
	fmt.Fprintf(w, "imported: %d\n", res.Imported)
	fmt.Fprintf(w, "updated:  %d\n", res.Updated)
	fmt.Fprintf(w, "skipped:  %d\n", res.Skipped)
	fmt.Fprintf(w, "stored:   %d\n", res.Stored)
	for _, e := range res.Errors {
		if e.EntryID != "" {
			fmt.Fprintf(w, "  #%d %s: %s\n", e.Index, e.EntryID, e.Reason)
		} else {
			fmt.Fprintf(w, "  #%d: %s\n", e.Index, e.Reason)
		}
	}
	return nil
}
