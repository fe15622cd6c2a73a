package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cinescope/internal/store"
	"cinescope/internal/watchlist"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a watch-history CSV export",
		Long:  "Reads an IMDb ratings or watchlist CSV export and appends new viewing entries. Rows already imported are skipped, so re-running on a fresh export is safe.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				importer := watchlist.NewImporter(st, ctx.ensureLogger())
				summary, err := importer.ImportFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d of %d rows", summary.Imported, summary.Rows)
				if summary.Duplicates > 0 {
					fmt.Fprintf(out, " (%d already present)", summary.Duplicates)
				}
				if summary.Skipped > 0 {
					fmt.Fprintf(out, " (%d non-movie rows skipped)", summary.Skipped)
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}
}
