package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cinescope/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backlog and enrichment progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				cmdCtx := cmd.Context()
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				entries, err := st.CountWatchEntries(cmdCtx)
				if err != nil {
					return err
				}
				canonical, err := st.CanonicalCount(cmdCtx)
				if err != nil {
					return err
				}
				statusCounts, err := st.ProviderStatusCounts(cmdCtx)
				if err != nil {
					return err
				}
				checkpoint, err := st.LatestCheckpoint(cmdCtx)
				if err != nil {
					return err
				}

				fmt.Fprintln(out, sectionHeader("Backlog", colorize))
				fmt.Fprintf(out, "  Watch entries:     %d\n", entries)
				fmt.Fprintf(out, "  Canonical records: %d\n", canonical)
				fmt.Fprintln(out)

				fmt.Fprintln(out, sectionHeader("Last run", colorize))
				if checkpoint == nil {
					fmt.Fprintln(out, "  No enrichment run recorded")
				} else {
					printCheckpoint(cmd, checkpoint)
				}
				fmt.Fprintln(out)

				fmt.Fprintln(out, sectionHeader("Providers", colorize))
				if len(statusCounts) == 0 {
					fmt.Fprintln(out, "  No provider results yet")
					return nil
				}
				printProviderCounts(cmd, statusCounts)
				return nil
			})
		},
	}
}

func printCheckpoint(cmd *cobra.Command, checkpoint *store.Checkpoint) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Run:       %s\n", checkpoint.RunID)
	fmt.Fprintf(out, "  State:     %s\n", checkpoint.State)
	fmt.Fprintf(out, "  Started:   %s\n", checkpoint.StartedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(out, "  Processed: %d\n", checkpoint.Processed)
	if checkpoint.FinishedAt != nil {
		fmt.Fprintf(out, "  Finished:  %s\n", checkpoint.FinishedAt.Local().Format(time.RFC1123))
	}
	if checkpoint.State == store.RunInterrupted {
		fmt.Fprintln(out, "  Run 'cinescope enrich' to resume")
	}
}

func printProviderCounts(cmd *cobra.Command, counts map[string]map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		byStatus := counts[name]
		rows = append(rows, []string{
			name,
			strconv.Itoa(byStatus[store.ProviderStatusOK]),
			strconv.Itoa(byStatus[store.ProviderStatusPartial]),
			strconv.Itoa(byStatus[store.ProviderStatusUnmatched]),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Provider", "OK", "Partial", "Unmatched"},
		rows, 1, 2, 3,
	))
}
