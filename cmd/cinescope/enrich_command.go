package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cinescope/internal/pipeline"
	"cinescope/internal/providers"
	"cinescope/internal/store"
)

var providerNames = []string{
	providers.NameTMDB,
	providers.NameOMDB,
	providers.NameWikidata,
	providers.NameDogDie,
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var restart bool
	var limit int
	var rematch bool

	cmd := &cobra.Command{
		Use:   "enrich [provider]",
		Short: "Fetch provider metadata for the imported backlog",
		Long: "Resolves each imported movie to provider identifiers, fetches metadata, and merges it into canonical records. " +
			"Interrupted runs resume where they left off. Pass a provider name to fetch from that provider only.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var only string
			if len(args) == 1 {
				only = strings.ToLower(strings.TrimSpace(args[0]))
				if !validProvider(only) {
					return fmt.Errorf("unknown provider %q (choose from %s)", args[0], strings.Join(providerNames, ", "))
				}
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			checks := pipeline.Preflight(cfg)
			for _, check := range checks {
				fmt.Fprintln(out, checkLine(check.Name, check.Passed, check.Detail, colorize))
			}
			if !pipeline.PreflightOK(checks) {
				return fmt.Errorf("preflight checks failed")
			}

			return ctx.withStore(func(st *store.Store) error {
				runner, err := ctx.buildRunner(st)
				if err != nil {
					return err
				}

				runCtx, stop := signalContext(cmd.Context())
				defer stop()

				summary, err := runner.Run(runCtx, pipeline.Options{
					Restart: restart,
					Limit:   limit,
					Only:    only,
					Rematch: rematch,
				})
				if summary != nil {
					printRunSummary(cmd, summary)
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&restart, "restart", false, "Abandon any resumable run and start from the top")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many movies (0 means no limit)")
	cmd.Flags().BoolVar(&rematch, "rematch", false, "Re-resolve provider identifiers instead of using cached matches")
	return cmd
}

func validProvider(name string) bool {
	for _, known := range providerNames {
		if name == known {
			return true
		}
	}
	return false
}

func printRunSummary(cmd *cobra.Command, summary *pipeline.Summary) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Run %s: processed %d", summary.RunID, summary.Processed)
	if summary.Remaining > 0 {
		fmt.Fprintf(out, ", remaining %d", summary.Remaining)
	}
	if summary.Errors > 0 {
		fmt.Fprintf(out, ", errors %d", summary.Errors)
	}
	if summary.Resumed {
		fmt.Fprint(out, " (resumed)")
	}
	fmt.Fprintln(out)

	if len(summary.Providers) == 0 {
		return
	}

	names := make([]string, 0, len(summary.Providers))
	for name := range summary.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		outcome := summary.Providers[name]
		rows = append(rows, []string{
			name,
			strconv.Itoa(outcome.OK),
			strconv.Itoa(outcome.Partial),
			strconv.Itoa(outcome.Unmatched),
			yesNo(outcome.Halted),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Provider", "OK", "Partial", "Unmatched", "Halted"},
		rows, 1, 2, 3,
	))
}
