package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cinescope/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <movie-key or title>",
		Short: "Show the merged record for one movie",
		Long:  "Looks up a canonical record by movie key (IMDb id or title slug) or by exact title and prints every merged field with the provider that supplied it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withStore(func(st *store.Store) error {
				rec, err := st.FindCanonical(cmd.Context(), query)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("no record found for %q", query)
				}
				printCanonical(cmd, rec)
				return nil
			})
		},
	}
}

func printCanonical(cmd *cobra.Command, rec *store.CanonicalMovie) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	title := rec.Text[store.FieldTitle]
	if title == "" {
		title = rec.MovieKey
	}
	fmt.Fprintln(out, sectionHeader(title, colorize))
	fmt.Fprintf(out, "  Key:     %s\n", rec.MovieKey)
	fmt.Fprintf(out, "  Updated: %s\n", rec.UpdatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(rec.Text)+len(rec.Number))
	for _, field := range store.TextFields {
		value, ok := rec.Text[field]
		if !ok {
			continue
		}
		rows = append(rows, []string{field, truncate(value, 70), fieldSource(rec, field)})
	}
	for _, field := range store.NumberFields {
		value, ok := rec.Number[field]
		if !ok {
			continue
		}
		rows = append(rows, []string{field, formatNumber(value), fieldSource(rec, field)})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Field", "Value", "Source"},
			rows,
		))
	}

	if len(rec.Cast) > 0 {
		names := make([]string, 0, len(rec.Cast))
		for _, member := range rec.Cast {
			names = append(names, member.Name)
		}
		fmt.Fprintf(out, "Cast: %s\n", strings.Join(names, ", "))
	}
	if len(rec.Keywords) > 0 {
		words := make([]string, 0, len(rec.Keywords))
		for _, kw := range rec.Keywords {
			words = append(words, kw.Keyword)
		}
		fmt.Fprintf(out, "Keywords: %s\n", strings.Join(words, ", "))
	}
	if len(rec.ContentFlags) > 0 {
		fmt.Fprintln(out, "Content warnings:")
		for _, flag := range rec.ContentFlags {
			fmt.Fprintf(out, "  %s (%d yes / %d no)\n", flag.Topic, flag.YesVotes, flag.NoVotes)
		}
	}

	if len(rec.ProviderStatus) > 0 {
		names := make([]string, 0, len(rec.ProviderStatus))
		for name := range rec.ProviderStatus {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, rec.ProviderStatus[name]))
		}
		fmt.Fprintf(out, "Providers: %s\n", strings.Join(parts, " "))
	}
}

func fieldSource(rec *store.CanonicalMovie, field string) string {
	origin, ok := rec.Provenance[field]
	if !ok {
		return ""
	}
	return origin.Provider
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
