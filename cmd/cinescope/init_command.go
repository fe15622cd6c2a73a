package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cinescope/internal/config"
	"cinescope/internal/store"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Prepare the data directory and database",
		Long:  "Creates the configured data directories, writes a sample configuration if none exists, and applies database migrations so the store is ready for import.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var flagPath string
			if ctx.configFlag != nil {
				flagPath = strings.TrimSpace(*ctx.configFlag)
			}
			_, configPath, exists, err := config.Load(flagPath)
			if err != nil {
				return err
			}
			if !exists {
				if err := config.CreateSample(configPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote sample configuration to %s\n", configPath)
			}

			return ctx.withStore(func(st *store.Store) error {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Data directory: %s\n", cfg.Paths.DataDir)
				fmt.Fprintf(out, "Database: %s\n", st.Path())
				fmt.Fprintln(out, "Ready. Import a watch history with 'cinescope import <file.csv>'.")
				return nil
			})
		},
	}
}
