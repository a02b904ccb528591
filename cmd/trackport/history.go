// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trackport/internal/report"
	"github.com/pdiddy/trackport/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded apply runs",
	Long: `History lists past apply runs from the local database, newest first,
with the outcome counters of each run and the size of the translation cache.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := runConfig(cmd)
	st, err := store.NewStore(cfg.Cache)
	if err != nil {
		return err
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	out := cmd.OutOrStdout()

	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return st.ExportYAML(cmd.Context(), out, limit)
	}

	runs, err := st.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if err := report.Runs(out, runs); err != nil {
		return err
	}

	stats, err := st.Stats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\ntranslation cache: %d entries, %d hits (%s)\n", stats.Entries, stats.Hits, st.Path())
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")
	historyCmd.Flags().Bool("yaml", false, "print runs as YAML")

	rootCmd.AddCommand(historyCmd)
}
