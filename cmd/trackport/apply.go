// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trackport/internal/apply"
)

var applyCmd = &cobra.Command{
	Use:   "apply <target.docx>",
	Short: "Apply a change set to a target-language document",
	Long: `Apply translates every record of a change set written by extract,
locates the best-matching paragraph of the target document and applies the
edit there as a tracked revision. The target is left untouched; the result is
written next to it with the configured suffix.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	bindApplyFlags(cmd)

	changesPath, _ := cmd.Flags().GetString("changes")
	set, err := apply.ReadChangeSet(cleanPath(changesPath))
	if err != nil {
		return err
	}

	target := cleanPath(args[0])
	if !isFile(target) {
		return fmt.Errorf("target %s: not a file", target)
	}

	output, err := applyRun(cmd.Context(), runConfig(cmd), set.Source, target, set.Changes, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nwrote %s\n", output)
	return nil
}

func init() {
	applyCmd.Flags().StringP("changes", "c", "", "change set file written by extract")
	applyCmd.MarkFlagRequired("changes")
	addApplyFlags(applyCmd)

	rootCmd.AddCommand(applyCmd)
}
