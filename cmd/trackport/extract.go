// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trackport/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract <source.docx>",
	Short: "List the tracked changes of a document as a YAML change set",
	Long: `Extract reads the tracked revisions of the source document and writes
them as change records (insert, delete, replace, format) with their enclosing
paragraph text as context. A deletion directly followed by an insertion in the
same paragraph becomes a single replace record.

The change set can be reviewed or edited before running apply.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	source := cleanPath(args[0])
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = strings.TrimSuffix(source, filepath.Ext(source)) + "-changes.yaml"
	}

	changes, err := extract.FromFile(source, log)
	if err != nil {
		return err
	}
	if err := extract.WriteChangeSet(output, source, changes); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d changes to %s\n", len(changes), output)
	return nil
}

func init() {
	extractCmd.Flags().StringP("output", "o", "", "change set file (default: <source>-changes.yaml)")

	rootCmd.AddCommand(extractCmd)
}
