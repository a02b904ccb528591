// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/trackport/internal/extract"
)

const invalidPaths = "One or both file paths are invalid."

var (
	promptColor = color.New(color.FgYellow)
	stageColor  = color.New(color.FgCyan)
	doneColor   = color.New(color.FgGreen, color.Bold)
	errorColor  = color.New(color.FgRed)
)

func runPipeline(cmd *cobra.Command, args []string) error {
	bindApplyFlags(cmd)
	out := cmd.OutOrStdout()

	var source, target string
	switch len(args) {
	case 2:
		source, target = cleanPath(args[0]), cleanPath(args[1])
	case 0:
		var err error
		source, target, err = promptPaths(cmd.InOrStdin(), out)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("give both the source and the target path, or neither")
	}

	if !isFile(source) || !isFile(target) {
		errorColor.Fprintln(out, invalidPaths)
		return nil
	}

	stageColor.Fprintln(out, "\nExtracting changes from English document...")
	changes, err := extract.FromFile(source, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "found %d changes\n", len(changes))

	stageColor.Fprintln(out, "\nApplying tracked changes to Chinese document...")
	output, err := applyRun(cmd.Context(), runConfig(cmd), source, target, changes, out)
	if err != nil {
		return err
	}

	doneColor.Fprintf(out, "\nDone! See the output in: %s\n", output)
	return nil
}

// promptPaths asks for the source and target documents on in.
func promptPaths(in io.Reader, out io.Writer) (source, target string, err error) {
	r := bufio.NewReader(in)

	promptColor.Fprintln(out, "Please provide full path to the English (edited) .docx file:")
	if source, err = readLine(r); err != nil {
		return "", "", fmt.Errorf("reading source path: %w", err)
	}

	promptColor.Fprintln(out, "Please provide full path to the Chinese (original) .docx file:")
	if target, err = readLine(r); err != nil {
		return "", "", fmt.Errorf("reading target path: %w", err)
	}
	return source, target, nil
}

// readLine returns the next line from r as a cleaned path. A final line
// without a newline is accepted.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return cleanPath(line), nil
}

// cleanPath trims whitespace and any quotes left by drag-and-drop or
// "copy as path".
func cleanPath(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

func isFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
