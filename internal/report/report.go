// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders run results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/pdiddy/trackport/pkg/types"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	countColor   = color.New(color.FgGreen)
	skippedColor = color.New(color.FgYellow)
	deleteColor  = color.New(color.FgRed, color.CrossedOut)
	insertColor  = color.New(color.FgGreen, color.Underline)
)

// Summary writes the per-category counters, one "  - name: n" line each.
func Summary(w io.Writer, c types.ChangeCounters) {
	fmt.Fprintln(w)
	headerColor.Fprintln(w, "Change Detection SumUp:")
	for _, cat := range c.Categories() {
		n := countColor.Sprint(cat.Count)
		if cat.Name == "skipped" && cat.Count > 0 {
			n = skippedColor.Sprint(cat.Count)
		}
		fmt.Fprintf(w, "  - %s: %s\n", cat.Name, n)
	}
	if c.DeleteMisses > 0 {
		fmt.Fprintf(w, "  (%d deletions not found in their paragraph)\n", c.DeleteMisses)
	}
}

// Diff renders the difference between two versions of a paragraph as a
// character diff merged into readable chunks by semantic cleanup. Removed
// text appears as [-text-] and added text as {+text+}.
func Diff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString(deleteColor.Sprint("[-" + d.Text + "-]"))
		case diffmatchpatch.DiffInsert:
			b.WriteString(insertColor.Sprint("{+" + d.Text + "+}"))
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

// Runs writes recorded runs as an aligned table.
func Runs(w io.Writer, runs []types.RunRecord) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTARGET\tCHANGES\tINS\tDEL\tREP\tFMT\tBOLD\tSKIP\tTOOK")
	for _, r := range runs {
		c := r.Counters
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.Target, r.Changes,
			c.Insert, c.Delete, c.Replace, c.Format, c.Bold, c.Skipped,
			r.Duration().Round(time.Millisecond))
	}
	return tw.Flush()
}
