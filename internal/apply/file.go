// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package apply

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trackport/internal/docx"
	"github.com/pdiddy/trackport/internal/report"
	"github.com/pdiddy/trackport/pkg/types"
)

// DefaultSuffix is inserted before the target's extension to name the output.
const DefaultSuffix = "_with_tracked_changes"

// OutputPath returns target with suffix inserted before its extension, e.g.
// report.docx becomes report_with_tracked_changes.docx.
func OutputPath(target, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	ext := filepath.Ext(target)
	return strings.TrimSuffix(target, ext) + suffix + ext
}

// ReadChangeSet loads a change set written by the extract stage.
func ReadChangeSet(path string) (*types.ChangeSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading change set %s: %w", path, err)
	}

	var set types.ChangeSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing change set %s: %w", path, err)
	}
	return &set, nil
}

// FileOptions adds document settings to Options for ApplyFile.
type FileOptions struct {
	Options

	// Author is recorded on every revision written. Empty means
	// docx.DefaultAuthor.
	Author string
}

// ApplyFile opens the document at target, applies changes, writes the
// summary to w and saves the result to output. The summary is written even
// when saving fails. The target file itself is not modified.
func ApplyFile(ctx context.Context, target, output string, changes []types.ChangeRecord, tr Translator, opts FileOptions, w io.Writer) (types.ChangeCounters, error) {
	doc, err := docx.Open(target)
	if err != nil {
		return types.ChangeCounters{}, err
	}
	defer doc.Close()

	if opts.Author != "" {
		doc.Author = opts.Author
	}

	counters, err := Apply(ctx, doc, changes, tr, opts.Options, w)
	if err != nil {
		return counters, err
	}
	report.Summary(w, counters)

	if err := doc.SaveAs(output); err != nil {
		return counters, fmt.Errorf("saving %s: %w", output, err)
	}
	return counters, nil
}
