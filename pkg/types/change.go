// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ChangeType identifies the kind of edit a ChangeRecord carries.
type ChangeType string

const (
	ChangeInsert  ChangeType = "insert"
	ChangeDelete  ChangeType = "delete"
	ChangeReplace ChangeType = "replace"
	ChangeFormat  ChangeType = "format"
)

// Valid reports whether t is one of the four known change types.
func (t ChangeType) Valid() bool {
	switch t {
	case ChangeInsert, ChangeDelete, ChangeReplace, ChangeFormat:
		return true
	}
	return false
}

// ChangeRecord is one tracked change lifted from the source document.
// Replace records carry TextDeleted and TextInserted; every other type
// carries Text.
type ChangeRecord struct {
	Type ChangeType `json:"type" yaml:"type"`

	// Text is the revised span for insert, delete and format records.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	TextDeleted  string `json:"text_deleted,omitempty" yaml:"text_deleted,omitempty"`
	TextInserted string `json:"text_inserted,omitempty" yaml:"text_inserted,omitempty"`

	// Context is the trimmed text of the paragraph enclosing the revision.
	// It anchors the fuzzy paragraph lookup in the target document.
	Context string `json:"context" yaml:"context"`

	// Bold is true when any part of the revised range is bold.
	Bold bool `json:"bold" yaml:"bold"`
}

// ChangeSet is the hand-off file between the extract and apply stages.
type ChangeSet struct {
	Source      string         `json:"source" yaml:"source"`
	ExtractedAt time.Time      `json:"extracted_at" yaml:"extracted_at"`
	Changes     []ChangeRecord `json:"changes" yaml:"changes"`
}

// ChangeCounters tallies apply outcomes by category.
type ChangeCounters struct {
	Insert  int `json:"insert" yaml:"insert"`
	Delete  int `json:"delete" yaml:"delete"`
	Replace int `json:"replace" yaml:"replace"`
	Format  int `json:"format" yaml:"format"`
	Bold    int `json:"bold" yaml:"bold"`
	Skipped int `json:"skipped" yaml:"skipped"`

	// DeleteMisses counts deletes whose translated text was absent from the
	// matched paragraph. These are neither applied nor skipped.
	DeleteMisses int `json:"delete_misses" yaml:"delete_misses"`
}

// Category is a named counter value, used for ordered summaries.
type Category struct {
	Name  string
	Count int
}

// Categories returns the six outcome categories in summary order.
func (c ChangeCounters) Categories() []Category {
	return []Category{
		{"insert", c.Insert},
		{"delete", c.Delete},
		{"replace", c.Replace},
		{"format", c.Format},
		{"bold", c.Bold},
		{"skipped", c.Skipped},
	}
}

// Total returns the sum of the six outcome categories.
func (c ChangeCounters) Total() int {
	return c.Insert + c.Delete + c.Replace + c.Format + c.Bold + c.Skipped
}

// Applied returns the number of records that mutated the target.
func (c ChangeCounters) Applied() int {
	return c.Insert + c.Delete + c.Replace + c.Format + c.Bold
}
