// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunRecord is one persisted apply run: which documents were involved and
// how every change record fared.
type RunRecord struct {
	ID         string         `json:"id" yaml:"id"`
	Source     string         `json:"source" yaml:"source"`
	Target     string         `json:"target" yaml:"target"`
	Output     string         `json:"output" yaml:"output"`
	Backend    string         `json:"backend" yaml:"backend"`
	Changes    int            `json:"changes" yaml:"changes"`
	Counters   ChangeCounters `json:"counters" yaml:"counters"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time      `json:"finished_at" yaml:"finished_at"`
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
