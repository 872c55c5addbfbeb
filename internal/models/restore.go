package models

import (
	"fmt"
	"strings"
)

// Kinds of restorable items.
const (
	ItemRole     = "Role"
	ItemCategory = "Category"
	ItemChannel  = "Channel"
)

// Outcome is what happened to a single item during a restore.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeExisting Outcome = "existing"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// ItemResult is the result of restoring one role, category or channel.
type ItemResult struct {
	Kind    string  `json:"kind"`
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// RestoreCounts holds the number of entities created by a restore.
type RestoreCounts struct {
	Roles      int `json:"roles"`
	Categories int `json:"categories"`
	Channels   int `json:"channels"`
}

// RestoreReport collects the per-item results of a restore.
type RestoreReport struct {
	Restored RestoreCounts `json:"restored"`
	Errors   []string      `json:"errors"`
	Items    []ItemResult  `json:"items"`
}

// NewRestoreReport returns an empty report.
func NewRestoreReport() RestoreReport {
	return RestoreReport{Errors: []string{}, Items: []ItemResult{}}
}

// Add records an item result, updating the counts and the error list.
func (r *RestoreReport) Add(item ItemResult) {
	r.Items = append(r.Items, item)
	switch item.Outcome {
	case OutcomeCreated:
		switch item.Kind {
		case ItemRole:
			r.Restored.Roles++
		case ItemCategory:
			r.Restored.Categories++
		case ItemChannel:
			r.Restored.Channels++
		}
	case OutcomeFailed:
		r.Errors = append(r.Errors, fmt.Sprintf("%s '%s': %s", item.Kind, item.Name, item.Error))
	}
}

// ErrorSummary renders at most limit errors, one per line, followed by a
// remainder line when the list was truncated.
func (r RestoreReport) ErrorSummary(limit int) string {
	if len(r.Errors) == 0 {
		return ""
	}
	shown := r.Errors
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	text := strings.Join(shown, "\n")
	if rest := len(r.Errors) - len(shown); rest > 0 {
		text += fmt.Sprintf("\n... and %d more errors", rest)
	}
	return text
}
