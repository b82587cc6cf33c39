// Package report collects and renders the outcome of a conversion run.
package report

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Action is what a conversion did to one package directory.
type Action string

// Conversion actions.
const (
	ActionCreated     Action = "created"
	ActionUnchanged   Action = "unchanged"
	ActionMerged      Action = "merged"
	ActionOverwritten Action = "overwritten"
	ActionConflict    Action = "conflict"
	ActionEmpty       Action = "empty"
	ActionSkipped     Action = "skipped"
)

// Actions lists every action in display order.
var Actions = []Action{
	ActionCreated, ActionUnchanged, ActionMerged, ActionOverwritten,
	ActionConflict, ActionEmpty, ActionSkipped,
}

// Result is the outcome for one package directory.
type Result struct {
	Dir     string `json:"dir"                yaml:"dir"`
	Package string `json:"package"            yaml:"package"`
	Source  string `json:"source"             yaml:"source"`
	Target  string `json:"target"             yaml:"target"`
	Action  Action `json:"action"             yaml:"action"`
	Kind    string `json:"kind"               yaml:"kind"`
	Bytes   int64  `json:"bytes"              yaml:"bytes"`
	Cached  bool   `json:"cached"             yaml:"cached"`
	Written bool   `json:"written"            yaml:"written"`
	Diff    string `json:"diff,omitempty"     yaml:"diff,omitempty"`
	Message string `json:"message,omitempty"  yaml:"message,omitempty"`
}

// Summary aggregates a run.
type Summary struct {
	Directories int            `json:"directories" yaml:"directories"`
	Actions     map[Action]int `json:"actions"     yaml:"actions"`
	Kinds       map[string]int `json:"kinds"       yaml:"kinds"`
	BytesRead   int64          `json:"bytes_read"  yaml:"bytes_read"`
	CacheHits   int            `json:"cache_hits"  yaml:"cache_hits"`
	DurationMS  int64          `json:"duration_ms" yaml:"duration_ms"`
}

// Report is a complete run report.
type Report struct {
	Root    string   `json:"root"    yaml:"root"`
	DryRun  bool     `json:"dry_run" yaml:"dry_run"`
	Results []Result `json:"results" yaml:"results"`
	Summary Summary  `json:"summary" yaml:"summary"`
}

// New creates an empty report for root.
func New(root string, dryRun bool) *Report {
	return &Report{
		Root:    root,
		DryRun:  dryRun,
		Results: []Result{},
		Summary: Summary{
			Actions: map[Action]int{},
			Kinds:   map[string]int{},
		},
	}
}

// Finalize sorts results by directory and recomputes the summary.
func (r *Report) Finalize(elapsed time.Duration) {
	slices.SortFunc(r.Results, func(a, b Result) int {
		return strings.Compare(a.Dir, b.Dir)
	})

	summary := Summary{
		Directories: len(r.Results),
		Actions:     map[Action]int{},
		Kinds:       map[string]int{},
		DurationMS:  elapsed.Milliseconds(),
	}

	for _, res := range r.Results {
		summary.Actions[res.Action]++
		summary.BytesRead += res.Bytes

		if res.Kind != "" {
			summary.Kinds[res.Kind]++
		}

		if res.Cached {
			summary.CacheHits++
		}
	}

	r.Summary = summary
}

// Count returns how many results carry action.
func (r *Report) Count(action Action) int {
	return r.Summary.Actions[action]
}

// HasConflicts reports whether any directory ended in a conflict.
func (r *Report) HasConflicts() bool {
	return r.Count(ActionConflict) > 0
}

// kindNames returns the extraction kinds seen, sorted.
func (r *Report) kindNames() []string {
	return slices.Sorted(maps.Keys(r.Summary.Kinds))
}
