// Package snapshot records issue fields before and after an Xray import so that fields the
// import overwrote can be detected and put back.
package snapshot

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/fjglira/xraysync/internal/jira"
)

// Restorable field names.
const (
	FieldSummary = "summary"
	FieldLabels  = "labels"
)

// DefaultFields are the fields captured when none are configured.
var DefaultFields = []string{FieldSummary, FieldLabels}

// Fields holds the captured values of one issue.
type Fields struct {
	Summary string
	Labels  []string
}

// Entry is the state of one issue at snapshot time. Err is set when the issue could not be read.
type Entry struct {
	Fields Fields
	Err    string
}

// Snapshot maps issue keys to their captured state.
type Snapshot map[string]Entry

// Errors returns "KEY: message" for every key that could not be read, sorted by key.
func (s Snapshot) Errors() []string {
	var out []string
	for _, key := range sortedKeys(s) {
		if s[key].Err != "" {
			out = append(out, fmt.Sprintf("%s: %s", key, s[key].Err))
		}
	}
	return out
}

// Drift describes an issue whose fields differ between two snapshots.
type Drift struct {
	Key     string
	Before  Fields
	After   Fields
	Changed []string
}

// DiffResult is the outcome of comparing two snapshots.
type DiffResult struct {
	Drifted []Drift
	Errors  []string
}

// Diff compares the given keys between before and after. Keys missing from either snapshot are
// ignored; keys that failed to be read in either snapshot are reported in Errors instead.
func Diff(before, after Snapshot, keys []string, fields []string) DiffResult {
	var result DiffResult
	seen := map[string]struct{}{}
	sorted := slices.Clone(keys)
	sort.Strings(sorted)
	for _, key := range sorted {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		b, okBefore := before[key]
		a, okAfter := after[key]
		if !okBefore || !okAfter {
			continue
		}
		if b.Err != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", key, b.Err))
			continue
		}
		if a.Err != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", key, a.Err))
			continue
		}
		if changed := changedFields(b.Fields, a.Fields, fields); len(changed) > 0 {
			result.Drifted = append(result.Drifted, Drift{Key: key, Before: b.Fields, After: a.Fields, Changed: changed})
		}
	}
	return result
}

func changedFields(before, after Fields, fields []string) []string {
	var changed []string
	for _, field := range fields {
		switch field {
		case FieldSummary:
			if before.Summary != after.Summary {
				changed = append(changed, field)
			}
		case FieldLabels:
			if !sameLabels(before.Labels, after.Labels) {
				changed = append(changed, field)
			}
		}
	}
	return changed
}

func sameLabels(a, b []string) bool {
	x, y := slices.Clone(a), slices.Clone(b)
	sort.Strings(x)
	sort.Strings(y)
	return slices.Equal(x, y)
}

// DefaultConcurrency bounds the number of issue reads in flight during a snapshot.
const DefaultConcurrency = 8

// Store reads and restores issue fields through Jira.
type Store struct {
	getter jira.IssueGetter
	editor jira.IssueEditor
	fields []string

	// Concurrency bounds parallel issue reads. Zero or less removes the bound.
	Concurrency int
}

// NewStore creates a Store capturing the given fields (DefaultFields if empty).
func NewStore(getter jira.IssueGetter, editor jira.IssueEditor, fields []string) *Store {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	return &Store{getter: getter, editor: editor, fields: fields, Concurrency: DefaultConcurrency}
}

// Fields returns the captured field names.
func (s *Store) Fields() []string {
	return s.fields
}

// Snapshot reads the current fields of every key. Failures are recorded per key.
func (s *Store) Snapshot(ctx context.Context, keys []string) Snapshot {
	unique := dedupe(keys)
	entries := make([]Entry, len(unique))

	var g errgroup.Group
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for i, key := range unique {
		g.Go(func() error {
			issue, err := s.getter.GetIssue(ctx, key, s.fields)
			if err != nil {
				entries[i] = Entry{Err: err.Error()}
				return nil
			}
			entries[i] = Entry{Fields: Fields{Summary: issue.Fields.Summary, Labels: issue.Fields.Labels}}
			return nil
		})
	}
	_ = g.Wait()

	snap := make(Snapshot, len(unique))
	for i, key := range unique {
		snap[key] = entries[i]
	}
	return snap
}

// Restore writes back every field that changed between before and after for the keys present in
// both. Keys that failed to be read in either snapshot are skipped, and so is an empty summary,
// which Jira does not accept. It returns the restored drifts and one error per issue that could
// not be edited.
func (s *Store) Restore(ctx context.Context, before, after Snapshot) ([]Drift, []error) {
	var keys []string
	for key := range before {
		if _, ok := after[key]; ok {
			keys = append(keys, key)
		}
	}

	var (
		restored []Drift
		errs     []error
	)
	for _, drift := range Diff(before, after, keys, s.fields).Drifted {
		fields := map[string]any{}
		for _, field := range drift.Changed {
			switch field {
			case FieldSummary:
				if drift.Before.Summary != "" {
					fields[FieldSummary] = drift.Before.Summary
				}
			case FieldLabels:
				labels := drift.Before.Labels
				if labels == nil {
					labels = []string{}
				}
				fields[FieldLabels] = labels
			}
		}
		if len(fields) == 0 {
			continue
		}
		if err := s.editor.EditIssue(ctx, drift.Key, fields); err != nil {
			errs = append(errs, err)
			continue
		}
		restored = append(restored, drift)
	}
	return restored, errs
}

func dedupe(keys []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func sortedKeys(s Snapshot) []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
