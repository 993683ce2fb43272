// Package reconcile compares the issue keys known from feature files with the issues a remote
// import actually touched.
package reconcile

import (
	"sort"
	"strings"

	"github.com/fjglira/xraysync/internal/domain"
)

// ComputeOverlap splits two groups of identifiers into the ones both contain and the ones only
// one side contains. Duplicates are ignored and every result is sorted.
func ComputeOverlap(expected, actual []string) domain.OverlapResult {
	left := toSet(expected)
	right := toSet(actual)

	result := domain.OverlapResult{
		Intersection: []string{},
		LeftOnly:     []string{},
		RightOnly:    []string{},
	}
	for id := range left {
		if _, ok := right[id]; ok {
			result.Intersection = append(result.Intersection, id)
		} else {
			result.LeftOnly = append(result.LeftOnly, id)
		}
	}
	for id := range right {
		if _, ok := left[id]; !ok {
			result.RightOnly = append(result.RightOnly, id)
		}
	}
	sort.Strings(result.Intersection)
	sort.Strings(result.LeftOnly)
	sort.Strings(result.RightOnly)
	return result
}

// Report explains a mismatch. It is empty when both sides agree.
func Report(overlap domain.OverlapResult) string {
	var paragraphs []string
	if len(overlap.LeftOnly) > 0 {
		paragraphs = append(paragraphs, paragraph(
			"Issues referenced in feature file tags that were not updated by the import and might not exist:",
			overlap.LeftOnly,
		))
	}
	if len(overlap.RightOnly) > 0 {
		paragraphs = append(paragraphs, paragraph(
			"Issues updated by the import that are not referenced in feature file tags and might have been created:",
			overlap.RightOnly,
		))
	}
	return strings.Join(paragraphs, "\n\n")
}

func paragraph(title string, keys []string) string {
	var b strings.Builder
	b.WriteString(title)
	for _, key := range keys {
		b.WriteString("\n  ")
		b.WriteString(key)
	}
	return b.String()
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
