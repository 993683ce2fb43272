// Package evidence uploads execution results in two steps: one bulk import without attachments,
// then one call per evidence item against the test run the item belongs to.
package evidence

import "github.com/fjglira/xraysync/internal/domain"

// Split is a bulk payload with its evidence detached.
type Split struct {
	// Payload is a copy of the input without evidence on any test that has a key.
	Payload domain.ImportPayload
	// Evidence holds the detached items by test key.
	Evidence map[string][]domain.EvidenceItem
	// Order lists the keys of Evidence in payload order.
	Order []string
}

// SplitPayload detaches the evidence of every keyed test. The input payload is left untouched,
// and every item ends up either in the stripped payload or in the evidence map, never both.
func SplitPayload(payload domain.ImportPayload) Split {
	split := Split{
		Payload:  payload,
		Evidence: map[string][]domain.EvidenceItem{},
	}
	if payload.Info != nil {
		info := *payload.Info
		info.TestEnvironments = append([]string(nil), payload.Info.TestEnvironments...)
		split.Payload.Info = &info
	}
	if payload.Tests == nil {
		return split
	}

	split.Payload.Tests = make([]domain.TestResult, len(payload.Tests))
	for i, test := range payload.Tests {
		if test.TestKey != "" && len(test.Evidence) > 0 {
			if _, ok := split.Evidence[test.TestKey]; !ok {
				split.Order = append(split.Order, test.TestKey)
			}
			split.Evidence[test.TestKey] = append(split.Evidence[test.TestKey], test.Evidence...)
			test.Evidence = nil
		} else if test.Evidence != nil {
			test.Evidence = append([]domain.EvidenceItem(nil), test.Evidence...)
		}
		split.Payload.Tests[i] = test
	}
	return split
}
