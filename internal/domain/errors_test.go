package domain_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/xraysync/internal/domain"
)

var _ = Describe("XraySyncError", func() {
	It("should include every piece of context", func() {
		err := domain.NewErrorWithSuggestion(domain.PhaseParse, "login.feature", 12,
			"unexpected token", "check the indentation", errors.New("got 'Then'"))
		Expect(err.Error()).To(Equal("[parse] login.feature:12: unexpected token: got 'Then' (hint: check the indentation)"))
	})

	It("should omit what is not set", func() {
		Expect(domain.NewError(domain.PhaseConfig, "", 0, "validation failed", nil).Error()).
			To(Equal("[config]: validation failed"))
	})

	It("should unwrap to its cause", func() {
		err := domain.NewError(domain.PhaseSearch, "", 0, "failed to search issues", domain.ErrNoTestRun)
		Expect(errors.Is(err, domain.ErrNoTestRun)).To(BeTrue())
	})

	It("should find the phase through wrapping", func() {
		err := fmt.Errorf("sync: %w", domain.NewError(domain.PhaseUpload, "", 0, "import failed", nil))
		Expect(domain.PhaseOf(err)).To(Equal(domain.PhaseUpload))
		Expect(domain.PhaseOf(errors.New("plain"))).To(BeEmpty())
	})
})

var _ = Describe("FeatureFileData", func() {
	It("should only be valid without unresolved nodes", func() {
		data := &domain.FeatureFileData{AllIssueKeys: []string{"CALC-1"}}
		Expect(data.Valid()).To(BeTrue())

		data.Scenarios.MultipleIssueKeys = append(data.Scenarios.MultipleIssueKeys, domain.AmbiguousNode{
			IssueKeys: []string{"CALC-1", "CALC-2"},
		})
		Expect(data.Valid()).To(BeFalse())
	})
})

var _ = Describe("OverlapResult", func() {
	It("should report a mismatch when either side has extra keys", func() {
		Expect(domain.OverlapResult{Intersection: []string{"A"}}.Mismatch()).To(BeFalse())
		Expect(domain.OverlapResult{LeftOnly: []string{"A"}}.Mismatch()).To(BeTrue())
		Expect(domain.OverlapResult{RightOnly: []string{"B"}}.Mismatch()).To(BeTrue())
	})
})
