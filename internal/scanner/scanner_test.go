package scanner_test

import (
	"path/filepath"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/xraysync/internal/domain"
	"github.com/fjglira/xraysync/internal/scanner"
)

var _ = Describe("Scanner", func() {
	var (
		s     *scanner.FeatureScanner
		valid string
	)

	BeforeEach(func() {
		s = scanner.NewScanner(true)
		valid = filepath.Join("..", "..", "testdata", "features", "valid")
	})

	bases := func(files []string) []string {
		out := make([]string, len(files))
		for i, f := range files {
			out[i] = filepath.Base(f)
		}
		return out
	}

	It("should find feature files in nested directories", func() {
		files, err := s.Scan(valid, []string{"*.feature"}, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(bases(files)).To(Equal([]string{"login.feature", "cart.feature"}))
	})

	It("should return sorted file paths", func() {
		files, err := s.Scan(filepath.Join("..", "..", "testdata", "features"), []string{"*.feature"}, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(files).To(HaveLen(4))
		Expect(sort.StringsAreSorted(files)).To(BeTrue())
	})

	It("should respect exclude patterns", func() {
		files, err := s.Scan(valid, []string{"*.feature"}, []string{"nested/**"})
		Expect(err).ToNot(HaveOccurred())
		Expect(bases(files)).To(Equal([]string{"login.feature"}))
	})

	It("should match patterns with directories", func() {
		files, err := s.Scan(valid, []string{"**/cart.feature"}, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(bases(files)).To(Equal([]string{"cart.feature"}))

		files, err = s.Scan(valid, []string{"nested/*.feature"}, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(bases(files)).To(Equal([]string{"cart.feature"}))
	})

	It("should only match included files", func() {
		files, err := s.Scan(valid, []string{"*.md"}, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(bases(files)).To(Equal([]string{"README.md"}))
	})

	It("should handle non-recursive mode", func() {
		s = scanner.NewScanner(false)
		files, err := s.Scan(valid, []string{"*.feature"}, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(bases(files)).To(Equal([]string{"login.feature"}))
	})

	It("should return error for nonexistent directory", func() {
		_, err := s.Scan("nonexistent_dir", []string{"*.feature"}, nil)
		Expect(err).To(HaveOccurred())
		Expect(domain.PhaseOf(err)).To(Equal(domain.PhaseScan))
	})

	Describe("ScanAll", func() {
		It("should merge directories without duplicates", func() {
			nested := filepath.Join(valid, "nested")
			files, errs := scanner.ScanAll(s, []string{nested, valid, "nonexistent_dir"}, []string{"*.feature"}, nil)
			Expect(errs).To(HaveLen(1))
			Expect(bases(files)).To(Equal([]string{"cart.feature", "login.feature"}))
		})
	})
})
