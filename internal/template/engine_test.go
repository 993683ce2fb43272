package template_test

import (
	"testing/fstest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/xraysync/internal/domain"
	tmpl "github.com/fjglira/xraysync/internal/template"
)

var _ = Describe("Engine", func() {
	It("should load the built-in templates", func() {
		engine, err := tmpl.NewEngine()
		Expect(err).ToNot(HaveOccurred())
		Expect(engine.ListTemplates()).To(Equal([]string{"ambiguous", "missing"}))
	})

	It("should fail for unknown templates", func() {
		engine, err := tmpl.NewEngine()
		Expect(err).ToNot(HaveOccurred())
		_, err = engine.Render("nope", nil)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("ambiguous, missing"))
		Expect(domain.PhaseOf(err)).To(Equal(domain.PhaseTemplate))
	})

	It("should fail on missing data keys", func() {
		engine, err := tmpl.NewEngineFS(fstest.MapFS{
			"greeting.tmpl": {Data: []byte("Hello {{ .Name }}")},
		})
		Expect(err).ToNot(HaveOccurred())
		_, err = engine.Render("greeting", map[string]string{})
		Expect(err).To(HaveOccurred())
	})

	It("should trim trailing newlines and ignore other files", func() {
		engine, err := tmpl.NewEngineFS(fstest.MapFS{
			"greeting.tmpl": {Data: []byte("Hello {{ .Name | upper }}\n\n")},
			"notes.txt":     {Data: []byte("ignored")},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(engine.ListTemplates()).To(Equal([]string{"greeting"}))
		out, err := engine.Render("greeting", map[string]string{"Name": "xray"})
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("Hello XRAY"))
	})

	It("should fail without templates", func() {
		_, err := tmpl.NewEngineFS(fstest.MapFS{})
		Expect(err).To(HaveOccurred())
	})

	It("should report template syntax errors", func() {
		_, err := tmpl.NewEngineFS(fstest.MapFS{
			"broken.tmpl": {Data: []byte("{{ if }")},
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("broken.tmpl"))
	})
})

var _ = Describe("CustomFuncMap", func() {
	funcs := tmpl.CustomFuncMap()

	It("should replace blank names", func() {
		orNoName := funcs["orNoName"].(func(string) string)
		Expect(orNoName("  ")).To(Equal("<no name>"))
		Expect(orNoName("Login")).To(Equal("Login"))
	})

	It("should indent non-empty lines", func() {
		lines := funcs["lines"].(func(int, []string) string)
		Expect(lines(2, []string{"a", "", "b"})).To(Equal("  a\n\n  b"))
	})
})
