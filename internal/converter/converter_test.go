package converter_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/fjglira/xraysync/internal/converter"
	"github.com/fjglira/xraysync/internal/domain"
)

var _ = Describe("Converter", func() {
	var (
		conv *converter.DefaultConverter
		hook *test.Hook
		opts converter.Options
	)

	BeforeEach(func() {
		var logger *logrus.Logger
		logger, hook = test.NewNullLogger()
		conv = converter.NewConverter(logger)
		opts = converter.Options{
			ProjectKey: "CALC",
			TestPrefix: "TestName:",
			Statuses:   converter.ServerStatuses,
		}
	})

	Describe("LoadReport", func() {
		It("should load a Cucumber JSON report", func() {
			features, err := converter.LoadReport(filepath.Join("..", "..", "testdata", "results", "cucumber.json"))
			Expect(err).ToNot(HaveOccurred())
			Expect(features).To(HaveLen(2))
			Expect(features[0].Elements).To(HaveLen(5))
			Expect(features[0].Elements[1].StartTimestamp).To(Equal("2024-05-01T10:00:00.000Z"))
			Expect(features[0].Elements[1].Steps[1].Embeddings[0].MimeType).To(Equal("image/png"))
		})

		It("should fail for a missing report", func() {
			_, err := converter.LoadReport("missing.json")
			Expect(err).To(HaveOccurred())
			Expect(domain.PhaseOf(err)).To(Equal(domain.PhaseConvert))
		})
	})

	Describe("Convert", func() {
		var payload domain.ImportPayload

		JustBeforeEach(func() {
			features, err := converter.LoadReport(filepath.Join("..", "..", "testdata", "results", "cucumber.json"))
			Expect(err).ToNot(HaveOccurred())
			payload = conv.Convert(features, opts)
		})

		It("should produce one result per test key in report order", func() {
			Expect(payload.Tests).To(HaveLen(3))
			Expect(payload.Tests[0].TestKey).To(Equal("CALC-1"))
			Expect(payload.Tests[1].TestKey).To(Equal("CALC-2"))
			Expect(payload.Tests[2].TestKey).To(Equal("CALC-5"))
		})

		It("should count background steps towards the following scenario", func() {
			passed := payload.Tests[0]
			Expect(passed.Status).To(Equal("PASS"))
			Expect(passed.Start).To(Equal("2024-05-01T10:00:00Z"))
			Expect(passed.Finish).To(Equal("2024-05-01T10:00:04Z"))

			failed := payload.Tests[1]
			Expect(failed.Status).To(Equal("FAIL"))
			Expect(failed.Comment).To(Equal("application is down"))
			Expect(failed.Start).To(Equal("2024-05-01T10:00:05Z"))
			Expect(failed.Finish).To(Equal("2024-05-01T10:00:05Z"))
		})

		It("should merge outline examples sharing a key", func() {
			outline := payload.Tests[2]
			Expect(outline.Status).To(Equal("TODO"))
			Expect(outline.Start).To(BeEmpty())
			Expect(outline.Finish).To(BeEmpty())
		})

		It("should turn embeddings into evidence", func() {
			Expect(payload.Tests[0].Evidence).To(Equal([]domain.EvidenceItem{
				{ContentType: "image/png", Data: "iVBORw0KGgo=", Filename: "dashboard.png"},
				{ContentType: "text/plain", Data: "cGxhaW4gbG9nIGxpbmU=", Filename: "evidence_2.txt"},
			}))
			Expect(payload.Tests[1].Evidence).To(BeEmpty())
		})

		It("should warn about scenarios without a test key", func() {
			Expect(hook.Entries).To(HaveLen(1))
			Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))
			Expect(hook.LastEntry().Message).To(ContainSubstring(`"Untagged"`))
			Expect(hook.LastEntry().Message).To(ContainSubstring("features/login.feature"))
		})

		It("should describe a new test execution", func() {
			Expect(payload.TestExecutionKey).To(BeEmpty())
			Expect(payload.Info).ToNot(BeNil())
			Expect(payload.Info.Project).To(Equal("CALC"))
			Expect(payload.Info.StartDate).To(Equal("2024-05-01T10:00:00Z"))
			Expect(payload.Info.FinishDate).To(Equal("2024-05-01T10:00:05Z"))
		})

		Context("with an existing test execution", func() {
			BeforeEach(func() {
				opts.TestExecutionKey = "CALC-100"
			})

			It("should not send execution info", func() {
				Expect(payload.TestExecutionKey).To(Equal("CALC-100"))
				Expect(payload.Info).To(BeNil())
			})
		})

		Context("with an existing test execution and a test plan", func() {
			BeforeEach(func() {
				opts.TestExecutionKey = "CALC-100"
				opts.TestPlanKey = "CALC-99"
				opts.TestEnvironments = []string{"chrome"}
			})

			It("should send execution info", func() {
				Expect(payload.Info).ToNot(BeNil())
				Expect(payload.Info.TestPlanKey).To(Equal("CALC-99"))
				Expect(payload.Info.TestEnvironments).To(Equal([]string{"chrome"}))
			})
		})

		Context("with Xray Cloud statuses", func() {
			BeforeEach(func() {
				opts.Statuses = converter.StatusesFor(true, converter.StatusNames{Skipped: "EXECUTING"})
			})

			It("should use the configured names", func() {
				Expect(payload.Tests[0].Status).To(Equal("PASSED"))
				Expect(payload.Tests[1].Status).To(Equal("FAILED"))
				Expect(payload.Tests[2].Status).To(Equal("EXECUTING"))
			})
		})
	})

	Describe("Convert with handcrafted reports", func() {
		scenario := func(tags []string, statuses ...string) converter.Element {
			e := converter.Element{Type: "scenario", Keyword: "Scenario", Name: "s"}
			for _, t := range tags {
				e.Tags = append(e.Tags, converter.Tag{Name: t})
			}
			for _, s := range statuses {
				e.Steps = append(e.Steps, converter.Step{Result: converter.Result{Status: s}})
			}
			return e
		}

		DescribeTable("should aggregate step statuses",
			func(want string, statuses ...string) {
				payload := conv.Convert([]converter.Feature{{
					URI:      "a.feature",
					Elements: []converter.Element{scenario([]string{"@TestName:CALC-1"}, statuses...)},
				}}, opts)
				Expect(payload.Tests).To(HaveLen(1))
				Expect(payload.Tests[0].Status).To(Equal(want))
			},
			Entry("all passed", "PASS", "passed", "passed"),
			Entry("one failed", "FAIL", "passed", "failed", "skipped"),
			Entry("ambiguous", "FAIL", "ambiguous"),
			Entry("pending", "TODO", "passed", "pending"),
			Entry("no steps", "TODO"),
		)

		It("should skip scenarios with several keys", func() {
			payload := conv.Convert([]converter.Feature{{
				URI:      "a.feature",
				Elements: []converter.Element{scenario([]string{"@TestName:CALC-1", "@TestName:CALC-2"}, "passed")},
			}}, opts)
			Expect(payload.Tests).To(BeEmpty())
			Expect(hook.LastEntry().Message).To(ContainSubstring("multiple test issue keys: CALC-1, CALC-2"))
		})

		It("should accept the same key twice", func() {
			payload := conv.Convert([]converter.Feature{{
				URI:      "a.feature",
				Elements: []converter.Element{scenario([]string{"@TestName:CALC-1", "@TestName:CALC-1"}, "passed")},
			}}, opts)
			Expect(payload.Tests).To(HaveLen(1))
		})

		It("should name unnamed evidence by its mime type", func() {
			e := scenario([]string{"@TestName:CALC-1"})
			e.Steps = []converter.Step{{
				Result: converter.Result{Status: "passed"},
				Embeddings: []converter.Embedding{
					{MimeType: "application/json", Data: "e30="},
					{Data: "AAAA"},
				},
			}}
			payload := conv.Convert([]converter.Feature{{URI: "a.feature", Elements: []converter.Element{e}}}, opts)
			Expect(payload.Tests[0].Evidence).To(HaveLen(2))
			Expect(payload.Tests[0].Evidence[0].Filename).To(Equal("evidence_1.json"))
			Expect(payload.Tests[0].Evidence[1].ContentType).To(Equal("application/octet-stream"))
			Expect(payload.Tests[0].Evidence[1].Data).To(Equal("AAAA"))
		})
	})

	Describe("StatusesFor", func() {
		It("should pick the flavor defaults", func() {
			Expect(converter.StatusesFor(false, converter.StatusNames{})).To(Equal(converter.ServerStatuses))
			Expect(converter.StatusesFor(true, converter.StatusNames{})).To(Equal(converter.CloudStatuses))
		})

		It("should apply overrides", func() {
			names := converter.StatusesFor(false, converter.StatusNames{Passed: "OK"})
			Expect(names).To(Equal(converter.StatusNames{Passed: "OK", Failed: "FAIL", Skipped: "TODO"}))
		})
	})
})
