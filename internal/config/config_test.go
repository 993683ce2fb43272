package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/xraysync/internal/config"
	"github.com/fjglira/xraysync/internal/domain"
)

var _ = Describe("Config", func() {
	Describe("Load", func() {
		It("should fill in defaults for a minimal config", func() {
			cfg, err := config.Load(filepath.Join("..", "..", "testdata", "configs", "minimal.yaml"))
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Jira.ProjectKey).To(Equal("CALC"))
			Expect(cfg.Cucumber.Directories).To(Equal([]string{"features"}))
			Expect(cfg.Cucumber.Include).To(Equal([]string{"*.feature"}))
			Expect(cfg.Cucumber.IsRecursive()).To(BeTrue())
			Expect(cfg.Upload.EvidenceMode).To(Equal("concurrent"))
			Expect(cfg.Upload.RestoreFields).To(Equal([]string{"summary", "labels"}))
			Expect(cfg.Xray.Cloud).To(BeFalse())
		})

		It("should load a full config", func() {
			cfg, err := config.Load(filepath.Join("..", "..", "testdata", "configs", "full.yaml"))
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Jira.URL).To(Equal("https://jira.example.com"))
			Expect(cfg.Jira.TestExecutionIssueKey).To(Equal("CALC-100"))
			Expect(cfg.Jira.TestPlanIssueKey).To(Equal("CALC-99"))
			Expect(cfg.Xray.Cloud).To(BeTrue())
			Expect(cfg.Xray.Status.Skipped).To(Equal("EXECUTING"))
			Expect(cfg.Xray.Execution.TestEnvironments).To(Equal([]string{"chrome", "linux"}))
			Expect(cfg.Cucumber.Directories).To(HaveLen(2))
			Expect(cfg.Cucumber.Exclude).To(ContainElement("drafts/**"))
			Expect(cfg.Cucumber.IsRecursive()).To(BeFalse())
			Expect(cfg.Cucumber.Prefixes.Tests).To(Equal("TestName:"))
			Expect(cfg.Cucumber.Prefixes.Preconditions).To(Equal("Precondition:"))
			Expect(cfg.Cucumber.ResultsFile).To(Equal("reports/cucumber.json"))
			Expect(cfg.Upload.EvidenceMode).To(Equal("sequential"))
			Expect(cfg.Upload.Concurrency).To(Equal(4))
			Expect(cfg.Upload.RestoreFields).To(Equal([]string{"summary"}))
			Expect(cfg.Logging.Level).To(Equal("debug"))
		})

		It("should return a config error for a nonexistent file", func() {
			_, err := config.Load("nonexistent.yaml")
			Expect(err).To(HaveOccurred())
			Expect(domain.PhaseOf(err)).To(Equal(domain.PhaseConfig))
			Expect(err.Error()).To(ContainSubstring("hint:"))
		})

		It("should return error for invalid YAML", func() {
			tmpFile := filepath.Join(GinkgoT().TempDir(), "invalid.yaml")
			Expect(os.WriteFile(tmpFile, []byte("{{invalid yaml}}"), 0o644)).To(Succeed())

			_, err := config.Load(tmpFile)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
		})
	})

	Describe("DefaultConfig", func() {
		It("should return config with sensible defaults", func() {
			cfg := config.DefaultConfig()
			Expect(cfg.Cucumber.Exclude).To(ContainElements("node_modules/**", "vendor/**"))
			Expect(*cfg.Cucumber.Recursive).To(BeTrue())
			Expect(cfg.Cucumber.ResultsFile).To(Equal("cucumber-report.json"))
			Expect(cfg.Upload.Concurrency).To(Equal(8))
			Expect(cfg.Logging.Level).To(Equal("info"))
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = config.DefaultConfig()
			cfg.Jira.ProjectKey = "CALC"
		})

		It("should pass for the full config", func() {
			full, err := config.Load(filepath.Join("..", "..", "testdata", "configs", "full.yaml"))
			Expect(err).ToNot(HaveOccurred())
			Expect(config.Validate(full)).To(Succeed())
		})

		DescribeTable("should reject invalid values",
			func(mutate func(*config.Config), field string) {
				mutate(cfg)
				err := config.Validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(domain.PhaseOf(err)).To(Equal(domain.PhaseConfig))
				Expect(err.Error()).To(ContainSubstring(field))
			},
			Entry("missing project key", func(c *config.Config) { c.Jira.ProjectKey = "" }, "jira.project_key"),
			Entry("lower case project key", func(c *config.Config) { c.Jira.ProjectKey = "calc" }, "jira.project_key"),
			Entry("relative Jira URL", func(c *config.Config) { c.Jira.URL = "jira.example.com" }, "jira.url"),
			Entry("malformed execution key", func(c *config.Config) { c.Jira.TestExecutionIssueKey = "CALC" }, "jira.test_execution_issue_key"),
			Entry("malformed plan key", func(c *config.Config) { c.Jira.TestPlanIssueKey = "99" }, "jira.test_plan_issue_key"),
			Entry("no directories", func(c *config.Config) { c.Cucumber.Directories = nil }, "cucumber.directories"),
			Entry("no include patterns", func(c *config.Config) { c.Cucumber.Include = nil }, "cucumber.include"),
			Entry("prefix with spaces", func(c *config.Config) { c.Cucumber.Prefixes.Tests = "Test Name:" }, "cucumber.prefixes.tests"),
			Entry("unknown evidence mode", func(c *config.Config) { c.Upload.EvidenceMode = "parallel" }, "upload.evidence_mode"),
			Entry("negative concurrency", func(c *config.Config) { c.Upload.Concurrency = -1 }, "upload.concurrency"),
			Entry("unknown restore field", func(c *config.Config) { c.Upload.RestoreFields = []string{"priority"} }, "upload.restore_fields"),
			Entry("invalid log level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"),
		)

		It("should report every problem at once", func() {
			cfg.Jira.ProjectKey = ""
			cfg.Logging.Level = "verbose"
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("jira.project_key"))
			Expect(err.Error()).To(ContainSubstring("logging.level"))
		})
	})

	Describe("ValidateRemote", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = config.DefaultConfig()
			cfg.Jira.URL = "https://jira.example.com"
			cfg.Jira.BearerToken = "pat"
		})

		It("should accept a personal access token", func() {
			Expect(config.ValidateRemote(cfg)).To(Succeed())
		})

		It("should accept basic credentials", func() {
			cfg.Jira.BearerToken = ""
			cfg.Jira.Email = "qa@example.com"
			cfg.Jira.APIToken = "secret"
			Expect(config.ValidateRemote(cfg)).To(Succeed())
		})

		It("should require the Jira URL and credentials", func() {
			cfg.Jira.URL = ""
			cfg.Jira.BearerToken = ""
			cfg.Jira.Email = "qa@example.com"
			err := config.ValidateRemote(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("jira.url"))
			Expect(err.Error()).To(ContainSubstring("jira.api_token"))
		})

		It("should require an Xray token on Xray Cloud", func() {
			cfg.Xray.Cloud = true
			err := config.ValidateRemote(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("xray.token"))
		})
	})

	Describe("ApplyEnv", func() {
		setenv := func(key, value string) {
			old, had := os.LookupEnv(key)
			Expect(os.Setenv(key, value)).To(Succeed())
			DeferCleanup(func() {
				if had {
					_ = os.Setenv(key, old)
				} else {
					_ = os.Unsetenv(key)
				}
			})
		}

		It("should override credentials and issue keys", func() {
			setenv("XRAYSYNC_JIRA_API_TOKEN", "from-env")
			setenv("XRAYSYNC_JIRA_TEST_EXECUTION_ISSUE_KEY", "CALC-200")
			setenv("XRAYSYNC_XRAY_CLOUD", "true")

			cfg := config.DefaultConfig()
			cfg.Jira.APIToken = "from-file"
			cfg.Jira.Email = "qa@example.com"
			config.ApplyEnv(cfg)

			Expect(cfg.Jira.APIToken).To(Equal("from-env"))
			Expect(cfg.Jira.TestExecutionIssueKey).To(Equal("CALC-200"))
			Expect(cfg.Jira.Email).To(Equal("qa@example.com"))
			Expect(cfg.Xray.Cloud).To(BeTrue())
		})

		It("should leave the config alone without environment variables", func() {
			cfg := config.DefaultConfig()
			cfg.Jira.URL = "https://jira.example.com"
			config.ApplyEnv(cfg)
			Expect(cfg.Jira.URL).To(Equal("https://jira.example.com"))
		})
	})
})
