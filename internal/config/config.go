package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fjglira/xraysync/internal/domain"
)

// Config is the top-level configuration struct.
type Config struct {
	Jira     JiraConfig     `yaml:"jira"`
	Xray     XrayConfig     `yaml:"xray"`
	Cucumber CucumberConfig `yaml:"cucumber"`
	Upload   UploadConfig   `yaml:"upload"`
	Logging  LoggingConfig  `yaml:"logging"`
	DryRun   bool           `yaml:"dry_run"`
}

type JiraConfig struct {
	URL                   string `yaml:"url"`
	ProjectKey            string `yaml:"project_key"`
	Email                 string `yaml:"email"`
	APIToken              string `yaml:"api_token"`
	BearerToken           string `yaml:"bearer_token"`
	TestExecutionIssueKey string `yaml:"test_execution_issue_key"`
	TestPlanIssueKey      string `yaml:"test_plan_issue_key"`
	SkipTLSVerify         bool   `yaml:"skip_tls_verify"`
}

type XrayConfig struct {
	Cloud     bool            `yaml:"cloud"`
	URL       string          `yaml:"url"` // defaults to Xray Cloud or the Jira URL
	Token     string          `yaml:"token"`
	Status    StatusConfig    `yaml:"status"`
	Execution ExecutionConfig `yaml:"execution"`
}

// StatusConfig overrides the Xray status names results are mapped to.
type StatusConfig struct {
	Passed  string `yaml:"passed"`
	Failed  string `yaml:"failed"`
	Skipped string `yaml:"skipped"`
}

type ExecutionConfig struct {
	Summary          string   `yaml:"summary"`
	Description      string   `yaml:"description"`
	TestEnvironments []string `yaml:"test_environments"`
}

type CucumberConfig struct {
	Directories []string       `yaml:"directories"`
	Include     []string       `yaml:"include"`
	Exclude     []string       `yaml:"exclude"`
	Recursive   *bool          `yaml:"recursive"` // pointer to distinguish unset from false
	Prefixes    PrefixesConfig `yaml:"prefixes"`
	ResultsFile string         `yaml:"results_file"`
}

// PrefixesConfig holds the literal text between "@" and the issue key.
type PrefixesConfig struct {
	Tests         string `yaml:"tests"`
	Preconditions string `yaml:"preconditions"`
}

type UploadConfig struct {
	EvidenceMode  string   `yaml:"evidence_mode"`
	Concurrency   int      `yaml:"concurrency"` // evidence uploads and snapshot reads in flight
	RestoreFields []string `yaml:"restore_fields"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// IsRecursive reports whether feature directories are scanned recursively.
func (c CucumberConfig) IsRecursive() bool {
	return c.Recursive == nil || *c.Recursive
}

// Load reads a YAML configuration file on top of DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewErrorWithSuggestion(domain.PhaseConfig, path, 0,
			"failed to read config file",
			"pass the configuration with --config or create xraysync.yaml",
			err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.NewError(domain.PhaseConfig, path, 0, "failed to parse config file", err)
	}

	return cfg, nil
}
