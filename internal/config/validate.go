package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/fjglira/xraysync/internal/domain"
)

var (
	projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	issueKeyPattern   = regexp.MustCompile(`^[A-Z][A-Z0-9_]*-\d+$`)
)

type namedValue struct {
	name, value string
}

// Validate checks the Config for required fields and valid values. It does not require
// credentials, see ValidateRemote.
func Validate(cfg *Config) error {
	var errs []string

	// Jira
	if cfg.Jira.ProjectKey == "" {
		errs = append(errs, "jira.project_key must not be empty")
	} else if !projectKeyPattern.MatchString(cfg.Jira.ProjectKey) {
		errs = append(errs, fmt.Sprintf("jira.project_key must be an upper case project key (got %q)", cfg.Jira.ProjectKey))
	}
	if cfg.Jira.URL != "" {
		if u, err := url.Parse(cfg.Jira.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("jira.url must be an absolute URL (got %q)", cfg.Jira.URL))
		}
	}
	for _, f := range []namedValue{
		{"jira.test_execution_issue_key", cfg.Jira.TestExecutionIssueKey},
		{"jira.test_plan_issue_key", cfg.Jira.TestPlanIssueKey},
	} {
		if f.value != "" && !issueKeyPattern.MatchString(f.value) {
			errs = append(errs, fmt.Sprintf("%s must be an issue key such as PRJ-123 (got %q)", f.name, f.value))
		}
	}

	// Cucumber
	if len(cfg.Cucumber.Directories) == 0 {
		errs = append(errs, "cucumber.directories must not be empty")
	}
	if len(cfg.Cucumber.Include) == 0 {
		errs = append(errs, "cucumber.include must not be empty")
	}
	for _, f := range []namedValue{
		{"cucumber.prefixes.tests", cfg.Cucumber.Prefixes.Tests},
		{"cucumber.prefixes.preconditions", cfg.Cucumber.Prefixes.Preconditions},
	} {
		if strings.ContainsAny(f.value, " \t") {
			errs = append(errs, fmt.Sprintf("%s must not contain whitespace (got %q)", f.name, f.value))
		}
	}

	// Upload
	switch cfg.Upload.EvidenceMode {
	case "", "concurrent", "sequential":
	default:
		errs = append(errs, fmt.Sprintf("upload.evidence_mode must be one of: concurrent, sequential (got %q)", cfg.Upload.EvidenceMode))
	}
	if cfg.Upload.Concurrency < 0 {
		errs = append(errs, "upload.concurrency must not be negative")
	}
	for _, field := range cfg.Upload.RestoreFields {
		if field != "summary" && field != "labels" {
			errs = append(errs, fmt.Sprintf("upload.restore_fields must only contain summary and labels (got %q)", field))
		}
	}

	// Logging
	if cfg.Logging.Level != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[cfg.Logging.Level] {
			errs = append(errs, fmt.Sprintf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
		}
	}

	return collect(errs)
}

// ValidateRemote checks what is needed to talk to Jira and Xray.
func ValidateRemote(cfg *Config) error {
	var errs []string
	if cfg.Jira.URL == "" {
		errs = append(errs, "jira.url must not be empty")
	}
	if cfg.Jira.BearerToken == "" && (cfg.Jira.Email == "" || cfg.Jira.APIToken == "") {
		errs = append(errs, "either jira.bearer_token or jira.email and jira.api_token must be set")
	}
	if cfg.Xray.Cloud && cfg.Xray.Token == "" {
		errs = append(errs, "xray.token must be set for Xray Cloud")
	}
	return collect(errs)
}

func collect(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return domain.NewError(domain.PhaseConfig, "", 0, fmt.Sprintf("validation failed: %s", strings.Join(errs, "; ")), nil)
}
