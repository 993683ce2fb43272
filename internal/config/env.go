package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding the configuration file.
const EnvPrefix = "XRAYSYNC"

// ApplyEnv overrides credentials and issue keys from XRAYSYNC_* environment variables, e.g.
// XRAYSYNC_JIRA_API_TOKEN for jira.api_token.
func ApplyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrides := map[string]*string{
		"jira.url":                      &cfg.Jira.URL,
		"jira.project_key":              &cfg.Jira.ProjectKey,
		"jira.email":                    &cfg.Jira.Email,
		"jira.api_token":                &cfg.Jira.APIToken,
		"jira.bearer_token":             &cfg.Jira.BearerToken,
		"jira.test_execution_issue_key": &cfg.Jira.TestExecutionIssueKey,
		"jira.test_plan_issue_key":      &cfg.Jira.TestPlanIssueKey,
		"xray.url":                      &cfg.Xray.URL,
		"xray.token":                    &cfg.Xray.Token,
	}
	for key, dst := range overrides {
		_ = v.BindEnv(key)
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	_ = v.BindEnv("xray.cloud")
	if v.IsSet("xray.cloud") {
		cfg.Xray.Cloud = v.GetBool("xray.cloud")
	}
}
