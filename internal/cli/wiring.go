package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fjglira/xraysync/internal/config"
	"github.com/fjglira/xraysync/internal/converter"
	"github.com/fjglira/xraysync/internal/evidence"
	"github.com/fjglira/xraysync/internal/feature"
	"github.com/fjglira/xraysync/internal/jira"
	"github.com/fjglira/xraysync/internal/parser"
	"github.com/fjglira/xraysync/internal/rest"
	"github.com/fjglira/xraysync/internal/scanner"
	"github.com/fjglira/xraysync/internal/snapshot"
	tmpl "github.com/fjglira/xraysync/internal/template"
	"github.com/fjglira/xraysync/internal/uploader"
	"github.com/fjglira/xraysync/internal/xray"
)

// issueClient is what the snapshot store needs from either Jira flavor.
type issueClient interface {
	jira.IssueGetter
	jira.IssueEditor
}

// newUploader wires all components. Remote clients are only built outside dry-run mode.
func newUploader(cfg *config.Config) (*uploader.Uploader, error) {
	engine, err := tmpl.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create template engine: %w", err)
	}

	deps := uploader.Deps{
		Scanner:   scanner.NewScanner(cfg.Cucumber.IsRecursive()),
		Processor: feature.NewProcessor(parser.NewGherkinParser(), engine, log),
		Converter: converter.NewConverter(log),
	}
	if cfg.DryRun {
		return uploader.New(deps, log), nil
	}

	if err := config.ValidateRemote(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	jiraURL, err := baseURL(cfg.Jira.URL)
	if err != nil {
		return nil, err
	}
	auth, method, err := rest.ResolveAuth(cfg.Jira.BearerToken, cfg.Jira.Email, cfg.Jira.APIToken)
	if err != nil {
		return nil, err
	}
	log.Debugf("Using %s authentication for %s", method, jiraURL)
	jiraRest := rest.NewClient(jiraURL, auth, cfg.Jira.SkipTLSVerify)

	var (
		issues   issueClient
		importer xray.ExecutionImporter
		system   evidence.System
	)
	if cfg.Xray.Cloud {
		jc := jira.NewCloudClient(jiraRest)
		deps.Searcher = jira.NewCloudSearcher(jc)
		issues = jc

		xrayURL, err := baseURL(orDefault(cfg.Xray.URL, xray.DefaultCloudURL))
		if err != nil {
			return nil, err
		}
		xc := xray.NewCloudClient(rest.NewClient(xrayURL, rest.NewBearerAuth(cfg.Xray.Token), cfg.Jira.SkipTLSVerify), deps.Searcher)
		deps.Features, importer, system = xc, xc, evidence.CloudSystem(xc)
	} else {
		jc := jira.NewServerClient(jiraRest)
		deps.Searcher = jira.NewServerSearcher(jc)
		issues = jc

		xrayRest := jiraRest
		if cfg.Xray.URL != "" {
			xrayURL, err := baseURL(cfg.Xray.URL)
			if err != nil {
				return nil, err
			}
			xrayRest = rest.NewClient(xrayURL, auth, cfg.Jira.SkipTLSVerify)
		}
		xs := xray.NewServerClient(xrayRest)
		deps.Features, importer, system = xs, xs, evidence.ServerSystem(xs)
	}

	mode, err := evidence.ParseMode(cfg.Upload.EvidenceMode)
	if err != nil {
		return nil, err
	}
	dist := evidence.NewDistributor(importer, system, mode, log)
	if cfg.Upload.Concurrency > 0 {
		dist.Concurrency = cfg.Upload.Concurrency
	}
	deps.Distributor = dist
	deps.Store = snapshot.NewStore(issues, issues, cfg.Upload.RestoreFields)
	if cfg.Upload.Concurrency > 0 {
		deps.Store.Concurrency = cfg.Upload.Concurrency
	}

	return uploader.New(deps, log), nil
}

// baseURL parses an absolute URL and makes sure relative API paths resolve below it.
func baseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
