// Package uploader runs the feature import and the results upload end to end.
package uploader

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fjglira/xraysync/internal/config"
	"github.com/fjglira/xraysync/internal/converter"
	"github.com/fjglira/xraysync/internal/domain"
	"github.com/fjglira/xraysync/internal/evidence"
	"github.com/fjglira/xraysync/internal/feature"
	"github.com/fjglira/xraysync/internal/jira"
	"github.com/fjglira/xraysync/internal/reconcile"
	"github.com/fjglira/xraysync/internal/scanner"
	"github.com/fjglira/xraysync/internal/snapshot"
	"github.com/fjglira/xraysync/internal/xray"
)

// Deps are the components an Uploader drives. The remote ones may be nil in dry-run mode.
type Deps struct {
	Scanner     scanner.Scanner
	Processor   *feature.Processor
	Converter   converter.Converter
	Searcher    *jira.IssueSearcher
	Features    xray.FeatureImporter
	Store       *snapshot.Store
	Distributor *evidence.Distributor
}

// Uploader is the top-level orchestrator.
type Uploader struct {
	deps Deps
	log  logrus.FieldLogger
}

// New creates a new Uploader.
func New(deps Deps, log logrus.FieldLogger) *Uploader {
	return &Uploader{deps: deps, log: log}
}

// FeatureOptions derives the tag resolution options from the configuration.
func FeatureOptions(cfg *config.Config) feature.Options {
	return feature.Options{
		ProjectKey:         cfg.Jira.ProjectKey,
		TestPrefix:         cfg.Cucumber.Prefixes.Tests,
		PreconditionPrefix: cfg.Cucumber.Prefixes.Preconditions,
		Cloud:              cfg.Xray.Cloud,
	}
}

// Check scans and analyzes the feature files without contacting Jira. It returns the accepted
// files and the number of files found.
func (u *Uploader) Check(cfg *config.Config) ([]domain.FeatureFileSummary, int) {
	files := u.scan(cfg)
	if len(files) == 0 {
		return nil, 0
	}
	return u.deps.Processor.Process(files, FeatureOptions(cfg)), len(files)
}

// SyncFeatures imports every correctly tagged feature file and returns the sorted keys of the
// issues that were both tagged and updated. Files are imported concurrently and a failing file
// never affects the others.
func (u *Uploader) SyncFeatures(ctx context.Context, cfg *config.Config) ([]string, error) {
	summaries, found := u.Check(cfg)
	if found == 0 {
		return nil, nil
	}
	u.log.Infof("%d of %d feature file(s) are ready for import", len(summaries), found)

	if cfg.DryRun {
		for _, s := range summaries {
			u.log.Infof("[DRY-RUN] Would import: %s (%s)", s.FilePath, strings.Join(s.AllIssueKeys, ", "))
		}
		return nil, nil
	}

	affected := make([][]string, len(summaries))
	var g errgroup.Group
	for i, s := range summaries {
		g.Go(func() error {
			affected[i] = u.syncFile(ctx, cfg, s)
			return nil
		})
	}
	_ = g.Wait()

	seen := map[string]struct{}{}
	var keys []string
	for _, file := range affected {
		for _, key := range file {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	u.log.Infof("Import complete, %d issue(s) affected", len(keys))
	return keys, nil
}

func (u *Uploader) syncFile(ctx context.Context, cfg *config.Config, s domain.FeatureFileSummary) []string {
	log := u.log.WithField("file", s.FilePath)

	before := u.deps.Store.Snapshot(ctx, s.AllIssueKeys)
	warnErrors(log, "Backing up issue data failed for", before.Errors())

	result, err := u.deps.Features.ImportFeature(ctx, s.FilePath, cfg.Jira.ProjectKey)
	if err != nil {
		log.Errorf("Failed to import feature file %s: %v", s.FilePath, err)
		return nil
	}
	if len(result.Errors) > 0 {
		log.Errorf("Feature file %s was imported with errors:\n  %s", s.FilePath, strings.Join(result.Errors, "\n  "))
	}

	overlap := reconcile.ComputeOverlap(s.AllIssueKeys, result.UpdatedOrCreated)
	if report := reconcile.Report(overlap); report != "" {
		log.Warnf("Mismatch between feature file issue tags and updated issues in %s:\n%s", s.FilePath, report)
	}

	after := u.deps.Store.Snapshot(ctx, overlap.Intersection)
	warnErrors(log, "Comparison of updated issue data failed for", after.Errors())
	u.restore(ctx, log, before, after)

	return overlap.Intersection
}

// UploadResults converts the Cucumber report, drops results of unknown tests and imports the rest
// with their evidence. It returns the test execution issue key.
func (u *Uploader) UploadResults(ctx context.Context, cfg *config.Config) (string, error) {
	features, err := converter.LoadReport(cfg.Cucumber.ResultsFile)
	if err != nil {
		return "", err
	}
	payload := u.deps.Converter.Convert(features, converter.Options{
		ProjectKey:       cfg.Jira.ProjectKey,
		TestPrefix:       cfg.Cucumber.Prefixes.Tests,
		Statuses:         converter.StatusesFor(cfg.Xray.Cloud, converter.StatusNames(cfg.Xray.Status)),
		TestExecutionKey: cfg.Jira.TestExecutionIssueKey,
		TestPlanKey:      cfg.Jira.TestPlanIssueKey,
		Summary:          cfg.Xray.Execution.Summary,
		Description:      cfg.Xray.Execution.Description,
		TestEnvironments: cfg.Xray.Execution.TestEnvironments,
	})
	if len(payload.Tests) == 0 {
		u.log.Warn("No test results with a test issue key found")
		return "", nil
	}

	if cfg.DryRun {
		for _, test := range payload.Tests {
			u.log.Infof("[DRY-RUN] Would upload %s: %s (%d evidence item(s))", test.TestKey, test.Status, len(test.Evidence))
		}
		return "", nil
	}

	payload.Tests, err = u.existingTests(ctx, payload.Tests)
	if err != nil {
		return "", err
	}
	if len(payload.Tests) == 0 {
		u.log.Warn("None of the tested issues exist, nothing to upload")
		return "", nil
	}

	execKey := cfg.Jira.TestExecutionIssueKey
	var before snapshot.Snapshot
	if execKey != "" && cfg.Xray.Execution.Summary == "" {
		before = u.deps.Store.Snapshot(ctx, []string{execKey})
		warnErrors(u.log, "Backing up issue data failed for", before.Errors())
	}

	key, err := u.deps.Distributor.SplitAndUpload(ctx, payload)
	if err != nil {
		return "", err
	}

	if before != nil {
		after := u.deps.Store.Snapshot(ctx, []string{key})
		warnErrors(u.log, "Comparison of updated issue data failed for", after.Errors())
		u.restore(ctx, u.log, before, after)
	}
	u.log.Infof("Uploaded %d test result(s) to %s", len(payload.Tests), key)
	return key, nil
}

// existingTests removes results whose test issue cannot be found.
func (u *Uploader) existingTests(ctx context.Context, tests []domain.TestResult) ([]domain.TestResult, error) {
	keys := make([]string, len(tests))
	for i, test := range tests {
		keys[i] = test.TestKey
	}
	issues, err := u.deps.Searcher.IssuesByKey(ctx, keys, []string{"key"})
	if err != nil {
		u.log.Errorf("Failed to search issues: %v", err)
		return nil, domain.NewError(domain.PhaseSearch, "", 0, "failed to search issues", err)
	}

	var out []domain.TestResult
	for _, test := range tests {
		if _, ok := issues[test.TestKey]; !ok {
			u.log.Warnf("Skipping results of %s: the issue does not exist or is not visible", test.TestKey)
			continue
		}
		out = append(out, test)
	}
	return out, nil
}

func (u *Uploader) restore(ctx context.Context, log logrus.FieldLogger, before, after snapshot.Snapshot) {
	drifts, errs := u.deps.Store.Restore(ctx, before, after)
	for _, d := range drifts {
		log.Infof("Restored %s of %s", strings.Join(d.Changed, ", "), d.Key)
	}
	for _, err := range errs {
		log.Warnf("Failed to restore issue data: %v", err)
	}
}

func (u *Uploader) scan(cfg *config.Config) []string {
	files, errs := scanner.ScanAll(u.deps.Scanner, cfg.Cucumber.Directories, cfg.Cucumber.Include, cfg.Cucumber.Exclude)
	for _, err := range errs {
		u.log.Warnf("Failed to scan directory: %v", err)
	}
	if len(files) == 0 {
		u.log.Warn("No feature files found")
		return nil
	}
	u.log.Infof("Found %d feature file(s)", len(files))
	return files
}

func warnErrors(log logrus.FieldLogger, stage string, errs []string) {
	if len(errs) == 0 {
		return
	}
	log.Warnf("%s %d issue(s):\n  %s", stage, len(errs), strings.Join(errs, "\n  "))
}
