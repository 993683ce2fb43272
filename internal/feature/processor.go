// Package feature resolves the Jira issue keys of Cucumber feature files and reports
// backgrounds and scenarios that cannot be mapped to exactly one issue.
package feature

import (
	messages "github.com/cucumber/messages/go/v21"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fjglira/xraysync/internal/domain"
	"github.com/fjglira/xraysync/internal/parser"
	"github.com/fjglira/xraysync/internal/tags"
	tmpl "github.com/fjglira/xraysync/internal/template"
)

// Options configure how issue keys are recognized.
type Options struct {
	ProjectKey         string
	TestPrefix         string // literal prefix of scenario tags, e.g. "TestName:"
	PreconditionPrefix string // literal prefix of background comments, e.g. "Precondition:"
	Cloud              bool   // selects the Xray Cloud documentation in diagnostics
}

// Processor drives tag resolution over a batch of feature files.
type Processor struct {
	parser parser.Parser
	engine tmpl.TemplateEngine
	log    logrus.FieldLogger
}

// NewProcessor creates a new Processor.
func NewProcessor(p parser.Parser, engine tmpl.TemplateEngine, log logrus.FieldLogger) *Processor {
	return &Processor{
		parser: p,
		engine: engine,
		log:    log,
	}
}

// Process analyzes all files concurrently and returns the summaries of the files in which every
// background and scenario resolved to exactly one issue key, in input order. Files that fail to
// parse are logged and skipped; tagging problems are logged once all files have been analyzed.
func (p *Processor) Process(paths []string, opts Options) []domain.FeatureFileSummary {
	results := make([]*domain.FeatureFileData, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			data, err := p.Analyze(path, opts)
			if err != nil {
				p.log.Errorf("Failed to parse feature file %s: %v", path, err)
				return nil
			}
			results[i] = data
			return nil
		})
	}
	_ = g.Wait()

	var summaries []domain.FeatureFileSummary
	for _, data := range results {
		if data == nil {
			continue
		}
		p.report(data, opts)
		if !data.Valid() {
			continue
		}
		summaries = append(summaries, domain.FeatureFileSummary{
			FilePath:     data.FilePath,
			AllIssueKeys: data.AllIssueKeys,
		})
	}
	return summaries
}

// Analyze parses a single feature file and classifies its backgrounds and scenarios.
func (p *Processor) Analyze(filePath string, opts Options) (*domain.FeatureFileData, error) {
	doc, err := p.parser.Parse(filePath)
	if err != nil {
		return nil, err
	}
	return Resolve(filePath, doc, opts), nil
}

// Resolve classifies the backgrounds and scenarios of a parsed document, descending one level
// into rules.
func Resolve(filePath string, doc *messages.GherkinDocument, opts Options) *domain.FeatureFileData {
	data := &domain.FeatureFileData{FilePath: filePath}
	if doc == nil || doc.Feature == nil {
		return data
	}

	var (
		backgrounds []*messages.Background
		scenarios   []*messages.Scenario
	)
	for _, child := range doc.Feature.Children {
		switch {
		case child.Background != nil:
			backgrounds = append(backgrounds, child.Background)
		case child.Scenario != nil:
			scenarios = append(scenarios, child.Scenario)
		case child.Rule != nil:
			for _, ruleChild := range child.Rule.Children {
				switch {
				case ruleChild.Background != nil:
					backgrounds = append(backgrounds, ruleChild.Background)
				case ruleChild.Scenario != nil:
					scenarios = append(scenarios, ruleChild.Scenario)
				}
			}
		}
	}

	for _, background := range backgrounds {
		res := tags.ResolveBackground(background, doc.Comments, opts.ProjectKey, opts.PreconditionPrefix)
		classify(data, &data.Backgrounds, res)
	}
	for _, scenario := range scenarios {
		res := tags.ResolveScenario(scenario, opts.ProjectKey, opts.TestPrefix)
		classify(data, &data.Scenarios, res)
	}
	return data
}

func classify(data *domain.FeatureFileData, bucket *domain.IssueKeyBuckets, res tags.Resolution) {
	switch res.Status() {
	case tags.StatusMissing:
		bucket.WithoutIssueKeys = append(bucket.WithoutIssueKeys, res.Node)
	case tags.StatusAmbiguous:
		bucket.MultipleIssueKeys = append(bucket.MultipleIssueKeys, domain.AmbiguousNode{
			Node:      res.Node,
			IssueKeys: res.DistinctKeys(),
		})
	default:
		data.AllIssueKeys = append(data.AllIssueKeys, res.DistinctKeys()[0])
	}
}

// report logs one error per background or scenario that could not be resolved.
func (p *Processor) report(data *domain.FeatureFileData, opts Options) {
	msgs, err := Diagnostics(p.engine, data, opts)
	if err != nil {
		p.log.Errorf("Failed to render diagnostics for %s: %v", data.FilePath, err)
		return
	}
	for _, msg := range msgs {
		p.log.Error(msg)
	}
}
