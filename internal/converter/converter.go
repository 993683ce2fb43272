// Package converter turns Cucumber JSON reports into Xray execution import payloads.
package converter

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjglira/xraysync/internal/domain"
	"github.com/fjglira/xraysync/internal/tags"
)

// StatusNames are the Xray statuses results are mapped to.
type StatusNames struct {
	Passed  string
	Failed  string
	Skipped string
}

// Xray default status names.
var (
	ServerStatuses = StatusNames{Passed: "PASS", Failed: "FAIL", Skipped: "TODO"}
	CloudStatuses  = StatusNames{Passed: "PASSED", Failed: "FAILED", Skipped: "TODO"}
)

// Options configure the payload built by Convert.
type Options struct {
	ProjectKey       string
	TestPrefix       string
	Statuses         StatusNames
	TestExecutionKey string
	TestPlanKey      string
	Summary          string
	Description      string
	TestEnvironments []string
}

// Converter transforms Cucumber reports into import payloads.
type Converter interface {
	Convert(features []Feature, opts Options) domain.ImportPayload
}

// DefaultConverter implements Converter.
type DefaultConverter struct {
	log logrus.FieldLogger
}

// NewConverter creates a new DefaultConverter.
func NewConverter(log logrus.FieldLogger) *DefaultConverter {
	return &DefaultConverter{log: log}
}

// result accumulates every scenario reported for one test key.
type result struct {
	statuses []string
	comments []string
	evidence []domain.EvidenceItem
	start    time.Time
	finish   time.Time
}

// Convert builds one test result per test key. Background steps count towards the scenario that
// follows them, and scenarios sharing a key (outline examples) are merged into one result.
// Scenarios without exactly one test key are skipped with a warning.
func (c *DefaultConverter) Convert(features []Feature, opts Options) domain.ImportPayload {
	var order []string
	results := map[string]*result{}

	for _, feature := range features {
		var background []Step
		for _, element := range feature.Elements {
			if element.Type == "background" {
				background = element.Steps
				continue
			}
			steps := append(append(append(append([]Step{}, element.Before...), background...), element.Steps...), element.After...)
			background = nil

			key, ok := c.testKey(feature, element, opts)
			if !ok {
				continue
			}
			r, seen := results[key]
			if !seen {
				r = &result{}
				results[key] = r
				order = append(order, key)
			}
			r.add(element, steps)
		}
	}

	payload := domain.ImportPayload{TestExecutionKey: opts.TestExecutionKey}
	var start, finish time.Time
	for _, key := range order {
		r := results[key]
		test := domain.TestResult{
			TestKey:  key,
			Status:   aggregate(r.statuses, opts.Statuses),
			Comment:  strings.Join(r.comments, "\n"),
			Evidence: r.evidence,
		}
		if !r.start.IsZero() {
			test.Start = r.start.Format(time.RFC3339)
			test.Finish = r.finish.Format(time.RFC3339)
			if start.IsZero() || r.start.Before(start) {
				start = r.start
			}
			if r.finish.After(finish) {
				finish = r.finish
			}
		}
		payload.Tests = append(payload.Tests, test)
	}

	if opts.TestExecutionKey == "" || opts.Summary != "" || opts.TestPlanKey != "" {
		info := &domain.ExecutionInfo{
			Project:          opts.ProjectKey,
			Summary:          opts.Summary,
			Description:      opts.Description,
			TestPlanKey:      opts.TestPlanKey,
			TestEnvironments: opts.TestEnvironments,
		}
		if !start.IsZero() {
			info.StartDate = start.Format(time.RFC3339)
			info.FinishDate = finish.Format(time.RFC3339)
		}
		payload.Info = info
	}
	return payload
}

func (c *DefaultConverter) testKey(feature Feature, element Element, opts Options) (string, bool) {
	var keys []string
	for _, tag := range element.Tags {
		key, ok := tags.MatchTag(opts.ProjectKey, opts.TestPrefix, tag.Name)
		if !ok {
			continue
		}
		duplicate := false
		for _, k := range keys {
			duplicate = duplicate || k == key
		}
		if !duplicate {
			keys = append(keys, key)
		}
	}
	switch len(keys) {
	case 1:
		return keys[0], true
	case 0:
		c.log.Warnf("Skipping %s %q of %s: it is not tagged with a test issue key", element.Keyword, element.Name, feature.URI)
	default:
		c.log.Warnf("Skipping %s %q of %s: it is tagged with multiple test issue keys: %s",
			element.Keyword, element.Name, feature.URI, strings.Join(keys, ", "))
	}
	return "", false
}

func (r *result) add(element Element, steps []Step) {
	var duration time.Duration
	for _, step := range steps {
		r.statuses = append(r.statuses, step.Result.Status)
		duration += time.Duration(step.Result.Duration)
		if step.Result.Status == "failed" && step.Result.ErrorMessage != "" {
			r.comments = append(r.comments, step.Result.ErrorMessage)
		}
		for _, embedding := range step.Embeddings {
			r.evidence = append(r.evidence, evidenceItem(embedding, len(r.evidence)+1))
		}
	}

	start, err := time.Parse(time.RFC3339Nano, element.StartTimestamp)
	if err != nil {
		return
	}
	finish := start.Add(duration)
	if r.start.IsZero() || start.Before(r.start) {
		r.start = start
	}
	if finish.After(r.finish) {
		r.finish = finish
	}
}

// aggregate reduces step statuses: any failure fails the test, only passes pass it.
func aggregate(statuses []string, names StatusNames) string {
	if len(statuses) == 0 {
		return names.Skipped
	}
	passed := true
	for _, status := range statuses {
		switch status {
		case "failed", "ambiguous":
			return names.Failed
		case "passed":
		default:
			passed = false
		}
	}
	if passed {
		return names.Passed
	}
	return names.Skipped
}

var extensions = map[string]string{
	"application/json": ".json",
	"image/gif":        ".gif",
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
	"text/html":        ".html",
	"text/plain":       ".txt",
	"video/mp4":        ".mp4",
}

func evidenceItem(e Embedding, n int) domain.EvidenceItem {
	mimeType := e.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	name := e.Name
	if name == "" {
		ext, ok := extensions[mimeType]
		if !ok {
			if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
				ext = exts[0]
			}
		}
		name = fmt.Sprintf("evidence_%d%s", n, ext)
	}

	data := e.Data
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		data = base64.StdEncoding.EncodeToString([]byte(e.Data))
	}
	return domain.EvidenceItem{ContentType: mimeType, Data: data, Filename: name}
}

// StatusesFor returns the status names of the given Xray flavor with non-empty overrides applied.
func StatusesFor(cloud bool, overrides StatusNames) StatusNames {
	names := ServerStatuses
	if cloud {
		names = CloudStatuses
	}
	if overrides.Passed != "" {
		names.Passed = overrides.Passed
	}
	if overrides.Failed != "" {
		names.Failed = overrides.Failed
	}
	if overrides.Skipped != "" {
		names.Skipped = overrides.Skipped
	}
	return names
}
