package converter

import (
	"encoding/json"
	"os"

	"github.com/fjglira/xraysync/internal/domain"
)

// Feature is one feature of a Cucumber JSON report.
type Feature struct {
	URI      string    `json:"uri"`
	Keyword  string    `json:"keyword"`
	Name     string    `json:"name"`
	Tags     []Tag     `json:"tags"`
	Elements []Element `json:"elements"`
}

// Element is a background or a scenario. Scenario outlines appear once per example row.
type Element struct {
	ID             string `json:"id"`
	Keyword        string `json:"keyword"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	Line           int    `json:"line"`
	StartTimestamp string `json:"start_timestamp"`
	Tags           []Tag  `json:"tags"`
	Before         []Step `json:"before"`
	Steps          []Step `json:"steps"`
	After          []Step `json:"after"`
}

type Tag struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Step is a step or a hook.
type Step struct {
	Keyword    string      `json:"keyword"`
	Name       string      `json:"name"`
	Line       int         `json:"line"`
	Result     Result      `json:"result"`
	Embeddings []Embedding `json:"embeddings"`
}

type Result struct {
	Status       string `json:"status"`
	Duration     int64  `json:"duration"` // nanoseconds
	ErrorMessage string `json:"error_message"`
}

// Embedding is an attachment of a step, usually base64 encoded.
type Embedding struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name"`
}

// LoadReport reads a Cucumber JSON report.
func LoadReport(path string) ([]Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewErrorWithSuggestion(domain.PhaseConvert, path, 0,
			"failed to read results file",
			"run cucumber with a JSON formatter or set cucumber.results_file in xraysync.yaml",
			err)
	}
	var features []Feature
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, domain.NewError(domain.PhaseConvert, path, 0, "failed to parse Cucumber JSON report", err)
	}
	return features, nil
}
