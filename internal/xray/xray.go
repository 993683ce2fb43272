// Package xray implements the parts of the Xray Server and Xray Cloud APIs used to import
// feature files and execution results and to attach evidence to test runs.
package xray

import (
	"context"

	"github.com/fjglira/xraysync/internal/domain"
)

// ExecutionImporter imports execution results and returns the test execution issue key.
type ExecutionImporter interface {
	ImportExecution(ctx context.Context, payload domain.ImportPayload) (string, error)
}

// FeatureImporter imports a Cucumber feature file into a project.
type FeatureImporter interface {
	ImportFeature(ctx context.Context, filePath, projectKey string) (*FeatureImportResult, error)
}

// ServerRunAPI is the test run surface of Xray Server.
type ServerRunAPI interface {
	GetTestRun(ctx context.Context, execKey, testKey string) (*ServerTestRun, error)
	AddEvidence(ctx context.Context, runID int, evidence domain.EvidenceItem) error
}

// CloudRunAPI is the test run surface of Xray Cloud.
type CloudRunAPI interface {
	GetTestRunResults(ctx context.Context, execKeys, testKeys []string) ([]CloudTestRun, error)
	AddEvidenceToTestRun(ctx context.Context, runID string, evidence []domain.EvidenceItem) (*AddEvidenceResult, error)
}

// IssueIDResolver maps Jira issue keys to issue ids. Keys that do not exist are left out.
type IssueIDResolver interface {
	IssueIDs(ctx context.Context, keys []string) (map[string]string, error)
}

// FeatureImportResult normalizes the feature import responses of both Xray flavors.
type FeatureImportResult struct {
	UpdatedOrCreated []string
	Errors           []string
}

// ServerTestRun is a test run as returned by Xray Server.
type ServerTestRun struct {
	ID     int    `json:"id"`
	Status string `json:"status,omitempty"`
}

// CloudTestRun is a test run as returned by the Xray Cloud GraphQL API.
type CloudTestRun struct {
	ID *string `json:"id"`
}

// AddEvidenceResult is the response of the Xray Cloud addEvidenceToTestRun mutation.
type AddEvidenceResult struct {
	AddedEvidence []string `json:"addedEvidence"`
	Warnings      []string `json:"warnings"`
}
