package xray

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fjglira/xraysync/internal/domain"
	"github.com/fjglira/xraysync/internal/rest"
)

// DefaultCloudURL is the base URL of the Xray Cloud API.
const DefaultCloudURL = "https://xray.cloud.getxray.app/api/v2/"

const getTestRunsQuery = `query($testIssueIds: [String], $testExecIssueIds: [String]) {
  getTestRuns(testIssueIds: $testIssueIds, testExecIssueIds: $testExecIssueIds, limit: 100) {
    total
    results { id }
  }
}`

const addEvidenceMutation = `mutation($id: String!, $evidence: [AttachmentDataInput]!) {
  addEvidenceToTestRun(id: $id, evidence: $evidence) {
    addedEvidence
    warnings
  }
}`

// CloudClient talks to Xray Cloud.
type CloudClient struct {
	rest *rest.Client
	ids  IssueIDResolver
}

// NewCloudClient returns a Xray Cloud client. GraphQL queries address issues by id, which ids
// translates from issue keys.
func NewCloudClient(r *rest.Client, ids IssueIDResolver) *CloudClient {
	return &CloudClient{rest: r, ids: ids}
}

// ImportExecution imports results in Xray JSON format.
func (c *CloudClient) ImportExecution(ctx context.Context, payload domain.ImportPayload) (string, error) {
	var resp struct {
		Key string `json:"key"`
	}
	if err := c.rest.DoJSON(ctx, http.MethodPost, "import/execution", nil, payload, &resp); err != nil {
		return "", err
	}
	if resp.Key == "" {
		return "", fmt.Errorf("import response does not contain a test execution issue key")
	}
	return resp.Key, nil
}

// ImportFeature imports a feature file, creating or updating tests and preconditions.
func (c *CloudClient) ImportFeature(ctx context.Context, filePath, projectKey string) (*FeatureImportResult, error) {
	type issueRef struct {
		Key string `json:"key"`
	}
	var resp struct {
		Errors                        []string   `json:"errors"`
		UpdatedOrCreatedTests         []issueRef `json:"updatedOrCreatedTests"`
		UpdatedOrCreatedPreconditions []issueRef `json:"updatedOrCreatedPreconditions"`
	}
	query := url.Values{"projectKey": {projectKey}}
	if err := c.rest.PostFile(ctx, "import/feature", query, "file", filePath, &resp); err != nil {
		return nil, err
	}
	result := &FeatureImportResult{Errors: resp.Errors}
	for _, issue := range append(resp.UpdatedOrCreatedTests, resp.UpdatedOrCreatedPreconditions...) {
		result.UpdatedOrCreated = append(result.UpdatedOrCreated, issue.Key)
	}
	return result, nil
}

// GetTestRunResults returns the runs of the given tests inside the given executions.
func (c *CloudClient) GetTestRunResults(ctx context.Context, execKeys, testKeys []string) ([]CloudTestRun, error) {
	ids, err := c.ids.IssueIDs(ctx, append(append([]string{}, execKeys...), testKeys...))
	if err != nil {
		return nil, fmt.Errorf("resolve issue ids: %w", err)
	}
	execIDs, err := lookupIDs(ids, execKeys)
	if err != nil {
		return nil, err
	}
	testIDs, err := lookupIDs(ids, testKeys)
	if err != nil {
		return nil, err
	}

	var data struct {
		GetTestRuns struct {
			Total   int            `json:"total"`
			Results []CloudTestRun `json:"results"`
		} `json:"getTestRuns"`
	}
	vars := map[string]any{"testIssueIds": testIDs, "testExecIssueIds": execIDs}
	if err := c.graphQL(ctx, getTestRunsQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.GetTestRuns.Results, nil
}

// AddEvidenceToTestRun attaches evidence to a test run. Warnings are not fatal.
func (c *CloudClient) AddEvidenceToTestRun(ctx context.Context, runID string, evidence []domain.EvidenceItem) (*AddEvidenceResult, error) {
	type attachment struct {
		Filename string `json:"filename"`
		MimeType string `json:"mimeType"`
		Data     string `json:"data"`
	}
	items := make([]attachment, len(evidence))
	for i, e := range evidence {
		items[i] = attachment{Filename: e.Filename, MimeType: e.ContentType, Data: e.Data}
	}

	var data struct {
		AddEvidenceToTestRun AddEvidenceResult `json:"addEvidenceToTestRun"`
	}
	if err := c.graphQL(ctx, addEvidenceMutation, map[string]any{"id": runID, "evidence": items}, &data); err != nil {
		return nil, err
	}
	return &data.AddEvidenceToTestRun, nil
}

func (c *CloudClient) graphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	body := map[string]any{"query": query, "variables": variables}
	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := c.rest.DoJSON(ctx, http.MethodPost, "graphql", nil, body, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return errors.New("graphql: " + strings.Join(msgs, "; "))
	}
	if len(resp.Data) == 0 {
		return errors.New("graphql: empty response")
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("graphql: decode data: %w", err)
	}
	return nil
}

func lookupIDs(ids map[string]string, keys []string) ([]string, error) {
	out := make([]string, len(keys))
	for i, key := range keys {
		id, ok := ids[key]
		if !ok {
			return nil, fmt.Errorf("issue %s does not exist", key)
		}
		out[i] = id
	}
	return out, nil
}
