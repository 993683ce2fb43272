package xray

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjglira/xraysync/internal/domain"
	"github.com/fjglira/xraysync/internal/rest"
)

const serverAPI = "rest/raven/1.0/"

// ServerClient talks to Xray Server/Data Center, which lives inside the Jira instance.
type ServerClient struct {
	rest *rest.Client
}

// NewServerClient returns a client using the Jira site root as base URL.
func NewServerClient(r *rest.Client) *ServerClient {
	return &ServerClient{rest: r}
}

// ImportExecution imports results in Xray JSON format.
func (c *ServerClient) ImportExecution(ctx context.Context, payload domain.ImportPayload) (string, error) {
	var resp struct {
		TestExecIssue struct {
			Key string `json:"key"`
		} `json:"testExecIssue"`
	}
	if err := c.rest.DoJSON(ctx, http.MethodPost, serverAPI+"import/execution", nil, payload, &resp); err != nil {
		return "", err
	}
	if resp.TestExecIssue.Key == "" {
		return "", fmt.Errorf("import response does not contain a test execution issue key")
	}
	return resp.TestExecIssue.Key, nil
}

// ImportFeature imports a feature file, creating or updating tests and preconditions.
func (c *ServerClient) ImportFeature(ctx context.Context, filePath, projectKey string) (*FeatureImportResult, error) {
	var resp []struct {
		Key string `json:"key"`
	}
	query := url.Values{"projectKey": {projectKey}}
	if err := c.rest.PostFile(ctx, serverAPI+"import/feature", query, "file", filePath, &resp); err != nil {
		return nil, err
	}
	result := &FeatureImportResult{}
	for _, issue := range resp {
		result.UpdatedOrCreated = append(result.UpdatedOrCreated, issue.Key)
	}
	return result, nil
}

// GetTestRun returns the run of a test inside a test execution.
func (c *ServerClient) GetTestRun(ctx context.Context, execKey, testKey string) (*ServerTestRun, error) {
	query := url.Values{
		"testExecIssueKey": {execKey},
		"testIssueKey":     {testKey},
	}
	var run ServerTestRun
	if err := c.rest.DoJSON(ctx, http.MethodGet, serverAPI+"api/testrun", query, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// AddEvidence attaches one evidence item to a test run.
func (c *ServerClient) AddEvidence(ctx context.Context, runID int, evidence domain.EvidenceItem) error {
	path := serverAPI + "api/testrun/" + strconv.Itoa(runID) + "/attachment"
	return c.rest.DoJSON(ctx, http.MethodPost, path, nil, evidence, nil)
}
