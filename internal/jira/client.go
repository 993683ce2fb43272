package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fjglira/xraysync/internal/rest"
)

// CursorSearcher fetches one page of a token-paginated search (Jira Cloud).
type CursorSearcher interface {
	SearchJQL(ctx context.Context, req CursorSearchRequest) (*CursorSearchPage, error)
}

// OffsetSearcher fetches one page of an offset-paginated search (Jira Server/DC).
type OffsetSearcher interface {
	Search(ctx context.Context, req OffsetSearchRequest) (*OffsetSearchPage, error)
}

// IssueGetter reads selected fields of a single issue.
type IssueGetter interface {
	GetIssue(ctx context.Context, key string, fields []string) (*Issue, error)
}

// IssueEditor updates fields of a single issue.
type IssueEditor interface {
	EditIssue(ctx context.Context, key string, fields map[string]any) error
}

// issueClient implements the endpoints shared by Jira Cloud and Server.
type issueClient struct {
	rest    *rest.Client
	apiPath string // e.g. "rest/api/3/"
}

// GetIssue fetches a single issue by key (e.g., "PROJ-123").
func (c *issueClient) GetIssue(ctx context.Context, key string, fields []string) (*Issue, error) {
	query := url.Values{}
	if len(fields) > 0 {
		query.Set("fields", strings.Join(fields, ","))
	}
	var issue Issue
	if err := c.rest.DoJSON(ctx, http.MethodGet, c.apiPath+"issue/"+url.PathEscape(key), query, nil, &issue); err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}
	return &issue, nil
}

// EditIssue updates an existing issue by key.
func (c *issueClient) EditIssue(ctx context.Context, key string, fields map[string]any) error {
	body := map[string]any{"fields": fields}
	if err := c.rest.DoJSON(ctx, http.MethodPut, c.apiPath+"issue/"+url.PathEscape(key), nil, body, nil); err != nil {
		return fmt.Errorf("edit issue %s: %w", key, err)
	}
	return nil
}

// CloudClient talks to Jira Cloud (REST API v3).
type CloudClient struct {
	issueClient
}

// NewCloudClient returns a Jira Cloud client. The rest client's base URL is the site root,
// e.g. "https://example.atlassian.net/".
func NewCloudClient(r *rest.Client) *CloudClient {
	return &CloudClient{issueClient{rest: r, apiPath: "rest/api/3/"}}
}

// SearchJQL fetches one page of the enhanced JQL search.
func (c *CloudClient) SearchJQL(ctx context.Context, req CursorSearchRequest) (*CursorSearchPage, error) {
	var page CursorSearchPage
	if err := c.rest.DoJSON(ctx, http.MethodPost, c.apiPath+"search/jql", nil, req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ServerClient talks to Jira Server/Data Center (REST API v2).
type ServerClient struct {
	issueClient
}

// NewServerClient returns a Jira Server client for the given site root.
func NewServerClient(r *rest.Client) *ServerClient {
	return &ServerClient{issueClient{rest: r, apiPath: "rest/api/2/"}}
}

// Search fetches one page of a JQL search.
func (c *ServerClient) Search(ctx context.Context, req OffsetSearchRequest) (*OffsetSearchPage, error) {
	var page OffsetSearchPage
	if err := c.rest.DoJSON(ctx, http.MethodPost, c.apiPath+"search", nil, req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
