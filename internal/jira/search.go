package jira

import (
	"context"
	"fmt"
	"strings"
)

// DefaultPageSize is the number of issues requested per page.
const DefaultPageSize = 100

// issueSet accumulates issues by key. A later record for a key replaces the earlier one but
// keeps its original position.
type issueSet struct {
	order  []string
	issues map[string]Issue
}

func newIssueSet() *issueSet {
	return &issueSet{issues: map[string]Issue{}}
}

func (s *issueSet) add(issues []Issue) {
	for _, issue := range issues {
		if issue.Key == "" {
			continue
		}
		if _, ok := s.issues[issue.Key]; !ok {
			s.order = append(s.order, issue.Key)
		}
		s.issues[issue.Key] = issue
	}
}

func (s *issueSet) values() []Issue {
	out := make([]Issue, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.issues[key])
	}
	return out
}

// SearchCursor fetches every page of a token-paginated search. Pages are requested while the
// previous page returned a token or did not claim to be the last one.
func SearchCursor(ctx context.Context, searcher CursorSearcher, req CursorSearchRequest) ([]Issue, error) {
	set := newIssueSet()
	for {
		page, err := searcher.SearchJQL(ctx, req)
		if err != nil {
			return nil, err
		}
		set.add(page.Issues)
		req.NextPageToken = page.NextPageToken
		if req.NextPageToken == "" && page.IsLast {
			return set.values(), nil
		}
	}
}

// SearchOffset fetches every page of an offset-paginated search. The total is kept from earlier
// pages when a page omits it, and the cursor only advances when a page states its startAt.
func SearchOffset(ctx context.Context, searcher OffsetSearcher, req OffsetSearchRequest) ([]Issue, error) {
	set := newIssueSet()
	startAt := req.StartAt
	total := 0
	for {
		req.StartAt = startAt
		page, err := searcher.Search(ctx, req)
		if err != nil {
			return nil, err
		}
		if page.Total != nil {
			total = *page.Total
		}
		set.add(page.Issues)
		if page.StartAt != nil && page.Issues != nil {
			startAt = *page.StartAt + len(page.Issues)
		}
		if startAt == 0 || startAt >= total {
			return set.values(), nil
		}
	}
}

// Kind selects the pagination protocol of an IssueSearcher.
type Kind int

const (
	KindServer Kind = iota
	KindCloud
)

// IssueSearcher runs complete searches against either Jira Cloud or Jira Server.
type IssueSearcher struct {
	kind     Kind
	cursor   CursorSearcher
	offset   OffsetSearcher
	PageSize int
}

// NewCloudSearcher returns a searcher using token pagination.
func NewCloudSearcher(s CursorSearcher) *IssueSearcher {
	return &IssueSearcher{kind: KindCloud, cursor: s, PageSize: DefaultPageSize}
}

// NewServerSearcher returns a searcher using offset pagination.
func NewServerSearcher(s OffsetSearcher) *IssueSearcher {
	return &IssueSearcher{kind: KindServer, offset: s, PageSize: DefaultPageSize}
}

// Kind returns the pagination protocol in use.
func (s *IssueSearcher) Kind() Kind {
	return s.kind
}

// Search returns all issues matching jql, deduplicated by key.
func (s *IssueSearcher) Search(ctx context.Context, jql string, fields []string) ([]Issue, error) {
	if s.kind == KindCloud {
		return SearchCursor(ctx, s.cursor, CursorSearchRequest{
			JQL:        jql,
			Fields:     fields,
			MaxResults: s.PageSize,
		})
	}
	return SearchOffset(ctx, s.offset, OffsetSearchRequest{
		JQL:           jql,
		Fields:        fields,
		MaxResults:    s.PageSize,
		ValidateQuery: "warn",
	})
}

// IssuesByKey looks up the given issues and returns the ones that exist, keyed by issue key.
func (s *IssueSearcher) IssuesByKey(ctx context.Context, keys []string, fields []string) (map[string]Issue, error) {
	out := make(map[string]Issue, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	issues, err := s.Search(ctx, KeysJQL(keys), fields)
	if err != nil {
		return nil, err
	}
	for _, issue := range issues {
		out[issue.Key] = issue
	}
	return out, nil
}

// KeysJQL builds a query matching exactly the given issue keys.
func KeysJQL(keys []string) string {
	quoted := make([]string, len(keys))
	for i, key := range keys {
		quoted[i] = fmt.Sprintf("%q", key)
	}
	return "key in (" + strings.Join(quoted, ",") + ")"
}

// IssueIDs maps the given issue keys to their ids. Keys that do not exist are left out.
func (s *IssueSearcher) IssueIDs(ctx context.Context, keys []string) (map[string]string, error) {
	issues, err := s.IssuesByKey(ctx, keys, []string{"id"})
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(issues))
	for key, issue := range issues {
		ids[key] = issue.ID
	}
	return ids, nil
}
