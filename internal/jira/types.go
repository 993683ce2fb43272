package jira

// Issue represents a Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id,omitempty"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the fields xraysync reads or restores.
type IssueFields struct {
	Summary   string     `json:"summary,omitempty"`
	Labels    []string   `json:"labels,omitempty"`
	IssueType *IssueType `json:"issuetype,omitempty"`
}

// IssueType represents a Jira issue type.
type IssueType struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// CursorSearchRequest is the body of the Jira Cloud enhanced JQL search.
type CursorSearchRequest struct {
	JQL           string   `json:"jql"`
	Fields        []string `json:"fields,omitempty"`
	MaxResults    int      `json:"maxResults,omitempty"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// CursorSearchPage is one page of a Jira Cloud enhanced JQL search.
type CursorSearchPage struct {
	Issues        []Issue `json:"issues,omitempty"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	IsLast        bool    `json:"isLast"`
}

// OffsetSearchRequest is the body of the Jira Server/DC search.
type OffsetSearchRequest struct {
	JQL           string   `json:"jql"`
	Fields        []string `json:"fields,omitempty"`
	MaxResults    int      `json:"maxResults,omitempty"`
	StartAt       int      `json:"startAt"`
	ValidateQuery string   `json:"validateQuery,omitempty"`
}

// OffsetSearchPage is one page of a Jira Server/DC search. StartAt and Total are pointers so
// that an omitted value can be told apart from zero.
type OffsetSearchPage struct {
	Issues  []Issue `json:"issues,omitempty"`
	StartAt *int    `json:"startAt,omitempty"`
	Total   *int    `json:"total,omitempty"`
}
