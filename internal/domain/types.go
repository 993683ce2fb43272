package domain

// NodeKind identifies the Gherkin element an issue key is attached to.
type NodeKind string

const (
	NodeBackground NodeKind = "Background"
	NodeScenario   NodeKind = "Scenario"
)

// SourceText is a tag or comment as it appears in a feature file.
type SourceText struct {
	Text   string
	Line   int // 1-based
	Column int // 1-based
}

// TaggedNode is the part of a background or scenario needed to explain a tagging problem.
// It is detached from the Gherkin AST so diagnostics can be rendered after parsing.
type TaggedNode struct {
	Kind      NodeKind
	Keyword   string // e.g. "Scenario Outline", "Background"
	Name      string
	Line      int
	FirstStep string       // "Given a step", empty when the node has no steps
	Texts     []SourceText // scenario tags or background comments, in source order
}

// AmbiguousNode is a node referencing more than one distinct issue key.
type AmbiguousNode struct {
	Node      TaggedNode
	IssueKeys []string
}

// IssueKeyBuckets collects the nodes of one kind that could not be resolved to exactly one key.
type IssueKeyBuckets struct {
	WithoutIssueKeys  []TaggedNode
	MultipleIssueKeys []AmbiguousNode
}

// Empty reports whether no node ended up in either bucket.
func (b IssueKeyBuckets) Empty() bool {
	return len(b.WithoutIssueKeys) == 0 && len(b.MultipleIssueKeys) == 0
}

// FeatureFileData holds the result of resolving issue keys in a single feature file.
type FeatureFileData struct {
	FilePath     string
	AllIssueKeys []string // one key per resolved background/scenario, duplicates allowed
	Backgrounds  IssueKeyBuckets
	Scenarios    IssueKeyBuckets
}

// Valid reports whether every background and scenario resolved to exactly one key.
func (d *FeatureFileData) Valid() bool {
	return d.Backgrounds.Empty() && d.Scenarios.Empty()
}

// FeatureFileSummary is what later stages get to see of an accepted feature file.
type FeatureFileSummary struct {
	FilePath     string
	AllIssueKeys []string
}

// ImportPayload is the Xray JSON format for importing execution results.
type ImportPayload struct {
	TestExecutionKey string         `json:"testExecutionKey,omitempty"`
	Info             *ExecutionInfo `json:"info,omitempty"`
	Tests            []TestResult   `json:"tests,omitempty"`
}

// ExecutionInfo describes the test execution issue created or updated by an import.
type ExecutionInfo struct {
	Project          string   `json:"project,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	Description      string   `json:"description,omitempty"`
	StartDate        string   `json:"startDate,omitempty"`
	FinishDate       string   `json:"finishDate,omitempty"`
	TestPlanKey      string   `json:"testPlanKey,omitempty"`
	TestEnvironments []string `json:"testEnvironments,omitempty"`
}

// TestResult is the outcome of one test inside an ImportPayload.
type TestResult struct {
	TestKey  string         `json:"testKey,omitempty"`
	Start    string         `json:"start,omitempty"`
	Finish   string         `json:"finish,omitempty"`
	Comment  string         `json:"comment,omitempty"`
	Status   string         `json:"status"`
	Evidence []EvidenceItem `json:"evidence,omitempty"`
}

// EvidenceItem is a base64 encoded attachment of a test result.
type EvidenceItem struct {
	ContentType string `json:"contentType,omitempty"`
	Data        string `json:"data"`
	Filename    string `json:"filename"`
}

// OverlapResult is the set comparison of two groups of identifiers.
type OverlapResult struct {
	Intersection []string
	LeftOnly     []string
	RightOnly    []string
}

// Mismatch reports whether either side contains identifiers the other one lacks.
func (o OverlapResult) Mismatch() bool {
	return len(o.LeftOnly) > 0 || len(o.RightOnly) > 0
}
