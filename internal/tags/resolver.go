// Package tags extracts Jira issue keys from Gherkin scenario tags and background comments.
package tags

import (
	"regexp"
	"strings"

	messages "github.com/cucumber/messages/go/v21"

	"github.com/fjglira/xraysync/internal/domain"
)

// Status classifies a background or scenario by the distinct issue keys it references.
type Status int

const (
	StatusMissing Status = iota
	StatusResolved
	StatusAmbiguous
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusAmbiguous:
		return "ambiguous"
	default:
		return "missing"
	}
}

// Resolution is the outcome of matching one node's tags or comments.
type Resolution struct {
	Node domain.TaggedNode
	// IssueKeys lists every match in source order, duplicates included.
	IssueKeys []string
}

// DistinctKeys returns the matched keys with duplicates removed, keeping first occurrence order.
func (r Resolution) DistinctKeys() []string {
	seen := make(map[string]struct{}, len(r.IssueKeys))
	var out []string
	for _, key := range r.IssueKeys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// Status classifies the resolution by the number of distinct keys.
func (r Resolution) Status() Status {
	switch n := len(r.DistinctKeys()); {
	case n == 0:
		return StatusMissing
	case n == 1:
		return StatusResolved
	default:
		return StatusAmbiguous
	}
}

// TagPattern matches a scenario tag such as "@TestName:PRJ-123", capturing the key in group 1.
func TagPattern(projectKey, prefix string) *regexp.Regexp {
	return regexp.MustCompile("^@" + regexp.QuoteMeta(prefix) + "(" + regexp.QuoteMeta(projectKey) + `-\d+)$`)
}

// CommentPattern matches a background comment such as "#@Precondition:PRJ-7".
func CommentPattern(projectKey, prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^#\s*@` + regexp.QuoteMeta(prefix) + "(" + regexp.QuoteMeta(projectKey) + `-\d+)\s*$`)
}

// MatchTag returns the issue key referenced by a single tag name.
func MatchTag(projectKey, prefix, tagName string) (string, bool) {
	m := TagPattern(projectKey, prefix).FindStringSubmatch(strings.TrimSpace(tagName))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ResolveScenario collects the issue keys referenced by the tags of a scenario.
func ResolveScenario(scenario *messages.Scenario, projectKey, prefix string) Resolution {
	pattern := TagPattern(projectKey, prefix)
	node := domain.TaggedNode{
		Kind:      domain.NodeScenario,
		Keyword:   strings.TrimSpace(scenario.Keyword),
		Name:      scenario.Name,
		Line:      line(scenario.Location),
		FirstStep: firstStep(scenario.Steps),
	}
	res := Resolution{Node: node}
	for _, tag := range scenario.Tags {
		text := domain.SourceText{Text: tag.Name, Line: line(tag.Location), Column: column(tag.Location)}
		res.Node.Texts = append(res.Node.Texts, text)
		if m := pattern.FindStringSubmatch(tag.Name); m != nil {
			res.IssueKeys = append(res.IssueKeys, m[1])
		}
	}
	return res
}

// ResolveBackground collects the issue keys referenced by comments between the background
// keyword and its first step. A background without steps cannot reference any key.
func ResolveBackground(background *messages.Background, comments []*messages.Comment, projectKey, prefix string) Resolution {
	pattern := CommentPattern(projectKey, prefix)
	res := Resolution{
		Node: domain.TaggedNode{
			Kind:      domain.NodeBackground,
			Keyword:   strings.TrimSpace(background.Keyword),
			Name:      background.Name,
			Line:      line(background.Location),
			FirstStep: firstStep(background.Steps),
		},
	}
	if len(background.Steps) == 0 {
		return res
	}
	start := line(background.Location)
	end := line(background.Steps[0].Location)
	for _, comment := range comments {
		l := line(comment.Location)
		if l <= start || l >= end {
			continue
		}
		trimmed := strings.TrimSpace(comment.Text)
		indent := len(comment.Text) - len(strings.TrimLeft(comment.Text, " \t"))
		res.Node.Texts = append(res.Node.Texts, domain.SourceText{
			Text:   trimmed,
			Line:   l,
			Column: column(comment.Location) + indent,
		})
		if m := pattern.FindStringSubmatch(trimmed); m != nil {
			res.IssueKeys = append(res.IssueKeys, m[1])
		}
	}
	return res
}

func firstStep(steps []*messages.Step) string {
	if len(steps) == 0 {
		return ""
	}
	return strings.TrimSpace(steps[0].Keyword) + " " + steps[0].Text
}

func line(loc *messages.Location) int {
	if loc == nil {
		return 0
	}
	return int(loc.Line)
}

func column(loc *messages.Location) int {
	if loc == nil || loc.Column == 0 {
		return 1
	}
	return int(loc.Column)
}
