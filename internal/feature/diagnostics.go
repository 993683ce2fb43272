package feature

import (
	"sort"
	"strings"

	"github.com/fjglira/xraysync/internal/domain"
	tmpl "github.com/fjglira/xraysync/internal/template"
)

const (
	cloudImportHelp  = "https://docs.getxray.app/display/XRAYCLOUD/Importing+Cucumber+Tests+-+REST+v2"
	cloudBDDHelp     = "https://docs.getxray.app/display/XRAYCLOUD/Testing+in+BDD+with+Gherkin+based+frameworks+%28e.g.+Cucumber%29"
	serverImportHelp = "https://docs.getxray.app/display/XRAY/Importing+Cucumber+Tests+-+REST"
	serverBDDHelp    = "https://docs.getxray.app/display/XRAY/Testing+in+BDD+with+Gherkin+based+frameworks+%28e.g.+Cucumber%29"

	fallbackStep = "Given A step"
)

// diagnostic is the data passed to the missing/ambiguous templates.
type diagnostic struct {
	FilePath        string
	Line            int
	Keyword         string
	Name            string
	Subject         string // "test" or "precondition"
	Marker          string // "tag" or "comment"
	IssueKeys       []string
	Snippet         []string
	Example         []string
	Prefix          string
	PrefixKey       string
	SuggestedPrefix string
	SuggestedText   string
	HelpLinks       []string
}

// Diagnostics renders one message per background or scenario of data that is missing an issue
// key or references more than one. Backgrounds come first, then scenarios, each in source order.
func Diagnostics(engine tmpl.TemplateEngine, data *domain.FeatureFileData, opts Options) ([]string, error) {
	var out []string
	for _, bucket := range []domain.IssueKeyBuckets{data.Backgrounds, data.Scenarios} {
		for _, node := range bucket.WithoutIssueKeys {
			msg, err := engine.Render("missing", newDiagnostic(data.FilePath, node, nil, opts))
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}
		for _, ambiguous := range bucket.MultipleIssueKeys {
			msg, err := engine.Render("ambiguous", newDiagnostic(data.FilePath, ambiguous.Node, ambiguous.IssueKeys, opts))
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}
	}
	return out, nil
}

func newDiagnostic(filePath string, node domain.TaggedNode, keys []string, opts Options) diagnostic {
	d := diagnostic{
		FilePath:  filePath,
		Line:      node.Line,
		Keyword:   node.Keyword,
		Name:      node.Name,
		IssueKeys: keys,
		HelpLinks: helpLinks(opts.Cloud),
	}

	exampleKey := opts.ProjectKey + "-123"
	if len(keys) > 0 {
		exampleKey = keys[0]
	}

	if node.Kind == domain.NodeBackground {
		d.Subject, d.Marker = "precondition", "comment"
		d.Prefix = opts.PreconditionPrefix
		d.PrefixKey = "cucumber.prefixes.preconditions"
		d.SuggestedPrefix = "Precondition:"
		d.SuggestedText = "#@" + d.SuggestedPrefix + exampleKey
		d.Example = []string{
			header(node),
			"  #@" + d.Prefix + exampleKey,
			"  " + stepOrFallback(node),
		}
	} else {
		d.Subject, d.Marker = "test", "tag"
		d.Prefix = opts.TestPrefix
		d.PrefixKey = "cucumber.prefixes.tests"
		d.SuggestedPrefix = "TestName:"
		d.SuggestedText = "@" + d.SuggestedPrefix + exampleKey
		d.Example = []string{
			"@" + d.Prefix + exampleKey,
			header(node),
			"  " + stepOrFallback(node),
		}
	}

	if len(keys) > 0 {
		d.Snippet = Underline(node, keys)
	}
	return d
}

func helpLinks(cloud bool) []string {
	if cloud {
		return []string{cloudImportHelp, cloudBDDHelp}
	}
	return []string{serverImportHelp, serverBDDHelp}
}

func header(node domain.TaggedNode) string {
	return strings.TrimRight(node.Keyword+": "+node.Name, " ")
}

func stepOrFallback(node domain.TaggedNode) string {
	if node.FirstStep == "" {
		return fallbackStep
	}
	return node.FirstStep
}

// Underline reconstructs the tags or comments of node at their original columns and marks every
// one ending with one of keys with carets on the following line. Scenario tags are followed by the
// scenario header, background comments are preceded by the background header.
func Underline(node domain.TaggedNode, keys []string) []string {
	if len(node.Texts) == 0 {
		return []string{header(node)}
	}

	byLine := map[int][]domain.SourceText{}
	minCol := node.Texts[0].Column
	for _, t := range node.Texts {
		byLine[t.Line] = append(byLine[t.Line], t)
		if t.Column < minCol {
			minCol = t.Column
		}
	}
	lineNumbers := make([]int, 0, len(byLine))
	for l := range byLine {
		lineNumbers = append(lineNumbers, l)
	}
	sort.Ints(lineNumbers)

	indent := ""
	if node.Kind == domain.NodeBackground {
		indent = "  "
	}

	var body []string
	for _, l := range lineNumbers {
		texts := byLine[l]
		sort.Slice(texts, func(i, j int) bool { return texts[i].Column < texts[j].Column })

		var text, marks []rune
		for _, t := range texts {
			offset := t.Column - minCol
			for len(text) < offset {
				text = append(text, ' ')
			}
			for len(marks) < len(text) {
				marks = append(marks, ' ')
			}
			runes := []rune(t.Text)
			text = append(text, runes...)
			mark := ' '
			if endsWithAny(t.Text, keys) {
				mark = '^'
			}
			for range runes {
				marks = append(marks, mark)
			}
		}
		body = append(body, indent+string(text))
		if underline := strings.TrimRight(string(marks), " "); underline != "" {
			body = append(body, indent+underline)
		}
	}

	if node.Kind == domain.NodeBackground {
		return append([]string{header(node)}, body...)
	}
	return append(body, header(node))
}

func endsWithAny(text string, keys []string) bool {
	for _, key := range keys {
		if strings.HasSuffix(text, key) {
			return true
		}
	}
	return false
}
