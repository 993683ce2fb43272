package template

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// CustomFuncMap returns the template functions available to diagnostic templates:
// sprig's text functions plus a few helpers for quoting feature file snippets.
func CustomFuncMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["orNoName"] = func(name string) string {
		if strings.TrimSpace(name) == "" {
			return "<no name>"
		}
		return name
	}
	funcs["lines"] = func(spaces int, lines []string) string {
		pad := strings.Repeat(" ", spaces)
		out := make([]string, len(lines))
		for i, line := range lines {
			if line == "" {
				continue
			}
			out[i] = pad + line
		}
		return strings.Join(out, "\n")
	}
	return funcs
}
