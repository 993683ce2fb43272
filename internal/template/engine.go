package template

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/fjglira/xraysync/internal/domain"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// TemplateEngine renders named message templates.
type TemplateEngine interface {
	Render(name string, data any) (string, error)
	ListTemplates() []string
}

// DefaultEngine implements TemplateEngine.
type DefaultEngine struct {
	templates map[string]*template.Template
}

// NewEngine creates an engine from the built-in templates.
func NewEngine() (*DefaultEngine, error) {
	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		return nil, domain.NewError(domain.PhaseTemplate, "templates", 0, "failed to open built-in templates", err)
	}
	return NewEngineFS(sub)
}

// NewEngineFS creates an engine from all .tmpl files at the root of fsys.
func NewEngineFS(fsys fs.FS) (*DefaultEngine, error) {
	engine := &DefaultEngine{templates: make(map[string]*template.Template)}
	if err := engine.loadTemplates(fsys); err != nil {
		return nil, err
	}
	return engine, nil
}

// loadTemplates parses every .tmpl file of fsys.
func (e *DefaultEngine) loadTemplates(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return domain.NewError(domain.PhaseTemplate, ".", 0, "failed to read template directory", err)
	}

	funcMap := CustomFuncMap()

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".tmpl" {
			continue
		}

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return domain.NewError(domain.PhaseTemplate, entry.Name(), 0, "failed to read template file", err)
		}

		name := strings.TrimSuffix(entry.Name(), ".tmpl")
		tmpl, err := template.New(name).Funcs(funcMap).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return domain.NewError(domain.PhaseTemplate, entry.Name(), 0, "failed to parse template", err)
		}

		e.templates[name] = tmpl
	}

	if len(e.templates) == 0 {
		return domain.NewError(domain.PhaseTemplate, ".", 0, "no templates found", nil)
	}

	return nil
}

// Render executes the named template and returns the text without trailing newlines.
func (e *DefaultEngine) Render(name string, data any) (string, error) {
	tmpl, ok := e.templates[name]
	if !ok {
		return "", domain.NewError(domain.PhaseTemplate, "", 0,
			fmt.Sprintf("template %q not found (available: %s)", name, strings.Join(e.ListTemplates(), ", ")), nil)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", domain.NewError(domain.PhaseTemplate, name, 0, "failed to execute template", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// ListTemplates returns the sorted names of all loaded templates.
func (e *DefaultEngine) ListTemplates() []string {
	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
