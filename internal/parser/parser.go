package parser

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/fjglira/xraysync/internal/domain"
)

// Parser turns a feature file into a Gherkin AST.
type Parser interface {
	Parse(filePath string) (*messages.GherkinDocument, error)
	SupportedExtensions() []string
}

// GherkinParser parses feature files with the official Cucumber Gherkin parser.
type GherkinParser struct{}

// NewGherkinParser creates a new GherkinParser.
func NewGherkinParser() *GherkinParser {
	return &GherkinParser{}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *GherkinParser) SupportedExtensions() []string {
	return []string{".feature"}
}

// Supports reports whether the file extension of filePath is handled by the parser.
func (p *GherkinParser) Supports(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, supported := range p.SupportedExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}

// Parse reads and parses a feature file.
func (p *GherkinParser) Parse(filePath string) (*messages.GherkinDocument, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, domain.NewErrorWithSuggestion(domain.PhaseParse, filePath, 0,
			"failed to read feature file",
			"check that the file exists and has read permissions",
			err)
	}
	return p.ParseContent(filePath, content)
}

// ParseContent parses feature file content that has already been read.
func (p *GherkinParser) ParseContent(filePath string, content []byte) (*messages.GherkinDocument, error) {
	ids := &messages.Incrementing{}
	doc, err := gherkin.ParseGherkinDocument(bytes.NewReader(content), ids.NewId)
	if err != nil {
		return nil, domain.NewError(domain.PhaseParse, filePath, 0, "failed to parse feature file", err)
	}
	doc.Uri = filePath
	return doc, nil
}
