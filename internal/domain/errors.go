package domain

import (
	"errors"
	"fmt"
)

// Phases of the sync pipeline, used to tell where an error came from.
const (
	PhaseConfig   = "config"
	PhaseScan     = "scan"
	PhaseParse    = "parse"
	PhaseTags     = "tags"
	PhaseConvert  = "convert"
	PhaseTemplate = "template"
	PhaseSearch   = "search"
	PhaseSnapshot = "snapshot"
	PhaseUpload   = "upload"
	PhaseEvidence = "evidence"
)

// Test run lookup failures on Xray Cloud.
var (
	ErrNoTestRun        = errors.New("no test run found")
	ErrMultipleTestRuns = errors.New("multiple test runs found")
	ErrTestRunWithoutID = errors.New("test run does not have an id")
)

// XraySyncError is the base error type with context.
type XraySyncError struct {
	Phase      string
	File       string
	LineNumber int
	Message    string
	Suggestion string
	Cause      error
}

func (e *XraySyncError) Error() string {
	s := fmt.Sprintf("[%s]", e.Phase)
	if e.File != "" {
		s += fmt.Sprintf(" %s", e.File)
	}
	if e.LineNumber > 0 {
		s += fmt.Sprintf(":%d", e.LineNumber)
	}
	s += fmt.Sprintf(": %s", e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	if e.Suggestion != "" {
		s += fmt.Sprintf(" (hint: %s)", e.Suggestion)
	}
	return s
}

func (e *XraySyncError) Unwrap() error {
	return e.Cause
}

// NewError creates a new XraySyncError.
func NewError(phase, file string, line int, message string, cause error) *XraySyncError {
	return &XraySyncError{
		Phase:      phase,
		File:       file,
		LineNumber: line,
		Message:    message,
		Cause:      cause,
	}
}

// NewErrorWithSuggestion creates a new XraySyncError carrying a hint for the user.
func NewErrorWithSuggestion(phase, file string, line int, message, suggestion string, cause error) *XraySyncError {
	err := NewError(phase, file, line, message, cause)
	err.Suggestion = suggestion
	return err
}

// PhaseOf returns the phase of the first XraySyncError in err's chain.
func PhaseOf(err error) string {
	var syncErr *XraySyncError
	if errors.As(err, &syncErr) {
		return syncErr.Phase
	}
	return ""
}
