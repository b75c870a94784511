// Package sarif reads the SARIF reports written by the Roslyn compiler
// (legacy 0.1/0.4 and current 1.0/2.x layouts) and replays their rules and
// results through a Callback.
package sarif

import (
	"fmt"
	"strings"
)

// Project identifies the .NET project a report belongs to. It is opaque to
// the parsers and handed back unchanged on project level issues.
type Project string

// RoslynReport is a report file and the project that produced it.
// Two reports are the same when both fields are equal.
type RoslynReport struct {
	Path    string
	Project Project
}

func (r RoslynReport) String() string {
	return fmt.Sprintf("%s (%s)", r.Path, r.Project)
}

// Location is a position inside a source file. Lines and columns are 1-based;
// a zero column means the report did not carry one.
type Location struct {
	AbsolutePath string
	Message      string
	StartLine    int
	StartColumn  int
	EndLine      int
	EndColumn    int
}

func (l Location) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%d,%d)-(%d,%d)", l.AbsolutePath, l.StartLine, l.StartColumn, l.EndLine, l.EndColumn)
	if l.Message != "" {
		b.WriteString(" ")
		b.WriteString(l.Message)
	}
	return b.String()
}

// Callback receives the normalized content of a report. level is the raw
// SARIF level ("error", "warning", "note", ...) or "" when the result did not
// carry one. A non-nil error stops the parser.
type Callback interface {
	// OnIssue reports a result with a precise primary location. When
	// withExecutionFlow is set, secondary is a code flow in report order.
	OnIssue(ruleID, level string, primary Location, secondary []Location, withExecutionFlow bool) error
	// OnFileIssue reports a result located on a file without a region.
	OnFileIssue(ruleID, level, absolutePath string, secondary []Location, message string) error
	// OnProjectIssue reports a result without any location.
	OnProjectIssue(ruleID, level string, project Project, message string) error
	// OnRule reports a rule descriptor. defaultLevel is never empty.
	OnRule(ruleID, shortDescription, fullDescription, defaultLevel, category string) error
}
