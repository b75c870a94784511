package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/dkoosis/dotrep/internal/importer"
	"github.com/dkoosis/dotrep/pkg/issues"
	"github.com/dkoosis/dotrep/pkg/telemetry"
	"github.com/dkoosis/dotrep/pkg/testresults"
)

// JSON renders a summary as structured JSON for automation.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

// jsonVersion is bumped on incompatible output changes.
const jsonVersion = "1.0"

type jsonOutput struct {
	Version        string              `json:"version"`
	BaseDir        string              `json:"baseDir"`
	Stats          issues.Stats        `json:"stats"`
	Issues         []jsonIssue         `json:"issues"`
	ExternalIssues []jsonExternalIssue `json:"externalIssues"`
	Rules          []issues.AdHocRule  `json:"rules"`
	Tests          jsonTests           `json:"tests"`
	Telemetry      jsonTelemetry       `json:"telemetry"`
	Failures       []jsonFailure       `json:"failures"`
}

type jsonIssue struct {
	issues.Issue
	Fingerprint string `json:"fingerprint"`
}

type jsonExternalIssue struct {
	issues.ExternalIssue
	Fingerprint string `json:"fingerprint"`
}

type jsonTestResults struct {
	Tests           int    `json:"tests"`
	Skipped         int    `json:"skipped"`
	Failures        int    `json:"failures"`
	Errors          int    `json:"errors"`
	ExecutionTimeMs *int64 `json:"executionTimeMs"`
}

type jsonTests struct {
	Reports int                        `json:"reports"`
	Totals  jsonTestResults            `json:"totals"`
	Files   map[string]jsonTestResults `json:"files"`
}

type jsonTelemetry struct {
	telemetry.Summary
	Messages []telemetry.Telemetry `json:"messages"`
}

type jsonFailure struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Render writes s as indented JSON. Empty collections are written as [] or {}.
func (j *JSON) Render(w io.Writer, s *importer.Summary) error {
	out := jsonOutput{
		Version:        jsonVersion,
		BaseDir:        s.BaseDir,
		Stats:          s.Stats,
		Issues:         make([]jsonIssue, 0, len(s.Issues)),
		ExternalIssues: make([]jsonExternalIssue, 0, len(s.ExternalIssues)),
		Rules:          append([]issues.AdHocRule{}, s.AdHocRules...),
		Tests: jsonTests{
			Reports: s.TestReports,
			Totals:  testResults(s.TestTotals),
			Files:   make(map[string]jsonTestResults, len(s.TestFiles)),
		},
		Telemetry: jsonTelemetry{
			Summary:  telemetry.Summarize(s.Telemetry),
			Messages: append([]telemetry.Telemetry{}, s.Telemetry...),
		},
		Failures: make([]jsonFailure, 0, len(s.Failures)),
	}
	for _, i := range s.Issues {
		out.Issues = append(out.Issues, jsonIssue{Issue: i, Fingerprint: fingerprint(i.Rule.String(), i.Primary)})
	}
	for _, e := range s.ExternalIssues {
		out.ExternalIssues = append(out.ExternalIssues, jsonExternalIssue{
			ExternalIssue: e,
			Fingerprint:   fingerprint(e.EngineID+":"+e.RuleID, e.Primary),
		})
	}
	for path, r := range s.TestFiles {
		out.Tests.Files[path] = testResults(r)
	}
	for _, f := range s.Failures {
		out.Failures = append(out.Failures, jsonFailure{Kind: f.Kind, Path: f.Path, Error: f.Err.Error()})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func testResults(r testresults.UnitTestResults) jsonTestResults {
	out := jsonTestResults{
		Tests:    r.Tests(),
		Skipped:  r.Skipped(),
		Failures: r.Failures(),
		Errors:   r.Errors(),
	}
	if ms, ok := r.ExecutionTime(); ok {
		out.ExecutionTimeMs = &ms
	}
	return out
}

// fingerprint identifies an issue across runs: its rule, file, range and
// message, hashed with xxhash.
func fingerprint(rule string, loc issues.IssueLocation) string {
	d := xxhash.New()
	_, _ = d.WriteString(rule)
	_, _ = d.WriteString("\x00" + loc.File + "\x00")
	if r := loc.Range; r != nil {
		_, _ = d.WriteString(fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn))
	}
	_, _ = d.WriteString("\x00" + loc.Message)
	return fmt.Sprintf("%016x", d.Sum64())
}

// sortedPaths returns the keys of m in order.
func sortedPaths(m map[string]testresults.UnitTestResults) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
