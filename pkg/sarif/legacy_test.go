package sarif

import "testing"

const legacyReport = `{
  "version": "0.4",
  "toolInfo": {"toolName": "Microsoft (R) Visual C# Compiler", "productVersion": "1.0.0"},
  "issues": [
    {
      "ruleId": "S1234",
      "shortMessage": "Short",
      "fullMessage": "Full",
      "locations": [{"analysisTarget": [
        {"uri": "file:///src/a.cs", "region": {"startLine": 10, "startColumn": 5, "endLine": 10, "endColumn": 9}},
        {"uri": "file:///src/b.cs", "region": {"startLine": 3, "startColumn": 1, "endLine": 4, "endColumn": 2}}
      ]}],
      "properties": {"severity": "Warning", "warningLevel": "1"}
    },
    {
      "ruleId": "S1000",
      "fullMessage": "Only full",
      "locations": [{"analysisTarget": [{"uri": "/src/c.cs", "region": {"startLine": 2}}]}]
    },
    {
      "ruleId": "CA1000",
      "shortMessage": "No region",
      "locations": [{"analysisTarget": [{"uri": "/src/d.cs"}]}],
      "properties": {"severity": "Error"}
    },
    {
      "ruleId": "S9999",
      "shortMessage": "Project",
      "locations": []
    },
    {
      "ruleId": "S2222",
      "shortMessage": "Suppressed",
      "locations": [{"analysisTarget": [{"uri": "/src/a.cs", "region": {"startLine": 1}}]}],
      "properties": {"isSuppressedInSource": true}
    }
  ]
}`

func TestLegacy(t *testing.T) {
	t.Parallel()

	want := []event{
		{
			Kind: "issue", RuleID: "S1234", Level: "Warning",
			Primary: Location{AbsolutePath: "/src/a.cs", Message: "Short", StartLine: 10, StartColumn: 5, EndLine: 10, EndColumn: 9},
			Secondary: []Location{
				{AbsolutePath: "/src/b.cs", StartLine: 3, StartColumn: 1, EndLine: 4, EndColumn: 2},
			},
		},
		{
			Kind: "issue", RuleID: "S1000",
			Primary:   Location{AbsolutePath: "/src/c.cs", Message: "Only full", StartLine: 2, EndLine: 2},
			Secondary: []Location{},
		},
		{Kind: "file", RuleID: "CA1000", Level: "Error", Path: "/src/d.cs", Secondary: []Location{}, Message: "No region"},
		{Kind: "project", RuleID: "S9999", Project: "proj", Message: "Project"},
	}
	assertEvents(t, want, accept(t, legacyReport))
}
