package sarif

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// event is one recorded callback invocation.
type event struct {
	Kind      string
	RuleID    string
	Level     string
	Primary   Location
	Secondary []Location
	Flow      bool
	Path      string
	Project   Project
	Message   string
	Short     string
	Full      string
	Category  string
}

type recorder struct {
	events []event
	failOn string
}

func (r *recorder) record(e event) error {
	r.events = append(r.events, e)
	if r.failOn != "" && e.RuleID == r.failOn {
		return errors.New("stop")
	}
	return nil
}

func (r *recorder) OnIssue(ruleID, level string, primary Location, secondary []Location, flow bool) error {
	return r.record(event{Kind: "issue", RuleID: ruleID, Level: level, Primary: primary, Secondary: secondary, Flow: flow})
}

func (r *recorder) OnFileIssue(ruleID, level, path string, secondary []Location, message string) error {
	return r.record(event{Kind: "file", RuleID: ruleID, Level: level, Path: path, Secondary: secondary, Message: message})
}

func (r *recorder) OnProjectIssue(ruleID, level string, project Project, message string) error {
	return r.record(event{Kind: "project", RuleID: ruleID, Level: level, Project: project, Message: message})
}

func (r *recorder) OnRule(ruleID, short, full, level, category string) error {
	return r.record(event{Kind: "rule", RuleID: ruleID, Level: level, Short: short, Full: full, Category: category})
}

func accept(t *testing.T, doc string) []event {
	t.Helper()
	p, err := Parse([]byte(doc), "report.json", "proj", nil)
	require.NoError(t, err)
	rec := &recorder{}
	require.NoError(t, p.Accept(rec))
	return rec.events
}

func assertEvents(t *testing.T, want, got []event) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestVersionDispatch(t *testing.T) {
	t.Parallel()

	for version, legacy := range map[string]bool{"0.1": true, "0.4": true, "1.0.0": false, "2.1.0": false, "42": false} {
		p, err := Parse([]byte(`{"version": "`+version+`"}`), "r.json", "", nil)
		require.NoError(t, err, version)
		assert.Equal(t, legacy, p.Legacy(), version)
		assert.Equal(t, version, p.Version())
	}
}

func TestMissingVersionIsFatal(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"runs": []}`), "/r/report.json", "", nil)
	require.ErrorIs(t, err, ErrUnrecognizedFormat)
	assert.EqualError(t, err, "Unable to parse the Roslyn SARIF report file: /r/report.json. Unrecognized format")

	_, err = Parse([]byte(`[1, 2]`), "/r/report.json", "", nil)
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestInvalidJSONIsFatal(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"version": `), "/r/report.json", "", nil)
	require.ErrorIs(t, err, ErrUnreadable)
	assert.Contains(t, err.Error(), "Unable to read the Roslyn SARIF report file: /r/report.json")
}

func TestCreate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte("\xef\xbb\xbf{\"version\": \"0.4\", \"issues\": []}"), 0o600))

	p, err := Create(RoslynReport{Path: path, Project: "proj"}, nil)
	require.NoError(t, err)
	assert.True(t, p.Legacy())

	_, err = Create(RoslynReport{Path: filepath.Join(dir, "missing.json")}, nil)
	require.ErrorIs(t, err, ErrUnreadable)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRealPathIsApplied(t *testing.T) {
	t.Parallel()

	doc := `{"version": "0.4", "issues": [{"ruleId": "S1", "shortMessage": "m",
	  "locations": [{"analysisTarget": [{"uri": "file:///src/a.cs", "region": {"startLine": 1}}]}]}]}`
	p, err := Parse([]byte(doc), "r.json", "", func(s string) string { return "/real" + s })
	require.NoError(t, err)
	rec := &recorder{}
	require.NoError(t, p.Accept(rec))
	require.Len(t, rec.events, 1)
	assert.Equal(t, "/real/src/a.cs", rec.events[0].Primary.AbsolutePath)
}

func TestURIToPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"file:///home/u/src/a.cs":     "/home/u/src/a.cs",
		"file:///C:/src/a.cs":         "C:/src/a.cs",
		"file://server/share/a.cs":    "//server/share/a.cs",
		"file:///src/with%20space.cs": "/src/with space.cs",
		`C:\src\a.cs`:                 `C:\src\a.cs`,
		"/src/a.cs":                   "/src/a.cs",
	}
	for in, want := range tests {
		assert.Equal(t, want, uriToPath(in), in)
	}
}

func TestCallbackErrorStopsParsing(t *testing.T) {
	t.Parallel()

	doc := `{"version": "0.4", "issues": [{"ruleId": "A", "shortMessage": "m"}, {"ruleId": "B", "shortMessage": "m"}]}`
	p, err := Parse([]byte(doc), "r.json", "", nil)
	require.NoError(t, err)
	rec := &recorder{failOn: "A"}
	require.EqualError(t, p.Accept(rec), "stop")
	assert.Len(t, rec.events, 1)
}

func TestLocationString(t *testing.T) {
	t.Parallel()

	l := Location{AbsolutePath: "/a.cs", Message: "here", StartLine: 1, StartColumn: 2, EndLine: 3, EndColumn: 4}
	assert.Equal(t, "/a.cs(1,2)-(3,4) here", l.String())
	assert.Equal(t, "/r.json (p)", RoslynReport{Path: "/r.json", Project: "p"}.String())
}
