package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/dotrep/internal/fsindex"
	"github.com/dkoosis/dotrep/pkg/sarif"
)

const program = `class Program
{
    static void Main() { }
}
`

const xunitReport = `<assemblies>
  <assembly name="App.Tests.dll" total="3" passed="2" failed="1" skipped="0" time="0.5"/>
</assemblies>`

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

// solution lays out a solution with one SARIF report and an XUnit report and
// returns its base directory and configuration file.
func solution(t *testing.T, extraReports ...string) (base, cfg string) {
	t.Helper()
	base = fsindex.RealPath(t.TempDir())
	src := filepath.Join(base, "App", "Program.cs")
	write(t, src, []byte(program))

	b := sarif.NewBuilder("Microsoft (R) Visual C# Compiler", "4.8.0")
	b.AddRule("CA1822", "Mark members as static", "", "warning", "Performance")
	b.AddLocation("S1186", "warning", "Add a nested comment.", sarif.Location{
		AbsolutePath: src, StartLine: 3, StartColumn: 17, EndLine: 3, EndColumn: 21,
	})
	b.AddResult("CA1822", "", "Member 'Main' does not access instance data", src, 3, 17)
	data, err := b.Bytes()
	require.NoError(t, err)
	write(t, filepath.Join(base, "out", "App.sarif"), data)
	write(t, filepath.Join(base, "TestResults", "xunit.xml"), []byte(xunitReport))

	yaml := "roslyn_reports:\n  - path: out/App.sarif\n    project: App\n"
	for _, r := range extraReports {
		yaml += "  - path: " + r + "\n"
	}
	yaml += "tests:\n  xunit: [TestResults/xunit.xml]\nrules:\n  repositories:\n    S1186: csharpsquid\n"
	cfg = filepath.Join(base, ".dotrep.yaml")
	write(t, cfg, []byte(yaml))
	return base, cfg
}

func TestRun_PrintsVersion_When_VersionFlagGiven(t *testing.T) {
	t.Parallel()
	code, out, _ := execute(t, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "dotrep version dev")
	assert.Contains(t, out, "Commit: unknown")
}

func TestRun_ReturnsUsageError_When_CommandUnknown(t *testing.T) {
	t.Parallel()
	code, _, errOut := execute(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "dotrep: unknown command")
}

func TestImport_RendersJSON_When_ReportsImport(t *testing.T) {
	t.Parallel()
	base, cfg := solution(t)

	code, out, errOut := execute(t, "import", "--config", cfg, "--base-dir", base, "--format", "json")
	require.Equal(t, 0, code, errOut)

	var got struct {
		BaseDir string `json:"baseDir"`
		Stats   struct {
			Issues         int `json:"issues"`
			ExternalIssues int `json:"externalIssues"`
			AdHocRules     int `json:"adHocRules"`
		} `json:"stats"`
		Tests struct {
			Reports int `json:"reports"`
		} `json:"tests"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, base, got.BaseDir)
	assert.Equal(t, 1, got.Stats.Issues)
	assert.Equal(t, 1, got.Stats.ExternalIssues)
	assert.Equal(t, 1, got.Stats.AdHocRules)
	assert.Equal(t, 1, got.Tests.Reports)
	assert.Contains(t, errOut, "No protobuf reports found.")
}

func TestImport_RendersTerminal_When_ThemeMono(t *testing.T) {
	t.Parallel()
	base, cfg := solution(t)

	code, out, _ := execute(t, "import", "-c", cfg, "-d", base, "--theme", "mono", "--log-level", "error")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "dotrep: 1 files indexed in "+base)
	assert.Contains(t, out, "csharpsquid:S1186")
}

func TestImport_RendersSARIF_When_FormatSARIF(t *testing.T) {
	t.Parallel()
	base, cfg := solution(t)

	code, out, _ := execute(t, "import", "-c", cfg, "-d", base, "-f", "sarif", "--log-level", "error")
	require.Equal(t, 0, code)
	var doc sarif.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Runs, 1)
	assert.Len(t, doc.Runs[0].Results, 2)
}

func TestImport_ExitsOne_When_ReportFails(t *testing.T) {
	t.Parallel()
	base, cfg := solution(t, "out/Broken.sarif")
	write(t, filepath.Join(base, "out", "Broken.sarif"), []byte("{not json"))

	code, out, errOut := execute(t, "import", "-c", cfg, "-d", base, "-f", "json")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, `"kind": "roslyn"`)
	assert.Contains(t, errOut, "Unable to import the Roslyn report")
	assert.NotContains(t, errOut, "dotrep:")
}

func TestImport_ExitsTwo_When_ConfigInvalid(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	cfg := filepath.Join(base, ".dotrep.yaml")
	write(t, cfg, []byte("concurrency: 0\n"))

	code, _, errOut := execute(t, "import", "-c", cfg, "-d", base)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "dotrep: ")
}

func TestImport_ExitsTwo_When_FormatUnknown(t *testing.T) {
	t.Parallel()
	base, cfg := solution(t)

	code, _, errOut := execute(t, "import", "-c", cfg, "-d", base, "-f", "xml")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "invalid format value: xml")
}

func TestSarif_PrintsEvents_When_ReportValid(t *testing.T) {
	t.Parallel()
	base, _ := solution(t)

	code, out, errOut := execute(t, "sarif", filepath.Join(base, "out", "App.sarif"))
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "version 2.1.0\n")
	assert.Contains(t, out, `rule CA1822 level=warning category="Performance" short="Mark members as static"`)
	assert.Contains(t, out, "issue S1186 level=warning "+filepath.Join(base, "App", "Program.cs")+"(3,17)-(3,21)")
}

func TestSarif_ExitsOne_When_ReportMissing(t *testing.T) {
	t.Parallel()
	code, _, errOut := execute(t, "sarif", filepath.Join(t.TempDir(), "missing.sarif"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "dotrep: ")
}

func TestSarif_ExitsTwo_When_ArgumentMissing(t *testing.T) {
	t.Parallel()
	code, _, _ := execute(t, "sarif")
	assert.Equal(t, 2, code)
}

func TestTests_PrintsTotals_When_XUnitReportsGiven(t *testing.T) {
	t.Parallel()
	base, _ := solution(t)
	report := filepath.Join(base, "TestResults", "xunit.xml")

	code, out, errOut := execute(t, "tests", "--kind", "xunit", report, report)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "reports 2\n")
	assert.Contains(t, out, "summary tests=6 skipped=0 failures=2 errors=0 time=1000ms\n")
}

func TestTests_ExitsOne_When_ReportBroken(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.xml")
	write(t, broken, []byte(`<assemblies><assembly total="x"/></assemblies>`))

	code, out, errOut := execute(t, "tests", "-k", "xunit", broken)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "reports 0\n")
	assert.Contains(t, errOut, "Unable to import the xunit test report")
}

func TestTests_DetectsKind_When_KindOmitted(t *testing.T) {
	t.Parallel()
	base, _ := solution(t)
	other := filepath.Join(base, "notes.txt")
	write(t, other, []byte("not a report"))

	code, out, errOut := execute(t, "tests", filepath.Join(base, "TestResults", "xunit.xml"), other)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "summary tests=3 skipped=0 failures=1 errors=0 time=500ms\n")
	assert.Contains(t, errOut, "unrecognized test report format (unknown)")
}

func TestTests_ExitsTwo_When_KindInvalid(t *testing.T) {
	t.Parallel()
	code, _, errOut := execute(t, "tests", "--kind", "junit", "a.xml")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown test report kind "junit"`)

	code, _, _ = execute(t, "tests")
	assert.Equal(t, 2, code)
}
