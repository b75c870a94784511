package importer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/dotrep/internal/config"
	"github.com/dkoosis/dotrep/internal/fsindex"
	"github.com/dkoosis/dotrep/internal/logger/logtest"
	"github.com/dkoosis/dotrep/pkg/issues"
	"github.com/dkoosis/dotrep/pkg/sarif"
	"github.com/dkoosis/dotrep/pkg/telemetry"
)

const program = `class Program
{
    static void Main() { }
}
`

const trxReport = `<?xml version="1.0" encoding="UTF-8"?>
<TestRun id="1" xmlns="http://microsoft.com/schemas/VisualStudio/TeamTest/2010">
  <Results>
    <UnitTestResult testId="a7f3c2d1-0000-4000-8000-000000000001" outcome="Passed" startTime="2016-01-14T17:04:31.100+01:00" endTime="2016-01-14T17:04:31.113+01:00"/>
    <UnitTestResult testId="a7f3c2d1-0000-4000-8000-000000000002" outcome="Failed" startTime="2016-01-14T17:04:31.100+01:00" endTime="2016-01-14T17:04:31.101+01:00"/>
  </Results>
  <TestDefinitions>
    <UnitTest name="Runs" id="a7f3c2d1-0000-4000-8000-000000000001">
      <TestMethod codeBase="/build/App.Tests.dll" className="App.Tests.ProgramTests" name="Runs"/>
    </UnitTest>
    <UnitTest name="Fails" id="a7f3c2d1-0000-4000-8000-000000000002">
      <TestMethod codeBase="/build/App.Tests.dll" className="App.Tests.ProgramTests" name="Fails"/>
    </UnitTest>
  </TestDefinitions>
</TestRun>`

const xunitReport = `<assemblies>
  <assembly name="App.Tests.dll" total="3" passed="2" failed="1" skipped="0" time="0.5"/>
</assemblies>`

type fixture struct {
	base    string
	program string
}

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func sarifReport(t *testing.T, path string, build func(b *sarif.Builder)) {
	t.Helper()
	b := sarif.NewBuilder("Microsoft (R) Visual C# Compiler", "4.8.0")
	build(b)
	data, err := b.Bytes()
	require.NoError(t, err)
	write(t, path, data)
}

// newFixture lays out a small solution with two SARIF reports sharing an
// issue, a broken SARIF report, a telemetry file and two test reports.
func newFixture(t *testing.T) fixture {
	t.Helper()
	base := fsindex.RealPath(t.TempDir())
	f := fixture{base: base, program: filepath.Join(base, "App", "Program.cs")}
	write(t, f.program, []byte(program))
	write(t, filepath.Join(base, "App.Tests", "ProgramTests.cs"), []byte("class ProgramTests { }\n"))

	sarifReport(t, filepath.Join(base, "out", "App.sarif"), func(b *sarif.Builder) {
		b.AddRule("CA1822", "Mark members as static", "", "warning", "Performance")
		b.AddLocation("S1186", "warning", "Add a nested comment.", sarif.Location{
			AbsolutePath: f.program, StartLine: 3, StartColumn: 17, EndLine: 3, EndColumn: 21,
		})
		b.AddResult("CA1822", "", "Member 'Main' does not access instance data", f.program, 3, 17)
		b.AddResult("S1186", "warning", "Missing file.", filepath.Join(base, "Gone.cs"), 1, 1)
	})
	sarifReport(t, filepath.Join(base, "out", "Lib.sarif"), func(b *sarif.Builder) {
		b.AddLocation("S1186", "warning", "Add a nested comment.", sarif.Location{
			AbsolutePath: f.program, StartLine: 3, StartColumn: 17, EndLine: 3, EndColumn: 21,
		})
	})
	write(t, filepath.Join(base, "out", "Broken.sarif"), []byte("{not json"))

	write(t, filepath.Join(base, "out", "pb", telemetry.FileName), telemetry.AppendDelimited(nil, telemetry.Telemetry{
		ProjectFullPath: "App.csproj", TargetFrameworks: []string{"net8.0"}, LanguageVersion: "12.0",
	}))
	write(t, filepath.Join(base, "out", "empty-pb", "other.pb"), []byte{})

	write(t, filepath.Join(base, "TestResults", "run.trx"), []byte(trxReport))
	write(t, filepath.Join(base, "TestResults", "xunit.xml"), []byte(xunitReport))
	write(t, filepath.Join(base, "TestResults", "broken.xml"), []byte("<assemblies><assembly total=\"x\"/></assemblies>"))
	write(t, filepath.Join(base, "out", "methods.json"), []byte(`{
  "App.Tests.ProgramTests.Runs": "App.Tests/ProgramTests.cs",
  "App.Tests.ProgramTests.Fails": "App.Tests/ProgramTests.cs"
}`))
	return f
}

func (f fixture) config(concurrency int) *config.ResolvedConfig {
	cfg := &config.ResolvedConfig{AppConfig: *config.DefaultConfig()}
	cfg.BaseDir = f.base
	cfg.Concurrency = concurrency
	cfg.RoslynReports = []config.RoslynReport{
		{Path: filepath.Join(f.base, "out", "App.sarif"), Project: "App"},
		{Path: filepath.Join(f.base, "out", "Broken.sarif"), Project: "App"},
		{Path: filepath.Join(f.base, "out", "Lib.sarif"), Project: "Lib"},
	}
	cfg.ProtobufDirs = []string{filepath.Join(f.base, "out", "pb"), filepath.Join(f.base, "out", "empty-pb")}
	cfg.Tests.VSTest = []string{"TestResults/*.trx"}
	cfg.Tests.XUnit = []string{"TestResults/*.xml", "TestResults/xunit.xml"}
	cfg.MethodFileMap = filepath.Join(f.base, "out", "methods.json")
	cfg.Rules.Repositories = map[string]string{"S1186": "csharpsquid"}
	return cfg
}

func TestRun(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	rec, log := logtest.New()

	sum, err := New(f.config(3), log).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.IndexedFiles)
	assert.Equal(t, issues.Stats{Issues: 1, ExternalIssues: 1, AdHocRules: 1, Duplicates: 1, MissingFiles: 1}, sum.Stats)

	require.Len(t, sum.Issues, 1)
	assert.Equal(t, issues.RuleKey{Repository: "csharpsquid", Rule: "S1186"}, sum.Issues[0].Rule)
	assert.Equal(t, &issues.TextRange{StartLine: 3, StartColumn: 17, EndLine: 3, EndColumn: 21}, sum.Issues[0].Primary.Range)

	require.Len(t, sum.ExternalIssues, 1)
	ext := sum.ExternalIssues[0]
	assert.Equal(t, issues.SeverityMajor, ext.Severity)
	assert.Equal(t, issues.TypeCodeSmell, ext.Type)
	assert.Equal(t, f.program, ext.Primary.File)

	assert.Equal(t, []telemetry.Telemetry{{
		ProjectFullPath: "App.csproj", TargetFrameworks: []string{"net8.0"}, LanguageVersion: "12.0",
	}}, sum.Telemetry)

	assert.Equal(t, 2, sum.TestReports)
	assert.Equal(t, 3, sum.TestTotals.Tests())
	assert.Equal(t, 1, sum.TestTotals.Failures())
	tests := sum.TestFiles[filepath.Join(f.base, "App.Tests", "ProgramTests.cs")]
	assert.Equal(t, 2, tests.Tests())
	assert.Equal(t, 1, tests.Failures())

	require.True(t, sum.Failed())
	require.Len(t, sum.Failures, 2)
	assert.Equal(t, KindRoslyn, sum.Failures[0].Kind)
	assert.Equal(t, filepath.Join(f.base, "out", "Broken.sarif"), sum.Failures[0].Path)
	assert.ErrorIs(t, sum.Failures[0], sarif.ErrUnreadable)
	assert.Equal(t, KindTests, sum.Failures[1].Kind)
	assert.Equal(t, filepath.Join(f.base, "TestResults", "broken.xml"), sum.Failures[1].Path)

	assert.Empty(t, rec.Logs(slog.LevelWarn))
	assert.Len(t, rec.Logs(slog.LevelError), 2)
}

func TestRun_SameResultWithOneWorker(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	parallel, err := New(f.config(4), nil).Run(context.Background())
	require.NoError(t, err)
	serial, err := New(f.config(1), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, serial.Stats, parallel.Stats)
	assert.Equal(t, serial.Issues, parallel.Issues)
	assert.Equal(t, serial.TestTotals, parallel.TestTotals)
}

func TestRun_WarnsWithoutReports(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	write(t, filepath.Join(base, "Lib", "Util.vb"), []byte("Module Util\nEnd Module\n"))
	cfg := &config.ResolvedConfig{AppConfig: *config.DefaultConfig()}
	cfg.BaseDir = base
	cfg.Tests.NUnit = []string{"missing/*.xml"}

	rec, log := logtest.New()
	sum, err := New(cfg, log).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, sum.Failed())
	assert.Equal(t, []string{
		"No protobuf reports found. The VB.NET files will not have highlighting and metrics.",
		"No Roslyn issue reports were found. The VB.NET files have not been analyzed.",
		"Could not find any nunit test report matching the pattern 'missing/*.xml'.",
	}, rec.Logs(slog.LevelWarn))
}

func TestRun_OnlyTestFiles(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	write(t, filepath.Join(base, "App.Tests", "ProgramTests.cs"), []byte("class T { }\n"))
	cfg := &config.ResolvedConfig{AppConfig: *config.DefaultConfig()}
	cfg.BaseDir = base

	rec, log := logtest.New()
	_, err := New(cfg, log).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, rec.Logs(slog.LevelWarn),
		"Only TEST files and no MAIN files were found for C# in the current solution. "+
			"Only TEST-code related results will be imported.")
}

func TestRun_NoSources(t *testing.T) {
	t.Parallel()
	cfg := &config.ResolvedConfig{AppConfig: *config.DefaultConfig()}
	cfg.BaseDir = t.TempDir()

	rec, log := logtest.New()
	sum, err := New(cfg, log).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.IndexedFiles)
	assert.Empty(t, rec.Logs(slog.LevelWarn))
	assert.Contains(t, rec.Logs(slog.LevelDebug), "No files to analyze. Skip the Roslyn and protobuf import.")
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(f.config(2), nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_UnreadableMethodMap(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	cfg := f.config(2)
	cfg.MethodFileMap = filepath.Join(f.base, "nope.json")

	sum, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sum.TestFiles)
	var kinds []string
	for _, fl := range sum.Failures {
		kinds = append(kinds, fl.Kind)
	}
	assert.Contains(t, kinds, KindMethodMap)
}
