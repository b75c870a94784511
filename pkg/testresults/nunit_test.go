package testresults

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/dotrep/internal/logger/logtest"
	"github.com/dkoosis/dotrep/pkg/xmlreader"
)

const nunit2Report = `<?xml version="1.0" encoding="utf-8"?>
<test-results name="Calc.dll" total="200" errors="30" failures="20" not-run="20" inconclusive="5" ignored="4" skipped="3" invalid="0">
  <test-suite name="Calc.dll" time="0.25">
    <test-suite name="Inner" time="9.999"/>
  </test-suite>
  <test-suite name="Other.dll" time="0,5"/>
</test-results>`

const nunit3Report = `<?xml version="1.0" encoding="utf-8"?>
<test-run id="2" total="9" passed="3" failed="2" inconclusive="1" skipped="1" duration="0.0457">
  <test-suite type="Assembly">
    <test-case name="A" result="Failed" label="Error">
      <test-case name="Nested" label="Error"/>
    </test-case>
    <test-case name="B" result="Failed" label="Error"/>
    <test-case name="C" result="Failed" label="Invalid"/>
  </test-suite>
</test-run>`

func TestNUnit_TestResults(t *testing.T) {
	t.Parallel()

	rec, log := logtest.New()
	rep, err := NewNUnitParser(log).Parse(writeReport(t, "nunit2.xml", nunit2Report))
	require.NoError(t, err)

	assertCounts(t, rep.Totals, 200, 12, 20, 30)
	ms, ok := rep.Totals.ExecutionTime()
	require.True(t, ok)
	assert.Equal(t, int64(750), ms)
	assert.Empty(t, rep.Files)

	infos := rec.Logs(slog.LevelInfo)
	require.Len(t, infos, 1)
	assert.Contains(t, infos[0], "Parsing the NUnit Test Results file '")
	assert.Contains(t, rec.Logs(slog.LevelDebug),
		"Parsed NUnit results - total: 200, totalSkipped: 12, failures: 20, errors: 30, execution time: 750.")
}

func TestNUnit_TestResultsWithoutSuiteTime(t *testing.T) {
	t.Parallel()

	rep, err := NewNUnitParser(nil).Parse(writeReport(t, "nunit2.xml",
		`<test-results total="1" errors="0" failures="0" inconclusive="0" ignored="0" skipped="0"/>`))
	require.NoError(t, err)
	assertCounts(t, rep.Totals, 1, 0, 0, 0)
	_, ok := rep.Totals.ExecutionTime()
	assert.False(t, ok)
}

func TestNUnit_TestRun(t *testing.T) {
	t.Parallel()

	rep, err := NewNUnitParser(nil).Parse(writeReport(t, "nunit3.xml", nunit3Report))
	require.NoError(t, err)

	assertCounts(t, rep.Totals, 9, 2, 2, 2)
	ms, ok := rep.Totals.ExecutionTime()
	require.True(t, ok)
	assert.Equal(t, int64(45), ms)
}

func TestNUnit_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"unknown root", `<foo/>`, "Unrecognized root element <foo>"},
		{"missing attribute", `<test-results total="1"/>`, `Missing attribute "errors" in element <test-results>`},
		{"bad integer", `<test-run total="x" failed="0" inconclusive="0" skipped="0"/>`, `Expected an integer instead of "x" for the attribute "total"`},
		{"bad double", `<test-run total="1" failed="0" inconclusive="0" skipped="0" duration="abc"/>`, `Expected an double instead of "abc" for the attribute "duration"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewNUnitParser(nil).Parse(writeReport(t, "bad.xml", tt.doc))
			require.Error(t, err)
			var pe *xmlreader.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.msg, pe.Message)
			assert.Equal(t, 1, pe.Line)
		})
	}
}

func TestNUnit_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewNUnitParser(nil).Parse("does/not/exist.xml")
	require.Error(t, err)
	assert.False(t, xmlreader.IsParseError(err))
}
