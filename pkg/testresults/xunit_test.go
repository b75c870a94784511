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

const xunitReport = `<?xml version="1.0" encoding="utf-8"?>
<assemblies>
  <assembly name="A.dll" total="17" passed="6" failed="5" skipped="4" errors="3" time="0.25">
    <collection total="17" passed="6" failed="5" skipped="4" name="Test collection" time="0.100"/>
  </assembly>
  <assembly name="B.dll" total="1" passed="1" failed="0" skipped="0" time="0,125"/>
</assemblies>`

func TestXUnit_Assemblies(t *testing.T) {
	t.Parallel()

	rec, log := logtest.New()
	rep, err := NewXUnitParser(log).Parse(writeReport(t, "xunit.xml", xunitReport))
	require.NoError(t, err)

	assertCounts(t, rep.Totals, 18, 4, 5, 3)
	ms, ok := rep.Totals.ExecutionTime()
	require.True(t, ok)
	assert.Equal(t, int64(375), ms)
	assert.Len(t, rec.Logs(slog.LevelInfo), 1)
	assert.Empty(t, rec.Logs(slog.LevelWarn))
}

func TestXUnit_SingleAssemblyRoot(t *testing.T) {
	t.Parallel()

	rep, err := NewXUnitParser(nil).Parse(writeReport(t, "xunit.xml",
		`<assembly total="2" failed="1" skipped="0"/>`))
	require.NoError(t, err)
	assertCounts(t, rep.Totals, 2, 0, 1, 0)
	_, ok := rep.Totals.ExecutionTime()
	assert.False(t, ok)
}

func TestXUnit_AssemblyWithoutTotalIsSkipped(t *testing.T) {
	t.Parallel()

	rec, log := logtest.New()
	rep, err := NewXUnitParser(log).Parse(writeReport(t, "xunit.xml",
		`<assemblies><assembly name="empty.dll"/></assemblies>`))
	require.NoError(t, err)

	assertCounts(t, rep.Totals, 0, 0, 0, 0)
	assert.Equal(t, []string{"One of the assemblies contains no test result, please make sure this is expected."},
		rec.Logs(slog.LevelWarn))
}

func TestXUnit_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"wrong root", `<foo/>`, "Expected either an <assemblies> or an <assembly> root tag, but got <foo> instead."},
		{"missing failed", `<assembly total="1" skipped="0"/>`, `Missing attribute "failed" in element <assembly>`},
		{"bad total", `<assembly total="many" failed="0" skipped="0"/>`, `Expected an integer instead of "many" for the attribute "total"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewXUnitParser(nil).Parse(writeReport(t, "bad.xml", tt.doc))
			var pe *xmlreader.ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.msg, pe.Message)
		})
	}
}
