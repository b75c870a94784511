package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{"sarif 2.1", `{"$schema":"https://sarif.dev","version":"2.1.0","runs":[]}`, SARIF},
		{"sarif legacy", `{"version": "0.1", "toolInfo": {"toolName": "Microsoft (R) Visual C# Compiler"}, "issues": []}`, SARIF},
		{"sarif truncated", `{"version":"1.0.0","runLogs":[{"toolInfo":`, SARIF},
		{"json without version", `{"runs":[]}`, Unknown},
		{"json with empty version", `{"version":""}`, Unknown},
		{"invalid json", `{invalid`, Unknown},
		{"nunit 2", `<?xml version="1.0" encoding="utf-8"?><test-results total="1">`, NUnit},
		{"nunit 3", "<test-run id=\"2\" testcasecount=\"3\">\n<test-suite", NUnit},
		{"xunit assemblies", `<assemblies><assembly name="a.dll" total="1"/></assemblies>`, XUnit},
		{"xunit assembly", `<assembly name="a.dll" total="1"/>`, XUnit},
		{"trx", `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + `<TestRun id="1" xmlns="http://microsoft.com/schemas/VisualStudio/TeamTest/2010">`, VSTest},
		{"xml with comment", `<!-- generated --><TestRun>`, VSTest},
		{"other xml", `<project/>`, Unknown},
		{"bom and whitespace", "\ufeff  \n<assemblies>", XUnit},
		{"plain text", "this is not a report", Unknown},
		{"empty", "", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Sniff([]byte(tt.input)))
		})
	}
}

func TestSniffFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "results.trx")
	require.NoError(t, os.WriteFile(path, []byte(`<TestRun/>`), 0o600))

	got, err := SniffFile(path)
	require.NoError(t, err)
	assert.Equal(t, VSTest, got)
	assert.Equal(t, "vstest", got.String())

	_, err = SniffFile(filepath.Join(dir, "missing.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
