package fsindex

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dkoosis/dotrep/pkg/issues"
)

// Type tells production sources from test sources.
type Type string

const (
	TypeMain Type = "main"
	TypeTest Type = "test"
)

var languages = map[string]string{
	".cs":     "cs",
	".razor":  "cs",
	".cshtml": "cs",
	".vb":     "vbnet",
	".vbhtml": "vbnet",
}

// Language returns the language key of a source path, or "" when the
// extension is not a .NET one.
func Language(path string) string {
	return languages[strings.ToLower(filepath.Ext(path))]
}

// File is an indexed source file. Positions are validated against the rune
// length of every line.
type File struct {
	path  string
	typ   Type
	lines []int
}

var _ issues.InputFile = (*File)(nil)

// NewFile indexes content as the file at path.
func NewFile(path string, typ Type, content []byte) *File {
	f := &File{path: path, typ: typ}
	if len(content) == 0 {
		f.lines = []int{0}
		return f
	}
	for _, line := range bytes.Split(content, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		f.lines = append(f.lines, utf8.RuneCount(line))
	}
	return f
}

func (f *File) Path() string     { return f.path }
func (f *File) Type() Type       { return f.typ }
func (f *File) Language() string { return Language(f.path) }
func (f *File) Lines() int       { return len(f.lines) }

// NewRange validates a 1-based range with an exclusive end column. A zero
// start column means the start of the line and a zero end column the end of
// the line.
func (f *File) NewRange(startLine, startColumn, endLine, endColumn int) (issues.TextRange, error) {
	if err := f.checkLine(startLine); err != nil {
		return issues.TextRange{}, err
	}
	if err := f.checkLine(endLine); err != nil {
		return issues.TextRange{}, err
	}
	if startColumn == 0 {
		startColumn = 1
	}
	if endColumn == 0 {
		endColumn = f.lines[endLine-1] + 1
	}
	if startColumn < 1 || startColumn > f.lines[startLine-1]+1 {
		return issues.TextRange{}, fmt.Errorf("%d is not a valid column for line %d of %s", startColumn, startLine, f.path)
	}
	if endColumn < 1 || endColumn > f.lines[endLine-1]+1 {
		return issues.TextRange{}, fmt.Errorf("%d is not a valid column for line %d of %s", endColumn, endLine, f.path)
	}
	if endLine < startLine || (endLine == startLine && endColumn <= startColumn) {
		return issues.TextRange{}, fmt.Errorf("start (%d,%d) must be before end (%d,%d) in %s",
			startLine, startColumn, endLine, endColumn, f.path)
	}
	return issues.TextRange{
		StartLine:   startLine,
		StartColumn: startColumn,
		EndLine:     endLine,
		EndColumn:   endColumn,
	}, nil
}

// SelectLine returns the range covering the whole line.
func (f *File) SelectLine(line int) (issues.TextRange, error) {
	if err := f.checkLine(line); err != nil {
		return issues.TextRange{}, err
	}
	return issues.TextRange{
		StartLine:   line,
		StartColumn: 1,
		EndLine:     line,
		EndColumn:   f.lines[line-1] + 1,
	}, nil
}

func (f *File) checkLine(line int) error {
	if line < 1 || line > len(f.lines) {
		return fmt.Errorf("%d is not a valid line for %s which has %d lines", line, f.path, len(f.lines))
	}
	return nil
}
