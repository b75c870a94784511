package sarif

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnreadable marks a report that cannot be read or is not JSON.
	ErrUnreadable = errors.New("unreadable SARIF report")
	// ErrUnrecognizedFormat marks a JSON document without a version.
	ErrUnrecognizedFormat = errors.New("unrecognized SARIF format")
)

type reportError struct {
	kind  error
	msg   string
	cause error
}

func (e *reportError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *reportError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// schema is one supported report layout. Selection is a pure function of the
// top level "version" value.
type schema struct {
	name  string
	parse func(*Parser, Callback) error
}

var (
	legacySchema  = schema{name: "legacy", parse: (*Parser).acceptLegacy}
	currentSchema = schema{name: "current", parse: (*Parser).acceptCurrent}
)

func schemaFor(version string) schema {
	switch version {
	case "0.1", "0.4":
		return legacySchema
	default:
		return currentSchema
	}
}

// Parser replays one decoded report.
type Parser struct {
	schema   schema
	version  string
	project  Project
	root     gjson.Result
	realPath func(string) string
}

// Create reads report and selects the parser for its version. realPath maps
// every file path found in the report, typically to resolve symlinks; nil
// keeps paths unchanged.
func Create(report RoslynReport, realPath func(string) string) (*Parser, error) {
	abs, err := filepath.Abs(report.Path)
	if err != nil {
		abs = report.Path
	}
	data, err := os.ReadFile(report.Path)
	if err != nil {
		return nil, &reportError{kind: ErrUnreadable, msg: "Unable to read the Roslyn SARIF report file: " + abs, cause: err}
	}
	return Parse(data, abs, report.Project, realPath)
}

// Parse is Create for an in-memory document. name is used in error messages.
func Parse(data []byte, name string, project Project, realPath func(string) string) (*Parser, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !gjson.ValidBytes(data) {
		return nil, &reportError{kind: ErrUnreadable, msg: "Unable to read the Roslyn SARIF report file: " + name, cause: errors.New("invalid JSON")}
	}
	root := gjson.ParseBytes(data)
	version := root.Get("version")
	if !root.IsObject() || !version.Exists() {
		return nil, &reportError{kind: ErrUnrecognizedFormat, msg: fmt.Sprintf("Unable to parse the Roslyn SARIF report file: %s. Unrecognized format", name)}
	}
	if realPath == nil {
		realPath = func(p string) string { return p }
	}
	return &Parser{
		schema:   schemaFor(version.String()),
		version:  version.String(),
		project:  project,
		root:     root,
		realPath: realPath,
	}, nil
}

// Version returns the report's version string.
func (p *Parser) Version() string { return p.version }

// Legacy reports whether the 0.1/0.4 layout was selected.
func (p *Parser) Legacy() bool { return p.schema.name == legacySchema.name }

// Accept walks the report, stopping at the first callback error.
func (p *Parser) Accept(cb Callback) error {
	return p.schema.parse(p, cb)
}

func (p *Parser) path(uri string) string {
	return p.realPath(uriToPath(uri))
}

// uriToPath turns file URIs into local paths. Anything else is taken as a path.
func uriToPath(uri string) string {
	if !strings.HasPrefix(strings.ToLower(uri), "file:") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	p := u.Path
	switch {
	case u.Host != "" && u.Host != "localhost":
		return "//" + u.Host + p
	case len(p) >= 3 && p[0] == '/' && p[2] == ':':
		// file:///C:/src/a.cs
		return p[1:]
	}
	return p
}

// text reads a SARIF message, which is a plain string in 1.0 and an object
// with a "text" member in 2.x.
func text(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.String()
	}
	return r.Get("text").String()
}

func region(path, message string, r gjson.Result) Location {
	loc := Location{
		AbsolutePath: path,
		Message:      message,
		StartLine:    int(r.Get("startLine").Int()),
		StartColumn:  int(r.Get("startColumn").Int()),
		EndColumn:    int(r.Get("endColumn").Int()),
	}
	loc.EndLine = loc.StartLine
	if el := r.Get("endLine"); el.Exists() {
		loc.EndLine = int(el.Int())
	}
	return loc
}
