package testresults

import (
	"errors"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkoosis/dotrep/internal/logger"
	"github.com/dkoosis/dotrep/pkg/xmlreader"
)

// ErrInvalidOutcome is returned for a UnitTestResult outcome that is not part
// of the TRX vocabulary.
var ErrInvalidOutcome = errors.New("Outcome of unit test must match VSTest Format")

// FileLookup resolves a fully qualified test method name to its source file.
type FileLookup interface {
	FileFor(method string) (string, bool)
}

// MapLookup is a FileLookup backed by a method name to file path map.
type MapLookup map[string]string

func (m MapLookup) FileFor(method string) (string, bool) {
	p, ok := m[method]
	return p, ok
}

type outcome int

const (
	outcomePassed outcome = iota
	outcomeFailed
	outcomeError
	outcomeSkipped
)

// TRX outcome names, see Microsoft.VisualStudio.TestTools.Common.TestOutcome.
var outcomes = map[string]outcome{
	"Passed":              outcomePassed,
	"PassedButRunAborted": outcomePassed,
	"Completed":           outcomePassed,
	"Warning":             outcomePassed,
	"Failed":              outcomeFailed,
	"Timeout":             outcomeFailed,
	"Aborted":             outcomeFailed,
	"Error":               outcomeError,
	"NotExecuted":         outcomeSkipped,
	"NotRunnable":         outcomeSkipped,
	"Inconclusive":        outcomeSkipped,
	"Pending":             outcomeSkipped,
	"InProgress":          outcomeSkipped,
	"Disconnected":        outcomeSkipped,
}

// testResult accumulates every UnitTestResult entry sharing one testId.
type testResult struct {
	tests, skipped, failures, errors int
	durationMs                       int64
}

func newTestResult(name string, durationMs int64) (*testResult, error) {
	o, ok := outcomes[name]
	if !ok {
		return nil, ErrInvalidOutcome
	}
	r := &testResult{tests: 1, durationMs: durationMs}
	switch o {
	case outcomeFailed:
		r.failures = 1
	case outcomeError:
		r.errors = 1
	case outcomeSkipped:
		r.skipped = 1
	}
	return r, nil
}

func (r *testResult) add(o *testResult) {
	r.tests += o.tests
	r.skipped += o.skipped
	r.failures += o.failures
	r.errors += o.errors
	r.durationMs += o.durationMs
}

type testDefinition struct {
	id, fqn, dll string
}

// VSTestParser reads Visual Studio TRX files and attributes each test to the
// source file of its method.
type VSTestParser struct {
	log   *logger.Logger
	files FileLookup
}

// NewVSTestParser returns a VSTestParser resolving methods through files.
// A nil files maps nothing.
func NewVSTestParser(log *logger.Logger, files FileLookup) *VSTestParser {
	if log == nil {
		log = logger.Nop()
	}
	if files == nil {
		files = MapLookup(nil)
	}
	return &VSTestParser{log: log, files: files}
}

func (p *VSTestParser) Parse(path string) (*Report, error) {
	p.log.Infof("Parsing the Visual Studio Test Results file '%s'.", absPath(path))

	results := make(map[string]*testResult)
	var defs []testDefinition

	err := withReader(path, p.log, func(r *xmlreader.Reader) error {
		if err := r.CheckRootTag("TestRun"); err != nil {
			return err
		}
		for {
			tag, ok, err := r.NextStartTag()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			switch tag {
			case "UnitTestResult":
				if err := p.unitTestResult(r, results); err != nil {
					return err
				}
			case "UnitTest":
				def, err := unitTest(r)
				if err != nil {
					return err
				}
				defs = append(defs, def)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	rep := &Report{Path: path, Files: make(map[string]*UnitTestResults)}
	for _, def := range defs {
		p.attach(rep, def, results[def.id])
	}
	return rep, nil
}

func (p *VSTestParser) unitTestResult(r *xmlreader.Reader, results map[string]*testResult) error {
	rawID, err := r.RequiredAttr("testId")
	if err != nil {
		return err
	}
	outcomeName, err := r.RequiredAttr("outcome")
	if err != nil {
		return err
	}
	start, err := dateAttr(r, "startTime")
	if err != nil {
		return err
	}
	finish, err := dateAttr(r, "endTime")
	if err != nil {
		return err
	}
	duration := finish.Sub(start).Milliseconds()

	res, err := newTestResult(outcomeName, duration)
	if err != nil {
		return err
	}
	id := canonicalID(rawID)
	if prev, ok := results[id]; ok {
		prev.add(res)
	} else {
		results[id] = res
	}
	p.log.Debugf("Parsed Visual Studio Unit Test - testId: %s outcome: %s, duration: %d", rawID, outcomeName, duration)
	return nil
}

// unitTest reads a <UnitTest> definition and its nested <TestMethod>.
func unitTest(r *xmlreader.Reader) (testDefinition, error) {
	id, err := r.RequiredAttr("id")
	if err != nil {
		return testDefinition{}, err
	}

	found := false
	for !found {
		tag, ok, err := r.NextStartOrEndTag()
		if err != nil {
			return testDefinition{}, err
		}
		if !ok || tag == "</UnitTest>" {
			break
		}
		found = tag == "<TestMethod>"
	}
	if !found {
		return testDefinition{}, xmlreader.NewParseError("No TestMethod attribute found on UnitTest tag")
	}

	name, err := r.RequiredAttr("name")
	if err != nil {
		return testDefinition{}, err
	}
	className, err := r.RequiredAttr("className")
	if err != nil {
		return testDefinition{}, err
	}
	codeBase, err := r.RequiredAttr("codeBase")
	if err != nil {
		return testDefinition{}, err
	}
	return testDefinition{
		id:  canonicalID(id),
		fqn: className + "." + name,
		dll: dllName(codeBase),
	}, nil
}

func (p *VSTestParser) attach(rep *Report, def testDefinition, res *testResult) {
	if res == nil {
		p.log.Debugf("No test result found for test '%s' (id %s), it will not be included.", def.fqn, def.id)
		return
	}
	key, file, ok := p.resolve(def)
	if !ok {
		p.log.Debugf("Test method %s cannot be mapped to the test source file. The test will not be included.", key)
		return
	}
	cur, exists := rep.Files[file]
	if !exists {
		cur = &UnitTestResults{}
		rep.Files[file] = cur
	}
	cur.Add(res.tests, res.skipped, res.failures, res.errors, Ms(res.durationMs))
	p.log.Debugf("Added Test Method: %s to File: %s", key, file)
}

// resolve looks the method up by its plain name first, then prefixed with
// the assembly name. The returned key is the plain name when neither matches.
func (p *VSTestParser) resolve(def testDefinition) (key, file string, ok bool) {
	if file, ok := p.files.FileFor(def.fqn); ok {
		return def.fqn, file, true
	}
	if def.dll != "" {
		prefixed := def.dll + "." + def.fqn
		if file, ok := p.files.FileFor(prefixed); ok {
			return prefixed, file, true
		}
	}
	return def.fqn, "", false
}

// canonicalID lowercases GUID test ids so that definitions and results join
// regardless of how the producer formatted them.
func canonicalID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

// dllName returns the assembly file name without extension. codeBase uses
// either path separator depending on the producing platform.
func dllName(codeBase string) string {
	base := path.Base(strings.ReplaceAll(codeBase, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

var fractionRe = regexp.MustCompile(`\.(\d{0,3})\d*`)

// keepMilliseconds truncates or pads every fractional second to three digits.
func keepMilliseconds(value string) string {
	return fractionRe.ReplaceAllStringFunc(value, func(m string) string {
		digits := fractionRe.FindStringSubmatch(m)[1]
		return "." + digits + strings.Repeat("0", 3-len(digits))
	})
}

const trxTimeLayout = "2006-01-02T15:04:05.000Z07:00"

func dateAttr(r *xmlreader.Reader, name string) (time.Time, error) {
	value, err := r.RequiredAttr(name)
	if err != nil {
		return time.Time{}, err
	}
	value = keepMilliseconds(value)
	t, err := time.Parse(trxTimeLayout, value)
	if err != nil {
		return time.Time{}, r.Errorf("Expected a valid date and time instead of %q for the attribute %q. Unparseable date: %q", value, name, value)
	}
	return t, nil
}
