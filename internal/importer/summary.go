package importer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dkoosis/dotrep/pkg/issues"
	"github.com/dkoosis/dotrep/pkg/telemetry"
	"github.com/dkoosis/dotrep/pkg/testresults"
)

// Report kinds named in failures.
const (
	KindRoslyn    = "roslyn"
	KindTelemetry = "telemetry"
	KindTests     = "tests"
	KindMethodMap = "method-file-map"
)

// Failure is a report whose import was abandoned.
type Failure struct {
	Kind string
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s report %s: %v", f.Kind, f.Path, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// failures collects Failures from concurrent imports.
type failures struct {
	mu    sync.Mutex
	items []Failure
}

func (f *failures) add(kind, path string, err error) {
	f.mu.Lock()
	f.items = append(f.items, Failure{Kind: kind, Path: path, Err: err})
	f.mu.Unlock()
}

func (f *failures) list() []Failure {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]Failure(nil), f.items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Summary is the outcome of one Run.
type Summary struct {
	BaseDir      string
	IndexedFiles int

	Stats          issues.Stats
	Issues         []issues.Issue
	ExternalIssues []issues.ExternalIssue
	AdHocRules     []issues.AdHocRule

	TestReports int
	TestTotals  testresults.UnitTestResults
	TestFiles   map[string]testresults.UnitTestResults

	Telemetry []telemetry.Telemetry

	Failures []Failure
	Duration time.Duration
}

// Failed reports whether at least one report could not be imported.
func (s *Summary) Failed() bool { return len(s.Failures) > 0 }
