package testresults

import (
	"sort"
	"sync"
)

// Report is the outcome of parsing one test report. Summary formats (NUnit,
// XUnit) fill Totals; VSTest fills Files, keyed by resolved source path.
type Report struct {
	Path   string
	Totals UnitTestResults
	Files  map[string]*UnitTestResults
}

// Aggregator accumulates reports for one analysis run. It is safe for
// concurrent use; each Merge is applied atomically.
type Aggregator struct {
	mu      sync.Mutex
	totals  UnitTestResults
	files   map[string]*UnitTestResults
	reports int
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{files: make(map[string]*UnitTestResults)}
}

// Merge folds a successfully parsed report into the run.
func (a *Aggregator) Merge(rep *Report) {
	if rep == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.reports++
	a.totals.Merge(rep.Totals)
	for path, r := range rep.Files {
		a.addLocked(path, *r)
	}
}

// Add accumulates counters for one source file.
func (a *Aggregator) Add(path string, tests, skipped, failures, errors int, executionTime *int64) {
	var r UnitTestResults
	r.Add(tests, skipped, failures, errors, executionTime)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.addLocked(path, r)
}

func (a *Aggregator) addLocked(path string, r UnitTestResults) {
	cur, ok := a.files[path]
	if !ok {
		cur = &UnitTestResults{}
		a.files[path] = cur
	}
	cur.Merge(r)
}

// File returns the counters for one source file.
func (a *Aggregator) File(path string) (UnitTestResults, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.files[path]
	if !ok {
		return UnitTestResults{}, false
	}
	return *r, true
}

// Files returns a snapshot of the per-file counters.
func (a *Aggregator) Files() map[string]UnitTestResults {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]UnitTestResults, len(a.files))
	for k, v := range a.files {
		out[k] = *v
	}
	return out
}

// Paths returns the aggregated source paths, sorted.
func (a *Aggregator) Paths() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	paths := make([]string, 0, len(a.files))
	for p := range a.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Totals returns the summary counters of NUnit and XUnit reports.
func (a *Aggregator) Totals() UnitTestResults {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totals
}

// Reports returns how many reports were merged.
func (a *Aggregator) Reports() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reports
}
