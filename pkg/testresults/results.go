// Package testresults parses NUnit, XUnit and VSTest (TRX) reports and
// aggregates their counters per test source file.
package testresults

import "fmt"

// UnitTestResults holds the counters of one logical test source.
// The zero value is an empty record with no execution time.
type UnitTestResults struct {
	tests         int
	skipped       int
	failures      int
	errors        int
	executionTime *int64
}

// Ms is a convenience for building the optional execution time argument of Add.
func Ms(v int64) *int64 { return &v }

// Add accumulates counters. The execution time is summed when both sides have
// one, otherwise whichever side has a value is kept.
func (r *UnitTestResults) Add(tests, skipped, failures, errors int, executionTime *int64) {
	r.tests += tests
	r.skipped += skipped
	r.failures += failures
	r.errors += errors

	// Always allocate: copies of a record must not share the time cell.
	switch {
	case executionTime == nil:
	case r.executionTime == nil:
		r.executionTime = Ms(*executionTime)
	default:
		r.executionTime = Ms(*r.executionTime + *executionTime)
	}
}

// Merge adds the counters of other into r.
func (r *UnitTestResults) Merge(other UnitTestResults) {
	r.Add(other.tests, other.skipped, other.failures, other.errors, other.executionTime)
}

func (r UnitTestResults) Tests() int    { return r.tests }
func (r UnitTestResults) Skipped() int  { return r.skipped }
func (r UnitTestResults) Failures() int { return r.failures }
func (r UnitTestResults) Errors() int   { return r.errors }

// ExecutionTime returns the summed execution time in milliseconds, if known.
func (r UnitTestResults) ExecutionTime() (int64, bool) {
	if r.executionTime == nil {
		return 0, false
	}
	return *r.executionTime, true
}

func (r UnitTestResults) String() string {
	t := "unknown"
	if ms, ok := r.ExecutionTime(); ok {
		t = fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("tests=%d skipped=%d failures=%d errors=%d time=%s",
		r.tests, r.skipped, r.failures, r.errors, t)
}

func fmtMs(ms *int64) string {
	if ms == nil {
		return "null"
	}
	return fmt.Sprintf("%d", *ms)
}
