package testresults

import (
	"github.com/dkoosis/dotrep/internal/logger"
	"github.com/dkoosis/dotrep/pkg/xmlreader"
)

// NUnitParser reads NUnit 2 (<test-results>) and NUnit 3 (<test-run>) summaries.
type NUnitParser struct {
	log *logger.Logger
}

// NewNUnitParser returns an NUnitParser logging to log.
func NewNUnitParser(log *logger.Logger) *NUnitParser {
	if log == nil {
		log = logger.Nop()
	}
	return &NUnitParser{log: log}
}

func (p *NUnitParser) Parse(path string) (*Report, error) {
	logUserDir(p.log)
	p.log.Infof("Parsing the NUnit Test Results file '%s'.", absPath(path))

	rep := &Report{Path: path}
	err := withReader(path, p.log, func(r *xmlreader.Reader) error {
		root, _, err := r.NextStartTag()
		if err != nil {
			return err
		}
		switch root {
		case "test-results":
			return p.testResults(r, &rep.Totals)
		case "test-run":
			return p.testRun(r, &rep.Totals)
		default:
			return r.Errorf("Unrecognized root element <%s>", root)
		}
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func (p *NUnitParser) testResults(r *xmlreader.Reader, into *UnitTestResults) error {
	var c counters
	c.require(r, "total", &c.total)
	c.require(r, "errors", &c.errors)
	c.require(r, "failures", &c.failures)
	c.require(r, "inconclusive", &c.inconclusive)
	c.require(r, "ignored", &c.ignored)
	c.require(r, "skipped", &c.skipped)
	if c.err != nil {
		return c.err
	}
	totalSkipped := c.skipped + c.inconclusive + c.ignored

	executionTime, err := suiteTime(r)
	if err != nil {
		return err
	}

	into.Add(c.total, totalSkipped, c.failures, c.errors, executionTime)
	p.log.Debugf("Parsed NUnit results - total: %d, totalSkipped: %d, failures: %d, errors: %d, execution time: %s.",
		c.total, totalSkipped, c.failures, c.errors, fmtMs(executionTime))
	return nil
}

func (p *NUnitParser) testRun(r *xmlreader.Reader, into *UnitTestResults) error {
	var c counters
	c.require(r, "total", &c.total)
	c.require(r, "failed", &c.failures)
	c.require(r, "inconclusive", &c.inconclusive)
	c.require(r, "skipped", &c.skipped)
	if c.err != nil {
		return c.err
	}
	totalSkipped := c.skipped + c.inconclusive

	duration, ok, err := r.DoubleAttr("duration")
	if err != nil {
		return err
	}
	executionTime := msPtr(duration, ok)

	errors, err := errorCases(r)
	if err != nil {
		return err
	}

	into.Add(c.total, totalSkipped, c.failures, errors, executionTime)
	p.log.Debugf("Parsed NUnit test run - total: %d, totalSkipped: %d, failures: %d, errors: %d, execution time: %s.",
		c.total, totalSkipped, c.failures, errors, fmtMs(executionTime))
	return nil
}

// suiteTime sums the time of the <test-suite> elements directly below the root.
func suiteTime(r *xmlreader.Reader) (*int64, error) {
	var total *float64
	level := 0
	for {
		tag, ok, err := r.NextStartOrEndTag()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch tag {
		case "<test-suite>":
			level++
			t, has, err := r.DoubleAttr("time")
			if err != nil {
				return nil, err
			}
			if level == 1 && has {
				if total == nil {
					total = new(float64)
				}
				*total += t * 1000
			}
		case "</test-suite>":
			level--
		}
	}
	if total == nil {
		return nil, nil
	}
	return Ms(int64(*total)), nil
}

// errorCases counts the outermost <test-case> elements labeled "Error".
func errorCases(r *xmlreader.Reader) (int, error) {
	errors, level := 0, 0
	for {
		tag, ok, err := r.NextStartOrEndTag()
		if err != nil {
			return 0, err
		}
		if !ok {
			return errors, nil
		}
		switch tag {
		case "<test-case>":
			level++
			if label, _ := r.Attr("label"); level == 1 && label == "Error" {
				errors++
			}
		case "</test-case>":
			level--
		}
	}
}

// counters reads a run of required integer attributes, keeping the first error.
type counters struct {
	total, errors, failures, inconclusive, ignored, skipped int
	err                                                     error
}

func (c *counters) require(r *xmlreader.Reader, name string, dst *int) {
	if c.err != nil {
		return
	}
	*dst, c.err = r.RequiredIntAttr(name)
}
