package testresults

import (
	"github.com/dkoosis/dotrep/internal/logger"
	"github.com/dkoosis/dotrep/pkg/xmlreader"
)

// XUnitParser reads xUnit.net v2 reports (<assemblies> or a bare <assembly>).
type XUnitParser struct {
	log *logger.Logger
}

// NewXUnitParser returns an XUnitParser logging to log.
func NewXUnitParser(log *logger.Logger) *XUnitParser {
	if log == nil {
		log = logger.Nop()
	}
	return &XUnitParser{log: log}
}

func (p *XUnitParser) Parse(path string) (*Report, error) {
	logUserDir(p.log)
	p.log.Infof("Parsing the XUnit Test Results file '%s'.", absPath(path))

	rep := &Report{Path: path}
	err := withReader(path, p.log, func(r *xmlreader.Reader) error {
		tag, _, err := r.NextStartTag()
		if err != nil {
			return err
		}
		if tag != "assemblies" && tag != "assembly" {
			return r.Errorf("Expected either an <assemblies> or an <assembly> root tag, but got <%s> instead.", tag)
		}

		for ok := true; ok; {
			if tag == "assembly" {
				if err := p.assembly(r, &rep.Totals); err != nil {
					return err
				}
			}
			if tag, ok, err = r.NextStartTag(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func (p *XUnitParser) assembly(r *xmlreader.Reader, into *UnitTestResults) error {
	// An assembly without a total ran no tests; skip it rather than fail
	// the whole report.
	totalString, ok := r.Attr("total")
	if !ok {
		p.log.Warningf("One of the assemblies contains no test result, please make sure this is expected.")
		return nil
	}

	total, err := r.IntValue("total", totalString)
	if err != nil {
		return err
	}
	failed, err := r.RequiredIntAttr("failed")
	if err != nil {
		return err
	}
	skipped, err := r.RequiredIntAttr("skipped")
	if err != nil {
		return err
	}
	errors, err := r.IntAttrOrZero("errors")
	if err != nil {
		return err
	}
	t, has, err := r.DoubleAttr("time")
	if err != nil {
		return err
	}
	executionTime := msPtr(t, has)

	into.Add(total, skipped, failed, errors, executionTime)
	p.log.Debugf("Parsed XUnit test results - total: %d, failed: %d, skipped: %d, errors: %d, executionTime: %s.",
		total, failed, skipped, errors, fmtMs(executionTime))
	return nil
}
