package testresults

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkoosis/dotrep/internal/logger"
	"github.com/dkoosis/dotrep/pkg/xmlreader"
)

// Parser reads one report file. A Parser never mutates shared state: the
// returned Report is merged by the caller only when err is nil.
type Parser interface {
	Parse(path string) (*Report, error)
}

// Kind names a supported report dialect.
type Kind string

const (
	KindNUnit  Kind = "nunit"
	KindXUnit  Kind = "xunit"
	KindVSTest Kind = "vstest"
)

// ParseKind maps a configuration name onto a Kind.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case KindNUnit, KindXUnit, KindVSTest:
		return k, nil
	case "trx", "mstest":
		return KindVSTest, nil
	default:
		return "", fmt.Errorf("unknown test report kind %q (expected nunit, xunit or vstest)", name)
	}
}

// NewParser returns the parser for kind. files is only consulted by VSTest.
func NewParser(kind Kind, log *logger.Logger, files FileLookup) (Parser, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch kind {
	case KindNUnit:
		return &NUnitParser{log: log}, nil
	case KindXUnit:
		return &XUnitParser{log: log}, nil
	case KindVSTest:
		return NewVSTestParser(log, files), nil
	default:
		return nil, fmt.Errorf("unknown test report kind %q", kind)
	}
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func logUserDir(log *logger.Logger) {
	if wd, err := os.Getwd(); err == nil {
		log.Debugf("The current user dir is '%s'.", wd)
	}
}

// withReader opens path, runs fn and always closes the reader.
func withReader(path string, log *logger.Logger, fn func(*xmlreader.Reader) error) (err error) {
	r, err := xmlreader.Open(path, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("unable to close report %s: %w", r.Path(), cerr)
		}
	}()
	return fn(r)
}

func msPtr(seconds float64, ok bool) *int64 {
	if !ok {
		return nil
	}
	return Ms(int64(seconds * 1000))
}
