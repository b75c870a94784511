package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sourcegraph/conc/pool"

	"github.com/dkoosis/dotrep/internal/fsindex"
	"github.com/dkoosis/dotrep/internal/progress"
	"github.com/dkoosis/dotrep/pkg/testresults"
)

type testReport struct {
	kind testresults.Kind
	path string
}

// importTests parses every test report concurrently. Each report is merged
// into the aggregator only once fully parsed.
func (im *Importer) importTests(ctx context.Context, ix *fsindex.Index, fails *failures) (*testresults.Aggregator, error) {
	agg := testresults.NewAggregator()
	reports := im.testReports()
	if len(reports) == 0 {
		return agg, nil
	}

	lookup, err := im.methodLookup(ix)
	if err != nil {
		im.log.Errorf("Unable to read the test method file map %s: %v", im.cfg.MethodFileMap, err)
		fails.add(KindMethodMap, im.cfg.MethodFileMap, err)
		lookup = testresults.MapLookup{}
	}

	bar := progress.NewTracker(im.progress, "test reports", len(reports))
	p := pool.New().WithMaxGoroutines(im.cfg.Concurrency)
	for _, tr := range reports {
		p.Go(func() {
			defer bar.Tick()
			if ctx.Err() != nil {
				return
			}
			parser, err := testresults.NewParser(tr.kind, im.log, lookup)
			if err == nil {
				var rep *testresults.Report
				if rep, err = parser.Parse(tr.path); err == nil {
					agg.Merge(rep)
					return
				}
			}
			im.log.Errorf("Unable to import the %s test report %s: %v", tr.kind, tr.path, err)
			fails.add(KindTests, tr.path, err)
		})
	}
	p.Wait()
	bar.Finish()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return agg, nil
}

// testReports expands the configured globs. A file matched by several
// patterns of the same kind is parsed once.
func (im *Importer) testReports() []testReport {
	var out []testReport
	for _, group := range []struct {
		kind     testresults.Kind
		patterns []string
	}{
		{testresults.KindNUnit, im.cfg.Tests.NUnit},
		{testresults.KindXUnit, im.cfg.Tests.XUnit},
		{testresults.KindVSTest, im.cfg.Tests.VSTest},
	} {
		seen := make(map[string]bool)
		for _, pattern := range group.patterns {
			matches, err := doublestar.FilepathGlob(im.cfg.Abs(pattern), doublestar.WithFilesOnly())
			if err != nil {
				im.log.Warningf("Invalid %s test report pattern '%s': %v", group.kind, pattern, err)
				continue
			}
			if len(matches) == 0 {
				im.log.Warningf("Could not find any %s test report matching the pattern '%s'.", group.kind, pattern)
				continue
			}
			sort.Strings(matches)
			for _, m := range matches {
				if !seen[m] {
					seen[m] = true
					out = append(out, testReport{kind: group.kind, path: m})
				}
			}
		}
	}
	return out
}

// methodLookup reads the method file map: a JSON object from qualified test
// method names to source paths. Relative paths are looked up in the index
// by suffix, then resolved against the base directory.
func (im *Importer) methodLookup(ix *fsindex.Index) (testresults.FileLookup, error) {
	if im.cfg.MethodFileMap == "" {
		return testresults.MapLookup{}, nil
	}
	data, err := os.ReadFile(im.cfg.MethodFileMap)
	if err != nil {
		return nil, err
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	m := make(testresults.MapLookup, len(raw))
	for method, path := range raw {
		switch {
		case filepath.IsAbs(path):
			m[method] = filepath.Clean(path)
		default:
			if f, err := ix.FindSuffix(path); err == nil {
				m[method] = f.Path()
			} else {
				m[method] = im.cfg.Abs(path)
			}
		}
	}
	im.log.Debugf("Loaded %d test methods from '%s'.", len(m), im.cfg.MethodFileMap)
	return m, nil
}
