package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dkoosis/dotrep/internal/detect"
	"github.com/dkoosis/dotrep/pkg/testresults"
)

func newTestsCmd(stdout, stderr io.Writer) *cobra.Command {
	var kind, methodMap, logLevel string
	cmd := &cobra.Command{
		Use:   "tests [--kind nunit|xunit|vstest] <report>...",
		Short: "Print the aggregated results of test reports",
		Long:  "Parse NUnit, XUnit or VSTest reports and print their aggregated counters. Without --kind the format of each report is detected.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var forced testresults.Kind
			if kind != "" {
				k, err := testresults.ParseKind(kind)
				if err != nil {
					return usageError(err)
				}
				forced = k
			}
			lookup := testresults.MapLookup{}
			if methodMap != "" {
				var err error
				if lookup, err = readMethodMap(methodMap); err != nil {
					return usageError(err)
				}
			}
			log := newLogger(stderr, logLevel, false)

			agg := testresults.NewAggregator()
			var errs int
			for _, path := range args {
				k := forced
				if k == "" {
					var err error
					if k, err = sniffKind(path); err != nil {
						log.Errorf("Unable to import the test report %s: %v", path, err)
						errs++
						continue
					}
				}
				parser, err := testresults.NewParser(k, log, lookup)
				if err != nil {
					return usageError(err)
				}
				rep, err := parser.Parse(path)
				if err != nil {
					log.Errorf("Unable to import the %s test report %s: %v", k, path, err)
					errs++
					continue
				}
				agg.Merge(rep)
			}
			printTests(stdout, agg)
			if errs > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&kind, "kind", "k", "", "Report kind: nunit, xunit, vstest (default detected)")
	f.StringVarP(&methodMap, "method-map", "m", "", "JSON file mapping VSTest methods to source files")
	f.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	return cmd
}

// sniffKind detects the test report kind of the file at path.
func sniffKind(path string) (testresults.Kind, error) {
	format, err := detect.SniffFile(path)
	if err != nil {
		return "", err
	}
	switch format {
	case detect.NUnit:
		return testresults.KindNUnit, nil
	case detect.XUnit:
		return testresults.KindXUnit, nil
	case detect.VSTest:
		return testresults.KindVSTest, nil
	default:
		return "", fmt.Errorf("unrecognized test report format (%s)", format)
	}
}

func readMethodMap(path string) (testresults.MapLookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := testresults.MapLookup{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding method map %s: %w", path, err)
	}
	return m, nil
}

func printTests(w io.Writer, agg *testresults.Aggregator) {
	fmt.Fprintf(w, "reports %d\n", agg.Reports())
	if t := agg.Totals(); t.Tests() > 0 {
		fmt.Fprintf(w, "summary %s\n", t)
	}
	files := agg.Files()
	for _, p := range agg.Paths() {
		fmt.Fprintf(w, "file %s %s\n", p, files[p])
	}
}
