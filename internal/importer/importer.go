// Package importer runs one analysis import: it indexes the sources, then
// reads the Roslyn SARIF reports, the protobuf telemetry and the test
// reports configured for the solution.
package importer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dkoosis/dotrep/internal/config"
	"github.com/dkoosis/dotrep/internal/fsindex"
	"github.com/dkoosis/dotrep/internal/logger"
	"github.com/dkoosis/dotrep/internal/report"
	"github.com/dkoosis/dotrep/pkg/issues"
	"github.com/dkoosis/dotrep/pkg/sarif"
	"github.com/dkoosis/dotrep/pkg/telemetry"
)

// Importer imports every report named by a resolved configuration.
type Importer struct {
	cfg      *config.ResolvedConfig
	log      *logger.Logger
	progress io.Writer
	now      func() time.Time
}

// Option configures an Importer.
type Option func(*Importer)

// WithProgress draws progress bars on w.
func WithProgress(w io.Writer) Option {
	return func(im *Importer) { im.progress = w }
}

// New returns an Importer for cfg.
func New(cfg *config.ResolvedConfig, log *logger.Logger, opts ...Option) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	im := &Importer{cfg: cfg, log: log, now: time.Now}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Run imports everything. Reports that fail are recorded in the summary and
// do not stop the run; the returned error is reserved for failures that
// prevent any import, and for cancellation.
func (im *Importer) Run(ctx context.Context) (*Summary, error) {
	start := im.now()
	ix, err := fsindex.Build(im.cfg.BaseDir, fsindex.Options{
		Include: im.cfg.Files.Include,
		Exclude: im.cfg.Files.Exclude,
		Tests:   im.cfg.Files.Tests,
	}, im.log)
	if err != nil {
		return nil, err
	}

	collector := report.NewCollector()
	reports := make([]sarif.RoslynReport, 0, len(im.cfg.RoslynReports))
	for _, r := range im.cfg.RoslynReports {
		reports = append(reports, sarif.RoslynReport{Path: r.Path, Project: sarif.Project(r.Project)})
	}
	collector.AddRoslynReports(reports)
	collector.AddProtobufDirs(im.cfg.ProtobufDirs)

	sum := &Summary{BaseDir: ix.Base(), IndexedFiles: ix.Len()}
	fails := &failures{}

	if ix.Len() == 0 {
		im.log.Debugf("No files to analyze. Skip the Roslyn and protobuf import.")
	} else {
		lang := languageName(ix)
		main, test := len(ix.Files(fsindex.TypeMain)), len(ix.Files(fsindex.TypeTest))
		if test > 0 && main == 0 {
			im.log.Warningf("Only TEST files and no MAIN files were found for %s in the current solution. "+
				"Only TEST-code related results will be imported.", lang)
		}

		if dirs := collector.ProtobufDirs(); len(dirs) == 0 {
			im.log.Warningf("No protobuf reports found. The %s files will not have highlighting and metrics.", lang)
		} else {
			sum.Telemetry = im.importTelemetry(dirs, fails)
		}

		if rs := collector.RoslynReports(); len(rs) == 0 {
			im.log.Warningf("No Roslyn issue reports were found. The %s files have not been analyzed.", lang)
		} else {
			sink := &issues.MemorySink{}
			stats, err := im.importRoslyn(ctx, rs, ix, sink, fails)
			if err != nil {
				return nil, err
			}
			sum.Stats = stats
			sum.Issues = sink.Issues()
			sum.ExternalIssues = sink.ExternalIssues()
			sum.AdHocRules = sink.AdHocRules()
		}
	}

	agg, err := im.importTests(ctx, ix, fails)
	if err != nil {
		return nil, err
	}
	sum.TestFiles = agg.Files()
	sum.TestTotals = agg.Totals()
	sum.TestReports = agg.Reports()

	sum.Failures = fails.list()
	sum.Duration = im.now().Sub(start)
	im.log.Infof("Imported %d issues, %d external issues and %d test reports in %s.",
		sum.Stats.Issues+sum.Stats.FileIssues+sum.Stats.ProjectIssues, sum.Stats.ExternalIssues,
		sum.TestReports, sum.Duration.Round(time.Millisecond))
	return sum, nil
}

func (im *Importer) reconcilerOptions() issues.Options {
	r := im.cfg.Rules
	return issues.Options{
		Repositories:            r.Repositories,
		IgnoreThirdParty:        r.IgnoreThirdParty,
		BugCategories:           r.BugCategories,
		CodeSmellCategories:     r.CodeSmellCategories,
		VulnerabilityCategories: r.VulnerabilityCategories,
		OmitImpacts:             r.OmitImpacts,
	}
}

// languageName names the dominant language of the indexed sources.
func languageName(ix *fsindex.Index) string {
	var cs, vb int
	for _, f := range ix.Files("") {
		switch f.Language() {
		case "cs":
			cs++
		case "vbnet":
			vb++
		}
	}
	if vb > cs {
		return "VB.NET"
	}
	return "C#"
}

func (im *Importer) importTelemetry(dirs []string, fails *failures) []telemetry.Telemetry {
	store := &telemetry.Store{}
	imp := telemetry.NewImporter(store, im.log)
	for _, dir := range dirs {
		path := filepath.Join(dir, telemetry.FileName)
		if !exists(path) {
			im.log.Debugf("No telemetry file in protobuf directory '%s'.", dir)
			continue
		}
		if err := imp.Accept(path); err != nil {
			im.log.Errorf("Unable to import the telemetry of '%s': %v", dir, err)
			fails.add(KindTelemetry, path, err)
		}
	}
	imp.Save()
	return store.Messages()
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
