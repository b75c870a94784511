package importer

import (
	"context"

	"github.com/sourcegraph/conc/stream"

	"github.com/dkoosis/dotrep/internal/fsindex"
	"github.com/dkoosis/dotrep/internal/progress"
	"github.com/dkoosis/dotrep/pkg/issues"
	"github.com/dkoosis/dotrep/pkg/sarif"
)

// importRoslyn parses the reports concurrently and applies them to a single
// reconciler in report order, so that the first report wins every
// duplicate. A report is applied as one batch: a report failing half way
// contributes nothing.
func (im *Importer) importRoslyn(ctx context.Context, reports []sarif.RoslynReport, ix *fsindex.Index,
	sink issues.Sink, fails *failures) (issues.Stats, error) {
	rec := issues.NewReconciler(ix, sink, im.reconcilerOptions(), im.log)
	q := issues.NewQueue(rec)
	bar := progress.NewTracker(im.progress, "roslyn reports", len(reports))

	s := stream.New().WithMaxGoroutines(im.cfg.Concurrency)
	for _, r := range reports {
		s.Go(func() stream.Callback {
			batch, err := im.parseRoslyn(r)
			return func() {
				defer bar.Tick()
				if err == nil {
					err = q.Apply(ctx, batch)
				}
				if err != nil && ctx.Err() == nil {
					im.log.Errorf("Unable to import the Roslyn report %s: %v", r, err)
					fails.add(KindRoslyn, r.Path, err)
				}
			}
		})
	}
	s.Wait()
	bar.Finish()
	if err := q.Close(); err != nil {
		return issues.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return issues.Stats{}, err
	}
	return q.Stats(), nil
}

func (im *Importer) parseRoslyn(r sarif.RoslynReport) (*issues.Batch, error) {
	im.log.Infof("Importing results from Roslyn report %s", r)
	p, err := sarif.Create(r, fsindex.RealPath)
	if err != nil {
		return nil, err
	}
	im.log.Debugf("Roslyn report %s uses SARIF version %s.", r.Path, p.Version())
	batch := &issues.Batch{}
	if err := p.Accept(batch); err != nil {
		return nil, err
	}
	return batch, nil
}
