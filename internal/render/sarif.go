package render

import (
	"io"

	"github.com/dkoosis/dotrep/internal/importer"
	"github.com/dkoosis/dotrep/internal/version"
	"github.com/dkoosis/dotrep/pkg/issues"
	"github.com/dkoosis/dotrep/pkg/sarif"
)

// SARIF renders the reconciled issues as a SARIF 2.1.0 log. Test results
// and telemetry have no SARIF representation and are left out.
type SARIF struct{}

// NewSARIF creates a SARIF renderer.
func NewSARIF() *SARIF {
	return &SARIF{}
}

func (r *SARIF) Render(w io.Writer, s *importer.Summary) error {
	b := sarif.NewBuilder("dotrep", version.Version)
	for _, rule := range s.AdHocRules {
		b.AddRule(rule.EngineID+":"+rule.RuleID, rule.Name, rule.Description, level(rule.Severity), string(rule.Type))
	}
	for _, i := range s.Issues {
		rb := addResult(b, i.Rule.String(), "", i.Primary)
		for _, sec := range i.Secondary {
			rb.Related(location(sec))
		}
		for _, f := range i.Flows {
			locs := make([]sarif.Location, len(f.Locations))
			for k, l := range f.Locations {
				locs[k] = location(l)
			}
			rb.Flow(locs...)
		}
	}
	for _, e := range s.ExternalIssues {
		rb := addResult(b, e.EngineID+":"+e.RuleID, level(e.Severity), e.Primary)
		for _, sec := range e.Secondary {
			rb.Related(location(sec))
		}
	}
	_, err := b.WriteTo(w)
	return err
}

func addResult(b *sarif.Builder, ruleID, lvl string, loc issues.IssueLocation) *sarif.ResultBuilder {
	switch {
	case loc.File == "":
		return b.AddResult(ruleID, lvl, loc.Message, "", 0, 0)
	case loc.Range == nil:
		return b.AddResult(ruleID, lvl, loc.Message, loc.File, 0, 0)
	default:
		l := location(loc)
		l.Message = ""
		return b.AddLocation(ruleID, lvl, loc.Message, l)
	}
}

func location(l issues.IssueLocation) sarif.Location {
	loc := sarif.Location{AbsolutePath: l.File, Message: l.Message}
	if r := l.Range; r != nil {
		loc.StartLine, loc.StartColumn = r.StartLine, r.StartColumn
		loc.EndLine, loc.EndColumn = r.EndLine, r.EndColumn
	}
	return loc
}

// level maps a severity back to the SARIF level it is mapped from.
func level(s issues.Severity) string {
	switch s {
	case issues.SeverityBlocker, issues.SeverityCritical:
		return "error"
	case issues.SeverityMajor:
		return "warning"
	default:
		return "note"
	}
}
