package issues

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dkoosis/dotrep/internal/logger"
	"github.com/dkoosis/dotrep/pkg/sarif"
)

// EngineID is the engine of every external issue and ad hoc rule.
const EngineID = "roslyn"

var (
	// ErrInvalidLocation is returned when an owned rule reports a position
	// that does not exist in the indexed file.
	ErrInvalidLocation = errors.New("invalid issue location")
	// ErrClosed is returned for notifications after Close.
	ErrClosed = errors.New("reconciler is closed")
)

var ownRepositories = map[string]bool{"csharpsquid": true, "vbnet": true}

// internalRule matches the ids of rules shipped with the analyzer itself.
var internalRule = regexp.MustCompile(`^S\d{3,4}$`)

// Options configures a Reconciler.
type Options struct {
	// Repositories maps Roslyn rule ids to the repository owning them.
	Repositories     map[string]string
	IgnoreThirdParty bool

	BugCategories           []string
	CodeSmellCategories     []string
	VulnerabilityCategories []string

	// OmitImpacts leaves Impacts empty on external issues.
	OmitImpacts bool
}

// Stats counts what a Reconciler saved.
type Stats struct {
	Issues         int `json:"issues"`
	FileIssues     int `json:"fileIssues"`
	ProjectIssues  int `json:"projectIssues"`
	ExternalIssues int `json:"externalIssues"`
	AdHocRules     int `json:"adHocRules"`
	Duplicates     int `json:"duplicates"`
	MissingFiles   int `json:"missingFiles"`
}

type issueKey struct {
	rule, path                                 string
	startLine, startColumn, endLine, endColumn int
}

type projectKey struct {
	rule, message string
}

// Reconciler implements sarif.Callback for one analysis run. It is not safe
// for concurrent use; wrap it in a Queue to feed it from several goroutines.
type Reconciler struct {
	opts  Options
	files FileIndex
	sink  Sink
	log   *logger.Logger

	bug, smell, vuln map[string]bool

	saved         map[issueKey]bool
	projectIssues map[projectKey]bool
	defaultLevel  map[string]string
	ruleType      map[string]RuleType

	stats  Stats
	tx     *txn
	closed bool
}

var _ sarif.Callback = (*Reconciler)(nil)

// NewReconciler returns a Reconciler placing issues on files and saving them
// to sink.
func NewReconciler(files FileIndex, sink Sink, opts Options, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{
		opts:          opts,
		files:         files,
		sink:          sink,
		log:           log,
		bug:           set(opts.BugCategories),
		smell:         set(opts.CodeSmellCategories),
		vuln:          set(opts.VulnerabilityCategories),
		saved:         make(map[issueKey]bool),
		projectIssues: make(map[projectKey]bool),
		defaultLevel:  make(map[string]string),
		ruleType:      make(map[string]RuleType),
	}
}

func set(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// Stats returns the counters of committed work.
func (r *Reconciler) Stats() Stats { return r.stats }

// Close ends the run. Later notifications fail with ErrClosed.
func (r *Reconciler) Close() error {
	if r.tx != nil {
		r.tx.rollback()
		r.tx = nil
	}
	r.closed = true
	return nil
}

func (r *Reconciler) OnProjectIssue(ruleID, _ string, project sarif.Project, message string) error {
	return r.apply(func() error {
		// Project issues only differ by message; analyzers name the
		// assembly in it.
		if !r.markProject(projectKey{ruleID, message}) {
			return nil
		}
		repo, ok := r.opts.Repositories[ruleID]
		if !ok {
			return nil
		}
		r.logIssue("project level", ruleID, string(project))
		issue := Issue{
			Rule:    RuleKey{Repository: repo, Rule: ruleID},
			Project: project,
			Primary: IssueLocation{Message: message},
		}
		r.tx.save(func() error { return r.sink.SaveIssue(issue) }, func(s *Stats) { s.ProjectIssues++ })
		return nil
	})
}

func (r *Reconciler) OnFileIssue(ruleID, level, absolutePath string, secondary []sarif.Location, message string) error {
	return r.apply(func() error {
		if !r.mark(issueKey{rule: ruleID, path: absolutePath}) {
			return nil
		}
		f, ok := r.files.InputFile(absolutePath)
		if !ok {
			r.logMissingFile(ruleID, absolutePath)
			return nil
		}
		primary := IssueLocation{File: f.Path(), Message: message}

		if repo, ok := r.opts.Repositories[ruleID]; ok {
			r.logIssue("file level", ruleID, f.Path())
			sec, err := r.secondaryLocations(ruleID, secondary, !ownRepositories[repo])
			if err != nil {
				return err
			}
			issue := Issue{Rule: RuleKey{Repository: repo, Rule: ruleID}, Primary: primary, Secondary: sec}
			r.tx.save(func() error { return r.sink.SaveIssue(issue) }, func(s *Stats) { s.FileIssues++ })
			return nil
		}
		if !r.external(ruleID) {
			return nil
		}
		r.logIssue("file level external", ruleID, f.Path())
		sec, err := r.secondaryLocations(ruleID, secondary, true)
		if err != nil {
			return err
		}
		return r.saveExternal(ruleID, level, primary, sec)
	})
}

func (r *Reconciler) OnIssue(ruleID, level string, primary sarif.Location, secondary []sarif.Location, withExecutionFlow bool) error {
	return r.apply(func() error {
		if !r.mark(issueKey{ruleID, primary.AbsolutePath, primary.StartLine, primary.StartColumn, primary.EndLine, primary.EndColumn}) {
			return nil
		}
		f, ok := r.files.InputFile(primary.AbsolutePath)
		if !ok {
			r.logMissingFile(ruleID, primary.AbsolutePath)
			return nil
		}

		if repo, ok := r.opts.Repositories[ruleID]; ok {
			resilient := !ownRepositories[repo]
			r.logIssue("normal", ruleID, primary.AbsolutePath)
			loc, err := r.location(ruleID, f, primary, resilient)
			if err != nil {
				return err
			}
			issue := Issue{Rule: RuleKey{Repository: repo, Rule: ruleID}, Primary: loc}
			if withExecutionFlow {
				flow, err := r.executionFlow(ruleID, secondary, resilient)
				if err != nil {
					return err
				}
				if flow != nil {
					issue.Flows = []Flow{*flow}
				}
			} else if issue.Secondary, err = r.secondaryLocations(ruleID, secondary, resilient); err != nil {
				return err
			}
			r.tx.save(func() error { return r.sink.SaveIssue(issue) }, func(s *Stats) { s.Issues++ })
			return nil
		}
		if !r.external(ruleID) {
			return nil
		}
		r.logIssue("external", ruleID, primary.AbsolutePath)
		loc, err := r.location(ruleID, f, primary, true)
		if err != nil {
			return err
		}
		sec, err := r.secondaryLocations(ruleID, secondary, true)
		if err != nil {
			return err
		}
		return r.saveExternal(ruleID, level, loc, sec)
	})
}

// OnRule records the default level and type of an external rule and saves
// it as an ad hoc rule. Only the first descriptor of a rule is kept.
func (r *Reconciler) OnRule(ruleID, shortDescription, fullDescription, defaultLevel, category string) error {
	return r.apply(func() error {
		if _, owned := r.opts.Repositories[ruleID]; owned || !r.external(ruleID) {
			return nil
		}
		if _, seen := r.defaultLevel[ruleID]; seen {
			return nil
		}
		t := r.mapRuleType(category, defaultLevel)
		r.defaultLevel[ruleID] = defaultLevel
		r.ruleType[ruleID] = t
		r.tx.undo(func() {
			delete(r.defaultLevel, ruleID)
			delete(r.ruleType, ruleID)
		})

		name := shortDescription
		if name == "" {
			name = ruleID
		}
		rule := AdHocRule{
			EngineID:    EngineID,
			RuleID:      ruleID,
			Name:        name,
			Description: fullDescription,
			Severity:    MapSeverity(defaultLevel),
			Type:        t,
		}
		r.tx.save(func() error { return r.sink.SaveAdHocRule(rule) }, func(s *Stats) { s.AdHocRules++ })
		return nil
	})
}

func (r *Reconciler) saveExternal(ruleID, level string, primary IssueLocation, secondary []IssueLocation) error {
	var sev Severity
	switch dl, ok := r.defaultLevel[ruleID]; {
	case level != "":
		sev = MapSeverity(level)
	case ok:
		sev = MapSeverity(dl)
	default:
		r.log.Warningf("Rule %s was not found in the SARIF report, assuming default severity", ruleID)
		sev = SeverityMajor
	}
	t, ok := r.ruleType[ruleID]
	if !ok {
		t = TypeCodeSmell
	}

	issue := ExternalIssue{
		EngineID:  EngineID,
		RuleID:    ruleID,
		Primary:   primary,
		Type:      t,
		Severity:  sev,
		Secondary: secondary,
	}
	if !r.opts.OmitImpacts {
		quality, err := MapSoftwareQuality(t)
		if err != nil {
			return err
		}
		impact, err := MapImpactSeverity(sev)
		if err != nil {
			return err
		}
		issue.Impacts = []Impact{{Quality: quality, Severity: impact}}
	}
	r.tx.save(func() error { return r.sink.SaveExternalIssue(issue) }, func(s *Stats) { s.ExternalIssues++ })
	return nil
}

func (r *Reconciler) external(ruleID string) bool {
	return !r.opts.IgnoreThirdParty && !internalRule.MatchString(ruleID)
}

func (r *Reconciler) mapRuleType(category, defaultLevel string) RuleType {
	if category != "" {
		switch {
		case r.bug[category]:
			return TypeBug
		case r.smell[category]:
			return TypeCodeSmell
		case r.vuln[category]:
			return TypeVulnerability
		}
	}
	if strings.EqualFold(defaultLevel, "error") {
		return TypeBug
	}
	return TypeCodeSmell
}

// location places loc on f, falling back to the whole line and then to the
// whole file. Only resilient issues and templated files may fall back.
func (r *Reconciler) location(ruleID string, f InputFile, loc sarif.Location, resilient bool) (IssueLocation, error) {
	il := IssueLocation{File: f.Path(), Message: loc.Message}

	rng, err := f.NewRange(loc.StartLine, loc.StartColumn, loc.EndLine, loc.EndColumn)
	if err == nil {
		il.Range = &rng
		return il, nil
	}
	r.log.Debugf("Precise issue location cannot be found! Location: %s", loc)
	if !resilient && !templated(loc.AbsolutePath) {
		return IssueLocation{}, fmt.Errorf("%w for rule %s at %s: %w", ErrInvalidLocation, ruleID, loc, err)
	}

	if line, err := f.SelectLine(loc.StartLine); err == nil {
		il.Range = &line
	} else {
		r.log.Debugf("Line issue location cannot be found! Location: %s", loc)
	}
	return il, nil
}

// templated files are generated into C# by Razor; the compiler maps
// positions back imprecisely.
func templated(path string) bool {
	return strings.HasSuffix(path, ".razor") || strings.HasSuffix(path, ".cshtml")
}

func (r *Reconciler) secondaryLocations(ruleID string, locs []sarif.Location, resilient bool) ([]IssueLocation, error) {
	var out []IssueLocation
	for _, loc := range locs {
		f, ok := r.files.InputFile(loc.AbsolutePath)
		if !ok {
			continue
		}
		il, err := r.location(ruleID, f, loc, resilient)
		if err != nil {
			return nil, err
		}
		out = append(out, il)
	}
	return out, nil
}

// executionFlow reverses the resolvable flow locations. It returns nil when
// none of them resolve.
func (r *Reconciler) executionFlow(ruleID string, locs []sarif.Location, resilient bool) (*Flow, error) {
	resolved, err := r.secondaryLocations(ruleID, locs, resilient)
	if err != nil || len(resolved) == 0 {
		return nil, err
	}
	for i, j := 0, len(resolved)-1; i < j; i, j = i+1, j-1 {
		resolved[i], resolved[j] = resolved[j], resolved[i]
	}
	return &Flow{Type: "EXECUTION", Description: executionFlowLabel, Locations: resolved}, nil
}

func (r *Reconciler) mark(k issueKey) bool {
	if r.saved[k] {
		r.stats.Duplicates++
		r.tx.undo(func() { r.stats.Duplicates-- })
		return false
	}
	r.saved[k] = true
	r.tx.undo(func() { delete(r.saved, k) })
	return true
}

func (r *Reconciler) markProject(k projectKey) bool {
	if r.projectIssues[k] {
		r.stats.Duplicates++
		r.tx.undo(func() { r.stats.Duplicates-- })
		return false
	}
	r.projectIssues[k] = true
	r.tx.undo(func() { delete(r.projectIssues, k) })
	return true
}

func (r *Reconciler) logIssue(kind, ruleID, where string) {
	r.log.Debugf("Adding %s issue %s: %s", kind, ruleID, where)
}

func (r *Reconciler) logMissingFile(ruleID, path string) {
	r.log.Debugf("Skipping issue %s, input file not found or excluded: %s", ruleID, path)
	r.stats.MissingFiles++
	r.tx.undo(func() { r.stats.MissingFiles-- })
}
