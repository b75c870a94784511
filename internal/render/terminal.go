package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/dotrep/internal/importer"
	"github.com/dkoosis/dotrep/pkg/issues"
	"github.com/dkoosis/dotrep/pkg/telemetry"
	"github.com/dkoosis/dotrep/pkg/testresults"
)

// Terminal renders a summary as styled terminal output via lipgloss.
type Terminal struct {
	theme    Theme
	width    int
	topRules int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width, topRules: 10}
}

// Render writes every non-empty section of s.
func (t *Terminal) Render(w io.Writer, s *importer.Summary) error {
	var sections []string
	for _, section := range []string{
		t.renderSummary(s),
		t.renderRules(s),
		t.renderTests(s),
		t.renderTelemetry(s.Telemetry),
		t.renderFailures(s),
	} {
		if section != "" {
			sections = append(sections, section)
		}
	}
	_, err := io.WriteString(w, strings.Join(sections, "\n"))
	return err
}

type metric struct {
	label, value, kind string
}

func (t *Terminal) renderSummary(s *importer.Summary) string {
	st := s.Stats
	native := st.Issues + st.FileIssues + st.ProjectIssues
	metrics := []metric{
		{"Issues", fmt.Sprintf("%d (%d located, %d file level, %d project level)", native, st.Issues, st.FileIssues, st.ProjectIssues), countKind(native, "warning")},
		{"External issues", fmt.Sprintf("%d", st.ExternalIssues), countKind(st.ExternalIssues, "warning")},
		{"Ad hoc rules", fmt.Sprintf("%d", st.AdHocRules), "info"},
		{"Test reports", fmt.Sprintf("%d", s.TestReports), "info"},
	}
	if st.Duplicates+st.MissingFiles > 0 {
		metrics = append(metrics, metric{"Dropped", fmt.Sprintf("%d duplicates, %d on unknown files", st.Duplicates, st.MissingFiles), "muted"})
	}
	if len(s.Failures) > 0 {
		metrics = append(metrics, metric{"Failed reports", fmt.Sprintf("%d", len(s.Failures)), "error"})
	}

	var sb strings.Builder
	header := fmt.Sprintf("dotrep: %d files indexed", s.IndexedFiles)
	if s.BaseDir != "" {
		header += " in " + s.BaseDir
	}
	sb.WriteString(t.theme.Bold.Render(header))
	sb.WriteString("\n")
	for _, m := range metrics {
		icon, style := t.iconStyle(m.kind)
		sb.WriteString("  ")
		sb.WriteString(style.Render(icon + " " + m.label + ": " + m.value))
		sb.WriteString("\n")
	}
	return sb.String()
}

func countKind(n int, nonZero string) string {
	if n == 0 {
		return "success"
	}
	return nonZero
}

type ruleCount struct {
	name     string
	severity issues.Severity
	count    int
}

func ruleCounts(s *importer.Summary) []ruleCount {
	idx := make(map[string]*ruleCount)
	var out []*ruleCount
	bump := func(name string, severity issues.Severity) {
		rc, ok := idx[name]
		if !ok {
			rc = &ruleCount{name: name, severity: severity}
			idx[name] = rc
			out = append(out, rc)
		}
		rc.count++
	}
	for _, i := range s.Issues {
		bump(i.Rule.String(), "")
	}
	for _, e := range s.ExternalIssues {
		bump(e.EngineID+":"+e.RuleID, e.Severity)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	counts := make([]ruleCount, len(out))
	for i, rc := range out {
		counts[i] = *rc
	}
	return counts
}

func (t *Terminal) renderRules(s *importer.Summary) string {
	counts := ruleCounts(s)
	if len(counts) == 0 {
		return ""
	}
	total := len(counts)
	if len(counts) > t.topRules {
		counts = counts[:t.topRules]
	}

	var sb strings.Builder
	header := "Rules"
	if total > len(counts) {
		header += fmt.Sprintf(" (top %d of %d)", len(counts), total)
	}
	sb.WriteString(t.theme.Bold.Render(header))
	sb.WriteString("\n")

	maxName := 0
	for _, rc := range counts {
		maxName = max(maxName, runewidth.StringWidth(rc.name))
	}
	maxName = min(maxName, t.width/2)
	title := cases.Title(language.English)
	for i, rc := range counts {
		sb.WriteString("  ")
		sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("%2d. ", i+1)))
		name := runewidth.Truncate(rc.name, maxName, "...")
		sb.WriteString(t.theme.Primary.Render(runewidth.FillRight(name, maxName)))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Warning.Render(fmt.Sprintf("%4d", rc.count)))
		if rc.severity != "" {
			sb.WriteString("  ")
			sb.WriteString(t.theme.Severity(rc.severity).Render(title.String(strings.ToLower(string(rc.severity)))))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderTests(s *importer.Summary) string {
	type row struct {
		name string
		r    testresults.UnitTestResults
	}
	var rows []row
	for _, p := range sortedPaths(s.TestFiles) {
		rows = append(rows, row{rel(s.BaseDir, p), s.TestFiles[p]})
	}
	if s.TestTotals.Tests() > 0 {
		rows = append(rows, row{"(summary reports)", s.TestTotals})
	}
	if len(rows) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(t.theme.Bold.Render("Tests"))
	sb.WriteString("\n")
	table := tablewriter.NewTable(&sb,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)
	table.Header([]string{"file", "tests", "skipped", "failures", "errors", "time"})
	maxName := t.width / 2
	for _, r := range rows {
		if err := table.Append([]string{
			t.theme.Outcome(r.r) + " " + runewidth.Truncate(r.name, maxName, "..."),
			fmt.Sprint(r.r.Tests()),
			fmt.Sprint(r.r.Skipped()),
			fmt.Sprint(r.r.Failures()),
			fmt.Sprint(r.r.Errors()),
			duration(r.r),
		}); err != nil {
			return ""
		}
	}
	if err := table.Render(); err != nil {
		return ""
	}
	return sb.String()
}

func duration(r testresults.UnitTestResults) string {
	ms, ok := r.ExecutionTime()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%d ms", ms)
}

func (t *Terminal) renderTelemetry(msgs []telemetry.Telemetry) string {
	if len(msgs) == 0 {
		return ""
	}
	sum := telemetry.Summarize(msgs)
	var sb strings.Builder
	sb.WriteString(t.theme.Bold.Render(fmt.Sprintf("Telemetry: %d projects", sum.Projects)))
	sb.WriteString("\n")
	for _, group := range []struct {
		label  string
		counts map[string]int
	}{
		{"target frameworks", sum.TargetFrameworks},
		{"language versions", sum.LanguageVersions},
	} {
		if len(group.counts) == 0 {
			continue
		}
		var parts []string
		for _, k := range telemetry.Keys(group.counts) {
			parts = append(parts, fmt.Sprintf("%s (%d)", k, group.counts[k]))
		}
		sb.WriteString("  ")
		sb.WriteString(t.theme.Muted.Render(t.theme.Icons.Bullet + " " + group.label + ": " + strings.Join(parts, ", ")))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderFailures(s *importer.Summary) string {
	if len(s.Failures) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(t.theme.Bold.Render("Failures"))
	sb.WriteString("\n")
	for _, f := range s.Failures {
		line := fmt.Sprintf("%s %s report %s: %v", t.theme.Icons.Fail, f.Kind, rel(s.BaseDir, f.Path), f.Err)
		sb.WriteString("  ")
		sb.WriteString(t.theme.Error.Render(runewidth.Truncate(line, t.width-2, "...")))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) iconStyle(kind string) (string, lipgloss.Style) {
	switch kind {
	case "success":
		return t.theme.Icons.Pass, t.theme.Success
	case "error":
		return t.theme.Icons.Fail, t.theme.Error
	case "warning":
		return t.theme.Icons.Warn, t.theme.Warning
	case "muted":
		return t.theme.Icons.Bullet, t.theme.Muted
	default:
		return t.theme.Icons.Info, t.theme.Primary
	}
}
