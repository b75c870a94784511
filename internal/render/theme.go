package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/dotrep/pkg/issues"
	"github.com/dkoosis/dotrep/pkg/testresults"
)

// Theme styles the terminal summary: headers, rule rows, test outcomes and
// the severity column of external rules.
type Theme struct {
	Name    string
	Primary lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Icons   ThemeIcons
}

// ThemeIcons marks metrics and test file outcomes.
type ThemeIcons struct {
	Pass   string
	Fail   string
	Skip   string
	Warn   string
	Info   string
	Bullet string
}

// palette holds the 256-color codes of a theme. Empty codes leave the
// terminal's own color.
type palette struct {
	primary, success, warning, failure, muted string
	icons                                     ThemeIcons
}

var asciiIcons = ThemeIcons{Pass: "+", Fail: "x", Skip: "~", Warn: "!", Info: "*", Bullet: "-"}

// ThemeNames lists the values accepted by output.theme, default first.
var ThemeNames = []string{"default", "orca", "mono"}

var palettes = map[string]palette{
	"default": {
		primary: "39", success: "34", warning: "214", failure: "196", muted: "242",
		icons: ThemeIcons{Pass: "✓", Fail: "✗", Skip: "○", Warn: "⚠", Info: "●", Bullet: "·"},
	},
	"orca": {
		primary: "75", success: "108", warning: "179", failure: "167", muted: "245",
		icons: ThemeIcons{Pass: "✓", Fail: "✗", Skip: "~", Warn: "!", Info: "·", Bullet: "·"},
	},
	"mono": {icons: asciiIcons},
}

func fg(code string) lipgloss.Style {
	s := lipgloss.NewStyle()
	if code != "" {
		s = s.Foreground(lipgloss.Color(code))
	}
	return s
}

func (p palette) theme(name string) Theme {
	bold := lipgloss.NewStyle()
	if p.primary != "" {
		bold = bold.Bold(true)
	}
	return Theme{
		Name:    name,
		Primary: fg(p.primary),
		Success: fg(p.success),
		Warning: fg(p.warning),
		Error:   fg(p.failure),
		Muted:   fg(p.muted),
		Bold:    bold,
		Icons:   p.icons,
	}
}

// LookupTheme returns the theme configured as output.theme. An empty name
// selects the default theme; noColor always selects mono.
func LookupTheme(name string, noColor bool) (Theme, error) {
	if name == "" {
		name = ThemeNames[0]
	}
	p, ok := palettes[name]
	if !ok {
		return Theme{}, fmt.Errorf("unknown theme %q (expected %s)", name, strings.Join(ThemeNames, ", "))
	}
	if noColor {
		return MonoTheme(), nil
	}
	return p.theme(name), nil
}

// MonoTheme returns the uncolored ASCII theme used for logs and CI.
func MonoTheme() Theme {
	return palettes["mono"].theme("mono")
}

// Severity styles an external issue severity.
func (t Theme) Severity(s issues.Severity) lipgloss.Style {
	switch s {
	case issues.SeverityBlocker, issues.SeverityCritical:
		return t.Error
	case issues.SeverityMajor:
		return t.Warning
	default:
		return t.Muted
	}
}

// Outcome returns the icon of a test file: failed when any test failed or
// errored, skipped when no test ran.
func (t Theme) Outcome(r testresults.UnitTestResults) string {
	switch {
	case r.Failures()+r.Errors() > 0:
		return t.Icons.Fail
	case r.Tests() > 0 && r.Skipped() == r.Tests():
		return t.Icons.Skip
	default:
		return t.Icons.Pass
	}
}
