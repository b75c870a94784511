package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dkoosis/dotrep/internal/fsindex"
	"github.com/dkoosis/dotrep/pkg/sarif"
)

func newSarifCmd(stdout, _ io.Writer) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "sarif <report>",
		Short: "Print the normalized content of a Roslyn SARIF report",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := sarif.Create(sarif.RoslynReport{Path: args[0], Project: sarif.Project(project)}, fsindex.RealPath)
			if err != nil {
				return failed(err)
			}
			fmt.Fprintf(stdout, "version %s\n", p.Version())
			if err := p.Accept(&eventPrinter{w: stdout}); err != nil {
				return failed(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project reported on project level issues")
	return cmd
}

// eventPrinter writes one line per parser event.
type eventPrinter struct {
	w io.Writer
}

func (p *eventPrinter) OnRule(ruleID, short, full, level, category string) error {
	_, err := fmt.Fprintf(p.w, "rule %s level=%s category=%q short=%q full=%q\n", ruleID, level, category, short, full)
	return err
}

func (p *eventPrinter) OnIssue(ruleID, level string, primary sarif.Location, secondary []sarif.Location, flow bool) error {
	if _, err := fmt.Fprintf(p.w, "issue %s level=%s %s\n", ruleID, orNone(level), primary); err != nil {
		return err
	}
	kind := "related"
	if flow {
		kind = "flow"
	}
	return p.secondary(kind, secondary)
}

func (p *eventPrinter) OnFileIssue(ruleID, level, path string, secondary []sarif.Location, message string) error {
	if _, err := fmt.Fprintf(p.w, "file-issue %s level=%s %s %s\n", ruleID, orNone(level), path, message); err != nil {
		return err
	}
	return p.secondary("related", secondary)
}

func (p *eventPrinter) OnProjectIssue(ruleID, level string, project sarif.Project, message string) error {
	_, err := fmt.Fprintf(p.w, "project-issue %s level=%s project=%q %s\n", ruleID, orNone(level), project, message)
	return err
}

func (p *eventPrinter) secondary(kind string, locs []sarif.Location) error {
	for _, l := range locs {
		if _, err := fmt.Fprintf(p.w, "  %s %s\n", kind, l); err != nil {
			return err
		}
	}
	return nil
}

func orNone(level string) string {
	if level == "" {
		return "-"
	}
	return level
}
