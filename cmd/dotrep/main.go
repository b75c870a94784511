// dotrep imports the analysis reports of a .NET build: Roslyn SARIF issue
// reports, protobuf telemetry and NUnit, XUnit or VSTest results.
//
// Usage:
//
//	dotrep import --base-dir ./src
//	dotrep import --format json > analysis.json
//	dotrep sarif obj/Debug/App.sarif
//	dotrep tests --kind vstest TestResults/*.trx
//
// Exit codes: 0 on success, 1 when at least one report could not be
// imported, 2 on usage or configuration errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dkoosis/dotrep/internal/logger"
	"github.com/dkoosis/dotrep/internal/version"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// exitError carries the process exit code out of a command. A nil err
// means the command already reported the problem.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error { return &exitError{code: 2, err: err} }

func failed(err error) error { return &exitError{code: 1, err: err} }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		// Flag and argument errors from cobra itself.
		ee = &exitError{code: 2, err: err}
	}
	if ee.err != nil {
		fmt.Fprintf(stderr, "dotrep: %v\n", ee.err)
	}
	return ee.code
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "dotrep",
		Short:         "Import .NET analysis reports",
		Long:          "Import the Roslyn SARIF issue reports, protobuf telemetry and unit test reports of a .NET solution.",
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetVersionTemplate(fmt.Sprintf("dotrep version {{.Version}}\nCommit: %s\nBuilt: %s\n", version.CommitHash, version.BuildDate))
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newImportCmd(stdout, stderr))
	root.AddCommand(newSarifCmd(stdout, stderr))
	root.AddCommand(newTestsCmd(stdout, stderr))
	return root
}

// newLogger logs to w, through tint when w is a terminal.
func newLogger(w io.Writer, level string, noColor bool) *logger.Logger {
	if _, ok := w.(*os.File); ok {
		return logger.Default(logger.Options{Level: level, NoColor: noColor, Out: w})
	}
	return logger.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logger.ParseLevel(level)}))
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the terminal width of w, defaulting to 80.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return 80
}
