// Package render formats an import summary for people (terminal) and for
// tools (JSON, SARIF).
package render

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dkoosis/dotrep/internal/importer"
)

// Renderer writes a summary.
type Renderer interface {
	Render(w io.Writer, s *importer.Summary) error
}

// Formats lists the supported output formats.
var Formats = []string{"terminal", "json", "sarif"}

// New returns the renderer of format.
func New(format string, theme Theme, width int) (Renderer, error) {
	switch format {
	case "", "terminal":
		return NewTerminal(theme, width), nil
	case "json":
		return NewJSON(), nil
	case "sarif":
		return NewSARIF(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected %s)", format, strings.Join(Formats, ", "))
	}
}

// rel shortens path to be relative to base when it lies below it.
func rel(base, path string) string {
	if base == "" || path == "" {
		return path
	}
	r, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(r, "..") {
		return path
	}
	return filepath.ToSlash(r)
}
