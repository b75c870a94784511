package xmlreader

import (
	"errors"
	"fmt"
)

// ErrXML marks failures of the underlying XML decoder (malformed markup,
// illegal characters, truncated input).
var ErrXML = errors.New("error while parsing the XML file")

// ParseError reports missing or malformed structure in a report.
// Path and Line are empty when the error is not tied to a reader position.
type ParseError struct {
	Message string
	Path    string
	Line    int
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s in %s at line %d", e.Message, e.Path, e.Line)
}

// NewParseError returns a ParseError without position information.
func NewParseError(format string, a ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, a...)}
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

type xmlError struct {
	path  string
	cause error
}

func (e *xmlError) Error() string {
	return fmt.Sprintf("Error while parsing the XML file: %s: %v", e.path, e.cause)
}

func (e *xmlError) Unwrap() []error { return []error{ErrXML, e.cause} }
