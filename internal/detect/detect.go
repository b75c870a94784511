// Package detect sniffs the first bytes of a report to determine its format.
package detect

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"os"
)

// Format represents a recognized report format.
type Format int

const (
	Unknown Format = iota
	SARIF          // Roslyn SARIF report, any version
	NUnit          // NUnit 2 <test-results> or NUnit 3 <test-run>
	XUnit          // xUnit.net <assemblies> or <assembly>
	VSTest         // Visual Studio TRX <TestRun>
)

func (f Format) String() string {
	switch f {
	case SARIF:
		return "sarif"
	case NUnit:
		return "nunit"
	case XUnit:
		return "xunit"
	case VSTest:
		return "vstest"
	default:
		return "unknown"
	}
}

// peekSize bounds how much of a file SniffFile reads.
const peekSize = 8 * 1024

// Sniff examines the first bytes of input to determine the format.
func Sniff(data []byte) Format {
	data = bytes.TrimLeft(data, "\ufeff \t\r\n")
	if len(data) == 0 {
		return Unknown
	}
	switch data[0] {
	case '{':
		if isSARIF(data) {
			return SARIF
		}
	case '<':
		return sniffXML(data)
	}
	return Unknown
}

// SniffFile sniffs the beginning of the file at path.
func SniffFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer f.Close()
	buf := make([]byte, peekSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Unknown, err
	}
	return Sniff(buf[:n]), nil
}

// isSARIF looks for the top-level "version" string. A truncated document is
// accepted as long as the version was seen.
func isSARIF(data []byte) bool {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return false
	}
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return false
		}
		if key == "version" {
			tok, err := dec.Token()
			if err != nil {
				return false
			}
			v, ok := tok.(string)
			return ok && v != ""
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return false
		}
	}
	return false
}

func sniffXML(data []byte) Format {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }
	for {
		tok, err := dec.Token()
		if err != nil {
			return Unknown
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "test-results", "test-run":
			return NUnit
		case "assemblies", "assembly":
			return XUnit
		case "TestRun":
			return VSTest
		default:
			return Unknown
		}
	}
}
