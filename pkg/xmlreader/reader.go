// Package xmlreader is a pull cursor over XML report files.
//
// It exposes the element stream as start and end tags only, with attribute
// accessors that turn missing or malformed values into *ParseError carrying
// the report path and the current line.
package xmlreader

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dkoosis/dotrep/internal/logger"
)

// Reader walks the elements of one XML document.
// A Reader is not safe for concurrent use.
type Reader struct {
	path   string
	closer io.Closer
	dec    *xml.Decoder
	log    *logger.Logger

	current *xml.StartElement
	name    string
}

// Open opens the report at path. The caller must Close the Reader.
func Open(path string, log *logger.Logger) (*Reader, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", abs, err)
	}
	r := NewReader(f, abs, log)
	r.closer = f
	return r, nil
}

// NewReader reads XML from src. path is only used in error messages.
// UTF-8 and UTF-16 byte order marks are honored.
func NewReader(src io.Reader, path string, log *logger.Logger) *Reader {
	if log == nil {
		log = logger.Nop()
	}
	// BOMOverride converts BOM-prefixed UTF-16 to UTF-8 and strips a UTF-8 BOM;
	// everything else passes through untouched.
	dec := xml.NewDecoder(transform.NewReader(src, unicode.BOMOverride(transform.Nop)))
	dec.CharsetReader = charsetReader
	dec.Strict = true
	return &Reader{path: path, dec: dec, log: log}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "utf-16", "utf-16le", "utf-16be", "unicode":
		// Already transcoded by the BOM override.
		return input, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// Path returns the report path used in error messages.
func (r *Reader) Path() string { return r.path }

// Close releases the underlying file, if the Reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Line returns the line of the decoder's current position.
func (r *Reader) Line() int {
	line, _ := r.dec.InputPos()
	return line
}

// NextStartTag advances to the next start element and returns its local name.
// ok is false at end of document.
func (r *Reader) NextStartTag() (name string, ok bool, err error) {
	for {
		tok, err := r.next()
		if err != nil || tok == nil {
			return "", false, err
		}
		if se, isStart := tok.(xml.StartElement); isStart {
			r.setCurrent(se)
			return se.Name.Local, true, nil
		}
	}
}

// NextStartOrEndTag advances to the next start or end element and returns it
// rendered as "<name>" or "</name>". Self-closing elements yield both.
func (r *Reader) NextStartOrEndTag() (tag string, ok bool, err error) {
	for {
		tok, err := r.next()
		if err != nil || tok == nil {
			return "", false, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			r.setCurrent(t)
			return "<" + t.Name.Local + ">", true, nil
		case xml.EndElement:
			r.current = nil
			r.name = t.Name.Local
			return "</" + t.Name.Local + ">", true, nil
		}
	}
}

// next returns the next token, or nil at end of document. A decoder error that
// did not move the input position cannot be recovered from and is returned.
func (r *Reader) next() (xml.Token, error) {
	last := r.dec.InputOffset()
	for {
		tok, err := r.dec.Token()
		if err == nil {
			return tok, nil
		}
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		offset := r.dec.InputOffset()
		if offset == last {
			r.log.Warningf("Unable to get next XML event while parsing file '%s'", r.path)
			return nil, &xmlError{path: r.path, cause: err}
		}
		last = offset
	}
}

func (r *Reader) setCurrent(se xml.StartElement) {
	cp := se.Copy()
	r.current = &cp
	r.name = se.Name.Local
}

// CheckRootTag consumes the first element and fails unless it is name.
func (r *Reader) CheckRootTag(name string) error {
	tag, _, err := r.NextStartTag()
	if err != nil {
		return err
	}
	if tag != name {
		return r.Errorf("Missing root element <%s>", name)
	}
	return nil
}

// CheckRootTags consumes the first element and fails unless it is one of names.
func (r *Reader) CheckRootTags(names ...string) (string, error) {
	tag, _, err := r.NextStartTag()
	if err != nil {
		return "", err
	}
	for _, n := range names {
		if tag == n {
			return tag, nil
		}
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "<" + n + ">"
	}
	return "", r.Errorf("Missing or incorrect root element. Expected one of [%s], but got <%s> instead",
		strings.Join(quoted, ", "), tag)
}

// Attr returns the value of the named attribute of the current start element.
func (r *Reader) Attr(name string) (string, bool) {
	if r.current == nil {
		return "", false
	}
	for _, a := range r.current.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// RequiredAttr is Attr that fails when the attribute is absent.
func (r *Reader) RequiredAttr(name string) (string, error) {
	v, ok := r.Attr(name)
	if !ok {
		return "", r.Errorf("Missing attribute \"%s\" in element <%s>", name, r.name)
	}
	return v, nil
}

// RequiredIntAttr reads a mandatory integer attribute.
func (r *Reader) RequiredIntAttr(name string) (int, error) {
	v, err := r.RequiredAttr(name)
	if err != nil {
		return 0, err
	}
	return r.IntValue(name, v)
}

// IntAttrOrZero reads an optional integer attribute, 0 when absent.
func (r *Reader) IntAttrOrZero(name string) (int, error) {
	v, ok := r.Attr(name)
	if !ok {
		return 0, nil
	}
	return r.IntValue(name, v)
}

// IntValue parses value as the integer content of attribute name.
func (r *Reader) IntValue(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, r.Errorf("Expected an integer instead of \"%s\" for the attribute \"%s\"", value, name)
	}
	return n, nil
}

// DoubleAttr reads an optional decimal attribute. Both '.' and ',' are
// accepted as decimal separator.
func (r *Reader) DoubleAttr(name string) (value float64, ok bool, err error) {
	v, present := r.Attr(name)
	if !present {
		return 0, false, nil
	}
	v = strings.ReplaceAll(v, ",", ".")
	f, perr := strconv.ParseFloat(v, 64)
	if perr != nil {
		return 0, false, r.Errorf("Expected an double instead of \"%s\" for the attribute \"%s\"", v, name)
	}
	return f, true, nil
}

// Errorf builds a ParseError positioned at the current line.
func (r *Reader) Errorf(format string, a ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, a...), Path: r.path, Line: r.Line()}
}
