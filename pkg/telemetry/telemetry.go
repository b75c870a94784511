// Package telemetry reads the telemetry files written by the .NET analyzers:
// a sequence of length-delimited Telemetry protobuf messages.
package telemetry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dkoosis/dotrep/internal/logger"
)

// FileName is the name of the telemetry file inside a protobuf report directory.
const FileName = "telemetry.pb"

const (
	fieldProjectFullPath protowire.Number = 1
	fieldTargetFramework protowire.Number = 2
	fieldLanguageVersion protowire.Number = 3
)

// ErrTruncated is returned for a file ending inside a message.
var ErrTruncated = errors.New("truncated telemetry message")

// Telemetry describes one analyzed project.
type Telemetry struct {
	ProjectFullPath  string   `json:"projectFullPath"`
	TargetFrameworks []string `json:"targetFrameworks,omitempty"`
	LanguageVersion  string   `json:"languageVersion,omitempty"`
}

// Marshal encodes t in protobuf wire format.
func (t Telemetry) Marshal() []byte {
	var b []byte
	if t.ProjectFullPath != "" {
		b = protowire.AppendTag(b, fieldProjectFullPath, protowire.BytesType)
		b = protowire.AppendString(b, t.ProjectFullPath)
	}
	for _, tfm := range t.TargetFrameworks {
		b = protowire.AppendTag(b, fieldTargetFramework, protowire.BytesType)
		b = protowire.AppendString(b, tfm)
	}
	if t.LanguageVersion != "" {
		b = protowire.AppendTag(b, fieldLanguageVersion, protowire.BytesType)
		b = protowire.AppendString(b, t.LanguageVersion)
	}
	return b
}

// AppendDelimited appends t prefixed with its varint length.
func AppendDelimited(b []byte, t Telemetry) []byte {
	return protowire.AppendBytes(b, t.Marshal())
}

// Unmarshal decodes one message. Unknown fields are skipped.
func Unmarshal(b []byte) (Telemetry, error) {
	var t Telemetry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Telemetry{}, protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.BytesType || num < fieldProjectFullPath || num > fieldLanguageVersion {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Telemetry{}, protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeString(b)
		if n < 0 {
			return Telemetry{}, protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldProjectFullPath:
			t.ProjectFullPath = v
		case fieldTargetFramework:
			t.TargetFrameworks = append(t.TargetFrameworks, v)
		case fieldLanguageVersion:
			t.LanguageVersion = v
		}
	}
	return t, nil
}

// ReadDelimited decodes every length-delimited message of data.
func ReadDelimited(data []byte) ([]Telemetry, error) {
	var out []Telemetry
	for len(data) > 0 {
		msg, n := protowire.ConsumeBytes(data)
		if n < 0 {
			err := protowire.ParseError(n)
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrTruncated
			}
			return nil, err
		}
		t, err := Unmarshal(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", len(out)+1, err)
		}
		out = append(out, t)
		data = data[n:]
	}
	return out, nil
}

// Collector receives imported telemetry.
type Collector interface {
	AddTelemetry(...Telemetry)
}

// Importer reads telemetry files and hands their messages to a Collector
// on Save.
type Importer struct {
	collector Collector
	log       *logger.Logger

	mu      sync.Mutex
	pending []Telemetry
}

// NewImporter returns an Importer feeding c.
func NewImporter(c Collector, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{collector: c, log: log}
}

// Accept reads the file at path. A file that cannot be fully decoded adds
// nothing.
func (i *Importer) Accept(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading telemetry file %s: %w", path, err)
	}
	msgs, err := ReadDelimited(data)
	if err != nil {
		return fmt.Errorf("decoding telemetry file %s: %w", path, err)
	}
	i.log.Debugf("Read %d telemetry messages from '%s'.", len(msgs), path)
	i.mu.Lock()
	i.pending = append(i.pending, msgs...)
	i.mu.Unlock()
	return nil
}

// Save hands every accepted message to the collector in acceptance order.
func (i *Importer) Save() {
	i.mu.Lock()
	msgs := i.pending
	i.pending = nil
	i.mu.Unlock()
	if len(msgs) > 0 {
		i.collector.AddTelemetry(msgs...)
	}
}

// Store is a Collector keeping messages in memory. It is safe for
// concurrent use.
type Store struct {
	mu   sync.Mutex
	msgs []Telemetry
}

func (s *Store) AddTelemetry(msgs ...Telemetry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msgs...)
}

// Messages returns the collected messages in arrival order.
func (s *Store) Messages() []Telemetry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Telemetry(nil), s.msgs...)
}

// Summary counts projects per target framework and language version.
type Summary struct {
	Projects         int            `json:"projects"`
	TargetFrameworks map[string]int `json:"targetFrameworks"`
	LanguageVersions map[string]int `json:"languageVersions"`
}

// Summarize aggregates msgs.
func Summarize(msgs []Telemetry) Summary {
	s := Summary{
		Projects:         len(msgs),
		TargetFrameworks: make(map[string]int),
		LanguageVersions: make(map[string]int),
	}
	for _, m := range msgs {
		for _, tfm := range m.TargetFrameworks {
			s.TargetFrameworks[tfm]++
		}
		if m.LanguageVersion != "" {
			s.LanguageVersions[m.LanguageVersion]++
		}
	}
	return s
}

// Keys returns the keys of m sorted.
func Keys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
