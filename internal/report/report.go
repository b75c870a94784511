// Package report collects the analyzer output locations discovered while a
// solution is scanned: Roslyn SARIF reports and protobuf report directories.
package report

import (
	"path/filepath"
	"sync"

	"github.com/dkoosis/dotrep/pkg/sarif"
)

// Collector accumulates report locations. RoslynReports are compared by
// value, so adding the same path and project twice keeps one entry. It is
// safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	roslyn    []sarif.RoslynReport
	seen      map[sarif.RoslynReport]bool
	protobuf  []string
	seenProto map[string]bool
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		seen:      make(map[sarif.RoslynReport]bool),
		seenProto: make(map[string]bool),
	}
}

// AddRoslynReports records reports in order, skipping known ones.
func (c *Collector) AddRoslynReports(reports []sarif.RoslynReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range reports {
		if c.seen[r] {
			continue
		}
		c.seen[r] = true
		c.roslyn = append(c.roslyn, r)
	}
}

// AddProtobufDirs records directories in order, skipping known ones.
func (c *Collector) AddProtobufDirs(dirs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range dirs {
		d = filepath.Clean(d)
		if c.seenProto[d] {
			continue
		}
		c.seenProto[d] = true
		c.protobuf = append(c.protobuf, d)
	}
}

// RoslynReports returns the recorded reports in insertion order.
func (c *Collector) RoslynReports() []sarif.RoslynReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sarif.RoslynReport(nil), c.roslyn...)
}

// ProtobufDirs returns the recorded directories in insertion order.
func (c *Collector) ProtobufDirs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.protobuf...)
}
