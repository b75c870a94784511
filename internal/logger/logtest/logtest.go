// Package logtest records log output so tests can assert on exact messages.
package logtest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dkoosis/dotrep/internal/logger"
)

// Entry is one recorded log line.
type Entry struct {
	Level   slog.Level
	Message string
}

// Recorder is a slog.Handler that keeps every record at or above its level.
type Recorder struct {
	mu      *sync.Mutex
	entries *[]Entry
	level   slog.Level
}

// New returns a Recorder capturing debug and above, plus a Logger using it.
func New() (*Recorder, *logger.Logger) {
	r := &Recorder{mu: &sync.Mutex{}, entries: &[]Entry{}, level: slog.LevelDebug}
	return r, logger.New(r)
}

func (r *Recorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.level
}

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, Entry{Level: rec.Level, Message: rec.Message})
	return nil
}

func (r *Recorder) WithAttrs([]slog.Attr) slog.Handler { return r }

func (r *Recorder) WithGroup(string) slog.Handler { return r }

// Logs returns the messages recorded at exactly level, in order.
func (r *Recorder) Logs(level slog.Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range *r.entries {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// All returns every recorded entry.
func (r *Recorder) All() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), *r.entries...)
}

// Reset drops recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = nil
}
