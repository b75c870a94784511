// Package fsindex indexes the .NET sources below a base directory so that
// report positions can be validated against real file content.
package fsindex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dkoosis/dotrep/internal/logger"
	"github.com/dkoosis/dotrep/pkg/issues"
)

var (
	ErrNotFound       = errors.New("no indexed file matches")
	ErrAmbiguousMatch = errors.New("ambiguous match")
)

// DefaultInclude selects the sources analyzed by the Roslyn analyzers.
var DefaultInclude = []string{"**/*.{cs,vb,razor,cshtml,vbhtml}"}

// DefaultTests marks test projects by their conventional names.
var DefaultTests = []string{"**/*Tests/**", "**/*Test/**", "**/*Tests.{cs,vb}", "**/*Test.{cs,vb}"}

// Options configures Build. Patterns are doublestar globs relative to the
// base directory.
type Options struct {
	Include []string
	Exclude []string
	Tests   []string
}

// Index maps absolute (symlink resolved) paths to indexed files.
type Index struct {
	base  string
	files map[string]*File
}

var _ issues.FileIndex = (*Index)(nil)

// Build walks base and indexes every included, non excluded file.
func Build(base string, opts Options, log *logger.Logger) (*Index, error) {
	if log == nil {
		log = logger.Nop()
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory %s: %w", base, err)
	}
	abs = RealPath(abs)
	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	tests := opts.Tests
	if tests == nil {
		tests = DefaultTests
	}
	for _, p := range append(append(append([]string(nil), include...), opts.Exclude...), tests...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid file pattern %q", p)
		}
	}

	ix := &Index{base: abs, files: make(map[string]*File)}
	fsys := os.DirFS(abs)
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("globbing %s in %s: %w", pattern, abs, err)
		}
		for _, rel := range matches {
			path := filepath.Join(abs, filepath.FromSlash(rel))
			if _, seen := ix.files[path]; seen || matchAny(opts.Exclude, rel) {
				continue
			}
			content, err := fs.ReadFile(fsys, rel)
			if err != nil {
				log.Warningf("Unable to index '%s': %v", path, err)
				continue
			}
			typ := TypeMain
			if matchAny(tests, rel) {
				typ = TypeTest
			}
			ix.files[path] = NewFile(path, typ, content)
		}
	}
	log.Debugf("Indexed %d files in '%s'.", len(ix.files), abs)
	return ix, nil
}

// New returns an index over already built files.
func New(base string, files ...*File) *Index {
	ix := &Index{base: base, files: make(map[string]*File, len(files))}
	for _, f := range files {
		ix.files[f.Path()] = f
	}
	return ix
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

// Base returns the indexed directory.
func (ix *Index) Base() string { return ix.base }

// Len returns the number of indexed files.
func (ix *Index) Len() int { return len(ix.files) }

// InputFile looks up an absolute path.
func (ix *Index) InputFile(absolutePath string) (issues.InputFile, bool) {
	f, ok := ix.File(absolutePath)
	if !ok {
		return nil, false
	}
	return f, true
}

// File looks up an absolute path, resolving symlinks when the path is not
// indexed as given.
func (ix *Index) File(absolutePath string) (*File, bool) {
	if f, ok := ix.files[filepath.Clean(absolutePath)]; ok {
		return f, true
	}
	f, ok := ix.files[RealPath(absolutePath)]
	return f, ok
}

// Files returns the indexed files of the given type sorted by path. An
// empty type selects every file.
func (ix *Index) Files(typ Type) []*File {
	var out []*File
	for _, f := range ix.files {
		if typ == "" || f.typ == typ {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

// FindSuffix returns the single file whose slash separated path ends with
// suffix.
func (ix *Index) FindSuffix(suffix string) (*File, error) {
	match := PathSuffix(filepath.ToSlash(suffix))
	var found []*File
	for _, f := range ix.Files("") {
		if match(filepath.ToSlash(f.path)) {
			found = append(found, f)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%s: %w", suffix, ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%s matches %d files: %w", suffix, len(found), ErrAmbiguousMatch)
	}
}
