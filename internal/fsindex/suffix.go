package fsindex

import (
	"path/filepath"
	"strings"
)

// PathSuffix returns a predicate matching absolute paths that end with the
// given slash separated suffix on a path element boundary. The comparison
// is case sensitive. An empty suffix matches every path.
func PathSuffix(suffix string) func(absolutePath string) bool {
	return func(absolutePath string) bool {
		if suffix == "" {
			return true
		}
		return absolutePath == suffix || strings.HasSuffix(absolutePath, "/"+suffix)
	}
}

// RealPath resolves symbolic links in p. When p cannot be resolved it is
// returned cleaned but otherwise unchanged.
func RealPath(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return filepath.Clean(p)
}
