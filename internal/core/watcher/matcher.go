package watcher

import (
	"path/filepath"

	"actiongen/internal/shared/util"

	"github.com/gobwas/glob"
)

// Matcher decides which directories and files are excluded from a scan.
// Patterns match either the base name or the slash-separated path.
type Matcher struct {
	dirs  []glob.Glob
	files []glob.Glob
}

func NewMatcher(excludeDirs, excludeFiles []string) (*Matcher, error) {
	m := &Matcher{}
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		m.dirs = append(m.dirs, g)
	}
	for _, pattern := range excludeFiles {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		m.files = append(m.files, g)
	}
	return m, nil
}

func (m *Matcher) ExcludeDir(path string) bool {
	return matchAny(m.dirs, path)
}

func (m *Matcher) ExcludeFile(path string) bool {
	return matchAny(m.files, path)
}

func matchAny(globs []glob.Glob, path string) bool {
	base := filepath.Base(path)
	norm := util.NormalizePatternPath(path)
	for _, g := range globs {
		if g.Match(base) || g.Match(norm) {
			return true
		}
	}
	return false
}
