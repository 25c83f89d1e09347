package app

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"actiongen/internal/core/errors"
	"actiongen/internal/core/ports"
	"actiongen/internal/core/watcher"
)

type sourceDiscovery struct {
	parser  ports.SourceParser
	matcher *watcher.Matcher
	skip    map[string]bool
}

var _ ports.SourceDiscovery = (*sourceDiscovery)(nil)

// NewSourceDiscovery finds supported source files under a set of roots.
// Files listed in skip, such as the generated output, are never returned.
func NewSourceDiscovery(p ports.SourceParser, excludeDirs, excludeFiles []string, skip ...string) (ports.SourceDiscovery, error) {
	matcher, err := watcher.NewMatcher(excludeDirs, excludeFiles)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid exclude pattern")
	}
	d := &sourceDiscovery{parser: p, matcher: matcher, skip: make(map[string]bool, len(skip))}
	for _, s := range skip {
		if s == "" {
			continue
		}
		if abs, err := filepath.Abs(s); err == nil {
			d.skip[abs] = true
		}
	}
	return d, nil
}

// Discover walks roots in order. Each directory is walked in lexical order,
// and a file is returned at most once. A missing root is a NOT_FOUND error.
func (d *sourceDiscovery) Discover(ctx context.Context, roots []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] || d.skip[abs] {
			return
		}
		seen[abs] = true
		files = append(files, filepath.Clean(path))
	}

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "input path not found"), errors.CtxPath, root)
			}
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "stat input path"), errors.CtxPath, root)
		}

		if !info.IsDir() {
			if !d.parser.IsSupportedPath(root) {
				return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "input file is not a supported source file"), errors.CtxPath, root)
			}
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if entry.IsDir() {
				if path != root && d.matcher.ExcludeDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.parser.IsSupportedPath(path) || d.matcher.ExcludeFile(path) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "walk input directory"), errors.CtxPath, root)
		}
	}
	return files, nil
}
