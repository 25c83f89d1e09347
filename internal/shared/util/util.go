// Package util holds small helpers shared across packages.
package util

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// NormalizePatternPath turns an OS path into the slash-separated, cleaned
// form exclude globs are matched against. "." becomes "".
func NormalizePatternPath(p string) string {
	p = path.Clean(strings.TrimSpace(strings.ReplaceAll(p, `\`, "/")))
	if p == "." {
		return ""
	}
	return strings.TrimPrefix(p, "./")
}

func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileWithDirs writes data to name, creating missing parent directories.
func WriteFileWithDirs(name string, data []byte, perm fs.FileMode) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(name, data, perm)
}

func WriteStringWithDirs(name, content string, perm fs.FileMode) error {
	return WriteFileWithDirs(name, []byte(content), perm)
}
