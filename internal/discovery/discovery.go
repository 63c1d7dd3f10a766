// Package discovery enumerates the project source files registered with the
// agent before a run.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultExcludedDirs are directory names skipped during the walk.
var DefaultExcludedDirs = []string{"venv", ".git"}

const sourceSuffix = ".py"

// SourceFiles walks the project tree and returns relative paths of Python
// source files in traversal order, using forward slashes regardless of
// platform.
//
// Top-level files are skipped: they are helper scripts, not module code,
// and usually not tested. Directories named in excludedDirs are pruned.
func SourceFiles(root string, excludedDirs []string) ([]string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("project root must not be empty")
	}
	if excludedDirs == nil {
		excludedDirs = DefaultExcludedDirs
	}

	excluded := make(map[string]struct{}, len(excludedDirs))
	for _, dir := range excludedDirs {
		excluded[dir] = struct{}{}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := excluded[entry.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(entry.Name(), sourceSuffix) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativize %q: %w", path, err)
		}
		// Top-level scripts have no directory component.
		if !strings.Contains(rel, string(filepath.Separator)) {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk project root %q: %w", root, err)
	}

	return paths, nil
}
