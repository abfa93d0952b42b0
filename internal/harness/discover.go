package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScenarioNotFoundError is returned when a scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// Discover returns scenario files under path, sorted. A file path is returned
// as-is; a directory is searched recursively for .yaml and .yml files.
//
// filter, if non-empty, keeps only files whose base name contains it.
func Discover(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &ScenarioNotFoundError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" && !strings.Contains(filepath.Base(p), filter) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", path, err)
	}

	sort.Strings(files)
	return files, nil
}
