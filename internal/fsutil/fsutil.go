// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotDefined is returned for blank folder inputs.
	ErrNotDefined = errors.New("not defined")
	// ErrNotDirectory is returned when a folder escapes its root, does not
	// exist or is not a directory. The three cases are not distinguished.
	ErrNotDirectory = errors.New("not a valid directory")
)

// ResolveDir joins a caller-supplied folder below root and returns the
// normalized absolute path. The result must be root itself or lie below it,
// and it must name an existing directory. Absolute inputs and inputs that
// climb out of root with ".." fail exactly like a missing folder.
func ResolveDir(root, folder string) (string, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return "", ErrNotDefined
	}
	if filepath.IsAbs(folder) {
		return "", fmt.Errorf("%w: %q", ErrNotDirectory, folder)
	}

	root = filepath.Clean(root)
	path := filepath.Join(root, filepath.Clean(folder))
	if !Within(root, path) {
		return "", fmt.Errorf("%w: %q", ErrNotDirectory, folder)
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrNotDirectory, folder)
	}
	return path, nil
}

// Within reports whether path equals root or lies below it. The check is
// lexical and works on whole path components, so "/data/projects2" is not
// within "/data/projects".
func Within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
