// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNoProjectFile is returned by FindProjectFile when a directory holds none
// of the candidate file names.
var ErrNoProjectFile = errors.New("no project file found")

// FindProjectFile resolves ref to a project file. ref may name a file directly
// or a directory; for a directory the first of names that exists inside it is
// returned. The result is absolute, cleaned and free of symbolic links, so
// two references to the same file always resolve to the same string.
func FindProjectFile(ref string, names ...string) (string, error) {
	if len(names) == 0 {
		panic("names must not be empty")
	}

	abs, err := filepath.Abs(ref)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return filepath.EvalSymlinks(abs)
	}

	for _, name := range names {
		candidate := filepath.Join(abs, name)
		fi, err := os.Stat(candidate)
		if err == nil && !fi.IsDir() {
			return filepath.EvalSymlinks(candidate)
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %v)", ErrNoProjectFile, abs, names)
}
