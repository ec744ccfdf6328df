package config

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned (wrapped) by a Loader when a reference does not
// name any project.
var ErrNotFound = errors.New("project not found")

// FileError is returned by a Loader when a project file was located but could
// not be parsed or translated. Path is the located file with forward slashes.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return e.Err.Error() }

func (e *FileError) Unwrap() error { return e.Err }

// Loader is the interface for a format-specific project loader.
type Loader interface {
	// Load locates the project named by ref, relative to baseDir when ref is
	// not absolute, and translates it into the format-agnostic model.
	Load(ctx context.Context, ref, baseDir string) (*Project, error)
}

// MapLoader serves projects from memory, keyed by canonical path. Relative
// references are joined to baseDir with forward slashes.
type MapLoader map[string]*Project

// Load implements Loader.
func (m MapLoader) Load(_ context.Context, ref, baseDir string) (*Project, error) {
	key := strings.ReplaceAll(ref, "\\", "/")
	if !strings.HasPrefix(key, "/") && baseDir != "" {
		key = path.Join(baseDir, key)
	}
	key = path.Clean(key)

	p, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	out := *p
	if out.Path == "" {
		out.Path = key
	}
	if out.Dir == "" {
		out.Dir = path.Dir(out.Path)
	}
	out.Declarations = append([]Declaration(nil), p.Declarations...)
	return &out, nil
}
