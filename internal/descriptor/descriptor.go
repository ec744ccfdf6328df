// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Descriptor accumulator and its additive primitives.
package descriptor

import (
	"fmt"
	"maps"
	"os"
	"path"
	"slices"
	"strings"
)

// AssetOptions are the per-asset settings passed through to the build host.
type AssetOptions struct {
	// NotInList keeps the asset out of the generated manifest list; it must
	// then be referenced explicitly. Defaults to false (auto-registered).
	NotInList   bool              `json:"notinlist" yaml:"notinlist" msgpack:"notinlist"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Destination string            `json:"destination,omitempty" yaml:"destination,omitempty" msgpack:"destination,omitempty"`
	Extra       map[string]string `json:"extra,omitempty" yaml:"extra,omitempty" msgpack:"extra,omitempty"`
}

func (o AssetOptions) clone() AssetOptions {
	if o.Extra != nil {
		o.Extra = maps.Clone(o.Extra)
	}
	return o
}

// Asset binds a normalised path to its options.
type Asset struct {
	Path    string       `json:"path" yaml:"path" msgpack:"path"`
	Options AssetOptions `json:"options" yaml:"options" msgpack:"options"`
}

// Define is one preprocessor-style define. Literal is the full declared form,
// e.g. "rp_renderer=Forward"; Key is the part before the first '='.
type Define struct {
	Key     string `json:"key" yaml:"key" msgpack:"key"`
	Literal string `json:"literal" yaml:"literal" msgpack:"literal"`
}

// Value returns the part of the literal after the first '=' and whether the
// define carried one.
func (d Define) Value() (string, bool) {
	_, v, ok := strings.Cut(d.Literal, "=")
	return v, ok
}

// Child identifies a sub-project composed into a descriptor.
type Child struct {
	Name string `json:"name" yaml:"name" msgpack:"name"`
	Path string `json:"path" yaml:"path" msgpack:"path"`
}

// Descriptor accumulates one project's build configuration.
type Descriptor struct {
	name string
	path string
	dir  string

	sources    []string
	sourceSeen map[string]struct{}

	libraries   []string
	librarySeen map[string]struct{}

	defineKeys []string
	defines    map[string]string

	assets     []Asset
	assetIndex map[string]int

	parameters []string

	children   []Child
	childIndex map[string]int

	files       []string
	diagnostics []Diagnostic

	pending  int
	resolved bool
}

// Option configures a new Descriptor.
type Option func(*Descriptor)

// InDir sets the directory relative references are resolved against.
func InDir(dir string) Option {
	return func(d *Descriptor) {
		d.dir = dir
	}
}

// FromFile records the project file the descriptor is built from. Unless InDir
// is also given, relative references resolve against the file's directory.
func FromFile(file string) Option {
	return func(d *Descriptor) {
		d.path = toSlash(file)
	}
}

// New creates an empty descriptor named name. Without InDir or FromFile,
// relative references resolve against the process working directory.
func New(name string, opts ...Option) (*Descriptor, error) {
	if !validReference(name) {
		return nil, newError(ErrInvalidReference, name, "project name must not be empty")
	}

	d := &Descriptor{
		name:        name,
		sourceSeen:  make(map[string]struct{}),
		librarySeen: make(map[string]struct{}),
		defines:     make(map[string]string),
		assetIndex:  make(map[string]int),
		childIndex:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(d)
	}

	var wd string
	relDir := d.dir != "" && !IsAbs(toSlash(d.dir))
	relPath := d.dir == "" && !IsAbs(toSlash(d.path))
	if relDir || relPath {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		wd = toSlash(cwd)
	}

	if d.dir != "" {
		d.dir = NormalizePath(wd, d.dir)
	}
	if d.path != "" {
		base := d.dir
		if base == "" {
			base = wd
		}
		d.path = NormalizePath(base, d.path)
		d.files = append(d.files, d.path)
		if d.dir == "" {
			d.dir = path.Dir(d.path)
		}
	}
	if d.dir == "" {
		d.dir = NormalizePath(wd, ".")
	}

	return d, nil
}

// Name returns the project name given at creation.
func (d *Descriptor) Name() string { return d.name }

// Path returns the normalised project file path, or "" for in-memory projects.
func (d *Descriptor) Path() string { return d.path }

// Dir returns the directory relative references resolve against.
func (d *Descriptor) Dir() string { return d.dir }

// Resolved reports whether Resolve has succeeded.
func (d *Descriptor) Resolved() bool { return d.resolved }

func (d *Descriptor) checkMutable() error {
	if d.resolved {
		return newError(ErrAlreadyResolved, d.name, "cannot modify a resolved descriptor")
	}
	return nil
}

// AddSource appends a source directory. The directory is not checked for
// existence; a path already present is a no-op.
func (d *Descriptor) AddSource(dir string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if !validReference(dir) {
		return newError(ErrInvalidReference, d.name, "source path %q is empty or malformed", dir)
	}

	p := NormalizePath(d.dir, dir)
	if _, ok := d.sourceSeen[p]; ok {
		return nil
	}
	d.sourceSeen[p] = struct{}{}
	d.sources = append(d.sources, p)
	return nil
}

// AddLibrary appends a library path unless it is already present.
func (d *Descriptor) AddLibrary(lib string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if !validReference(lib) {
		return newError(ErrInvalidReference, d.name, "library path %q is empty or malformed", lib)
	}

	p := NormalizePath(d.dir, lib)
	if _, ok := d.librarySeen[p]; ok {
		return nil
	}
	d.librarySeen[p] = struct{}{}
	d.libraries = append(d.libraries, p)
	return nil
}

// AddDefine stores literal ("key" or "key=value") under its key. Re-adding a
// key with a different literal overrides it in place and records a
// ConflictingDefine warning.
func (d *Descriptor) AddDefine(literal string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	key, _, _ := strings.Cut(literal, "=")
	if !validReference(key) {
		return newError(ErrInvalidReference, d.name, "define %q has an empty key", literal)
	}

	prev, exists := d.defines[key]
	switch {
	case !exists:
		d.defineKeys = append(d.defineKeys, key)
	case prev != literal:
		d.diagnostics = append(d.diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Kind:     ConflictingDefine,
			Project:  d.name,
			Message:  fmt.Sprintf("define %q overridden: %q -> %q", key, prev, literal),
		})
	}
	d.defines[key] = literal
	return nil
}

// AddAsset binds opts to the asset at p. An asset already present keeps its
// position and takes the new options.
func (d *Descriptor) AddAsset(p string, opts AssetOptions) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if !validReference(p) {
		return newError(ErrInvalidReference, d.name, "asset path %q is empty or malformed", p)
	}

	norm := NormalizePath(d.dir, p)
	asset := Asset{Path: norm, Options: opts.clone()}
	if i, ok := d.assetIndex[norm]; ok {
		d.assets[i] = asset
		return nil
	}
	d.assetIndex[norm] = len(d.assets)
	d.assets = append(d.assets, asset)
	return nil
}

// AddParameter appends token verbatim. Order and repetition are preserved.
func (d *Descriptor) AddParameter(token string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if token == "" {
		return newError(ErrInvalidReference, d.name, "parameter must not be empty")
	}
	d.parameters = append(d.parameters, token)
	return nil
}

// AddChild records a composed sub-project for traceability.
func (d *Descriptor) AddChild(c Child) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	key := c.Path
	if key == "" {
		key = c.Name
	}
	if i, ok := d.childIndex[key]; ok {
		d.children[i] = c
		return nil
	}
	d.childIndex[key] = len(d.children)
	d.children = append(d.children, c)
	return nil
}

// AddFile records a project file that contributed to this descriptor. A file
// already recorded is a no-op.
func (d *Descriptor) AddFile(file string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if !validReference(file) {
		return newError(ErrInvalidReference, d.name, "project file %q is empty or malformed", file)
	}
	p := NormalizePath(d.dir, file)
	if slices.Contains(d.files, p) {
		return nil
	}
	d.files = append(d.files, p)
	return nil
}

// AddDiagnostics appends diagnostics collected elsewhere, e.g. from a child.
func (d *Descriptor) AddDiagnostics(diags ...Diagnostic) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.diagnostics = append(d.diagnostics, diags...)
	return nil
}

// Sources returns a copy of the source directories in order.
func (d *Descriptor) Sources() []string { return cloneStrings(d.sources) }

// Libraries returns a copy of the library paths in order.
func (d *Descriptor) Libraries() []string { return cloneStrings(d.libraries) }

// Parameters returns a copy of the parameter tokens in order.
func (d *Descriptor) Parameters() []string { return cloneStrings(d.parameters) }

// Files returns the contributing project files in load order.
func (d *Descriptor) Files() []string { return cloneStrings(d.files) }

// Define returns the literal stored under key.
func (d *Descriptor) Define(key string) (string, bool) {
	v, ok := d.defines[key]
	return v, ok
}

// Defines returns the defines in order of first appearance.
func (d *Descriptor) Defines() []Define {
	out := make([]Define, 0, len(d.defineKeys))
	for _, k := range d.defineKeys {
		out = append(out, Define{Key: k, Literal: d.defines[k]})
	}
	return out
}

// Assets returns a copy of the asset bindings in order.
func (d *Descriptor) Assets() []Asset {
	out := make([]Asset, len(d.assets))
	for i, a := range d.assets {
		out[i] = Asset{Path: a.Path, Options: a.Options.clone()}
	}
	return out
}

// Children returns the composed sub-projects in order of first composition.
func (d *Descriptor) Children() []Child {
	return append([]Child(nil), d.children...)
}

// Diagnostics returns a copy of the accumulated diagnostics.
func (d *Descriptor) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), d.diagnostics...)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
