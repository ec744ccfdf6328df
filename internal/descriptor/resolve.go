// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the terminal transition of a Descriptor and the Manifest
// it produces, along with the snapshot/restore pair the composer uses to roll
// back a failed nested composition.
package descriptor

import "maps"

// Manifest is the frozen, read-only view of a resolved descriptor. It is the
// value handed to the build host.
type Manifest struct {
	Name        string       `json:"name" yaml:"name" msgpack:"name"`
	Path        string       `json:"path,omitempty" yaml:"path,omitempty" msgpack:"path,omitempty"`
	Sources     []string     `json:"sources" yaml:"sources" msgpack:"sources"`
	Libraries   []string     `json:"libraries" yaml:"libraries" msgpack:"libraries"`
	Defines     []Define     `json:"defines" yaml:"defines" msgpack:"defines"`
	Assets      []Asset      `json:"assets" yaml:"assets" msgpack:"assets"`
	Parameters  []string     `json:"parameters" yaml:"parameters" msgpack:"parameters"`
	Children    []Child      `json:"children,omitempty" yaml:"children,omitempty" msgpack:"children,omitempty"`
	Files       []string     `json:"files,omitempty" yaml:"files,omitempty" msgpack:"files,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

// Define returns the literal stored under key.
func (m *Manifest) Define(key string) (string, bool) {
	for _, d := range m.Defines {
		if d.Key == key {
			return d.Literal, true
		}
	}
	return "", false
}

// Asset returns the binding for the normalised path p.
func (m *Manifest) Asset(p string) (Asset, bool) {
	for _, a := range m.Assets {
		if a.Path == p {
			return a, true
		}
	}
	return Asset{}, false
}

// BeginComposition marks a nested composition as in flight. Resolve fails until
// the matching EndComposition.
func (d *Descriptor) BeginComposition() error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.pending++
	return nil
}

// EndComposition marks one nested composition as finished.
func (d *Descriptor) EndComposition() {
	if d.pending > 0 {
		d.pending--
	}
}

// Pending reports the number of in-flight nested compositions.
func (d *Descriptor) Pending() int { return d.pending }

// Resolve freezes the descriptor and returns its manifest. It fails if the
// descriptor is already resolved or a nested composition is still pending.
func (d *Descriptor) Resolve() (*Manifest, error) {
	if d.resolved {
		return nil, newError(ErrAlreadyResolved, d.name, "resolve called more than once")
	}
	if d.pending > 0 {
		return nil, newError(ErrUnresolvedChild, d.name, "%d nested composition(s) still in flight", d.pending)
	}
	d.resolved = true

	return &Manifest{
		Name:        d.name,
		Path:        d.path,
		Sources:     nonNil(d.Sources()),
		Libraries:   nonNil(d.Libraries()),
		Defines:     d.Defines(),
		Assets:      d.Assets(),
		Parameters:  nonNil(d.Parameters()),
		Children:    d.Children(),
		Files:       d.Files(),
		Diagnostics: d.Diagnostics(),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Snapshot is a deep copy of a descriptor's accumulated state.
type Snapshot struct {
	sources     []string
	libraries   []string
	defineKeys  []string
	defines     map[string]string
	assets      []Asset
	parameters  []string
	children    []Child
	files       []string
	diagnostics []Diagnostic
}

// Snapshot captures the current state for a later Restore.
func (d *Descriptor) Snapshot() *Snapshot {
	return &Snapshot{
		sources:     d.Sources(),
		libraries:   d.Libraries(),
		defineKeys:  cloneStrings(d.defineKeys),
		defines:     maps.Clone(d.defines),
		assets:      d.Assets(),
		parameters:  d.Parameters(),
		children:    d.Children(),
		files:       d.Files(),
		diagnostics: d.Diagnostics(),
	}
}

// Restore puts the descriptor back into the state captured by s.
func (d *Descriptor) Restore(s *Snapshot) error {
	if err := d.checkMutable(); err != nil {
		return err
	}

	d.sources = cloneStrings(s.sources)
	d.sourceSeen = make(map[string]struct{}, len(s.sources))
	for _, p := range s.sources {
		d.sourceSeen[p] = struct{}{}
	}

	d.libraries = cloneStrings(s.libraries)
	d.librarySeen = make(map[string]struct{}, len(s.libraries))
	for _, p := range s.libraries {
		d.librarySeen[p] = struct{}{}
	}

	d.defineKeys = cloneStrings(s.defineKeys)
	d.defines = maps.Clone(s.defines)

	d.assets = make([]Asset, len(s.assets))
	d.assetIndex = make(map[string]int, len(s.assets))
	for i, a := range s.assets {
		d.assets[i] = Asset{Path: a.Path, Options: a.Options.clone()}
		d.assetIndex[a.Path] = i
	}

	d.parameters = cloneStrings(s.parameters)

	d.children = append([]Child(nil), s.children...)
	d.childIndex = make(map[string]int, len(s.children))
	for i, c := range s.children {
		key := c.Path
		if key == "" {
			key = c.Name
		}
		d.childIndex[key] = i
	}

	d.files = cloneStrings(s.files)
	d.diagnostics = append([]Diagnostic(nil), s.diagnostics...)
	return nil
}
