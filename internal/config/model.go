package config

import (
	"fmt"

	"github.com/vk/projweave/internal/descriptor"
)

// Kind names a declaration type.
type Kind string

const (
	KindSource    Kind = "source"
	KindLibrary   Kind = "library"
	KindDefine    Kind = "define"
	KindAsset     Kind = "asset"
	KindParameter Kind = "parameter"
	KindProject   Kind = "project"
)

// Kinds lists every declaration type in the order they are documented.
var Kinds = []Kind{KindSource, KindLibrary, KindDefine, KindAsset, KindParameter, KindProject}

// Project is one loaded project file.
type Project struct {
	Name string
	// Path is the canonical location of the project. The composer uses it to
	// detect inclusion cycles.
	Path string
	// Dir is the directory relative references resolve against.
	Dir          string
	Declarations []Declaration
}

// Declaration is a single additive statement of a project file.
type Declaration struct {
	Kind Kind
	// Value is the path, define literal, parameter token or sub-project
	// reference, depending on Kind.
	Value string
	// Asset carries the options of a KindAsset declaration.
	Asset descriptor.AssetOptions
	// Origin locates the declaration for error messages, e.g. "project.hcl:12,1".
	Origin string
}

func (d Declaration) String() string {
	if d.Origin == "" {
		return fmt.Sprintf("%s %q", d.Kind, d.Value)
	}
	return fmt.Sprintf("%s %q (%s)", d.Kind, d.Value, d.Origin)
}

// Source returns a source declaration.
func Source(dir string) Declaration { return Declaration{Kind: KindSource, Value: dir} }

// Library returns a library declaration.
func Library(path string) Declaration { return Declaration{Kind: KindLibrary, Value: path} }

// Define returns a define declaration.
func Define(literal string) Declaration { return Declaration{Kind: KindDefine, Value: literal} }

// Asset returns an asset declaration.
func Asset(path string, opts descriptor.AssetOptions) Declaration {
	return Declaration{Kind: KindAsset, Value: path, Asset: opts}
}

// Parameter returns a parameter declaration.
func Parameter(token string) Declaration { return Declaration{Kind: KindParameter, Value: token} }

// SubProject returns a nested-composition declaration.
func SubProject(ref string) Declaration { return Declaration{Kind: KindProject, Value: ref} }
