// Package config defines the format-agnostic model of a project file: an
// ordered list of declarations, along with the Loader interface that turns a
// project reference into that model.
//
// The `config.Project` is the single input of the composer. Concrete loaders,
// such as the HCL one, live in separate packages.
package config
