// Package watch re-runs a composition whenever one of the project files it
// read changes on disk.
package watch
