// Package report renders composition results for humans: diagnostics, a short
// summary of the resolved manifest, and unified diffs between manifests.
package report
