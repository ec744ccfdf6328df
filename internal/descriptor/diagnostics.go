// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package descriptor

import "fmt"

// Severity classifies a Diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
)

// DiagnosticKind names the condition a Diagnostic reports.
type DiagnosticKind string

const (
	// ConflictingDefine is reported when a define key is re-added with a
	// different value. The later value wins.
	ConflictingDefine DiagnosticKind = "conflicting_define"
)

// Diagnostic is a non-fatal finding collected while a descriptor is built and
// reported alongside the resolved manifest.
type Diagnostic struct {
	Severity Severity       `json:"severity" yaml:"severity" msgpack:"severity"`
	Kind     DiagnosticKind `json:"kind" yaml:"kind" msgpack:"kind"`
	Project  string         `json:"project" yaml:"project" msgpack:"project"`
	Message  string         `json:"message" yaml:"message" msgpack:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s (project %q): %s", d.Severity, d.Kind, d.Project, d.Message)
}

// HasWarnings reports whether any diagnostic is a warning.
func HasWarnings(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityWarning {
			return true
		}
	}
	return false
}
