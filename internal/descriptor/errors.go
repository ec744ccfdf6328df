// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package descriptor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyResolved is returned by any mutation or second Resolve on a
	// resolved descriptor.
	ErrAlreadyResolved = errors.New("descriptor already resolved")
	// ErrCycleDetected is returned when nested composition revisits a project
	// that is still being composed.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrUnresolvedChild is returned by Resolve while a nested composition is
	// still pending.
	ErrUnresolvedChild = errors.New("nested composition pending")
	// ErrInvalidReference is returned for empty or malformed references.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrProjectNotFound is returned when a sub-project reference cannot be
	// located.
	ErrProjectNotFound = errors.New("project not found")
)

// Error is a descriptor failure tagged with one of the Err* kinds.
type Error struct {
	Kind    error
	Project string
	Msg     string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Project != "" {
		fmt.Fprintf(&b, "project %q: ", e.Project)
	}
	b.WriteString(e.Kind.Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, project, format string, args ...any) error {
	return &Error{Kind: kind, Project: project, Msg: fmt.Sprintf(format, args...)}
}

// CycleError builds an ErrCycleDetected failure for the given chain of
// project paths. The last element is the revisited project.
func CycleError(project string, chain []string) error {
	return &Error{Kind: ErrCycleDetected, Project: project, Msg: strings.Join(chain, " -> ")}
}

// NotFoundError builds an ErrProjectNotFound failure.
func NotFoundError(project, ref string, cause error) error {
	msg := fmt.Sprintf("%q", ref)
	if cause != nil {
		msg = fmt.Sprintf("%q: %v", ref, cause)
	}
	return &Error{Kind: ErrProjectNotFound, Project: project, Msg: msg}
}

// InvalidReferenceError builds an ErrInvalidReference failure.
func InvalidReferenceError(project, format string, args ...any) error {
	return newError(ErrInvalidReference, project, format, args...)
}
