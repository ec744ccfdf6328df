// Package composer turns project declarations into descriptors. It applies
// declarations in order, composes nested sub-projects by building and
// resolving them recursively and splicing their state into the parent at the
// call site, and performs the terminal resolve of the top-level descriptor.
//
// A failed nested composition leaves the parent exactly as it was before the
// call. A sub-project that is already being composed further up the chain
// fails with descriptor.ErrCycleDetected instead of recursing.
//
// A Composer tracks the chain of projects it is composing and is therefore not
// safe for concurrent use. Independent top-level compositions should each use
// their own Composer.
package composer
