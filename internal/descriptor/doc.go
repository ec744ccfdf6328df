// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package descriptor holds the accumulated build configuration of one project:
// its source directories, libraries, defines, assets and launch parameters.
//
// A Descriptor is created empty, filled through its Add* primitives (directly
// or by the composer splicing a sub-project into it) and resolved exactly once.
// Resolution freezes the descriptor and yields a Manifest, the read-only value
// handed to the build host.
//
// Merge rules per collection:
//
//	sources     ordered, deduplicated by normalised path, first wins
//	libraries   ordered, deduplicated by normalised path, first wins
//	defines     keyed by the text before '=', last write wins, first position kept
//	assets      keyed by normalised path, last write wins on options, first position kept
//	parameters  ordered, never deduplicated
//
// A Descriptor is not safe for concurrent use. Independent descriptors share
// no state and may be built in parallel.
package descriptor
