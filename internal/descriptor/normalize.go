// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines how references are normalised before they are compared.
// All paths are stored in forward-slash form so that a manifest produced on
// one platform compares equal to one produced on another.
package descriptor

import (
	"path"
	"strings"
)

// NormalizePath turns ref into a clean, absolute, forward-slash path. Relative
// references are joined to base. Drive-prefixed paths such as "C:/sdk" count as
// absolute on every platform.
func NormalizePath(base, ref string) string {
	p := toSlash(ref)
	if !IsAbs(p) {
		p = path.Join(toSlash(base), p)
	}
	return path.Clean(p)
}

// IsAbs reports whether a forward-slash path is absolute, either rooted at "/"
// or carrying a drive letter.
func IsAbs(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	return hasDrive(p)
}

func hasDrive(p string) bool {
	if len(p) < 3 || p[1] != ':' || p[2] != '/' {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// validReference reports whether ref can name a path or token at all.
func validReference(ref string) bool {
	return strings.TrimSpace(ref) != "" && !strings.ContainsRune(ref, 0)
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
