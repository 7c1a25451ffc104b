// SPDX-License-Identifier: BSD-3-Clause

// Copyright (C) 2025-2026 SUSE LLC. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package securepath constrains untrusted paths to a trusted root
// directory. It implements the joining scheme used by container runtimes
// to stop a path taken from inside a sandboxed filesystem from escaping
// it through ".." components or symlinks that point outside the sandbox:
// the untrusted path is resolved component by component against the root,
// and symlinks are re-anchored under the root as they are encountered.
package securepath

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// linkStatus classifies the outcome of asking the filesystem whether a
// path is a symlink. Every status other than linkFound currently receives
// the same treatment (the component is kept as-is), but the distinction
// keeps the branch auditable.
type linkStatus int

const (
	linkFound linkStatus = iota
	linkNotExist
	linkNotSymlink
	linkIOError
)

// readLink asks vfs whether path is a symlink and, if so, for its target
// text.
func readLink(vfs VFS, path string) (string, linkStatus) {
	fi, err := vfs.Lstat(path)
	switch {
	case IsNotExist(err):
		return "", linkNotExist
	case err != nil:
		return "", linkIOError
	case fi.Mode()&os.ModeSymlink == 0:
		return "", linkNotSymlink
	}
	target, err := vfs.Readlink(path)
	if err != nil {
		return "", linkIOError
	}
	return target, linkFound
}

// splitComponents splits a path into the ordered components the
// resolution loop consumes. Repeated separators and "." segments
// contribute nothing and are dropped, while ".." and plain names are
// yielded verbatim. A leading separator is yielded as a single
// absolute-root marker component.
func splitComponents(path string) []string {
	var parts []string
	if strings.HasPrefix(path, string(filepath.Separator)) {
		parts = append(parts, string(filepath.Separator))
	}
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == "" || part == "." {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

// appendPart adds one component to path, inserting a separator only if
// path doesn't already end in one. The working path starts out with a
// trailing separator, and raw symlink-target concatenation can leave one
// behind too.
func appendPart(path, part string) string {
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return path + part
	}
	return path + string(filepath.Separator) + part
}

// popPart removes the final component of path, leaving at most a bare
// separator behind.
func popPart(path string) string {
	for len(path) > 1 && strings.HasSuffix(path, string(filepath.Separator)) {
		path = path[:len(path)-1]
	}
	i := strings.LastIndex(path, string(filepath.Separator))
	switch {
	case i < 0:
		return ""
	case i == 0:
		return string(filepath.Separator)
	}
	return path[:i]
}

// SecureJoin joins the two given path components (similar to
// [filepath.Join]) except that the returned path is constrained to remain
// inside root: ".." components in unsafePath never climb above root, and
// symlinks encountered along the way are re-anchored under root rather
// than followed out of it.
//
// Unlike filepath.Join, resolution never fails. Filesystem errors while
// inspecting a component (missing entries, permission denied) mean the
// component is kept as-is and the walk continues, so the result is a
// best-effort containment rather than a verified one. Callers that want
// the filesystem's word on the final path can follow up with
// [CheckInRoot]. Escape attempts are neutralised silently; the caller
// always receives a safe path, never an error describing the attempt.
//
// Note that the guarantees provided by this function only apply if the
// path components in the returned string are not modified (in other words
// are not replaced with symlinks on the filesystem) after this function
// has returned. Such a symlink race is necessarily out-of-scope of
// SecureJoin.
func SecureJoin(root, unsafePath string) string {
	return SecureJoinVFS(root, unsafePath, nil)
}

// SecureJoinVFS is SecureJoin with the filesystem state evaluated through
// the given [VFS] interface (if nil, the standard os.* family of
// functions are used).
func SecureJoinVFS(root, unsafePath string, vfs VFS) string {
	// Use the os.* VFS implementation if none was specified.
	if vfs == nil {
		vfs = osVFS{}
	}

	// The working path always starts out with a trailing separator so that
	// an empty root still resolves relative to "/".
	path := root + string(filepath.Separator)

	for _, part := range splitComponents(unsafePath) {
		// An absolute-root marker must not reset the accumulated prefix
		// the way it would under naive join semantics, so it is skipped
		// outright.
		if part == string(filepath.Separator) {
			continue
		}
		path = appendPart(path, part)

		if target, status := readLink(vfs, path); status == linkFound {
			if filepath.IsAbs(target) {
				// Re-anchor absolute symlink targets under root by raw
				// prefixing. The result is taken as-is: no
				// canonicalisation and no existence check.
				path = root + target
			} else {
				// Expand relative targets in place of the component we
				// just appended, clamping back to root the moment a
				// canonical form steps outside it.
				path = popPart(path)
				for _, sub := range splitComponents(target) {
					path = appendPart(path, sub)
					if _, err := vfs.Stat(path); err != nil {
						continue
					}
					canon, err := vfs.EvalSymlinks(path)
					if err != nil {
						// The entry raced away between the two queries;
						// treat it like any other failed query.
						continue
					}
					path = canon
					if !isLexicallyInRoot(root, path) {
						logrus.Debugf("symlink target %q resolved to %q outside root %q, clamping to root", target, canon, root)
						path = root
					}
				}
			}
		}

		// A ".." is neutralised only when it sits at the end of the
		// working path at this point in the walk. Checking here, once per
		// component and after symlink expansion, keeps ".." handling and
		// symlink expansion in the right order relative to each other.
		if strings.HasSuffix(path, string(filepath.Separator)+"..") {
			path = popPart(path)
		}
	}
	return path
}
