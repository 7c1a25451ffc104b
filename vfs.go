// SPDX-License-Identifier: BSD-3-Clause

// Copyright (C) 2025-2026 SUSE LLC. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package securepath

import (
	"os"
	"path/filepath"
)

// VFS is the set of filesystem queries SecureJoinVFS performs while
// resolving a path: symlink detection, symlink-target reads, existence
// probes, and canonicalisation. An instance of this interface can be
// provided to evaluate the path against filesystem state other than the
// host's, which is mainly useful for testing.
type VFS interface {
	// Lstat returns an os.FileInfo describing the named file. If the
	// file is a symbolic link, the returned FileInfo describes the
	// symbolic link. Lstat makes no attempt to follow the link.
	// The semantics are identical to [os.Lstat].
	Lstat(name string) (os.FileInfo, error)

	// Readlink returns the destination of the named symbolic link.
	// The semantics are identical to [os.Readlink].
	Readlink(name string) (string, error)

	// Stat returns an os.FileInfo describing the named file, following
	// any symbolic links on the way. The semantics are identical to
	// [os.Stat].
	Stat(name string) (os.FileInfo, error)

	// EvalSymlinks returns the path name after the evaluation of any
	// symbolic links: the canonical, symlink-free form of path. The
	// semantics are identical to [filepath.EvalSymlinks].
	EvalSymlinks(path string) (string, error)
}

// osVFS is the "real" filesystem implementation of VFS, as provided by
// the os and path/filepath packages.
type osVFS struct{}

func (o osVFS) Lstat(name string) (os.FileInfo, error) { return os.Lstat(name) }

func (o osVFS) Readlink(name string) (string, error) { return os.Readlink(name) }

func (o osVFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (o osVFS) EvalSymlinks(path string) (string, error) { return filepath.EvalSymlinks(path) }
