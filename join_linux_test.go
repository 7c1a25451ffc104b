// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

// Copyright (C) 2025-2026 SUSE LLC. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package securepath

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/containerpath/securepath/internal/testutils"
)

// tempRoot returns a canonical temporary directory, so that expected
// paths can be compared byte-for-byte against resolution output.
func tempRoot(t *testing.T) string {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return root
}

// A relative symlink whose target climbs above the root collapses
// resolution back to exactly the root.
func TestSymlinkRelativeEscapeClamped(t *testing.T) {
	root := tempRoot(t)
	testutils.Symlink(t, "../../../", filepath.Join(root, "1"))

	assert.Equal(t, root, SecureJoin(root, "1"))
}

// An absolute symlink target is re-anchored under root by raw prefixing,
// with no existence check on the result.
func TestSymlinkAbsoluteNonexistentTarget(t *testing.T) {
	root := tempRoot(t)
	testutils.Symlink(t, "/dddd", filepath.Join(root, "2"))

	assert.Equal(t, root+"/dddd", SecureJoin(root, "2"))
}

// An absolute symlink to "/" yields the root with a trailing separator,
// the verbatim concatenation of the two strings.
func TestSymlinkAbsoluteRootTarget(t *testing.T) {
	root := tempRoot(t)
	testutils.Symlink(t, "/", filepath.Join(root, "3"))

	assert.Equal(t, root+"/", SecureJoin(root, "3"))
}

func TestSymlinkChainInsideRoot(t *testing.T) {
	root := tempRoot(t)
	testutils.MkdirAll(t, filepath.Join(root, "b"), 0o755)
	testutils.Symlink(t, "b", filepath.Join(root, "a"))

	assert.Equal(t, filepath.Join(root, "b", "x"), SecureJoin(root, "a/x"))
}

// Sub-components of a relative target that don't exist are kept as
// lexical segments.
func TestSymlinkTargetPartiallyExists(t *testing.T) {
	root := tempRoot(t)
	testutils.Symlink(t, "missing/deep", filepath.Join(root, "n"))

	assert.Equal(t, filepath.Join(root, "missing", "deep"), SecureJoin(root, "n"))
}

// A relative target whose ".." stays inside root is resolved through
// canonicalisation, not clamping.
func TestSymlinkDotDotCanonicalised(t *testing.T) {
	root := tempRoot(t)
	testutils.MkdirAll(t, filepath.Join(root, "sub"), 0o755)
	testutils.Symlink(t, "sub/..", filepath.Join(root, "s"))

	assert.Equal(t, root, SecureJoin(root, "s"))
}

// Literal ".." components following an escaping symlink still can't climb
// above root: the clamp leaves the working path at root and the ".." is
// dropped, not applied.
func TestSymlinkEscapeThenDotDot(t *testing.T) {
	root := tempRoot(t)
	testutils.Symlink(t, "../../../", filepath.Join(root, "1"))

	assert.Equal(t, filepath.Join(root, "c"), SecureJoin(root, "1/../c"))
}

// A symlink pointing at itself can never be resolved, so it is kept as a
// lexical segment.
func TestSymlinkSelfLoop(t *testing.T) {
	root := tempRoot(t)
	testutils.Symlink(t, "loop", filepath.Join(root, "loop"))

	assert.Equal(t, filepath.Join(root, "loop"), SecureJoin(root, "loop"))
}

// Resolving through a symlinked directory keeps later components anchored
// at the canonical location.
func TestSymlinkDirectoryTraversal(t *testing.T) {
	root := tempRoot(t)
	testutils.MkdirAll(t, filepath.Join(root, "etc"), 0o755)
	testutils.WriteFile(t, filepath.Join(root, "etc", "passwd"), []byte("data"), 0o644)
	testutils.Symlink(t, "etc", filepath.Join(root, "conf"))

	assert.Equal(t, filepath.Join(root, "etc", "passwd"), SecureJoin(root, "conf/passwd"))
}
