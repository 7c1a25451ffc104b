// SPDX-License-Identifier: BSD-3-Clause

// Copyright (C) 2025-2026 SUSE LLC. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package testutils

import (
	"os"

	"github.com/stretchr/testify/require"
)

// Symlink is a wrapper around os.Symlink.
func Symlink(t TestingT, oldname, newname string) {
	err := os.Symlink(oldname, newname)
	require.NoError(t, err)
}

// MkdirAll is a wrapper around os.MkdirAll.
func MkdirAll(t TestingT, path string, mode os.FileMode) { //nolint:unparam // wrapper func
	err := os.MkdirAll(path, mode)
	require.NoError(t, err)
}

// WriteFile is a wrapper around os.WriteFile.
func WriteFile(t TestingT, path string, data []byte, mode os.FileMode) {
	err := os.WriteFile(path, data, mode)
	require.NoError(t, err)
}
