// SPDX-License-Identifier: BSD-3-Clause

// Copyright (C) 2025-2026 SUSE LLC. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testutils provides some internal helpers for tests.
package testutils

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestingT is an interface wrapper around *testing.T.
type TestingT interface {
	assert.TestingT
	require.TestingT

	TempDir() string
	Fatalf(format string, args ...any)
	Skip(args ...any)
}
