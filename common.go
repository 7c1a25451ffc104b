// SPDX-License-Identifier: BSD-3-Clause

// Copyright (C) 2025-2026 SUSE LLC. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package securepath

import (
	"errors"
	"os"
	"strings"
	"syscall"
)

// IsNotExist tells you if err is an error that implies that either the
// path accessed does not exist (or path components don't exist). This is
// effectively a more broad version of [os.IsNotExist].
func IsNotExist(err error) bool {
	// Check that it's not actually an ENOTDIR, which in some cases is a more
	// convoluted case of ENOENT (usually involving weird paths).
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) || errors.Is(err, syscall.ENOENT)
}

// isLexicallyInRoot reports whether root is a component-wise prefix of
// path. An empty root behaves like "/", so every absolute path is inside
// it.
func isLexicallyInRoot(root, path string) bool {
	if root != "/" {
		root += "/"
	}
	if path != "/" {
		path += "/"
	}
	return strings.HasPrefix(path, root)
}
