// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

// Copyright (C) 2025-2026 SUSE LLC. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package securepath

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrPossibleBreakout is returned by CheckInRoot when the kernel reports
// that a path refers to a location outside the root it was meant to be
// contained in.
var ErrPossibleBreakout = errors.New("possible breakout detected")

var errUnsafeProcfs = errors.New("unsafe procfs detected")

// The kernel guarantees that a procfs mount has an f_type of
// PROC_SUPER_MAGIC.
const procSuperMagic = 0x9fa0

var (
	procSelfFdHandle *os.File
	procSelfFdError  error
	procSelfFdOnce   sync.Once
)

func getProcSelfFd() (*os.File, error) {
	procSelfFdOnce.Do(func() {
		procSelfFdHandle, procSelfFdError = openProcSelfFd()
	})
	return procSelfFdHandle, procSelfFdError
}

func openProcSelfFd() (*os.File, error) {
	handle, err := os.OpenFile("/proc/self/fd", unix.O_PATH|unix.O_NOFOLLOW|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	// We can't detect bind-mounts of different parts of procfs on top of
	// /proc, but we can at least be sure that we aren't reading fd links
	// from the wrong filesystem here.
	var statfs unix.Statfs_t
	if err := unix.Fstatfs(int(handle.Fd()), &statfs); err != nil {
		handle.Close()
		return nil, &os.PathError{Op: "fstatfs", Path: handle.Name(), Err: err}
	}
	if statfs.Type != procSuperMagic {
		handle.Close()
		return nil, fmt.Errorf("%w: incorrect /proc/self/fd filesystem type 0x%x", errUnsafeProcfs, statfs.Type)
	}
	return handle, nil
}

// procSelfFdReadlink returns the path the kernel says the given handle
// refers to, by reading the /proc/self/fd/<n> magic link.
//
// NOTE: It is possible for an attacker to bind-mount on top of the
// /proc/self/fd/... symlink, and there is currently no way for us to
// detect this. So we just have to assume that hasn't happened...
func procSelfFdReadlink(f *os.File) (string, error) {
	procSelfFd, err := getProcSelfFd()
	if err != nil {
		return "", fmt.Errorf("get safe procfs handle: %w", err)
	}
	// readlinkat(</proc/self/fd>, "42")
	fdName := strconv.Itoa(int(f.Fd()))
	size := 4096
	for {
		linkBuf := make([]byte, size)
		n, err := unix.Readlinkat(int(procSelfFd.Fd()), fdName, linkBuf)
		if err != nil {
			return "", &os.PathError{Op: "readlinkat", Path: "/proc/self/fd/" + fdName, Err: err}
		}
		if n != size {
			return string(linkBuf[:n]), nil
		}
		// Possible truncation, resize the buffer.
		size *= 2
	}
}

// CheckInRoot verifies that path refers to a real filesystem location
// still inside root, using the kernel's view of the path rather than the
// lexical one: path is opened with O_PATH and procfs is asked which
// location the resulting handle actually refers to.
//
// SecureJoin's output is a best-effort string. CheckInRoot is the
// follow-up for callers that want the filesystem's word on it before use.
// It returns an error wrapping [ErrPossibleBreakout] if the
// kernel-reported path falls outside root, and the underlying open error
// if path cannot be opened at all (in particular, paths with nonexistent
// components cannot be verified). The handle used for verification is
// closed before returning.
func CheckInRoot(root, path string) error {
	handle, err := os.OpenFile(path, unix.O_PATH|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer handle.Close()

	actualPath, err := procSelfFdReadlink(handle)
	if err != nil {
		return fmt.Errorf("verify actual path of %q handle: %w", path, err)
	}
	if !isLexicallyInRoot(root, actualPath) {
		return fmt.Errorf("%w: handle path %q is outside root %q", ErrPossibleBreakout, actualPath, root)
	}
	return nil
}
