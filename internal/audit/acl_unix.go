//go:build !windows
// +build !windows

// acl_unix.go - Unix stub for Windows ACL verification
//
// On Unix the key file is checked with standard mode bits in key.go. This
// stub only satisfies the compiler on non-Windows platforms.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

// verifyWindowsACL must never be called on Unix; the runtime.GOOS check in
// checkKeyFilePermissions routes around it.
func verifyWindowsACL(path string) error {
	panic("verifyWindowsACL called on non-Windows platform")
}
