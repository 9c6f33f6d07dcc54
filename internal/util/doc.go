// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the markforge application.
//
// This package contains common helper functions used throughout the
// application for string handling, text normalization of user-entered
// marking fields, path expansion, and crash-safe file writes.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - NormalizeField: Unicode normalization for free-text marking fields
//   - CleanToken: trigraph/recipient token cleanup
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - ExpandPath: home-directory expansion for configured paths
package util
