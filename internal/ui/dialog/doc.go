// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dialog implements the interactive marking dialog: a bubbletea
// model that walks the operator through one marking decision. Every
// toggle routes through the constraint engine, navigation skips fields
// the availability projection reports unavailable, and the finalized
// marking is rendered exactly once on confirmation.
package dialog
