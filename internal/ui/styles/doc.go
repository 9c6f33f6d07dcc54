// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the lipgloss theme shared by the marking
// dialog and its components. A single Theme value is created at startup
// from the configured theme name and passed down; components never
// construct their own styles.
package styles
