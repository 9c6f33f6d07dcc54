// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual components the marking dialog
// composes: the level-colored banner bar, control checkbox rows, and
// the live portion/banner preview pane. Components are pure view code;
// all marking state lives in the dialog model and the engine.
package components
