// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// markforge.
//
// Supports both TOML and JSON configuration formats, with sensible
// defaults, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.markforge/config.toml
//   - ~/.markforge/config.json
//   - Built-in defaults
//
// Environment overrides use the MARKFORGE_ prefix and win over file
// values. Config files are held at 0600: they name the audit log and
// registry locations, and a looser mode would let another local user
// redirect them.
package config
