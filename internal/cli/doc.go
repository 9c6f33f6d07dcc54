// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for
// markforge.
//
// Every command routes marking composition through the same constraint
// engine the interactive dialog uses, so no code path can emit an
// illegal marking.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - ArgParser: Unified flag and positional parsing shared by subcommands
//
// # Usage
//
// Parse and execute commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdDialog:
//	    cli.HandleDialog(args)
//	case cli.CmdRender:
//	    cli.HandleRender(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
// Composition:
//   - dialog: Interactive marking dialog (the default command)
//   - render: Compose one marking from flags
//   - aggregate: Roll portion banners up to a document banner
//
// Data management:
//   - catalog: FGI country and releasability group catalog
//   - registry: Stored document registry with encrypted export
//   - audit: Tamper-evident audit trail management
//   - config: Configuration file management
//
// Services:
//   - serve: Loopback HTTP marking service
//   - guide: Marking format reference
//
// All commands support --json for machine-readable output.
package cli
