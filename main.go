// markforge - classification marking composition for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"github.com/jeranaias/markforge/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.4.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdDialog:
		cli.HandleDialog(args)
	case cli.CmdRender:
		cli.HandleRender(args)
	case cli.CmdAggregate:
		cli.HandleAggregate(args)
	case cli.CmdCatalog:
		cli.HandleCatalog(args)
	case cli.CmdRegistry:
		cli.HandleRegistry(args)
	case cli.CmdServe:
		cli.HandleServe(args)
	case cli.CmdAudit:
		cli.HandleAudit(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdGuide:
		cli.HandleGuide(args)
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		cli.HandleHelp()
	}
}
