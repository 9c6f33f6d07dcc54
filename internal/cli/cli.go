// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for markforge.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.4.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdDialog Command = iota // interactive marking dialog (default)
	CmdRender
	CmdAggregate
	CmdCatalog
	CmdRegistry
	CmdServe
	CmdAudit
	CmdConfig
	CmdGuide
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool // Output in JSON format
	Plain   bool // Force plain output (no color, no box drawing)
	Theme   string

	// Command-specific
	Subcommand string
	Query      string

	// Raw args (remaining after flag parsing)
	Raw []string

	// Options holds command-specific named options (e.g., --level, --format)
	Options map[string]string
}

const usageText = `markforge - classification marking composition

Markforge composes DoDM 5200.01 Volume 2 portion and banner markings.
Toggles route through a constraint engine so an illegal combination can
never be rendered; the interactive dialog only offers fields that are
legal for the current selection.

Usage:
  markforge                       Start the interactive marking dialog
  markforge render [flags]        Render one marking from flags
  markforge aggregate [banners]   Roll portion banners up to a document banner
  markforge catalog [subcommand]  FGI country and group catalog
  markforge registry [subcommand] Stored document registry
  markforge serve                 Local HTTP marking service
  markforge audit [subcommand]    Audit trail management
  markforge config [subcommand]   Configuration
  markforge guide                 Marking format reference

Render Flags:
  --level LEVEL          Classification level (TS, S, C, U or full name)
  --sci LIST             SCI caveats, comma separated (HCS-P, SI, SI-G, TK)
  --control LIST         Dissemination controls (NOFORN, ORCON, RSEN, ...)
  --rel-to LIST          REL TO recipients ("USA, FVEY"); implies REL TO
  --fgi LIST             FGI countries by name or trigraph
  --derived-from TEXT    Derived-from source line
  --declass-on TEXT      Declassification instruction
  --exercise             Render the exercise banner

Aggregate Commands:
  markforge aggregate "(S//NF)" "(C//REL TO USA, CAN)"
  markforge aggregate --stdin          Read one banner per line from stdin
  markforge aggregate --interactive    Prompt for banners with completion

Catalog Commands:
  markforge catalog countries          List FGI country candidates
  markforge catalog groups             List releasability group expansions
  markforge catalog shortcuts          List REL TO entry shortcuts
  markforge catalog validate           Validate the overlay file

Registry Commands:
  markforge registry list              List stored documents
  markforge registry show <id>         Show a document and its portions
  markforge registry create <title>    Create a document
  markforge registry save <id> [render flags]
                                       Render a marking and store it
  markforge registry banner <id>       Aggregate a document's banner
  markforge registry delete <id> --confirm
  markforge registry export <file>     Encrypted registry export
  markforge registry import <file>     Restore an encrypted export
  markforge registry stats             Registry statistics

Serve Flags:
  --host HOST            Bind host (loopback only; default 127.0.0.1)
  --port N               Bind port (default 8247)

Audit Commands:
  markforge audit show [--lines N]     Show recent audit events
  markforge audit verify               Verify the HMAC event chain
  markforge audit key init             Generate the chain key
  markforge audit rotate               Rotate the trail file

Config Commands:
  markforge config show                Show effective configuration
  markforge config set <key> <value>   Set a configuration key
  markforge config init                Write the default config file
  markforge config path                Print the config file path

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --json          Output in JSON format
  --plain         Plain output (no color)
  --theme NAME    Dialog theme (dark, light)

Examples:
  markforge                                 Interactive dialog
  markforge render --level S --control NOFORN \
      --derived-from SCG-7 --declass-on 20501231
  markforge render --level TS --sci SI,TK --rel-to "USA, FVEY" \
      --derived-from "USSID 18" --declass-on 25X1
  markforge aggregate "(TS//SI//NF)" "(S//REL TO USA, GBR)"
  markforge catalog countries
  markforge serve --port 8247

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("markforge version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given argument list. Split out from Parse for tests.
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdDialog, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "dialog", "mark":
		return CmdDialog, parsedArgs

	case "render":
		parseOptionArgs(&parsedArgs, remaining)
		return CmdRender, parsedArgs

	case "aggregate", "agg", "rollup":
		parseAggregateArgs(&parsedArgs, remaining)
		return CmdAggregate, parsedArgs

	case "catalog", "countries":
		parseSubcommandArgs(&parsedArgs, remaining)
		return CmdCatalog, parsedArgs

	case "registry", "reg", "documents":
		parseRegistryArgs(&parsedArgs, remaining)
		return CmdRegistry, parsedArgs

	case "serve", "server":
		parseOptionArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs

	case "audit":
		parseSubcommandArgs(&parsedArgs, remaining)
		return CmdAudit, parsedArgs

	case "config":
		parseSubcommandArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "guide", "reference":
		return CmdGuide, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command: treat the whole line as portion banners for
		// aggregation when it looks like one, otherwise show help.
		if strings.HasPrefix(cmd, "(") {
			parsedArgs.Raw = append([]string{remaining0(args, cmd)}, remaining...)
			parseAggregateArgs(&parsedArgs, parsedArgs.Raw)
			return CmdAggregate, parsedArgs
		}
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdHelp, parsedArgs
	}
}

// remaining0 recovers the original (case-preserved) spelling of the first
// remaining argument; banner text is case-significant.
func remaining0(args []string, lowered string) string {
	for _, a := range args {
		if strings.ToLower(a) == lowered {
			return a
		}
	}
	return lowered
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{
		Options: make(map[string]string),
	}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--plain", "--no-color":
			parsedArgs.Plain = true
		case "--theme":
			if i+1 < len(args) {
				i++
				parsedArgs.Theme = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--theme=") {
				parsedArgs.Theme = strings.TrimPrefix(arg, "--theme=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseSubcommandArgs captures the first positional as the subcommand and
// scans the rest for named options.
func parseSubcommandArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = p.Positional(0)
	args.Options = p.Options(args.Options)
	args.Query = strings.Join(p.Positionals()[1:], " ")
}

// parseOptionArgs scans all arguments as named options (render, serve).
func parseOptionArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Options = p.Options(args.Options)
}

// parseAggregateArgs collects positional banner strings and named options.
func parseAggregateArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Options = p.Options(args.Options)
	args.Raw = p.Positionals()
}

// parseRegistryArgs captures subcommand, document id, and render options.
func parseRegistryArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = p.Positional(0)
	args.Query = p.Positional(1)
	args.Options = p.Options(args.Options)
	if rest := p.Positionals(); len(rest) > 2 {
		args.Query = strings.Join(rest[1:], " ")
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleRender handles the "render" command.
func HandleRender(args Args) {
	if err := RunRender(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// HandleAggregate handles the "aggregate" command.
func HandleAggregate(args Args) {
	if err := RunAggregate(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// HandleCatalog handles the "catalog" command.
func HandleCatalog(args Args) {
	if err := RunCatalog(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// HandleRegistry handles the "registry" command.
func HandleRegistry(args Args) {
	if err := RunRegistry(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// HandleServe handles the "serve" command.
func HandleServe(args Args) {
	if err := RunServe(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// HandleAudit handles the "audit" command.
func HandleAudit(args Args) {
	if err := RunAudit(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	if err := RunConfig(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// HandleGuide handles the "guide" command.
func HandleGuide(args Args) {
	if err := RunGuide(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		resp := NewJSONResponse("version", data)
		resp.Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
