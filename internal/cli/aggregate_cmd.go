// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// aggregate_cmd.go - "aggregate" command: roll portion banners up to the
// document banner. Banners come from arguments, stdin, or an interactive
// prompt with catalog completion.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/markforge/internal/marking"
)

// RunAggregate aggregates portion markings into a document banner.
func RunAggregate(args Args) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := openCatalog(cfg)
	if err != nil {
		return err
	}

	var banners []string
	switch {
	case args.Options["stdin"] == "true":
		banners, err = readBannersStdin()
	case args.Options["interactive"] == "true":
		banners, err = readBannersInteractive(cat.Names())
	default:
		banners = args.Raw
	}
	if err != nil {
		return err
	}
	if len(banners) == 0 {
		return ErrMissingArgument("markings",
			`markforge aggregate "(S//NF)" "(C//REL TO USA, CAN)"`)
	}

	agg := marking.NewAggregator(cat.Groups)
	banner, err := agg.AggregateBanners(banners)
	if err != nil {
		return err
	}

	if logger, aerr := openAudit(cfg); aerr == nil {
		logger.LogAggregate(banner, len(banners))
		logger.Close()
	} else if args.Verbose {
		warnStderr("audit trail unavailable: %v", aerr)
	}

	return OutputJSON(args.JSON, "aggregate", func() (interface{}, error) {
		if !args.JSON {
			if args.Quiet {
				fmt.Println(banner)
			} else {
				fmt.Println(RenderLabel("Portions") + ValueStyle.Render(fmt.Sprintf("%d", len(banners))))
				fmt.Println(RenderLabel("Banner") + MarkingStyle.Render(banner))
			}
		}
		return AggregateData{Banner: banner, Portions: banners}, nil
	})
}

// readBannersStdin reads one marking per line until EOF, skipping blanks
// and # comments.
func readBannersStdin() ([]string, error) {
	var banners []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		banners = append(banners, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, WrapError(err, "failed to read markings from stdin")
	}
	return banners, nil
}

// readBannersInteractive prompts for markings one per line. Tab completes
// catalog country names inside REL TO tails; an empty line finishes.
func readBannersInteractive(countryNames []string) ([]string, error) {
	if err := RequiresTTY("collect markings"); err != nil {
		return nil, err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	line.SetCompleter(func(input string) []string {
		// Complete the token after the last separator against catalog
		// names and common banner tokens.
		cut := strings.LastIndexAny(input, "/, ")
		prefix, partial := "", input
		if cut >= 0 {
			prefix, partial = input[:cut+1], input[cut+1:]
		}
		if partial == "" {
			return nil
		}
		var out []string
		for _, name := range countryNames {
			if strings.HasPrefix(strings.ToLower(name), strings.ToLower(partial)) {
				out = append(out, prefix+name)
			}
		}
		for _, tok := range []string{"NOFORN", "ORCON", "RELIDO", "RSEN", "FISA", "REL TO USA, ", "FVEY", "ACGU"} {
			if strings.HasPrefix(tok, strings.ToUpper(partial)) {
				out = append(out, prefix+tok)
			}
		}
		return out
	})

	StderrPrintln("Enter one portion or banner marking per line; empty line to aggregate.")
	var banners []string
	for {
		input, err := line.Prompt(fmt.Sprintf("marking %d> ", len(banners)+1))
		if err != nil {
			// Ctrl-C or EOF: aggregate what we have, abort if nothing.
			if len(banners) == 0 {
				return nil, fmt.Errorf("aborted")
			}
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			break
		}
		banners = append(banners, input)
		line.AppendHistory(input)
	}
	return banners, nil
}
