// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render_cmd.go - "render" command: compose one marking from flags.
//
// The flags drive the same constraint engine as the dialog, so a flag
// combination the engine forbids fails with the toggle that broke it
// instead of emitting an illegal marking.

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/markforge/internal/marking"
	"github.com/jeranaias/markforge/internal/server"
	"github.com/jeranaias/markforge/internal/util"
)

// RunRender renders a marking from --level/--sci/--control/... flags.
func RunRender(args Args) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := openCatalog(cfg)
	if err != nil {
		return err
	}

	req, err := renderRequestFromOptions(args.Options, cat.NameIndex())
	if err != nil {
		return err
	}

	sel, err := server.BuildSelection(req)
	if err != nil {
		return err
	}

	asm := marking.NewAssembler(cat.TrigraphIndex(), cat.Groups)
	rendered, err := asm.Render(sel)
	if err != nil {
		return err
	}

	if logger, aerr := openAudit(cfg); aerr == nil {
		logger.LogRender(rendered.BannerMarking)
		logger.Close()
	} else if args.Verbose {
		warnStderr("audit trail unavailable: %v", aerr)
	}

	return OutputJSON(args.JSON, "render", func() (interface{}, error) {
		if !args.JSON {
			printMarking(rendered, args)
		}
		return renderData(rendered), nil
	})
}

// renderRequestFromOptions maps CLI options onto a render request. FGI
// entries given as trigraphs resolve to catalog names so the rendered
// block matches the catalog table.
func renderRequestFromOptions(opts map[string]string, nameIndex map[string]string) (server.RenderRequest, error) {
	req := server.RenderRequest{
		Level:        opts["level"],
		Exercise:     opts["exercise"] == "true",
		DerivedFrom:  opts["derived-from"],
		DeclassifyOn: opts["declass-on"],
	}
	if req.DerivedFrom == "" {
		req.DerivedFrom = opts["derived_from"]
	}
	if req.DeclassifyOn == "" {
		req.DeclassifyOn = opts["declass_on"]
	}

	req.Caveats = splitList(opts["sci"])
	req.Controls = splitList(opts["control"])
	req.RelTo = splitList(opts["rel-to"])
	if len(req.RelTo) == 0 {
		req.RelTo = splitList(opts["rel_to"])
	}

	for _, entry := range splitList(opts["fgi"]) {
		if name, ok := nameIndex[strings.ToUpper(entry)]; ok {
			entry = name
		}
		req.FGI = append(req.FGI, entry)
	}

	if req.Level == "" && !req.Exercise {
		return req, ErrMissingArgument("--level",
			"markforge render --level S --control NOFORN --derived-from SCG-7 --declass-on 20501231")
	}
	return req, nil
}

// splitList splits a comma-separated flag value into trimmed tokens.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := util.NormalizeField(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// printMarking writes the rendered marking in display form.
func printMarking(m marking.FinalizedMarking, args Args) {
	if args.Quiet {
		fmt.Println(m.BannerMarking)
		return
	}
	fmt.Println(RenderLabel("Portion") + MarkingStyle.Render(m.PortionMarking))
	fmt.Println(RenderLabel("Banner") + MarkingStyle.Render(m.BannerMarking))
	if m.DerivedFrom != "" {
		fmt.Println(RenderLabel("Derived From") + ValueStyle.Render(m.DerivedFrom))
	}
	if m.DeclassifyOn != "" {
		fmt.Println(RenderLabel("Declassify On") + ValueStyle.Render(m.DeclassifyOn))
	}
}
