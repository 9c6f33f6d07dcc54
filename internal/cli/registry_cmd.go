// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// registry_cmd.go - "registry" command: stored marked documents.

package cli

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/jeranaias/markforge/internal/catalog"
	"github.com/jeranaias/markforge/internal/config"
	"github.com/jeranaias/markforge/internal/export"
	"github.com/jeranaias/markforge/internal/marking"
	"github.com/jeranaias/markforge/internal/registry"
	"github.com/jeranaias/markforge/internal/server"
)

// RunRegistry dispatches registry subcommands.
func RunRegistry(args Args) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg, cat)
	if err != nil {
		return err
	}
	defer reg.Close()

	switch args.Subcommand {
	case "", "list", "ls":
		return registryList(args, reg)
	case "show":
		return registryShow(args, reg)
	case "create":
		return registryCreate(args, reg)
	case "save":
		return registrySave(args, cfg, cat, reg)
	case "banner":
		return registryBanner(args, cfg, reg)
	case "delete", "rm":
		return registryDelete(args, cfg, reg)
	case "export":
		return registryExport(args, cfg, reg)
	case "import":
		return registryImport(args, cfg, reg)
	case "stats":
		return registryStats(args, reg)
	default:
		return ErrInvalidValue("subcommand", args.Subcommand,
			"expected list, show, create, save, banner, delete, export, import, or stats")
	}
}

func registryList(args Args, reg *registry.Registry) error {
	docs, err := reg.ListDocuments()
	if err != nil {
		return err
	}
	return OutputJSON(args.JSON, "registry list", func() (interface{}, error) {
		if !args.JSON {
			if len(docs) == 0 {
				fmt.Println(DimStyle.Render("no documents"))
				return nil, nil
			}
			fmt.Println(TitleStyle.Render("Documents"))
			for _, d := range docs {
				fmt.Printf("  %s %s %s\n",
					DimStyle.Render(shortID(d.ID)),
					ValueStyle.Render(fmt.Sprintf("%-32s", d.Title)),
					DimStyle.Render(fmt.Sprintf("%d portions", d.Portions)))
			}
		}
		return RegistryListData{Documents: docs}, nil
	})
}

func registryShow(args Args, reg *registry.Registry) error {
	id := strings.Fields(args.Query)
	if len(id) == 0 {
		return ErrMissingArgument("id", "markforge registry show <document-id>")
	}
	doc, err := resolveDocument(reg, id[0])
	if err != nil {
		return err
	}
	portions, err := reg.ListPortions(doc.ID)
	if err != nil {
		return err
	}

	return OutputJSON(args.JSON, "registry show", func() (interface{}, error) {
		if !args.JSON {
			fmt.Println(TitleStyle.Render(doc.Title))
			fmt.Println(RenderLabel("ID") + DimStyle.Render(doc.ID))
			fmt.Println(RenderLabel("Created") + ValueStyle.Render(doc.CreatedAt.Format("2006-01-02 15:04")))
			fmt.Println(SectionStyle.Render("Portions"))
			for _, p := range portions {
				fmt.Printf("  %2d. %s  %s\n", p.Seq,
					MarkingStyle.Render(p.Marking.PortionMarking),
					DimStyle.Render(p.Marking.BannerMarking))
			}
		}
		return DocumentData{Document: doc, Portions: portions}, nil
	})
}

func registryCreate(args Args, reg *registry.Registry) error {
	title := strings.TrimSpace(args.Query)
	if title == "" {
		return ErrMissingArgument("title", `markforge registry create "OPLAN Annex C"`)
	}
	doc, err := reg.CreateDocument(title)
	if err != nil {
		return err
	}
	return OutputJSON(args.JSON, "registry create", func() (interface{}, error) {
		if !args.JSON {
			fmt.Printf("%s created document %s\n", RenderStatus("ok"), doc.ID)
		}
		return DocumentData{Document: doc}, nil
	})
}

// registrySave renders a marking from the same flags as the render
// command and appends it to a document.
func registrySave(args Args, cfg *config.Config, cat *catalog.Catalog, reg *registry.Registry) error {
	id := strings.Fields(args.Query)
	if len(id) == 0 {
		return ErrMissingArgument("id", "markforge registry save <document-id> --level S --control NOFORN ...")
	}
	doc, err := resolveDocument(reg, id[0])
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

	portion, err := reg.AddPortion(doc.ID, rendered)
	if err != nil {
		return err
	}

	if logger, aerr := openAudit(cfg); aerr == nil {
		logger.LogRegistrySave(doc.ID, rendered.BannerMarking)
		logger.Close()
	}

	return OutputJSON(args.JSON, "registry save", func() (interface{}, error) {
		if !args.JSON {
			fmt.Printf("%s portion %d: %s\n", RenderStatus("ok"), portion.Seq,
				MarkingStyle.Render(rendered.PortionMarking))
		}
		return portion, nil
	})
}

func registryBanner(args Args, cfg *config.Config, reg *registry.Registry) error {
	id := strings.Fields(args.Query)
	if len(id) == 0 {
		return ErrMissingArgument("id", "markforge registry banner <document-id>")
	}
	doc, err := resolveDocument(reg, id[0])
	if err != nil {
		return err
	}
	banner, err := reg.DocumentBanner(doc.ID)
	if err != nil {
		return err
	}

	if logger, aerr := openAudit(cfg); aerr == nil {
		logger.LogAggregate(banner, doc.Portions)
		logger.Close()
	}

	return OutputJSON(args.JSON, "registry banner", func() (interface{}, error) {
		if !args.JSON {
			if args.Quiet {
				fmt.Println(banner)
			} else {
				fmt.Println(RenderLabel("Document") + ValueStyle.Render(doc.Title))
				fmt.Println(RenderLabel("Banner") + MarkingStyle.Render(banner))
			}
		}
		return DocumentData{Document: doc, Banner: banner}, nil
	})
}

func registryDelete(args Args, cfg *config.Config, reg *registry.Registry) error {
	id := strings.Fields(args.Query)
	if len(id) == 0 {
		return ErrMissingArgument("id", "markforge registry delete <document-id> --confirm")
	}
	if args.Options["confirm"] != "true" {
		return ErrInvalidValue("--confirm", "", "deletion requires the --confirm flag")
	}
	doc, err := resolveDocument(reg, id[0])
	if err != nil {
		return err
	}
	if err := reg.DeleteDocument(doc.ID); err != nil {
		return err
	}

	if logger, aerr := openAudit(cfg); aerr == nil {
		logger.LogRegistryDelete(doc.ID)
		logger.Close()
	}

	if !args.JSON {
		fmt.Printf("%s deleted document %s\n", RenderStatus("ok"), doc.ID)
	}
	return nil
}

func registryExport(args Args, cfg *config.Config, reg *registry.Registry) error {
	path := strings.TrimSpace(args.Query)
	if path == "" {
		return ErrMissingArgument("file", "markforge registry export backup.mfx")
	}
	passphrase, err := readPassphrase("Export passphrase: ", true)
	if err != nil {
		return err
	}

	archive, err := export.ExportRegistry(reg, path, passphrase, cfg.Export.PBKDF2Iterations)
	if err != nil {
		return err
	}
	if !args.JSON {
		fmt.Printf("%s exported %d documents (%d portions) to %s\n",
			RenderStatus("ok"), len(archive.Documents), archivePortions(archive), path)
	}
	return nil
}

func registryImport(args Args, cfg *config.Config, reg *registry.Registry) error {
	path := strings.TrimSpace(args.Query)
	if path == "" {
		return ErrMissingArgument("file", "markforge registry import backup.mfx")
	}
	passphrase, err := readPassphrase("Import passphrase: ", false)
	if err != nil {
		return err
	}

	docs, portions, err := export.ImportRegistry(reg, path, passphrase)
	if err != nil {
		return err
	}

	if logger, aerr := openAudit(cfg); aerr == nil {
		logger.LogRegistrySave("import", fmt.Sprintf("%d documents", docs))
		logger.Close()
	}

	if !args.JSON {
		fmt.Printf("%s imported %d documents (%d portions) from %s\n",
			RenderStatus("ok"), docs, portions, path)
	}
	return nil
}

func registryStats(args Args, reg *registry.Registry) error {
	stats, err := reg.Stats()
	if err != nil {
		return err
	}
	return OutputJSON(args.JSON, "registry stats", func() (interface{}, error) {
		if !args.JSON {
			fmt.Println(RenderLabel("Documents") + ValueStyle.Render(fmt.Sprintf("%d", stats.Documents)))
			fmt.Println(RenderLabel("Portions") + ValueStyle.Render(fmt.Sprintf("%d", stats.Portions)))
		}
		return stats, nil
	})
}

// resolveDocument finds a document by full ID or unique ID prefix.
func resolveDocument(reg *registry.Registry, id string) (registry.Document, error) {
	doc, err := reg.GetDocument(id)
	if err == nil {
		return doc, nil
	}

	docs, lerr := reg.ListDocuments()
	if lerr != nil {
		return registry.Document{}, lerr
	}
	var matches []registry.Document
	for _, d := range docs {
		if strings.HasPrefix(d.ID, id) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return registry.Document{}, ErrNotFound("document", id)
	default:
		return registry.Document{}, ErrInvalidValue("id", id, "prefix matches multiple documents")
	}
}

// shortID truncates a UUID for listing output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// archivePortions counts portions across an archive.
func archivePortions(a *export.Archive) int {
	n := 0
	for _, d := range a.Documents {
		n += len(d.Portions)
	}
	return n
}

// readPassphrase prompts for a passphrase without echo. When confirm is
// set the passphrase is read twice and must match.
func readPassphrase(prompt string, confirm bool) (string, error) {
	if err := RequiresTTY("read a passphrase"); err != nil {
		return "", err
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", WrapError(err, "failed to read passphrase")
	}
	if len(raw) == 0 {
		return "", ErrInvalidValue("passphrase", "", "passphrase must not be empty")
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		again, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", WrapError(err, "failed to read passphrase")
		}
		if string(raw) != string(again) {
			return "", ErrInvalidValue("passphrase", "", "passphrases do not match")
		}
	}
	return string(raw), nil
}
