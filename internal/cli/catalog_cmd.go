// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// catalog_cmd.go - "catalog" command: FGI country and group tables.

package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jeranaias/markforge/internal/catalog"
)

// RunCatalog dispatches catalog subcommands.
func RunCatalog(args Args) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	overlay := cfg.CatalogOverlayPath()

	switch args.Subcommand {
	case "", "countries":
		return catalogCountries(args, cat)
	case "groups":
		return catalogGroups(args, cat)
	case "shortcuts":
		return catalogShortcuts(args, cat)
	case "validate":
		return catalogValidate(args, overlay)
	case "path":
		fmt.Println(overlay)
		return nil
	default:
		return ErrInvalidValue("subcommand", args.Subcommand,
			"expected countries, groups, shortcuts, validate, or path")
	}
}

func catalogCountries(args Args, cat *catalog.Catalog) error {
	return OutputJSON(args.JSON, "catalog countries", func() (interface{}, error) {
		countries := make([]CatalogCountry, 0, len(cat.Countries))
		for _, c := range cat.Countries {
			countries = append(countries, CatalogCountry{Name: c.Name, Trigraph: c.Trigraph})
		}
		sort.Slice(countries, func(i, j int) bool { return countries[i].Name < countries[j].Name })

		if !args.JSON {
			fmt.Println(TitleStyle.Render("FGI Country Candidates"))
			for _, c := range countries {
				fmt.Printf("  %s %s\n", ValueStyle.Render(fmt.Sprintf("%-28s", c.Name)), DimStyle.Render(c.Trigraph))
			}
			fmt.Println(DimStyle.Render(fmt.Sprintf("\n%d countries", len(countries))))
		}
		return CatalogData{Countries: countries}, nil
	})
}

func catalogGroups(args Args, cat *catalog.Catalog) error {
	return OutputJSON(args.JSON, "catalog groups", func() (interface{}, error) {
		if !args.JSON {
			fmt.Println(TitleStyle.Render("Releasability Groups"))
			names := make([]string, 0, len(cat.Groups))
			for name := range cat.Groups {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %s %s\n", ValueStyle.Render(fmt.Sprintf("%-8s", name)),
					DimStyle.Render(strings.Join(cat.Groups[name], ", ")))
			}
		}
		return CatalogData{Groups: cat.Groups}, nil
	})
}

func catalogShortcuts(args Args, cat *catalog.Catalog) error {
	return OutputJSON(args.JSON, "catalog shortcuts", func() (interface{}, error) {
		if !args.JSON {
			fmt.Println(TitleStyle.Render("REL TO Entry Shortcuts"))
			for _, s := range cat.Shortcuts {
				fmt.Println("  " + ValueStyle.Render(s))
			}
		}
		return CatalogData{Shortcuts: cat.Shortcuts}, nil
	})
}

// catalogValidate checks the overlay file without installing it.
func catalogValidate(args Args, overlay string) error {
	if _, err := os.Stat(overlay); os.IsNotExist(err) {
		if !args.JSON {
			fmt.Printf("%s no overlay at %s; built-in catalog in use\n", RenderStatus("ok"), overlay)
		}
		return nil
	}

	_, err := catalog.Load(overlay)
	return OutputJSON(args.JSON, "catalog validate", func() (interface{}, error) {
		if err != nil {
			if !args.JSON {
				fmt.Printf("%s %v\n", RenderStatus("fail"), err)
			}
			return nil, err
		}
		if !args.JSON {
			fmt.Printf("%s overlay %s is valid\n", RenderStatus("ok"), overlay)
		}
		return CatalogData{Overlay: overlay}, nil
	})
}
