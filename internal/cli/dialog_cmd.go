// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// dialog_cmd.go - default command: run the interactive marking dialog
// and print the finalized marking.

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/markforge/internal/ui/dialog"
	"github.com/jeranaias/markforge/internal/ui/styles"
)

// RunDialog runs the marking dialog and prints the result.
func RunDialog(args Args) error {
	if err := RequiresTTY("compose a marking"); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := openCatalog(cfg)
	if err != nil {
		return err
	}

	themeName := cfg.UI.Theme
	if args.Theme != "" {
		themeName = args.Theme
	}
	theme := styles.NewTheme(themeName)

	model := dialog.New(theme, cat, cfg.UI.ShowPreview && !cfg.UI.CompactMode)
	program := tea.NewProgram(model, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return NewCommandError("dialog", "run", "terminal UI failed", err)
	}

	m, ok := final.(*dialog.Model)
	if !ok {
		return fmt.Errorf("unexpected model type from dialog")
	}
	if m.Canceled() {
		return nil
	}
	rendered, ok := m.Result()
	if !ok {
		return nil
	}

	if logger, aerr := openAudit(cfg); aerr == nil {
		logger.LogRender(rendered.BannerMarking)
		logger.Close()
	} else if args.Verbose {
		warnStderr("audit trail unavailable: %v", aerr)
	}

	if args.JSON {
		return NewJSONResponse("dialog", renderData(rendered)).Print()
	}
	printMarking(rendered, args)
	return nil
}

// HandleDialog handles the default (dialog) command.
func HandleDialog(args Args) {
	if err := RunDialog(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}
