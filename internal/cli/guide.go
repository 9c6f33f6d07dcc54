// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// guide.go - "guide" command: marking format reference rendered to the
// terminal. The text ships embedded so the reference works offline.

package cli

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/glamour"
)

//go:embed guide.md
var guideText string

// RunGuide prints the marking format reference.
func RunGuide(args Args) error {
	if args.Plain || !IsStdoutTTY() {
		fmt.Print(guideText)
		return nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		fmt.Print(guideText)
		return nil
	}

	rendered, err := renderer.Render(guideText)
	if err != nil {
		fmt.Print(guideText)
		return nil
	}
	fmt.Print(rendered)
	return nil
}
