// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the markforge
// dialog and CLI output.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the marking dialog. It detects
// the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// DIALOG CHROME
	// ==========================================================================

	Title    lipgloss.Style
	Section  lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// ==========================================================================
	// CONTROL ROWS
	// ==========================================================================

	Control         lipgloss.Style
	ControlChecked  lipgloss.Style
	ControlDisabled lipgloss.Style
	ControlFocused  lipgloss.Style
	ControlForced   lipgloss.Style

	// ==========================================================================
	// ENTRY FIELDS
	// ==========================================================================

	InputLabel  lipgloss.Style
	InputText   lipgloss.Style
	InputPrompt lipgloss.Style

	// ==========================================================================
	// PREVIEW PANE
	// ==========================================================================

	PreviewBox   lipgloss.Style
	PreviewLabel lipgloss.Style
	PreviewValue lipgloss.Style

	// ==========================================================================
	// FEEDBACK
	// ==========================================================================

	ErrorText   lipgloss.Style
	SuccessText lipgloss.Style
	DimText     lipgloss.Style
}

// NewTheme creates a theme for the given name ("dark" or "light").
// Unknown names fall back to dark.
func NewTheme(name string) *Theme {
	t := &Theme{
		IsDark:       name != "light",
		ColorProfile: termenv.ColorProfile(),
	}

	fg := lipgloss.Color("252")
	dim := lipgloss.Color("242")
	if !t.IsDark {
		fg = lipgloss.Color("236")
		dim = lipgloss.Color("246")
	}

	t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1)
	t.Section = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).MarginTop(1)
	t.HelpKey = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	t.HelpDesc = lipgloss.NewStyle().Foreground(dim)

	t.Control = lipgloss.NewStyle().Foreground(fg)
	t.ControlChecked = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	t.ControlDisabled = lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Strikethrough(false)
	t.ControlFocused = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	t.ControlForced = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	t.InputLabel = lipgloss.NewStyle().Foreground(dim).Width(16)
	t.InputText = lipgloss.NewStyle().Foreground(fg)
	t.InputPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	t.PreviewBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		MarginTop(1)
	t.PreviewLabel = lipgloss.NewStyle().Foreground(dim).Width(9)
	t.PreviewValue = lipgloss.NewStyle().Foreground(fg).Bold(true)

	t.ErrorText = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	t.SuccessText = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	t.DimText = lipgloss.NewStyle().Foreground(dim)

	return t
}

// SetSize updates the theme's layout dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
