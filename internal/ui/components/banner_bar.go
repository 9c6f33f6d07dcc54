// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual components for the markforge
// marking dialog.
//
// Banner bar per DoDI 5200.48: the page-level classification line shown
// at the top (and bottom) of every marked artifact.

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/markforge/internal/marking"
)

// BannerBar displays a banner marking as a full-width colored line, the
// way marked documents carry their page banner.
type BannerBar struct {
	level  marking.Level
	banner string
	width  int
}

// NewBannerBar creates a banner bar for the given level and banner text.
// An empty banner renders the bare level name.
func NewBannerBar(level marking.Level, banner string) *BannerBar {
	if banner == "" {
		banner = level.String()
	}
	return &BannerBar{level: level, banner: banner, width: 80}
}

// SetWidth updates the bar width for full-width rendering.
func (b *BannerBar) SetWidth(width int) {
	if width > 0 {
		b.width = width
	}
}

// SetMarking updates the displayed level and banner text together.
func (b *BannerBar) SetMarking(level marking.Level, banner string) {
	b.level = level
	if banner == "" {
		banner = level.String()
	}
	b.banner = banner
}

// Level returns the level driving the bar color.
func (b *BannerBar) Level() marking.Level {
	return b.level
}

// Height returns the height of the bar (always 1 line).
func (b *BannerBar) Height() int {
	return 1
}

// View renders the banner centered on a full-width bar in the standard
// color for the level (green/blue/red/orange).
func (b *BannerBar) View() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("255")).
		Background(b.level.Color()).
		Bold(true)

	text := b.banner
	// Width-aware truncation for narrow terminals; the banner text wins
	// over padding.
	if tw := runewidth.StringWidth(text); tw > b.width {
		text = runewidth.Truncate(text, b.width, "…")
	}

	return style.
		Width(b.width).
		MaxWidth(b.width).
		Align(lipgloss.Center).
		Render(text)
}

// ViewPlain renders the banner centered between "=" fills without color,
// for non-TTY output.
func (b *BannerBar) ViewPlain() string {
	text := " " + b.banner + " "
	fill := b.width - runewidth.StringWidth(text)
	if fill < 4 {
		fill = 4
	}
	left := fill / 2
	right := fill - left
	return strings.Repeat("=", left) + text + strings.Repeat("=", right)
}
