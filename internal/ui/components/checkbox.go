// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/jeranaias/markforge/internal/ui/styles"
)

// CheckboxState describes how one marking control row renders.
type CheckboxState struct {
	Label   string
	Checked bool
	// Enabled mirrors the availability projection; a disabled row cannot
	// be toggled and renders dimmed.
	Enabled bool
	// Forced marks a control the cascade set and the user may not clear
	// (NOFORN under HCS-P, ORCON under SI-G).
	Forced  bool
	Focused bool
}

// RenderCheckbox renders one control row: cursor, box, label.
func RenderCheckbox(t *styles.Theme, s CheckboxState) string {
	box := "[ ]"
	if s.Checked {
		box = "[x]"
	}

	cursor := "  "
	if s.Focused {
		cursor = "> "
	}

	line := cursor + box + " " + s.Label

	switch {
	case s.Focused:
		return t.ControlFocused.Render(line)
	case s.Forced && s.Checked:
		return t.ControlForced.Render(line)
	case !s.Enabled:
		return t.ControlDisabled.Render(line)
	case s.Checked:
		return t.ControlChecked.Render(line)
	default:
		return t.Control.Render(line)
	}
}
