// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dialog

import (
	"strings"

	"github.com/jeranaias/markforge/internal/marking"
	"github.com/jeranaias/markforge/internal/ui/components"
)

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.banner.View())
	b.WriteString("\n")
	b.WriteString(m.theme.Title.Render("Mark a Portion"))
	b.WriteString("\n")

	for i, r := range dialogRows {
		if r.section != "" {
			b.WriteString(m.theme.Section.Render(r.section))
			b.WriteString("\n")
		}
		b.WriteString(m.renderRow(i, r))
		b.WriteString("\n")
		if r.kind == rowFGIEntry {
			b.WriteString(m.renderFGIList())
		}
	}

	if m.showPreview {
		b.WriteString(m.preview.View(m.theme))
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString(m.theme.ErrorText.Render("! " + m.errMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpLine())
	return b.String()
}

// renderRow draws one navigable line.
func (m *Model) renderRow(i int, r row) string {
	focused := i == m.cursor && !m.typing
	typing := i == m.cursor && m.typing

	switch r.kind {
	case rowToggle:
		checked := fieldOn(m.sel, r.field)
		available := marking.Available(m.sel, r.field)
		return "  " + components.RenderCheckbox(m.theme, components.CheckboxState{
			Label:   r.field.String(),
			Checked: checked,
			Enabled: available,
			Forced:  checked && !available,
			Focused: focused,
		})

	case rowFGIEntry:
		return m.renderEntry("Add country", m.fgiInput.View(), "", focused, typing,
			marking.Available(m.sel, r.field))

	case rowRelToEntry:
		return m.renderEntry("REL TO", m.relToInput.View(),
			joinRecipients(m.sel.Recipients), focused, typing,
			marking.Available(m.sel, r.field))

	case rowDerivedFrom:
		return m.renderEntry("Derived From", m.derivedInput.View(),
			m.sel.DerivedFrom, focused, typing, true)

	case rowDeclassifyOn:
		return m.renderEntry("Declassify On", m.declassInput.View(),
			m.sel.DeclassifyOn, focused, typing, true)

	case rowOK:
		label := "[ Render Marking ]"
		if focused {
			return "  " + m.theme.ControlFocused.Render("> "+label)
		}
		return "    " + m.theme.Control.Render(label)
	}
	return ""
}

// renderEntry draws a labeled entry row: the live textinput while typing,
// otherwise the committed value.
func (m *Model) renderEntry(label, inputView, value string, focused, typing, available bool) string {
	cursor := "    "
	if focused || typing {
		cursor = "  " + m.theme.InputPrompt.Render("> ")
	}

	styledLabel := m.theme.InputLabel.Render(label)
	if !available {
		return cursor + m.theme.ControlDisabled.Render(label)
	}
	if typing {
		return cursor + styledLabel + inputView
	}
	if value == "" {
		value = m.theme.DimText.Render("(none)")
	} else {
		value = m.theme.InputText.Render(value)
	}
	return cursor + styledLabel + value
}

// renderFGIList draws the selected FGI countries under the entry row.
func (m *Model) renderFGIList() string {
	if len(m.sel.FGI) == 0 {
		return ""
	}
	idx := m.catalog.TrigraphIndex()
	var b strings.Builder
	for _, name := range m.sel.FGI {
		line := "      - " + name
		if tri, ok := idx[name]; ok {
			line += " (" + tri + ")"
		}
		b.WriteString(m.theme.InputText.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// helpLine draws the key legend.
func (m *Model) helpLine() string {
	if m.typing {
		return m.helpItems([][2]string{
			{"enter", "commit"},
			{"esc", "back"},
			{"ctrl+x", "remove last country"},
		})
	}
	return m.helpItems([][2]string{
		{"↑/↓", "move"},
		{"space", "toggle"},
		{"r", "reset"},
		{"q", "cancel"},
	})
}

func (m *Model) helpItems(items [][2]string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = m.theme.HelpKey.Render(it[0]) + " " + m.theme.HelpDesc.Render(it[1])
	}
	return "  " + strings.Join(parts, m.theme.HelpDesc.Render("  ·  "))
}
