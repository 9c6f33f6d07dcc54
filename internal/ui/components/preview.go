// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/markforge/internal/marking"
	"github.com/jeranaias/markforge/internal/ui/styles"
)

// Preview renders the live portion/banner preview in the marking
// dialog. While the selection is incomplete it shows the validation
// message that currently blocks rendering instead of a marking.
type Preview struct {
	marking marking.FinalizedMarking
	err     error
	width   int
}

// NewPreview returns an empty preview.
func NewPreview() *Preview {
	return &Preview{width: 80}
}

// SetWidth updates the preview width.
func (p *Preview) SetWidth(width int) {
	if width > 0 {
		p.width = width
	}
}

// SetMarking updates the preview with a successful render.
func (p *Preview) SetMarking(m marking.FinalizedMarking) {
	p.marking = m
	p.err = nil
}

// SetError updates the preview with the validation error blocking the
// render.
func (p *Preview) SetError(err error) {
	p.marking = marking.FinalizedMarking{}
	p.err = err
}

// View renders the preview pane.
func (p *Preview) View(t *styles.Theme) string {
	var b strings.Builder

	if p.err != nil {
		b.WriteString(t.PreviewLabel.Render("Pending"))
		b.WriteString(t.DimText.Render(p.err.Error()))
		return t.PreviewBox.Width(p.boxWidth()).Render(b.String())
	}

	b.WriteString(t.PreviewLabel.Render("Portion"))
	b.WriteString(t.PreviewValue.Render(p.marking.PortionMarking))
	b.WriteString("\n")
	b.WriteString(t.PreviewLabel.Render("Banner"))
	b.WriteString(t.PreviewValue.Render(p.marking.BannerMarking))
	if p.marking.DerivedFrom != "" {
		b.WriteString("\n")
		b.WriteString(t.PreviewLabel.Render("Derived"))
		b.WriteString(t.InputText.Render(p.marking.DerivedFrom))
	}
	if p.marking.DeclassifyOn != "" {
		b.WriteString("\n")
		b.WriteString(t.PreviewLabel.Render("Declass"))
		b.WriteString(t.InputText.Render(p.marking.DeclassifyOn))
	}
	return t.PreviewBox.Width(p.boxWidth()).Render(b.String())
}

func (p *Preview) boxWidth() int {
	// Border and padding take four columns.
	w := p.width - 4
	if w < 20 {
		w = 20
	}
	return w
}
