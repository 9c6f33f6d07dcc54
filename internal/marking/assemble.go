// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// Marking assembly: turn a complete Selection into CAPCO-format banner and
// portion markings per DoDM 5200.01 Volume 2.

package marking

import (
	"slices"
	"strings"
)

// FinalizedMarking is the rendered output for one portion of a document.
type FinalizedMarking struct {
	PortionMarking string `json:"portion_marking"`
	BannerMarking  string `json:"banner_marking"`
	DerivedFrom    string `json:"derived_from,omitempty"`
	DeclassifyOn   string `json:"declassify_on,omitempty"`
}

// Assembler renders Selections into markings. Trigraphs maps country names
// to ISO 3166-1 alpha-3 trigraphs for the FGI block; entries with no match
// are taken as trigraphs already. Groups maps releasability shorthand
// (FVEY, ACGU) to member trigraphs; nil means DefaultGroups.
type Assembler struct {
	Trigraphs map[string]string
	Groups    map[string][]string
}

// NewAssembler returns an Assembler using the given country and group
// tables.
func NewAssembler(trigraphs map[string]string, groups map[string][]string) *Assembler {
	return &Assembler{Trigraphs: trigraphs, Groups: groups}
}

// DefaultGroups returns the built-in releasability group expansions.
// USA is implied by the REL TO prefix and is not a member.
func DefaultGroups() map[string][]string {
	return map[string][]string{
		"FVEY": {"AUS", "CAN", "GBR", "NZL"},
		"ACGU": {"AUS", "CAN", "GBR"},
	}
}

// Validate reports whether the Selection is complete enough to render.
// Incompleteness is user-correctable and comes back as a ValidationError;
// Validate never rejects a Selection the constraint engine produced on
// structural grounds.
func (a *Assembler) Validate(s Selection) error {
	if s.Exercise {
		return nil
	}
	if s.Level == LevelNone {
		return &ValidationError{Field: "classification", Message: "select a classification level"}
	}
	if s.Level.Classified() && s.Controls.Empty() {
		return &ValidationError{Field: "dissemination", Message: "select at least one dissemination control"}
	}
	if s.Controls.Has(ControlRELTO) {
		if len(s.Recipients) == 0 {
			return &ValidationError{Field: "rel_to", Message: "enter the REL TO recipient list"}
		}
		if s.Recipients[0] != "USA" {
			return &ValidationError{Field: "rel_to", Message: `recipient list must start with "USA"`}
		}
		if len(s.Recipients) < 2 {
			return &ValidationError{Field: "rel_to", Message: "list at least one recipient besides USA"}
		}
	}
	if s.DerivedFrom == "" {
		return &ValidationError{Field: "derived_from", Message: "enter the derived-from source"}
	}
	if s.Level.Classified() && s.DeclassifyOn == "" {
		return &ValidationError{Field: "declassify_on", Message: "enter the declassification instruction"}
	}
	return nil
}

// Render validates and assembles the Selection into a FinalizedMarking.
// An exercise Selection renders to the exercise banner alone.
func (a *Assembler) Render(s Selection) (FinalizedMarking, error) {
	if err := a.Validate(s); err != nil {
		return FinalizedMarking{}, err
	}
	if s.Exercise {
		return FinalizedMarking{BannerMarking: BannerExercise}, nil
	}
	if err := consistent(s); err != nil {
		return FinalizedMarking{}, err
	}

	banner := a.compose(s, s.Level.String(), Caveat.String, Control.String)
	portion := "(" + a.compose(s, s.Level.Abbrev(), Caveat.String, Control.Abbrev) + ")"

	return FinalizedMarking{
		PortionMarking: portion,
		BannerMarking:  banner,
		DerivedFrom:    s.DerivedFrom,
		DeclassifyOn:   s.DeclassifyOn,
	}, nil
}

// compose builds one marking line. Blocks open with "//"; tokens within a
// block are separated by "/". The FGI block carries space-separated
// trigraphs and no internal separators.
func (a *Assembler) compose(s Selection, level string, caveat func(Caveat) string, control func(Control) string) string {
	var b strings.Builder
	b.WriteString(level)

	open := false
	for _, c := range s.Caveats.List() {
		if open {
			b.WriteString("/")
		} else {
			b.WriteString("//")
			open = true
		}
		b.WriteString(caveat(c))
	}

	if len(s.FGI) > 0 {
		b.WriteString("//FGI")
		for _, t := range a.fgiTrigraphs(s.FGI) {
			b.WriteString(" ")
			b.WriteString(t)
		}
	}

	open = false
	for _, c := range s.Controls.List() {
		if open {
			b.WriteString("/")
		} else {
			b.WriteString("//")
			open = true
		}
		if c == ControlRELTO {
			b.WriteString(control(c))
			b.WriteString(" ")
			b.WriteString(strings.Join(a.CanonicalRecipients(s.Recipients), ", "))
		} else {
			b.WriteString(control(c))
		}
	}

	return b.String()
}

// fgiTrigraphs resolves FGI country entries to a sorted, deduplicated
// trigraph list.
func (a *Assembler) fgiTrigraphs(countries []string) []string {
	out := make([]string, 0, len(countries))
	for _, name := range countries {
		if tri, ok := a.Trigraphs[name]; ok {
			out = append(out, tri)
		} else {
			out = append(out, strings.ToUpper(name))
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// CanonicalRecipients expands group shorthand, deduplicates, and orders a
// REL TO recipient list: USA first, the rest alphabetical. The same list
// in any spelling renders to the same marking.
func (a *Assembler) CanonicalRecipients(recipients []string) []string {
	groups := a.Groups
	if groups == nil {
		groups = DefaultGroups()
	}
	seen := make(map[string]bool, len(recipients))
	rest := make([]string, 0, len(recipients))
	add := func(tri string) {
		if tri == "" || tri == "USA" || seen[tri] {
			return
		}
		seen[tri] = true
		rest = append(rest, tri)
	}
	for _, r := range recipients {
		if members, ok := groups[r]; ok {
			for _, m := range members {
				add(m)
			}
			continue
		}
		add(r)
	}
	slices.Sort(rest)
	return append([]string{"USA"}, rest...)
}

// consistent verifies that a Selection sits at the fixed point of the
// combination rules. Selections built through Next always do; a direct
// construction that skipped the constraint engine may not, and rendering
// it would emit an illegal marking.
func consistent(s Selection) error {
	n := s.Clone()
	normalize(&n)

	if n.Level != s.Level {
		return &InvariantError{Field: s.Level.Field(), Message: "classification level conflicts with the selection"}
	}
	for _, c := range Caveats {
		if s.Caveats.Has(c) && !n.Caveats.Has(c) {
			return &InvariantError{Field: c.Field(), Message: "caveat is not legal under the selected level"}
		}
	}
	for _, c := range Controls {
		if s.Controls.Has(c) && !n.Controls.Has(c) {
			return &InvariantError{Field: c.Field(), Message: "control conflicts with the selection"}
		}
		if !s.Controls.Has(c) && n.Controls.Has(c) {
			return &InvariantError{Field: c.Field(), Message: "control is mandatory for the selected caveats"}
		}
	}
	if len(n.FGI) != len(s.FGI) {
		return &InvariantError{Field: FieldFGI, Message: "FGI entries require a classification level"}
	}
	if len(n.Recipients) != len(s.Recipients) {
		return &InvariantError{Field: FieldRELTOEntry, Message: "recipient list requires REL TO"}
	}
	return nil
}

// Lines returns the marking as display lines: portion, banner, and the
// classification-authority block when present.
func (m FinalizedMarking) Lines() []string {
	lines := []string{m.PortionMarking, m.BannerMarking}
	if m.DerivedFrom != "" {
		lines = append(lines, "Derived From: "+m.DerivedFrom)
	}
	if m.DeclassifyOn != "" {
		lines = append(lines, "Declassify On: "+m.DeclassifyOn)
	}
	return lines
}

// String returns the banner marking.
func (m FinalizedMarking) String() string {
	return m.BannerMarking
}
