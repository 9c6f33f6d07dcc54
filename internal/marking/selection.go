// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package marking

import (
	"slices"

	"github.com/jeranaias/markforge/internal/util"
)

// Selection is the state of one in-progress marking decision: level, SCI
// caveats, FGI working list, dissemination controls, REL TO recipients,
// exercise flag, and the two free-text fields.
//
// Selection is a plain container. Cross-field rules live in Next and
// Available; completion rules live in the Assembler. Mutate it only
// through Next (toggles) and the entry setters below, and render it at
// most once.
type Selection struct {
	Level    Level
	Caveats  CaveatSet
	Controls ControlSet

	// FGI is the working list of selected catalog country names, in
	// insertion order. The assembler resolves names to trigraphs and
	// sorts at render time.
	FGI []string

	// Recipients holds the cleaned REL TO entry tokens ("USA", "FVEY",
	// "GBR"). Meaningful only while ControlRELTO is set.
	Recipients []string

	Exercise bool

	DerivedFrom  string
	DeclassifyOn string
}

// NewSelection returns an empty Selection ready for toggles.
func NewSelection() Selection {
	return Selection{}
}

// IsLevelSet reports whether any classification level is selected.
func (s *Selection) IsLevelSet() bool {
	return s.Level != LevelNone
}

// HasCaveat reports whether the SCI caveat is selected.
func (s *Selection) HasCaveat(c Caveat) bool {
	return s.Caveats.Has(c)
}

// HasControl reports whether the dissemination control is selected.
func (s *Selection) HasControl(c Control) bool {
	return s.Controls.Has(c)
}

// ActiveCaveats returns the selected SCI caveats in assembly order.
func (s *Selection) ActiveCaveats() []Caveat {
	return s.Caveats.List()
}

// ActiveControls returns the selected dissemination controls in assembly order.
func (s *Selection) ActiveControls() []Control {
	return s.Controls.List()
}

// RelToRecipients returns a copy of the REL TO recipient tokens.
func (s *Selection) RelToRecipients() []string {
	return slices.Clone(s.Recipients)
}

// SetRecipients replaces the REL TO entry with cleaned tokens parsed from
// a comma-separated string ("USA, GBR, CAN"). Format validation happens at
// completion, not here.
func (s *Selection) SetRecipients(entry string) {
	s.Recipients = util.SplitRecipients(entry)
}

// SetDerivedFrom stores the normalized derived-from source text.
func (s *Selection) SetDerivedFrom(text string) {
	s.DerivedFrom = util.NormalizeField(text)
}

// SetDeclassifyOn stores the normalized declassification instruction.
func (s *Selection) SetDeclassifyOn(text string) {
	s.DeclassifyOn = util.NormalizeField(text)
}

// AddFGI appends a country name to the FGI working list. The same country
// cannot be selected twice; candidate/selected lists never overlap.
func (s *Selection) AddFGI(name string) error {
	name = util.NormalizeField(name)
	if name == "" {
		return &ValidationError{Field: "fgi", Message: "select or enter an FGI country"}
	}
	if slices.Contains(s.FGI, name) {
		return &ValidationError{Field: "fgi", Message: "country already selected: " + name}
	}
	s.FGI = append(s.FGI, name)
	return nil
}

// RemoveFGI returns a country from the working list to the candidates.
func (s *Selection) RemoveFGI(name string) error {
	name = util.NormalizeField(name)
	i := slices.Index(s.FGI, name)
	if i < 0 {
		return &ValidationError{Field: "fgi", Message: "country not selected: " + name}
	}
	s.FGI = slices.Delete(s.FGI, i, i+1)
	return nil
}

// ResetFGI clears the FGI working list.
func (s *Selection) ResetFGI() {
	s.FGI = nil
}

// Clone returns a deep copy. Next works on clones so callers never observe
// a half-applied cascade.
func (s Selection) Clone() Selection {
	out := s
	out.FGI = slices.Clone(s.FGI)
	out.Recipients = slices.Clone(s.Recipients)
	return out
}

// Reset returns the Selection to its initial empty state.
func (s *Selection) Reset() {
	*s = Selection{}
}

// clearDissemination drops every dissemination control and the REL TO entry.
func (s *Selection) clearDissemination() {
	s.Controls = 0
	s.Recipients = nil
}

// clearAll empties everything except the exercise flag.
func (s *Selection) clearAll() {
	ex := s.Exercise
	*s = Selection{Exercise: ex}
}
