// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// Constraint engine: the single place where marking combination rules are
// enforced. DoDM 5200.01 V2 legal-combination cascades expressed as a pure
// reducer plus a fixed-point normalization.

package marking

// Next computes the next legal Selection for one requested toggle. The
// returned Selection is a new value; the input is never mutated, and no
// intermediate inconsistent state is observable.
//
// Toggling a field to its current value is a no-op. Toggling an unavailable
// field returns an InvariantError: correct front ends gate on Available, so
// hitting this path is a bug, not user error.
func Next(s Selection, t Toggle) (Selection, error) {
	if !t.Field.toggleable() {
		return s, &InvariantError{Field: t.Field, Message: "field takes text entry, not toggles"}
	}
	if fieldState(s, t.Field) == t.On {
		return s.Clone(), nil
	}
	if !Available(s, t.Field) {
		return s, &InvariantError{Field: t.Field, Message: "field is not available in the current selection"}
	}

	out := s.Clone()
	apply(&out, t)
	normalize(&out)
	return out, nil
}

// toggleable reports whether the field is addressed by Toggle events.
func (f Field) toggleable() bool {
	switch f {
	case FieldFGI, FieldRELTOEntry, FieldDerivedFrom, FieldDeclassifyOn:
		return false
	default:
		return true
	}
}

// fieldState reads the current boolean state of a toggleable field.
func fieldState(s Selection, f Field) bool {
	if f == FieldExercise {
		return s.Exercise
	}
	if lv := f.Level(); lv != LevelNone {
		return s.Level == lv
	}
	if c, ok := f.Caveat(); ok {
		return s.Caveats.Has(c)
	}
	if c, ok := f.Control(); ok {
		return s.Controls.Has(c)
	}
	return false
}

// apply performs the direct effect of a toggle plus its release cascades.
// Forbidden-state cleanup is normalize's job.
func apply(s *Selection, t Toggle) {
	switch {
	case t.Field == FieldExercise:
		s.Exercise = t.On
		if t.On {
			s.clearAll()
		}

	case t.Field.Level() != LevelNone:
		if t.On {
			s.Level = t.Field.Level()
		} else {
			// Untoggling the level resets the whole marking area: SCI,
			// FGI, and dissemination state mean nothing without a level.
			s.Level = LevelNone
			s.Caveats = 0
			s.FGI = nil
			s.clearDissemination()
		}

	default:
		if c, ok := t.Field.Caveat(); ok {
			if t.On {
				s.Caveats = s.Caveats.with(c)
			} else {
				s.Caveats = s.Caveats.without(c)
				// Releasing a caveat releases the control it forced.
				switch c {
				case CaveatHCSP:
					s.Controls = s.Controls.without(ControlNOFORN)
				case CaveatSIG:
					s.Controls = s.Controls.without(ControlORCON)
				}
			}
			return
		}
		if c, ok := t.Field.Control(); ok {
			if t.On {
				s.Controls = s.Controls.with(c)
			} else {
				s.Controls = s.Controls.without(c)
				if c == ControlRELTO {
					s.Recipients = nil
				}
			}
		}
	}
}

// normalize drives the Selection to the fixed point of the combination
// rules: forcing rules first (a caveat that mandates a control), then
// exclusions, then scope rules (controls that require a particular level).
// The loop is bounded; the rule set stabilizes within a few passes.
func normalize(s *Selection) {
	for range [numFields]struct{}{} {
		if !normalizeOnce(s) {
			return
		}
	}
}

func normalizeOnce(s *Selection) bool {
	changed := false

	set := func(c Control) {
		if !s.Controls.Has(c) {
			s.Controls = s.Controls.with(c)
			changed = true
		}
	}
	drop := func(c Control) {
		if s.Controls.Has(c) {
			s.Controls = s.Controls.without(c)
			changed = true
		}
	}
	dropCaveat := func(c Caveat) {
		if s.Caveats.Has(c) {
			s.Caveats = s.Caveats.without(c)
			changed = true
		}
	}

	// Exercise empties everything else.
	if s.Exercise {
		if s.Level != LevelNone || !s.Caveats.Empty() || !s.Controls.Empty() ||
			len(s.FGI) > 0 || len(s.Recipients) > 0 || s.DerivedFrom != "" || s.DeclassifyOn != "" {
			s.clearAll()
			return true
		}
		return false
	}

	// Nothing survives without a level.
	if s.Level == LevelNone {
		if !s.Caveats.Empty() || !s.Controls.Empty() || len(s.FGI) > 0 || len(s.Recipients) > 0 {
			s.Caveats = 0
			s.FGI = nil
			s.clearDissemination()
			return true
		}
		return false
	}

	// Level scope rules.
	if !s.Level.Classified() {
		for _, c := range Caveats {
			dropCaveat(c)
		}
		drop(ControlRSEN)
		drop(ControlORCON)
		drop(ControlORCONUSGov)
		drop(ControlIMCON)
	} else {
		drop(ControlFOUO)
	}
	if s.Level != LevelTopSecret && s.Level != LevelSecret {
		dropCaveat(CaveatHCSP)
		drop(ControlIMCON)
	}
	if s.Level != LevelTopSecret {
		dropCaveat(CaveatSIG)
	}

	// Forcing rules.
	if s.Caveats.Has(CaveatHCSP) {
		set(ControlNOFORN)
	}
	if s.Caveats.Has(CaveatSIG) {
		set(ControlORCON)
		dropCaveat(CaveatSI)
	}

	// Exclusions. Where two standing selections conflict, the control a
	// caveat forced (or the more restrictive of the pair) survives.
	if s.Controls.Has(ControlORCON) {
		drop(ControlORCONUSGov)
		drop(ControlRELIDO)
	}
	if s.Controls.Has(ControlORCONUSGov) {
		drop(ControlRELIDO)
	}
	if s.Controls.Has(ControlNOFORN) {
		drop(ControlFOUO)
		drop(ControlRELTO)
		drop(ControlRELIDO)
	}
	if s.Controls.Has(ControlRELIDO) || s.Controls.Has(ControlRELTO) || s.Controls.Has(ControlFISA) {
		drop(ControlFOUO)
	}

	// Entry hygiene.
	if !s.Controls.Has(ControlRELTO) && len(s.Recipients) > 0 {
		s.Recipients = nil
		changed = true
	}

	return changed
}
