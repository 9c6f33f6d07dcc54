// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package marking

// Availability is computed fresh from Selection state on every call. No
// enabled/disabled flag is ever stored, so the projection cannot drift out
// of sync with the state the way per-control flag wiring does.

// Available reports whether the field may currently be toggled or edited.
//
// The rules, by field group:
//
//   - Exercise is always toggleable; while it is on, nothing else is.
//   - Levels are always toggleable: selecting one replaces whatever level
//     is set.
//   - SCI caveats need a classified level: HCS-P under TS/S, SI-G under TS
//     only, SI/TK under TS/S/C. SI and SI-G exclude each other.
//   - The FGI entry needs any level.
//   - Dissemination controls follow the cascade matrix: forced controls
//     (NOFORN under HCS-P, ORCON under SI-G) report unavailable because the
//     user may not untoggle them. A toggle that displaces a standing
//     control (NOFORN over REL TO or RELIDO, either ORCON form over
//     RELIDO) stays available; normalize clears the displaced control.
func Available(s Selection, f Field) bool {
	if f == FieldExercise {
		return true
	}
	if s.Exercise {
		return false
	}

	switch f {
	case FieldTopSecret, FieldSecret, FieldConfidential, FieldUnclassified:
		return true

	case FieldHCSP:
		return s.Level == LevelTopSecret || s.Level == LevelSecret

	case FieldSI:
		return s.Level.Classified() && !s.Caveats.Has(CaveatSIG)

	case FieldSIG:
		return s.Level == LevelTopSecret && !s.Caveats.Has(CaveatSI)

	case FieldTK:
		return s.Level.Classified()

	case FieldFGI:
		return s.Level != LevelNone

	case FieldRSEN:
		return s.Level.Classified()

	case FieldFOUO:
		return s.Level == LevelUnclassified &&
			!s.Controls.Has(ControlRELTO) &&
			!s.Controls.Has(ControlRELIDO) &&
			!s.Controls.Has(ControlNOFORN) &&
			!s.Controls.Has(ControlFISA)

	case FieldORCON:
		return s.Level.Classified() &&
			!s.Caveats.Has(CaveatSIG) && // forced on while SI-G is set
			!s.Controls.Has(ControlORCONUSGov)

	case FieldORCONUSGov:
		return s.Level.Classified() &&
			!s.Caveats.Has(CaveatSIG) &&
			!s.Controls.Has(ControlORCON)

	case FieldIMCON:
		return s.Level == LevelTopSecret || s.Level == LevelSecret

	case FieldRELTO:
		return s.Level != LevelNone &&
			!s.Caveats.Has(CaveatHCSP) &&
			!s.Controls.Has(ControlNOFORN) &&
			!s.Controls.Has(ControlFOUO)

	case FieldRELTOEntry:
		return s.Controls.Has(ControlRELTO)

	case FieldRELIDO:
		return s.Level != LevelNone &&
			!s.Caveats.Has(CaveatHCSP) &&
			!s.Controls.Has(ControlNOFORN) &&
			!s.Controls.Has(ControlFOUO) &&
			!s.Controls.Has(ControlORCON) &&
			!s.Controls.Has(ControlORCONUSGov)

	case FieldNOFORN:
		return s.Level != LevelNone &&
			!s.Caveats.Has(CaveatHCSP) && // forced on while HCS-P is set
			!s.Controls.Has(ControlFOUO)

	case FieldFISA:
		return s.Level != LevelNone && !s.Controls.Has(ControlFOUO)

	case FieldDerivedFrom:
		return s.Level != LevelNone

	case FieldDeclassifyOn:
		return s.Level.Classified()

	default:
		return false
	}
}

// AvailableFields returns every currently available field, in field order.
func AvailableFields(s Selection) []Field {
	out := make([]Field, 0, numFields)
	for f := Field(0); f < numFields; f++ {
		if Available(s, f) {
			out = append(out, f)
		}
	}
	return out
}
