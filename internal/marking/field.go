// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package marking

import "fmt"

// Field identifies one toggleable control or entry on a Selection. Fields
// are what the availability projection reports on and what Toggle events
// address.
type Field int

const (
	FieldTopSecret Field = iota
	FieldSecret
	FieldConfidential
	FieldUnclassified
	FieldHCSP
	FieldSI
	FieldSIG
	FieldTK
	FieldFGI
	FieldRSEN
	FieldFOUO
	FieldORCON
	FieldORCONUSGov
	FieldIMCON
	FieldRELTO
	FieldRELTOEntry
	FieldRELIDO
	FieldNOFORN
	FieldFISA
	FieldExercise
	FieldDerivedFrom
	FieldDeclassifyOn

	numFields = 22
)

// ToggleFields lists the boolean fields a Toggle event may address, in
// display order. Entry fields (FGI, REL TO recipients, derived-from,
// declassify-on) accept text, not toggles.
var ToggleFields = []Field{
	FieldTopSecret, FieldSecret, FieldConfidential, FieldUnclassified,
	FieldHCSP, FieldSI, FieldSIG, FieldTK,
	FieldRSEN, FieldFOUO, FieldORCON, FieldORCONUSGov, FieldIMCON,
	FieldRELTO, FieldRELIDO, FieldNOFORN, FieldFISA,
	FieldExercise,
}

// String returns the display name of the field.
func (f Field) String() string {
	switch f {
	case FieldTopSecret:
		return BannerTopSecret
	case FieldSecret:
		return BannerSecret
	case FieldConfidential:
		return BannerConfidential
	case FieldUnclassified:
		return BannerUnclassified
	case FieldHCSP:
		return "HCS-P"
	case FieldSI:
		return "SI"
	case FieldSIG:
		return "SI-G"
	case FieldTK:
		return "TK"
	case FieldFGI:
		return "FGI"
	case FieldRSEN:
		return "RSEN"
	case FieldFOUO:
		return "FOUO"
	case FieldORCON:
		return "ORCON"
	case FieldORCONUSGov:
		return "ORCON-USGOV"
	case FieldIMCON:
		return "IMCON"
	case FieldRELTO:
		return "REL TO"
	case FieldRELTOEntry:
		return "REL TO recipients"
	case FieldRELIDO:
		return "RELIDO"
	case FieldNOFORN:
		return "NOFORN"
	case FieldFISA:
		return "FISA"
	case FieldExercise:
		return "Exercise Only"
	case FieldDerivedFrom:
		return "Derived From"
	case FieldDeclassifyOn:
		return "Declassify On"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// Level returns the classification level a level field selects, or
// LevelNone for non-level fields.
func (f Field) Level() Level {
	switch f {
	case FieldTopSecret:
		return LevelTopSecret
	case FieldSecret:
		return LevelSecret
	case FieldConfidential:
		return LevelConfidential
	case FieldUnclassified:
		return LevelUnclassified
	default:
		return LevelNone
	}
}

// Caveat returns the SCI caveat a caveat field selects. The second result
// is false for non-caveat fields.
func (f Field) Caveat() (Caveat, bool) {
	switch f {
	case FieldHCSP:
		return CaveatHCSP, true
	case FieldSI:
		return CaveatSI, true
	case FieldSIG:
		return CaveatSIG, true
	case FieldTK:
		return CaveatTK, true
	default:
		return 0, false
	}
}

// Control returns the dissemination control a control field selects. The
// second result is false for non-control fields.
func (f Field) Control() (Control, bool) {
	switch f {
	case FieldRSEN:
		return ControlRSEN, true
	case FieldFOUO:
		return ControlFOUO, true
	case FieldORCON:
		return ControlORCON, true
	case FieldORCONUSGov:
		return ControlORCONUSGov, true
	case FieldIMCON:
		return ControlIMCON, true
	case FieldRELTO:
		return ControlRELTO, true
	case FieldRELIDO:
		return ControlRELIDO, true
	case FieldNOFORN:
		return ControlNOFORN, true
	case FieldFISA:
		return ControlFISA, true
	default:
		return 0, false
	}
}

// Field returns the field that toggles the level. LevelNone maps to
// FieldUnclassified; callers never toggle an unset level.
func (l Level) Field() Field {
	switch l {
	case LevelTopSecret:
		return FieldTopSecret
	case LevelSecret:
		return FieldSecret
	case LevelConfidential:
		return FieldConfidential
	default:
		return FieldUnclassified
	}
}

// Field returns the field that toggles the caveat.
func (c Caveat) Field() Field {
	return FieldHCSP + Field(c)
}

// Field returns the field that toggles the control.
func (c Control) Field() Field {
	switch c {
	case ControlRSEN:
		return FieldRSEN
	case ControlFOUO:
		return FieldFOUO
	case ControlORCON:
		return FieldORCON
	case ControlORCONUSGov:
		return FieldORCONUSGov
	case ControlIMCON:
		return FieldIMCON
	case ControlRELTO:
		return FieldRELTO
	case ControlRELIDO:
		return FieldRELIDO
	case ControlNOFORN:
		return FieldNOFORN
	case ControlFISA:
		return FieldFISA
	default:
		return FieldRSEN
	}
}

// Toggle is one user-requested state change: set the addressed field on or
// off. The constraint engine turns a Toggle into the next legal Selection.
type Toggle struct {
	Field Field
	On    bool
}
