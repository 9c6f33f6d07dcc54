// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package marking

import "strings"

// Control represents a dissemination control marking. Declaration order is
// assembly order within the dissemination block.
type Control int

const (
	ControlRSEN Control = iota
	ControlFOUO
	ControlORCON
	ControlORCONUSGov
	ControlIMCON
	ControlRELTO
	ControlRELIDO
	ControlNOFORN
	ControlFISA

	numControls = 9
)

// Controls lists all dissemination controls in assembly order.
var Controls = []Control{
	ControlRSEN,
	ControlFOUO,
	ControlORCON,
	ControlORCONUSGov,
	ControlIMCON,
	ControlRELTO,
	ControlRELIDO,
	ControlNOFORN,
	ControlFISA,
}

// String returns the full banner token for the control. REL TO callers
// append the recipient list separately.
func (c Control) String() string {
	switch c {
	case ControlRSEN:
		return "RSEN"
	case ControlFOUO:
		return "FOUO"
	case ControlORCON:
		return "ORCON"
	case ControlORCONUSGov:
		return "ORCON-USGOV"
	case ControlIMCON:
		return "IMCON"
	case ControlRELTO:
		return "REL TO"
	case ControlRELIDO:
		return "RELIDO"
	case ControlNOFORN:
		return "NOFORN"
	case ControlFISA:
		return "FISA"
	default:
		return ""
	}
}

// Abbrev returns the portion-marking abbreviation for the control. Several
// controls have no short form and reuse the banner token.
func (c Control) Abbrev() string {
	switch c {
	case ControlRSEN:
		return "RS"
	case ControlFOUO:
		return "FOUO"
	case ControlORCON:
		return "OC"
	case ControlORCONUSGov:
		return "OC-USGOV"
	case ControlIMCON:
		return "IMC"
	case ControlRELTO:
		return "REL TO"
	case ControlRELIDO:
		return "RELIDO"
	case ControlNOFORN:
		return "NF"
	case ControlFISA:
		return "FISA"
	default:
		return ""
	}
}

// ParseControl matches an exact control token in either banner or portion
// form. "REL TO" entries carry recipients and are handled by the caller.
func ParseControl(s string) (Control, bool) {
	switch strings.TrimSpace(strings.ToUpper(s)) {
	case "RSEN", "RS":
		return ControlRSEN, true
	case "FOUO":
		return ControlFOUO, true
	case "ORCON", "OC":
		return ControlORCON, true
	case "ORCON-USGOV", "OC-USGOV":
		return ControlORCONUSGov, true
	case "IMCON", "IMC":
		return ControlIMCON, true
	case "RELIDO":
		return ControlRELIDO, true
	case "NOFORN", "NF":
		return ControlNOFORN, true
	case "FISA":
		return ControlFISA, true
	default:
		return 0, false
	}
}

// ControlSet is a value-semantics set of dissemination controls.
type ControlSet uint16

// Has reports whether the control is in the set.
func (s ControlSet) Has(c Control) bool {
	return s&(1<<uint(c)) != 0
}

// Empty reports whether no control is set.
func (s ControlSet) Empty() bool {
	return s == 0
}

// List returns the set's controls in assembly order.
func (s ControlSet) List() []Control {
	if s == 0 {
		return nil
	}
	out := make([]Control, 0, numControls)
	for _, c := range Controls {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s ControlSet) with(c Control) ControlSet {
	return s | (1 << uint(c))
}

func (s ControlSet) without(c Control) ControlSet {
	return s &^ (1 << uint(c))
}
