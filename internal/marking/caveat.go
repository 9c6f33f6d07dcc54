// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package marking

import "strings"

// Caveat represents an SCI control system marking. Declaration order is
// assembly order: HCS-P renders first, then SI or SI-G, then TK.
type Caveat int

const (
	CaveatHCSP Caveat = iota
	CaveatSI
	CaveatSIG
	CaveatTK

	numCaveats = 4
)

// Caveats lists all SCI caveats in assembly order.
var Caveats = []Caveat{CaveatHCSP, CaveatSI, CaveatSIG, CaveatTK}

// String returns the marking token for the caveat. Portion and banner forms
// are identical for SCI caveats.
func (c Caveat) String() string {
	switch c {
	case CaveatHCSP:
		return "HCS-P"
	case CaveatSI:
		return "SI"
	case CaveatSIG:
		return "SI-G"
	case CaveatTK:
		return "TK"
	default:
		return ""
	}
}

// ParseCaveat matches an exact caveat token. Matching is exact, never
// substring: "FISA" must not read as "SI".
func ParseCaveat(s string) (Caveat, bool) {
	switch strings.TrimSpace(strings.ToUpper(s)) {
	case "HCS-P":
		return CaveatHCSP, true
	case "SI":
		return CaveatSI, true
	case "SI-G":
		return CaveatSIG, true
	case "TK":
		return CaveatTK, true
	default:
		return 0, false
	}
}

// CaveatSet is a value-semantics set of SCI caveats.
type CaveatSet uint8

// Has reports whether the caveat is in the set.
func (s CaveatSet) Has(c Caveat) bool {
	return s&(1<<uint(c)) != 0
}

// Empty reports whether no caveat is set.
func (s CaveatSet) Empty() bool {
	return s == 0
}

// List returns the set's caveats in assembly order.
func (s CaveatSet) List() []Caveat {
	if s == 0 {
		return nil
	}
	out := make([]Caveat, 0, numCaveats)
	for _, c := range Caveats {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s CaveatSet) with(c Caveat) CaveatSet {
	return s | (1 << uint(c))
}

func (s CaveatSet) without(c Caveat) CaveatSet {
	return s &^ (1 << uint(c))
}
