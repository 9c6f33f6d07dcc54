// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package marking

import "testing"

// TestLevel_String tests the banner representation of classification levels.
func TestLevel_String(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		expected string
	}{
		{name: "Unclassified", level: LevelUnclassified, expected: BannerUnclassified},
		{name: "Confidential", level: LevelConfidential, expected: BannerConfidential},
		{name: "Secret", level: LevelSecret, expected: BannerSecret},
		{name: "Top Secret", level: LevelTopSecret, expected: BannerTopSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestLevel_Abbrev tests the portion-marking abbreviations.
func TestLevel_Abbrev(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{level: LevelUnclassified, expected: "U"},
		{level: LevelConfidential, expected: "C"},
		{level: LevelSecret, expected: "S"},
		{level: LevelTopSecret, expected: "TS"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.Abbrev(); got != tt.expected {
				t.Errorf("Level.Abbrev() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestLevel_Ordering verifies that levels are strictly ordered by
// restrictiveness.
func TestLevel_Ordering(t *testing.T) {
	tests := []struct {
		name   string
		lower  Level
		higher Level
	}{
		{name: "None < Unclassified", lower: LevelNone, higher: LevelUnclassified},
		{name: "Unclassified < Confidential", lower: LevelUnclassified, higher: LevelConfidential},
		{name: "Confidential < Secret", lower: LevelConfidential, higher: LevelSecret},
		{name: "Secret < Top Secret", lower: LevelSecret, higher: LevelTopSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.lower >= tt.higher {
				t.Errorf("%v >= %v, want strictly lower", tt.lower, tt.higher)
			}
			if got := HighestLevel(tt.lower, tt.higher); got != tt.higher {
				t.Errorf("HighestLevel(%v, %v) = %v, want %v", tt.lower, tt.higher, got, tt.higher)
			}
		})
	}
}

// TestParseLevel tests parsing of banner names and abbreviations.
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		ok       bool
	}{
		{input: "TOP SECRET", expected: LevelTopSecret, ok: true},
		{input: "SECRET", expected: LevelSecret, ok: true},
		{input: "CONFIDENTIAL", expected: LevelConfidential, ok: true},
		{input: "UNCLASSIFIED", expected: LevelUnclassified, ok: true},
		{input: "TS", expected: LevelTopSecret, ok: true},
		{input: "S", expected: LevelSecret, ok: true},
		{input: "C", expected: LevelConfidential, ok: true},
		{input: "U", expected: LevelUnclassified, ok: true},
		{input: "top secret", expected: LevelTopSecret, ok: true},
		{input: "SECRET//NOFORN", expected: LevelNone, ok: false},
		{input: "COSMIC", expected: LevelNone, ok: false},
		{input: "", expected: LevelNone, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

// TestLevel_Classified verifies the classified threshold sits between
// UNCLASSIFIED and CONFIDENTIAL.
func TestLevel_Classified(t *testing.T) {
	for _, lv := range []Level{LevelNone, LevelUnclassified} {
		if lv.Classified() {
			t.Errorf("%v.Classified() = true, want false", lv)
		}
	}
	for _, lv := range []Level{LevelConfidential, LevelSecret, LevelTopSecret} {
		if !lv.Classified() {
			t.Errorf("%v.Classified() = false, want true", lv)
		}
	}
}
