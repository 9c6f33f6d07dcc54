// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// US classification levels per DoDM 5200.01 Volume 2

package marking

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Level represents a US classification level. Exactly zero or one level is
// set on a Selection at a time; ordering follows restrictiveness so levels
// compare directly.
type Level int

const (
	LevelNone Level = iota
	LevelUnclassified
	LevelConfidential
	LevelSecret
	LevelTopSecret
)

// Banner text constants per DoD marking standards.
const (
	BannerUnclassified = "UNCLASSIFIED"
	BannerConfidential = "CONFIDENTIAL"
	BannerSecret       = "SECRET"
	BannerTopSecret    = "TOP SECRET"

	// BannerExercise is the fixed banner for exercise-only markings.
	BannerExercise = "EXERCISE EXERCISE EXERCISE"
)

// Color constants for classification display, standard banner colors.
const (
	ColorUnclassified = lipgloss.Color("#007A33") // Green
	ColorConfidential = lipgloss.Color("#0033A0") // Blue
	ColorSecret       = lipgloss.Color("#C8102E") // Red
	ColorTopSecret    = lipgloss.Color("#FF8C00") // Orange
)

// Levels lists the selectable levels from most to least restrictive, the
// scan order the aggregator uses.
var Levels = []Level{LevelTopSecret, LevelSecret, LevelConfidential, LevelUnclassified}

// String returns the full banner token for the level.
func (l Level) String() string {
	switch l {
	case LevelUnclassified:
		return BannerUnclassified
	case LevelConfidential:
		return BannerConfidential
	case LevelSecret:
		return BannerSecret
	case LevelTopSecret:
		return BannerTopSecret
	default:
		return ""
	}
}

// Abbrev returns the portion-marking abbreviation for the level.
func (l Level) Abbrev() string {
	switch l {
	case LevelUnclassified:
		return "U"
	case LevelConfidential:
		return "C"
	case LevelSecret:
		return "S"
	case LevelTopSecret:
		return "TS"
	default:
		return ""
	}
}

// Color returns the lipgloss color for the level, used by banner bars and
// CLI output. LevelNone renders like UNCLASSIFIED.
func (l Level) Color() lipgloss.Color {
	switch l {
	case LevelConfidential:
		return ColorConfidential
	case LevelSecret:
		return ColorSecret
	case LevelTopSecret:
		return ColorTopSecret
	default:
		return ColorUnclassified
	}
}

// Classified reports whether the level is CONFIDENTIAL or above.
func (l Level) Classified() bool {
	return l >= LevelConfidential
}

// ParseLevel parses a level token, accepting both banner and portion forms
// ("TOP SECRET", "TS"). Unknown tokens return LevelNone, false.
func ParseLevel(s string) (Level, bool) {
	switch strings.TrimSpace(strings.ToUpper(s)) {
	case BannerUnclassified, "U":
		return LevelUnclassified, true
	case BannerConfidential, "C":
		return LevelConfidential, true
	case BannerSecret, "S":
		return LevelSecret, true
	case BannerTopSecret, "TS":
		return LevelTopSecret, true
	default:
		return LevelNone, false
	}
}

// HighestLevel returns the more restrictive of two levels.
func HighestLevel(a, b Level) Level {
	if a >= b {
		return a
	}
	return b
}
