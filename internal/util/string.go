// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the markforge application.
package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UNICODE: Rune-aware truncation preserves multi-byte characters.
// Marking fields (derived-from sources, country names) may contain
// non-ASCII text; these helpers never split a UTF-8 sequence.

// TruncateRunes truncates a string to a maximum number of runes (characters).
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// RuneLen returns the number of runes (characters) in a string.
// This is safer than len() for UTF-8 strings.
func RuneLen(s string) int {
	return len([]rune(s))
}

// NormalizeField canonicalizes a user-entered free-text field (derived-from,
// declassify-on, REL TO entries) before it is stored or rendered:
// Unicode NFC composition, control characters stripped, surrounding
// whitespace trimmed, interior whitespace runs collapsed to single spaces.
// A marking string must compare byte-for-byte across systems, so the same
// visible text always normalizes to the same bytes.
func NormalizeField(s string) string {
	normalized, _, err := transform.String(norm.NFC, s)
	if err != nil {
		normalized = s // fall back to the raw input on malformed UTF-8
	}

	var b strings.Builder
	b.Grow(len(normalized))
	space := false
	for _, r := range normalized {
		// Space first: tab and newline are controls too, but they must
		// still separate words rather than vanish.
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// CleanToken normalizes a single recipient or trigraph token: NFC form,
// trimmed, uppercased. Tokens like country trigraphs and group shortcuts
// (GBR, FVEY) are case-insensitive on entry but canonical uppercase in
// every rendered marking.
func CleanToken(s string) string {
	return strings.ToUpper(NormalizeField(s))
}

// SplitRecipients splits a comma-separated recipient entry ("USA, GBR, CAN")
// into cleaned tokens, dropping empties.
func SplitRecipients(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if tok := CleanToken(p); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
