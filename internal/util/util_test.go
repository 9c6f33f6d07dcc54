// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ============================================================================
// STRING HELPERS
// ============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"empty string", "", 10, ""},
		{"shorter than max", "short", 10, "short"},
		{"exact length", "exact", 5, "exact"},
		{"truncated with ellipsis", "this is a long string", 10, "this is..."},
		{"zero max", "anything", 0, ""},
		{"max below ellipsis", "abcdef", 2, "ab"},
		{"multibyte preserved", "日本語のテキスト", 5, "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateRunes(tt.input, tt.maxRunes)
			if got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.maxRunes, got, tt.want)
			}
		})
	}
}

func TestNormalizeField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "OPLAN 8022", "OPLAN 8022"},
		{"leading and trailing space", "  SECDEF Memo  ", "SECDEF Memo"},
		{"interior runs collapsed", "Multiple   Sources\tUsed", "Multiple Sources Used"},
		{"control characters stripped", "Plan\x00 20\x07250601", "Plan 20250601"},
		{"newlines collapsed", "line one\nline two", "line one line two"},
		{"empty", "", ""},
		{"only whitespace", "   \t  ", ""},
		{"nfc composition", "América", "América"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeField(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanToken(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"gbr", "GBR"},
		{" fvey ", "FVEY"},
		{"Can", "CAN"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanToken(tt.input); got != tt.want {
			t.Errorf("CleanToken(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSplitRecipients(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"standard entry", "USA, GBR, CAN", []string{"USA", "GBR", "CAN"}},
		{"lowercase and spacing", "usa,gbr , can", []string{"USA", "GBR", "CAN"}},
		{"trailing comma", "USA, FVEY,", []string{"USA", "FVEY"}},
		{"empty", "", nil},
		{"only commas", ",,,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitRecipients(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitRecipients(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SplitRecipients(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// ============================================================================
// FILE HELPERS
// ============================================================================

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.txt")

	if err := AtomicWriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "first" {
		t.Errorf("file content = %q, want %q", data, "first")
	}

	// Overwrite must fully replace.
	if err := AtomicWriteFile(path, []byte("second"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile() overwrite error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("file content after overwrite = %q, want %q", data, "second")
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %q", e.Name())
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"bare tilde", "~", home},
		{"tilde slash", "~/x/y", filepath.Join(home, "x", "y")},
		{"absolute untouched", "/etc/markforge.toml", filepath.Clean("/etc/markforge.toml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			if err != nil {
				t.Fatalf("ExpandPath(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
