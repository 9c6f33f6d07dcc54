// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewTheme(t *testing.T) {
	tests := []struct {
		name     string
		theme    string
		wantDark bool
	}{
		{"dark theme", "dark", true},
		{"light theme", "light", false},
		{"unknown falls back to dark", "solarized", true},
		{"empty falls back to dark", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := NewTheme(tt.theme)
			if th.IsDark != tt.wantDark {
				t.Errorf("NewTheme(%q).IsDark = %v, want %v", tt.theme, th.IsDark, tt.wantDark)
			}
		})
	}
}

func TestSetSize(t *testing.T) {
	th := NewTheme("dark")
	th.SetSize(120, 40)
	if th.Width != 120 || th.Height != 40 {
		t.Errorf("SetSize: got %dx%d, want 120x40", th.Width, th.Height)
	}
}
