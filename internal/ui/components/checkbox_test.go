// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/markforge/internal/ui/styles"
)

func TestRenderCheckbox(t *testing.T) {
	theme := styles.NewTheme("dark")

	tests := []struct {
		name  string
		state CheckboxState
		want  []string
	}{
		{
			name:  "unchecked",
			state: CheckboxState{Label: "NOFORN", Enabled: true},
			want:  []string{"[ ]", "NOFORN"},
		},
		{
			name:  "checked",
			state: CheckboxState{Label: "NOFORN", Checked: true, Enabled: true},
			want:  []string{"[x]", "NOFORN"},
		},
		{
			name:  "focused shows cursor",
			state: CheckboxState{Label: "SI", Enabled: true, Focused: true},
			want:  []string{"> ", "SI"},
		},
		{
			name:  "forced still shows checked box",
			state: CheckboxState{Label: "ORCON", Checked: true, Forced: true},
			want:  []string{"[x]", "ORCON"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderCheckbox(theme, tt.state)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("RenderCheckbox(%+v) = %q, want it to contain %q", tt.state, got, want)
				}
			}
		})
	}
}
