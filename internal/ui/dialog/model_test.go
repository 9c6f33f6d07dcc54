// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dialog

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/markforge/internal/catalog"
	"github.com/jeranaias/markforge/internal/marking"
	"github.com/jeranaias/markforge/internal/ui/styles"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	return New(styles.NewTheme("dark"), catalog.Default(), true)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func rowIndex(t *testing.T, kind rowKind, field marking.Field) int {
	t.Helper()
	for i, r := range dialogRows {
		if r.kind == kind && r.field == field {
			return i
		}
	}
	t.Fatalf("no dialog row for kind %d field %v", kind, field)
	return -1
}

func TestNavigationSkipsUnavailableRows(t *testing.T) {
	m := newTestModel(t)

	// With nothing selected only the four levels, Exercise, and the OK
	// row are reachable. Walking down visits exactly those, in order.
	want := []marking.Field{
		marking.FieldSecret,
		marking.FieldConfidential,
		marking.FieldUnclassified,
		marking.FieldExercise,
	}
	for _, f := range want {
		m.move(1)
		if got := dialogRows[m.cursor].field; got != f {
			t.Fatalf("cursor landed on %v, want %v", got, f)
		}
	}

	m.move(1)
	if dialogRows[m.cursor].kind != rowOK {
		t.Errorf("cursor landed on %v, want the OK row", dialogRows[m.cursor].field)
	}

	m.move(1)
	if got := dialogRows[m.cursor].field; got != marking.FieldTopSecret {
		t.Errorf("cursor wrapped to %v, want FieldTopSecret", got)
	}
}

func TestToggleRoutesThroughEngine(t *testing.T) {
	m := newTestModel(t)

	m.cursor = rowIndex(t, rowToggle, marking.FieldSecret)
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if m.sel.Level != marking.LevelSecret {
		t.Fatalf("Level = %v after toggling SECRET, want LevelSecret", m.sel.Level)
	}

	// HCS-P forces NOFORN on; the forced control reports unavailable so
	// the cursor cannot land on it.
	m.cursor = rowIndex(t, rowToggle, marking.FieldHCSP)
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if !m.sel.HasCaveat(marking.CaveatHCSP) {
		t.Fatal("HCS-P not set after toggle")
	}
	if !m.sel.HasControl(marking.ControlNOFORN) {
		t.Error("NOFORN not forced on by HCS-P")
	}
	if marking.Available(m.sel, marking.FieldNOFORN) {
		t.Error("forced NOFORN still reports available")
	}
}

func TestToggleOffReleasesForcedControl(t *testing.T) {
	m := newTestModel(t)
	m.toggle(marking.FieldSecret)
	m.toggle(marking.FieldHCSP)
	m.toggle(marking.FieldHCSP)

	if m.sel.HasCaveat(marking.CaveatHCSP) {
		t.Fatal("HCS-P still set after untoggling")
	}
	if !marking.Available(m.sel, marking.FieldNOFORN) {
		t.Error("NOFORN still unavailable after HCS-P released it")
	}
}

func TestFinalizeRejectsIncompleteSelection(t *testing.T) {
	m := newTestModel(t)
	m.toggle(marking.FieldSecret)

	m.cursor = rowIndex(t, rowOK, marking.FieldExercise)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.errMsg == "" {
		t.Error("finalize on an incomplete selection left no error message")
	}
	if _, ok := m.Result(); ok {
		t.Error("Result() set despite validation failure")
	}
}

func TestFinalizeRendersCompleteSelection(t *testing.T) {
	m := newTestModel(t)
	m.toggle(marking.FieldSecret)
	m.toggle(marking.FieldNOFORN)
	m.sel.SetDerivedFrom("SCG-7")
	m.sel.SetDeclassifyOn("20501231")
	m.refresh()

	m.cursor = rowIndex(t, rowOK, marking.FieldExercise)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	got, ok := m.Result()
	if !ok {
		t.Fatalf("Result() not set after finalize, error: %q", m.errMsg)
	}
	if got.PortionMarking != "(S//NF)" {
		t.Errorf("PortionMarking = %q, want (S//NF)", got.PortionMarking)
	}
	if got.BannerMarking != "SECRET//NOFORN" {
		t.Errorf("BannerMarking = %q, want SECRET//NOFORN", got.BannerMarking)
	}
}

func TestExerciseShortCircuit(t *testing.T) {
	m := newTestModel(t)
	m.toggle(marking.FieldExercise)

	if marking.Available(m.sel, marking.FieldSecret) {
		t.Error("level still available while exercise mode is on")
	}

	m.cursor = rowIndex(t, rowOK, marking.FieldExercise)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	got, ok := m.Result()
	if !ok {
		t.Fatalf("Result() not set for exercise selection, error: %q", m.errMsg)
	}
	if got.BannerMarking != marking.BannerExercise {
		t.Errorf("BannerMarking = %q, want %q", got.BannerMarking, marking.BannerExercise)
	}
}

func TestResolveCountry(t *testing.T) {
	m := newTestModel(t)

	tests := []struct {
		entry  string
		want   string
		wantOK bool
	}{
		{"Canada", "Canada", true},
		{"CAN", "Canada", true},
		{"can", "Canada", true},
		{"Swed", "Sweden", true},
		{"Nor", "", false}, // Norway / North Korea / North Macedonia
		{"Atlantis", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := m.resolveCountry(tt.entry)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("resolveCountry(%q) = %q, %v; want %q, %v",
				tt.entry, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCommitFGIEntry(t *testing.T) {
	m := newTestModel(t)
	m.toggle(marking.FieldSecret)

	m.cursor = rowIndex(t, rowFGIEntry, marking.FieldFGI)
	m.focusInput(rowFGIEntry)
	m.fgiInput.SetValue("CAN")
	m.commitEntry()

	if len(m.sel.FGI) != 1 || m.sel.FGI[0] != "Canada" {
		t.Fatalf("FGI = %v after commit, want [Canada]", m.sel.FGI)
	}
	if m.fgiInput.Value() != "" {
		t.Error("FGI entry not cleared after commit")
	}

	m.fgiInput.SetValue("Atlantis")
	m.commitEntry()
	if !strings.Contains(m.errMsg, "Atlantis") {
		t.Errorf("errMsg = %q, want unknown-country message", m.errMsg)
	}
	if len(m.sel.FGI) != 1 {
		t.Errorf("FGI = %v, unknown entry must not be added", m.sel.FGI)
	}
}

func TestCommitRelToEntry(t *testing.T) {
	m := newTestModel(t)
	m.toggle(marking.FieldSecret)
	m.toggle(marking.FieldRELTO)

	m.cursor = rowIndex(t, rowRelToEntry, marking.FieldRELTOEntry)
	m.focusInput(rowRelToEntry)
	m.relToInput.SetValue("usa, fvey")
	m.commitEntry()

	want := []string{"USA", "FVEY"}
	if len(m.sel.Recipients) != len(want) {
		t.Fatalf("Recipients = %v, want %v", m.sel.Recipients, want)
	}
	for i := range want {
		if m.sel.Recipients[i] != want[i] {
			t.Errorf("Recipients[%d] = %q, want %q", i, m.sel.Recipients[i], want[i])
		}
	}
	if m.typing {
		t.Error("entry still focused after commit")
	}
}

func TestResetClearsEverything(t *testing.T) {
	m := newTestModel(t)
	m.toggle(marking.FieldSecret)
	m.toggle(marking.FieldNOFORN)
	m.sel.SetDerivedFrom("SCG-7")

	m.Update(keyRune('r'))

	if m.sel.IsLevelSet() || !m.sel.Controls.Empty() || m.sel.DerivedFrom != "" {
		t.Errorf("selection not empty after reset: %+v", m.sel)
	}
}

func TestCancelKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{keyRune('q'), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m := newTestModel(t)
		_, cmd := m.Update(key)
		if !m.Canceled() {
			t.Errorf("Canceled() = false after %q", key.String())
		}
		if cmd == nil {
			t.Errorf("no quit command after %q", key.String())
		}
	}
}

func TestViewShowsBannerAndSections(t *testing.T) {
	m := newTestModel(t)
	m.toggle(marking.FieldSecret)

	got := m.View()
	for _, want := range []string{"Classification", "Dissemination", "SECRET"} {
		if !strings.Contains(got, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
