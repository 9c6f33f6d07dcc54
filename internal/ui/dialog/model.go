// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dialog

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/markforge/internal/catalog"
	"github.com/jeranaias/markforge/internal/marking"
	"github.com/jeranaias/markforge/internal/ui/components"
	"github.com/jeranaias/markforge/internal/ui/styles"
)

// rowKind discriminates what a dialog row is.
type rowKind int

const (
	rowToggle rowKind = iota
	rowFGIEntry
	rowRelToEntry
	rowDerivedFrom
	rowDeclassifyOn
	rowOK
)

// row is one navigable line of the dialog.
type row struct {
	kind  rowKind
	field marking.Field
	// section header printed above the row, empty for rows that continue
	// the previous section
	section string
}

// dialogRows is the fixed navigation order. Availability decides which
// rows are reachable at any moment; the order itself never changes so
// the cursor cannot jump around as cascades fire.
var dialogRows = []row{
	{rowToggle, marking.FieldTopSecret, "Classification"},
	{rowToggle, marking.FieldSecret, ""},
	{rowToggle, marking.FieldConfidential, ""},
	{rowToggle, marking.FieldUnclassified, ""},
	{rowToggle, marking.FieldExercise, ""},
	{rowToggle, marking.FieldHCSP, "SCI Control System"},
	{rowToggle, marking.FieldSI, ""},
	{rowToggle, marking.FieldSIG, ""},
	{rowToggle, marking.FieldTK, ""},
	{rowFGIEntry, marking.FieldFGI, "Foreign Government Information"},
	{rowToggle, marking.FieldRSEN, "Dissemination"},
	{rowToggle, marking.FieldFOUO, ""},
	{rowToggle, marking.FieldORCON, ""},
	{rowToggle, marking.FieldORCONUSGov, ""},
	{rowToggle, marking.FieldIMCON, ""},
	{rowToggle, marking.FieldRELTO, ""},
	{rowRelToEntry, marking.FieldRELTOEntry, ""},
	{rowToggle, marking.FieldRELIDO, ""},
	{rowToggle, marking.FieldNOFORN, ""},
	{rowToggle, marking.FieldFISA, ""},
	{rowDerivedFrom, marking.FieldDerivedFrom, "Classification Authority"},
	{rowDeclassifyOn, marking.FieldDeclassifyOn, ""},
	{rowOK, marking.FieldExercise, ""},
}

// Model is the bubbletea model for one marking decision. Every toggle
// routes through the constraint engine; the dialog itself holds no
// marking rules, only a cursor and entry widgets.
type Model struct {
	theme   *styles.Theme
	catalog *catalog.Catalog
	asm     *marking.Assembler

	sel    marking.Selection
	cursor int

	fgiInput     textinput.Model
	relToInput   textinput.Model
	derivedInput textinput.Model
	declassInput textinput.Model
	typing       bool

	banner      *components.BannerBar
	preview     *components.Preview
	showPreview bool

	errMsg   string
	result   *marking.FinalizedMarking
	canceled bool

	width  int
	height int
}

// New creates a marking dialog over the given catalog.
func New(theme *styles.Theme, cat *catalog.Catalog, showPreview bool) *Model {
	fgi := textinput.New()
	fgi.Placeholder = "country name or trigraph"
	fgi.CharLimit = 64

	relTo := textinput.New()
	relTo.Placeholder = "USA, FVEY"
	relTo.CharLimit = 128

	derived := textinput.New()
	derived.Placeholder = "source document or SCG"
	derived.CharLimit = 128

	declass := textinput.New()
	declass.Placeholder = "e.g. 20501231 or 25X1"
	declass.CharLimit = 64

	m := &Model{
		theme:        theme,
		catalog:      cat,
		asm:          marking.NewAssembler(cat.TrigraphIndex(), cat.Groups),
		sel:          marking.NewSelection(),
		fgiInput:     fgi,
		relToInput:   relTo,
		derivedInput: derived,
		declassInput: declass,
		banner:       components.NewBannerBar(marking.LevelNone, "SELECT CLASSIFICATION"),
		preview:      components.NewPreview(),
		showPreview:  showPreview,
		width:        80,
		height:       24,
	}
	m.refresh()
	return m
}

// Selection returns the current in-progress selection.
func (m *Model) Selection() marking.Selection {
	return m.sel
}

// Result returns the finalized marking, if the dialog was confirmed.
func (m *Model) Result() (marking.FinalizedMarking, bool) {
	if m.result == nil {
		return marking.FinalizedMarking{}, false
	}
	return *m.result, true
}

// Canceled reports whether the dialog was dismissed without rendering.
func (m *Model) Canceled() bool {
	return m.canceled
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.banner.SetWidth(msg.Width)
		m.preview.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if m.typing {
			return m.updateTyping(msg)
		}
		return m.updateNav(msg)
	}
	return m, nil
}

// updateNav handles keys while no entry field has focus.
func (m *Model) updateNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.canceled = true
		return m, tea.Quit

	case "up", "k":
		m.move(-1)
		return m, nil

	case "down", "j", "tab":
		m.move(1)
		return m, nil

	case "r":
		m.sel.Reset()
		m.clearInputs()
		m.errMsg = ""
		m.refresh()
		return m, nil

	case " ", "enter":
		return m.activate()
	}
	return m, nil
}

// updateTyping handles keys while an entry field has focus.
func (m *Model) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.canceled = true
		return m, tea.Quit

	case "esc":
		m.blurInputs()
		return m, nil

	case "enter":
		m.commitEntry()
		return m, nil

	case "ctrl+x":
		// On the FGI row, drop the most recently added country.
		if dialogRows[m.cursor].kind == rowFGIEntry && len(m.sel.FGI) > 0 {
			last := m.sel.FGI[len(m.sel.FGI)-1]
			if err := m.sel.RemoveFGI(last); err == nil {
				m.refresh()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch dialogRows[m.cursor].kind {
	case rowFGIEntry:
		m.fgiInput, cmd = m.fgiInput.Update(msg)
	case rowRelToEntry:
		m.relToInput, cmd = m.relToInput.Update(msg)
	case rowDerivedFrom:
		m.derivedInput, cmd = m.derivedInput.Update(msg)
	case rowDeclassifyOn:
		m.declassInput, cmd = m.declassInput.Update(msg)
	}
	return m, cmd
}

// move advances the cursor to the next reachable row in the given
// direction, wrapping at either end.
func (m *Model) move(dir int) {
	for i := 0; i < len(dialogRows); i++ {
		m.cursor = (m.cursor + dir + len(dialogRows)) % len(dialogRows)
		if m.reachable(dialogRows[m.cursor]) {
			return
		}
	}
}

// reachable reports whether the cursor may land on the row right now.
// The OK row is always reachable; everything else follows availability.
func (m *Model) reachable(r row) bool {
	if r.kind == rowOK {
		return true
	}
	return marking.Available(m.sel, r.field)
}

// activate performs the action of the row under the cursor.
func (m *Model) activate() (tea.Model, tea.Cmd) {
	r := dialogRows[m.cursor]
	switch r.kind {
	case rowToggle:
		m.toggle(r.field)

	case rowFGIEntry, rowRelToEntry, rowDerivedFrom, rowDeclassifyOn:
		m.focusInput(r.kind)

	case rowOK:
		return m.finalize()
	}
	return m, nil
}

// toggle flips one field through the constraint engine.
func (m *Model) toggle(f marking.Field) {
	on := !fieldOn(m.sel, f)
	next, err := marking.Next(m.sel, marking.Toggle{Field: f, On: on})
	if err != nil {
		// Unreachable when navigation gates on availability; surfacing it
		// beats hiding a bug.
		m.errMsg = err.Error()
		return
	}
	m.sel = next
	m.errMsg = ""
	m.refresh()
}

// fieldOn reads the current boolean state of a toggleable field.
func fieldOn(s marking.Selection, f marking.Field) bool {
	if f == marking.FieldExercise {
		return s.Exercise
	}
	if lv := f.Level(); lv != marking.LevelNone {
		return s.Level == lv
	}
	if c, ok := f.Caveat(); ok {
		return s.HasCaveat(c)
	}
	if c, ok := f.Control(); ok {
		return s.HasControl(c)
	}
	return false
}

// focusInput gives keyboard focus to the entry widget on the row.
func (m *Model) focusInput(kind rowKind) {
	m.typing = true
	switch kind {
	case rowFGIEntry:
		m.fgiInput.Focus()
	case rowRelToEntry:
		m.relToInput.SetValue(joinRecipients(m.sel.Recipients))
		m.relToInput.Focus()
	case rowDerivedFrom:
		m.derivedInput.SetValue(m.sel.DerivedFrom)
		m.derivedInput.Focus()
	case rowDeclassifyOn:
		m.declassInput.SetValue(m.sel.DeclassifyOn)
		m.declassInput.Focus()
	}
}

// blurInputs drops entry focus without committing.
func (m *Model) blurInputs() {
	m.typing = false
	m.fgiInput.Blur()
	m.relToInput.Blur()
	m.derivedInput.Blur()
	m.declassInput.Blur()
}

// commitEntry applies the focused entry field to the selection.
func (m *Model) commitEntry() {
	switch dialogRows[m.cursor].kind {
	case rowFGIEntry:
		name, ok := m.resolveCountry(m.fgiInput.Value())
		if !ok {
			m.errMsg = "unknown country: " + m.fgiInput.Value()
			return
		}
		if err := m.sel.AddFGI(name); err != nil {
			m.errMsg = err.Error()
			return
		}
		m.fgiInput.SetValue("")
		m.errMsg = ""
		m.refresh()
		return

	case rowRelToEntry:
		m.sel.SetRecipients(m.relToInput.Value())

	case rowDerivedFrom:
		m.sel.SetDerivedFrom(m.derivedInput.Value())

	case rowDeclassifyOn:
		m.sel.SetDeclassifyOn(m.declassInput.Value())
	}
	m.blurInputs()
	m.errMsg = ""
	m.refresh()
}

// resolveCountry matches a dialog entry against the catalog: exact name,
// trigraph, or unique name prefix. Only an all-caps three-letter entry is
// read as a trigraph, so a prefix like "Nor" stays ambiguous instead of
// matching NOR.
func (m *Model) resolveCountry(entry string) (string, bool) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return "", false
	}
	if _, ok := m.catalog.TrigraphIndex()[entry]; ok {
		return entry, true
	}
	if len(entry) == 3 && entry == strings.ToUpper(entry) {
		if name, ok := m.catalog.LookupName(entry); ok {
			return name, true
		}
	}
	matches := m.catalog.MatchNames(entry)
	if len(matches) == 1 {
		return matches[0], true
	}
	return "", false
}

// finalize renders the selection; validation failures stay in the
// dialog, a successful render ends it.
func (m *Model) finalize() (tea.Model, tea.Cmd) {
	rendered, err := m.asm.Render(m.sel)
	if err != nil {
		var verr *marking.ValidationError
		if errors.As(err, &verr) {
			m.errMsg = verr.Message
			return m, nil
		}
		m.errMsg = err.Error()
		return m, nil
	}
	m.result = &rendered
	return m, tea.Quit
}

// clearInputs resets every entry widget.
func (m *Model) clearInputs() {
	m.blurInputs()
	m.fgiInput.SetValue("")
	m.relToInput.SetValue("")
	m.derivedInput.SetValue("")
	m.declassInput.SetValue("")
}

// refresh recomputes the banner bar and preview from the selection.
func (m *Model) refresh() {
	rendered, err := m.asm.Render(m.sel)
	if err != nil {
		m.preview.SetError(err)
		m.banner.SetMarking(m.sel.Level, bannerFallback(m.sel))
		return
	}
	m.preview.SetMarking(rendered)
	m.banner.SetMarking(m.sel.Level, rendered.BannerMarking)
}

// bannerFallback is the bar text while the selection cannot render yet.
func bannerFallback(s marking.Selection) string {
	if s.Exercise {
		return marking.BannerExercise
	}
	if s.Level == marking.LevelNone {
		return "SELECT CLASSIFICATION"
	}
	return s.Level.String()
}

// joinRecipients renders the recipient tokens back to entry text.
func joinRecipients(recipients []string) string {
	out := ""
	for i, r := range recipients {
		if i > 0 {
			out += ", "
		}
		out += r
	}
	return out
}
