// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefault verifies the built-in table parses and carries the entries
// the engine depends on.
func TestDefault(t *testing.T) {
	c := Default()

	if len(c.Countries) < 50 {
		t.Errorf("len(Countries) = %d, want a full table", len(c.Countries))
	}
	idx := c.TrigraphIndex()
	for name, tri := range map[string]string{
		"United States":  "USA",
		"Germany":        "DEU",
		"United Kingdom": "GBR",
		"New Zealand":    "NZL",
	} {
		if got := idx[name]; got != tri {
			t.Errorf("TrigraphIndex[%q] = %q, want %q", name, got, tri)
		}
	}

	fvey := c.Groups["FVEY"]
	if len(fvey) != 4 {
		t.Errorf("FVEY = %v, want 4 members", fvey)
	}
	if len(c.Groups["ACGU"]) != 3 {
		t.Errorf("ACGU = %v, want 3 members", c.Groups["ACGU"])
	}
	if len(c.Shortcuts) != 8 {
		t.Errorf("len(Shortcuts) = %d, want 8", len(c.Shortcuts))
	}
	if c.Shortcuts[0] != "USA, FVEY" {
		t.Errorf("Shortcuts[0] = %q, want %q", c.Shortcuts[0], "USA, FVEY")
	}
}

// TestLoad_MissingOverlay verifies a missing overlay file falls back to the
// built-in table without error.
func TestLoad_MissingOverlay(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Countries) != len(Default().Countries) {
		t.Errorf("missing overlay altered the table: %d countries", len(c.Countries))
	}
}

// TestLoad_OverlayMerge verifies overlay countries replace by trigraph,
// new entries append, and groups merge by name.
func TestLoad_OverlayMerge(t *testing.T) {
	overlay := `
countries:
  - {name: Deutschland, trigraph: DEU}
  - {name: Kosovo, trigraph: XKX}
groups:
  NATO: [BEL, CAN, DEU, FRA, GBR, ITA, NLD, NOR, POL, TUR]
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if name, ok := c.LookupName("DEU"); !ok || name != "Deutschland" {
		t.Errorf("LookupName(DEU) = %q, %v, want overlay name", name, ok)
	}
	if _, ok := c.LookupName("XKX"); !ok {
		t.Error("overlay country XKX not merged")
	}
	if len(c.Groups["NATO"]) != 10 {
		t.Errorf("NATO group = %v, want 10 members", c.Groups["NATO"])
	}
	if len(c.Groups["FVEY"]) != 4 {
		t.Error("built-in FVEY group lost in merge")
	}
	if len(c.Shortcuts) != 8 {
		t.Error("empty overlay shortcut list replaced the built-in one")
	}
}

// TestLoad_InvalidOverlay verifies malformed and inconsistent overlays are
// rejected.
func TestLoad_InvalidOverlay(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "countries: ["},
		{name: "bad trigraph", content: "countries:\n  - {name: Atlantis, trigraph: ATLANTIS}"},
		{name: "missing name", content: "countries:\n  - {trigraph: ZZZ}"},
		{name: "empty group", content: "groups:\n  FVEY: []"},
		{name: "bad group member", content: "groups:\n  FVEY: [aus]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load accepted invalid overlay")
			}
		})
	}
}

// TestValidate_DuplicateTrigraph verifies duplicate trigraphs are caught.
func TestValidate_DuplicateTrigraph(t *testing.T) {
	c := &Catalog{Countries: []Country{
		{Name: "Germany", Trigraph: "DEU"},
		{Name: "Deutschland", Trigraph: "DEU"},
	}}
	if err := c.Validate(); err == nil {
		t.Error("Validate accepted duplicate trigraph")
	}
}

// TestNames verifies display names come back sorted.
func TestNames(t *testing.T) {
	names := Default().Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("Names() not sorted: %q > %q", names[i-1], names[i])
		}
	}
}

// TestWatcher_ReloadOnChange verifies an overlay edit reaches the reload
// callback with the merged table.
func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte("countries:\n  - {name: Kosovo, trigraph: XKX}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reloaded := make(chan *Catalog, 1)
	w, err := NewWatcher(path, 50*time.Millisecond, func(c *Catalog) {
		select {
		case reloaded <- c:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("countries:\n  - {name: Scotland, trigraph: SCT}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case c := <-reloaded:
		if _, ok := c.LookupName("SCT"); !ok {
			t.Error("reloaded catalog missing overlay entry")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("reload callback never fired")
	}
}
