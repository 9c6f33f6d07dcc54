// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/markforge/internal/marking"
)

func TestBannerBarDefaultsToLevelName(t *testing.T) {
	b := NewBannerBar(marking.LevelSecret, "")
	if !strings.Contains(b.ViewPlain(), "SECRET") {
		t.Errorf("ViewPlain() = %q, want SECRET text", b.ViewPlain())
	}
}

func TestBannerBarViewPlain(t *testing.T) {
	b := NewBannerBar(marking.LevelUnclassified, "UNCLASSIFIED//FOUO")
	b.SetWidth(60)

	got := b.ViewPlain()
	if !strings.Contains(got, " UNCLASSIFIED//FOUO ") {
		t.Errorf("ViewPlain() = %q, want banner text with spacing", got)
	}
	if !strings.HasPrefix(got, "=") || !strings.HasSuffix(got, "=") {
		t.Errorf("ViewPlain() = %q, want = fills on both sides", got)
	}
}

func TestBannerBarSetMarking(t *testing.T) {
	b := NewBannerBar(marking.LevelUnclassified, "")
	b.SetMarking(marking.LevelTopSecret, "TOP SECRET//SI/TK//NOFORN")

	if b.Level() != marking.LevelTopSecret {
		t.Errorf("Level() = %v, want LevelTopSecret", b.Level())
	}
	if !strings.Contains(b.ViewPlain(), "TOP SECRET//SI/TK//NOFORN") {
		t.Errorf("ViewPlain() missing updated banner: %q", b.ViewPlain())
	}
}

func TestBannerBarHeight(t *testing.T) {
	if h := NewBannerBar(marking.LevelSecret, "").Height(); h != 1 {
		t.Errorf("Height() = %d, want 1", h)
	}
}
