// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jeranaias/markforge/internal/marking"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "registry.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

// TestRegistry_DocumentLifecycle covers create, get, list, and delete.
func TestRegistry_DocumentLifecycle(t *testing.T) {
	r := openTestRegistry(t)

	doc, err := r.CreateDocument("OPLAN Annex B")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("document ID empty")
	}

	got, err := r.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Title != "OPLAN Annex B" || got.Portions != 0 {
		t.Errorf("GetDocument = %+v", got)
	}

	docs, err := r.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("len(docs) = %d, want 1", len(docs))
	}

	if err := r.DeleteDocument(doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := r.GetDocument(doc.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("GetDocument after delete: err = %v, want ErrDocumentNotFound", err)
	}
	if err := r.DeleteDocument(doc.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("double delete: err = %v, want ErrDocumentNotFound", err)
	}
}

// TestRegistry_Portions covers portion ordering, retrieval, and cascade
// delete.
func TestRegistry_Portions(t *testing.T) {
	r := openTestRegistry(t)

	doc, err := r.CreateDocument("INTSUM 24-117")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	first := marking.FinalizedMarking{
		PortionMarking: "(S//NF)",
		BannerMarking:  "SECRET//NOFORN",
		DerivedFrom:    "ACME SCG v3",
		DeclassifyOn:   "20451231",
	}
	second := marking.FinalizedMarking{
		PortionMarking: "(U)",
		BannerMarking:  "UNCLASSIFIED",
		DerivedFrom:    "ACME SCG v3",
	}

	p1, err := r.AddPortion(doc.ID, first)
	if err != nil {
		t.Fatalf("AddPortion: %v", err)
	}
	p2, err := r.AddPortion(doc.ID, second)
	if err != nil {
		t.Fatalf("AddPortion: %v", err)
	}
	if p1.Seq != 1 || p2.Seq != 2 {
		t.Errorf("seq = %d, %d, want 1, 2", p1.Seq, p2.Seq)
	}

	portions, err := r.ListPortions(doc.ID)
	if err != nil {
		t.Fatalf("ListPortions: %v", err)
	}
	if len(portions) != 2 {
		t.Fatalf("len(portions) = %d, want 2", len(portions))
	}
	if portions[0].Marking != first {
		t.Errorf("portions[0].Marking = %+v, want %+v", portions[0].Marking, first)
	}

	got, err := r.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Portions != 2 {
		t.Errorf("Portions = %d, want 2", got.Portions)
	}

	if err := r.RemovePortion(p1.ID); err != nil {
		t.Fatalf("RemovePortion: %v", err)
	}
	if err := r.RemovePortion(p1.ID); !errors.Is(err, ErrPortionNotFound) {
		t.Errorf("double remove: err = %v, want ErrPortionNotFound", err)
	}

	// Deleting the document cascades to its portions.
	if err := r.DeleteDocument(doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	stats, err := r.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Documents != 0 || stats.Portions != 0 {
		t.Errorf("Stats = %+v, want empty", stats)
	}
}

// TestRegistry_AddPortionToMissingDocument verifies the foreign document
// check.
func TestRegistry_AddPortionToMissingDocument(t *testing.T) {
	r := openTestRegistry(t)
	_, err := r.AddPortion("no-such-id", marking.FinalizedMarking{BannerMarking: "UNCLASSIFIED"})
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}

// TestRegistry_DocumentBanner verifies aggregation over stored portions.
func TestRegistry_DocumentBanner(t *testing.T) {
	r := openTestRegistry(t)

	doc, err := r.CreateDocument("Fusion Report")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	for _, banner := range []string{
		"SECRET//REL TO USA, CAN, GBR",
		"CONFIDENTIAL//REL TO USA, CAN",
		"UNCLASSIFIED",
	} {
		if _, err := r.AddPortion(doc.ID, marking.FinalizedMarking{BannerMarking: banner}); err != nil {
			t.Fatalf("AddPortion(%q): %v", banner, err)
		}
	}

	banner, err := r.DocumentBanner(doc.ID)
	if err != nil {
		t.Fatalf("DocumentBanner: %v", err)
	}
	if want := "SECRET//REL TO USA, CAN"; banner != want {
		t.Errorf("DocumentBanner = %q, want %q", banner, want)
	}

	empty, err := r.CreateDocument("Empty")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if _, err := r.DocumentBanner(empty.ID); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("empty document: err = %v, want ErrEmptyDocument", err)
	}
}

// TestRegistry_Reopen verifies data survives close and reopen.
func TestRegistry_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")

	r, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	doc, err := r.CreateDocument("Persistent")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if _, err := r.AddPortion(doc.ID, marking.FinalizedMarking{
		PortionMarking: "(U)", BannerMarking: "UNCLASSIFIED",
	}); err != nil {
		t.Fatalf("AddPortion: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()

	got, err := r2.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("GetDocument after reopen: %v", err)
	}
	if got.Portions != 1 {
		t.Errorf("Portions = %d, want 1", got.Portions)
	}
}
