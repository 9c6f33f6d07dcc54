// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/markforge/internal/marking"
	"github.com/jeranaias/markforge/internal/registry"
)

// =============================================================================
// ARCHIVE
// =============================================================================

// ArchiveVersion is the payload schema version inside the envelope.
const ArchiveVersion = 1

// Archive is the registry snapshot carried inside an encrypted export.
// Document and portion IDs are minted fresh on restore, so only the
// content travels.
type Archive struct {
	Version    int                `json:"version"`
	ExportedAt time.Time          `json:"exported_at"`
	Documents  []ArchivedDocument `json:"documents"`
}

// ArchivedDocument is one document with its portions in display order.
type ArchivedDocument struct {
	Title    string                     `json:"title"`
	Portions []marking.FinalizedMarking `json:"portions"`
}

// BuildArchive snapshots every document in the registry.
func BuildArchive(r *registry.Registry) (*Archive, error) {
	docs, err := r.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	a := &Archive{
		Version:    ArchiveVersion,
		ExportedAt: time.Now().UTC(),
		Documents:  make([]ArchivedDocument, 0, len(docs)),
	}
	for _, doc := range docs {
		portions, err := r.ListPortions(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list portions of %s: %w", doc.ID, err)
		}
		ad := ArchivedDocument{Title: doc.Title}
		for _, p := range portions {
			ad.Portions = append(ad.Portions, p.Marking)
		}
		a.Documents = append(a.Documents, ad)
	}
	return a, nil
}

// RestoreArchive inserts every archived document into the registry as a
// new document. Returns the number of documents and portions created.
func RestoreArchive(r *registry.Registry, a *Archive) (docs, portions int, err error) {
	if a.Version > ArchiveVersion {
		return 0, 0, fmt.Errorf("%w: archive version %d", ErrUnsupportedVersion, a.Version)
	}

	for _, ad := range a.Documents {
		doc, err := r.CreateDocument(ad.Title)
		if err != nil {
			return docs, portions, fmt.Errorf("failed to restore document %q: %w", ad.Title, err)
		}
		docs++
		for _, m := range ad.Portions {
			if _, err := r.AddPortion(doc.ID, m); err != nil {
				return docs, portions, fmt.Errorf("failed to restore portion of %q: %w", ad.Title, err)
			}
			portions++
		}
	}
	return docs, portions, nil
}

// =============================================================================
// REGISTRY EXPORT / IMPORT
// =============================================================================

// ExportRegistry snapshots the registry and writes it to an encrypted
// file at path.
func ExportRegistry(r *registry.Registry, path, passphrase string, iterations int) (*Archive, error) {
	a, err := BuildArchive(r)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal archive: %w", err)
	}

	if err := WriteFile(path, passphrase, iterations, payload); err != nil {
		return nil, err
	}
	return a, nil
}

// ImportRegistry reads an encrypted export file and restores its contents
// into the registry.
func ImportRegistry(r *registry.Registry, path, passphrase string) (docs, portions int, err error) {
	payload, err := ReadFile(path, passphrase)
	if err != nil {
		return 0, 0, err
	}

	var a Archive
	if err := json.Unmarshal(payload, &a); err != nil {
		return 0, 0, fmt.Errorf("failed to parse archive: %w", err)
	}
	return RestoreArchive(r, &a)
}
