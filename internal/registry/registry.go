// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/markforge/internal/marking"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrPortionNotFound  = errors.New("portion not found")
	ErrEmptyDocument    = errors.New("document has no portions")
)

// =============================================================================
// TYPES
// =============================================================================

// Document is one marked document tracked by the registry.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Portions  int       `json:"portions"`
}

// Portion is one stored finalized marking within a document.
type Portion struct {
	ID         string                   `json:"id"`
	DocumentID string                   `json:"document_id"`
	Seq        int                      `json:"seq"`
	Marking    marking.FinalizedMarking `json:"marking"`
	CreatedAt  time.Time                `json:"created_at"`
}

// Stats summarizes registry contents.
type Stats struct {
	Documents int `json:"documents"`
	Portions  int `json:"portions"`
}

// Registry is a SQLite-backed store of finalized markings. All methods are
// safe for concurrent use; SQLite serializes writers through the single
// connection.
type Registry struct {
	db  *sql.DB
	agg *marking.Aggregator
}

// =============================================================================
// OPEN / CLOSE
// =============================================================================

// Open opens (or creates) the registry database at path. Aggregation of
// stored portions uses the given releasability group table; nil means the
// built-in groups.
func Open(path string, groups map[string][]string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed metadata: %w", err)
	}

	return &Registry{db: db, agg: marking.NewAggregator(groups)}, nil
}

// Close closes the registry database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// CreateDocument registers a new document and returns it.
func (r *Registry) CreateDocument(title string) (Document, error) {
	doc := Document{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_, err := r.db.Exec(
		"INSERT INTO documents (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)",
		doc.ID, doc.Title, doc.CreatedAt.Unix(), doc.UpdatedAt.Unix(),
	)
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// GetDocument returns one document by ID.
func (r *Registry) GetDocument(id string) (Document, error) {
	row := r.db.QueryRow(`
		SELECT d.id, d.title, d.created_at, d.updated_at,
		       (SELECT COUNT(*) FROM portions p WHERE p.document_id = d.id)
		FROM documents d WHERE d.id = ?`, id)

	var doc Document
	var created, updated int64
	if err := row.Scan(&doc.ID, &doc.Title, &created, &updated, &doc.Portions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrDocumentNotFound
		}
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	doc.CreatedAt = time.Unix(created, 0)
	doc.UpdatedAt = time.Unix(updated, 0)
	return doc, nil
}

// ListDocuments returns all documents, most recently updated first.
func (r *Registry) ListDocuments() ([]Document, error) {
	rows, err := r.db.Query(`
		SELECT d.id, d.title, d.created_at, d.updated_at,
		       (SELECT COUNT(*) FROM portions p WHERE p.document_id = d.id)
		FROM documents d ORDER BY d.updated_at DESC, d.id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var created, updated int64
		if err := rows.Scan(&doc.ID, &doc.Title, &created, &updated, &doc.Portions); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.CreatedAt = time.Unix(created, 0)
		doc.UpdatedAt = time.Unix(updated, 0)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document and its portions.
func (r *Registry) DeleteDocument(id string) error {
	res, err := r.db.Exec("DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// =============================================================================
// PORTIONS
// =============================================================================

// AddPortion appends a finalized marking to the document.
func (r *Registry) AddPortion(documentID string, m marking.FinalizedMarking) (Portion, error) {
	if _, err := r.GetDocument(documentID); err != nil {
		return Portion{}, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return Portion{}, fmt.Errorf("add portion: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRow(
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM portions WHERE document_id = ?",
		documentID,
	).Scan(&seq); err != nil {
		return Portion{}, fmt.Errorf("next portion seq: %w", err)
	}

	p := Portion{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Seq:        seq,
		Marking:    m,
		CreatedAt:  time.Now(),
	}
	_, err = tx.Exec(`
		INSERT INTO portions
		  (id, document_id, seq, portion_marking, banner_marking, derived_from, declassify_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.DocumentID, p.Seq,
		m.PortionMarking, m.BannerMarking, m.DerivedFrom, m.DeclassifyOn,
		p.CreatedAt.Unix(),
	)
	if err != nil {
		return Portion{}, fmt.Errorf("insert portion: %w", err)
	}

	if _, err := tx.Exec(
		"UPDATE documents SET updated_at = ? WHERE id = ?",
		time.Now().Unix(), documentID,
	); err != nil {
		return Portion{}, fmt.Errorf("touch document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Portion{}, fmt.Errorf("add portion: %w", err)
	}
	return p, nil
}

// ListPortions returns a document's portions in document order.
func (r *Registry) ListPortions(documentID string) ([]Portion, error) {
	if _, err := r.GetDocument(documentID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT id, document_id, seq, portion_marking, banner_marking,
		       derived_from, declassify_on, created_at
		FROM portions WHERE document_id = ? ORDER BY seq`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list portions: %w", err)
	}
	defer rows.Close()

	var portions []Portion
	for rows.Next() {
		var p Portion
		var created int64
		if err := rows.Scan(
			&p.ID, &p.DocumentID, &p.Seq,
			&p.Marking.PortionMarking, &p.Marking.BannerMarking,
			&p.Marking.DerivedFrom, &p.Marking.DeclassifyOn,
			&created,
		); err != nil {
			return nil, fmt.Errorf("scan portion: %w", err)
		}
		p.CreatedAt = time.Unix(created, 0)
		portions = append(portions, p)
	}
	return portions, rows.Err()
}

// RemovePortion deletes one portion by ID.
func (r *Registry) RemovePortion(portionID string) error {
	res, err := r.db.Exec("DELETE FROM portions WHERE id = ?", portionID)
	if err != nil {
		return fmt.Errorf("remove portion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPortionNotFound
	}
	return nil
}

// =============================================================================
// AGGREGATION
// =============================================================================

// DocumentBanner recomputes the document banner from the stored portions.
func (r *Registry) DocumentBanner(documentID string) (string, error) {
	portions, err := r.ListPortions(documentID)
	if err != nil {
		return "", err
	}
	if len(portions) == 0 {
		return "", ErrEmptyDocument
	}

	markings := make([]marking.FinalizedMarking, len(portions))
	for i, p := range portions {
		markings[i] = p.Marking
	}
	return r.agg.Aggregate(markings)
}

// Stats returns document and portion counts.
func (r *Registry) Stats() (Stats, error) {
	var s Stats
	if err := r.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&s.Documents); err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	if err := r.db.QueryRow("SELECT COUNT(*) FROM portions").Scan(&s.Portions); err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return s, nil
}
