// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry persists finalized portion markings per document so a
// document banner can be recomputed from its parts at any time.
package registry

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// SQLite schema for the marking registry
const Schema = `
-- Metadata table for schema version and registry state
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Documents table: one row per marked document
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,          -- UUID
    title TEXT NOT NULL,
    created_at INTEGER NOT NULL,  -- Unix timestamp
    updated_at INTEGER NOT NULL   -- Unix timestamp
);

CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at);

-- Portions table: finalized markings in document order
CREATE TABLE IF NOT EXISTS portions (
    id TEXT PRIMARY KEY,          -- UUID
    document_id TEXT NOT NULL,
    seq INTEGER NOT NULL,         -- position within the document
    portion_marking TEXT NOT NULL,
    banner_marking TEXT NOT NULL,
    derived_from TEXT,
    declassify_on TEXT,
    created_at INTEGER NOT NULL,  -- Unix timestamp
    FOREIGN KEY(document_id) REFERENCES documents(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_portions_document ON portions(document_id, seq);
`

// InitMetadata seeds the metadata table
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
