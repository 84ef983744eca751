/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"godiagram/internal/scene"
)

// SearchResult is one label match from the workspace index.
type SearchResult struct {
	Path      string // diagram file the element lives in
	ElementID string
	Kind      string // "vertex" or "edge"
	Snippet   string // highlighted excerpt using [ ] markers
}

// IndexScene refreshes the label index rows for the document from the scene.
// Stale rows for the document are dropped first so deleted elements leave
// the index.
func IndexScene(ctx context.Context, w *Workspace, s *scene.Scene) error {
	if w == nil {
		return errors.New("nil workspace")
	}
	db, err := InitOrOpenIndex(w.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM elements WHERE path = ?`, w.Path); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, el := range s.Elements() {
		kind := "vertex"
		if _, ok := el.(*scene.Edge); ok {
			kind = "edge"
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO elements(path, element_id, kind, label) VALUES (?, ?, ?, ?)`,
			w.Path, el.ID(), kind, el.Value()); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SearchLabels runs a full-text query over element labels. Query text uses
// FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT). An empty query
// falls back to a plain scan of labelled elements.
func SearchLabels(ctx context.Context, root, query string, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	return searchDB(ctx, db, query, limit)
}

func searchDB(ctx context.Context, db *sql.DB, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	if strings.TrimSpace(query) != "" {
		rows, err = db.QueryContext(ctx, `
			SELECT e.path, e.element_id, e.kind, snippet(fts_labels, 0, '[', ']', '…', 10)
			FROM fts_labels JOIN elements e ON fts_labels.rowid = e.doc_id
			WHERE fts_labels MATCH ?
			ORDER BY rank
			LIMIT ?`, query, limit)
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT path, element_id, kind, COALESCE(label, '')
			FROM elements
			WHERE label IS NOT NULL AND label != ''
			ORDER BY path, element_id
			LIMIT ?`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.ElementID, &r.Kind, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
