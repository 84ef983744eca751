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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "godiagram/internal/log"
	"godiagram/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the local SQLite schema for the embedded index.
// Bump when performing breaking schema changes and add migrations.
const schemaVersion = 2

// IndexPath returns the full path to the workspace's embedded index database.
func IndexPath(root string) string {
	return filepath.Join(root, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures the per-workspace SQLite index exists at
// .gdg/index.sqlite, opens it, enables WAL mode, and brings the schema up to
// date. The returned *sql.DB is ready for use.
func InitOrOpenIndex(root string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", root),
	)
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	path := IndexPath(root)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the index tables and FTS structures.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// One row per diagram element, refreshed from the scene on save.
		`CREATE TABLE IF NOT EXISTS elements (
			doc_id     INTEGER PRIMARY KEY,
			path       TEXT NOT NULL,
			element_id TEXT NOT NULL,
			kind       TEXT NOT NULL,
			label      TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_elements_path_id ON elements(path, element_id);`,

		// Contentless FTS index over labels, fed from elements via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_labels USING fts5(
			label,
			content='',
			tokenize = 'unicode61'
		);`,

		// Autosave snapshots of the whole document.
		`CREATE TABLE IF NOT EXISTS autosaves (
			id   INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			ts   TEXT NOT NULL,
			xml  BLOB NOT NULL
		);`,

		// Recently opened diagram files.
		`CREATE TABLE IF NOT EXISTS recents (
			path        TEXT PRIMARY KEY,
			last_opened TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS elements_ai AFTER INSERT ON elements BEGIN
			INSERT INTO fts_labels(rowid, label) VALUES (new.doc_id, new.label);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS elements_ad AFTER DELETE ON elements BEGIN
			INSERT INTO fts_labels(fts_labels, rowid, label) VALUES ('delete', old.doc_id, old.label);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS elements_au AFTER UPDATE OF label ON elements BEGIN
			INSERT INTO fts_labels(fts_labels, rowid, label) VALUES ('delete', old.doc_id, old.label);
			INSERT INTO fts_labels(rowid, label) VALUES (new.doc_id, new.label);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Never downgrade a newer index.
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_autosaves_path_ts ON autosaves(path, ts);`,
				`CREATE INDEX IF NOT EXISTS idx_recents_last_opened ON recents(last_opened);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
		}
		cur = next
	}
	return nil
}

// SaveAutosave persists an autosave snapshot of the document text.
func SaveAutosave(ctx context.Context, w *Workspace, xmlText string, ts time.Time) error {
	if w == nil {
		return errors.New("nil workspace")
	}
	db, err := InitOrOpenIndex(w.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, `INSERT INTO autosaves(path, ts, xml) VALUES (?, ?, ?)`,
		w.Path, ts.UTC().Format(time.RFC3339Nano), []byte(xmlText))
	return err
}

// LatestAutosave returns the most recent autosave for the document, or ""
// with a zero time when none exists.
func LatestAutosave(ctx context.Context, w *Workspace) (string, time.Time, error) {
	if w == nil {
		return "", time.Time{}, errors.New("nil workspace")
	}
	db, err := InitOrOpenIndex(w.Root)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var blob []byte
	err = db.QueryRowContext(ctx,
		`SELECT ts, xml FROM autosaves WHERE path = ? ORDER BY ts DESC LIMIT 1`, w.Path).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}
	ts, perr := time.Parse(time.RFC3339Nano, tsStr)
	if perr != nil {
		return string(blob), time.Time{}, nil
	}
	return string(blob), ts, nil
}

// PruneAutosaves keeps at most keepLast autosaves for the document.
func PruneAutosaves(ctx context.Context, w *Workspace, keepLast int) (int64, error) {
	if w == nil {
		return 0, errors.New("nil workspace")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(w.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, `DELETE FROM autosaves WHERE path = ? AND id NOT IN (
		SELECT id FROM autosaves WHERE path = ? ORDER BY ts DESC LIMIT ?
	)`, w.Path, w.Path, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TouchRecent records the document as recently opened.
func TouchRecent(ctx context.Context, w *Workspace) error {
	if w == nil {
		return errors.New("nil workspace")
	}
	db, err := InitOrOpenIndex(w.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, `INSERT INTO recents(path, last_opened) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET last_opened = excluded.last_opened`,
		w.Path, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Recents lists recently opened diagram paths in the workspace, newest first.
func Recents(ctx context.Context, root string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, `SELECT path FROM recents ORDER BY last_opened DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
