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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitOrOpenIndexCreatesDatabase(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer func() { _ = db.Close() }()
	if _, err := os.Stat(IndexPath(root)); err != nil {
		t.Fatalf("index file not created: %v", err)
	}
	var schema int
	if err := db.QueryRow(`SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("schema = %d, want %d", schema, schemaVersion)
	}
}

func TestAutosaveRoundTripAndPrune(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	w := &Workspace{Root: root, Path: filepath.Join(root, "arch.xml")}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		xml := "snapshot-" + string(rune('a'+i))
		if err := SaveAutosave(ctx, w, xml, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("SaveAutosave %d: %v", i, err)
		}
	}

	text, ts, err := LatestAutosave(ctx, w)
	if err != nil {
		t.Fatalf("LatestAutosave: %v", err)
	}
	if text != "snapshot-e" {
		t.Fatalf("latest autosave content = %q", text)
	}
	if !ts.Equal(base.Add(4 * time.Minute)) {
		t.Fatalf("latest autosave ts = %v", ts)
	}

	removed, err := PruneAutosaves(ctx, w, 2)
	if err != nil {
		t.Fatalf("PruneAutosaves: %v", err)
	}
	if removed != 3 {
		t.Fatalf("pruned %d rows, want 3", removed)
	}
	text, _, err = LatestAutosave(ctx, w)
	if err != nil || text != "snapshot-e" {
		t.Fatalf("latest after prune = %q err %v", text, err)
	}
}

func TestLatestAutosaveEmpty(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	w := &Workspace{Root: root, Path: filepath.Join(root, "arch.xml")}
	text, ts, err := LatestAutosave(ctx, w)
	if err != nil {
		t.Fatalf("LatestAutosave: %v", err)
	}
	if text != "" || !ts.IsZero() {
		t.Fatalf("expected empty result, got %q %v", text, ts)
	}
}

func TestAutosavesAreScopedPerDocument(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	w1 := &Workspace{Root: root, Path: filepath.Join(root, "a.xml")}
	w2 := &Workspace{Root: root, Path: filepath.Join(root, "b.xml")}
	now := time.Now()
	if err := SaveAutosave(ctx, w1, "doc-a", now); err != nil {
		t.Fatalf("SaveAutosave: %v", err)
	}
	if err := SaveAutosave(ctx, w2, "doc-b", now); err != nil {
		t.Fatalf("SaveAutosave: %v", err)
	}
	text, _, err := LatestAutosave(ctx, w1)
	if err != nil || text != "doc-a" {
		t.Fatalf("w1 autosave = %q err %v", text, err)
	}
}

func TestRecentsOrderNewestFirst(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	first := &Workspace{Root: root, Path: filepath.Join(root, "first.xml")}
	second := &Workspace{Root: root, Path: filepath.Join(root, "second.xml")}

	if err := TouchRecent(ctx, first); err != nil {
		t.Fatalf("TouchRecent: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := TouchRecent(ctx, second); err != nil {
		t.Fatalf("TouchRecent: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	// Re-opening moves a document back to the front.
	if err := TouchRecent(ctx, first); err != nil {
		t.Fatalf("TouchRecent: %v", err)
	}

	got, err := Recents(ctx, root, 10)
	if err != nil {
		t.Fatalf("Recents: %v", err)
	}
	if len(got) != 2 || got[0] != first.Path || got[1] != second.Path {
		t.Fatalf("recents order wrong: %v", got)
	}
}
