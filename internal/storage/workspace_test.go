/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"godiagram/internal/mxgraph"
)

func TestInitAndReadWorkspace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arch.xml")
	w, err := InitWorkspace(path, mxgraph.EmptyDocument)
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	text, err := w.ReadDocument()
	if err != nil || text != mxgraph.EmptyDocument {
		t.Fatalf("ReadDocument got %d bytes err %v", len(text), err)
	}
	if _, err := InitWorkspace(path, "x"); err == nil {
		t.Fatalf("init over an existing file must fail")
	}
}

func TestSaveKeepsTimestampedBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arch.xml")
	w, err := InitWorkspace(path, "v1")
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	if err := w.SaveDocument("v2"); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if err := w.SaveDocument("v3"); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	backups, err := w.Backups()
	if err != nil || len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d err %v", len(backups), err)
	}
	b, err := os.ReadFile(backups[len(backups)-1])
	if err != nil || string(b) != "v2" {
		t.Fatalf("latest backup should hold the previous content, got %q err %v", b, err)
	}
	text, err := w.ReadDocument()
	if err != nil || text != "v3" {
		t.Fatalf("current content wrong: %q err %v", text, err)
	}
}

func TestReadFallsBackToLatestBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arch.xml")
	w, err := InitWorkspace(path, "v1")
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	if err := w.SaveDocument("v2"); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	text, err := w.ReadDocument()
	if err != nil {
		t.Fatalf("ReadDocument should fall back to the backup: %v", err)
	}
	if text != "v1" {
		t.Fatalf("backup content wrong: %q", text)
	}
}

func TestOpenWorkspaceMissingFile(t *testing.T) {
	if _, err := OpenWorkspace(filepath.Join(t.TempDir(), "nope.xml")); err == nil {
		t.Fatalf("open of a missing diagram must fail")
	}
}
