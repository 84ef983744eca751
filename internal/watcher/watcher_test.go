/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteBurstYieldsOneEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arch.xml")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := New(path, 100*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("burst"), 0o644); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case ev := <-w.Events():
		if ev.Path != path {
			t.Fatalf("event path = %q, want %q", ev.Path, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no event after write burst")
	}

	// The quiet period collapsed the burst; no second event should follow.
	select {
	case ev, ok := <-w.Events():
		if ok {
			t.Fatalf("unexpected second event: %+v", ev)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arch.xml")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := New(path, 50*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	if err := os.WriteFile(filepath.Join(dir, "other.xml"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write sibling: %v", err)
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for sibling file: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestRenameOverFileIsDetected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arch.xml")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := New(path, 50*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// Atomic save pattern: write a temp file, rename it over the target.
	tmp := filepath.Join(dir, ".arch.xml.tmp")
	if err := os.WriteFile(tmp, []byte("v2"), 0o644); err != nil {
		t.Fatalf("write tmp: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}

	select {
	case <-w.Events():
	case <-time.After(3 * time.Second):
		t.Fatalf("rename over the file not detected")
	}
}

func TestStopClosesEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arch.xml")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err := New(path, 50*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()
	select {
	case _, ok := <-w.Events():
		if ok {
			t.Fatalf("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatalf("events channel not closed after cancel")
	}
}
