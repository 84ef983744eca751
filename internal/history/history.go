/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history is the linear undo/redo stack over scene snapshots.
// Branching is not supported: committing after an undo discards the
// redo-able future.
package history

import (
	"sync"

	"godiagram/internal/scene"
)

// Config controls depth caps.
type Config struct {
	// MaxDepth limits the number of snapshots kept (0 means unlimited).
	// The oldest entries are pruned first; the current position is never
	// pruned away.
	MaxDepth int
}

// Manager holds full-scene snapshots and a cursor. Every stored snapshot is
// a deep copy taken at Commit time, so later edits to the live scene cannot
// reach back into history. Safe for concurrent use.
type Manager struct {
	cfg    Config
	mu     sync.Mutex
	stack  []*scene.Scene
	cursor int
}

// NewManager starts a history containing only the initial snapshot.
func NewManager(cfg Config, initial *scene.Scene) *Manager {
	if initial == nil {
		initial = scene.New()
	}
	return &Manager{cfg: cfg, stack: []*scene.Scene{initial.Clone()}}
}

// Commit records a completed edit: the stack is truncated at the cursor, the
// snapshot appended, and the cursor moved to it. One commit per completed
// gesture; live-preview states during a drag never commit.
func (m *Manager) Commit(s *scene.Scene) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stack = append(m.stack[:m.cursor+1], s.Clone())
	m.cursor = len(m.stack) - 1
	if m.cfg.MaxDepth > 0 && len(m.stack) > m.cfg.MaxDepth {
		drop := len(m.stack) - m.cfg.MaxDepth
		if drop > m.cursor {
			drop = m.cursor
		}
		m.stack = append([]*scene.Scene(nil), m.stack[drop:]...)
		m.cursor -= drop
	}
}

// Undo steps the cursor back and returns that snapshot as an independent
// copy. At the oldest entry it reports false and returns nothing.
func (m *Manager) Undo() (*scene.Scene, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor == 0 {
		return nil, false
	}
	m.cursor--
	return m.stack[m.cursor].Clone(), true
}

// Redo steps the cursor forward, if a future exists.
func (m *Manager) Redo() (*scene.Scene, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor == len(m.stack)-1 {
		return nil, false
	}
	m.cursor++
	return m.stack[m.cursor].Clone(), true
}

// Current returns a copy of the snapshot at the cursor.
func (m *Manager) Current() *scene.Scene {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stack[m.cursor].Clone()
}

// CanUndo reports whether Undo would move the cursor.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor > 0
}

// CanRedo reports whether Redo would move the cursor.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor < len(m.stack)-1
}

// Stats returns the stack depth and cursor position.
func (m *Manager) Stats() (depth, cursor int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack), m.cursor
}
