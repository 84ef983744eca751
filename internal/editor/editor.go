/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor ties the scene model, the XML codec and the history stack
// into one editing session, and runs the pointer state machine that turns
// drags and clicks into committed edits.
package editor

import (
	"log/slog"

	"godiagram/internal/history"
	applog "godiagram/internal/log"
	"godiagram/internal/mxgraph"
	"godiagram/internal/scene"
)

// Editor owns one open document: the committed scene, its XML text, the
// undo/redo history and the single-slot clipboard. Every committed edit
// re-encodes the scene into the document and bumps the revision counter,
// which viewers watch to know a refresh is due.
type Editor struct {
	log       *slog.Logger
	xml       string
	scene     *scene.Scene
	hist      *history.Manager
	clipboard scene.Element
	revision  uint64
}

// Open starts a session on the given document text. A document that fails to
// parse is logged and replaced by an empty scene over an empty scaffold; the
// editor never refuses to open.
func Open(xmlText string, histCfg history.Config) *Editor {
	log := applog.WithComponent("editor")
	s, err := mxgraph.Decode(xmlText)
	if err != nil {
		log.Warn("document unreadable, starting empty", "err", err)
		s = scene.New()
		xmlText = mxgraph.EmptyDocument
	}
	return &Editor{
		log:   log,
		xml:   xmlText,
		scene: s,
		hist:  history.NewManager(histCfg, s),
	}
}

// New starts a session on a fresh scaffold document.
func New(histCfg history.Config) *Editor {
	return Open(mxgraph.EmptyDocument, histCfg)
}

// Scene returns the committed scene. Callers must treat it as read-only;
// edits go through the scene operations and Commit.
func (e *Editor) Scene() *scene.Scene { return e.scene }

// XML returns the current document text, the durable representation handed
// to viewers and persistence.
func (e *Editor) XML() string { return e.xml }

// Revision counts committed edits since Open.
func (e *Editor) Revision() uint64 { return e.revision }

// CanUndo reports whether an Undo would change the scene.
func (e *Editor) CanUndo() bool { return e.hist.CanUndo() }

// CanRedo reports whether a Redo would change the scene.
func (e *Editor) CanRedo() bool { return e.hist.CanRedo() }

// Commit installs a completed edit: one history entry, one re-encode. The
// snapshot becomes the committed scene.
func (e *Editor) Commit(s *scene.Scene) {
	e.hist.Commit(s)
	e.install(s)
}

// Undo steps back one committed edit. Reports false at the oldest state.
func (e *Editor) Undo() bool {
	s, ok := e.hist.Undo()
	if !ok {
		return false
	}
	e.install(s)
	return true
}

// Redo steps forward again. Reports false with no future.
func (e *Editor) Redo() bool {
	s, ok := e.hist.Redo()
	if !ok {
		return false
	}
	e.install(s)
	return true
}

func (e *Editor) install(s *scene.Scene) {
	out, err := mxgraph.Encode(s, e.xml)
	if err != nil {
		// The committed scene stays authoritative; the document keeps its
		// previous text until a later encode succeeds.
		e.log.Error("encode failed, document text is stale", "err", err)
	} else {
		e.xml = out
	}
	e.scene = s
	e.revision++
	e.log.Debug("committed", "revision", e.revision, "elements", s.Len())
}

// Copy captures the element into the clipboard slot. False if id is unknown.
func (e *Editor) Copy(id string) bool {
	el := scene.Copy(e.scene, id)
	if el == nil {
		return false
	}
	e.clipboard = el
	return true
}

// Paste commits a copy of the clipboard element and returns its new id, or
// "" with an empty clipboard.
func (e *Editor) Paste() string {
	if e.clipboard == nil {
		return ""
	}
	s, id := scene.Paste(e.scene, e.clipboard)
	e.Commit(s)
	return id
}
