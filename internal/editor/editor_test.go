/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"strings"
	"testing"

	"godiagram/internal/history"
	"godiagram/internal/mxgraph"
	"godiagram/internal/scene"
)

const sampleDoc = `<mxGraphModel dx="800" dy="600">
  <root>
    <mxCell id="0"></mxCell>
    <mxCell id="1" parent="0"></mxCell>
    <mxCell id="2" value="API" vertex="1" parent="1">
      <mxGeometry x="40" y="40" width="120" height="60" as="geometry"></mxGeometry>
    </mxCell>
    <mxCell id="3" value="DB" vertex="1" parent="1">
      <mxGeometry x="300" y="40" width="120" height="60" as="geometry"></mxGeometry>
    </mxCell>
  </root>
</mxGraphModel>`

func TestOpenMalformedFallsBackToEmptyScene(t *testing.T) {
	ed := Open("<mxGraphModel><root>", history.Config{})
	if ed.Scene().Len() != 0 {
		t.Fatalf("expected empty scene, got %d elements", ed.Scene().Len())
	}
	// The session must still be editable afterwards.
	next, _ := scene.AddVertex(ed.Scene(), 50, 50, "")
	ed.Commit(next)
	if !strings.Contains(ed.XML(), "mxCell") {
		t.Fatalf("commit after fallback produced no document:\n%s", ed.XML())
	}
}

func TestCommitReencodesAndBumpsRevision(t *testing.T) {
	ed := Open(sampleDoc, history.Config{})
	if ed.Revision() != 0 {
		t.Fatalf("fresh session revision = %d", ed.Revision())
	}
	ed.Commit(scene.Move(ed.Scene(), "2", 10, 5))
	if ed.Revision() != 1 {
		t.Fatalf("commit did not bump revision: %d", ed.Revision())
	}
	s, err := mxgraph.Decode(ed.XML())
	if err != nil {
		t.Fatalf("document no longer parses: %v", err)
	}
	if v := s.Vertex("2"); v.X != 50 || v.Y != 45 {
		t.Fatalf("document not re-encoded: %+v", v)
	}
	if !strings.Contains(ed.XML(), `dx="800"`) {
		t.Fatalf("document attributes lost on re-encode")
	}
}

func TestUndoRedoRestoreSceneAndDocument(t *testing.T) {
	ed := Open(sampleDoc, history.Config{})
	ed.Commit(scene.Move(ed.Scene(), "2", 100, 0))
	if !ed.CanUndo() {
		t.Fatalf("undo should be available")
	}
	if !ed.Undo() {
		t.Fatalf("undo failed")
	}
	if got := ed.Scene().Vertex("2").X; got != 40 {
		t.Fatalf("undo did not restore the scene: x=%v", got)
	}
	s, err := mxgraph.Decode(ed.XML())
	if err != nil || s.Vertex("2").X != 40 {
		t.Fatalf("undo did not re-encode the document: %v", err)
	}
	if !ed.Redo() {
		t.Fatalf("redo failed")
	}
	if got := ed.Scene().Vertex("2").X; got != 140 {
		t.Fatalf("redo did not restore the edit: x=%v", got)
	}
	if ed.Undo(); ed.Undo() {
		t.Fatalf("undo past the initial snapshot must report false")
	}
}

func TestCopyPasteThroughEditor(t *testing.T) {
	ed := Open(sampleDoc, history.Config{})
	if ed.Copy("missing") {
		t.Fatalf("copy of unknown id should fail")
	}
	if ed.Paste() != "" {
		t.Fatalf("paste with empty clipboard should do nothing")
	}
	if !ed.Copy("2") {
		t.Fatalf("copy failed")
	}
	id := ed.Paste()
	if id == "" || id == "2" {
		t.Fatalf("paste id wrong: %q", id)
	}
	v := ed.Scene().Vertex(id)
	if v.X != 60 || v.Y != 60 {
		t.Fatalf("pasted copy not offset: %+v", v)
	}
	if !strings.Contains(ed.XML(), id) {
		t.Fatalf("pasted element missing from document")
	}
}
