/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mxgraph

import (
	"errors"
	"strings"
	"testing"

	"godiagram/internal/geom"
	"godiagram/internal/scene"
)

const twoVertexDoc = `<mxGraphModel dx="800" dy="600" grid="1">
  <root>
    <mxCell id="0"></mxCell>
    <mxCell id="1" parent="0"></mxCell>
    <mxCell id="2" value="API" style="fillColor=#dae8fc;rounded=1;" vertex="1" parent="1">
      <mxGeometry x="40" y="40" width="120" height="60" as="geometry"></mxGeometry>
    </mxCell>
    <mxCell id="3" value="DB" style="fillColor=#d5e8d4;" vertex="1" parent="1">
      <mxGeometry x="300" y="40" width="120" height="60" as="geometry"></mxGeometry>
    </mxCell>
  </root>
</mxGraphModel>`

func TestDecodeVertices(t *testing.T) {
	s, err := Decode(twoVertexDoc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("want 2 elements, got %d", s.Len())
	}
	if got := s.IDs(); got[0] != "2" || got[1] != "3" {
		t.Fatalf("document order lost: %v", got)
	}
	v := s.Vertex("2")
	if v == nil || v.X != 40 || v.Y != 40 || v.W != 120 || v.H != 60 {
		t.Fatalf("vertex 2 geometry wrong: %+v", v)
	}
	if v.Text != "API" {
		t.Fatalf("value lost: %q", v.Text)
	}
	if got, _ := v.Shape.Get("fillColor"); got != "#dae8fc" {
		t.Fatalf("style lost: %q", v.Shape)
	}
}

func TestDecodeSkipsReservedAndBareCells(t *testing.T) {
	doc := `<mxGraphModel><root>
      <mxCell id="0"></mxCell>
      <mxCell id="1" parent="0"></mxCell>
      <mxCell id="9" value="no geometry, no edge flag" parent="1"></mxCell>
    </root></mxGraphModel>`
	s, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("unrenderable cells should be skipped, got %d elements", s.Len())
	}
}

func TestDecodeTolerantNumbers(t *testing.T) {
	doc := `<mxGraphModel><root>
      <mxCell id="0"></mxCell><mxCell id="1"></mxCell>
      <mxCell id="5" vertex="1" parent="1">
        <mxGeometry x="oops" as="geometry"></mxGeometry>
      </mxCell>
    </root></mxGraphModel>`
	s, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v := s.Vertex("5")
	if v.X != 0 || v.Y != 0 {
		t.Fatalf("bad numbers should default to 0: %+v", v)
	}
	if v.W != scene.DefaultVertexWidth || v.H != scene.DefaultVertexHeight {
		t.Fatalf("missing extent should take vertex defaults: %+v", v)
	}
}

func TestDecodeEdgeWithWaypoints(t *testing.T) {
	doc := `<mxGraphModel><root>
      <mxCell id="0"></mxCell><mxCell id="1"></mxCell>
      <mxCell id="e1" edge="1" source="a" target="b" parent="1">
        <mxGeometry relative="1" as="geometry">
          <mxPoint x="10" y="20" as="sourcePoint"></mxPoint>
          <mxPoint x="90" y="20" as="targetPoint"></mxPoint>
          <Array as="points"><mxPoint x="50" y="60"></mxPoint></Array>
        </mxGeometry>
      </mxCell>
    </root></mxGraphModel>`
	s, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	e := s.Edge("e1")
	if e == nil {
		t.Fatalf("edge not decoded")
	}
	if e.Source != "a" || e.Target != "b" {
		t.Fatalf("endpoints wrong: %q -> %q", e.Source, e.Target)
	}
	want := []geom.Pt{{X: 10, Y: 20}, {X: 50, Y: 60}, {X: 90, Y: 20}}
	if len(e.Points) != 3 {
		t.Fatalf("points wrong: %+v", e.Points)
	}
	for i, p := range want {
		if e.Points[i] != p {
			t.Fatalf("point %d = %+v, want %+v", i, e.Points[i], p)
		}
	}
	if e.Box != geom.BoundsOf(e.Points) {
		t.Fatalf("box not derived from points: %+v", e.Box)
	}
}

func TestDecodeDegenerateEdgeKeepsBox(t *testing.T) {
	doc := `<mxGraphModel><root>
      <mxCell id="0"></mxCell><mxCell id="1"></mxCell>
      <mxCell id="e2" edge="1" parent="1">
        <mxGeometry x="5" y="6" width="70" height="80" relative="1" as="geometry"></mxGeometry>
      </mxCell>
    </root></mxGraphModel>`
	s, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	e := s.Edge("e2")
	if len(e.Points) != 0 {
		t.Fatalf("no endpoints encoded, points should be empty: %+v", e.Points)
	}
	if e.Box != geom.R(5, 6, 70, 80) {
		t.Fatalf("box lost: %+v", e.Box)
	}
}

func TestDecodeRotationStyleKey(t *testing.T) {
	doc := `<mxGraphModel><root>
      <mxCell id="0"></mxCell><mxCell id="1"></mxCell>
      <mxCell id="7" style="fillColor=#fff;rotation=45;" vertex="1" parent="1">
        <mxGeometry x="0" y="0" width="120" height="60" as="geometry"></mxGeometry>
      </mxCell>
    </root></mxGraphModel>`
	s, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v := s.Vertex("7")
	if v.Rotation != 45 {
		t.Fatalf("rotation not lifted from style: %v", v.Rotation)
	}
	if _, ok := v.Shape.Get("rotation"); ok {
		t.Fatalf("rotation key should leave the style string: %q", v.Shape)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode("<mxGraphModel><root>"); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestEncodeEmptyOriginalUnchanged(t *testing.T) {
	s, _ := scene.AddVertex(scene.New(), 100, 100, "")
	out, err := Encode(s, "   ")
	if err != nil || out != "   " {
		t.Fatalf("empty original must pass through: %q, %v", out, err)
	}
}

func TestEncodeMergeRemovesUpdatesAppends(t *testing.T) {
	s, err := Decode(twoVertexDoc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	s = scene.Delete(s, "3")
	s = scene.Move(s, "2", 10, 0)
	s, addedID := scene.AddVertex(s, 500, 500, "rounded=1;")
	out, err := Encode(s, twoVertexDoc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(out, `id="3"`) {
		t.Fatalf("deleted cell survived the merge:\n%s", out)
	}
	if !strings.Contains(out, `id="0"`) || !strings.Contains(out, `id="1"`) {
		t.Fatalf("scaffold cells must be preserved:\n%s", out)
	}
	if !strings.Contains(out, `dx="800"`) {
		t.Fatalf("document attributes must be preserved:\n%s", out)
	}
	if !strings.Contains(out, `id="`+addedID+`"`) {
		t.Fatalf("new element not appended:\n%s", out)
	}
	s2, err := Decode(out)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if got := s2.Vertex("2").X; got != 50 {
		t.Fatalf("in-place update lost: x=%v", got)
	}
}

func TestEncodePreservesUnknownAttributes(t *testing.T) {
	doc := `<mxGraphModel><root>
      <mxCell id="0"></mxCell><mxCell id="1"></mxCell>
      <mxCell id="2" vertex="1" parent="1" link="https://example.org/spec">
        <mxGeometry x="0" y="0" width="120" height="60" as="geometry"></mxGeometry>
      </mxCell>
    </root></mxGraphModel>`
	s, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := Encode(scene.Move(s, "2", 1, 1), doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(out, `link="https://example.org/spec"`) {
		t.Fatalf("unknown attribute dropped:\n%s", out)
	}
}

func TestRoundTripAfterEdits(t *testing.T) {
	s, err := Decode(twoVertexDoc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	s, _, err = scene.AddEdge(s, "2", "3", "endArrow=block;")
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	var eid string
	for _, el := range s.Elements() {
		if _, ok := el.(*scene.Edge); ok {
			eid = el.ID()
		}
	}
	s = scene.InsertEdgeWaypoint(s, eid, 0, geom.Pt{X: 230, Y: 140.25})
	s = scene.Rotate(s, "2", 33.5)
	s = scene.SetValue(s, "3", "a <b> & c")
	s = scene.Resize(s, "3", scene.HandleSE, 300, 40, 200, 90)
	s, _ = scene.AddFreeEdge(s, geom.Pt{X: -4.5, Y: 0}, geom.Pt{X: 12, Y: 7}, "dashed=1;")

	out, err := Encode(s, twoVertexDoc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	s2, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode of encoded document: %v", err)
	}
	if !s.Equal(s2, 1e-6) {
		t.Fatalf("round trip not value-equal:\n%s", out)
	}
}

func TestRoundTripEmptyDocumentScaffold(t *testing.T) {
	s, err := Decode(EmptyDocument)
	if err != nil {
		t.Fatalf("scaffold must decode: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("scaffold holds no editable elements, got %d", s.Len())
	}
	s, id := scene.AddVertex(s, 60, 30, "")
	out, err := Encode(s, EmptyDocument)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	s2, err := Decode(out)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	v := s2.Vertex(id)
	if v == nil || v.X != 0 || v.Y != 0 {
		t.Fatalf("vertex not persisted: %+v", v)
	}
}
