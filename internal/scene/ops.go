/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

// Edit operations. Each is a pure function (scene, params) -> new scene; the
// input is never mutated. Operations on a missing id are silent no-ops except
// AddEdge, which reports the bad endpoint so the connect gesture can fail
// visibly.

import (
	"errors"
	"fmt"

	"godiagram/internal/geom"
)

// ErrNoSuchVertex is returned by AddEdge when an endpoint id does not name a
// vertex in the scene.
var ErrNoSuchVertex = errors.New("no such vertex")

// Handle identifies which edge or corner of the bounding box a resize drag
// grabbed.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// PasteOffset is the fixed translation applied on Paste so copies never
// overlap their source exactly.
const PasteOffset = 20.0

// AddVertex inserts a new vertex centered at (x, y) with the default extent
// and a fresh id. It always succeeds.
func AddVertex(s *Scene, x, y float64, style Style) (*Scene, string) {
	c := s.Clone()
	id := NewID()
	c.put(&Vertex{
		Ident: id,
		Shape: style.Canonical(),
		X:     x - DefaultVertexWidth/2,
		Y:     y - DefaultVertexHeight/2,
		W:     DefaultVertexWidth,
		H:     DefaultVertexHeight,
	})
	return c, id
}

// AddEdge inserts an edge connecting two existing vertices; its initial path
// is the straight segment between the vertex centers.
func AddEdge(s *Scene, sourceID, targetID string, style Style) (*Scene, string, error) {
	src := s.Vertex(sourceID)
	if src == nil {
		return s, "", fmt.Errorf("edge source %q: %w", sourceID, ErrNoSuchVertex)
	}
	tgt := s.Vertex(targetID)
	if tgt == nil {
		return s, "", fmt.Errorf("edge target %q: %w", targetID, ErrNoSuchVertex)
	}
	c := s.Clone()
	id := NewID()
	e := &Edge{
		Ident:  id,
		Shape:  style.Canonical(),
		Source: sourceID,
		Target: targetID,
		Points: []geom.Pt{src.Center(), tgt.Center()},
	}
	e.RecomputeBox()
	c.put(e)
	return c, id, nil
}

// AddFreeEdge inserts an unconnected edge with an explicit two-point path,
// used for drag-drop arrow creation not anchored to vertices.
func AddFreeEdge(s *Scene, p1, p2 geom.Pt, style Style) (*Scene, string) {
	c := s.Clone()
	id := NewID()
	e := &Edge{Ident: id, Shape: style.Canonical(), Points: []geom.Pt{p1, p2}}
	e.RecomputeBox()
	c.put(e)
	return c, id
}

// Move translates a vertex, or every point of an edge.
func Move(s *Scene, id string, dx, dy float64) *Scene {
	el := s.Get(id)
	if el == nil {
		return s
	}
	c := s.Clone()
	switch t := c.Get(id).(type) {
	case *Vertex:
		t.X += dx
		t.Y += dy
	case *Edge:
		t.Normalize()
		for i := range t.Points {
			t.Points[i] = t.Points[i].Add(dx, dy)
		}
		t.RecomputeBox()
	}
	return c
}

// MoveEdgePoint translates one point of an edge's path. An out-of-range index
// is a no-op.
func MoveEdgePoint(s *Scene, id string, pointIndex int, dx, dy float64) *Scene {
	e := s.Edge(id)
	if e == nil || pointIndex < 0 || pointIndex >= len(e.Points) {
		return s
	}
	c := s.Clone()
	t := c.Edge(id)
	t.Points[pointIndex] = t.Points[pointIndex].Add(dx, dy)
	t.RecomputeBox()
	return c
}

// InsertEdgeWaypoint inserts a bend point after the given path index.
func InsertEdgeWaypoint(s *Scene, id string, afterIndex int, p geom.Pt) *Scene {
	e := s.Edge(id)
	if e == nil || afterIndex < 0 || afterIndex >= len(e.Points) {
		return s
	}
	c := s.Clone()
	t := c.Edge(id)
	pts := make([]geom.Pt, 0, len(t.Points)+1)
	pts = append(pts, t.Points[:afterIndex+1]...)
	pts = append(pts, p)
	pts = append(pts, t.Points[afterIndex+1:]...)
	t.Points = pts
	t.RecomputeBox()
	return c
}

// Resize applies a handle drag. Vertex extents are clamped to MinVertexSize
// with the opposite box edge held in place. An edge resizes by scaling its
// point set about the old box center, then re-centering on the new box.
func Resize(s *Scene, id string, h Handle, newX, newY, newW, newH float64) *Scene {
	el := s.Get(id)
	if el == nil {
		return s
	}
	c := s.Clone()
	switch t := c.Get(id).(type) {
	case *Vertex:
		right := t.X + t.W
		bottom := t.Y + t.H
		t.X, t.Y, t.W, t.H = newX, newY, newW, newH
		if t.W < MinVertexSize {
			t.W = MinVertexSize
			if h == HandleW || h == HandleNW || h == HandleSW {
				t.X = right - MinVertexSize
			}
		}
		if t.H < MinVertexSize {
			t.H = MinVertexSize
			if h == HandleN || h == HandleNW || h == HandleNE {
				t.Y = bottom - MinVertexSize
			}
		}
	case *Edge:
		t.Normalize()
		old := t.Box
		if old.W == 0 || old.H == 0 {
			// Scaling a degenerate box would divide by zero; leave the edge alone.
			return s
		}
		sx := newW / old.W
		sy := newH / old.H
		oldCenter := old.Center()
		newCenter := geom.R(newX, newY, newW, newH).Center()
		for i := range t.Points {
			p := geom.ScaleAbout(t.Points[i], oldCenter, sx, sy)
			t.Points[i] = p.Add(newCenter.X-oldCenter.X, newCenter.Y-oldCenter.Y)
		}
		t.RecomputeBox()
	}
	return c
}

// Rotate sets a vertex's rotation to angleDeg (normalized into [0,360)), or
// rotates an edge's points by angleDeg about the edge's box center. Edge
// rotation is baked into the point coordinates; edges carry no rotation field.
func Rotate(s *Scene, id string, angleDeg float64) *Scene {
	el := s.Get(id)
	if el == nil {
		return s
	}
	c := s.Clone()
	switch t := c.Get(id).(type) {
	case *Vertex:
		t.Rotation = geom.NormalizeDeg(angleDeg)
	case *Edge:
		t.Normalize()
		pivot := t.Box.Center()
		for i := range t.Points {
			t.Points[i] = geom.RotateAbout(t.Points[i], pivot, angleDeg)
		}
		t.RecomputeBox()
	}
	return c
}

// RotateBy90 advances a vertex's rotation by a quarter turn, or rotates an
// edge's point set by 90 degrees about its center.
func RotateBy90(s *Scene, id string) *Scene {
	if v := s.Vertex(id); v != nil {
		c := s.Clone()
		c.Vertex(id).Rotation = geom.NormalizeDeg(v.Rotation + 90)
		return c
	}
	return Rotate(s, id, 90)
}

// SetValue replaces the label text of any element. Text is stored raw; markup
// characters are escaped at render time, never interpreted.
func SetValue(s *Scene, id, text string) *Scene {
	if s.Get(id) == nil {
		return s
	}
	c := s.Clone()
	c.Get(id).setValue(text)
	return c
}

// SetStyleProperty sets one key in the element's style string.
func SetStyleProperty(s *Scene, id, key, value string) *Scene {
	el := s.Get(id)
	if el == nil {
		return s
	}
	c := s.Clone()
	t := c.Get(id)
	t.setStyle(t.Style().With(key, value))
	return c
}

// Delete removes the element and prunes every edge left dangling by it: an
// edge whose source or target names a vertex no longer in the scene goes too.
// One pass suffices since edges never serve as endpoints themselves.
func Delete(s *Scene, id string) *Scene {
	if s.Get(id) == nil {
		return s
	}
	c := s.Clone()
	c.remove(id)
	var stale []string
	for _, el := range c.Elements() {
		e, ok := el.(*Edge)
		if !ok {
			continue
		}
		if (e.Source != "" && c.Vertex(e.Source) == nil) || (e.Target != "" && c.Vertex(e.Target) == nil) {
			stale = append(stale, e.Ident)
		}
	}
	for _, sid := range stale {
		c.remove(sid)
	}
	return c
}

// Copy captures a value copy of one element for the single-slot clipboard.
// Returns nil if the id is unknown.
func Copy(s *Scene, id string) Element {
	el := s.Get(id)
	if el == nil {
		return nil
	}
	return el.Clone()
}

// Paste inserts a copy of a clipboard element under a fresh id, offset by
// (PasteOffset, PasteOffset) from the original.
func Paste(s *Scene, clip Element) (*Scene, string) {
	if clip == nil {
		return s, ""
	}
	c := s.Clone()
	id := NewID()
	switch t := clip.Clone().(type) {
	case *Vertex:
		t.Ident = id
		t.X += PasteOffset
		t.Y += PasteOffset
		c.put(t)
	case *Edge:
		t.Ident = id
		// Endpoints may have been deleted since the copy was taken.
		if t.Source != "" && c.Vertex(t.Source) == nil {
			t.Source = ""
		}
		if t.Target != "" && c.Vertex(t.Target) == nil {
			t.Target = ""
		}
		t.Normalize()
		for i := range t.Points {
			t.Points[i] = t.Points[i].Add(PasteOffset, PasteOffset)
		}
		t.RecomputeBox()
		c.put(t)
	}
	return c, id
}
