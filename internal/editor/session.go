/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"godiagram/internal/geom"
	"godiagram/internal/scene"
)

// Tool is the active editing tool.
type Tool int

const (
	ToolSelect Tool = iota
	ToolAddVertex
	ToolAddEdge
	ToolPan
)

// Mode is the pointer state. The mode is fixed at pointer-down and never
// re-derived from pointer position mid-drag.
type Mode int

const (
	Idle Mode = iota
	Dragging
	Resizing
	Rotating
	Panning
	ConnectingEdge
	EditingText
	DrawingNewEdge
)

// dragKind narrows Dragging: a vertex body, a whole edge path, or one point
// of an edge path.
type dragKind int

const (
	dragVertex dragKind = iota
	dragWholeEdge
	dragEdgePoint
)

// Hit test tolerances, in scene units.
const (
	handleHitSize     = 8.0
	edgeHitTolerance  = 6.0
	rotateHandleRise  = 24.0
	midpointTolerance = 7.0
)

// Session is the per-pointer interaction state machine. Pointer coordinates
// are scene coordinates; the rendering layer applies the view transform
// before calling in. Not persisted, not history-tracked: only committed
// scenes reach the Editor.
type Session struct {
	ed   *Editor
	tool Tool
	mode Mode

	selected      string
	pendingSource string // first click of a connect gesture

	// Captured at pointer-down. base is the pre-drag scene so every move
	// computes from the original state, never from accumulated previews.
	base        *scene.Scene
	preview     *scene.Scene
	start       geom.Pt
	drag        dragKind
	handle      scene.Handle
	pointIndex  int
	startBounds geom.Rect
	startAngle  float64 // pointer angle at drag start, for Rotating
	startRot    float64 // vertex rotation at drag start

	// View state: pan offset in scene units. Zoom lives in the rendering
	// layer; panning only needs the offset.
	ViewX, ViewY         float64
	panStartX, panStartY float64

	// VertexStyle is applied to vertices created by ToolAddVertex. Empty
	// means the default boxed style.
	VertexStyle string
}

// NewSession wraps an editor with an idle pointer state machine.
func NewSession(ed *Editor) *Session {
	return &Session{ed: ed, tool: ToolSelect}
}

func (s *Session) Editor() *Editor { return s.ed }
func (s *Session) Mode() Mode      { return s.mode }
func (s *Session) Tool() Tool      { return s.tool }

// Selected returns the selected element id, or "".
func (s *Session) Selected() string { return s.selected }

// PendingSource returns the vertex picked by the first connect click, or "".
func (s *Session) PendingSource() string { return s.pendingSource }

// SetTool switches tools and cancels any pending connect source.
func (s *Session) SetTool(t Tool) {
	s.tool = t
	s.pendingSource = ""
}

// Scene returns the scene to render: the live preview during a drag, else
// the committed scene.
func (s *Session) Scene() *scene.Scene {
	if s.preview != nil {
		return s.preview
	}
	return s.ed.Scene()
}

// PointerDown resolves the drag mode from what sits under the pointer and
// the active tool. A pending connect gesture stays receptive to its second
// click; every other non-idle mode ignores further downs.
func (s *Session) PointerDown(p geom.Pt) {
	if s.mode != Idle && s.mode != ConnectingEdge {
		return
	}
	s.start = p
	switch s.tool {
	case ToolPan:
		s.mode = Panning
		s.panStartX, s.panStartY = s.ViewX, s.ViewY
	case ToolAddVertex:
		s.pointerDownAddVertex(p)
	case ToolAddEdge:
		s.pointerDownAddEdge(p)
	default:
		s.pointerDownSelect(p)
	}
}

func (s *Session) pointerDownAddVertex(p geom.Pt) {
	if id := s.hitElement(p); id != "" {
		s.selected = id
		return
	}
	next, id := scene.AddVertex(s.ed.Scene(), p.X, p.Y, scene.Style(s.VertexStyle))
	s.ed.Commit(next)
	s.selected = id
}

func (s *Session) pointerDownAddEdge(p geom.Pt) {
	cur := s.ed.Scene()
	id := s.hitElement(p)
	if id != "" && cur.Vertex(id) != nil {
		switch s.pendingSource {
		case "":
			s.pendingSource = id
			s.mode = ConnectingEdge
		case id:
			// Second click on the same vertex cancels the gesture.
			s.pendingSource = ""
			s.mode = Idle
		default:
			next, newID, err := scene.AddEdge(cur, s.pendingSource, id, "")
			if err != nil {
				s.ed.log.Warn("connect failed", "err", err)
			} else {
				s.ed.Commit(next)
				s.selected = newID
			}
			s.pendingSource = ""
			s.mode = Idle
		}
		return
	}
	// Empty canvas: drag out a free arrow.
	s.pendingSource = ""
	s.mode = DrawingNewEdge
	s.base = s.ed.Scene()
}

func (s *Session) pointerDownSelect(p geom.Pt) {
	cur := s.ed.Scene()

	// Handles of the current selection win over element bodies. For an edge
	// the path handles come first: a flat edge's box handles collapse onto
	// the path and must not shadow the point and midpoint grips.
	if sel := cur.Get(s.selected); sel != nil {
		if e, ok := sel.(*scene.Edge); ok {
			if idx, ok := hitEdgePoint(e, p); ok {
				s.mode = Dragging
				s.drag = dragEdgePoint
				s.pointIndex = idx
				s.base = cur
				return
			}
			if idx, ok := hitEdgeMidpoint(e, p); ok {
				// Midpoint drag grows a bend: the waypoint goes in now, the
				// drag moves it, and only the final position commits.
				s.base = scene.InsertEdgeWaypoint(cur, e.Ident, idx, geom.Mid(e.Points[idx], e.Points[idx+1]))
				s.preview = s.base
				s.mode = Dragging
				s.drag = dragEdgePoint
				s.pointIndex = idx + 1
				return
			}
		}
		if h, ok := s.hitResizeHandle(sel, p); ok {
			s.mode = Resizing
			s.handle = h
			s.base = cur
			s.startBounds = sel.Bounds()
			return
		}
		if s.hitRotateHandle(sel, p) {
			s.mode = Rotating
			s.base = cur
			s.startBounds = sel.Bounds()
			s.startAngle = geom.AngleDeg(s.startBounds.Center(), p)
			if v, ok := sel.(*scene.Vertex); ok {
				s.startRot = v.Rotation
			}
			return
		}
	}

	id := s.hitElement(p)
	if id == "" {
		s.selected = ""
		return
	}
	s.selected = id
	s.base = cur
	s.mode = Dragging
	if cur.Vertex(id) != nil {
		s.drag = dragVertex
	} else {
		s.drag = dragWholeEdge
	}
}

// PointerMove refreshes the live preview from the pre-drag scene plus the
// total pointer delta. Nothing commits here.
func (s *Session) PointerMove(p geom.Pt) {
	dx := p.X - s.start.X
	dy := p.Y - s.start.Y
	switch s.mode {
	case Dragging:
		switch s.drag {
		case dragEdgePoint:
			s.preview = scene.MoveEdgePoint(s.base, s.selected, s.pointIndex, dx, dy)
		default:
			s.preview = scene.Move(s.base, s.selected, dx, dy)
		}
	case Resizing:
		x, y, w, h := resizeBox(s.startBounds, s.handle, dx, dy)
		s.preview = scene.Resize(s.base, s.selected, s.handle, x, y, w, h)
	case Rotating:
		delta := geom.AngleDeg(s.startBounds.Center(), p) - s.startAngle
		if s.base.Vertex(s.selected) != nil {
			s.preview = scene.Rotate(s.base, s.selected, s.startRot+delta)
		} else {
			// base holds the original points, so each move rotates the
			// original path by the total delta instead of stacking error.
			s.preview = scene.Rotate(s.base, s.selected, delta)
		}
	case Panning:
		s.ViewX = s.panStartX + dx
		s.ViewY = s.panStartY + dy
	case DrawingNewEdge:
		s.preview, _ = scene.AddFreeEdge(s.base, s.start, p, "")
	}
}

// PointerUp ends the gesture: at most one history commit, then Idle. A drag
// that never produced a preview (a plain click) commits nothing.
func (s *Session) PointerUp(p geom.Pt) {
	switch s.mode {
	case Dragging, Resizing, Rotating:
		if s.preview != nil {
			s.ed.Commit(s.preview)
		}
	case DrawingNewEdge:
		if p.Dist(s.start) > 0 {
			next, id := scene.AddFreeEdge(s.base, s.start, p, "")
			s.ed.Commit(next)
			s.selected = id
		}
	}
	if s.mode != ConnectingEdge {
		s.mode = Idle
	}
	s.preview = nil
	s.base = nil
}

// Escape cancels whatever is pending: the preview is discarded, the connect
// source cleared, the selection dropped. The last committed snapshot stays
// authoritative.
func (s *Session) Escape() {
	s.mode = Idle
	s.preview = nil
	s.base = nil
	s.pendingSource = ""
	s.selected = ""
}

// BeginTextEdit enters text editing for the element, if it exists.
func (s *Session) BeginTextEdit(id string) bool {
	if s.mode != Idle || s.ed.Scene().Get(id) == nil {
		return false
	}
	s.selected = id
	s.mode = EditingText
	return true
}

// CommitTextEdit stores the confirmed label text as one committed edit.
func (s *Session) CommitTextEdit(text string) {
	if s.mode != EditingText {
		return
	}
	s.ed.Commit(scene.SetValue(s.ed.Scene(), s.selected, text))
	s.mode = Idle
}

// CancelTextEdit leaves text editing without committing.
func (s *Session) CancelTextEdit() {
	if s.mode == EditingText {
		s.mode = Idle
	}
}

// DeleteSelection commits a delete of the selected element.
func (s *Session) DeleteSelection() {
	if s.mode != Idle || s.selected == "" {
		return
	}
	s.ed.Commit(scene.Delete(s.ed.Scene(), s.selected))
	s.selected = ""
}

// hitElement returns the topmost element under p, testing in reverse
// document order so later elements win.
func (s *Session) hitElement(p geom.Pt) string {
	els := s.ed.Scene().Elements()
	for i := len(els) - 1; i >= 0; i-- {
		switch t := els[i].(type) {
		case *scene.Vertex:
			if t.Bounds().Contains(p) {
				return t.Ident
			}
		case *scene.Edge:
			if edgePathNear(t, p) {
				return t.Ident
			}
		}
	}
	return ""
}

func edgePathNear(e *scene.Edge, p geom.Pt) bool {
	for i := 0; i+1 < len(e.Points); i++ {
		if geom.DistToSegment(p, e.Points[i], e.Points[i+1]) <= edgeHitTolerance {
			return true
		}
	}
	return false
}

// hitResizeHandle tests the eight box handles of the selection.
func (s *Session) hitResizeHandle(el scene.Element, p geom.Pt) (scene.Handle, bool) {
	b := el.Bounds()
	spots := map[scene.Handle]geom.Pt{
		scene.HandleNW: b.Min(),
		scene.HandleNE: {X: b.X + b.W, Y: b.Y},
		scene.HandleSW: {X: b.X, Y: b.Y + b.H},
		scene.HandleSE: b.Max(),
		scene.HandleN:  {X: b.X + b.W/2, Y: b.Y},
		scene.HandleS:  {X: b.X + b.W/2, Y: b.Y + b.H},
		scene.HandleW:  {X: b.X, Y: b.Y + b.H/2},
		scene.HandleE:  {X: b.X + b.W, Y: b.Y + b.H/2},
	}
	for h, c := range spots {
		if p.Dist(c) <= handleHitSize {
			return h, true
		}
	}
	return "", false
}

// hitRotateHandle tests the rotation grip floating above the top edge.
func (s *Session) hitRotateHandle(el scene.Element, p geom.Pt) bool {
	b := el.Bounds()
	grip := geom.Pt{X: b.X + b.W/2, Y: b.Y - rotateHandleRise}
	return p.Dist(grip) <= handleHitSize
}

func hitEdgePoint(e *scene.Edge, p geom.Pt) (int, bool) {
	for i, q := range e.Points {
		if p.Dist(q) <= handleHitSize {
			return i, true
		}
	}
	return 0, false
}

func hitEdgeMidpoint(e *scene.Edge, p geom.Pt) (int, bool) {
	for i := 0; i+1 < len(e.Points); i++ {
		if p.Dist(geom.Mid(e.Points[i], e.Points[i+1])) <= midpointTolerance {
			return i, true
		}
	}
	return 0, false
}

// resizeBox turns a handle drag delta into the requested new box. Corner
// handles move two sides, side handles one.
func resizeBox(b geom.Rect, h scene.Handle, dx, dy float64) (x, y, w, ht float64) {
	x, y, w, ht = b.X, b.Y, b.W, b.H
	switch h {
	case scene.HandleE, scene.HandleNE, scene.HandleSE:
		w += dx
	case scene.HandleW, scene.HandleNW, scene.HandleSW:
		x += dx
		w -= dx
	}
	switch h {
	case scene.HandleS, scene.HandleSW, scene.HandleSE:
		ht += dy
	case scene.HandleN, scene.HandleNW, scene.HandleNE:
		y += dy
		ht -= dy
	}
	return x, y, w, ht
}
