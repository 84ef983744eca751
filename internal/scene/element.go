/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"github.com/google/uuid"

	"godiagram/internal/geom"
)

// Reserved cell ids of the XML scaffold. They identify the document root and
// the default layer and are never editable elements.
const (
	RootCellID  = "0"
	LayerCellID = "1"
)

// Default vertex extent and the hard minimum enforced on resize.
const (
	DefaultVertexWidth  = 120.0
	DefaultVertexHeight = 60.0
	MinVertexSize       = 20.0
)

// Element is a diagram element: either a *Vertex or an *Edge.
// Implementations are value-semantic; Clone returns an independent deep copy.
type Element interface {
	ID() string
	Style() Style
	Value() string
	// Bounds returns the element's axis-aligned bounding box.
	Bounds() geom.Rect
	Clone() Element

	setStyle(Style)
	setValue(string)
}

// Vertex is a positioned box with a rotation applied about its own center.
type Vertex struct {
	Ident    string
	Text     string
	Shape    Style
	X, Y     float64
	W, H     float64
	Rotation float64 // degrees in [0, 360)
}

func (v *Vertex) ID() string        { return v.Ident }
func (v *Vertex) Style() Style      { return v.Shape }
func (v *Vertex) Value() string     { return v.Text }
func (v *Vertex) Bounds() geom.Rect { return geom.R(v.X, v.Y, v.W, v.H) }
func (v *Vertex) Center() geom.Pt   { return v.Bounds().Center() }

func (v *Vertex) Clone() Element {
	c := *v
	return &c
}

func (v *Vertex) setStyle(s Style)  { v.Shape = s }
func (v *Vertex) setValue(t string) { v.Text = t }

// Edge is a connection with a rendered point path. Source/Target hold vertex
// ids or "" for an unconnected endpoint. Points always has length >= 2 once
// normalized; Points[0] is the rendered start, Points[len-1] the end, interior
// entries are waypoints. The bounding box is derived from Points and is
// recomputed after every geometric edit.
type Edge struct {
	Ident  string
	Text   string
	Shape  Style
	Source string
	Target string
	Points []geom.Pt
	Box    geom.Rect
}

func (e *Edge) ID() string        { return e.Ident }
func (e *Edge) Style() Style      { return e.Shape }
func (e *Edge) Value() string     { return e.Text }
func (e *Edge) Bounds() geom.Rect { return e.Box }

func (e *Edge) Clone() Element {
	c := *e
	c.Points = append([]geom.Pt(nil), e.Points...)
	return &c
}

func (e *Edge) setStyle(s Style)  { e.Shape = s }
func (e *Edge) setValue(t string) { e.Text = t }

// RecomputeBox refreshes the derived bounding box from Points.
func (e *Edge) RecomputeBox() { e.Box = geom.BoundsOf(e.Points) }

// Normalize enforces the two-point minimum: an edge decoded with only a
// bounding box gets the box diagonal as its path.
func (e *Edge) Normalize() {
	if len(e.Points) >= 2 {
		e.RecomputeBox()
		return
	}
	e.Points = []geom.Pt{e.Box.Min(), e.Box.Max()}
}

// NewID returns a fresh element id. Ids are never reused within a session;
// a random UUID keeps them distinct from every id already in the document,
// including ones the editor never saw.
func NewID() string { return uuid.NewString() }
