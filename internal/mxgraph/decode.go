/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mxgraph

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"

	"godiagram/internal/geom"
	"godiagram/internal/scene"
)

// ErrParse marks a document that could not be parsed at all. Callers fall
// back to an empty scene instead of failing the session.
var ErrParse = errors.New("malformed diagram document")

// styleRotation is the style key carrying a vertex's rotation in the XML
// vocabulary. The decoder lifts it into the Vertex field; the encoder writes
// it back when non-zero.
const styleRotation = "rotation"

// Decode parses a document into a scene. Reserved cells "0" and "1" are
// skipped; a cell becomes an edge iff its edge flag is set, else a vertex iff
// it carries a geometry record, else it is ignored. Element order follows
// document order. Styles come out in canonical serialized form so a scene
// survives an encode/decode cycle value-equal.
func Decode(xmlText string) (*scene.Scene, error) {
	m, err := parse(xmlText)
	if err != nil {
		return nil, err
	}
	var els []scene.Element
	for i := range m.Root.Cells {
		c := &m.Root.Cells[i]
		if c.ID == scene.RootCellID || c.ID == scene.LayerCellID {
			continue
		}
		switch {
		case flagSet(c.Edge):
			els = append(els, decodeEdge(c))
		case c.Geometry != nil:
			els = append(els, decodeVertex(c))
		}
	}
	return scene.FromElements(els), nil
}

func parse(xmlText string) (*Model, error) {
	var m Model
	if err := xml.Unmarshal([]byte(xmlText), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &m, nil
}

func decodeVertex(c *Cell) *scene.Vertex {
	g := c.Geometry
	style := scene.ParseStyle(scene.Style(c.Style))
	rot := num(style[styleRotation], 0)
	delete(style, styleRotation)
	return &scene.Vertex{
		Ident:    c.ID,
		Text:     c.Value,
		Shape:    scene.FormatStyle(style),
		X:        num(g.X, 0),
		Y:        num(g.Y, 0),
		W:        num(g.Width, scene.DefaultVertexWidth),
		H:        num(g.Height, scene.DefaultVertexHeight),
		Rotation: geom.NormalizeDeg(rot),
	}
}

func decodeEdge(c *Cell) *scene.Edge {
	e := &scene.Edge{
		Ident:  c.ID,
		Text:   c.Value,
		Shape:  scene.FormatStyle(scene.ParseStyle(scene.Style(c.Style))),
		Source: c.Source,
		Target: c.Target,
	}
	g := c.Geometry
	if g == nil {
		return e
	}
	var src, tgt *Point
	for i := range g.Points {
		switch g.Points[i].As {
		case asSourcePoint:
			src = &g.Points[i]
		case asTargetPoint:
			tgt = &g.Points[i]
		}
	}
	if src == nil || tgt == nil {
		// No absolute endpoints: the path is degenerate. Keep the box; the
		// first geometric edit synthesizes the two-point minimum from it.
		e.Box = geom.R(num(g.X, 0), num(g.Y, 0), num(g.Width, 0), num(g.Height, 0))
		return e
	}
	pts := []geom.Pt{pointOf(src)}
	if g.Array != nil {
		for i := range g.Array.Points {
			pts = append(pts, pointOf(&g.Array.Points[i]))
		}
	}
	pts = append(pts, pointOf(tgt))
	e.Points = pts
	e.RecomputeBox()
	return e
}

func pointOf(p *Point) geom.Pt {
	return geom.Pt{X: num(p.X, 0), Y: num(p.Y, 0)}
}

// num is the tolerant numeric parse: missing or unparsable attributes take
// the caller's default instead of failing the decode.
func num(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func flagSet(v string) bool { return v != "" && v != "0" }
