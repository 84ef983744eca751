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
	"fmt"
	"strconv"
	"strings"

	"godiagram/internal/scene"
)

// Encode merges the scene back into originalXmlText. The merge contract:
// cells whose id left the scene are removed, cells still present are updated
// in place (geometry rewritten wholesale, unknown attributes kept), new
// elements are appended under the layer, and everything the editor does not
// own (the root/layer scaffold, document attributes, foreign nodes) passes
// through untouched. Decode of the result is value-equal to the scene.
//
// An empty original is returned unchanged: there is no scaffold to merge
// into. Fresh documents start from EmptyDocument instead.
func Encode(s *scene.Scene, originalXmlText string) (string, error) {
	if strings.TrimSpace(originalXmlText) == "" {
		return originalXmlText, nil
	}
	m, err := parse(originalXmlText)
	if err != nil {
		return "", err
	}

	kept := make([]Cell, 0, len(m.Root.Cells))
	seen := make(map[string]bool)
	for _, c := range m.Root.Cells {
		if c.ID == scene.RootCellID || c.ID == scene.LayerCellID {
			kept = append(kept, c)
			continue
		}
		el := s.Get(c.ID)
		if el == nil {
			continue
		}
		fillCell(&c, el)
		kept = append(kept, c)
		seen[c.ID] = true
	}
	for _, el := range s.Elements() {
		if seen[el.ID()] {
			continue
		}
		c := Cell{ID: el.ID(), Parent: scene.LayerCellID}
		fillCell(&c, el)
		kept = append(kept, c)
	}
	m.Root.Cells = kept

	out, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}
	return string(out), nil
}

// fillCell writes the element's data over the cell. Parent and unknown
// attributes survive; geometry and waypoints are always rebuilt from scratch
// so stale sub-structure cannot accumulate.
func fillCell(c *Cell, el scene.Element) {
	if c.Parent == "" {
		c.Parent = scene.LayerCellID
	}
	c.Value = el.Value()
	switch t := el.(type) {
	case *scene.Vertex:
		c.Style = string(vertexStyle(t))
		c.Vertex = "1"
		c.Edge = ""
		c.Source = ""
		c.Target = ""
		c.Geometry = &Geometry{
			X:      fnum(t.X),
			Y:      fnum(t.Y),
			Width:  fnum(t.W),
			Height: fnum(t.H),
			As:     asGeometry,
		}
	case *scene.Edge:
		c.Style = string(t.Shape)
		c.Vertex = ""
		c.Edge = "1"
		c.Source = t.Source
		c.Target = t.Target
		c.Geometry = edgeGeometry(t)
	}
}

func vertexStyle(v *scene.Vertex) scene.Style {
	if v.Rotation == 0 {
		return v.Shape
	}
	return v.Shape.With(styleRotation, fnum(v.Rotation))
}

func edgeGeometry(e *scene.Edge) *Geometry {
	if len(e.Points) < 2 {
		// Degenerate path: persist only the bounding box, exactly as decoded.
		return &Geometry{
			X:        fnum(e.Box.X),
			Y:        fnum(e.Box.Y),
			Width:    fnum(e.Box.W),
			Height:   fnum(e.Box.H),
			Relative: "1",
			As:       asGeometry,
		}
	}
	g := &Geometry{
		Relative: "1",
		As:       asGeometry,
		Points: []Point{
			{X: fnum(e.Points[0].X), Y: fnum(e.Points[0].Y), As: asSourcePoint},
			{X: fnum(e.Points[len(e.Points)-1].X), Y: fnum(e.Points[len(e.Points)-1].Y), As: asTargetPoint},
		},
	}
	if len(e.Points) > 2 {
		list := &PointList{As: asPoints}
		for _, p := range e.Points[1 : len(e.Points)-1] {
			list.Points = append(list.Points, Point{X: fnum(p.X), Y: fnum(p.Y)})
		}
		g.Array = list
	}
	return g
}

// fnum formats a coordinate with the shortest representation that parses
// back to the identical float64, so round trips lose no precision.
func fnum(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
