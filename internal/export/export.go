/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a scene to SVG, PDF and PNG files. Exports are
// derived artifacts; the XML document stays the single source of truth.
package export

import (
	"fmt"
	"image/color"
	"strconv"

	"godiagram/internal/geom"
	"godiagram/internal/scene"
)

// Options controls export behavior for all formats. Coordinates are scene
// units (points); Margin is added around the scene bounding box.
type Options struct {
	Margin     float64 // page padding in scene units, default 20
	Scale      float64 // PNG only: pixels per scene unit, default 2
	Background bool    // paint a white background instead of transparent/none
}

func (o Options) margin() float64 {
	if o.Margin <= 0 {
		return 20
	}
	return o.Margin
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 2
	}
	return o.Scale
}

// page is the resolved drawing area: scene bounds plus margin, with the
// translation that maps scene coordinates into page coordinates.
type page struct {
	W, H   float64
	OffX   float64
	OffY   float64
	Margin float64
}

func (p page) pt(q geom.Pt) geom.Pt { return geom.Pt{X: q.X + p.OffX, Y: q.Y + p.OffY} }

func layout(s *scene.Scene, opt Options) page {
	m := opt.margin()
	els := s.Elements()
	if len(els) == 0 {
		return page{W: 2 * m, H: 2 * m, OffX: m, OffY: m, Margin: m}
	}
	b := els[0].Bounds()
	for _, el := range els[1:] {
		b = b.Union(el.Bounds())
	}
	return page{
		W:      b.W + 2*m,
		H:      b.H + 2*m,
		OffX:   m - b.X,
		OffY:   m - b.Y,
		Margin: m,
	}
}

// elementStyle is the drawable subset of an element's style string.
type elementStyle struct {
	Fill      color.RGBA
	Stroke    color.RGBA
	Width     float64
	Rounded   bool
	Ellipse   bool
	Dashed    bool
	FontSize  float64
	FontColor color.RGBA
}

func styleOf(el scene.Element) elementStyle {
	st := elementStyle{
		Fill:      color.RGBA{255, 255, 255, 255},
		Stroke:    color.RGBA{0, 0, 0, 255},
		Width:     1,
		FontSize:  12,
		FontColor: color.RGBA{0, 0, 0, 255},
	}
	m := scene.ParseStyle(el.Style())
	if v, ok := m["fillColor"]; ok {
		if c, err := parseHexColor(v); err == nil {
			st.Fill = c
		}
	}
	if v, ok := m["strokeColor"]; ok {
		if c, err := parseHexColor(v); err == nil {
			st.Stroke = c
		}
	}
	if v, ok := m["fontColor"]; ok {
		if c, err := parseHexColor(v); err == nil {
			st.FontColor = c
		}
	}
	if v, ok := m["strokeWidth"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			st.Width = f
		}
	}
	if v, ok := m["fontSize"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			st.FontSize = f
		}
	}
	st.Rounded = m["rounded"] == "1"
	st.Dashed = m["dashed"] == "1"
	st.Ellipse = m["shape"] == "ellipse"
	return st
}

// parseHexColor accepts #rgb and #rrggbb; "none" maps to fully transparent.
func parseHexColor(v string) (color.RGBA, error) {
	if v == "none" {
		return color.RGBA{}, nil
	}
	if len(v) > 0 && v[0] == '#' {
		v = v[1:]
	}
	switch len(v) {
	case 3:
		n, err := strconv.ParseUint(v, 16, 16)
		if err != nil {
			return color.RGBA{}, err
		}
		r := uint8(n >> 8 & 0xf)
		g := uint8(n >> 4 & 0xf)
		b := uint8(n & 0xf)
		return color.RGBA{r | r<<4, g | g<<4, b | b<<4, 255}, nil
	case 6:
		n, err := strconv.ParseUint(v, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		return color.RGBA{uint8(n >> 16), uint8(n >> 8), uint8(n), 255}, nil
	}
	return color.RGBA{}, fmt.Errorf("bad color %q", v)
}

// labelAnchor returns where an element's label is drawn: the vertex center or
// the midpoint of the edge path.
func labelAnchor(el scene.Element) geom.Pt {
	if e, ok := el.(*scene.Edge); ok && len(e.Points) >= 2 {
		mid := len(e.Points) / 2
		if len(e.Points)%2 == 0 {
			return geom.Mid(e.Points[mid-1], e.Points[mid])
		}
		return e.Points[mid]
	}
	return el.Bounds().Center()
}
