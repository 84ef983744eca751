/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"godiagram/internal/scene"
)

// ExportSVG renders the scene as a single SVG document at outPath.
func ExportSVG(s *scene.Scene, outPath string, opt Options) error {
	if s == nil {
		return fmt.Errorf("scene is nil")
	}
	pg := layout(s, opt)

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n", pg.W, pg.H, pg.W, pg.H)
	if opt.Background {
		wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", pg.W, pg.H)
	}

	for _, el := range s.Elements() {
		st := styleOf(el)
		switch e := el.(type) {
		case *scene.Vertex:
			writeSVGVertex(wf, pg, e, st)
		case *scene.Edge:
			writeSVGEdge(wf, pg, e, st)
		}
	}

	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func writeSVGVertex(wf func(string, ...any), pg page, v *scene.Vertex, st elementStyle) {
	x := v.X + pg.OffX
	y := v.Y + pg.OffY
	cx := x + v.W/2
	cy := y + v.H/2

	attrs := fmt.Sprintf("fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"", svgColor(st.Fill), svgColor(st.Stroke), st.Width)
	if st.Dashed {
		attrs += " stroke-dasharray=\"4 3\""
	}
	if v.Rotation != 0 {
		attrs += fmt.Sprintf(" transform=\"rotate(%g %g %g)\"", v.Rotation, cx, cy)
	}

	switch {
	case st.Ellipse:
		wf("  <ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\" %s/>\n", cx, cy, v.W/2, v.H/2, attrs)
	case st.Rounded:
		wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" rx=\"8\" ry=\"8\" %s/>\n", x, y, v.W, v.H, attrs)
	default:
		wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" %s/>\n", x, y, v.W, v.H, attrs)
	}

	if v.Text != "" {
		wf("  <text x=\"%g\" y=\"%g\" text-anchor=\"middle\" dominant-baseline=\"middle\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" fill=\"%s\">%s</text>\n",
			cx, cy, st.FontSize, svgColor(st.FontColor), escText(v.Text))
	}
}

func writeSVGEdge(wf func(string, ...any), pg page, e *scene.Edge, st elementStyle) {
	if len(e.Points) < 2 {
		return
	}
	var pts bytes.Buffer
	for i, p := range e.Points {
		if i > 0 {
			pts.WriteByte(' ')
		}
		q := pg.pt(p)
		fmt.Fprintf(&pts, "%g,%g", q.X, q.Y)
	}
	dash := ""
	if st.Dashed {
		dash = " stroke-dasharray=\"4 3\""
	}
	wf("  <polyline points=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"%s/>\n", pts.String(), svgColor(st.Stroke), st.Width, dash)

	if e.Text != "" {
		a := pg.pt(labelAnchor(e))
		wf("  <text x=\"%g\" y=\"%g\" text-anchor=\"middle\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" fill=\"%s\">%s</text>\n",
			a.X, a.Y-4, st.FontSize, svgColor(st.FontColor), escText(e.Text))
	}
}

func svgColor(c color.RGBA) string {
	if c.A == 0 {
		return "none"
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
