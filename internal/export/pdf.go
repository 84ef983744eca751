/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"godiagram/internal/scene"
)

// ExportPDF renders the scene to a single-page PDF at outPath. Scene units
// map 1:1 to PDF points; built-in Helvetica keeps text vector without
// embedding.
func ExportPDF(s *scene.Scene, outPath string, opt Options) error {
	if s == nil {
		return fmt.Errorf("scene is nil")
	}
	pg := layout(s, opt)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pg.W, Ht: pg.H},
		OrientationStr: "",
	})
	pdf.SetTitle("Diagram", false)
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: pg.W, Ht: pg.H})

	if opt.Background {
		pdf.SetFillColor(255, 255, 255)
		pdf.Rect(0, 0, pg.W, pg.H, "F")
	}

	for _, el := range s.Elements() {
		st := styleOf(el)
		switch e := el.(type) {
		case *scene.Vertex:
			drawPDFVertex(pdf, pg, e, st)
		case *scene.Edge:
			drawPDFEdge(pdf, pg, e, st)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawPDFVertex(pdf *gofpdf.Fpdf, pg page, v *scene.Vertex, st elementStyle) {
	x := v.X + pg.OffX
	y := v.Y + pg.OffY
	cx := x + v.W/2
	cy := y + v.H/2

	setDrawColor(pdf, st.Stroke)
	setFillColor(pdf, st.Fill)
	pdf.SetLineWidth(st.Width)
	if st.Dashed {
		pdf.SetDashPattern([]float64{4, 3}, 0)
	}

	mode := "FD"
	if st.Fill.A == 0 {
		mode = "D"
	}
	if v.Rotation != 0 {
		pdf.TransformBegin()
		pdf.TransformRotate(-v.Rotation, cx, cy)
	}
	if st.Ellipse {
		pdf.Ellipse(cx, cy, v.W/2, v.H/2, 0, mode)
	} else {
		pdf.Rect(x, y, v.W, v.H, mode)
	}
	if v.Text != "" {
		setTextColor(pdf, st.FontColor)
		pdf.SetFont("Helvetica", "", st.FontSize)
		tw := pdf.GetStringWidth(v.Text)
		pdf.Text(cx-tw/2, cy+st.FontSize/3, v.Text)
	}
	if v.Rotation != 0 {
		pdf.TransformEnd()
	}
	if st.Dashed {
		pdf.SetDashPattern([]float64{}, 0)
	}
}

func drawPDFEdge(pdf *gofpdf.Fpdf, pg page, e *scene.Edge, st elementStyle) {
	if len(e.Points) < 2 {
		return
	}
	setDrawColor(pdf, st.Stroke)
	pdf.SetLineWidth(st.Width)
	if st.Dashed {
		pdf.SetDashPattern([]float64{4, 3}, 0)
	}
	for i := 1; i < len(e.Points); i++ {
		a := pg.pt(e.Points[i-1])
		b := pg.pt(e.Points[i])
		pdf.Line(a.X, a.Y, b.X, b.Y)
	}
	if st.Dashed {
		pdf.SetDashPattern([]float64{}, 0)
	}
	if e.Text != "" {
		setTextColor(pdf, st.FontColor)
		pdf.SetFont("Helvetica", "", st.FontSize)
		a := pg.pt(labelAnchor(e))
		tw := pdf.GetStringWidth(e.Text)
		pdf.Text(a.X-tw/2, a.Y-4, e.Text)
	}
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
