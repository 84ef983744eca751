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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"godiagram/internal/geom"
	"godiagram/internal/scene"
)

// ExportPNG rasterizes the scene to a PNG at outPath. Options.Scale sets
// pixels per scene unit. Labels use the built-in bitmap face; the raster
// export is a preview artifact, not print output.
func ExportPNG(s *scene.Scene, outPath string, opt Options) error {
	if s == nil {
		return fmt.Errorf("scene is nil")
	}
	pg := layout(s, opt)
	sc := opt.scale()
	pixW := int(math.Round(pg.W * sc))
	pixH := int(math.Round(pg.H * sc))
	if pixW < 1 {
		pixW = 1
	}
	if pixH < 1 {
		pixH = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	if opt.Background {
		draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)
	}

	px := func(p geom.Pt) (int, int) {
		q := pg.pt(p)
		return int(math.Round(q.X * sc)), int(math.Round(q.Y * sc))
	}

	for _, el := range s.Elements() {
		st := styleOf(el)
		switch e := el.(type) {
		case *scene.Vertex:
			x0, y0 := px(geom.Pt{X: e.X, Y: e.Y})
			x1, y1 := px(geom.Pt{X: e.X + e.W, Y: e.Y + e.H})
			if st.Fill.A != 0 {
				fillRect(img, x0, y0, x1-1, y1-1, st.Fill)
			}
			strokeRect(img, x0, y0, x1-1, y1-1, st.Stroke)
			if e.Text != "" {
				cx, cy := px(e.Center())
				drawLabel(img, cx, cy, e.Text, st.FontColor)
			}
		case *scene.Edge:
			if len(e.Points) < 2 {
				continue
			}
			for i := 1; i < len(e.Points); i++ {
				x0, y0 := px(e.Points[i-1])
				x1, y1 := px(e.Points[i])
				drawLine(img, x0, y0, x1, y1, st.Stroke)
			}
			if e.Text != "" {
				mx, my := px(labelAnchor(e))
				drawLabel(img, mx, my-6, e.Text, st.FontColor)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// drawLine draws a 1px line using the integer Bresenham walk.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.SetRGBA(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// drawLabel renders text centered on (cx, cy) with the fixed 7x13 face.
func drawLabel(img *image.RGBA, cx, cy int, text string, col color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
	}
	w := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(cx) - w/2,
		Y: fixed.I(cy + face.Height/2 - face.Descent),
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
