/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"godiagram/internal/scene"
)

func sampleScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.New()
	s, aID := scene.AddVertex(s, 40, 40, "rounded=1;fillColor=#dae8fc;")
	s = scene.SetValue(s, aID, "Service A")
	s, bID := scene.AddVertex(s, 300, 40, "shape=ellipse;")
	s = scene.SetValue(s, bID, "Queue")
	s, eID, err := scene.AddEdge(s, aID, bID, "dashed=1;")
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	s = scene.SetValue(s, eID, "publishes")
	return s
}

func TestExportSVGWritesShapes(t *testing.T) {
	out := filepath.Join(t.TempDir(), "diagram.svg")
	if err := ExportSVG(sampleScene(t), out, Options{Background: true}); err != nil {
		t.Fatalf("ExportSVG: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	doc := string(b)
	for _, want := range []string{
		"<svg xmlns=\"http://www.w3.org/2000/svg\"",
		"rx=\"8\"",       // rounded vertex
		"<ellipse",       // ellipse vertex
		"<polyline",      // edge path
		"fill=\"#dae8fc\"",
		"stroke-dasharray",
		">Service A</text>",
		">publishes</text>",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("svg missing %q:\n%s", want, doc)
		}
	}
}

func TestExportSVGEscapesLabels(t *testing.T) {
	s := scene.New()
	s, id := scene.AddVertex(s, 0, 0, "")
	s = scene.SetValue(s, id, "a <b> & c")
	out := filepath.Join(t.TempDir(), "esc.svg")
	if err := ExportSVG(s, out, Options{}); err != nil {
		t.Fatalf("ExportSVG: %v", err)
	}
	b, _ := os.ReadFile(out)
	if !strings.Contains(string(b), "a &lt;b&gt; &amp; c") {
		t.Fatalf("label not escaped:\n%s", b)
	}
}

func TestExportPDFCreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "diagram.pdf")
	if err := ExportPDF(sampleScene(t), out, Options{Background: true}); err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() <= 0 {
		t.Fatalf("pdf file empty")
	}
}

func TestExportPNGDimensions(t *testing.T) {
	out := filepath.Join(t.TempDir(), "diagram.png")
	s := sampleScene(t)
	if err := ExportPNG(s, out, Options{Background: true, Scale: 1, Margin: 10}); err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	// Scene spans x 40..420, y 40..100; margin 10 on each side at scale 1.
	b := img.Bounds()
	if b.Dx() != 400 || b.Dy() != 80 {
		t.Fatalf("png size = %dx%d, want 400x80", b.Dx(), b.Dy())
	}
}

func TestExportEmptySceneStillRenders(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.svg")
	if err := ExportSVG(scene.New(), out, Options{}); err != nil {
		t.Fatalf("ExportSVG on empty scene: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("stat: %v", err)
	}
}
