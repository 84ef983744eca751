//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"godiagram/internal/config"
	"godiagram/internal/crash"
	"godiagram/internal/editor"
	"godiagram/internal/export"
	"godiagram/internal/geom"
	"godiagram/internal/history"
	applog "godiagram/internal/log"
	"godiagram/internal/mxgraph"
	"godiagram/internal/scene"
	"godiagram/internal/shapelib"
	"godiagram/internal/storage"
	"godiagram/internal/version"
	"godiagram/internal/watcher"
)

// Run starts the Fyne-based desktop editor on the diagram at path. An empty
// path opens an unsaved empty document.
func Run(path string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	cfg, _, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}

	var ws *storage.Workspace
	var ed *editor.Editor
	defer func() {
		if r := recover(); r != nil {
			xml := ""
			if ed != nil {
				xml = ed.XML()
			}
			crash.Report(ws, xml, r)
		}
	}()

	histCfg := history.Config{MaxDepth: cfg.Editor.HistoryMaxDepth}
	if path != "" {
		ws, err = storage.OpenWorkspace(path)
		if err != nil && errors.Is(err, os.ErrNotExist) {
			ws, err = storage.InitWorkspace(path, mxgraph.EmptyDocument)
		}
		if err != nil {
			return fmt.Errorf("open diagram: %w", err)
		}
		text, rerr := ws.ReadDocument()
		if rerr != nil {
			return fmt.Errorf("read diagram: %w", rerr)
		}
		ed = editor.Open(text, histCfg)
	} else {
		ed = editor.New(histCfg)
	}
	session := editor.NewSession(ed)

	lib := shapelib.NewLibrary()
	if ws != nil {
		if _, err := lib.LoadDir(filepath.Join(ws.Root, storage.IndexDirName, "palettes")); err != nil {
			l.Warn("palette load failed", slog.Any("err", err))
		}
	}

	if cfg.Editor.DefaultShape != "" {
		if st, ok := lib.StyleFor(cfg.Editor.DefaultShape); ok {
			session.VertexStyle = string(st)
		}
	}

	fyneApp := app.NewWithID("godiagram")
	w := fyneApp.NewWindow(windowTitle(ws))
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	dc := newDiagramCanvas(session)
	savedRevision := ed.Revision()

	setStatus := func(format string, args ...any) {
		status.SetText(fmt.Sprintf(format, args...))
	}

	save := func() {
		if ws == nil {
			setStatus("No file open; use the CLI to create one")
			return
		}
		if err := ws.SaveDocument(ed.XML()); err != nil {
			setStatus("Save failed: %v", err)
			l.Error("save failed", slog.Any("err", err))
			return
		}
		savedRevision = ed.Revision()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := storage.IndexScene(ctx, ws, ed.Scene()); err != nil {
			l.Warn("label index refresh failed", slog.Any("err", err))
		}
		setStatus("Saved %s", filepath.Base(ws.Path))
	}

	shapes := widget.NewSelect(lib.ShapeNames(), func(name string) {
		if st, ok := lib.StyleFor(name); ok {
			session.VertexStyle = string(st)
			setStatus("New boxes use %s", name)
		}
	})
	shapes.PlaceHolder = "Shape"

	toolbar := container.NewHBox(
		widget.NewButton("Select", func() { session.SetTool(editor.ToolSelect); setStatus("Select tool") }),
		widget.NewButton("Box", func() { session.SetTool(editor.ToolAddVertex); setStatus("Click the canvas to add a box") }),
		shapes,
		widget.NewButton("Edge", func() { session.SetTool(editor.ToolAddEdge); setStatus("Click two boxes to connect them") }),
		widget.NewButton("Pan", func() { session.SetTool(editor.ToolPan); setStatus("Drag to pan") }),
		widget.NewSeparator(),
		widget.NewButton("Undo", func() {
			if ed.Undo() {
				dc.Refresh()
				setStatus("Undid last edit")
			}
		}),
		widget.NewButton("Redo", func() {
			if ed.Redo() {
				dc.Refresh()
				setStatus("Redid edit")
			}
		}),
		widget.NewSeparator(),
		widget.NewButton("Save", save),
		widget.NewButton("Export", func() { showExportDialog(w, ws, ed, setStatus) }),
	)

	dc.onChange = func() {
		dc.Refresh()
		if sel := session.Selected(); sel != "" {
			setStatus("Selected %s", sel)
		}
	}
	dc.onDoubleTap = func(id string) {
		if !session.BeginTextEdit(id) {
			return
		}
		entry := widget.NewEntry()
		if el := session.Scene().Get(id); el != nil {
			entry.SetText(el.Value())
		}
		dialog.ShowForm("Edit label", "OK", "Cancel",
			[]*widget.FormItem{widget.NewFormItem("Label", entry)},
			func(ok bool) {
				if ok {
					session.CommitTextEdit(entry.Text)
				} else {
					session.CancelTextEdit()
				}
				dc.Refresh()
			}, w)
	}

	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			session.Escape()
			dc.Refresh()
			setStatus("Cancelled")
		case fyne.KeyDelete, fyne.KeyBackspace:
			session.DeleteSelection()
			dc.Refresh()
		}
	})

	// Autosave into the index database, not the document file.
	if ws != nil && cfg.Editor.AutosaveSeconds > 0 {
		go func() {
			t := time.NewTicker(time.Duration(cfg.Editor.AutosaveSeconds) * time.Second)
			defer t.Stop()
			var lastSaved uint64
			for range t.C {
				rev := ed.Revision()
				if rev == lastSaved {
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := storage.SaveAutosave(ctx, ws, ed.XML(), time.Now()); err != nil {
					l.Warn("autosave failed", slog.Any("err", err))
				} else {
					lastSaved = rev
					if _, err := storage.PruneAutosaves(ctx, ws, 20); err != nil {
						l.Warn("autosave prune failed", slog.Any("err", err))
					}
				}
				cancel()
			}
		}()
	}

	stopWatch := func() {}
	w.SetOnClosed(func() {
		stopWatch()
		prefs.SetInt("window.width", int(w.Canvas().Size().Width))
		prefs.SetInt("window.height", int(w.Canvas().Size().Height))
	})

	// Reload on external change when there is no unsaved work.
	if ws != nil {
		if fw, werr := watcher.New(ws.Path, 0, 0); werr == nil {
			ctx, cancel := context.WithCancel(context.Background())
			fw.Start(ctx)
			stopWatch = cancel
			go func() {
				for range fw.Events() {
					fyne.Do(func() {
						if ed.Revision() != savedRevision {
							setStatus("File changed on disk; save or undo before reloading")
							return
						}
						text, rerr := ws.ReadDocument()
						if rerr != nil {
							l.Warn("reload failed", slog.Any("err", rerr))
							return
						}
						ed = editor.Open(text, histCfg)
						session = editor.NewSession(ed)
						dc.session = session
						savedRevision = ed.Revision()
						dc.Refresh()
						setStatus("Reloaded from disk")
					})
				}
			}()
		} else {
			l.Warn("file watcher unavailable", slog.Any("err", werr))
		}
	}

	w.SetContent(container.NewBorder(toolbar, status, nil, nil, dc))
	w.ShowAndRun()
	return nil
}

func windowTitle(ws *storage.Workspace) string {
	if ws == nil {
		return "GoDiagram"
	}
	return "GoDiagram - " + filepath.Base(ws.Path)
}

func showExportDialog(w fyne.Window, ws *storage.Workspace, ed *editor.Editor, setStatus func(string, ...any)) {
	if ws == nil {
		setStatus("Open a file before exporting")
		return
	}
	formats := []string{"svg", "pdf", "png"}
	sel := widget.NewSelect(formats, nil)
	sel.SetSelected("svg")
	dialog.ShowForm("Export diagram", "Export", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Format", sel)},
		func(ok bool) {
			if !ok {
				return
			}
			base := ws.Path[:len(ws.Path)-len(filepath.Ext(ws.Path))]
			out := base + "." + sel.Selected
			var err error
			switch sel.Selected {
			case "pdf":
				err = export.ExportPDF(ed.Scene(), out, export.Options{Background: true})
			case "png":
				err = export.ExportPNG(ed.Scene(), out, export.Options{Background: true})
			default:
				err = export.ExportSVG(ed.Scene(), out, export.Options{Background: true})
			}
			if err != nil {
				setStatus("Export failed: %v", err)
				return
			}
			setStatus("Exported %s", filepath.Base(out))
		}, w)
}

// diagramCanvas renders the session's scene and translates Fyne pointer
// events into session gestures.
type diagramCanvas struct {
	widget.BaseWidget
	session *editor.Session

	dragging    bool
	dragViewX   float64
	dragViewY   float64
	lastDrag    geom.Pt
	onChange    func()
	onDoubleTap func(id string)
}

func newDiagramCanvas(s *editor.Session) *diagramCanvas {
	dc := &diagramCanvas{session: s}
	dc.ExtendBaseWidget(dc)
	return dc
}

// toScene maps a widget position into scene coordinates using the view
// offset captured at gesture start so panning does not feed back into the
// gesture's own coordinates.
func (d *diagramCanvas) toScene(pos fyne.Position) geom.Pt {
	vx, vy := d.session.ViewX, d.session.ViewY
	if d.dragging {
		vx, vy = d.dragViewX, d.dragViewY
	}
	return geom.Pt{X: float64(pos.X) - vx, Y: float64(pos.Y) - vy}
}

func (d *diagramCanvas) Tapped(e *fyne.PointEvent) {
	p := d.toScene(e.Position)
	d.session.PointerDown(p)
	d.session.PointerUp(p)
	if d.onChange != nil {
		d.onChange()
	}
}

func (d *diagramCanvas) DoubleTapped(e *fyne.PointEvent) {
	p := d.toScene(e.Position)
	for _, el := range d.session.Scene().Elements() {
		if el.Bounds().Contains(p) {
			if d.onDoubleTap != nil {
				d.onDoubleTap(el.ID())
			}
			return
		}
	}
}

func (d *diagramCanvas) Dragged(e *fyne.DragEvent) {
	if !d.dragging {
		d.dragging = true
		d.dragViewX = d.session.ViewX
		d.dragViewY = d.session.ViewY
		start := fyne.NewPos(e.Position.X-e.Dragged.DX, e.Position.Y-e.Dragged.DY)
		d.session.PointerDown(d.toScene(start))
	}
	d.lastDrag = d.toScene(e.Position)
	d.session.PointerMove(d.lastDrag)
	d.Refresh()
}

func (d *diagramCanvas) DragEnd() {
	if !d.dragging {
		return
	}
	d.dragging = false
	d.session.PointerUp(d.lastDrag)
	if d.onChange != nil {
		d.onChange()
	}
}

func (d *diagramCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 250, G: 250, B: 250, A: 255})
	return &diagramRenderer{dc: d, bg: bg, objects: []fyne.CanvasObject{bg}}
}

func (d *diagramCanvas) MinSize() fyne.Size { return fyne.NewSize(800, 600) }

// diagramRenderer lays out pooled canvas primitives for the current scene.
// Pools grow as the scene grows; surplus objects are hidden, not removed.
type diagramRenderer struct {
	dc      *diagramCanvas
	bg      *canvas.Rectangle
	boxes   []*canvas.Rectangle
	lines   []*canvas.Line
	labels  []*canvas.Text
	sel     *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *diagramRenderer) Destroy()                     {}
func (r *diagramRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *diagramRenderer) MinSize() fyne.Size           { return r.dc.MinSize() }
func (r *diagramRenderer) Refresh()                     { r.Layout(r.dc.Size()); canvas.Refresh(r.dc) }

func (r *diagramRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	s := r.dc.session.Scene()
	vx := float32(r.dc.session.ViewX)
	vy := float32(r.dc.session.ViewY)

	nBoxes, nLines, nLabels := 0, 0, 0
	for _, el := range s.Elements() {
		switch e := el.(type) {
		case *scene.Vertex:
			b := r.box(nBoxes)
			nBoxes++
			b.Resize(fyne.NewSize(float32(e.W), float32(e.H)))
			b.Move(fyne.NewPos(float32(e.X)+vx, float32(e.Y)+vy))
			b.Show()
			if e.Text != "" {
				t := r.label(nLabels)
				nLabels++
				t.Text = e.Text
				c := e.Center()
				t.Move(fyne.NewPos(float32(c.X)+vx-t.MinSize().Width/2, float32(c.Y)+vy-t.MinSize().Height/2))
				t.Show()
				t.Refresh()
			}
		case *scene.Edge:
			for i := 1; i < len(e.Points); i++ {
				ln := r.line(nLines)
				nLines++
				ln.Position1 = fyne.NewPos(float32(e.Points[i-1].X)+vx, float32(e.Points[i-1].Y)+vy)
				ln.Position2 = fyne.NewPos(float32(e.Points[i].X)+vx, float32(e.Points[i].Y)+vy)
				ln.Show()
				ln.Refresh()
			}
			if e.Text != "" && len(e.Points) >= 2 {
				t := r.label(nLabels)
				nLabels++
				t.Text = e.Text
				mid := geom.Mid(e.Points[0], e.Points[len(e.Points)-1])
				t.Move(fyne.NewPos(float32(mid.X)+vx-t.MinSize().Width/2, float32(mid.Y)+vy-t.MinSize().Height-2))
				t.Show()
				t.Refresh()
			}
		}
	}
	for i := nBoxes; i < len(r.boxes); i++ {
		r.boxes[i].Hide()
	}
	for i := nLines; i < len(r.lines); i++ {
		r.lines[i].Hide()
	}
	for i := nLabels; i < len(r.labels); i++ {
		r.labels[i].Hide()
	}

	r.layoutSelection(s, vx, vy)
}

func (r *diagramRenderer) layoutSelection(s *scene.Scene, vx, vy float32) {
	if r.sel == nil {
		r.sel = canvas.NewRectangle(color.RGBA{})
		r.sel.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
		r.sel.StrokeWidth = 1
		r.sel.Hide()
		r.objects = append(r.objects, r.sel)
	}
	id := r.dc.session.Selected()
	if id == "" {
		r.sel.Hide()
		return
	}
	el := s.Get(id)
	if el == nil {
		r.sel.Hide()
		return
	}
	b := el.Bounds()
	r.sel.Resize(fyne.NewSize(float32(b.W)+4, float32(b.H)+4))
	r.sel.Move(fyne.NewPos(float32(b.X)+vx-2, float32(b.Y)+vy-2))
	r.sel.Show()
}

// addObject keeps the selection rectangle last so it draws on top of
// everything pooled later.
func (r *diagramRenderer) addObject(o fyne.CanvasObject) {
	if n := len(r.objects); r.sel != nil && n > 0 && r.objects[n-1] == r.sel {
		r.objects = append(r.objects[:n-1], o, r.sel)
		return
	}
	r.objects = append(r.objects, o)
}

func (r *diagramRenderer) box(i int) *canvas.Rectangle {
	for i >= len(r.boxes) {
		b := canvas.NewRectangle(color.RGBA{R: 235, G: 241, B: 250, A: 255})
		b.StrokeColor = color.RGBA{R: 60, G: 60, B: 60, A: 255}
		b.StrokeWidth = 1
		r.boxes = append(r.boxes, b)
		r.addObject(b)
	}
	return r.boxes[i]
}

func (r *diagramRenderer) line(i int) *canvas.Line {
	for i >= len(r.lines) {
		ln := canvas.NewLine(color.RGBA{R: 60, G: 60, B: 60, A: 255})
		ln.StrokeWidth = 1
		r.lines = append(r.lines, ln)
		r.addObject(ln)
	}
	return r.lines[i]
}

func (r *diagramRenderer) label(i int) *canvas.Text {
	for i >= len(r.labels) {
		t := canvas.NewText("", color.RGBA{R: 20, G: 20, B: 20, A: 255})
		t.TextSize = 12
		r.labels = append(r.labels, t)
		r.addObject(t)
	}
	return r.labels[i]
}
