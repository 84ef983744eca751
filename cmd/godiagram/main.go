/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"godiagram/internal/backend"
	"godiagram/internal/config"
	"godiagram/internal/crash"
	"godiagram/internal/editor"
	"godiagram/internal/export"
	"godiagram/internal/history"
	applog "godiagram/internal/log"
	"godiagram/internal/mxgraph"
	"godiagram/internal/scene"
	"godiagram/internal/storage"
	"godiagram/internal/telemetry"
	"godiagram/internal/ui"
	"godiagram/internal/version"
)

func usage() {
	fmt.Println("GoDiagram — box-and-arrow diagram editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  godiagram version|-v|--version             Show version")
	fmt.Println("  godiagram new <file.xml>                   Create a new diagram file")
	fmt.Println("  godiagram open <file.xml>                  Open a diagram and print a summary")
	fmt.Println("  godiagram export <file.xml> <out.{svg,pdf,png}>  Export a diagram")
	fmt.Println("  godiagram search <dir> <query>             Search element labels in a workspace")
	fmt.Println("  godiagram recents <dir>                    List recently opened diagrams")
	fmt.Println("  godiagram restore <file.xml>               Restore the latest autosave snapshot")
	fmt.Println("  godiagram login <user>                     Request a share-server token and store it")
	fmt.Println("  godiagram publish <file.xml> [name]        Publish a diagram to the share server")
	fmt.Println("  godiagram list [query]                     List or search published diagrams")
	fmt.Println("  godiagram fetch <id> <out.xml>             Download a published diagram")
	fmt.Println("  godiagram serve                            Run the share server")
	fmt.Println("  godiagram ui [<file.xml>]                  Launch desktop UI (build with -tags fyne)")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	telemetry.InitDefault()
	defer telemetry.Close()

	var ws *storage.Workspace
	docXML := ""
	defer func() {
		if r := recover(); r != nil {
			crash.Report(ws, docXML, r)
		}
	}()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("GoDiagram — box-and-arrow diagram editor")
		fmt.Println(version.String())

	case "new":
		path := requireArg(args, 2, "new requires <file.xml>")
		abs, _ := filepath.Abs(path)
		l.Info("new diagram", slog.String("path", abs))
		w, err := storage.InitWorkspace(abs, mxgraph.EmptyDocument)
		if err != nil {
			fail(l, "init failed", err)
		}
		ws = w
		fmt.Println("Created diagram at", abs)

	case "open":
		path := requireArg(args, 2, "open requires <file.xml>")
		w, ed := openEditor(l, path)
		ws, docXML = w, ed.XML()
		s := ed.Scene()
		vertices, edges := 0, 0
		for _, el := range s.Elements() {
			if _, ok := el.(*scene.Vertex); ok {
				vertices++
			} else {
				edges++
			}
		}
		fmt.Printf("Opened %s\n", w.Path)
		fmt.Printf("Vertices: %d\nEdges: %d\n", vertices, edges)
		ctx, cancel := timeoutCtx()
		defer cancel()
		if err := storage.TouchRecent(ctx, w); err != nil {
			l.Warn("recents update failed", slog.Any("err", err))
		}
		if err := storage.IndexScene(ctx, w, s); err != nil {
			l.Warn("label index refresh failed", slog.Any("err", err))
		}

	case "export":
		path := requireArg(args, 2, "export requires <file.xml> and <out>")
		out := requireArg(args, 3, "export requires <file.xml> and <out>")
		w, ed := openEditor(l, path)
		ws, docXML = w, ed.XML()
		opt := export.Options{Background: true}
		var err error
		switch strings.ToLower(filepath.Ext(out)) {
		case ".svg":
			err = export.ExportSVG(ed.Scene(), out, opt)
		case ".pdf":
			err = export.ExportPDF(ed.Scene(), out, opt)
		case ".png":
			err = export.ExportPNG(ed.Scene(), out, opt)
		default:
			fmt.Println("export format must be .svg, .pdf or .png")
			os.Exit(2)
		}
		if err != nil {
			fail(l, "export failed", err)
		}
		telemetry.Event("export", map[string]any{"format": filepath.Ext(out)})
		fmt.Println("Exported", out)

	case "search":
		dir := requireArg(args, 2, "search requires <dir> and <query>")
		query := requireArg(args, 3, "search requires <dir> and <query>")
		ctx, cancel := timeoutCtx()
		defer cancel()
		results, err := storage.SearchLabels(ctx, dir, query, 50)
		if err != nil {
			fail(l, "search failed", err)
		}
		for _, r := range results {
			fmt.Printf("%s\t%s\t%s\n", filepath.Base(r.Path), r.ElementID, r.Snippet)
		}
		if len(results) == 0 {
			fmt.Println("No matches.")
		}

	case "recents":
		dir := requireArg(args, 2, "recents requires <dir>")
		ctx, cancel := timeoutCtx()
		defer cancel()
		paths, err := storage.Recents(ctx, dir, 20)
		if err != nil {
			fail(l, "recents failed", err)
		}
		for _, p := range paths {
			fmt.Println(p)
		}

	case "restore":
		path := requireArg(args, 2, "restore requires <file.xml>")
		w, err := storage.OpenWorkspace(path)
		if err != nil {
			fail(l, "open failed", err)
		}
		ws = w
		ctx, cancel := timeoutCtx()
		defer cancel()
		xmlText, ts, err := storage.LatestAutosave(ctx, w)
		if err != nil {
			fail(l, "autosave lookup failed", err)
		}
		if xmlText == "" {
			fmt.Println("No autosave snapshot found.")
			os.Exit(1)
		}
		if err := w.SaveDocument(xmlText); err != nil {
			fail(l, "restore failed", err)
		}
		fmt.Printf("Restored autosave from %s (previous content kept as backup)\n", ts.Format(time.RFC3339))

	case "login":
		user := requireArg(args, 2, "login requires <user>")
		cfg, _, err := config.Load()
		if err != nil {
			fail(l, "config load failed", err)
		}
		c := newBackendClient(cfg, "")
		ctx, cancel := timeoutCtx()
		defer cancel()
		if _, err := c.RequestToken(ctx, user, 24*time.Hour); err != nil {
			fail(l, "token request failed", err)
		}
		if err := config.Save(cfg, c.Token); err != nil {
			fail(l, "token store failed", err)
		}
		fmt.Println("Token stored for", user)

	case "publish":
		path := requireArg(args, 2, "publish requires <file.xml>")
		name := filepath.Base(path)
		if len(args) > 3 {
			name = args[3]
		}
		w, ed := openEditor(l, path)
		ws, docXML = w, ed.XML()
		cfg, token, err := config.Load()
		if err != nil {
			fail(l, "config load failed", err)
		}
		c := newBackendClient(cfg, token)
		ctx, cancel := timeoutCtx()
		defer cancel()
		d, err := c.Publish(ctx, name, ed.XML())
		if err != nil {
			fail(l, "publish failed", err)
		}
		telemetry.Event("publish", nil)
		fmt.Printf("Published %s as #%d (%s) version %d\n", name, d.ID, d.StableID, d.Version)

	case "list":
		cfg, token, err := config.Load()
		if err != nil {
			fail(l, "config load failed", err)
		}
		c := newBackendClient(cfg, token)
		ctx, cancel := timeoutCtx()
		defer cancel()
		var diagrams []backend.Diagram
		if len(args) > 2 {
			diagrams, err = c.Search(ctx, args[2])
		} else {
			diagrams, err = c.List(ctx)
		}
		if err != nil {
			fail(l, "list failed", err)
		}
		for _, d := range diagrams {
			fmt.Printf("#%d\t%s\tv%d\t%s\t%s\n", d.ID, d.Name, d.Version, d.PublishedBy, d.UpdatedAt.Format(time.RFC3339))
		}
		if len(diagrams) == 0 {
			fmt.Println("No diagrams.")
		}

	case "fetch":
		idStr := requireArg(args, 2, "fetch requires <id> and <out.xml>")
		out := requireArg(args, 3, "fetch requires <id> and <out.xml>")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			fmt.Println("fetch: id must be a number")
			os.Exit(2)
		}
		cfg, token, lerr := config.Load()
		if lerr != nil {
			fail(l, "config load failed", lerr)
		}
		c := newBackendClient(cfg, token)
		ctx, cancel := timeoutCtx()
		defer cancel()
		d, xmlText, err := c.FetchDiagram(ctx, id)
		if err != nil {
			fail(l, "fetch failed", err)
		}
		if _, err := storage.InitWorkspace(out, xmlText); err != nil {
			fail(l, "write failed", err)
		}
		fmt.Printf("Fetched %s (v%d) into %s\n", d.Name, d.Version, out)

	case "serve":
		if err := backend.StartServer(); err != nil {
			fail(l, "server failed", err)
		}

	case "ui":
		var path string
		if len(args) > 2 {
			path = args[2]
		}
		if err := ui.Run(path); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

	default:
		usage()
		os.Exit(2)
	}
}

func requireArg(args []string, i int, msg string) string {
	if len(args) <= i {
		fmt.Println(msg)
		usage()
		os.Exit(2)
	}
	return args[i]
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func timeoutCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func newBackendClient(cfg config.AppConfig, token string) *backend.Client {
	timeout := time.Duration(cfg.Backend.TimeoutMs) * time.Millisecond
	return backend.NewClient(cfg.Backend.BaseURL, token, timeout)
}

func openEditor(l *slog.Logger, path string) (*storage.Workspace, *editor.Editor) {
	abs, _ := filepath.Abs(path)
	w, err := storage.OpenWorkspace(abs)
	if err != nil {
		fail(l, "open failed", err)
	}
	text, err := w.ReadDocument()
	if err != nil {
		fail(l, "read failed", err)
	}
	ed := editor.Open(text, history.Config{})
	return w, ed
}
