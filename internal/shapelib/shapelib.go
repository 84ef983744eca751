/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package shapelib manages shape palettes: named style presets that seed new
// vertices. Palettes are JSON manifests validated against a schema before
// they enter the library, so a broken user palette never corrupts the editor.
package shapelib

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	applog "godiagram/internal/log"
	"godiagram/internal/scene"
)

// paletteSchema constrains palette manifests. Style strings follow the
// key=value;key=value; convention of the document format.
const paletteSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "shapes"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "version": {"type": "integer", "minimum": 1},
    "shapes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "style"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "label": {"type": "string"},
          "style": {"type": "string"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

// Shape is one palette entry.
type Shape struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Style string `json:"style"`
}

// Palette is a named set of shape presets loaded from a manifest file.
type Palette struct {
	Name    string  `json:"name"`
	Version int     `json:"version,omitempty"`
	Shapes  []Shape `json:"shapes"`
}

// ErrInvalidPalette wraps schema validation failures.
var ErrInvalidPalette = errors.New("invalid palette manifest")

// Builtin returns the default palette available without any manifest files.
func Builtin() Palette {
	return Palette{
		Name:    "basic",
		Version: 1,
		Shapes: []Shape{
			{Name: "box", Label: "Box", Style: ""},
			{Name: "rounded", Label: "Rounded box", Style: "rounded=1;"},
			{Name: "ellipse", Label: "Ellipse", Style: "shape=ellipse;"},
			{Name: "note", Label: "Note", Style: "rounded=1;fillColor=#fff2cc;strokeColor=#d6b656;"},
			{Name: "process", Label: "Process", Style: "fillColor=#dae8fc;strokeColor=#6c8ebf;"},
		},
	}
}

// LoadPalette reads and validates a single palette manifest.
func LoadPalette(path string) (Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, fmt.Errorf("read palette: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(paletteSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return Palette{}, fmt.Errorf("%w: %v", ErrInvalidPalette, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Palette{}, fmt.Errorf("%w: %s", ErrInvalidPalette, strings.Join(msgs, "; "))
	}
	var p Palette
	if err := json.Unmarshal(data, &p); err != nil {
		return Palette{}, fmt.Errorf("decode palette: %w", err)
	}
	return p, nil
}

// Library holds the builtin palette plus any loaded from disk.
type Library struct {
	palettes map[string]Palette
}

// NewLibrary starts with the builtin palette.
func NewLibrary() *Library {
	b := Builtin()
	return &Library{palettes: map[string]Palette{b.Name: b}}
}

// LoadDir loads every *.json manifest in dir. Invalid manifests are skipped
// with a warning so one bad file does not hide the rest. Returns the number
// of palettes loaded.
func (l *Library) LoadDir(dir string) (int, error) {
	lg := applog.WithOperation(applog.WithComponent("shapelib"), "load_dir").With(slog.String("dir", dir))
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read palette dir: %w", err)
	}
	loaded := 0
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		p, err := LoadPalette(path)
		if err != nil {
			lg.Warn("skip palette", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		l.palettes[p.Name] = p
		loaded++
	}
	lg.Debug("palettes loaded", slog.Int("count", loaded))
	return loaded, nil
}

// Palettes lists palette names, sorted.
func (l *Library) Palettes() []string {
	out := make([]string, 0, len(l.palettes))
	for name := range l.palettes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ShapeNames lists every shape as "palette/shape", sorted, for pickers.
func (l *Library) ShapeNames() []string {
	var out []string
	for _, pname := range l.Palettes() {
		for _, s := range l.palettes[pname].Shapes {
			out = append(out, pname+"/"+s.Name)
		}
	}
	sort.Strings(out)
	return out
}

// StyleFor resolves "palette/shape" or a bare shape name (searched across all
// palettes, builtin first) to a canonical style for a new vertex.
func (l *Library) StyleFor(name string) (scene.Style, bool) {
	if pal, shape, ok := strings.Cut(name, "/"); ok {
		p, found := l.palettes[pal]
		if !found {
			return "", false
		}
		return styleIn(p, shape)
	}
	if st, ok := styleIn(l.palettes[Builtin().Name], name); ok {
		return st, true
	}
	for _, pname := range l.Palettes() {
		if st, ok := styleIn(l.palettes[pname], name); ok {
			return st, true
		}
	}
	return "", false
}

func styleIn(p Palette, shape string) (scene.Style, bool) {
	for _, s := range p.Shapes {
		if s.Name == shape {
			return scene.Style(s.Style).Canonical(), true
		}
	}
	return "", false
}
