/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage owns everything on disk: the diagram document file with
// timestamped backups and transactional writes, and the per-workspace SQLite
// index holding autosave snapshots, the recent-files list and the label
// search index.
package storage

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// IndexDirName stores all per-workspace ephemeral/index data next to
	// the diagram files.
	IndexDirName   = ".gdg"
	IndexFileName  = "index.sqlite"
	BackupsDirName = "backups"
)

// Workspace is a directory holding diagram documents plus their .gdg index.
type Workspace struct {
	Root string // directory containing the diagram file
	Path string // full path of the open diagram file
}

// InitWorkspace creates the workspace scaffolding for a new diagram file and
// writes the initial document transactionally. Fails if the file exists.
func InitWorkspace(path, initialXML string) (*Workspace, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("diagram path is required")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s already exists", path)
	}
	root := filepath.Dir(path)
	if err := os.MkdirAll(filepath.Join(root, IndexDirName, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dirs: %w", err)
	}
	w := &Workspace{Root: root, Path: path}
	if err := w.SaveDocument(initialXML); err != nil {
		return nil, err
	}
	return w, nil
}

// OpenWorkspace wraps an existing diagram file. The document itself is read
// separately via ReadDocument.
func OpenWorkspace(path string) (*Workspace, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("diagram path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open diagram: %w", err)
	}
	return &Workspace{Root: filepath.Dir(path), Path: path}, nil
}

// ReadDocument returns the document text. When the file itself cannot be
// read, the latest timestamped backup is tried before giving up.
func (w *Workspace) ReadDocument() (string, error) {
	b, err := os.ReadFile(w.Path)
	if err == nil {
		return string(b), nil
	}
	text, berr := w.readLatestBackup()
	if berr != nil {
		return "", fmt.Errorf("read document: %w; backup attempt: %v", err, berr)
	}
	return text, nil
}

// SaveDocument writes the document with transactional semantics and keeps a
// timestamped backup of the previous content (if present).
func (w *Workspace) SaveDocument(xmlText string) error {
	if w == nil || w.Path == "" {
		return errors.New("invalid workspace")
	}
	bdir := filepath.Join(w.Root, IndexDirName, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	base := filepath.Base(w.Path)
	if _, statErr := os.Stat(w.Path); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", base, stamp))
		if cerr := copyFile(w.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}

	// Transactional write: temp file in the same directory, then rename.
	temp := filepath.Join(w.Root, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, []byte(xmlText)); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	// On Windows, replace by removing destination first if needed.
	if _, err := os.Stat(w.Path); err == nil {
		_ = os.Remove(w.Path)
	}
	if rerr := os.Rename(temp, w.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	return nil
}

// Backups lists the backup files for this document, oldest first.
func (w *Workspace) Backups() ([]string, error) {
	bdir := filepath.Join(w.Root, IndexDirName, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	base := filepath.Base(w.Path)
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, base+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func (w *Workspace) readLatestBackup() (string, error) {
	backups, err := w.Backups()
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", errors.New("no backups found")
	}
	b, err := os.ReadFile(backups[len(backups)-1])
	if err != nil {
		return "", fmt.Errorf("read latest backup: %w", err)
	}
	return string(b), nil
}

// writeFileSync writes data to a file and ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
