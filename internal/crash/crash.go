/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns an unrecovered panic into a crash report plus an
// emergency copy of the unsaved document, so a crash never loses work.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "godiagram/internal/log"
	"godiagram/internal/storage"
	"godiagram/internal/telemetry"
	"godiagram/internal/version"
)

// exitFn allows testing Recover without terminating the test process.
var exitFn = os.Exit

// Recover captures a panic, logs the stacktrace, writes a crash report and
// an emergency copy of the current document text into the workspace backups
// directory, then exits.
//
// Must be deferred directly: defer crash.Recover(w, xmlText). When the
// workspace or document text is not known at defer time, recover manually
// and call Report instead.
func Recover(w *storage.Workspace, xmlText string) {
	if r := recover(); r != nil {
		Report(w, xmlText, r)
	}
}

// Report handles an already-recovered panic value: crash report, emergency
// document copy, process exit.
func Report(w *storage.Workspace, xmlText string, r any) {
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, _ := writeReport(w, r, stack)
	if w != nil && xmlText != "" {
		if path, err := emergencySave(w, xmlText); err != nil {
			l.Error("emergency save failed", slog.Any("err", err))
		} else {
			l.Info("emergency document copy written", slog.String("path", path))
		}
	}

	fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// writeReport writes the crash report next to the workspace backups when a
// workspace is open, otherwise to the system temp dir.
func writeReport(w *storage.Workspace, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if w != nil && w.Root != "" {
		dir = filepath.Join(w.Root, storage.IndexDirName, storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GoDiagram Crash Report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if w != nil {
		fmt.Fprintf(&buf, "Workspace: %s\n", w.Root)
		fmt.Fprintf(&buf, "Document: %s\n", w.Path)
	}
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}

	// Upload is opt-in via env and a no-op otherwise.
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}

// emergencySave writes the in-memory document text into the backups dir
// without touching the document file itself.
func emergencySave(w *storage.Workspace, xmlText string) (string, error) {
	dir := filepath.Join(w.Root, storage.IndexDirName, storage.BackupsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s.crash-%s.xml", filepath.Base(w.Path), stamp))
	if err := os.WriteFile(path, []byte(xmlText), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
