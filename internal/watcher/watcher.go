/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package watcher notifies the editor when the open diagram file changes on
// disk, e.g. when another tool saves over it. Rapid event bursts from
// editors doing temp-write-then-rename are debounced into a single event.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "godiagram/internal/log"
)

// Event reports that the watched diagram file changed on disk.
type Event struct {
	Path      string
	Timestamp time.Time
}

// Watcher observes a single diagram file. The containing directory is
// watched rather than the file itself so renames over the file keep being
// tracked.
type Watcher struct {
	path    string
	quiet   time.Duration
	maxWait time.Duration
	fw      *fsnotify.Watcher
	events  chan Event
	log     *slog.Logger
}

// New creates a watcher for the diagram file at path. quiet is the idle
// interval that must pass before a burst flushes; maxWait caps how long a
// continuous burst can delay the event.
func New(path string, quiet, maxWait time.Duration) (*Watcher, error) {
	if quiet <= 0 {
		quiet = 150 * time.Millisecond
	}
	if maxWait <= 0 {
		maxWait = 2 * time.Second
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	return &Watcher{
		path:    abs,
		quiet:   quiet,
		maxWait: maxWait,
		fw:      fw,
		events:  make(chan Event, 10),
		log:     applog.WithComponent("watcher").With(slog.String("path", abs)),
	}, nil
}

// Start begins delivering debounced events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

// Events returns the channel of debounced change events. It is closed when
// the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

func (w *Watcher) run(ctx context.Context) {
	defer func() {
		_ = w.fw.Close()
		close(w.events)
	}()

	quietTimer := time.NewTimer(w.quiet)
	quietTimer.Stop()
	var maxTimer *time.Timer
	pending := false

	flush := func() {
		if !pending {
			return
		}
		pending = false
		quietTimer.Stop()
		if maxTimer != nil {
			maxTimer.Stop()
			maxTimer = nil
		}
		select {
		case w.events <- Event{Path: w.path, Timestamp: time.Now()}:
		default:
			w.log.Warn("event dropped, consumer too slow")
		}
	}

	maxC := func() <-chan time.Time {
		if maxTimer != nil {
			return maxTimer.C
		}
		return nil
	}

	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !pending {
				pending = true
				maxTimer = time.NewTimer(w.maxWait)
			}
			quietTimer.Reset(w.quiet)

		case <-quietTimer.C:
			flush()

		case <-maxC():
			flush()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", slog.Any("err", err))
		}
	}
}
