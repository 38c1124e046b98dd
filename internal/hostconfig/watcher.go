// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package hostconfig

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to the host configuration file.
//
// The parent directory is watched rather than the file itself: the host
// application and most editors replace the file by rename, which ends a
// watch placed on the old inode.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	onChange  func()
	logger    *slog.Logger

	// debounceDelay collapses the burst of events one save produces
	debounceDelay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Path is the host configuration file. Its directory must exist.
	Path string

	// OnChange runs after the file was written, created, renamed or removed.
	OnChange func()

	// Logger (default: slog.Default())
	Logger *slog.Logger

	// DebounceDelay defaults to 200ms
	DebounceDelay time.Duration
}

// NewWatcher creates a watcher. Call Run to start receiving changes.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}

	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", cfg.Path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	delay := cfg.DebounceDelay
	if delay == 0 {
		delay = 200 * time.Millisecond
	}

	return &Watcher{
		fsWatcher:     fsWatcher,
		path:          path,
		onChange:      cfg.OnChange,
		logger:        logger,
		debounceDelay: delay,
	}, nil
}

// Run processes events until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				w.logger.Debug("host config changed", slog.String("path", w.path), slog.String("op", event.Op.String()))
				w.schedule()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", slog.Any("error", err))

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceDelay, w.onChange)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if err := w.fsWatcher.Close(); err != nil {
		w.logger.Debug("failed to close file watcher", slog.Any("error", err))
	}
}
