// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchEvent reports one file's rewrite in watch mode.
type WatchEvent struct {
	// Path is the file that changed.
	Path string

	// Result is the rewrite outcome. Nil when Err is set.
	Result *Result

	// Err is the rewrite failure, if any. Watch mode keeps running
	// after per-file failures.
	Err error
}

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// DebounceWindow is how long to wait for more changes before
	// rewriting. Default: 250ms
	DebounceWindow time.Duration

	// IgnorePatterns are names and glob patterns to skip.
	// Default: [".git", "node_modules", "*.swp", "*.tmp"]
	IgnorePatterns []string

	// BufferSize is the size of the change buffer channel.
	// Default: 256
	BufferSize int
}

// DefaultWatchOptions returns sensible defaults.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		DebounceWindow: 250 * time.Millisecond,
		IgnorePatterns: []string{".git", "node_modules", "*.swp", "*.tmp"},
		BufferSize:     256,
	}
}

// Watcher rewrites files as they change.
//
// # Description
//
// Watches a directory tree and re-runs the engine on every changed
// file with a registered extension. Changes are debounced so a burst
// of editor writes triggers one rewrite, not one per keystroke.
// Outcomes are delivered on Events; the watcher never writes files
// back, the consumer decides what to persist.
//
// A consumer that does write outputs back will see the write come
// around once more; with value-stable rules the second pass reports
// Changed false and the cycle settles.
//
// # Thread Safety
//
// Safe for concurrent use. Events are emitted from a single goroutine.
type Watcher struct {
	engine   *Engine
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	ignore   []string
	exts     map[string]struct{}
	log      *slog.Logger

	changes  chan string
	events   chan WatchEvent
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// Watch creates a watcher over the given root directory.
//
// File extensions are taken from the engine's parser registry, so the
// watcher reacts exactly to the files the engine can rewrite.
//
// # Inputs
//
//   - root: Directory to watch recursively.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *Watcher: Ready watcher (call Start to begin).
//   - error: Non-nil if the underlying fs watcher could not be created.
//
// # Example
//
//	w, err := eng.Watch("src", nil)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
//	for ev := range w.Events() {
//	    if ev.Err == nil && ev.Result.Changed {
//	        os.WriteFile(ev.Path, ev.Result.Output, 0o644)
//	    }
//	}
func (e *Engine) Watch(root string, opts *WatchOptions) (*Watcher, error) {
	if opts == nil {
		defaults := DefaultWatchOptions()
		opts = &defaults
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	exts := make(map[string]struct{})
	for _, ext := range e.registry.Extensions() {
		exts[ext] = struct{}{}
	}

	return &Watcher{
		engine:   e,
		root:     root,
		watcher:  watcher,
		debounce: opts.DebounceWindow,
		ignore:   opts.IgnorePatterns,
		exts:     exts,
		log:      e.log,
		changes:  make(chan string, opts.BufferSize),
		events:   make(chan WatchEvent, opts.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Events returns the channel rewrite outcomes are delivered on.
// The channel is closed when watching stops.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start begins watching for file changes.
//
// Spawns the event processor and the debounced rewrite loop. Both exit
// when Stop is called or the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil // Already watching
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	go w.processEvents(ctx)
	go w.rewriteLoop(ctx)

	w.log.Info("watch started", "root", w.root, "debounce", w.debounce)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching returns true if the watcher is currently active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// addRecursive adds a directory and all subdirectories to the watch list.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Ignore errors, continue walking
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// shouldIgnore checks if a path matches any ignore pattern.
func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.ignore {
		if base == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if strings.Contains(path, string(filepath.Separator)+pattern+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// wants reports whether the path has an extension the engine parses.
func (w *Watcher) wants(path string) bool {
	_, ok := w.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// processEvents filters fsnotify events down to rewritable file paths.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event.Name) {
				continue
			}

			// New directories need watching before files land in them.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.watcher.Add(event.Name)
					continue
				}
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.wants(event.Name) {
				continue
			}

			select {
			case w.changes <- event.Name:
			default:
				// Buffer full; the rewrite loop is behind. Dropping is
				// safe, the next write to the file queues it again.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// rewriteLoop batches changed paths and rewrites them after the
// debounce window expires.
func (w *Watcher) rewriteLoop(ctx context.Context) {
	defer close(w.events)

	pending := make(map[string]struct{})
	var order []string
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		for _, path := range order {
			res, err := w.engine.RewriteFile(ctx, path)
			ev := WatchEvent{Path: path, Result: res, Err: err}
			select {
			case w.events <- ev:
			case <-ctx.Done():
				return
			case <-w.done:
				return
			}
		}
		pending = make(map[string]struct{})
		order = order[:0]
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case path := <-w.changes:
			if _, queued := pending[path]; !queued {
				pending[path] = struct{}{}
				order = append(order, path)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}
