// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives the merged catalog after a successful overlay reload.
type ReloadFunc func(*Catalog)

// Watcher is the interface for overlay watching implementations.
type Watcher interface {
	// Watch starts watching for overlay changes
	Watch() error

	// Close stops watching and releases resources
	Close() error
}

// NewWatcher watches the overlay file at path and calls onReload with the
// merged catalog after each change. It prefers fsnotify and falls back to
// polling when the platform cannot deliver events.
func NewWatcher(path string, debounce time.Duration, onReload ReloadFunc) (Watcher, error) {
	fw, err := newFsnotifyWatcher(path, debounce, onReload)
	if err == nil {
		if err := fw.Watch(); err == nil {
			return fw, nil
		}
		fw.Close()
	}

	pw := newPollingWatcher(path, 5*time.Second, onReload)
	if err := pw.Watch(); err != nil {
		return nil, err
	}
	return pw, nil
}

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

type fsnotifyWatcher struct {
	path     string
	onReload ReloadFunc
	watcher  *fsnotify.Watcher
	debounce time.Duration
	mu       sync.Mutex
	dirty    time.Time
	ctx      context.Context
	cancel   context.CancelFunc
}

func newFsnotifyWatcher(path string, debounce time.Duration, onReload ReloadFunc) (*fsnotifyWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &fsnotifyWatcher{
		path:     path,
		onReload: onReload,
		watcher:  watcher,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching for overlay changes. The parent directory is
// watched, not the file: editors replace files by rename, which drops a
// direct file watch.
func (fw *fsnotifyWatcher) Watch() error {
	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		return err
	}
	go fw.processEvents()
	go fw.processPending()
	return nil
}

func (fw *fsnotifyWatcher) processEvents() {
	defer func() {
		// A panic here must not take the process down with it.
		_ = recover()
	}()

	base := filepath.Base(fw.path)
	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				fw.mu.Lock()
				fw.dirty = time.Now()
				fw.mu.Unlock()
			}

		case _, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (fw *fsnotifyWatcher) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case <-ticker.C:
			fw.mu.Lock()
			due := !fw.dirty.IsZero() && time.Since(fw.dirty) >= fw.debounce
			if due {
				fw.dirty = time.Time{}
			}
			fw.mu.Unlock()

			if due {
				reload(fw.path, fw.onReload)
			}
		}
	}
}

func (fw *fsnotifyWatcher) Close() error {
	fw.cancel()
	if fw.watcher != nil {
		return fw.watcher.Close()
	}
	return nil
}

// =============================================================================
// POLLING WATCHER (FALLBACK)
// =============================================================================

type pollingWatcher struct {
	path     string
	onReload ReloadFunc
	interval time.Duration
	modTime  time.Time
	ctx      context.Context
	cancel   context.CancelFunc
}

func newPollingWatcher(path string, interval time.Duration, onReload ReloadFunc) *pollingWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &pollingWatcher{
		path:     path,
		onReload: onReload,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (pw *pollingWatcher) Watch() error {
	if info, err := os.Stat(pw.path); err == nil {
		pw.modTime = info.ModTime()
	}
	go pw.poll()
	return nil
}

func (pw *pollingWatcher) poll() {
	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-pw.ctx.Done():
			return

		case <-ticker.C:
			info, err := os.Stat(pw.path)
			if err != nil {
				continue
			}
			if !info.ModTime().Equal(pw.modTime) {
				pw.modTime = info.ModTime()
				reload(pw.path, pw.onReload)
			}
		}
	}
}

func (pw *pollingWatcher) Close() error {
	pw.cancel()
	return nil
}

// reload loads the overlay and delivers the merged catalog. A broken
// overlay keeps the previous catalog in service; the edit will fire again
// once fixed.
func reload(path string, onReload ReloadFunc) {
	c, err := Load(path)
	if err != nil {
		return
	}
	onReload(c)
}
