// Package watcher provides file system watching utilities for detecting
// changes to session data and master stats on disk.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce collapses bursts of events (a parser writing many files) into one callback.
const DefaultDebounce = 250 * time.Millisecond

// Watcher monitors a directory and its immediate subdirectories and calls onChange
// after writes, creations, removals or renames settle.
// A target that is a file is watched through its parent directory.
type Watcher struct {
	targetPath string // The file/directory whose changes are reported
	watchRoot  string // Directory actually watched
	isDir      bool
	onChange   func(path string)
	watcher    *fsnotify.Watcher
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.Mutex
	running    bool
	debounce   time.Duration
}

// New creates a new Watcher for the given target path.
func New(targetPath string, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	target := filepath.Clean(targetPath)
	root := target
	isDir := true
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		isDir = false
		root = filepath.Dir(target)
	}

	return &Watcher{
		targetPath: target,
		watchRoot:  root,
		isDir:      isDir,
		onChange:   onChange,
		watcher:    fsw,
		ctx:        ctx,
		cancel:     cancel,
		debounce:   DefaultDebounce,
	}, nil
}

// SetDebounce changes the settle delay. It must be called before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start begins watching for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addWatches(); err != nil {
		log.Warn().Err(err).Str("path", w.watchRoot).Msg("Failed to add initial watch")
	}

	go w.watchLoop()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	w.cancel()
	return w.watcher.Close()
}

// addWatches watches the root and, for directory targets, each session subdirectory.
func (w *Watcher) addWatches() error {
	if _, err := os.Stat(w.watchRoot); err != nil {
		return err
	}
	if err := w.watcher.Add(w.watchRoot); err != nil {
		return err
	}
	if !w.isDir {
		return nil
	}

	entries, err := os.ReadDir(w.watchRoot)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			sub := filepath.Join(w.watchRoot, e.Name())
			if err := w.watcher.Add(sub); err != nil {
				log.Debug().Err(err).Str("path", sub).Msg("Failed to watch subdirectory")
			}
		}
	}
	return nil
}

// relevant reports whether an event path concerns the target.
func (w *Watcher) relevant(eventPath string) bool {
	if w.isDir {
		return eventPath == w.targetPath || filepath.Dir(eventPath) == w.targetPath ||
			filepath.Dir(filepath.Dir(eventPath)) == w.targetPath
	}
	return eventPath == w.targetPath
}

// watchLoop is the main event loop.
func (w *Watcher) watchLoop() {
	var (
		debounceTimer *time.Timer
		lastPath      string
		pathMu        sync.Mutex
	)

	for {
		select {
		case <-w.ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			eventPath := filepath.Clean(event.Name)
			if !w.relevant(eventPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// New session folders need their own watch to see files written inside them
			if w.isDir && event.Op&fsnotify.Create != 0 && filepath.Dir(eventPath) == w.targetPath {
				if info, err := os.Stat(eventPath); err == nil && info.IsDir() {
					_ = w.watcher.Add(eventPath)
				}
			}

			pathMu.Lock()
			lastPath = eventPath
			pathMu.Unlock()

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				pathMu.Lock()
				p := lastPath
				pathMu.Unlock()
				w.handleChange(p)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// handleChange calls the onChange callback unless the watcher was stopped.
func (w *Watcher) handleChange(path string) {
	if w.ctx.Err() != nil {
		return
	}
	log.Debug().Str("path", path).Msg("Change detected")
	if w.onChange != nil {
		w.onChange(path)
	}
}
