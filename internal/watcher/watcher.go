// Package watcher watches the stacks directory tree with fsnotify and
// invalidates the engine's in-memory registry when a stack's compose or
// .env file changes on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// acceptedComposeFileNames mirrors internal/engine's accepted names; a
// change to any of these (or to .env) in a stack subdirectory triggers
// invalidation.
var acceptedComposeFileNames = []string{
	"compose.yaml",
	"docker-compose.yaml",
	"docker-compose.yml",
	"compose.yml",
	".env",
}

// Watcher watches stacksDir and calls Invalidate for any stack subdirectory
// whose contents change.
type Watcher struct {
	StacksDir  string
	Invalidate func(stackName string)
}

// New constructs a Watcher. invalidate is called (debounced) with the
// affected stack's name.
func New(stacksDir string, invalidate func(stackName string)) *Watcher {
	return &Watcher{StacksDir: stacksDir, Invalidate: invalidate}
}

// Start verifies stacksDir exists, then runs the watch loop in a
// goroutine. Returns an error immediately if stacksDir is unreadable.
func (w *Watcher) Start(ctx context.Context) error {
	if _, err := os.Stat(w.StacksDir); err != nil {
		return err
	}
	go w.runLoop(ctx)
	return nil
}

// runLoop retries the watch with exponential backoff on failure, up to
// maxRetries, then logs an error and gives up (the engine still works without live
// invalidation; callers fall back to whatever TTL/poll behavior they have).
func (w *Watcher) runLoop(ctx context.Context) {
	const maxRetries = 5
	failures := 0
	backoff := 1 * time.Second

	for {
		err := w.run(ctx)
		if ctx.Err() != nil {
			return
		}

		failures++
		if failures > maxRetries {
			slog.Error("stack directory watcher: too many failures, giving up", "failures", failures, "lastErr", err)
			return
		}

		slog.Warn("stack directory watcher: retrying", "attempt", failures, "backoff", backoff, "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 30*time.Second)
	}
}

func (w *Watcher) run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.StacksDir); err != nil {
		return fmt.Errorf("watch stacks dir: %w", err)
	}

	entries, err := os.ReadDir(w.StacksDir)
	if err != nil {
		return fmt.Errorf("read stacks dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			subdir := filepath.Join(w.StacksDir, entry.Name())
			if err := fsw.Add(subdir); err != nil {
				slog.Warn("stack directory watcher: add subdir", "err", err, "dir", subdir)
			}
		}
	}

	slog.Info("stack directory watcher started", "dir", w.StacksDir)

	var debounceMu sync.Mutex
	pending := make(map[string]*time.Timer)

	trigger := func(stackName string) {
		debounceMu.Lock()
		defer debounceMu.Unlock()

		if timer, ok := pending[stackName]; ok {
			timer.Stop()
		}
		pending[stackName] = time.AfterFunc(200*time.Millisecond, func() {
			debounceMu.Lock()
			delete(pending, stackName)
			debounceMu.Unlock()

			slog.Debug("stack directory watcher: stack changed", "stack", stackName)
			if w.Invalidate != nil {
				w.Invalidate(stackName)
			}
		})
	}

	cancelPending := func() {
		debounceMu.Lock()
		for _, t := range pending {
			t.Stop()
		}
		debounceMu.Unlock()
	}

	for {
		select {
		case <-ctx.Done():
			cancelPending()
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				cancelPending()
				return fmt.Errorf("fsnotify events channel closed")
			}

			name := filepath.Base(event.Name)
			dir := filepath.Dir(event.Name)

			if dir == w.StacksDir {
				if event.Op&(fsnotify.Create|fsnotify.Rename) != 0 {
					info, statErr := os.Stat(event.Name)
					if statErr == nil && info.IsDir() {
						if addErr := fsw.Add(event.Name); addErr != nil {
							slog.Warn("stack directory watcher: add new subdir", "err", addErr, "dir", event.Name)
						}
						trigger(name)
					}
				}
				if event.Op&fsnotify.Remove != 0 {
					trigger(name)
				}
				continue
			}

			stackName := filepath.Base(dir)
			parentDir := filepath.Dir(dir)
			if parentDir != w.StacksDir {
				continue
			}
			if !isWatchedFile(name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				trigger(stackName)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				cancelPending()
				return fmt.Errorf("fsnotify errors channel closed")
			}
			slog.Warn("stack directory watcher error", "err", err)
		}
	}
}

func isWatchedFile(name string) bool {
	for _, accepted := range acceptedComposeFileNames {
		if name == accepted {
			return true
		}
	}
	return false
}
