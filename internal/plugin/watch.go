// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package plugin

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"
)

// DefaultDebounce is the quiet period Watch waits for before reloading.
const DefaultDebounce = 250 * time.Millisecond

// Watch reloads the factory whenever files below its paths change. Bursts of
// events within debounce are collapsed into one reload, after which notify
// (if non-nil) is called from the watch goroutine. The returned stop
// function must be called to release the watcher; it waits for the watch
// goroutine to exit.
func (f *Factory[T]) Watch(ctx context.Context, debounce time.Duration, notify func(Kind)) (stop func(), err error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, oops.In("plugin").With("operation", "create watcher").Wrap(err)
	}
	for _, p := range f.Paths() {
		addRecursive(w, p)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.watchLoop(ctx, w, debounce, notify, done)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = w.Close() //nolint:errcheck // nothing useful to do on close failure
			wg.Wait()
		})
	}, nil
}

func (f *Factory[T]) watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, notify func(Kind), done <-chan struct{}) {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					addRecursive(w, ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			f.logger.Warn("plugin watcher error", "kind", f.kind, "error", err)
		case <-timerC:
			timer, timerC = nil, nil
			f.logger.Info("plugin directory changed, reloading", "kind", f.kind)
			f.Reload()
			if notify != nil {
				notify(f.kind)
			}
		}
	}
}

func addRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		_ = w.Add(path) //nolint:errcheck // best effort; missing dirs are picked up on create
		return nil
	})
}
