// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watched is a loader that reads the templates from the files in a
// directory and watches the files it has read. When a watched file is
// written, created, removed or renamed, the functions registered with
// OnChange are called with the name of the template.
//
// A Watched loader is usually wrapped by a Cached loader, whose entries are
// invalidated on change:
//
//	w, err := loader.NewWatched("templates", logger)
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	c := loader.NewCached(w, logger)
//	w.OnChange(c.Invalidate)
type Watched struct {
	dir     string
	fs      *FS
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	done    chan struct{}

	mu        sync.Mutex
	watched   map[string]string // file paths to template names
	listeners []func(name string)
}

// NewWatched returns a loader that reads the templates from the files in the
// directory dir and watches them. Errors of the watcher are logged to logger.
func NewWatched(dir string, logger *slog.Logger) (*Watched, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watched{
		dir:     dir,
		fs:      &FS{fsys: os.DirFS(dir)},
		watcher: watcher,
		logger:  discard(logger),
		done:    make(chan struct{}),
		watched: map[string]string{},
	}
	go w.run()
	return w, nil
}

func (w *Watched) Read(name string) (string, error) {
	src, err := w.fs.Read(name)
	if err != nil {
		return "", err
	}
	if err := w.watch(name); err != nil {
		return "", err
	}
	return src, nil
}

// OnChange registers f to be called with the name of a template when its
// file changes. f is called from the goroutine that watches the files.
func (w *Watched) OnChange(f func(name string)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, f)
	w.mu.Unlock()
}

// Close stops watching the files.
func (w *Watched) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

// watch adds the file of the template with the given name to the watched
// files.
func (w *Watched) watch(name string) error {
	path := filepath.Join(w.dir, filepath.FromSlash(name))
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watched[path]; ok {
		return nil
	}
	if err := w.watcher.Add(path); err != nil {
		return err
	}
	w.watched[path] = name
	return nil
}

// run receives the events of the watcher until it is closed.
func (w *Watched) run() {
	defer close(w.done)
	const ops = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&ops == 0 {
				continue
			}
			w.mu.Lock()
			name, ok := w.watched[event.Name]
			if ok && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				// The watcher drops removed files, so the file is watched
				// again when it is read again.
				delete(w.watched, event.Name)
			}
			listeners := w.listeners
			w.mu.Unlock()
			if !ok {
				continue
			}
			w.logger.Debug("template file changed", "name", name, "op", event.Op.String())
			for _, f := range listeners {
				f(name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("template watcher error", "dir", w.dir, "error", err)
		}
	}
}
