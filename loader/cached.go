// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cached is a loader that caches the sources read by another loader. The
// templates that do not exist are cached too. Concurrent reads of the same
// template not yet in cache are served by a single read.
//
// Cached is safe for concurrent use.
type Cached struct {
	loader Loader
	logger *slog.Logger
	group  singleflight.Group

	mu         sync.Mutex
	entries    map[string]cacheEntry
	generation uint64
	listeners  []func(name string)
}

type cacheEntry struct {
	src string
	err error // a *TemplateDoesNotExist error or nil
}

// NewCached returns a loader that caches the sources read by l. If logger is
// not nil, cache hits, misses and invalidations are logged at debug level.
func NewCached(l Loader, logger *slog.Logger) *Cached {
	return &Cached{
		loader:  l,
		logger:  discard(logger),
		entries: map[string]cacheEntry{},
	}
}

func (c *Cached) Read(name string) (string, error) {
	c.mu.Lock()
	entry, ok := c.entries[name]
	generation := c.generation
	c.mu.Unlock()
	if ok {
		c.logger.Debug("template cache hit", "name", name)
		return entry.src, entry.err
	}
	c.logger.Debug("template cache miss", "name", name)
	v, err, _ := c.group.Do(name, func() (any, error) {
		src, err := c.loader.Read(name)
		if err != nil && !IsNotExist(err) {
			return nil, err
		}
		c.mu.Lock()
		if c.generation == generation {
			c.entries[name] = cacheEntry{src: src, err: err}
		}
		c.mu.Unlock()
		return cacheEntry{src: src, err: err}, nil
	})
	if err != nil {
		return "", err
	}
	entry = v.(cacheEntry)
	return entry.src, entry.err
}

// Invalidate removes the template with the given name from the cache and
// calls the functions registered with OnInvalidate.
func (c *Cached) Invalidate(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.generation++
	listeners := c.listeners
	c.mu.Unlock()
	c.logger.Debug("template cache invalidated", "name", name)
	for _, f := range listeners {
		f(name)
	}
}

// Reset removes all the templates from the cache and calls the functions
// registered with OnInvalidate with an empty name.
func (c *Cached) Reset() {
	c.mu.Lock()
	clear(c.entries)
	c.generation++
	listeners := c.listeners
	c.mu.Unlock()
	c.logger.Debug("template cache reset")
	for _, f := range listeners {
		f("")
	}
}

// OnInvalidate registers f to be called when a template is removed from the
// cache. f is called with the name of the removed template, or with an empty
// name when the cache is reset.
func (c *Cached) OnInvalidate(f func(name string)) {
	c.mu.Lock()
	c.listeners = append(c.listeners[:len(c.listeners):len(c.listeners)], f)
	c.mu.Unlock()
}
