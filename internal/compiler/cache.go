// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"sync"

	"github.com/open2b/dtl/ast"
)

// Cache implements a cache of composed trees, indexed by template name.
type Cache struct {
	trees map[string]*ast.Tree
	waits map[string]*sync.WaitGroup
	sync.Mutex
}

// Get returns a tree and true if the tree exists in cache.
//
// If the tree does not exist it returns false and in this
// case a call to Done must be made.
func (c *Cache) Get(name string) (*ast.Tree, bool) {
	c.Lock()
	t, ok := c.trees[name]
	if !ok {
		var wait *sync.WaitGroup
		if wait, ok = c.waits[name]; ok {
			c.Unlock()
			wait.Wait()
			return c.Get(name)
		}
		wait = &sync.WaitGroup{}
		wait.Add(1)
		if c.waits == nil {
			c.waits = map[string]*sync.WaitGroup{name: wait}
		} else {
			c.waits[name] = wait
		}
	}
	c.Unlock()
	return t, ok
}

// Add adds a tree to the cache.
//
// Can be called only after a previous call to Get has returned false.
func (c *Cache) Add(name string, tree *ast.Tree) {
	c.Lock()
	if c.trees == nil {
		c.trees = map[string]*ast.Tree{name: tree}
	} else {
		c.trees[name] = tree
	}
	c.Unlock()
}

// Done must be called only and only if a previous call to Get has returned
// false.
func (c *Cache) Done(name string) {
	c.Lock()
	c.waits[name].Done()
	delete(c.waits, name)
	c.Unlock()
}

// Delete deletes from the cache the tree of the template with the given
// name and the trees that extend it.
func (c *Cache) Delete(name string) {
	c.Lock()
	for n, tree := range c.trees {
		if n == name || extends(tree, name) {
			delete(c.trees, n)
		}
	}
	c.Unlock()
}

// Reset removes all the trees from the cache.
func (c *Cache) Reset() {
	c.Lock()
	c.trees = nil
	c.Unlock()
}

// extends reports whether tree extends, directly or indirectly, the
// template with the given name.
func extends(tree *ast.Tree, name string) bool {
	for tree.Extends != nil && tree.Extends.Tree != nil {
		if tree.Extends.Path == name {
			return true
		}
		tree = tree.Extends.Tree
	}
	return false
}
