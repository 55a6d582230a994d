// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/diagnostic"
)

// DefaultMaxDepth is the default maximum depth of a chain of extended
// templates.
const DefaultMaxDepth = 32

// Options are the options of ParseTemplate and ParseString.
type Options struct {
	Registry *Registry

	// MaxDepth is the maximum depth of a chain of extended templates. If
	// it is zero, DefaultMaxDepth is used.
	MaxDepth int
}

// ParseTemplate reads with reader the template with the given name, parses
// it and composes its tree with the trees of the templates it extends with
// a string literal name.
//
// If cache is not nil, the composed tree is read from and stored in cache.
func ParseTemplate(name string, reader Reader, cache *Cache, opts Options) (*ast.Tree, error) {
	if cache != nil {
		if tree, ok := cache.Get(name); ok {
			return tree, nil
		}
		defer cache.Done(name)
	}
	e := newExpansion(reader, opts)
	src, err := reader.Read(name)
	if err != nil {
		return nil, err
	}
	tree, err := e.expand(src, name, true)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache.Add(name, tree)
	}
	return tree, nil
}

// ParseString parses src, the source of a template without origin, and
// composes its tree with the trees of the templates it extends, read with
// reader.
func ParseString(src string, reader Reader, opts Options) (*ast.Tree, error) {
	return newExpansion(reader, opts).expand(src, "", false)
}

// expansion is the state of the composition of a tree with its ancestors.
type expansion struct {
	reader   Reader
	registry *Registry
	maxDepth int
	paths    []string // paths of the extending templates
}

func newExpansion(reader Reader, opts Options) *expansion {
	e := &expansion{reader: reader, registry: opts.Registry, maxDepth: opts.MaxDepth}
	if e.maxDepth <= 0 {
		e.maxDepth = DefaultMaxDepth
	}
	return e
}

// expand parses src, the source of the template with the given path, and
// composes its tree with the parent tree.
func (e *expansion) expand(src, path string, origin bool) (*ast.Tree, error) {

	tree, err := ParseSource(src, path, origin, e.registry)
	if err != nil {
		return nil, err
	}

	ext := tree.Extends
	if ext == nil || ext.Path == "" {
		return tree, nil
	}

	if origin && (ext.Path == path || slices.Contains(e.paths, ext.Path)) {
		chain := append(slices.Clone(e.paths), path, ext.Path)
		if i := slices.Index(chain, ext.Path); i > 0 {
			chain = chain[i:]
		}
		d := diagnostic.New("Template inheritance cycle: "+strings.Join(chain, " -> "), ext.Span, "extends tag here")
		return nil, &SyntaxError{Path: path, Source: src, Diagnostic: d}
	}
	if len(e.paths)+1 >= e.maxDepth {
		d := diagnostic.New(fmt.Sprintf("Maximum template inheritance depth of %d exceeded", e.maxDepth), ext.Span, "extends tag here")
		return nil, &SyntaxError{Path: path, Source: src, Diagnostic: d}
	}

	parentSrc, err := e.reader.Read(ext.Path)
	if err != nil {
		return nil, err
	}
	e.paths = append(e.paths, path)
	parent, err := e.expand(parentSrc, ext.Path, true)
	e.paths = e.paths[:len(e.paths)-1]
	if err != nil {
		return nil, err
	}

	ext.Tree = parent
	tree.Blocks = ast.ComposeBlocks(tree.Blocks, parent.Blocks)

	return tree, nil
}
