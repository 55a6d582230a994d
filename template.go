// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dtl

import (
	"context"
	"errors"
	"io"
	"maps"
	"strings"
	"time"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/builtin"
	"github.com/open2b/dtl/internal/runtime"
)

// Template is a compiled template. A template is safe for concurrent use by
// multiple goroutines.
type Template struct {
	engine *Engine
	tree   *ast.Tree
}

// RenderOptions are the options of a rendering.
type RenderOptions struct {

	// Context is the context of the rendering. If it is canceled, the
	// rendering is stopped and its error is returned.
	Context context.Context

	// Request is passed to the context processors and it is returned by the
	// Request method of native.Env. If it is nil, the context processors
	// are not called.
	Request any

	// Now is the current time for the now tag. If it is the zero time, the
	// time of the rendering is used.
	Now time.Time
}

// Name returns the name of the template. It is empty if the template has
// been compiled from a string.
func (t *Template) Name() string {
	return t.tree.Path
}

// Tree returns the tree of the template. A template passed to another
// template can be included with the include tag.
func (t *Template) Tree() *ast.Tree {
	return t.tree
}

// Render renders the template on out with the variables vars. The output is
// written to out only if the rendering succeeds.
//
// If a rendering error occurs, it returns a *RenderError. If an extended or
// included template cannot be compiled, it returns a *BuildError. Errors
// returned by the filters, tags and values of the host, that are not
// *native.Error errors, are returned unchanged.
func (t *Template) Render(out io.Writer, vars map[string]any, opts *RenderOptions) error {
	if out == nil {
		return errors.New("dtl: invalid nil out")
	}
	e := t.engine
	ro := runtime.Options{
		Autoescape:      e.opts.autoescape(),
		StringIfInvalid: e.opts.StringIfInvalid,
		MaxDepth:        e.opts.MaxInheritanceDepth,
		Loader:          treeLoader{e},
		URLResolver:     e.opts.URLResolver,
		FormatDate:      builtin.FormatDate,
		Lorem:           builtin.Lorem,
	}
	if opts != nil {
		ro.Context = opts.Context
		ro.Request = opts.Request
		ro.Now = opts.Now
	}
	if ro.Context == nil {
		ro.Context = context.Background()
	}
	vars, err := e.context(vars, ro.Request)
	if err != nil {
		return err
	}
	err = runtime.Render(out, t.tree, vars, ro)
	if err != nil {
		return e.convertError(err)
	}
	return nil
}

// RenderString is like Render but returns the output as a string.
func (t *Template) RenderString(vars map[string]any, opts *RenderOptions) (string, error) {
	var b strings.Builder
	if err := t.Render(&b, vars, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

// context returns the variables of a rendering with the given request. The
// variables returned by the context processors are merged in order, and vars
// take precedence over them. Errors of the context processors are returned
// unchanged.
func (e *Engine) context(vars map[string]any, request any) (map[string]any, error) {
	if request == nil || len(e.processors) == 0 {
		return vars, nil
	}
	merged := map[string]any{}
	for _, p := range e.processors {
		v, err := p(request)
		if err != nil {
			return nil, err
		}
		maps.Copy(merged, v)
	}
	maps.Copy(merged, vars)
	return merged, nil
}
