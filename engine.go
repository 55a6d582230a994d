// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dtl

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/builtin"
	"github.com/open2b/dtl/internal/compiler"
	"github.com/open2b/dtl/loader"
	"github.com/open2b/dtl/native"
	"github.com/open2b/dtl/starlib"
)

// Engine loads and compiles templates. An engine is safe for concurrent use
// by multiple goroutines.
type Engine struct {
	opts       Options
	logger     *slog.Logger
	loader     loader.Loader
	cached     *loader.Cached  // nil if templates are not cached
	trees      *compiler.Cache // nil if templates are not cached
	watchers   []*loader.Watched
	registry   *compiler.Registry
	processors []ContextProcessor
}

// New returns a new engine with the given options.
func New(opts Options) (*Engine, error) {
	e := &Engine{opts: opts, logger: opts.Logger}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.opts.MaxInheritanceDepth <= 0 {
		e.opts.MaxInheritanceDepth = compiler.DefaultMaxDepth
	}
	reg := opts.Registry
	if reg == nil {
		reg = &Registry{}
	}

	// Libraries.
	libs := native.Libraries{"markup": builtin.Markup()}
	maps.Copy(libs, reg.Libraries)
	aliases := native.Libraries{}
	for name, regName := range opts.Libraries {
		lib, ok := libs[regName]
		if !ok {
			return nil, fmt.Errorf("dtl: library %q is not registered", regName)
		}
		aliases[name] = lib
	}
	maps.Copy(libs, aliases)
	builtins := []*native.Library{builtin.Library()}
	for _, name := range opts.Builtins {
		lib, ok := libs[name]
		if !ok {
			return nil, fmt.Errorf("dtl: builtin library %q is not registered", name)
		}
		builtins = append(builtins, lib)
	}
	slices.Reverse(builtins)
	loaders := native.CombinedLoader{libs}
	for _, dir := range opts.LibraryDirs {
		loaders = append(loaders, starlib.Dir(dir, starlib.Options{Logger: e.logger}))
	}
	e.registry = &compiler.Registry{
		Builtins:  native.CombinedLibrary(builtins...),
		Libraries: loaders,
	}

	// Context processors.
	for _, name := range opts.ContextProcessors {
		p, ok := reg.ContextProcessors[name]
		if !ok {
			return nil, fmt.Errorf("dtl: context processor %q is not registered", name)
		}
		e.processors = append(e.processors, p)
	}

	// Loaders.
	if err := e.initLoader(); err != nil {
		e.Close()
		return nil, err
	}

	return e, nil
}

// initLoader initializes the loader of the engine.
func (e *Engine) initLoader() error {
	if e.opts.Loader != nil {
		e.loader = e.opts.Loader
		return nil
	}
	var chain loader.Chain
	cached := false
	for _, name := range e.opts.loaders() {
		switch name {
		case FilesystemLoader:
			for _, dir := range e.opts.Dirs {
				if !e.opts.Watch {
					chain = append(chain, loader.Dir(dir))
					continue
				}
				w, err := loader.NewWatched(dir, e.logger)
				if err != nil {
					return fmt.Errorf("dtl: cannot watch directory %q: %w", dir, err)
				}
				e.watchers = append(e.watchers, w)
				chain = append(chain, w)
			}
		case LocmemLoader:
			chain = append(chain, loader.Map(e.opts.Templates))
		case CachedLoader:
			cached = true
		default:
			return fmt.Errorf("dtl: unknown loader %q", name)
		}
	}
	e.loader = chain
	if cached {
		e.cached = loader.NewCached(chain, e.logger)
		e.trees = &compiler.Cache{}
		e.cached.OnInvalidate(func(name string) {
			if name == "" {
				e.trees.Reset()
			} else {
				e.trees.Delete(name)
			}
		})
		for _, w := range e.watchers {
			w.OnChange(e.cached.Invalidate)
		}
		e.loader = e.cached
	}
	return nil
}

// Close stops watching the template files. It does nothing if the files are
// not watched.
func (e *Engine) Close() error {
	var errs []error
	for _, w := range e.watchers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

// OnChange registers f to be called with the name of a template when its
// file changes. It does nothing if the files are not watched.
func (e *Engine) OnChange(f func(name string)) {
	for _, w := range e.watchers {
		w.OnChange(f)
	}
}

// Reset removes all the templates from the cache.
func (e *Engine) Reset() {
	if e.cached != nil {
		e.cached.Reset()
	}
}

// FromString compiles the template source src. The template has no origin,
// so it cannot extend or include templates with relative paths.
//
// If a compilation error occurs, it returns a *BuildError.
func (e *Engine) FromString(src string) (*Template, error) {
	tree, err := compiler.ParseString(src, e.loader, e.compilerOptions())
	if err != nil {
		return nil, e.convertError(err)
	}
	return &Template{engine: e, tree: tree}, nil
}

// GetTemplate loads and compiles the template with the given name.
//
// If the template does not exist, it returns an error satisfying
// errors.Is(err, ErrTemplateDoesNotExist). If a compilation error occurs, it
// returns a *BuildError.
func (e *Engine) GetTemplate(name string) (*Template, error) {
	tree, err := e.tree(name)
	if err != nil {
		return nil, e.convertError(err)
	}
	return &Template{engine: e, tree: tree}, nil
}

// SelectTemplate loads and compiles the first template in names that exists.
//
// If none exists, it returns a *loader.TemplateDoesNotExist error with the
// names tried. If a compilation error occurs, it returns a *BuildError.
func (e *Engine) SelectTemplate(names []string) (*Template, error) {
	if len(names) == 0 {
		return nil, loader.NotExist()
	}
	tree, err := e.firstTree(names)
	if err != nil {
		return nil, e.convertError(err)
	}
	return &Template{engine: e, tree: tree}, nil
}

// RenderToString loads the template with the given name and renders it with
// the variables vars.
func (e *Engine) RenderToString(name string, vars map[string]any, opts *RenderOptions) (string, error) {
	t, err := e.GetTemplate(name)
	if err != nil {
		return "", err
	}
	return t.RenderString(vars, opts)
}

// tree returns the composed tree of the template with the given name.
func (e *Engine) tree(name string) (*ast.Tree, error) {
	start := time.Now()
	tree, err := compiler.ParseTemplate(name, e.loader, e.trees, e.compilerOptions())
	if err != nil {
		return nil, err
	}
	e.logger.Debug("template loaded", "name", name, "duration", time.Since(start))
	return tree, nil
}

// firstTree returns the composed tree of the first template in names that
// exists.
func (e *Engine) firstTree(names []string) (*ast.Tree, error) {
	var tried []string
	for _, name := range names {
		tree, err := e.tree(name)
		if err == nil {
			return tree, nil
		}
		var notExist *loader.TemplateDoesNotExist
		if !errors.As(err, &notExist) || !slices.Contains(notExist.Tried, name) {
			return nil, err
		}
		for _, t := range notExist.Tried {
			if !slices.Contains(tried, t) {
				tried = append(tried, t)
			}
		}
	}
	return nil, loader.NotExist(tried...)
}

func (e *Engine) compilerOptions() compiler.Options {
	return compiler.Options{Registry: e.registry, MaxDepth: e.opts.MaxInheritanceDepth}
}

// treeLoader implements runtime.Loader, loading the templates extended and
// included at rendering time.
type treeLoader struct {
	engine *Engine
}

func (l treeLoader) Template(names ...string) (*ast.Tree, error) {
	return l.engine.firstTree(names)
}
