// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package starlib implements libraries of filters and tags written in
// Starlark.
//
// A library is a Starlark file that defines functions and registers them as
// filters and tags with the predeclared functions register_filter and
// register_tag:
//
//	def shout(value, suffix="!"):
//	    return value.upper() + suffix
//
//	def greet(context, name, greeting="Hello"):
//	    return greeting + ", " + name + " from " + context["site"]
//
//	def box(content, css="box"):
//	    return mark_safe('<div class="%s">%s</div>' % (escape(css), content))
//
//	register_filter("shout", shout)
//	register_tag("greet", greet)
//	register_tag("box", box, block=True)
//
// A filter function has one parameter, the filtered value, and optionally a
// second parameter, the argument. The argument is optional if the parameter
// has a default value. If is_safe is true, the result of the filter applied
// to a safe string is safe.
//
// The parameters of a tag function are bound to the arguments of the tag as
// in Django simple tags. If the first parameter is named 'context', the tag
// takes the context, that can be read and written as a dict. The function
// of a block tag has a 'content' parameter, after 'context' if present,
// with the rendered content of the block.
//
// The predeclared functions mark_safe and escape, and the modules json and
// math, are also available.
package starlib

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/open2b/dtl/internal/runtime"
	"github.com/open2b/dtl/native"

	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// Options are the options used to load a library.
type Options struct {

	// Logger is the logger of the print function. If nil, the output of
	// print is discarded.
	Logger *slog.Logger

	// MaxSteps is the maximum number of computation steps of a call to a
	// filter or tag function. Zero means no limit.
	MaxSteps uint64
}

const libraryKey = "dtl.library"

// Load executes the Starlark source src, with the given file name, and
// returns the library of the filters and tags it registers. src can be a
// string, a []byte or an io.Reader. If src is nil, the file is read.
func Load(filename string, src any, opts Options) (*native.Library, error) {
	lib := &native.Library{}
	l := &library{lib: lib, opts: opts}
	thread := l.newThread(filename)
	thread.SetLocal(libraryKey, l)
	fileOpts := &syntax.FileOptions{Set: true, While: true, TopLevelControl: true, GlobalReassign: true}
	globals, err := starlark.ExecFileOptions(fileOpts, thread, filename, src, predeclared)
	if err != nil {
		return nil, err
	}
	globals.Freeze()
	for _, t := range lib.Tags {
		if err := t.Check(); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return lib, nil
}

var predeclared = starlark.StringDict{
	"register_filter": starlark.NewBuiltin("register_filter", registerFilter),
	"register_tag":    starlark.NewBuiltin("register_tag", registerTag),
	"mark_safe":       starlark.NewBuiltin("mark_safe", markSafe),
	"escape":          starlark.NewBuiltin("escape", escape),
	"json":            json.Module,
	"math":            math.Module,
	"struct":          starlark.NewBuiltin("struct", starlarkstruct.Make),
}

func init() {
	predeclared.Freeze()
}

// library is the library being loaded.
type library struct {
	lib  *native.Library
	opts Options
}

// newThread returns a new thread with the given name.
func (l *library) newThread(name string) *starlark.Thread {
	thread := &starlark.Thread{Name: name}
	thread.Print = func(thread *starlark.Thread, msg string) {
		if l.opts.Logger != nil {
			l.opts.Logger.Info(msg, "thread", thread.Name)
		}
	}
	return thread
}

// call calls fn with the given arguments in a new thread, canceled when the
// context of env is canceled.
func (l *library) call(env native.Env, fn *starlark.Function, args starlark.Tuple, kwargs []starlark.Tuple) (any, error) {
	thread := l.newThread(fn.Name())
	if l.opts.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(l.opts.MaxSteps)
	}
	if ctx := env.Context(); ctx != nil {
		stop := context.AfterFunc(ctx, func() { thread.Cancel(context.Cause(ctx).Error()) })
		defer stop()
	}
	v, err := starlark.Call(thread, fn, args, kwargs)
	if err != nil {
		if e, ok := err.(*starlark.EvalError); ok {
			if ne, ok := e.Unwrap().(*native.Error); ok {
				return nil, ne
			}
			return nil, native.Errorf(native.ValueError, "%s", e.Msg)
		}
		return nil, err
	}
	return fromStarlark(v)
}

// fromThread returns the library being loaded by thread.
func fromThread(thread *starlark.Thread, fn *starlark.Builtin) (*library, error) {
	l, ok := thread.Local(libraryKey).(*library)
	if !ok {
		return nil, fmt.Errorf("%s: can only be called while loading a library", fn.Name())
	}
	return l, nil
}

func registerFilter(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var fn *starlark.Function
	var isSafe bool
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "fn", &fn, "is_safe?", &isSafe); err != nil {
		return nil, err
	}
	l, err := fromThread(thread, b)
	if err != nil {
		return nil, err
	}
	if fn.HasVarargs() || fn.HasKwargs() || fn.NumKwonlyParams() > 0 {
		return nil, fmt.Errorf("%s: filter function %s must have only positional parameters", b.Name(), fn.Name())
	}
	var arity native.Arity
	switch fn.NumParams() {
	case 1:
		arity = native.NoArg
	case 2:
		arity = native.RequiredArg
		if fn.ParamDefault(1) != nil {
			arity = native.OptionalArg
		}
	default:
		return nil, fmt.Errorf("%s: filter function %s must have one or two parameters", b.Name(), fn.Name())
	}
	l.lib.Register(&native.Filter{
		Name:  name,
		Arity: arity,
		Func: func(env native.Env, value any, fargs ...any) (any, error) {
			sargs := make(starlark.Tuple, 1+len(fargs))
			for i, v := range append([]any{value}, fargs...) {
				sv, err := toStarlark(v)
				if err != nil {
					return nil, err
				}
				sargs[i] = sv
			}
			v, err := l.call(env, fn, sargs, nil)
			if err != nil {
				return nil, err
			}
			if s, ok := v.(string); ok && isSafe && isSafeValue(value) {
				return native.HTML(s), nil
			}
			return v, nil
		},
	})
	return starlark.None, nil
}

func registerTag(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name, end string
	var fn *starlark.Function
	var block bool
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "fn", &fn, "block?", &block, "end?", &end); err != nil {
		return nil, err
	}
	l, err := fromThread(thread, b)
	if err != nil {
		return nil, err
	}
	tag := &native.Tag{
		Name:      name,
		Block:     block,
		EndName:   end,
		VarArgs:   fn.HasVarargs(),
		VarKwargs: fn.HasKwargs(),
	}
	n := fn.NumParams() - fn.NumKwonlyParams()
	if fn.HasVarargs() {
		n--
	}
	if fn.HasKwargs() {
		n--
	}
	for i := 0; i < n; i++ {
		param, _ := fn.Param(i)
		tag.Params = append(tag.Params, param)
		if d := fn.ParamDefault(i); d != nil {
			v, err := fromStarlark(d)
			if err != nil {
				return nil, err
			}
			tag.Defaults = append(tag.Defaults, v)
		}
	}
	tag.TakesContext = n > 0 && tag.Params[0] == "context"
	for i := n; i < n+fn.NumKwonlyParams(); i++ {
		param, _ := fn.Param(i)
		tag.KwOnly = append(tag.KwOnly, param)
		if d := fn.ParamDefault(i); d != nil {
			v, err := fromStarlark(d)
			if err != nil {
				return nil, err
			}
			if tag.KwOnlyDefaults == nil {
				tag.KwOnlyDefaults = map[string]any{}
			}
			tag.KwOnlyDefaults[param] = v
		}
	}
	tag.Func = func(env native.Env, targs []any, tkwargs map[string]any) (any, error) {
		var sargs starlark.Tuple
		if tag.TakesContext {
			sargs = append(sargs, &contextValue{vars: env.Vars()})
		}
		for _, v := range targs {
			sv, err := toStarlark(v)
			if err != nil {
				return nil, err
			}
			sargs = append(sargs, sv)
		}
		var skwargs []starlark.Tuple
		for _, k := range slices.Sorted(maps.Keys(tkwargs)) {
			sv, err := toStarlark(tkwargs[k])
			if err != nil {
				return nil, err
			}
			skwargs = append(skwargs, starlark.Tuple{starlark.String(k), sv})
		}
		return l.call(env, fn, sargs, skwargs)
	}
	l.lib.RegisterTag(tag)
	return starlark.None, nil
}

func markSafe(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	if s, ok := v.(safeString); ok {
		return s, nil
	}
	if s, ok := starlark.AsString(v); ok {
		return safeString(s), nil
	}
	return safeString(v.String()), nil
}

func escape(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case safeString:
		return v, nil
	case starlark.String:
		return safeString(runtime.Escape(string(v))), nil
	}
	return safeString(runtime.Escape(v.String())), nil
}

func isSafeValue(v any) bool {
	switch v.(type) {
	case native.HTML, native.HTMLStringer:
		return true
	}
	return false
}
