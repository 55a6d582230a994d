// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package native

import (
	"fmt"
	"slices"
)

// TagFunc is the function that implements a simple tag.
//
// args contains the values of the parameters in Params, in order, followed
// by the extra positional arguments if the tag has VarArgs. The 'context'
// parameter is not passed, use env.Vars() instead. For block tags the
// 'content' parameter is the rendered content of the block.
//
// kwargs contains the keyword-only parameters and, if the tag has
// VarKwargs, the extra keyword arguments.
//
// The returned value is rendered in place of the tag, or stored in a
// variable if the tag is called with 'as name'.
type TagFunc func(env Env, args []any, kwargs map[string]any) (any, error)

// Tag is a simple tag, or a simple block tag, that can be used in templates
// after it has been loaded with the 'load' tag.
//
// For example the tag
//
//	{% multiply 2 b=3 c=4 as result %}
//
// is implemented by
//
//	&native.Tag{
//		Name:   "multiply",
//		Params: []string{"a", "b", "c"},
//		Func: func(env native.Env, args []any, kwargs map[string]any) (any, error) {
//			return args[0].(int) * args[1].(int) * args[2].(int), nil
//		},
//	}
type Tag struct {
	Name string
	Func TagFunc

	// Params are the names of the parameters that can be passed as
	// positional or keyword arguments. If TakesContext is true, the first
	// parameter must be 'context'. For block tags the first parameter, after
	// 'context', must be 'content'.
	Params []string

	// Defaults are the default values of the last len(Defaults) parameters
	// in Params.
	Defaults []any

	// VarArgs reports whether the tag takes any number of extra positional
	// arguments.
	VarArgs bool

	// KwOnly are the names of the parameters that can be passed only as
	// keyword arguments, with their default values in KwOnlyDefaults.
	KwOnly         []string
	KwOnlyDefaults map[string]any

	// VarKwargs reports whether the tag takes any number of extra keyword
	// arguments.
	VarKwargs bool

	// TakesContext reports whether the tag receives the context as first
	// parameter.
	TakesContext bool

	// Block reports whether it is a block tag. A block tag has a body,
	// terminated by the EndName tag, or by 'end' followed by the name of the
	// tag if EndName is empty.
	Block   bool
	EndName string
}

// Check checks that the declaration of the tag is valid.
func (t *Tag) Check() error {
	params := t.Params
	if t.TakesContext {
		if len(params) == 0 || params[0] != "context" {
			return fmt.Errorf("'%s' is decorated with takes_context=True so it must have a first argument of 'context'", t.Name)
		}
		params = params[1:]
	}
	if t.Block {
		if len(params) == 0 || params[0] != "content" {
			if t.TakesContext {
				return fmt.Errorf("'%s' is decorated with takes_context=True so it must have a first argument of 'context' and a second argument of 'content'", t.Name)
			}
			return fmt.Errorf("'%s' must have a first argument of 'content'", t.Name)
		}
	}
	if len(t.Defaults) > len(params) {
		return fmt.Errorf("'%s' has more defaults than parameters", t.Name)
	}
	for name := range t.KwOnlyDefaults {
		if !slices.Contains(t.KwOnly, name) {
			return fmt.Errorf("'%s' has a default for the unknown keyword-only parameter '%s'", t.Name, name)
		}
	}
	if t.Func == nil {
		return fmt.Errorf("'%s' has no function", t.Name)
	}
	return nil
}

// Bindable returns the parameters that are bound to the arguments in the
// template, that are the parameters in Params except 'context' and
// 'content'.
func (t *Tag) Bindable() []string {
	params := t.Params
	if t.TakesContext && len(params) > 0 {
		params = params[1:]
	}
	if t.Block && len(params) > 0 {
		params = params[1:]
	}
	return params
}

// Default returns the default value of the parameter with the given name in
// Params or KwOnly and reports whether it has a default.
func (t *Tag) Default(name string) (any, bool) {
	if v, ok := t.KwOnlyDefaults[name]; ok {
		return v, true
	}
	i := slices.Index(t.Params, name)
	if i < 0 {
		return nil, false
	}
	j := i - (len(t.Params) - len(t.Defaults))
	if j < 0 {
		return nil, false
	}
	return t.Defaults[j], true
}

// End returns the name of the end tag of a block tag.
func (t *Tag) End() string {
	if t.EndName != "" {
		return t.EndName
	}
	return "end" + t.Name
}
