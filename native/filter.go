// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package native

// Arity is the number of arguments a filter takes.
type Arity int

const (
	NoArg       Arity = iota // the filter does not take an argument
	RequiredArg              // the filter requires an argument
	OptionalArg              // the argument of the filter is optional
)

// FilterFunc is the function that implements a filter. value is the filtered
// value, Missing if it is a variable that does not exist, and args contains
// the argument, if present.
//
// If the returned error is a *Error, it is reported with the position of the
// filter, otherwise it is returned unchanged to the caller of the rendering.
type FilterFunc func(env Env, value any, args ...any) (any, error)

// Filter is a filter that can be used in templates, as in {{ value|name }}
// and {{ value|name:arg }}.
type Filter struct {
	Name  string
	Func  FilterFunc
	Arity Arity
}

// TakesArg reports whether the filter can take an argument.
func (f *Filter) TakesArg() bool {
	return f.Arity != NoArg
}
