// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package native provides types to implement native filters, tags and values
// that can be used in templates.
package native

import (
	"context"
	"time"
)

// HTML is a string that is not escaped when rendered. It is the safe string
// returned by the 'safe' filter.
type HTML string

// Env represents a rendering environment.
//
// Each rendering creates an Env value. This value is passed as the first
// argument to filters and tags.
type Env interface {

	// Autoescape reports whether autoescape is on where the filter or tag
	// is called.
	Autoescape() bool

	// Context returns the context of the rendering.
	// It is the context passed as an option for rendering.
	Context() context.Context

	// Now returns the current time. It is the time used by the 'now' tag.
	Now() time.Time

	// Path returns the path of the rendered template. It is empty for
	// templates compiled from a string.
	Path() string

	// Request returns the request passed as an option for rendering.
	Request() any

	// Vars returns the variables of the context of the rendering.
	Vars() Vars
}

// Vars represents the variables of a rendering context, as a stack of scopes.
type Vars interface {

	// Get returns the value of the variable with the given name, searching
	// from the innermost scope, and reports whether it exists.
	Get(name string) (any, bool)

	// Set sets the value of a variable in the innermost scope.
	Set(name string, value any)
}

// missing is the type of Missing.
type missing struct{}

func (missing) String() string { return "" }

// Missing is the value passed to a filter when the filtered variable does
// not exist.
var Missing any = missing{}

type (

	// HTMLStringer is implemented by values that are not escaped when
	// rendered.
	HTMLStringer interface {
		HTML() HTML
	}

	// TemplateStringer is implemented by values that have a string
	// representation in templates. The conversion can fail and, in this case,
	// the rendering fails with the returned error.
	TemplateStringer interface {
		TemplateString() (string, error)
	}

	// Truther is implemented by values that have a truth value in
	// templates. An error stops the rendering.
	Truther interface {
		Truth() (bool, error)
	}

	// AttrGetter is implemented by values that support the lookup of keys
	// and attributes, as in {{ value.name }}. It returns false if the
	// attribute does not exist.
	AttrGetter interface {
		Attr(name string) (any, bool, error)
	}

	// IndexGetter is implemented by values that support the lookup of an
	// element by index, as in {{ value.2 }}. It returns false if the index is
	// out of range.
	IndexGetter interface {
		Index(i int) (any, bool, error)
	}

	// Lener is implemented by values that have a length, as returned by the
	// 'length' filter.
	Lener interface {
		Len() (int, error)
	}

	// Iterable is implemented by values that can be iterated by the 'for'
	// tag.
	Iterable interface {
		Iter() ([]any, error)
	}

	// DoNotCaller is implemented by functions that are not called when
	// resolved in a template if DoNotCall returns true.
	DoNotCaller interface {
		DoNotCall() bool
	}

	// DataAlterer is implemented by functions that alter data. If AltersData
	// returns true, they are not called and they are resolved as an invalid
	// value.
	DataAlterer interface {
		AltersData() bool
	}

	// Translatable is implemented by lazily translated strings. They cannot
	// be used as the name of an extended or included template.
	Translatable interface {
		Translatable()
	}
)
