// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dtl implements a template engine compatible with the Django
// template language.
//
// An Engine loads, compiles and caches templates:
//
//	engine, err := dtl.New(dtl.Options{Dirs: []string{"templates"}})
//	if err != nil {
//		return err
//	}
//	t, err := engine.GetTemplate("index.html")
//	if err != nil {
//		return err
//	}
//	err = t.Render(w, map[string]any{"name": "Ann"}, nil)
//
// Compilation errors are returned as *BuildError and rendering errors as
// *RenderError. Both render, with their Error method, a report of the error
// with the annotated source of the template:
//
//	 × Invalid filter: 'uper'
//	  ╭─[index.html:1:15]
//	1 │ Hello {{ name|uper }}
//	  ·               ──┬─
//	  ·                 ╰── here
//	  ╰────
//
// Values passed to templates are resolved as in Django: a variable part is
// looked up as a map key, then as a struct field or method without
// arguments, then as an index. Host types can customize the resolution
// implementing the interfaces of the native package.
package dtl

import (
	"github.com/open2b/dtl/internal/runtime"
)

// Kinds of rendering errors. A *RenderError wraps one of them, so they can be
// tested with errors.Is.
var (
	ErrVariableDoesNotExist = runtime.ErrVariableDoesNotExist
	ErrValue                = runtime.ErrValue
	ErrType                 = runtime.ErrType
	ErrOverflow             = runtime.ErrOverflow
	ErrZeroDivision         = runtime.ErrZeroDivision
	ErrKey                  = runtime.ErrKey
	ErrTemplateDoesNotExist = runtime.ErrTemplateDoesNotExist
	ErrNoReverseMatch       = runtime.ErrNoReverseMatch
)

// URLResolver is implemented by values that reverse the view names of the
// url tag into URLs.
type URLResolver = runtime.URLResolver
