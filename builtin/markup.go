// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"bytes"

	"github.com/open2b/dtl/native"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markup returns a new library with the markdown filter, that converts
// Markdown to HTML. Raw HTML in the source is omitted.
//
//	{% load markup %}
//	{{ post.body|markdown }}
func Markup() *native.Library {
	lib := &native.Library{}
	lib.Register(&native.Filter{Name: "markdown", Func: markdown, Arity: native.NoArg})
	return lib
}

func markdown(_ native.Env, v any, _ ...any) (any, error) {
	s, err := toString(v)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if err := md.Convert([]byte(s), &b); err != nil {
		return nil, native.Errorf(native.ValueError, "cannot convert Markdown: %s", err)
	}
	return native.HTML(b.String()), nil
}
