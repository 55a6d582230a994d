// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"slices"
	"strings"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/native"
)

// parseSimpleTag parses a tag implemented by the native tag st, binding
// its arguments to the parameters of st.
func (p *parsing) parseSimpleTag(st *native.Tag, t tag) ast.Node {

	asVar, args := p.asVar(newTagLexer(p.src, t.parts, true).all())
	params := st.Bindable()

	var positional []*ast.FilterExpression
	var kwargs []ast.KeywordArg
	seen := map[string]ast.Span{}
	prev := t.parts

	for i, arg := range args {
		if arg.name == nil {
			if len(seen) > 0 {
				panic(syntaxError(arg.span, "Unexpected positional argument after keyword argument", "this positional argument").
					withLabel(prev, "after this keyword argument"))
			}
			if !st.VarArgs && i == len(params) {
				panic(syntaxError(arg.span, "Unexpected positional argument", "here"))
			}
			positional = append(positional, p.parseElement(arg.value))
			prev = arg.span
			continue
		}
		name := arg.name.Name
		if !st.VarKwargs && !slices.Contains(params, name) && !slices.Contains(st.KwOnly, name) {
			panic(syntaxError(arg.span, "Unexpected keyword argument", "here"))
		}
		if first, ok := seen[name]; ok {
			panic(syntaxErrorf(first, "first", "'%s' received multiple values for keyword argument '%s'", st.Name, name).
				withLabel(arg.span, "second"))
		}
		seen[name] = arg.span
		kwargs = append(kwargs, ast.KeywordArg{Name: arg.name, Value: p.parseElement(arg.value)})
		prev = arg.span
	}

	// Check that every parameter without a default has a value.
	var missing []string
	if required := len(params) - min(len(st.Defaults), len(params)); len(positional) < required {
		for _, param := range params[len(positional):required] {
			if _, ok := seen[param]; !ok {
				missing = append(missing, "'"+param+"'")
			}
		}
	}
	for _, param := range st.KwOnly {
		if _, ok := seen[param]; ok {
			continue
		}
		if _, ok := st.KwOnlyDefaults[param]; !ok {
			missing = append(missing, "'"+param+"'")
		}
	}
	if missing != nil {
		panic(syntaxErrorf(t.parts, "here", "'%s' did not receive value(s) for the argument(s): %s",
			st.Name, strings.Join(missing, ", ")))
	}

	var body []ast.Node
	if st.Block {
		body, _ = p.parseNodes([]string{st.End()}, t.name, t.span)
		if body == nil {
			body = []ast.Node{}
		}
	}

	return ast.NewSimpleTag(t.span, st, positional, kwargs, asVar, body)
}
