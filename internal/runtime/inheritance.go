// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"strings"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/diagnostic"
	"github.com/open2b/dtl/internal/compiler"
	"github.com/open2b/dtl/native"
)

// treeer is implemented by compiled templates that can be included or
// extended by value.
type treeer interface {
	Tree() *ast.Tree
}

// renderBlock renders the most derived block with the name of n.
func (s *state) renderBlock(w strWriter, n *ast.Block) error {
	chain := s.blocks[n.Name]
	if len(chain) == 0 {
		chain = []*ast.Block{n}
	}
	return s.renderChain(w, chain, 0)
}

// renderChain renders the i-th block of chain.
func (s *state) renderChain(w strWriter, chain []*ast.Block, i int) error {
	b := chain[i]
	path, src, frame := s.path, s.src, s.block
	if b.Source != "" || b.Path != "" {
		s.path, s.src = b.Path, b.Source
	}
	s.block = &blockFrame{chain: chain, i: i}
	err := s.renderNodes(w, b.Body)
	s.path, s.src, s.block = path, src, frame
	return err
}

// blockSuper returns the rendered content of the block overridden by the
// block currently rendered.
func (s *state) blockSuper() (any, error) {
	f := s.block
	if f == nil {
		return native.Missing, nil
	}
	if f.i+1 >= len(f.chain) {
		return native.HTML(""), nil
	}
	var b strings.Builder
	err := s.renderChain(&b, f.chain, f.i+1)
	if err != nil {
		return nil, err
	}
	return native.HTML(b.String()), nil
}

// renderExtends renders the parent template of n with the blocks of the
// extending templates.
func (s *state) renderExtends(w strWriter, n *ast.Extends) error {
	if n.Tree != nil {
		return s.renderTree(w, n.Tree, s.blocks)
	}
	v, err := s.evalArg(n.Name)
	if err != nil {
		return err
	}
	if _, ok := v.(native.Translatable); ok {
		return s.newError(ErrType, n.Name.Span, "invalid template name", "Extended template name cannot be a translatable string.")
	}
	var parent *ast.Tree
	switch name := Plain(v).(type) {
	case string:
		if name == "" {
			return s.invalidParent(n, v)
		}
		name, perr := compiler.RelativePath(name, s.path, s.path != "")
		if perr != nil {
			return s.newError(ErrTemplateDoesNotExist, n.Name.Span, perr.Label(), perr.Error())
		}
		parent, err = s.load(n.Name.Span, name)
		if err != nil {
			return err
		}
	case *ast.Tree:
		parent = name
	case treeer:
		parent = name.Tree()
	default:
		return s.invalidParent(n, v)
	}
	if s.extends >= s.maxDepth {
		return s.errorf(ErrValue, n.Span, "extends tag here", "Maximum template inheritance depth of %d exceeded", s.maxDepth)
	}
	s.extends++
	err = s.renderTree(w, parent, ast.ComposeBlocks(s.blocks, parent.Blocks))
	s.extends--
	return err
}

// invalidParent returns the error for the invalid parent name v of n.
func (s *state) invalidParent(n *ast.Extends, v any) error {
	if isMissing(v) {
		v = ""
	}
	r, err := Repr(Plain(v))
	if err != nil {
		r = "<" + TypeName(v) + ">"
	}
	msg := "Invalid template name in 'extends' tag: " + r + "."
	if _, ok := n.Name.Base.(*ast.Variable); ok || len(n.Name.Filters) > 0 {
		msg += " Got this from the '" + n.Name.String() + "' variable."
	}
	return s.newError(ErrType, n.Name.Span, "here", msg)
}

// renderInclude renders an include tag.
func (s *state) renderInclude(w strWriter, n *ast.Include) error {
	tree, err := s.included(n)
	if err != nil {
		return err
	}
	if s.includes >= s.maxDepth {
		return s.errorf(ErrValue, n.Name.Span, "here", "Maximum include depth of %d exceeded", s.maxDepth)
	}
	values := make([]any, len(n.With))
	for i, kw := range n.With {
		values[i], err = s.eval(kw.Value)
		if err != nil {
			return err
		}
	}
	scope := make(map[string]any, len(n.With))
	for i, kw := range n.With {
		v := values[i]
		if isMissing(v) {
			if n.Only {
				continue
			}
			v = ""
		}
		scope[kw.Name.Name] = v
	}
	vars := s.vars
	if n.Only {
		s.vars = scopes{builtinScope(), scope}
	} else {
		s.vars.push(scope)
	}
	s.includes++
	err = s.renderTree(w, tree, tree.Blocks)
	s.includes--
	if n.Only {
		s.vars = vars
	} else {
		s.vars.pop()
	}
	return err
}

// included returns the tree of the template included by n.
func (s *state) included(n *ast.Include) (*ast.Tree, error) {
	span := n.Name.Span
	if n.Path != "" {
		return s.load(span, n.Path)
	}
	v, err := s.evalArg(n.Name)
	if err != nil {
		return nil, err
	}
	if isMissing(v) {
		return nil, s.newError(ErrTemplateDoesNotExist, span, "This variable is not in the context", "No template names provided")
	}
	if _, ok := v.(native.Translatable); ok {
		return nil, s.newError(ErrType, span, "invalid template name", "Included template name cannot be a translatable string.")
	}
	switch name := Plain(v).(type) {
	case string:
		name, perr := compiler.RelativePath(name, n.Origin, n.Origin != "")
		if perr != nil {
			return nil, s.newError(ErrTemplateDoesNotExist, span, perr.Label(), perr.Error())
		}
		return s.load(span, name)
	case *ast.Tree:
		return name, nil
	case treeer:
		return name.Tree(), nil
	}
	if items, ok, err := Iter(v); ok && err == nil {
		names := make([]string, len(items))
		for i, item := range items {
			name, ok := Plain(item).(string)
			if !ok {
				return nil, s.invalidInclude(span, v)
			}
			names[i] = name
		}
		if len(names) == 0 {
			return nil, s.newError(ErrTemplateDoesNotExist, span, "here", "No template names provided")
		}
		return s.load(span, names...)
	}
	return nil, s.invalidInclude(span, v)
}

// invalidInclude returns the error for the invalid template name v.
func (s *state) invalidInclude(span ast.Span, v any) error {
	str, err := ToString(v)
	if err != nil {
		str = "<" + TypeName(v) + ">"
	}
	return s.newError(ErrType, span, "invalid template name: "+str,
		"Included template name must be a string or iterable of strings.")
}

// load loads the first template in names that exists. If none exists, the
// error is reported at span.
func (s *state) load(span ast.Span, names ...string) (*ast.Tree, error) {
	if s.opts.Loader == nil {
		return nil, s.newError(ErrTemplateDoesNotExist, span, "here", strings.Join(names, ", "))
	}
	tree, err := s.opts.Loader.Template(names...)
	if err != nil {
		if errors.Is(err, ErrTemplateDoesNotExist) {
			return nil, &Error{
				Path:       s.path,
				Source:     s.src,
				Diagnostic: diagnostic.New(err.Error(), span, "here"),
				Err:        err,
			}
		}
		return nil, err
	}
	return tree, nil
}
