// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"slices"
	"strings"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/native"
)

// renderSimpleTag renders a simple tag, or a simple block tag, calling its
// function.
func (s *state) renderSimpleTag(w strWriter, n *ast.SimpleTag) error {
	tag := n.Tag
	params := tag.Bindable()
	var args []any
	if tag.Block {
		var b strings.Builder
		if err := s.renderNodes(&b, n.Body); err != nil {
			return err
		}
		args = append(args, native.HTML(b.String()))
	}
	bound := make([]any, len(params))
	set := make([]bool, len(params))
	var extra []any
	for i, expr := range n.Args {
		v, err := s.tagArg(expr)
		if err != nil {
			return err
		}
		if i < len(params) {
			bound[i], set[i] = v, true
		} else {
			extra = append(extra, v)
		}
	}
	var kwargs map[string]any
	for _, kw := range n.Kwargs {
		v, err := s.tagArg(kw.Value)
		if err != nil {
			return err
		}
		if i := slices.Index(params, kw.Name.Name); i >= 0 {
			bound[i], set[i] = v, true
			continue
		}
		if kwargs == nil {
			kwargs = map[string]any{}
		}
		kwargs[kw.Name.Name] = v
	}
	for i, name := range params {
		if !set[i] {
			bound[i], _ = tag.Default(name)
		}
	}
	for _, name := range tag.KwOnly {
		if _, ok := kwargs[name]; ok {
			continue
		}
		if v, ok := tag.KwOnlyDefaults[name]; ok {
			if kwargs == nil {
				kwargs = map[string]any{}
			}
			kwargs[name] = v
		}
	}
	args = append(args, bound...)
	args = append(args, extra...)
	v, err := tag.Func(s, args, kwargs)
	if err != nil {
		return s.nativeError(err, n.Span, "here")
	}
	if n.AsVar != nil {
		s.vars.Set(n.AsVar.Name, v)
		return nil
	}
	if err := s.writeValue(w, v); err != nil {
		return s.nativeError(err, n.Span, "here")
	}
	return nil
}

// tagArg evaluates an argument of a simple tag. The value of a variable
// that does not exist is the empty string.
func (s *state) tagArg(expr *ast.FilterExpression) (any, error) {
	v, err := s.evalArg(expr)
	if err != nil {
		return nil, err
	}
	if isMissing(v) {
		return "", nil
	}
	return v, nil
}

// renderURL renders a url tag.
func (s *state) renderURL(w strWriter, n *ast.URL) error {
	v, err := s.urlArg(n.Name)
	if err != nil {
		return err
	}
	name, err := ToString(v)
	if err != nil {
		return s.nativeError(err, n.Name.Span, "here")
	}
	args := make([]any, len(n.Args))
	for i, arg := range n.Args {
		args[i], err = s.urlArg(arg)
		if err != nil {
			return err
		}
	}
	kwargs := make(map[string]any, len(n.Kwargs))
	for _, kw := range n.Kwargs {
		kwargs[kw.Name.Name], err = s.urlArg(kw.Value)
		if err != nil {
			return err
		}
	}
	if s.opts.URLResolver == nil {
		return s.newError(ErrNoReverseMatch, n.Span, "here", "No URL resolver configured")
	}
	url, err := s.opts.URLResolver.Reverse(s, name, args, kwargs)
	if err != nil {
		if !errors.Is(err, ErrNoReverseMatch) {
			return s.nativeError(err, n.Span, "here")
		}
		if n.AsVar != nil {
			s.vars.Set(n.AsVar.Name, "")
			return nil
		}
		e := s.newError(ErrNoReverseMatch, n.Span, "here", err.Error())
		e.Err = err
		return e
	}
	if n.AsVar != nil {
		s.vars.Set(n.AsVar.Name, url)
		return nil
	}
	return s.writeValue(w, url)
}

// urlArg evaluates an argument of a url tag. The value of a variable that
// does not exist is the empty string.
func (s *state) urlArg(expr *ast.FilterExpression) (any, error) {
	v, err := s.evalArg(expr)
	if err != nil {
		return nil, err
	}
	if isMissing(v) {
		return "", nil
	}
	return v, nil
}

// renderNow renders a now tag.
func (s *state) renderNow(w strWriter, n *ast.Now) error {
	var str string
	if s.opts.FormatDate != nil {
		var err error
		str, err = s.opts.FormatDate(s.now, n.Format)
		if err != nil {
			return s.nativeError(err, n.Span, "here")
		}
	} else {
		str = s.now.Format(n.Format)
	}
	if n.AsVar != nil {
		s.vars.Set(n.AsVar.Name, str)
		return nil
	}
	_, err := w.WriteString(str)
	return err
}

// renderLorem renders a lorem tag.
func (s *state) renderLorem(w strWriter, n *ast.Lorem) error {
	count := 1
	if n.Count != nil {
		v, err := s.eval(n.Count)
		if err != nil {
			return err
		}
		if c, ok := ToInt(v); ok {
			count = c
		}
	}
	if s.opts.Lorem == nil {
		return nil
	}
	_, err := w.WriteString(s.opts.Lorem(count, n.Method, n.Common))
	return err
}

// renderCsrfToken renders a csrf_token tag.
func (s *state) renderCsrfToken(w strWriter) error {
	token, ok := s.vars.Get("csrf_token")
	if !ok {
		return nil
	}
	if t, err := Truth(token); err != nil || !t {
		return nil
	}
	str, err := ToString(token)
	if err != nil || str == "NOTPROVIDED" {
		return nil
	}
	if _, err := w.WriteString(`<input type="hidden" name="csrfmiddlewaretoken" value="`); err != nil {
		return err
	}
	if err := HTMLEscape(w, str); err != nil {
		return err
	}
	_, err = w.WriteString(`">`)
	return err
}
