// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
	"path"
	"strings"

	"github.com/open2b/dtl/ast"
)

// PathError is the error returned by RelativePath when a relative path
// cannot be resolved.
type PathError struct {
	Name    string // relative path
	Origin  string // path of the template that contains the relative path
	Unknown bool   // the origin is unknown
}

func (e *PathError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("The relative path '%s' cannot be evaluated due to an unknown template origin.", e.Name)
	}
	return fmt.Sprintf("The relative path '%s' points outside the file hierarchy that template '%s' is in.", e.Name, e.Origin)
}

// Label returns the label of the position of the relative path in a
// diagnostic.
func (e *PathError) Label() string {
	if e.Unknown {
		return "here"
	}
	return "relative path"
}

// IsRelative reports whether name is a relative path, that is it starts
// with "./" or "../".
func IsRelative(name string) bool {
	return strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../")
}

// RelativePath resolves the template name against the directory of the
// template origin. known reports whether the origin is known. If name is
// not a relative path, it returns name unchanged.
func RelativePath(name, origin string, known bool) (string, *PathError) {
	if !IsRelative(name) {
		return name, nil
	}
	if !known {
		return "", &PathError{Name: name, Unknown: true}
	}
	p := path.Join(path.Dir(origin), name)
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", &PathError{Name: name, Origin: origin}
	}
	return p, nil
}

// resolvePath resolves the template name in the string literal s. It
// panics with a syntax error if the name is a relative path that cannot
// be resolved.
func (p *parsing) resolvePath(s *ast.String) string {
	name, err := RelativePath(s.Text, p.path, p.origin)
	if err != nil {
		span := s.Span
		if span.Len() >= 2 {
			span = ast.Span{Start: span.Start + 1, End: span.End - 1}
		}
		panic(syntaxError(span, err.Error(), err.Label()))
	}
	return name
}
