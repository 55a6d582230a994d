// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/native"
)

// exprScanner scans a filter expression in a span of the source.
type exprScanner struct {
	src string
	pos int
	end int
}

func (e *exprScanner) skipSpaces() {
	for e.pos < e.end && isSpace(e.src[e.pos]) {
		e.pos++
	}
}

// peek returns the next byte, or zero at the end of the expression.
func (e *exprScanner) peek() byte {
	if e.pos < e.end {
		return e.src[e.pos]
	}
	return 0
}

// runEnd returns the index of the first byte, starting from the current
// position, that is a white space, a '|' or, if colon is true, a ':'.
func (e *exprScanner) runEnd(colon bool) int {
	i := e.pos
	for i < e.end {
		c := e.src[i]
		if isSpace(c) || c == '|' || colon && c == ':' {
			break
		}
		i++
	}
	return i
}

// parseFilterExpression parses the filter expression in the span s of the
// source.
func (p *parsing) parseFilterExpression(s ast.Span) *ast.FilterExpression {
	e := &exprScanner{src: p.src, pos: s.Start, end: s.End}
	base := p.parseBase(e, false)
	var filters []*ast.Filter
	for {
		e.skipSpaces()
		if e.pos == e.end {
			break
		}
		if e.src[e.pos] != '|' {
			panic(syntaxError(ast.Span{Start: e.pos, End: e.end}, "Could not parse the remainder", "here"))
		}
		e.pos++
		e.skipSpaces()
		filters = append(filters, p.parseFilter(e))
	}
	return ast.NewFilterExpression(s, base, filters)
}

// parseElement parses a tag element as a filter expression.
func (p *parsing) parseElement(el element) *ast.FilterExpression {
	return p.parseFilterExpression(el.span)
}

// parseBase parses the base of a filter expression or the argument of a
// filter if arg is true.
func (p *parsing) parseBase(e *exprScanner, arg bool) ast.Expression {
	start := e.pos
	switch c := e.peek(); {
	case c == '_' && e.pos+1 < e.end && e.src[e.pos+1] == '(':
		if e.pos+2 == e.end || !isQuote(e.src[e.pos+2]) {
			panic(syntaxError(ast.Span{Start: start, End: e.end}, "Expected a complete translation string", "here"))
		}
		end, ok := closingQuote(e.src[:e.end], e.pos+2)
		if !ok || end+1 >= e.end || e.src[end+1] != ')' {
			panic(syntaxError(ast.Span{Start: start, End: e.end}, "Expected a complete translation string", "here"))
		}
		e.pos = end + 2
		return ast.NewString(ast.Span{Start: start, End: e.pos}, unquote(e.src[start+2:end+1]), true)
	case isQuote(c):
		end, ok := closingQuote(e.src[:e.end], e.pos)
		if !ok {
			panic(syntaxError(ast.Span{Start: start, End: e.end}, "Expected a complete string literal", "here"))
		}
		e.pos = end + 1
		return ast.NewString(ast.Span{Start: start, End: e.pos}, unquote(e.src[start:e.pos]), false)
	case isDigit(c) || c == '-':
		e.pos = e.runEnd(arg)
		return parseNumber(e.src[start:e.pos], ast.Span{Start: start, End: e.pos})
	}
	e.pos = e.runEnd(arg)
	return p.parseVariable(ast.Span{Start: start, End: e.pos})
}

// parseNumber parses a numeric literal.
func parseNumber(s string, span ast.Span) ast.Expression {
	if n, ok := new(big.Int).SetString(s, 10); ok {
		return ast.NewInt(span, n)
	}
	if strings.ContainsAny(s, "eE.") && !strings.HasSuffix(s, ".") && !strings.ContainsAny(s, "_xXpPnNiI") {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil || errors.Is(err, strconv.ErrRange) {
			return ast.NewFloat(span, f)
		}
	}
	panic(syntaxError(span, "Invalid numeric literal", "here"))
}

// parseVariable parses the variable in the span s.
func (p *parsing) parseVariable(s ast.Span) ast.Expression {
	if s.Start == s.End {
		panic(syntaxError(s, "Expected a valid variable name", "here"))
	}
	var parts []ast.Part
	start := s.Start
	for i := s.Start; i <= s.End; i++ {
		if i < s.End && p.src[i] != '.' {
			continue
		}
		part := ast.Span{Start: start, End: i}
		name := p.src[start:i]
		if !validVariablePart(name) {
			if name == "" {
				part = s
			}
			panic(syntaxError(part, "Expected a valid variable name", "here"))
		}
		parts = append(parts, ast.Part{Span: part, Name: name})
		start = i + 1
	}
	if p.inBlock > 0 && len(parts) == 2 && parts[0].Name == "block" && parts[1].Name == "super" {
		return ast.NewBlockSuper(s)
	}
	return ast.NewVariable(s, parts)
}

// validVariablePart reports whether name is a valid part of a variable.
// Parts may not begin with an underscore.
func validVariablePart(name string) bool {
	if name == "" || name[0] == '_' {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isVariableByte(name[i]) {
			return false
		}
	}
	return true
}

// parseFilter parses a filter and its argument.
func (p *parsing) parseFilter(e *exprScanner) *ast.Filter {
	start := e.pos
	e.pos = e.runEnd(true)
	span := ast.Span{Start: start, End: e.pos}
	name := e.src[start:e.pos]
	if !validFilterName(name) {
		panic(syntaxError(span, "Expected a valid filter name", "here"))
	}
	f := p.filter(name)
	if f == nil {
		panic(syntaxError(span, "Invalid filter: '"+name+"'", "here"))
	}
	filter := &ast.Filter{Span: span, Name: name, Filter: f}
	if e.peek() == ':' {
		e.pos++
		if c := e.peek(); c == 0 || c == '|' || isSpace(c) {
			panic(syntaxError(ast.At(e.pos, 0), "Expected an argument", "here"))
		}
		filter.Arg = p.parseBase(e, true)
		if e.peek() == ':' {
			e.pos++
			end := e.pos
			for end < e.end && e.src[end] != '|' {
				end++
			}
			panic(syntaxError(ast.Span{Start: e.pos, End: end}, "Expected a valid filter name", "here"))
		}
	}
	switch {
	case filter.Arg != nil && f.Arity == native.NoArg:
		panic(syntaxError(filter.Arg.Pos(), name+" filter does not take an argument", "unexpected argument"))
	case filter.Arg == nil && f.Arity == native.RequiredArg:
		panic(syntaxError(span, "Expected an argument", "here"))
	}
	return filter
}

// validFilterName reports whether name is a valid filter name.
func validFilterName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isVariableByte(name[i]) {
			return false
		}
	}
	return true
}

// unquote returns the content of the quoted string s, removing the
// backslashes that escape the quote and the backslash.
func unquote(s string) string {
	quote := s[0]
	s = s[1 : len(s)-1]
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && (s[i+1] == quote || s[i+1] == '\\') {
			i++
			c = s[i]
		}
		b.WriteByte(c)
	}
	return b.String()
}
