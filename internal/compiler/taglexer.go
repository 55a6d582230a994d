// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"strings"
	"unicode"

	"github.com/open2b/dtl/ast"
)

// elementKind is the kind of the base of a tag element.
type elementKind int

const (
	elementVariable   elementKind = iota // variable, as in 'user.name|upper'
	elementNumeric                       // number, as in '3'
	elementText                          // quoted text, as in "'text'"
	elementTranslated                    // translated text, as in "_('text')"
)

// element is an element of the content of a block tag. Elements are
// separated by white space. An element can be followed by filters.
type element struct {
	kind elementKind
	span ast.Span
}

// tagArg is an argument of a tag, positional or keyword.
type tagArg struct {
	name  *ast.Identifier // name of a keyword argument, nil if positional
	value element         // value
	span  ast.Span        // whole argument, name included
}

// tag is a lexed block tag, its name and the span of its arguments.
type tag struct {
	name  string
	at    ast.Span // position of the name
	parts ast.Span // position of the arguments, empty if there are none
	span  ast.Span // position of the whole tag, delimiters included
}

// lexTag lexes the name of the block tag tok. It panics with a syntax error
// if the tag is empty or its name is not valid.
func lexTag(tok token) tag {
	if tok.txt == "" {
		panic(syntaxError(tok.span, "Empty block tag", "here"))
	}
	start := tok.content.Start
	n := strings.IndexFunc(tok.txt, isSpaceRune)
	if n < 0 {
		n = len(tok.txt)
	}
	name := tok.txt[:n]
	for _, r := range name {
		if !isNameRune(r) {
			panic(syntaxError(ast.At(start, n), "Invalid block tag name", "here"))
		}
	}
	t := tag{name: name, at: ast.At(start, n), span: tok.span}
	rest := strings.TrimLeftFunc(tok.txt[n:], isSpaceRune)
	if rest == "" {
		t.parts = ast.At(start+n, 0)
	} else {
		t.parts = ast.At(tok.content.End-len(rest), len(rest))
	}
	return t
}

// isNameRune reports whether r can be part of a tag name.
func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) ||
		unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc)
}

// tagLexer lexes the elements of the content of a block tag.
type tagLexer struct {
	src    string // template source
	pos    int    // index of the next byte to lex
	end    int    // index of the end of the content
	kwargs bool   // lex keyword arguments
}

// newTagLexer returns a lexer of the elements in the span parts of src. If
// kwargs is true, elements in the form 'name=value' are lexed as keyword
// arguments.
func newTagLexer(src string, parts ast.Span, kwargs bool) *tagLexer {
	return &tagLexer{src: src, pos: parts.Start, end: parts.End, kwargs: kwargs}
}

// rest returns the span of the content not yet lexed, without leading
// spaces.
func (l *tagLexer) rest() ast.Span {
	l.skipSpaces()
	return ast.Span{Start: l.pos, End: l.end}
}

// more reports whether there are other elements.
func (l *tagLexer) more() bool {
	l.skipSpaces()
	return l.pos < l.end
}

func (l *tagLexer) skipSpaces() {
	for l.pos < l.end && isSpace(l.src[l.pos]) {
		l.pos++
	}
}

// all returns all the remaining arguments.
func (l *tagLexer) all() []tagArg {
	var args []tagArg
	for {
		arg, ok := l.next()
		if !ok {
			return args
		}
		args = append(args, arg)
	}
}

// next returns the next argument. It returns false if there are no more
// arguments and panics with a syntax error if the argument is not valid.
func (l *tagLexer) next() (tagArg, bool) {
	l.skipSpaces()
	if l.pos == l.end {
		return tagArg{}, false
	}
	start := l.pos
	if l.kwargs {
		if name, ok := l.keyword(); ok {
			if l.pos == l.end || isSpace(l.src[l.pos]) {
				panic(syntaxError(ast.Span{Start: start, End: l.pos}, "Incomplete keyword argument", "here"))
			}
			value := l.element()
			return tagArg{name: name, value: value, span: ast.Span{Start: start, End: value.span.End}}, true
		}
	}
	value := l.element()
	return tagArg{value: value, span: value.span}, true
}

// nextElement is like next but returns only the value of the argument.
func (l *tagLexer) nextElement() (element, bool) {
	arg, ok := l.next()
	return arg.value, ok
}

// keyword lexes the name and the '=' of a keyword argument, if there is one
// at the current position.
func (l *tagLexer) keyword() (*ast.Identifier, bool) {
	i := l.pos
	for i < l.end && isVariableByte(l.src[i]) {
		i++
	}
	if i == l.pos || i == l.end || l.src[i] != '=' || isDigit(l.src[l.pos]) {
		return nil, false
	}
	name := ast.NewIdentifier(ast.Span{Start: l.pos, End: i}, l.src[l.pos:i])
	l.pos = i + 1
	return name, true
}

// element lexes an element at the current position.
func (l *tagLexer) element() element {
	start := l.pos
	var kind elementKind
	switch c := l.src[l.pos]; {
	case c == '_' && l.pos+1 < l.end && l.src[l.pos+1] == '(':
		kind = elementTranslated
		l.pos += 2
		if l.pos == l.end || !isQuote(l.src[l.pos]) {
			panic(syntaxError(ast.Span{Start: start, End: l.end}, "Expected a complete translation string", "here"))
		}
		end, ok := closingQuote(l.src[:l.end], l.pos)
		if !ok || end+1 >= l.end || l.src[end+1] != ')' {
			panic(syntaxError(ast.Span{Start: start, End: l.end}, "Expected a complete translation string", "here"))
		}
		l.pos = end + 2
	case isQuote(c):
		kind = elementText
		end, ok := closingQuote(l.src[:l.end], l.pos)
		if !ok {
			panic(syntaxError(ast.Span{Start: start, End: l.end}, "Expected a complete string literal", "here"))
		}
		l.pos = end + 1
	case isDigit(c) || c == '-':
		kind = elementNumeric
		l.pos = l.runEnd(l.pos)
	default:
		kind = elementVariable
		l.pos = l.runEnd(l.pos)
	}
	if kind == elementText || kind == elementTranslated {
		if l.pos < l.end && l.src[l.pos] == '|' {
			l.pos = l.runEnd(l.pos)
		} else if l.pos < l.end && !isSpace(l.src[l.pos]) {
			panic(syntaxError(ast.Span{Start: l.pos, End: l.nextSpace(l.pos)}, "Could not parse the remainder", "here"))
		}
	}
	if l.kwargs && kind != elementText && kind != elementTranslated {
		if i := unquotedIndex(l.src[start:l.pos], '='); i >= 0 {
			panic(syntaxError(ast.Span{Start: start + i, End: l.pos}, "Could not parse the remainder", "here"))
		}
	}
	return element{kind: kind, span: ast.Span{Start: start, End: l.pos}}
}

// runEnd returns the index of the first white space, not within quotes,
// starting from index i.
func (l *tagLexer) runEnd(i int) int {
	for i < l.end {
		c := l.src[i]
		if isSpace(c) {
			break
		}
		if isQuote(c) {
			end, ok := closingQuote(l.src[:l.end], i)
			if !ok {
				return l.end
			}
			i = end
		}
		i++
	}
	return i
}

// nextSpace returns the index of the first white space starting from index
// i, or the end of the content.
func (l *tagLexer) nextSpace(i int) int {
	if n := strings.IndexFunc(l.src[i:l.end], isSpaceRune); n >= 0 {
		return i + n
	}
	return l.end
}

// closingQuote returns the index of the quote that closes the quote at
// index i of s. A backslash escapes the following character.
func closingQuote(s string, i int) (int, bool) {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j, true
		}
	}
	return 0, false
}

// unquotedIndex returns the index of the first instance of c in s that is
// not within quotes, or -1 if there is none.
func unquotedIndex(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case c:
			return i
		case '\'', '"':
			end, ok := closingQuote(s, i)
			if !ok {
				return -1
			}
			i = end
		}
	}
	return -1
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// isVariableByte reports whether c can be part of a variable name.
func isVariableByte(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '_'
}
