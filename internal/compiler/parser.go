// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compiler implements methods to parse a template source, with its
// tags and filter expressions, and to compose a parsed tree with the trees of
// the templates it extends.
package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/diagnostic"
	"github.com/open2b/dtl/native"
)

// Reader is implemented by values that read the sources of the templates.
type Reader interface {
	// Read returns the source of the template with the given name. If the
	// template does not exist, the returned error should be a
	// *loader.TemplateDoesNotExist error. The error is returned unchanged by
	// the parsing functions.
	Read(name string) (string, error)
}

// SyntaxError records a parsing error with the path and the source of the
// template in which the error occurred.
type SyntaxError struct {
	Path       string
	Source     string
	Diagnostic *diagnostic.Diagnostic
}

func (e *SyntaxError) Error() string {
	pos := ast.PositionOf(e.Source, e.Diagnostic.Span())
	return fmt.Sprintf("%s:%s: syntax error: %s", e.Path, pos, e.Diagnostic.Message)
}

// syntaxError returns a syntax error with the given message and a label
// on span.
func syntaxError(span ast.Span, message, label string) *SyntaxError {
	return &SyntaxError{Diagnostic: diagnostic.New(message, span, label)}
}

// syntaxErrorf is like syntaxError but formats the message according to a
// format specifier.
func syntaxErrorf(span ast.Span, label, format string, a ...any) *SyntaxError {
	return syntaxError(span, fmt.Sprintf(format, a...), label)
}

// withLabel adds a label to the diagnostic of e and returns e.
func (e *SyntaxError) withLabel(span ast.Span, label string) *SyntaxError {
	e.Diagnostic.WithLabel(span, label)
	return e
}

// withHelp sets the help of the diagnostic of e and returns e.
func (e *SyntaxError) withHelp(help string) *SyntaxError {
	e.Diagnostic.WithHelp(help)
	return e
}

// hostError is an error returned by a library loader. It is returned
// unchanged by the parsing functions.
type hostError struct {
	err error
}

// endTags are the end tags of the builtin tags, and the intermediate tags
// as 'else' and 'empty'.
var endTags = []string{"endautoescape", "endverbatim", "elif", "else", "endif",
	"empty", "endfor", "endwith", "endblock", "endcomment"}

// parsing is a parsing state.
type parsing struct {

	// Lexer.
	lex *lexer

	// Source and path of the template. Path is empty if the template has
	// no origin.
	src    string
	path   string
	origin bool

	// Registry and the filters and tags loaded with the load tag.
	registry *Registry
	filters  map[string]*native.Filter
	tags     map[string]*native.Tag

	// Blocks declared in the template and the depth of the current block.
	blocks  map[string]*ast.Block
	inBlock int

	// Extends node, nil if the template does not extend another template.
	extends *ast.Extends

	// Span of the first variable or block tag.
	first *ast.Span
}

// newParsing returns a new parsing state for the source src with the given
// path. origin reports whether the template has an origin.
func newParsing(src, path string, origin bool, registry *Registry) *parsing {
	if registry == nil {
		registry = &Registry{}
	}
	return &parsing{
		lex:      scanTemplate(src),
		src:      src,
		path:     path,
		origin:   origin,
		registry: registry,
		filters:  map[string]*native.Filter{},
		tags:     map[string]*native.Tag{},
		blocks:   map[string]*ast.Block{},
	}
}

// ParseSource parses src and returns a tree. path is the path of the
// template, empty if origin is false. The parent template of an Extends
// node is not parsed and the Extends node has no tree. To get a composed
// tree call ParseTemplate or ComposeSource.
func ParseSource(src, path string, origin bool, registry *Registry) (tree *ast.Tree, err error) {

	p := newParsing(src, path, origin, registry)

	defer func() {
		p.lex.Stop()
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *SyntaxError:
				e.Path = path
				e.Source = src
				err = e
			case *hostError:
				err = e.err
			default:
				panic(r)
			}
			tree = nil
		}
	}()

	nodes, _ := p.parseNodes(nil, "", ast.Span{})

	tree = ast.NewTree(path, src, nodes)
	tree.Extends = p.extends
	tree.Blocks = make(map[string][]*ast.Block, len(p.blocks))
	for name, block := range p.blocks {
		tree.Blocks[name] = []*ast.Block{block}
	}

	return tree, nil
}

// filter returns the filter with the given name, nil if it does not exist.
// Loaded filters take precedence over builtin filters.
func (p *parsing) filter(name string) *native.Filter {
	if f, ok := p.filters[name]; ok {
		return f
	}
	return p.registry.Builtins.Filter(name)
}

// tag returns the simple tag with the given name, nil if it does not exist.
func (p *parsing) tag(name string) *native.Tag {
	if t, ok := p.tags[name]; ok {
		return t
	}
	return p.registry.Builtins.Tag(name)
}

// isEndTag reports whether name is the name of an end tag.
func (p *parsing) isEndTag(name string) bool {
	if slices.Contains(endTags, name) {
		return true
	}
	for _, t := range p.tags {
		if t.Block && t.End() == name {
			return true
		}
	}
	if p.registry.Builtins != nil {
		for _, t := range p.registry.Builtins.Tags {
			if t.Block && t.End() == name {
				return true
			}
		}
	}
	return false
}

// parseNodes parses the nodes until one of the end tags in until and
// returns the nodes and the end tag. If until is nil, it parses the nodes
// until the end of the source. start and startSpan are the name and the
// span of the tag that opened the nodes.
func (p *parsing) parseNodes(until []string, start string, startSpan ast.Span) ([]ast.Node, tag) {

	var nodes []ast.Node

	for tok := range p.lex.Tokens() {

		switch tok.typ {

		case tokenText:
			nodes = append(nodes, ast.NewText(tok.span, tok.txt))

		case tokenComment:

		case tokenVariable:
			p.setFirst(tok.span)
			if tok.txt == "" {
				panic(syntaxError(tok.span, "Empty variable tag", "here"))
			}
			expr := p.parseFilterExpression(tok.content)
			nodes = append(nodes, ast.NewOutput(tok.span, expr))

		case tokenBlock:
			t := lexTag(tok)
			if p.isEndTag(t.name) {
				if slices.Contains(until, t.name) {
					return nodes, t
				}
				if until == nil {
					panic(syntaxError(t.span, "Unexpected tag "+t.name, "unexpected tag"))
				}
				panic(syntaxError(t.span, "Unexpected tag "+t.name+", expected "+strings.Join(until, ", "), "unexpected tag").
					withLabel(startSpan, "start tag"))
			}
			if t.name != "extends" && t.name != "comment" {
				p.setFirst(tok.span)
			}
			node := p.parseTag(t)
			if node == nil {
				continue
			}
			if ext, ok := node.(*ast.Extends); ok {
				var end tag
				ext.Nodes, end = p.parseNodes(until, start, startSpan)
				nodes = append(nodes, ext)
				return nodes, end
			}
			nodes = append(nodes, node)

		case tokenEOF:
			if until != nil {
				panic(syntaxErrorf(startSpan, "started here", "Unclosed '%s' tag. Looking for one of: %s",
					start, strings.Join(until, ", ")))
			}
			return nodes, tag{}

		}

	}

	panic(p.lex.err)
}

// setFirst sets the span of the first variable or block tag, if it has not
// already been set.
func (p *parsing) setFirst(span ast.Span) {
	if p.first == nil {
		p.first = &span
	}
}

// parseTag parses a block tag. It returns a nil node for tags that do not
// produce a node.
func (p *parsing) parseTag(t tag) ast.Node {
	switch t.name {
	case "autoescape":
		return p.parseAutoescape(t)
	case "block":
		return p.parseBlock(t)
	case "comment":
		p.parseComment(t)
		return nil
	case "csrf_token":
		return ast.NewCsrfToken(t.span)
	case "extends":
		return p.parseExtends(t)
	case "for":
		return p.parseFor(t)
	case "if":
		return p.parseIf(t)
	case "include":
		return p.parseInclude(t)
	case "load":
		p.parseLoad(t)
		return nil
	case "lorem":
		return p.parseLorem(t)
	case "now":
		return p.parseNow(t)
	case "templatetag":
		return p.parseTemplateTag(t)
	case "url":
		return p.parseURL(t)
	case "verbatim":
		return p.parseVerbatim(t)
	case "with":
		return p.parseWith(t)
	}
	if st := p.tag(t.name); st != nil {
		return p.parseSimpleTag(st, t)
	}
	panic(syntaxErrorf(t.at, "here", "Invalid block tag: '%s'", t.name).
		withHelp("Did you forget to register or load this tag?"))
}
