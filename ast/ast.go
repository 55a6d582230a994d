// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast declares the types used to define template trees.
//
// For example, the source in a template file named "articles.html":
//
//	{% for article in articles %}<div>{{ article.title|upper }}</div>{% endfor %}
//
// is represented with the tree:
//
//	ast.NewTree("articles.html", src, []ast.Node{
//		ast.NewFor(
//			ast.Span{Start: 0, End: 29},
//			[]*ast.Identifier{ast.NewIdentifier(ast.Span{Start: 7, End: 14}, "article")},
//			ast.NewFilterExpression(ast.Span{Start: 18, End: 26},
//				ast.NewVariable(ast.Span{Start: 18, End: 26}, []ast.Part{{Span: ast.Span{Start: 18, End: 26}, Name: "articles"}}), nil),
//			false,
//			[]ast.Node{
//				ast.NewText(ast.Span{Start: 29, End: 34}, "<div>"),
//				ast.NewOutput(ast.Span{Start: 34, End: 61}, ...),
//				ast.NewText(ast.Span{Start: 61, End: 67}, "</div>"),
//			},
//			nil,
//		),
//	})
package ast

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/open2b/dtl/native"
)

// Node is a node of the tree.
type Node interface {
	Pos() Span // position in the original source
}

// Span is a range of bytes in the source of a template.
type Span struct {
	Start int // index of the first byte
	End   int // index of the byte following the last byte
}

// Pos returns the span s.
func (s Span) Pos() Span {
	return s
}

// Len returns the length in bytes of the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Cover returns the smallest span that contains both s and o.
func (s Span) Cover(o Span) Span {
	if o.Start < s.Start {
		s.Start = o.Start
	}
	if o.End > s.End {
		s.End = o.End
	}
	return s
}

// String returns the span as "start:end", for example "12:18".
func (s Span) String() string {
	return strconv.Itoa(s.Start) + ":" + strconv.Itoa(s.End)
}

// At returns a span that starts at start and has length n.
func At(start, n int) Span {
	return Span{Start: start, End: start + n}
}

// Position is a position of a byte in the source, with line and column.
type Position struct {
	Line   int // line starting from 1
	Column int // column in characters starting from 1
	Start  int // index of the first byte
	End    int // index of the byte following the last byte
}

// String returns the line and column separated by a colon, for example "37:18".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// PositionOf returns the position, in src, of the span s.
func PositionOf(src string, s Span) Position {
	if s.Start > len(src) {
		s.Start = len(src)
	}
	line := 1 + strings.Count(src[:s.Start], "\n")
	lineStart := strings.LastIndexByte(src[:s.Start], '\n') + 1
	column := 1 + len([]rune(src[lineStart:s.Start]))
	return Position{Line: line, Column: column, Start: s.Start, End: s.End}
}

// Tree node represents a template tree.
type Tree struct {
	Path    string   // path of the template, empty for templates compiled from a string.
	Source  string   // source of the template.
	Nodes   []Node   // nodes of the first level of the tree.
	Extends *Extends // extends node, nil if the template does not extend another template.

	// Blocks contains, for each block name, the blocks with that name in the
	// template and in its ancestors, from the most derived to the least
	// derived. A {{ block.super }} in Blocks[name][i] renders
	// Blocks[name][i+1]. It is composed when the tree is compiled if the
	// parent template is a string literal.
	Blocks map[string][]*Block
}

// NewTree returns a new Tree node.
func NewTree(path, src string, nodes []Node) *Tree {
	return &Tree{Path: path, Source: src, Nodes: nodes}
}

// Pos returns the span of the whole source.
func (n *Tree) Pos() Span {
	return Span{Start: 0, End: len(n.Source)}
}

// Text node represents a text in the source.
type Text struct {
	Span        // position in the source.
	Text string // text.
}

// NewText returns a new Text node.
func NewText(span Span, text string) *Text {
	return &Text{span, text}
}

// String returns the text of n.
func (n *Text) String() string {
	return n.Text
}

// Output node represents a variable tag {{ ... }}.
type Output struct {
	Span                   // position in the source.
	Expr *FilterExpression // expression to output.
}

// NewOutput returns a new Output node.
func NewOutput(span Span, expr *FilterExpression) *Output {
	return &Output{span, expr}
}

// String returns the string representation of n.
func (n *Output) String() string {
	return "{{ " + n.Expr.String() + " }}"
}

// Expression node represents an expression.
type Expression interface {
	Node
	String() string
}

// String node represents a string literal.
type String struct {
	Span              // position in the source.
	Text       string // text without the quotes.
	Translated bool   // reports whether it is a translated literal _('...').
}

// NewString returns a new String node.
func NewString(span Span, text string, translated bool) *String {
	return &String{span, text, translated}
}

// String returns the string representation of n.
func (n *String) String() string {
	if n.Translated {
		return "_(" + strconv.Quote(n.Text) + ")"
	}
	return strconv.Quote(n.Text)
}

// Int node represents an integer literal.
type Int struct {
	Span           // position in the source.
	Value *big.Int // value.
}

// NewInt returns a new Int node.
func NewInt(span Span, value *big.Int) *Int {
	return &Int{span, value}
}

// String returns the string representation of n.
func (n *Int) String() string {
	return n.Value.String()
}

// Float node represents a floating-point literal.
type Float struct {
	Span          // position in the source.
	Value float64 // value.
}

// NewFloat returns a new Float node.
func NewFloat(span Span, value float64) *Float {
	return &Float{span, value}
}

// String returns the string representation of n.
func (n *Float) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// Part is a part of a variable path.
type Part struct {
	Span        // position in the source.
	Name string // name or index.
}

// Variable node represents a variable with an optional dotted path, as in
// "article.author.name" or "items.0".
type Variable struct {
	Span         // position in the source.
	Parts []Part // parts of the path.
}

// NewVariable returns a new Variable node.
func NewVariable(span Span, parts []Part) *Variable {
	return &Variable{span, parts}
}

// String returns the string representation of n.
func (n *Variable) String() string {
	var b strings.Builder
	for i, p := range n.Parts {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(p.Name)
	}
	return b.String()
}

// BlockSuper node represents the {{ block.super }} variable in a block.
type BlockSuper struct {
	Span // position in the source.
}

// NewBlockSuper returns a new BlockSuper node.
func NewBlockSuper(span Span) *BlockSuper {
	return &BlockSuper{span}
}

// String returns the string representation of n.
func (n *BlockSuper) String() string {
	return "block.super"
}

// Filter represents a filter applied in a filter expression.
type Filter struct {
	Span                  // position of the filter name in the source.
	Name   string         // name.
	Arg    Expression     // argument, nil if there is no argument.
	Filter *native.Filter // implementation.
}

// String returns the string representation of n.
func (n *Filter) String() string {
	if n.Arg == nil {
		return n.Name
	}
	return n.Name + ":" + n.Arg.String()
}

// FilterExpression node represents an expression with zero or more filters,
// as in "name|lower|default:'anonymous'".
type FilterExpression struct {
	Span               // position in the source.
	Base    Expression // base expression.
	Filters []*Filter  // filters, in the order they are applied.
}

// NewFilterExpression returns a new FilterExpression node.
func NewFilterExpression(span Span, base Expression, filters []*Filter) *FilterExpression {
	return &FilterExpression{span, base, filters}
}

// String returns the string representation of n.
func (n *FilterExpression) String() string {
	s := n.Base.String()
	for _, f := range n.Filters {
		s += "|" + f.String()
	}
	return s
}

// Identifier node represents a name bound by a tag, as the loop variables of
// a for tag or the name after 'as'.
type Identifier struct {
	Span        // position in the source.
	Name string // name.
}

// NewIdentifier returns a new Identifier node.
func NewIdentifier(span Span, name string) *Identifier {
	return &Identifier{span, name}
}

// String returns the name of n.
func (n *Identifier) String() string {
	return n.Name
}

// KeywordArg represents a keyword argument "name=value".
type KeywordArg struct {
	Name  *Identifier       // name.
	Value *FilterExpression // value.
}

// String returns the string representation of the keyword argument.
func (k KeywordArg) String() string {
	return k.Name.Name + "=" + k.Value.String()
}

// ComposeBlocks returns the blocks of a template that extends a template
// whose blocks are parent. blocks are the blocks of the extending template.
// The given maps and slices are not modified.
func ComposeBlocks(blocks, parent map[string][]*Block) map[string][]*Block {
	composed := make(map[string][]*Block, len(blocks)+len(parent))
	for name, chain := range blocks {
		composed[name] = chain
	}
	for name, chain := range parent {
		c := make([]*Block, 0, len(composed[name])+len(chain))
		c = append(c, composed[name]...)
		composed[name] = append(c, chain...)
	}
	return composed
}
