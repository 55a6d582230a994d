// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

import (
	"strings"

	"github.com/open2b/dtl/native"
)

// Block node represents a tag {% block name %}...{% endblock %}.
type Block struct {
	Span          // position in the source.
	Name   string // name.
	Body   []Node // body.
	Path   string // path of the template that declares the block.
	Source string // source of the template that declares the block.
}

// NewBlock returns a new Block node.
func NewBlock(span Span, name string, body []Node) *Block {
	return &Block{Span: span, Name: name, Body: body}
}

// String returns the string representation of n.
func (n *Block) String() string {
	return "{% block " + n.Name + " %}"
}

// Extends node represents a tag {% extends ... %}.
type Extends struct {
	Span                   // position in the source.
	Name *FilterExpression // name of the parent template.

	// Path is the path of the parent template when the name is a string
	// literal, otherwise it is empty and the parent is resolved when
	// rendering.
	Path string

	// Tree is the parent template tree. It is nil if the name is not a
	// string literal.
	Tree *Tree

	// Nodes are the nodes that follow the extends tag. Only the blocks
	// among them are rendered, in place of the blocks of the parent.
	Nodes []Node
}

// NewExtends returns a new Extends node.
func NewExtends(span Span, name *FilterExpression, path string) *Extends {
	return &Extends{Span: span, Name: name, Path: path}
}

// String returns the string representation of n.
func (n *Extends) String() string {
	return "{% extends " + n.Name.String() + " %}"
}

// Include node represents a tag {% include ... %}.
type Include struct {
	Span                     // position in the source.
	Name   *FilterExpression // name, or names, of the template to include.
	Path   string            // resolved path if Name is a string literal.
	With   []KeywordArg      // arguments after 'with'.
	Only   bool              // reports whether 'only' is present.
	Origin string            // path of the including template.
}

// NewInclude returns a new Include node.
func NewInclude(span Span, name *FilterExpression, path string, with []KeywordArg, only bool) *Include {
	return &Include{Span: span, Name: name, Path: path, With: with, Only: only}
}

// String returns the string representation of n.
func (n *Include) String() string {
	s := "{% include " + n.Name.String()
	if len(n.With) > 0 {
		s += " with"
		for _, kw := range n.With {
			s += " " + kw.String()
		}
	}
	if n.Only {
		s += " only"
	}
	return s + " %}"
}

// Now node represents a tag {% now "format" [as name] %}.
type Now struct {
	Span               // position in the source.
	Format string      // format.
	AsVar  *Identifier // name after 'as', nil if not present.
}

// NewNow returns a new Now node.
func NewNow(span Span, format string, asVar *Identifier) *Now {
	return &Now{span, format, asVar}
}

// String returns the string representation of n.
func (n *Now) String() string {
	s := "{% now \"" + n.Format + "\""
	if n.AsVar != nil {
		s += " as " + n.AsVar.Name
	}
	return s + " %}"
}

// LoremMethod represents the method of a lorem tag.
type LoremMethod int

const (
	LoremBlocks     LoremMethod = iota // b
	LoremWords                         // w
	LoremParagraphs                    // p
)

// String returns the letter of the method.
func (m LoremMethod) String() string {
	return [...]string{"b", "w", "p"}[m]
}

// Lorem node represents a tag {% lorem [count] [method] [random] %}.
type Lorem struct {
	Span                     // position in the source.
	Count  *FilterExpression // count, nil means one.
	Method LoremMethod       // method.
	Common bool              // reports whether the common text is used, it is false with 'random'.
}

// NewLorem returns a new Lorem node.
func NewLorem(span Span, count *FilterExpression, method LoremMethod, common bool) *Lorem {
	return &Lorem{span, count, method, common}
}

// String returns the string representation of n.
func (n *Lorem) String() string {
	s := "{% lorem"
	if n.Count != nil {
		s += " " + n.Count.String()
	}
	s += " " + n.Method.String()
	if !n.Common {
		s += " random"
	}
	return s + " %}"
}

// TemplateTag node represents a tag {% templatetag name %}.
type TemplateTag struct {
	Span        // position in the source.
	Text string // text of the delimiter.
}

// NewTemplateTag returns a new TemplateTag node.
func NewTemplateTag(span Span, text string) *TemplateTag {
	return &TemplateTag{span, text}
}

// String returns the text of n.
func (n *TemplateTag) String() string {
	return n.Text
}

// CsrfToken node represents a tag {% csrf_token %}.
type CsrfToken struct {
	Span // position in the source.
}

// NewCsrfToken returns a new CsrfToken node.
func NewCsrfToken(span Span) *CsrfToken {
	return &CsrfToken{span}
}

// String returns the string representation of n.
func (n *CsrfToken) String() string {
	return "{% csrf_token %}"
}

// Autoescape node represents a tag {% autoescape on|off %}.
type Autoescape struct {
	Span        // position in the source.
	On   bool   // reports whether autoescape is on.
	Body []Node // body.
}

// NewAutoescape returns a new Autoescape node.
func NewAutoescape(span Span, on bool, body []Node) *Autoescape {
	return &Autoescape{span, on, body}
}

// String returns the string representation of n.
func (n *Autoescape) String() string {
	if n.On {
		return "{% autoescape on %}"
	}
	return "{% autoescape off %}"
}

// Operator represents an operator in a condition of an if tag.
type Operator int

const (
	OperatorOr           Operator = iota // or
	OperatorAnd                          // and
	OperatorNot                          // not
	OperatorIn                           // in
	OperatorNotIn                        // not in
	OperatorEqual                        // ==
	OperatorNotEqual                     // !=
	OperatorLess                         // <
	OperatorLessEqual                    // <=
	OperatorGreater                      // >
	OperatorGreaterEqual                 // >=
	OperatorIs                           // is
	OperatorIsNot                        // is not
)

// String returns the string representation of the operator.
func (op Operator) String() string {
	return []string{"or", "and", "not", "in", "not in", "==", "!=", "<", "<=",
		">", ">=", "is", "is not"}[op]
}

// Condition node represents a condition of an if tag.
// It is implemented by FilterExpression, Unary and Binary.
type Condition interface {
	Node
	String() string
}

// Unary node represents the 'not' operator.
type Unary struct {
	Span           // position in the source.
	Op   Operator  // operator.
	Expr Condition // operand.
}

// NewUnary returns a new Unary node.
func NewUnary(span Span, op Operator, expr Condition) *Unary {
	return &Unary{span, op, expr}
}

// String returns the string representation of n.
func (n *Unary) String() string {
	return n.Op.String() + " " + n.Expr.String()
}

// Binary node represents a binary operator.
type Binary struct {
	Span            // position in the source.
	Op    Operator  // operator.
	Left  Condition // left operand.
	Right Condition // right operand.
}

// NewBinary returns a new Binary node.
func NewBinary(span Span, op Operator, left, right Condition) *Binary {
	return &Binary{span, op, left, right}
}

// String returns the string representation of n.
func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

// IfBranch is a branch of an if tag, introduced by 'if' or 'elif'.
type IfBranch struct {
	Cond Condition // condition.
	Body []Node    // body.
}

// If node represents a tag {% if %}...{% elif %}...{% else %}...{% endif %}.
type If struct {
	Span                 // position in the source.
	Branches []*IfBranch // 'if' and 'elif' branches.
	Else     []Node      // body of 'else', nil if there is no else.
}

// NewIf returns a new If node.
func NewIf(span Span, branches []*IfBranch, els []Node) *If {
	return &If{span, branches, els}
}

// String returns the string representation of n.
func (n *If) String() string {
	return "{% if " + n.Branches[0].Cond.String() + " %}"
}

// For node represents a tag {% for ... in ... %}...{% empty %}...{% endfor %}.
type For struct {
	Span                       // position in the source.
	Vars     []*Identifier     // loop variables.
	VarsSpan Span              // position of the loop variables.
	Iterable *FilterExpression // iterated expression.
	Reversed bool              // reports whether 'reversed' is present.
	Body     []Node            // body.
	Empty    []Node            // body of 'empty', nil if there is no empty.
}

// NewFor returns a new For node.
func NewFor(span Span, vars []*Identifier, iterable *FilterExpression, reversed bool, body, empty []Node) *For {
	n := &For{Span: span, Vars: vars, Iterable: iterable, Reversed: reversed, Body: body, Empty: empty}
	if len(vars) > 0 {
		n.VarsSpan = vars[0].Span.Cover(vars[len(vars)-1].Span)
	}
	return n
}

// String returns the string representation of n.
func (n *For) String() string {
	names := make([]string, len(n.Vars))
	for i, v := range n.Vars {
		names[i] = v.Name
	}
	s := "{% for " + strings.Join(names, ", ") + " in " + n.Iterable.String()
	if n.Reversed {
		s += " reversed"
	}
	return s + " %}"
}

// With node represents a tag {% with name=value ... %}...{% endwith %}.
type With struct {
	Span              // position in the source.
	Vars []KeywordArg // bindings.
	Body []Node       // body.
}

// NewWith returns a new With node.
func NewWith(span Span, vars []KeywordArg, body []Node) *With {
	return &With{span, vars, body}
}

// String returns the string representation of n.
func (n *With) String() string {
	s := "{% with"
	for _, kw := range n.Vars {
		s += " " + kw.String()
	}
	return s + " %}"
}

// URL node represents a tag {% url 'name' args... [as name] %}.
type URL struct {
	Span                       // position in the source.
	Name   *FilterExpression   // view name.
	Args   []*FilterExpression // positional arguments.
	Kwargs []KeywordArg        // keyword arguments.
	AsVar  *Identifier         // name after 'as', nil if not present.
}

// NewURL returns a new URL node.
func NewURL(span Span, name *FilterExpression, args []*FilterExpression, kwargs []KeywordArg, asVar *Identifier) *URL {
	return &URL{span, name, args, kwargs, asVar}
}

// String returns the string representation of n.
func (n *URL) String() string {
	return "{% url " + n.Name.String() + arguments(n.Args, n.Kwargs, n.AsVar) + " %}"
}

// SimpleTag node represents a call to a native.Tag registered by a library.
type SimpleTag struct {
	Span                       // position in the source.
	Tag    *native.Tag         // implementation.
	Args   []*FilterExpression // positional arguments.
	Kwargs []KeywordArg        // keyword arguments.
	AsVar  *Identifier         // name after 'as', nil if not present.
	Body   []Node              // body, only for block tags.
}

// NewSimpleTag returns a new SimpleTag node.
func NewSimpleTag(span Span, tag *native.Tag, args []*FilterExpression, kwargs []KeywordArg, asVar *Identifier, body []Node) *SimpleTag {
	return &SimpleTag{span, tag, args, kwargs, asVar, body}
}

// String returns the string representation of n.
func (n *SimpleTag) String() string {
	return "{% " + n.Tag.Name + arguments(n.Args, n.Kwargs, n.AsVar) + " %}"
}

// arguments returns the string representation of the arguments of a tag,
// with a leading space.
func arguments(args []*FilterExpression, kwargs []KeywordArg, asVar *Identifier) string {
	var b strings.Builder
	for _, arg := range args {
		b.WriteString(" ")
		b.WriteString(arg.String())
	}
	for _, kw := range kwargs {
		b.WriteString(" ")
		b.WriteString(kw.String())
	}
	if asVar != nil {
		b.WriteString(" as ")
		b.WriteString(asVar.Name)
	}
	return b.String()
}
