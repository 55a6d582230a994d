// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"github.com/open2b/dtl/ast"
)

// condTokenKind is the kind of a token of a condition.
type condTokenKind int

const (
	condAtom     condTokenKind = iota // operand
	condNot                           // not
	condOperator                      // binary operator
)

// condToken is a token of the condition of an if or elif tag.
type condToken struct {
	kind condTokenKind
	op   ast.Operator
	el   element
	span ast.Span
}

// binaryOperators are the binary operators, not in and is not excluded.
var binaryOperators = map[string]ast.Operator{
	"or":  ast.OperatorOr,
	"and": ast.OperatorAnd,
	"in":  ast.OperatorIn,
	"==":  ast.OperatorEqual,
	"!=":  ast.OperatorNotEqual,
	"<":   ast.OperatorLess,
	"<=":  ast.OperatorLessEqual,
	">":   ast.OperatorGreater,
	">=":  ast.OperatorGreaterEqual,
	"is":  ast.OperatorIs,
}

// notBindingPower is the binding power of the not operator.
const notBindingPower = 8

// bindingPower returns the binding power of the binary operator op.
func bindingPower(op ast.Operator) int {
	switch op {
	case ast.OperatorOr:
		return 6
	case ast.OperatorAnd:
		return 7
	case ast.OperatorIn, ast.OperatorNotIn:
		return 9
	}
	return 10
}

// lexCondition lexes the condition in the arguments of the tag t.
func (p *parsing) lexCondition(t tag) []condToken {
	var tokens []condToken
	l := newTagLexer(p.src, t.parts, false)
	for {
		el, ok := l.nextElement()
		if !ok {
			return tokens
		}
		tok := condToken{kind: condAtom, el: el, span: el.span}
		if el.kind == elementVariable {
			s := p.text(el.span)
			if s == "not" {
				tok.kind = condNot
			} else if op, ok := binaryOperators[s]; ok {
				tok.kind = condOperator
				tok.op = op
			}
		}
		if n := len(tokens); n > 0 {
			prev := &tokens[n-1]
			switch {
			case prev.kind == condNot && tok.kind == condOperator && tok.op == ast.OperatorIn:
				prev.kind = condOperator
				prev.op = ast.OperatorNotIn
				prev.span = prev.span.Cover(tok.span)
				continue
			case prev.kind == condOperator && prev.op == ast.OperatorIs && tok.kind == condNot:
				prev.op = ast.OperatorIsNot
				prev.span = prev.span.Cover(tok.span)
				continue
			}
		}
		tokens = append(tokens, tok)
	}
}

// conditionParser is a Pratt parser of conditions.
type conditionParser struct {
	p      *parsing
	tokens []condToken
	i      int
}

// parseCondition parses the condition of the if or elif tag t.
func (p *parsing) parseCondition(t tag) ast.Condition {
	tokens := p.lexCondition(t)
	if len(tokens) == 0 {
		panic(syntaxError(t.span, "Missing boolean expression", "here"))
	}
	c := &conditionParser{p: p, tokens: tokens}
	return c.parse(0, t.span)
}

// parse parses a condition with operators with a binding power greater
// than minPower. after is the position of the preceding token.
func (c *conditionParser) parse(minPower int, after ast.Span) ast.Condition {
	if c.i == len(c.tokens) {
		panic(syntaxError(after, "Unexpected end of expression", "after this"))
	}
	tok := c.tokens[c.i]
	c.i++
	var lhs ast.Condition
	switch tok.kind {
	case condAtom:
		lhs = c.p.parseElement(tok.el)
	case condNot:
		expr := c.parse(notBindingPower, tok.span)
		lhs = ast.NewUnary(tok.span.Cover(expr.Pos()), ast.OperatorNot, expr)
	default:
		panic(syntaxErrorf(tok.span, "here", "Not expecting '%s' in this position", c.p.text(tok.span)))
	}
	for c.i < len(c.tokens) {
		tok := c.tokens[c.i]
		if tok.kind != condOperator {
			panic(syntaxErrorf(tok.span, "here", "Unused expression '%s' in if tag", c.p.text(tok.span)))
		}
		power := bindingPower(tok.op)
		if power <= minPower {
			break
		}
		c.i++
		rhs := c.parse(power, tok.span)
		lhs = ast.NewBinary(lhs.Pos().Cover(rhs.Pos()), tok.op, lhs, rhs)
	}
	return lhs
}
