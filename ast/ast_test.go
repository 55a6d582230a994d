// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

import (
	"math/big"
	"testing"
)

func variable(start int, names ...string) *Variable {
	parts := make([]Part, len(names))
	end := start
	for i, name := range names {
		parts[i] = Part{Span{end, end + len(name)}, name}
		end += len(name) + 1
	}
	return NewVariable(Span{start, end - 1}, parts)
}

var n1 = NewInt(Span{}, big.NewInt(1))

var expressionStringTests = []struct {
	str  string
	expr Expression
}{
	{"1", n1},
	{"-3.5", NewFloat(Span{}, -3.5)},
	{`"abc"`, NewString(Span{}, "abc", false)},
	{`_("abc")`, NewString(Span{}, "abc", true)},
	{"a", variable(0, "a")},
	{"a.b.0", variable(0, "a", "b", "0")},
	{"block.super", NewBlockSuper(Span{})},
	{"a|upper", NewFilterExpression(Span{}, variable(0, "a"), []*Filter{{Name: "upper"}})},
	{`a|default:"x"|lower`, NewFilterExpression(Span{}, variable(0, "a"), []*Filter{
		{Name: "default", Arg: NewString(Span{}, "x", false)},
		{Name: "lower"},
	})},
}

func TestExpressionString(t *testing.T) {
	for _, e := range expressionStringTests {
		if e.expr.String() != e.str {
			t.Errorf("unexpected %q, expecting %q\n", e.expr.String(), e.str)
		}
	}
}

func TestConditionString(t *testing.T) {
	a := NewFilterExpression(Span{}, variable(0, "a"), nil)
	b := NewFilterExpression(Span{}, variable(0, "b"), nil)
	tests := []struct {
		str  string
		cond Condition
	}{
		{"not a", NewUnary(Span{}, OperatorNot, a)},
		{"(a and b)", NewBinary(Span{}, OperatorAnd, a, b)},
		{"(a not in b)", NewBinary(Span{}, OperatorNotIn, a, b)},
		{"(not a or (a is not b))", NewBinary(Span{}, OperatorOr, NewUnary(Span{}, OperatorNot, a), NewBinary(Span{}, OperatorIsNot, a, b))},
	}
	for _, test := range tests {
		if got := test.cond.String(); got != test.str {
			t.Errorf("unexpected %q, expecting %q", got, test.str)
		}
	}
}

func TestTagString(t *testing.T) {
	name := NewFilterExpression(Span{}, NewString(Span{}, "base.html", false), nil)
	tests := []struct {
		str  string
		node interface{ String() string }
	}{
		{`{% extends "base.html" %}`, NewExtends(Span{}, name, "base.html")},
		{`{% include "base.html" with a=1 only %}`, NewInclude(Span{}, name, "base.html",
			[]KeywordArg{{NewIdentifier(Span{}, "a"), NewFilterExpression(Span{}, n1, nil)}}, true)},
		{`{% now "Y-m-d" as today %}`, NewNow(Span{}, "Y-m-d", NewIdentifier(Span{}, "today"))},
		{"{% lorem 1 w random %}", NewLorem(Span{}, NewFilterExpression(Span{}, n1, nil), LoremWords, false)},
		{"{% lorem p %}", NewLorem(Span{}, nil, LoremParagraphs, true)},
		{"{% autoescape off %}", NewAutoescape(Span{}, false, nil)},
		{"{% for k, v in a reversed %}", NewFor(Span{}, []*Identifier{NewIdentifier(Span{}, "k"), NewIdentifier(Span{}, "v")},
			NewFilterExpression(Span{}, variable(0, "a"), nil), true, nil, nil)},
		{"{% block content %}", NewBlock(Span{}, "content", nil)},
	}
	for _, test := range tests {
		if got := test.node.String(); got != test.str {
			t.Errorf("unexpected %q, expecting %q", got, test.str)
		}
	}
}

func TestPositionOf(t *testing.T) {
	src := "abc\ndèf {{ x }}\n"
	tests := []struct {
		span     Span
		expected string
	}{
		{Span{0, 1}, "1:1"},
		{Span{3, 4}, "1:4"},
		{Span{4, 5}, "2:1"},
		{Span{9, 16}, "2:5"},
		{Span{len(src), len(src)}, "3:1"},
		{Span{100, 100}, "3:1"},
	}
	for _, test := range tests {
		if got := PositionOf(src, test.span).String(); got != test.expected {
			t.Errorf("span %s: unexpected position %s, expecting %s", test.span, got, test.expected)
		}
	}
}

func TestSpan(t *testing.T) {
	s := Span{5, 10}
	if s.Len() != 5 {
		t.Fatalf("unexpected length %d", s.Len())
	}
	if c := s.Cover(Span{2, 7}); c != (Span{2, 10}) {
		t.Fatalf("unexpected cover %s", c)
	}
	if c := s.Cover(Span{7, 12}); c != (Span{5, 12}) {
		t.Fatalf("unexpected cover %s", c)
	}
	if At(3, 4) != (Span{3, 7}) {
		t.Fatalf("unexpected span %s", At(3, 4))
	}
}
