// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"fmt"
	"slices"

	"github.com/open2b/dtl/ast"
)

// renderIf renders the body of the first branch of n whose condition is
// true or, if there is none, the else body.
func (s *state) renderIf(w strWriter, n *ast.If) error {
	for _, branch := range n.Branches {
		if ok, _ := s.test(branch.Cond); ok {
			return s.renderNodes(w, branch.Body)
		}
	}
	return s.renderNodes(w, n.Else)
}

// test evaluates the condition cond. evaluated is false if the evaluation
// failed, in which case the condition is false.
func (s *state) test(cond ast.Condition) (result, evaluated bool) {
	switch c := cond.(type) {
	case *ast.FilterExpression:
		v, err := s.eval(c)
		if err != nil {
			return false, false
		}
		if isMissing(v) {
			return false, true
		}
		t, err := Truth(v)
		return t, err == nil
	case *ast.Unary:
		t, ok := s.test(c.Expr)
		return ok && !t, true
	case *ast.Binary:
		switch c.Op {
		case ast.OperatorOr:
			left, ok := s.test(c.Left)
			if !ok {
				return false, true
			}
			if left {
				return true, true
			}
			right, _ := s.test(c.Right)
			return right, true
		case ast.OperatorAnd:
			if left, _ := s.test(c.Left); !left {
				return false, true
			}
			right, _ := s.test(c.Right)
			return right, true
		}
		left, err := s.operand(c.Left)
		if err != nil {
			return false, true
		}
		right, err := s.operand(c.Right)
		if err != nil {
			return false, true
		}
		return compareOperands(c.Op, left, right), true
	}
	panic(fmt.Sprintf("dtl: unexpected condition %T", cond))
}

// operand returns the value of an operand of a comparison. The value of a
// variable that cannot be resolved is nil.
func (s *state) operand(cond ast.Condition) (any, error) {
	if expr, ok := cond.(*ast.FilterExpression); ok {
		v, err := s.eval(expr)
		if err != nil {
			return nil, err
		}
		return Plain(v), nil
	}
	t, _ := s.test(cond)
	return t, nil
}

// compareOperands applies the comparison operator op to left and right.
func compareOperands(op ast.Operator, left, right any) bool {
	switch op {
	case ast.OperatorEqual:
		return equal(left, right)
	case ast.OperatorNotEqual:
		return !equal(left, right)
	case ast.OperatorLess:
		c, ok := order(left, right)
		return ok && c < 0
	case ast.OperatorLessEqual:
		c, ok := order(left, right)
		return ok && c <= 0
	case ast.OperatorGreater:
		c, ok := order(left, right)
		return ok && c > 0
	case ast.OperatorGreaterEqual:
		c, ok := order(left, right)
		return ok && c >= 0
	case ast.OperatorIn:
		found, _ := contains(right, left)
		return found
	case ast.OperatorNotIn:
		found, supported := contains(right, left)
		return supported && !found
	case ast.OperatorIs:
		return identical(left, right)
	case ast.OperatorIsNot:
		return !identical(left, right)
	}
	panic(fmt.Sprintf("dtl: unexpected operator %s", op))
}

// renderFor renders a for tag.
func (s *state) renderFor(w strWriter, n *ast.For) error {
	v, err := s.eval(n.Iterable)
	if err != nil {
		return err
	}
	if v == nil || isMissing(v) {
		return s.renderNodes(w, n.Empty)
	}
	items, ok, err := Iter(v)
	if err != nil {
		return s.nativeError(err, n.Iterable.Span, "here")
	}
	if !ok {
		return s.errorf(ErrType, n.Iterable.Span, "here", "'%s' object is not iterable", TypeName(v))
	}
	if len(items) == 0 {
		return s.renderNodes(w, n.Empty)
	}
	if n.Reversed {
		items = slices.Clone(items)
		slices.Reverse(items)
	}
	parent, ok := s.vars.Get("forloop")
	if !ok {
		parent = map[string]any{}
	}
	loop := &forLoop{parent: parent, length: len(items)}
	s.vars.push(map[string]any{})
	defer s.vars.pop()
	for i, item := range items {
		if err := s.canceled(); err != nil {
			return err
		}
		loop.i = i
		s.vars.Set("forloop", loop)
		if len(n.Vars) == 1 {
			s.vars.Set(n.Vars[0].Name, item)
		} else if err := s.unpack(n, item); err != nil {
			return err
		}
		if err := s.renderNodes(w, n.Body); err != nil {
			return err
		}
	}
	return nil
}

// unpack sets the loop variables of n to the elements of item.
func (s *state) unpack(n *ast.For, item any) error {
	values, ok, err := Iter(item)
	if err != nil {
		return s.nativeError(err, n.Iterable.Span, "while unpacking this")
	}
	count := len(values)
	if !ok {
		count = 1
	}
	if count != len(n.Vars) {
		e := s.errorf(ErrValue, n.VarsSpan, "unpacked here", "Need %d values to unpack; got %d.", len(n.Vars), count)
		e.Diagnostic.WithLabel(n.Iterable.Span, "from here")
		return e
	}
	for i, name := range n.Vars {
		s.vars.Set(name.Name, values[i])
	}
	return nil
}

// forLoop is the value of the 'forloop' variable.
type forLoop struct {
	parent any // 'forloop' of the enclosing loop, an empty map if there is none
	i      int
	length int
}

func (l *forLoop) Attr(name string) (any, bool, error) {
	switch name {
	case "counter":
		return l.i + 1, true, nil
	case "counter0":
		return l.i, true, nil
	case "revcounter":
		return l.length - l.i, true, nil
	case "revcounter0":
		return l.length - l.i - 1, true, nil
	case "first":
		return l.i == 0, true, nil
	case "last":
		return l.i == l.length-1, true, nil
	case "parentloop":
		return l.parent, true, nil
	}
	return nil, false, nil
}

func (l *forLoop) Repr() (string, error) {
	parent, err := Repr(l.parent)
	if err != nil {
		return "", err
	}
	first, _ := Repr(l.i == 0)
	last, _ := Repr(l.i == l.length-1)
	return fmt.Sprintf("{'parentloop': %s, 'counter0': %d, 'counter': %d, 'revcounter': %d, 'revcounter0': %d, 'first': %s, 'last': %s}",
		parent, l.i, l.i+1, l.length-l.i, l.length-l.i-1, first, last), nil
}

func (l *forLoop) TemplateString() (string, error) {
	return l.Repr()
}

// renderWith renders a with tag.
func (s *state) renderWith(w strWriter, n *ast.With) error {
	scope := make(map[string]any, len(n.Vars))
	for _, kw := range n.Vars {
		v, err := s.eval(kw.Value)
		if err != nil {
			return err
		}
		if isMissing(v) {
			v = s.opts.StringIfInvalid
		}
		scope[kw.Name.Name] = v
	}
	s.vars.push(scope)
	err := s.renderNodes(w, n.Body)
	s.vars.pop()
	return err
}
