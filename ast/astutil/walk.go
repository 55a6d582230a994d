// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package astutil

import (
	"fmt"

	"github.com/open2b/dtl/ast"
)

// Visitor's visit method is invoked for every node encountered by Walk.
type Visitor interface {
	Visit(node ast.Node) (w Visitor)
}

// Walk visits a tree in depth. Initially it calls v.Visit(node),
// where node must not be nil. If the value w returned by v.Visit(node)
// is different from nil, Walk is called recursively using w as the Visitor
// on all children other than nil of the tree. Finally, call w.Visit(nil).
func Walk(v Visitor, node ast.Node) {

	if v == nil {
		panic("v can't be nil")
	}

	if node == nil {
		panic("node can't be nil")
	}

	v = v.Visit(node)

	if v == nil {
		return
	}

	switch n := node.(type) {

	case *ast.Tree:
		walkNodes(v, n.Nodes)

	case *ast.Output:
		Walk(v, n.Expr)

	case *ast.FilterExpression:
		Walk(v, n.Base)
		for _, f := range n.Filters {
			if f.Arg != nil {
				Walk(v, f.Arg)
			}
		}

	case *ast.Block:
		walkNodes(v, n.Body)

	case *ast.Extends:
		Walk(v, n.Name)
		walkNodes(v, n.Nodes)

	case *ast.Include:
		Walk(v, n.Name)
		walkKeywords(v, n.With)

	case *ast.Lorem:
		if n.Count != nil {
			Walk(v, n.Count)
		}

	case *ast.Autoescape:
		walkNodes(v, n.Body)

	case *ast.If:
		for _, branch := range n.Branches {
			Walk(v, branch.Cond)
			walkNodes(v, branch.Body)
		}
		walkNodes(v, n.Else)

	case *ast.Unary:
		Walk(v, n.Expr)

	case *ast.Binary:
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *ast.For:
		for _, ident := range n.Vars {
			Walk(v, ident)
		}
		Walk(v, n.Iterable)
		walkNodes(v, n.Body)
		walkNodes(v, n.Empty)

	case *ast.With:
		walkKeywords(v, n.Vars)
		walkNodes(v, n.Body)

	case *ast.URL:
		Walk(v, n.Name)
		for _, arg := range n.Args {
			Walk(v, arg)
		}
		walkKeywords(v, n.Kwargs)

	case *ast.SimpleTag:
		for _, arg := range n.Args {
			Walk(v, arg)
		}
		walkKeywords(v, n.Kwargs)
		walkNodes(v, n.Body)

	case *ast.Text, *ast.String, *ast.Int, *ast.Float, *ast.Variable, *ast.BlockSuper,
		*ast.Identifier, *ast.Now, *ast.TemplateTag, *ast.CsrfToken:

	default:
		panic(fmt.Sprintf("unsupported node type %T", node))

	}

	v.Visit(nil)
}

func walkNodes(v Visitor, nodes []ast.Node) {
	for _, node := range nodes {
		Walk(v, node)
	}
}

func walkKeywords(v Visitor, kwargs []ast.KeywordArg) {
	for _, kw := range kwargs {
		Walk(v, kw.Name)
		Walk(v, kw.Value)
	}
}

// inspector implements Visitor using a function.
type inspector func(ast.Node) bool

func (f inspector) Visit(node ast.Node) Visitor {
	if node != nil && f(node) {
		return f
	}
	return nil
}

// Inspect traverses a tree in depth first order, calling f for each node.
// If f returns true, Inspect invokes f recursively for each of the non-nil
// children of node.
func Inspect(node ast.Node, f func(ast.Node) bool) {
	Walk(inspector(f), node)
}
