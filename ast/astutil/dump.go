// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package astutil implements methods to walk and dump a tree.
package astutil

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/open2b/dtl/ast"
)

type dumper struct {
	output      io.Writer
	indentLevel int
	src         string
	parents     []*ast.Tree
}

type errVisitor struct {
	err error
}

func (e errVisitor) Error() string {
	return e.err.Error()
}

// Visit elaborates a node of a tree, writing on a Writer the representation
// of the same node correctly indented. The Visit method is called by the Walk
// function.
func (d *dumper) Visit(node ast.Node) Visitor {

	// Management of the v.Visit(nil) call made by Walk.
	if node == nil {
		d.indentLevel--
		return nil
	}

	d.indentLevel++

	// The parent tree of an extends node is dumped after the tree.
	if n, ok := node.(*ast.Extends); ok && n.Tree != nil {
		d.parents = append(d.parents, n.Tree)
	}

	if n, ok := node.(*ast.Tree); ok {
		d.src = n.Source
		_, err := fmt.Fprintf(d.output, "\nTree: %s\n", strconv.Quote(n.Path))
		if err != nil {
			panic(errVisitor{err})
		}
		return d
	}

	var text string
	switch n := node.(type) {
	case *ast.Text:
		if len(n.Text) > 30 {
			text = truncate(n.Text, 30) + "..."
		} else {
			text = n.Text
		}
		text = strconv.Quote(text)
	case fmt.Stringer:
		text = n.String()
	}

	for i := 0; i < d.indentLevel; i++ {
		_, err := fmt.Fprint(d.output, "│    ")
		if err != nil {
			panic(errVisitor{err})
		}
	}

	// Determines the type by removing the prefix "*ast."
	typeStr := fmt.Sprintf("%T", node)[5:]

	pos := ast.PositionOf(d.src, node.Pos())

	_, err := fmt.Fprintf(d.output, "%s (%s) %s\n", typeStr, pos, text)
	if err != nil {
		panic(errVisitor{err})
	}

	return d
}

// Dump writes the dump of a tree, and of the trees it extends, on w.
func Dump(w io.Writer, tree *ast.Tree) (err error) {

	defer func() {
		if r := recover(); r != nil {
			if t, ok := r.(errVisitor); ok {
				err = t.err
			} else {
				panic(r)
			}
		}
	}()

	if tree == nil {
		return errors.New("can't dump a nil tree")
	}

	d := dumper{output: w, indentLevel: -1}
	Walk(&d, tree)

	for _, parent := range d.parents {
		err := Dump(w, parent)
		if err != nil {
			return err
		}
	}

	return nil
}

func truncate(s string, maxRunes int) string {
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
