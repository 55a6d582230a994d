// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diagnostic implements span-annotated diagnostics and their
// rendering as reports on the template source.
//
// A report has the form
//
//	 × {% extends 'base.txt' %} must be the first tag in the template.
//	  ╭────
//	1 │ {{ variable }} {% extends 'base.txt' %}
//	  · ───────┬────── ────────────┬───────────
//	  ·        │                   ╰── extends tag here
//	  ·        ╰── first tag here
//	  ╰────
//	 help: Move the extends tag before other tags and variables.
package diagnostic

import (
	"github.com/open2b/dtl/ast"
)

// Label is a labeled span of the source.
type Label struct {
	Span ast.Span // span in the source
	Text string   // text of the label, can be empty
}

// Diagnostic is a message with one or more labeled spans and an optional
// help text.
type Diagnostic struct {
	Message string
	Labels  []Label
	Help    string
}

// New returns a new diagnostic with the given message and a single label.
func New(message string, span ast.Span, label string) *Diagnostic {
	return &Diagnostic{Message: message, Labels: []Label{{span, label}}}
}

// WithHelp sets the help text of d and returns d.
func (d *Diagnostic) WithHelp(help string) *Diagnostic {
	d.Help = help
	return d
}

// WithLabel adds a label to d and returns d.
func (d *Diagnostic) WithLabel(span ast.Span, text string) *Diagnostic {
	d.Labels = append(d.Labels, Label{span, text})
	return d
}

// Span returns the span of the first label of d. If d has no labels, it
// returns the zero span.
func (d *Diagnostic) Span() ast.Span {
	if len(d.Labels) == 0 {
		return ast.Span{}
	}
	first := d.Labels[0].Span
	for _, l := range d.Labels[1:] {
		if l.Span.Start < first.Start {
			first = l.Span
		}
	}
	return first
}

// Error returns the message of d.
func (d *Diagnostic) Error() string {
	return d.Message
}
