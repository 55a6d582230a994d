// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dtl

import (
	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/diagnostic"
	"github.com/open2b/dtl/internal/compiler"
	"github.com/open2b/dtl/internal/runtime"
)

// Position is a position in a template.
type Position = ast.Position

// BuildError represents an error occurred compiling a template.
type BuildError struct {
	path  string
	src   string
	diag  *diagnostic.Diagnostic
	color bool
}

// Error returns a report of the error with the annotated source.
func (err *BuildError) Error() string {
	return report(err.path, err.src, err.diag, err.color)
}

// Path returns the path of the template where the error occurred. It is
// empty if the template has been compiled from a string.
func (err *BuildError) Path() string {
	return err.path
}

// Position returns the position in the template where the error occurred.
func (err *BuildError) Position() Position {
	return ast.PositionOf(err.src, err.diag.Span())
}

// Message returns the error message.
func (err *BuildError) Message() string {
	return err.diag.Message
}

// Diagnostic returns the diagnostic of the error.
func (err *BuildError) Diagnostic() *diagnostic.Diagnostic {
	return err.diag
}

// RenderError represents an error occurred rendering a template.
type RenderError struct {
	path  string
	src   string
	diag  *diagnostic.Diagnostic
	err   error
	color bool
}

// Error returns a report of the error with the annotated source.
func (err *RenderError) Error() string {
	return report(err.path, err.src, err.diag, err.color)
}

// Path returns the path of the template where the error occurred. It is
// empty if the template has been compiled from a string.
func (err *RenderError) Path() string {
	return err.path
}

// Position returns the position in the template where the error occurred.
func (err *RenderError) Position() Position {
	return ast.PositionOf(err.src, err.diag.Span())
}

// Message returns the error message.
func (err *RenderError) Message() string {
	return err.diag.Message
}

// Diagnostic returns the diagnostic of the error.
func (err *RenderError) Diagnostic() *diagnostic.Diagnostic {
	return err.diag
}

// Unwrap returns the kind of the error, as ErrVariableDoesNotExist, or the
// error that caused it.
func (err *RenderError) Unwrap() error {
	return err.err
}

// report returns the report of the diagnostic d of the template with the
// given path and source.
func report(path, src string, d *diagnostic.Diagnostic, color bool) string {
	return d.Report(src, &diagnostic.Options{Name: path, Color: color})
}

// convertError converts the syntax and rendering errors of the compiler and
// the runtime to a *BuildError and a *RenderError. Other errors are returned
// unchanged.
func (e *Engine) convertError(err error) error {
	switch err := err.(type) {
	case *compiler.SyntaxError:
		return &BuildError{path: err.Path, src: err.Source, diag: err.Diagnostic, color: e.opts.Color}
	case *runtime.Error:
		return &RenderError{path: err.Path, src: err.Source, diag: err.Diagnostic, err: err.Err, color: e.opts.Color}
	}
	return err
}
