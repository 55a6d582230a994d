// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"fmt"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/diagnostic"
	"github.com/open2b/dtl/native"
)

// Kinds of rendering errors. An *Error wraps one of them.
var (
	ErrVariableDoesNotExist = errors.New("variable does not exist")
	ErrValue                = errors.New("value error")
	ErrType                 = errors.New("type error")
	ErrOverflow             = errors.New("overflow error")
	ErrZeroDivision         = errors.New("division by zero")
	ErrKey                  = errors.New("key error")
	ErrTemplateDoesNotExist = errors.New("template does not exist")
	ErrNoReverseMatch       = errors.New("no reverse match")
)

// Error is an error occurred rendering a template.
type Error struct {
	Path       string                 // path of the template, empty if it has no origin
	Source     string                 // source of the template
	Diagnostic *diagnostic.Diagnostic // diagnostic
	Err        error                  // kind of the error, or the error that caused it
}

func (e *Error) Error() string {
	pos := ast.PositionOf(e.Source, e.Diagnostic.Span())
	return fmt.Sprintf("%s:%s: %s", e.Path, pos, e.Diagnostic.Message)
}

// Unwrap returns the kind of the error.
func (e *Error) Unwrap() error {
	return e.Err
}

// newError returns a new rendering error in the template currently
// rendered, with the given kind and a label on span.
func (s *state) newError(kind error, span ast.Span, label, message string) *Error {
	return &Error{
		Path:       s.path,
		Source:     s.src,
		Diagnostic: diagnostic.New(message, span, label),
		Err:        kind,
	}
}

// errorf is like newError but formats the message according to a format
// specifier.
func (s *state) errorf(kind error, span ast.Span, label, format string, a ...any) *Error {
	return s.newError(kind, span, label, fmt.Sprintf(format, a...))
}

// nativeError returns the rendering error for err if it is a *native.Error,
// with a label on span, otherwise it returns err unchanged.
func (s *state) nativeError(err error, span ast.Span, label string) error {
	var e *native.Error
	if !errors.As(err, &e) {
		return err
	}
	if e.Label != "" {
		label = e.Label
	}
	return s.newError(errorKind(e.Kind), span, label, e.Message)
}

// errorKind returns the error kind of k.
func errorKind(k native.ErrorKind) error {
	switch k {
	case native.TypeError:
		return ErrType
	case native.OverflowError:
		return ErrOverflow
	case native.ZeroDivisionError:
		return ErrZeroDivision
	case native.KeyError:
		return ErrKey
	}
	return ErrValue
}
