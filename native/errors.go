// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package native

import "fmt"

// ErrorKind is the kind of an error returned by a filter or a tag.
type ErrorKind int

const (
	ValueError        ErrorKind = iota + 1 // invalid value
	TypeError                              // invalid type
	OverflowError                          // numeric overflow
	ZeroDivisionError                      // division or modulo by zero
	KeyError                               // missing key
)

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ValueError:
		return "ValueError"
	case TypeError:
		return "TypeError"
	case OverflowError:
		return "OverflowError"
	case ZeroDivisionError:
		return "ZeroDivisionError"
	case KeyError:
		return "KeyError"
	}
	return "ErrorKind(" + fmt.Sprint(int(k)) + ")"
}

// Error is an error returned by a filter or a tag. When rendered, the error
// is reported with the position of the filter name or, if Argument is true,
// with the position of its argument.
type Error struct {
	Kind     ErrorKind
	Message  string
	Label    string // label of the position, "here" if empty
	Argument bool   // the error refers to the argument
}

// Errorf returns a new error with the given kind and a message formatted
// according to a format specifier.
func Errorf(kind ErrorKind, format string, a ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// ArgumentErrorf is like Errorf but returns an error that refers to the
// argument of the filter, with the given label.
func ArgumentErrorf(kind ErrorKind, label string, format string, a ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...), Label: label, Argument: true}
}

func (err *Error) Error() string {
	return err.Message
}
