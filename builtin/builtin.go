// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package builtin provides the builtin filters of the template language, the
// date formatter used by the 'date' filter and the 'now' tag, the lorem ipsum
// generator used by the 'lorem' tag and the optional 'markup' library.
//
// The builtin filters are available in every template:
//
//	{{ title|lower|capfirst }}
//	{{ body|wordwrap:72|linebreaksbr }}
//	{{ created|date:"D d M Y" }}
//
// The filters of the markup library are available after it has been loaded
//
//	{% load markup %}
//	{{ text|markdown }}
//
// and it is registered in an engine as
//
//	libraries := native.Libraries{
//	    "markup": builtin.Markup(),
//	}
package builtin

import (
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/open2b/dtl/internal/runtime"
	"github.com/open2b/dtl/native"

	"fortio.org/safecast"
)

// Library returns a new library with the builtin filters.
func Library() *native.Library {
	lib := &native.Library{}
	for _, f := range []*native.Filter{
		{Name: "add", Func: add, Arity: native.RequiredArg},
		{Name: "addslashes", Func: addSlashes, Arity: native.NoArg},
		{Name: "capfirst", Func: capFirst, Arity: native.NoArg},
		{Name: "center", Func: center, Arity: native.RequiredArg},
		{Name: "cut", Func: cut, Arity: native.RequiredArg},
		{Name: "date", Func: date, Arity: native.OptionalArg},
		{Name: "default", Func: withDefault, Arity: native.RequiredArg},
		{Name: "default_if_none", Func: defaultIfNone, Arity: native.RequiredArg},
		{Name: "divisibleby", Func: divisibleBy, Arity: native.RequiredArg},
		{Name: "escape", Func: escape, Arity: native.NoArg},
		{Name: "escapejs", Func: escapeJS, Arity: native.NoArg},
		{Name: "first", Func: first, Arity: native.NoArg},
		{Name: "force_escape", Func: forceEscape, Arity: native.NoArg},
		{Name: "join", Func: join, Arity: native.RequiredArg},
		{Name: "last", Func: last, Arity: native.NoArg},
		{Name: "length", Func: length, Arity: native.NoArg},
		{Name: "linebreaksbr", Func: linebreaksBR, Arity: native.NoArg},
		{Name: "lower", Func: lower, Arity: native.NoArg},
		{Name: "safe", Func: safe, Arity: native.NoArg},
		{Name: "slugify", Func: slugifyFilter, Arity: native.NoArg},
		{Name: "striptags", Func: stripTagsFilter, Arity: native.NoArg},
		{Name: "title", Func: title, Arity: native.NoArg},
		{Name: "upper", Func: upper, Arity: native.NoArg},
		{Name: "urlencode", Func: urlEncode, Arity: native.OptionalArg},
		{Name: "wordcount", Func: wordCount, Arity: native.NoArg},
		{Name: "wordwrap", Func: wordWrapFilter, Arity: native.RequiredArg},
		{Name: "yesno", Func: yesNo, Arity: native.OptionalArg},
	} {
		lib.Register(f)
	}
	return lib
}

// isSafe reports whether v is rendered without being escaped.
func isSafe(v any) bool {
	switch v.(type) {
	case native.HTML, native.HTMLStringer:
		return true
	}
	return false
}

// mapString applies f to the string representation of v. The result is safe
// if v is safe. A missing value is the empty string.
func mapString(v any, f func(string) string) (any, error) {
	if v == native.Missing {
		return "", nil
	}
	s, err := runtime.ToString(v)
	if err != nil {
		return nil, err
	}
	if isSafe(v) {
		return native.HTML(f(s)), nil
	}
	return f(s), nil
}

// toString returns the string representation of v. A missing value is the
// empty string.
func toString(v any) (string, error) {
	if v == native.Missing {
		return "", nil
	}
	return runtime.ToString(v)
}

// intValue returns n as an int if it fits, otherwise as a *big.Int.
func intValue(n *big.Int) any {
	if n.IsInt64() {
		if i, err := safecast.Conv[int](n.Int64()); err == nil {
			return i
		}
	}
	return n
}

// toBigInt converts v to an integer, truncating floats and parsing strings,
// and reports whether the conversion succeeded.
func toBigInt(v any) (*big.Int, bool) {
	switch v := v.(type) {
	case int:
		return big.NewInt(int64(v)), true
	case bool:
		if v {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	case *big.Int:
		if v == nil {
			return nil, false
		}
		return new(big.Int).Set(v), true
	case string:
		return parseInt(v)
	case native.HTML:
		return parseInt(string(v))
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, false
		}
		n, _ := big.NewFloat(math.Trunc(f)).Int(nil)
		return n, true
	case reflect.String:
		return parseInt(rv.String())
	}
	return nil, false
}

// parseInt parses s as a base 10 integer, ignoring leading and trailing
// white space and underscores between digits.
func parseInt(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "_") || strings.HasSuffix(s, "_") || strings.Contains(s, "__") {
		return nil, false
	}
	s = strings.ReplaceAll(s, "_", "")
	if s[0] == '+' {
		s = s[1:]
	}
	return new(big.Int).SetString(s, 10)
}

// toFloat returns v as a float64 and reports whether v is a number.
func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case *big.Int:
		if v == nil {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, true
	case nil:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// intArg converts the argument of a filter to an integer. Floats are
// truncated.
func intArg(arg any) (*big.Int, error) {
	if f, ok := arg.(float64); ok {
		switch {
		case math.IsInf(f, 0):
			return nil, native.ArgumentErrorf(native.OverflowError, "here", "Couldn't convert float (%s) to integer", runtime.FormatFloat(f))
		case math.IsNaN(f):
			return nil, native.ArgumentErrorf(native.ValueError, "here", "Couldn't convert float (nan) to integer")
		}
	}
	n, ok := toBigInt(arg)
	if ok {
		return n, nil
	}
	s, err := runtime.ToString(arg)
	if err != nil {
		return nil, err
	}
	if _, isString := runtime.Plain(arg).(string); isString {
		s = runtime.Quote(s)
	}
	return nil, native.ArgumentErrorf(native.ValueError, "argument", "Couldn't convert argument (%s) to integer", s)
}

// sizeArg is like intArg but returns an int. If the argument does not fit
// in an int, it returns math.MaxInt or math.MinInt.
func sizeArg(arg any) (int, error) {
	n, err := intArg(arg)
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() {
		if n.Sign() < 0 {
			return math.MinInt, nil
		}
		return math.MaxInt, nil
	}
	i, err := safecast.Conv[int](n.Int64())
	if err != nil {
		if n.Sign() < 0 {
			return math.MinInt, nil
		}
		return math.MaxInt, nil
	}
	return i, nil
}

// strictInt converts the filtered value v to an integer as the divisibleby
// filter does.
func strictInt(v any, argument bool) (*big.Int, error) {
	newError := func(kind native.ErrorKind, format string, a ...any) error {
		if argument {
			return native.ArgumentErrorf(kind, "here", format, a...)
		}
		return native.Errorf(kind, format, a...)
	}
	if v == native.Missing {
		v = ""
	}
	if f, ok := v.(float64); ok {
		switch {
		case math.IsInf(f, 0):
			return nil, newError(native.OverflowError, "cannot convert float infinity to integer")
		case math.IsNaN(f):
			return nil, newError(native.ValueError, "cannot convert float NaN to integer")
		}
	}
	if n, ok := toBigInt(v); ok {
		return n, nil
	}
	switch s := runtime.Plain(v).(type) {
	case string:
		return nil, newError(native.ValueError, "invalid literal for int() with base 10: %s", runtime.Quote(s))
	}
	return nil, newError(native.TypeError, "int() argument must be a string, a bytes-like object or a real number, not '%s'", runtime.TypeName(v))
}
