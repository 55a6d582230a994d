// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"cmp"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/open2b/dtl/native"
)

var (
	errorType   = reflect.TypeFor[error]()
	missingType = reflect.TypeOf(native.Missing)
)

// isMissing reports whether v is native.Missing.
func isMissing(v any) bool {
	return reflect.TypeOf(v) == missingType
}

// reprer is implemented by the values created by the renderer that have
// their own representation, as the forloop variable.
type reprer interface {
	Repr() (string, error)
}

// ToString returns the string representation of v, as it is rendered in a
// template. Errors returned by a native.TemplateStringer are returned
// unchanged.
func ToString(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "None", nil
	case string:
		return v, nil
	case native.HTML:
		return string(v), nil
	case bool:
		if v {
			return "True", nil
		}
		return "False", nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return FormatFloat(v), nil
	case *big.Int:
		return v.String(), nil
	case native.HTMLStringer:
		return string(v.HTML()), nil
	case native.TemplateStringer:
		return v.TemplateString()
	case time.Time:
		return formatTime(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case error:
		return v.Error(), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return ToString(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return FormatFloat(rv.Float()), nil
	case reflect.String:
		return rv.String(), nil
	}
	return Repr(v)
}

// FormatFloat formats f as the shortest representation that reads back as
// f, with a trailing ".0" for integral values and an exponent only for very
// small or very large values, as in "1.0", "0.001" and "1e+16".
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	_, exp, _ := strings.Cut(s, "e")
	if e, _ := strconv.Atoi(exp); e < -4 || e >= 16 {
		return s
	}
	s = strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// formatTime formats t as "2006-01-02 15:04:05", followed by the
// microseconds if not zero.
func formatTime(t time.Time) string {
	if t.Nanosecond()/1000 != 0 {
		return t.Format("2006-01-02 15:04:05.000000")
	}
	return t.Format("2006-01-02 15:04:05")
}

// Repr returns the representation of v as shown in lists, dictionaries and
// error messages, as in "['a', 1, None]".
func Repr(v any) (string, error) {
	var b strings.Builder
	err := writeRepr(&b, v, 0)
	return b.String(), err
}

// maxReprDepth is the maximum nesting depth of a representation.
const maxReprDepth = 64

func writeRepr(b *strings.Builder, v any, depth int) error {
	if depth > maxReprDepth {
		b.WriteString("...")
		return nil
	}
	switch v := v.(type) {
	case nil:
		b.WriteString("None")
		return nil
	case string:
		b.WriteString(Quote(v))
		return nil
	case native.HTML:
		b.WriteString(Quote(string(v)))
		return nil
	case reprer:
		s, err := v.Repr()
		b.WriteString(s)
		return err
	case bool, int, float64, *big.Int, time.Time, native.HTMLStringer, native.TemplateStringer, fmt.Stringer, error:
		if isMissing(v) {
			b.WriteString("None")
			return nil
		}
		s, err := ToString(v)
		b.WriteString(s)
		return err
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			b.WriteString("None")
			return nil
		}
		return writeRepr(b, rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			b.WriteString("[]")
			return nil
		}
		b.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writeRepr(b, rv.Index(i).Interface(), depth+1); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil
	case reflect.Map:
		b.WriteByte('{')
		for i, key := range sortedKeys(rv) {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writeRepr(b, key.Interface(), depth+1); err != nil {
				return err
			}
			b.WriteString(": ")
			if err := writeRepr(b, rv.MapIndex(key).Interface(), depth+1); err != nil {
				return err
			}
		}
		b.WriteByte('}')
		return nil
	case reflect.Struct, reflect.Func, reflect.Chan:
		fmt.Fprintf(b, "<%s>", rv.Type())
		return nil
	}
	s, err := ToString(v)
	b.WriteString(s)
	return err
}

// Quote returns s quoted with single quotes, or with double quotes if s
// contains a single quote and no double quotes. Backslashes, quotes and non
// printable characters are escaped.
func Quote(s string) string {
	q := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteRune(q)
	for _, r := range s {
		switch {
		case r == q || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == ' ' || unicode.IsPrint(r):
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteRune(q)
	return b.String()
}

// sortedKeys returns the keys of the map m in a deterministic order.
func sortedKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		switch {
		case a.Kind() == reflect.String && b.Kind() == reflect.String:
			return strings.Compare(a.String(), b.String())
		case a.CanInt() && b.CanInt():
			return cmp.Compare(a.Int(), b.Int())
		case a.CanUint() && b.CanUint():
			return cmp.Compare(a.Uint(), b.Uint())
		}
		return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	})
	return keys
}

// TypeName returns the name of the type of v as shown in error messages.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case string, native.HTML:
		return "str"
	case *big.Int:
		return "int"
	}
	if isMissing(v) {
		return "NoneType"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "dict"
	case reflect.Func:
		return "function"
	}
	return rv.Type().String()
}

// Truth returns the truth value of v. None, False, zero numbers, empty
// strings and empty collections are false.
func Truth(v any) (bool, error) {
	switch v := v.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		return v != "", nil
	case native.HTML:
		return v != "", nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case *big.Int:
		return v != nil && v.Sign() != 0, nil
	case native.Truther:
		return v.Truth()
	case native.Lener:
		n, err := v.Len()
		return n > 0, err
	}
	if isMissing(v) {
		return false, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0, nil
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len() > 0, nil
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return !rv.IsNil(), nil
	}
	return true, nil
}

// Len returns the length of v and reports whether v has a length. The
// length of a string is its number of characters.
func Len(v any) (int, bool, error) {
	switch v := v.(type) {
	case string:
		return utf8.RuneCountInString(v), true, nil
	case native.HTML:
		return utf8.RuneCountInString(string(v)), true, nil
	case native.Lener:
		n, err := v.Len()
		return n, true, err
	case nil:
		return 0, false, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(rv.String()), true, nil
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len(), true, nil
	}
	return 0, false, nil
}

// Iter returns the elements of v and reports whether v is iterable. The
// elements of a string are its characters, the elements of a map are its
// keys in a deterministic order. Functions with the signature of an
// iter.Seq are iterated, iter.Seq2 functions yield two-element slices.
func Iter(v any) ([]any, bool, error) {
	switch v := v.(type) {
	case string:
		return chars(v), true, nil
	case native.HTML:
		return chars(string(v)), true, nil
	case native.Iterable:
		items, err := v.Iter()
		return items, true, err
	case []any:
		return v, true, nil
	case nil:
		return nil, false, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return chars(rv.String()), true, nil
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, true, nil
	case reflect.Map:
		keys := sortedKeys(rv)
		items := make([]any, len(keys))
		for i, key := range keys {
			items[i] = key.Interface()
		}
		return items, true, nil
	case reflect.Func:
		if rv.IsNil() {
			return nil, false, nil
		}
		var items []any
		switch t := rv.Type(); {
		case t.CanSeq():
			for e := range rv.Seq() {
				items = append(items, e.Interface())
			}
			return items, true, nil
		case t.CanSeq2():
			for k, e := range rv.Seq2() {
				items = append(items, []any{k.Interface(), e.Interface()})
			}
			return items, true, nil
		}
	}
	return nil, false, nil
}

// chars returns the characters of s as strings.
func chars(s string) []any {
	items := make([]any, 0, len(s))
	for _, r := range s {
		items = append(items, string(r))
	}
	return items
}

// ToInt returns v as an int and reports whether v is an integer, a float
// with an integral value, or a string representing an integer.
func ToInt(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case *big.Int:
		if v.IsInt64() && v.Int64() >= math.MinInt && v.Int64() <= math.MaxInt {
			return int(v.Int64()), true
		}
		return 0, false
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	case native.HTML:
		return ToInt(string(v))
	}
	n, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	if n.float {
		if n.f != math.Trunc(n.f) || math.Abs(n.f) > math.MaxInt64 {
			return 0, false
		}
		return int(n.f), true
	}
	return ToInt(n.i)
}
