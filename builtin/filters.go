// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"math/big"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/open2b/dtl/internal/runtime"
	"github.com/open2b/dtl/native"
)

func add(_ native.Env, v any, args ...any) (any, error) {
	if v == native.Missing {
		return native.Missing, nil
	}
	arg := args[0]
	if a, ok := toBigInt(v); ok {
		if b, ok := toBigInt(arg); ok {
			return intValue(a.Add(a, b)), nil
		}
	}
	v, arg = runtime.Plain(v), runtime.Plain(arg)
	if a, ok := toFloat(v); ok {
		if b, ok := toFloat(arg); ok {
			return a + b, nil
		}
		return "", nil
	}
	switch a := v.(type) {
	case string:
		if b, ok := arg.(string); ok {
			return a + b, nil
		}
		return "", nil
	}
	a, b := reflect.ValueOf(v), reflect.ValueOf(arg)
	if a.Kind() == reflect.Slice && b.Kind() == reflect.Slice {
		items := make([]any, 0, a.Len()+b.Len())
		for _, s := range []reflect.Value{a, b} {
			for i := 0; i < s.Len(); i++ {
				items = append(items, s.Index(i).Interface())
			}
		}
		return items, nil
	}
	return "", nil
}

func addSlashes(_ native.Env, v any, _ ...any) (any, error) {
	return mapString(v, addSlashesReplacer.Replace)
}

var addSlashesReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `'`, `\'`)

func capFirst(_ native.Env, v any, _ ...any) (any, error) {
	return mapString(v, func(s string) string {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 {
			return s
		}
		return upperCaser().String(string(r)) + s[size:]
	})
}

func center(_ native.Env, v any, args ...any) (any, error) {
	if v == native.Missing {
		return "", nil
	}
	s, err := runtime.ToString(v)
	if err != nil {
		return nil, err
	}
	width, err := sizeArg(args[0])
	if err != nil {
		return nil, err
	}
	n := utf8.RuneCountInString(s)
	if width > n {
		if width-n > maxPadding {
			return nil, native.ArgumentErrorf(native.OverflowError, "argument", "width %d is too large", width)
		}
		pad := width - n
		right := pad / 2
		if width%2 == 0 && n%2 != 0 {
			right = (pad + 1) / 2
		}
		s = strings.Repeat(" ", pad-right) + s + strings.Repeat(" ", right)
	}
	if isSafe(v) {
		return native.HTML(s), nil
	}
	return s, nil
}

// maxPadding is the maximum number of spaces added by the center filter.
const maxPadding = 1 << 24

func cut(_ native.Env, v any, args ...any) (any, error) {
	arg, err := runtime.ToString(args[0])
	if err != nil {
		return nil, err
	}
	if v == native.Missing {
		return "", nil
	}
	s, err := runtime.ToString(v)
	if err != nil {
		return nil, err
	}
	s = strings.ReplaceAll(s, arg, "")
	if isSafe(v) && arg != ";" {
		return native.HTML(s), nil
	}
	return s, nil
}

func date(_ native.Env, v any, args ...any) (any, error) {
	var t time.Time
	switch d := v.(type) {
	case time.Time:
		t = d
	case *time.Time:
		if d == nil {
			return "", nil
		}
		t = *d
	default:
		return "", nil
	}
	format := "DATE_FORMAT"
	if len(args) > 0 {
		var err error
		format, err = runtime.ToString(args[0])
		if err != nil {
			return nil, err
		}
	}
	s, err := FormatDate(t, format)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func withDefault(_ native.Env, v any, args ...any) (any, error) {
	if v != native.Missing {
		t, err := runtime.Truth(v)
		if err != nil {
			return nil, err
		}
		if t {
			return v, nil
		}
	}
	return args[0], nil
}

func defaultIfNone(_ native.Env, v any, args ...any) (any, error) {
	switch v {
	case nil:
		return args[0], nil
	case native.Missing:
		return "", nil
	}
	return v, nil
}

func divisibleBy(_ native.Env, v any, args ...any) (any, error) {
	n, err := strictInt(v, false)
	if err != nil {
		return nil, err
	}
	d, err := strictInt(args[0], true)
	if err != nil {
		return nil, err
	}
	if d.Sign() == 0 {
		return nil, native.ArgumentErrorf(native.ZeroDivisionError, "here", "integer modulo by zero")
	}
	return new(big.Int).Rem(n, d).Sign() == 0, nil
}

func escape(_ native.Env, v any, _ ...any) (any, error) {
	if isSafe(v) {
		return v, nil
	}
	s, err := toString(v)
	if err != nil {
		return nil, err
	}
	return native.HTML(runtime.Escape(s)), nil
}

func forceEscape(_ native.Env, v any, _ ...any) (any, error) {
	s, err := toString(v)
	if err != nil {
		return nil, err
	}
	return native.HTML(runtime.Escape(s)), nil
}

func escapeJS(_ native.Env, v any, _ ...any) (any, error) {
	return mapString(v, func(s string) string {
		var b strings.Builder
		_ = runtime.EscapeJS(&b, s)
		return b.String()
	})
}

func first(_ native.Env, v any, _ ...any) (any, error) {
	return item(v, 0)
}

func last(_ native.Env, v any, _ ...any) (any, error) {
	return item(v, -1)
}

// item returns the element of v at index i, where -1 is the last element.
// It returns the empty string if v is empty.
func item(v any, i int) (any, error) {
	if v == native.Missing {
		return "", nil
	}
	switch v.(type) {
	case string, native.HTML:
	default:
		rv := reflect.ValueOf(v)
		if k := rv.Kind(); k != reflect.Slice && k != reflect.Array && k != reflect.String {
			if _, ok := v.(native.IndexGetter); !ok {
				return nil, native.Errorf(native.TypeError, "'%s' object is not subscriptable", runtime.TypeName(v))
			}
		}
	}
	if g, ok := v.(native.IndexGetter); ok {
		if i < 0 {
			n, _, err := runtime.Len(v)
			if err != nil {
				return nil, err
			}
			i = n - 1
		}
		e, ok, err := g.Index(i)
		if err != nil || !ok {
			return "", err
		}
		return e, nil
	}
	items, _, err := runtime.Iter(v)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return "", nil
	}
	if i < 0 {
		i = len(items) - 1
	}
	e := items[i]
	if isSafe(v) {
		if s, ok := e.(string); ok {
			return native.HTML(s), nil
		}
	}
	return e, nil
}

func join(env native.Env, v any, args ...any) (any, error) {
	if v == native.Missing {
		return "", nil
	}
	items, ok, err := runtime.Iter(v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return v, nil
	}
	sep, err := runtime.ToString(args[0])
	if err != nil {
		return nil, err
	}
	autoescape := env.Autoescape()
	if autoescape && !isSafe(args[0]) {
		sep = runtime.Escape(sep)
	}
	var b strings.Builder
	for i, e := range items {
		if i > 0 {
			b.WriteString(sep)
		}
		s, err := runtime.ToString(e)
		if err != nil {
			return nil, err
		}
		if autoescape && !isSafe(e) {
			s = runtime.Escape(s)
		}
		b.WriteString(s)
	}
	return native.HTML(b.String()), nil
}

func length(_ native.Env, v any, _ ...any) (any, error) {
	if v == native.Missing {
		return 0, nil
	}
	n, _, err := runtime.Len(v)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func linebreaksBR(env native.Env, v any, _ ...any) (any, error) {
	s, err := toString(v)
	if err != nil {
		return nil, err
	}
	if env.Autoescape() && !isSafe(v) {
		s = runtime.Escape(s)
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return native.HTML(strings.ReplaceAll(s, "\n", "<br>")), nil
}

func lower(_ native.Env, v any, _ ...any) (any, error) {
	return mapString(v, lowerCaser().String)
}

func upper(_ native.Env, v any, _ ...any) (any, error) {
	return mapString(v, upperCaser().String)
}

func safe(_ native.Env, v any, _ ...any) (any, error) {
	s, err := toString(v)
	if err != nil {
		return nil, err
	}
	return native.HTML(s), nil
}

func slugifyFilter(_ native.Env, v any, _ ...any) (any, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case int, float64, *big.Int:
		return runtime.ToString(v)
	}
	return mapString(v, Slugify)
}

func stripTagsFilter(_ native.Env, v any, _ ...any) (any, error) {
	s, err := toString(v)
	if err != nil {
		return nil, err
	}
	return StripTags(s), nil
}

func title(_ native.Env, v any, _ ...any) (any, error) {
	return mapString(v, Title)
}

func urlEncode(_ native.Env, v any, args ...any) (any, error) {
	s, err := toString(v)
	if err != nil {
		return nil, err
	}
	safe := "/"
	if len(args) > 0 {
		safe, err = runtime.ToString(args[0])
		if err != nil {
			return nil, err
		}
	}
	var b strings.Builder
	_ = runtime.URLEscape(&b, s, safe)
	return b.String(), nil
}

func wordCount(_ native.Env, v any, _ ...any) (any, error) {
	s, err := toString(v)
	if err != nil {
		return nil, err
	}
	return len(strings.Fields(s)), nil
}

func wordWrapFilter(_ native.Env, v any, args ...any) (any, error) {
	if v == native.Missing {
		return "", nil
	}
	s, err := runtime.ToString(v)
	if err != nil {
		return nil, err
	}
	width, err := sizeArg(args[0])
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		return nil, native.ArgumentErrorf(native.ValueError, "width", "invalid width %d (must be > 0)", width)
	}
	s = WordWrap(s, width)
	if isSafe(v) {
		return native.HTML(s), nil
	}
	return s, nil
}

func yesNo(_ native.Env, v any, args ...any) (any, error) {
	choices := "yes,no,maybe"
	if len(args) > 0 {
		var err error
		choices, err = runtime.ToString(args[0])
		if err != nil {
			return nil, err
		}
	}
	bits := strings.Split(choices, ",")
	if len(bits) < 2 {
		return v, nil
	}
	yes, no, maybe := bits[0], bits[1], bits[1]
	if len(bits) > 2 {
		maybe = bits[2]
	}
	switch v {
	case nil:
		return maybe, nil
	case native.Missing:
		return no, nil
	}
	t, err := runtime.Truth(v)
	if err != nil {
		return nil, err
	}
	if t {
		return yes, nil
	}
	return no, nil
}
