// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package starlib

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/open2b/dtl/internal/runtime"
	"github.com/open2b/dtl/native"

	"fortio.org/safecast"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// toStarlark converts a template value to a Starlark value. Values that have
// no Starlark counterpart are wrapped in a hostValue.
func toStarlark(v any) (starlark.Value, error) {
	switch v := v.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return v, nil
	case bool:
		return starlark.Bool(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case uint64:
		return starlark.MakeUint64(v), nil
	case *big.Int:
		return starlark.MakeBigInt(v), nil
	case float64:
		return starlark.Float(v), nil
	case string:
		return starlark.String(v), nil
	case native.HTML:
		return safeString(v), nil
	case native.HTMLStringer:
		return safeString(v.HTML()), nil
	case map[string]any:
		d := starlark.NewDict(len(v))
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			e, err := toStarlark(v[k])
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(k), e); err != nil {
				return nil, err
			}
		}
		return d, nil
	}
	if v == native.Missing {
		return starlark.String(""), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlark.MakeInt64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return starlark.MakeUint64(rv.Uint()), nil
	case reflect.Float32:
		return starlark.Float(rv.Float()), nil
	case reflect.String:
		return starlark.String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return starlark.NewList(nil), nil
		}
		items := make([]starlark.Value, rv.Len())
		for i := range items {
			e, err := toStarlark(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			items[i] = e
		}
		return starlark.NewList(items), nil
	}
	return hostValue{v}, nil
}

// fromStarlark converts a Starlark value to a template value.
func fromStarlark(v starlark.Value) (any, error) {
	switch v := v.(type) {
	case nil, starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			if n, err := safecast.Conv[int](i); err == nil {
				return n, nil
			}
		}
		return v.BigInt(), nil
	case starlark.Float:
		return float64(v), nil
	case starlark.String:
		return string(v), nil
	case safeString:
		return native.HTML(v), nil
	case hostValue:
		return v.v, nil
	case *starlark.List:
		return fromIterable(v, v.Len())
	case starlark.Tuple:
		return fromIterable(v, v.Len())
	case *starlark.Dict:
		m := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			e, err := fromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			m[key] = e
		}
		return m, nil
	case *contextValue:
		return nil, fmt.Errorf("the context cannot be returned")
	}
	return v.String(), nil
}

func fromIterable(v starlark.Iterable, n int) ([]any, error) {
	items := make([]any, 0, n)
	iter := v.Iterate()
	defer iter.Done()
	var e starlark.Value
	for iter.Next(&e) {
		item, err := fromStarlark(e)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// safeString is a string that is safe to be rendered without escaping. It
// is the Starlark counterpart of native.HTML.
type safeString string

var (
	_ starlark.Value     = safeString("")
	_ starlark.HasAttrs  = safeString("")
	_ starlark.HasBinary = safeString("")
)

func (s safeString) String() string        { return string(s) }
func (s safeString) Type() string          { return "safestring" }
func (s safeString) Freeze()               {}
func (s safeString) Truth() starlark.Bool  { return s != "" }
func (s safeString) Hash() (uint32, error) { return starlark.String(s).Hash() }

// Attr returns the methods of the string s.
func (s safeString) Attr(name string) (starlark.Value, error) {
	return starlark.String(s).Attr(name)
}

func (s safeString) AttrNames() []string {
	return starlark.String(s).AttrNames()
}

// Binary implements the concatenation with strings. The result is not safe,
// unless both operands are safe.
func (s safeString) Binary(op syntax.Token, y starlark.Value, side starlark.Side) (starlark.Value, error) {
	if op != syntax.PLUS {
		return nil, nil
	}
	var other string
	switch y := y.(type) {
	case safeString:
		if side == starlark.Left {
			return s + y, nil
		}
		return y + s, nil
	case starlark.String:
		other = string(y)
	default:
		return nil, nil
	}
	if side == starlark.Left {
		return starlark.String(string(s) + other), nil
	}
	return starlark.String(other + string(s)), nil
}

// hostValue is a value of the host that has no Starlark counterpart. Its
// attributes are resolved as in templates.
type hostValue struct {
	v any
}

var (
	_ starlark.Value    = hostValue{}
	_ starlark.HasAttrs = hostValue{}
)

func (h hostValue) String() string {
	s, err := runtime.ToString(h.v)
	if err != nil {
		return fmt.Sprint(h.v)
	}
	return s
}

func (h hostValue) Type() string { return runtime.TypeName(h.v) }
func (h hostValue) Freeze()      {}

func (h hostValue) Truth() starlark.Bool {
	t, err := runtime.Truth(h.v)
	return starlark.Bool(t && err == nil)
}

func (h hostValue) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: %s", h.Type())
}

func (h hostValue) Attr(name string) (starlark.Value, error) {
	v, ok, err := runtime.Member(h.v, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return toStarlark(v)
}

func (h hostValue) AttrNames() []string { return nil }

// contextValue is the context passed to the tags that take the context. It
// can be read and written as a dict.
type contextValue struct {
	vars native.Vars
}

var (
	_ starlark.Mapping   = (*contextValue)(nil)
	_ starlark.HasSetKey = (*contextValue)(nil)
)

func (c *contextValue) String() string        { return "<context>" }
func (c *contextValue) Type() string          { return "context" }
func (c *contextValue) Freeze()               {}
func (c *contextValue) Truth() starlark.Bool  { return true }
func (c *contextValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: context") }

func (c *contextValue) Get(k starlark.Value) (starlark.Value, bool, error) {
	name, ok := starlark.AsString(k)
	if !ok {
		return nil, false, fmt.Errorf("context key must be a string, not %s", k.Type())
	}
	v, ok := c.vars.Get(name)
	if !ok {
		return nil, false, nil
	}
	sv, err := toStarlark(v)
	return sv, err == nil, err
}

func (c *contextValue) SetKey(k, v starlark.Value) error {
	name, ok := starlark.AsString(k)
	if !ok {
		return fmt.Errorf("context key must be a string, not %s", k.Type())
	}
	value, err := fromStarlark(v)
	if err != nil {
		return err
	}
	c.vars.Set(name, value)
	return nil
}
