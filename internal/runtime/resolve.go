// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"reflect"
	"strconv"

	"github.com/open2b/dtl/native"
)

// Member returns the member name of v and reports whether it exists. The
// member is searched, in order, as a key of a map or of a
// native.AttrGetter, as a method or a field of a struct, and as an element
// of a list if name is an index. Methods and functions are returned without
// being called.
func Member(v any, name string) (any, bool, error) {
	switch v := v.(type) {
	case nil:
		return nil, false, nil
	case native.AttrGetter:
		m, ok, err := v.Attr(name)
		if ok || err != nil {
			return m, ok, err
		}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, false, nil
	}
	if rv.Kind() == reflect.Map {
		if key, ok := mapKey(rv.Type().Key(), name); ok {
			if e := rv.MapIndex(key); e.IsValid() {
				return e.Interface(), true, nil
			}
		}
		if i, err := strconv.Atoi(name); err == nil {
			if key, ok := mapKey(rv.Type().Key(), i); ok {
				if e := rv.MapIndex(key); e.IsValid() {
					return e.Interface(), true, nil
				}
			}
		}
		switch name {
		case "items", "keys", "values":
			return mapView(rv, name), true, nil
		}
	}
	if m := rv.MethodByName(name); m.IsValid() {
		return m.Interface(), true, nil
	}
	st := rv
	for st.Kind() == reflect.Pointer || st.Kind() == reflect.Interface {
		if st.IsNil() {
			return nil, false, nil
		}
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct {
		if f, ok := structField(st, name); ok {
			return f.Interface(), true, nil
		}
	}
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 {
		return nil, false, nil
	}
	if g, ok := v.(native.IndexGetter); ok {
		return g.Index(i)
	}
	switch st.Kind() {
	case reflect.Slice, reflect.Array:
		if i < st.Len() {
			return st.Index(i).Interface(), true, nil
		}
	case reflect.String:
		for j, r := range []rune(st.String()) {
			if j == i {
				return string(r), true, nil
			}
		}
	}
	return nil, false, nil
}

// mapView returns the items, the keys or the values of the map m as a
// function that returns a list, like the methods of a dictionary.
func mapView(m reflect.Value, name string) func() []any {
	return func() []any {
		keys := sortedKeys(m)
		list := make([]any, len(keys))
		for i, key := range keys {
			switch name {
			case "items":
				list[i] = []any{key.Interface(), m.MapIndex(key).Interface()}
			case "keys":
				list[i] = key.Interface()
			case "values":
				list[i] = m.MapIndex(key).Interface()
			}
		}
		return list
	}
}

// call calls v if it is a function without parameters, returning one
// value or a value and an error, and returns the result. Functions
// implementing native.DoNotCaller are not called. It returns false if v
// cannot be resolved because it alters data or it requires arguments.
// Errors returned by the function are returned unchanged.
func call(v any) (any, bool, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return v, true, nil
	}
	if d, ok := v.(native.DoNotCaller); ok && d.DoNotCall() {
		return v, true, nil
	}
	if a, ok := v.(native.DataAlterer); ok && a.AltersData() {
		return nil, false, nil
	}
	t := rv.Type()
	if t.CanSeq() || t.CanSeq2() {
		return v, true, nil
	}
	if t.NumIn() > 1 || t.NumIn() == 1 && !t.IsVariadic() {
		return nil, false, nil
	}
	switch t.NumOut() {
	case 1:
		return rv.Call(nil)[0].Interface(), true, nil
	case 2:
		if t.Out(1) != errorType {
			break
		}
		out := rv.Call(nil)
		if err := out[1].Interface(); err != nil {
			return nil, false, err.(error)
		}
		return out[0].Interface(), true, nil
	}
	return v, true, nil
}
