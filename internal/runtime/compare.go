// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/open2b/dtl/native"
)

// number is a numeric value, an integer or a float.
type number struct {
	i     *big.Int
	f     float64
	float bool
}

// toNumber returns v as a number and reports whether v is a number. Booleans
// are the numbers 0 and 1.
func toNumber(v any) (number, bool) {
	switch v := v.(type) {
	case int:
		return number{i: big.NewInt(int64(v))}, true
	case float64:
		return number{f: v, float: true}, true
	case *big.Int:
		if v == nil {
			return number{}, false
		}
		return number{i: v}, true
	case bool:
		if v {
			return number{i: big.NewInt(1)}, true
		}
		return number{i: big.NewInt(0)}, true
	case nil:
		return number{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{i: big.NewInt(rv.Int())}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{i: new(big.Int).SetUint64(rv.Uint())}, true
	case reflect.Float32, reflect.Float64:
		return number{f: rv.Float(), float: true}, true
	}
	return number{}, false
}

// compare compares x and y. It returns false if they are not comparable,
// that is if one of them is NaN.
func (x number) compare(y number) (int, bool) {
	if !x.float && !y.float {
		return x.i.Cmp(y.i), true
	}
	a, b := x.f, y.f
	if !x.float {
		a, _ = new(big.Float).SetInt(x.i).Float64()
	}
	if !y.float {
		b, _ = new(big.Float).SetInt(y.i).Float64()
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return 0, false
	}
	switch {
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	}
	return 0, true
}

// Plain returns v with native.HTML values converted to string and
// native.Missing converted to nil.
func Plain(v any) any {
	switch s := v.(type) {
	case native.HTML:
		return string(s)
	}
	if isMissing(v) {
		return nil
	}
	return v
}

// equal reports whether a and b are equal. Numbers are equal if they have
// the same value, strings if they have the same content and lists if they
// have equal elements.
func equal(a, b any) bool {
	a, b = Plain(a), Plain(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := toNumber(a); ok {
		y, ok := toNumber(b)
		if !ok {
			return false
		}
		c, ok := x.compare(y)
		return ok && c == 0
	}
	if x, ok := a.(string); ok {
		y, ok := b.(string)
		return ok && x == y
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if isList(ra) && isList(rb) {
		if ra.Len() != rb.Len() {
			return false
		}
		for i := 0; i < ra.Len(); i++ {
			if !equal(ra.Index(i).Interface(), rb.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	if ra.Type() == rb.Type() && ra.Comparable() {
		return ra.Equal(rb)
	}
	return reflect.DeepEqual(a, b)
}

// less reports whether a is less than b. Values that cannot be ordered are
// never less than each other.
func less(a, b any) bool {
	c, ok := order(a, b)
	return ok && c < 0
}

// order compares a and b and reports whether they can be ordered. Numbers
// are ordered by value, strings lexicographically and lists by their
// elements.
func order(a, b any) (int, bool) {
	a, b = Plain(a), Plain(b)
	if a == nil || b == nil {
		return 0, false
	}
	if x, ok := toNumber(a); ok {
		y, ok := toNumber(b)
		if !ok {
			return 0, false
		}
		return x.compare(y)
	}
	if x, ok := a.(string); ok {
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !isList(ra) || !isList(rb) {
		return 0, false
	}
	for i := 0; i < ra.Len() && i < rb.Len(); i++ {
		x, y := ra.Index(i).Interface(), rb.Index(i).Interface()
		if equal(x, y) {
			continue
		}
		return order(x, y)
	}
	switch {
	case ra.Len() < rb.Len():
		return -1, true
	case ra.Len() > rb.Len():
		return 1, true
	}
	return 0, true
}

// isList reports whether v is a slice or an array.
func isList(v reflect.Value) bool {
	k := v.Kind()
	return k == reflect.Slice || k == reflect.Array
}

// contains reports whether container contains item and whether container
// supports the membership test. A string contains its substrings, a map
// its keys and a list its elements.
func contains(container, item any) (bool, bool) {
	item = Plain(item)
	switch c := Plain(container).(type) {
	case nil:
		return false, false
	case string:
		s, ok := item.(string)
		if !ok {
			return false, false
		}
		return strings.Contains(c, s), true
	case native.AttrGetter:
		s, ok := item.(string)
		if !ok {
			return false, true
		}
		_, found, err := c.Attr(s)
		return found, err == nil
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Map:
		key, ok := mapKey(rv.Type().Key(), item)
		if !ok {
			return false, true
		}
		return rv.MapIndex(key).IsValid(), true
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if equal(rv.Index(i).Interface(), item) {
				return true, true
			}
		}
		return false, true
	}
	items, ok, err := Iter(container)
	if !ok || err != nil {
		return false, false
	}
	for _, e := range items {
		if equal(e, item) {
			return true, true
		}
	}
	return false, true
}

// identical reports whether a and b are the same value: both None, the same
// boolean, or references to the same data.
func identical(a, b any) bool {
	a, b = Plain(a), Plain(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := a.(bool); ok {
		y, ok := b.(bool)
		return ok && x == y
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()
	case reflect.Slice:
		return ra.Pointer() == rb.Pointer() && ra.Len() == rb.Len()
	}
	return false
}

// mapKey converts item to a key of type typ and reports whether it is
// possible.
func mapKey(typ reflect.Type, item any) (reflect.Value, bool) {
	if item == nil {
		if typ.Kind() == reflect.Interface {
			return reflect.Zero(typ), true
		}
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(item)
	if v.Type().AssignableTo(typ) {
		if typ.Kind() == reflect.Interface && !v.Comparable() {
			return reflect.Value{}, false
		}
		return v, true
	}
	switch typ.Kind() {
	case reflect.String:
		if v.Kind() == reflect.String {
			return v.Convert(typ), true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, ok := toNumber(item); ok && !n.float && n.i.IsInt64() {
			k := reflect.New(typ).Elem()
			if k.CanInt() && !k.OverflowInt(n.i.Int64()) {
				k.SetInt(n.i.Int64())
				return k, true
			}
			if k.CanUint() && n.i.Sign() >= 0 && !k.OverflowUint(uint64(n.i.Int64())) {
				k.SetUint(uint64(n.i.Int64()))
				return k, true
			}
		}
	}
	return reflect.Value{}, false
}
