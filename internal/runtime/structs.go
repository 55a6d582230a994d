// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// fieldName represents the name of a field in a struct.
type fieldName struct {
	name  string
	index []int
}

// structs maintains the association between the field names of a struct,
// as they are called in the template, and the field index in the struct.
var structs = struct {
	fields map[reflect.Type][]fieldName
	sync.RWMutex
}{map[reflect.Type][]fieldName{}, sync.RWMutex{}}

// structField returns the value of the field named name of the struct st
// and reports whether it exists.
func structField(st reflect.Value, name string) (reflect.Value, bool) {
	for _, field := range structFields(st.Type()) {
		if field.name == name {
			v, err := st.FieldByIndexErr(field.index)
			if err != nil || !v.CanInterface() {
				return reflect.Value{}, false
			}
			return v, true
		}
	}
	return reflect.Value{}, false
}

// structFields returns the fields of the struct type typ. A field is named
// as its 'template' tag, if present, otherwise as the field.
func structFields(typ reflect.Type) []fieldName {
	structs.RLock()
	fields, ok := structs.fields[typ]
	structs.RUnlock()
	if ok {
		return fields
	}
	structs.Lock()
	defer structs.Unlock()
	if fields, ok = structs.fields[typ]; ok {
		return fields
	}
	for _, f := range reflect.VisibleFields(typ) {
		if !f.IsExported() {
			continue
		}
		tag, tagged := f.Tag.Lookup("template")
		if f.Anonymous && !tagged || tag == "-" {
			continue
		}
		name := f.Name
		if tagged {
			name = parseVarTag(tag)
			if name == "" {
				panic(fmt.Errorf("dtl: invalid tag of field %q", f.Name))
			}
		}
		fields = append(fields, fieldName{name, f.Index})
	}
	structs.fields[typ] = fields
	return fields
}

// parseVarTag parses the tag of a field of a struct and returns the name.
func parseVarTag(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return ""
	}
	for _, r := range name {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return ""
		}
	}
	return name
}
