// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package native

import (
	"testing"
)

func noop(env Env, args []any, kwargs map[string]any) (any, error) {
	return "", nil
}

func TestCombinedLoader(t *testing.T) {
	upper := &Filter{Name: "upper"}
	lower := &Filter{Name: "lower"}
	loader := CombinedLoader{
		Libraries{"a": {Filters: map[string]*Filter{"upper": upper}}},
		Libraries{"a": {Filters: map[string]*Filter{"lower": lower}}, "b": {}},
	}
	// Test Load.
	lib, err := loader.Load("a")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if lib.Filter("upper") != upper {
		t.Fatalf("expecting the library of the first loader")
	}
	if lib, _ := loader.Load("b"); lib == nil {
		t.Fatalf("unexpected nil, expecting library b")
	}
	if lib, _ := loader.Load("notExistent"); lib != nil {
		t.Fatalf("unexpected %#v for non-existent library, expecting nil", lib)
	}
	// Test Names.
	names := loader.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names %v, expecting [a b]", names)
	}
}

func TestCombinedLibrary(t *testing.T) {
	first := &Filter{Name: "f"}
	second := &Filter{Name: "f"}
	tag := &Tag{Name: "t", Func: noop}
	lib := CombinedLibrary(
		&Library{Filters: map[string]*Filter{"f": first}},
		nil,
		&Library{Filters: map[string]*Filter{"f": second}, Tags: map[string]*Tag{"t": tag}},
	)
	if lib.Filter("f") != first {
		t.Fatalf("expecting the filter of the first library")
	}
	if lib.Tag("t") != tag {
		t.Fatalf("expecting tag t")
	}
	var nilLib *Library
	if nilLib.Filter("f") != nil || nilLib.Tag("t") != nil {
		t.Fatalf("expecting nil from a nil library")
	}
}

func TestTagCheck(t *testing.T) {
	tests := []struct {
		tag *Tag
		err string
	}{
		{&Tag{Name: "double", Params: []string{"value"}, Func: noop}, ""},
		{&Tag{Name: "greeting", Params: []string{"context", "name"}, TakesContext: true, Func: noop}, ""},
		{&Tag{Name: "missing_context", TakesContext: true, Func: noop},
			"'missing_context' is decorated with takes_context=True so it must have a first argument of 'context'"},
		{&Tag{Name: "repeat", Params: []string{"content", "count"}, Block: true, Func: noop}, ""},
		{&Tag{Name: "repeat", Params: []string{"count"}, Block: true, Func: noop},
			"'repeat' must have a first argument of 'content'"},
		{&Tag{Name: "with_block", Params: []string{"context", "var"}, TakesContext: true, Block: true, Func: noop},
			"'with_block' is decorated with takes_context=True so it must have a first argument of 'context' and a second argument of 'content'"},
		{&Tag{Name: "invert", Params: []string{"value"}, Defaults: []any{1, 2}, Func: noop},
			"'invert' has more defaults than parameters"},
		{&Tag{Name: "nofunc"}, "'nofunc' has no function"},
	}
	for _, test := range tests {
		err := test.tag.Check()
		if test.err == "" {
			if err != nil {
				t.Errorf("tag %s: unexpected error %q", test.tag.Name, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("tag %s: expecting error %q, got no error", test.tag.Name, test.err)
		} else if err.Error() != test.err {
			t.Errorf("tag %s: expecting error %q, got %q", test.tag.Name, test.err, err)
		}
	}
}

func TestTagDefault(t *testing.T) {
	tag := &Tag{
		Name:           "combine",
		Params:         []string{"a", "b", "c"},
		Defaults:       []any{2, 3},
		KwOnly:         []string{"operation"},
		KwOnlyDefaults: map[string]any{"operation": "add"},
	}
	if _, ok := tag.Default("a"); ok {
		t.Fatalf("unexpected default for a")
	}
	if v, ok := tag.Default("b"); !ok || v != 2 {
		t.Fatalf("expecting default 2 for b, got %v", v)
	}
	if v, ok := tag.Default("c"); !ok || v != 3 {
		t.Fatalf("expecting default 3 for c, got %v", v)
	}
	if v, ok := tag.Default("operation"); !ok || v != "add" {
		t.Fatalf("expecting default \"add\" for operation, got %v", v)
	}
	if tag.End() != "endcombine" {
		t.Fatalf("unexpected end tag %q", tag.End())
	}
}
