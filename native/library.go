// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package native

import (
	"slices"
	"sort"
)

// Library is a library of filters and tags. The filters and tags of a
// library can be used in a template after it has been loaded with the
// 'load' tag, or in every template if the library is a builtin library.
type Library struct {
	Filters map[string]*Filter
	Tags    map[string]*Tag
}

// Filter returns the filter with the given name, or nil if it does not exist.
func (lib *Library) Filter(name string) *Filter {
	if lib == nil {
		return nil
	}
	return lib.Filters[name]
}

// Tag returns the tag with the given name, or nil if it does not exist.
func (lib *Library) Tag(name string) *Tag {
	if lib == nil {
		return nil
	}
	return lib.Tags[name]
}

// Register registers the filter f in the library, with name f.Name.
func (lib *Library) Register(f *Filter) {
	if lib.Filters == nil {
		lib.Filters = map[string]*Filter{}
	}
	lib.Filters[f.Name] = f
}

// RegisterTag registers the tag t in the library, with name t.Name.
func (lib *Library) RegisterTag(t *Tag) {
	if lib.Tags == nil {
		lib.Tags = map[string]*Tag{}
	}
	lib.Tags[t.Name] = t
}

// CombinedLibrary returns a library with the filters and tags of all the
// given libraries. If a name is defined in more libraries, the first one
// wins.
func CombinedLibrary(libraries ...*Library) *Library {
	combined := &Library{Filters: map[string]*Filter{}, Tags: map[string]*Tag{}}
	for _, lib := range libraries {
		if lib == nil {
			continue
		}
		for name, f := range lib.Filters {
			if _, ok := combined.Filters[name]; !ok {
				combined.Filters[name] = f
			}
		}
		for name, t := range lib.Tags {
			if _, ok := combined.Tags[name]; !ok {
				combined.Tags[name] = t
			}
		}
	}
	return combined
}

// LibraryLoader represents a library loader; Load returns the library with
// the given name.
//
// If an error occurs it returns the error, if the library does not exist it
// returns a nil library.
type LibraryLoader interface {
	Load(name string) (*Library, error)

	// Names returns the names of the libraries of the loader.
	Names() []string
}

// CombinedLoader combines multiple loaders into one loader.
type CombinedLoader []LibraryLoader

// Load calls each loader's Load methods and returns as soon as a loader
// returns a library.
func (loaders CombinedLoader) Load(name string) (*Library, error) {
	for _, loader := range loaders {
		lib, err := loader.Load(name)
		if lib != nil || err != nil {
			return lib, err
		}
	}
	return nil, nil
}

// Names returns the sorted names of the libraries of all loaders.
func (loaders CombinedLoader) Names() []string {
	var names []string
	for _, loader := range loaders {
		for _, name := range loader.Names() {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Libraries implements LibraryLoader using a map of libraries.
type Libraries map[string]*Library

// Load returns a library.
func (libs Libraries) Load(name string) (*Library, error) {
	if lib, ok := libs[name]; ok {
		return lib, nil
	}
	return nil, nil
}

// Names returns the sorted names of the libraries.
func (libs Libraries) Names() []string {
	names := make([]string, 0, len(libs))
	for name := range libs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
