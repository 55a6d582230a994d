// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package starlib

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/open2b/dtl/native"
)

// Ext is the extension of the files of the Starlark libraries.
const Ext = ".star"

// Loader is a native.LibraryLoader that loads the libraries from the
// Starlark files in a file system. The name of a library is the name of its
// file without the extension, so "{% load text %}" loads the file
// "text.star". A library is loaded only once.
type Loader struct {
	fsys fs.FS
	opts Options

	mu   sync.Mutex
	libs map[string]*native.Library
}

// NewLoader returns a loader of the Starlark libraries in fsys.
func NewLoader(fsys fs.FS, opts Options) *Loader {
	return &Loader{fsys: fsys, opts: opts, libs: map[string]*native.Library{}}
}

// Dir returns a loader of the Starlark libraries in the directory dir.
func Dir(dir string, opts Options) *Loader {
	return NewLoader(os.DirFS(dir), opts)
}

// Load loads the library with the given name. It returns nil if the library
// does not exist.
func (l *Loader) Load(name string) (*native.Library, error) {
	if strings.Contains(name, "/") || !fs.ValidPath(name+Ext) {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if lib, ok := l.libs[name]; ok {
		return lib, nil
	}
	filename := name + Ext
	src, err := fs.ReadFile(l.fsys, filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	lib, err := Load(filename, src, l.opts)
	if err != nil {
		return nil, err
	}
	if l.opts.Logger != nil {
		l.opts.Logger.Debug("starlark library loaded", "name", name, "filters", len(lib.Filters), "tags", len(lib.Tags))
	}
	l.libs[name] = lib
	return lib, nil
}

// Names returns the sorted names of the libraries in the file system.
func (l *Loader) Names() []string {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == Ext {
			names = append(names, strings.TrimSuffix(e.Name(), Ext))
		}
	}
	sort.Strings(names)
	return names
}
