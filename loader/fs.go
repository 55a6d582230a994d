// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/tools/txtar"
)

// FS is a loader that reads templates from a file system. The name of a
// template is the name of its file in the file system.
type FS struct {
	fsys fs.FS
}

// NewFS returns a loader that reads the templates from fsys.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// Dir returns a loader that reads the templates from the files in the
// directory dir.
func Dir(dir string) *FS {
	return &FS{fsys: os.DirFS(dir)}
}

// Dirs returns a loader that reads a template from the first directory in
// dirs that contains it.
func Dirs(dirs ...string) Chain {
	c := make(Chain, len(dirs))
	for i, dir := range dirs {
		c[i] = Dir(dir)
	}
	return c
}

func (l *FS) Read(name string) (string, error) {
	return readFile(l.fsys, name)
}

// readFile reads the file name from fsys. It returns a *TemplateDoesNotExist
// error if name is not a valid path, does not exist or is a directory.
func readFile(fsys fs.FS, name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", NotExist(name)
	}
	fi, err := fs.Stat(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", NotExist(name)
		}
		return "", err
	}
	if fi.IsDir() {
		return "", NotExist(name)
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", NotExist(name)
		}
		return "", err
	}
	return string(data), nil
}

// Archive returns a loader that reads the templates from the files of a
// txtar archive. Leading and trailing newlines of a file are removed and the
// archive comment is ignored.
//
// For example, the archive
//
//	-- base.html --
//	<title>{% block title %}{% endblock %}</title>
//	-- index.html --
//	{% extends "base.html" %}{% block title %}Home{% endblock %}
//
// contains the templates "base.html" and "index.html".
func Archive(data []byte) Map {
	a := txtar.Parse(data)
	m := make(Map, len(a.Files))
	for _, f := range a.Files {
		m[f.Name] = strings.Trim(string(f.Data), "\n")
	}
	return m
}
