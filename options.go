// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dtl

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/open2b/dtl/loader"
	"github.com/open2b/dtl/native"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Names of the loaders in Options.Loaders.
const (
	FilesystemLoader = "filesystem" // reads the templates in Options.Dirs
	LocmemLoader     = "locmem"     // reads the templates in Options.Templates
	CachedLoader     = "cached"     // caches the templates read by the other loaders
)

// Options are the options of an engine. The exported fields with a toml or
// yaml key can be read from a configuration file with LoadOptions.
type Options struct {

	// Dirs are the directories where the filesystem loader looks for
	// templates, in search order.
	Dirs []string `toml:"dirs" yaml:"dirs"`

	// Templates are the templates read by the locmem loader, indexed by
	// name.
	Templates map[string]string `toml:"templates" yaml:"templates"`

	// Loaders are the names of the loaders, FilesystemLoader, LocmemLoader
	// and CachedLoader. The templates are searched with the loaders in
	// order. If CachedLoader is present, the templates read by the other
	// loaders are cached. If Loaders is empty, the filesystem loader is
	// used, and the locmem loader if Templates is not empty, cached when
	// Debug is false.
	Loaders []string `toml:"loaders" yaml:"loaders"`

	// Autoescape reports whether the output is HTML escaped. If nil, it is
	// true.
	Autoescape *bool `toml:"autoescape" yaml:"autoescape"`

	// Debug enables the debug mode. In debug mode templates are not cached
	// by default.
	Debug bool `toml:"debug" yaml:"debug"`

	// StringIfInvalid is rendered in place of invalid variables.
	StringIfInvalid string `toml:"string_if_invalid" yaml:"string_if_invalid"`

	// Libraries maps the names used with the load tag to the names of the
	// libraries in the registry. The libraries in the registry can also be
	// loaded with their own name.
	Libraries map[string]string `toml:"libraries" yaml:"libraries"`

	// Builtins are the names of the libraries, in the registry, whose
	// filters and tags are available in every template. A library overrides
	// the filters and tags of the previous ones and of the builtin library.
	Builtins []string `toml:"builtins" yaml:"builtins"`

	// LibraryDirs are the directories of the libraries written in Starlark.
	// The file "name.star" is loaded with "{% load name %}".
	LibraryDirs []string `toml:"library_dirs" yaml:"library_dirs"`

	// ContextProcessors are the names of the context processors, in the
	// registry, called when a template is rendered with a request.
	ContextProcessors []string `toml:"context_processors" yaml:"context_processors"`

	// MaxInheritanceDepth is the maximum depth of a chain of extended
	// templates and of nested includes. If zero, it is 32.
	MaxInheritanceDepth int `toml:"max_inheritance_depth" yaml:"max_inheritance_depth"`

	// Watch reports whether the files read by the filesystem loader are
	// watched. When a file changes, its template is removed from the cache.
	Watch bool `toml:"watch" yaml:"watch"`

	// Color reports whether the reports of the errors are colored.
	Color bool `toml:"color" yaml:"color"`

	// Loader, if not nil, is used in place of the loaders in Loaders.
	Loader loader.Loader `toml:"-" yaml:"-"`

	// Registry contains the libraries and the context processors that can be
	// referred to by name in the options.
	Registry *Registry `toml:"-" yaml:"-"`

	// URLResolver reverses the view names of the url tag.
	URLResolver URLResolver `toml:"-" yaml:"-"`

	// Logger is the logger of the engine. If nil, nothing is logged.
	Logger *slog.Logger `toml:"-" yaml:"-"`
}

// ContextProcessor is a function called with the request of a rendering that
// returns variables to add to the context. The variables passed to the
// rendering take precedence over those returned by the context processors.
type ContextProcessor func(request any) (map[string]any, error)

// Registry contains the libraries and the context processors available to an
// engine.
type Registry struct {
	Libraries         map[string]*native.Library
	ContextProcessors map[string]ContextProcessor
}

// autoescape returns the value of the Autoescape option.
func (opts *Options) autoescape() bool {
	return opts.Autoescape == nil || *opts.Autoescape
}

// loaders returns the names of the loaders.
func (opts *Options) loaders() []string {
	if len(opts.Loaders) > 0 {
		return opts.Loaders
	}
	var names []string
	if !opts.Debug {
		names = append(names, CachedLoader)
	}
	names = append(names, FilesystemLoader)
	if len(opts.Templates) > 0 {
		names = append(names, LocmemLoader)
	}
	return names
}

// LoadOptions reads the options from the configuration file with the given
// path. The format of the file depends on its extension, TOML for ".toml" and
// YAML for ".yaml" and ".yml". Unknown keys are an error.
//
// Relative directories in the file are relative to the directory of the file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var opts Options
	switch ext := filepath.Ext(path); ext {
	case ".toml":
		md, err := toml.Decode(string(data), &opts)
		if err != nil {
			return nil, fmt.Errorf("dtl: cannot read options from %s: %w", path, err)
		}
		if keys := md.Undecoded(); len(keys) > 0 {
			return nil, fmt.Errorf("dtl: cannot read options from %s: unknown option %q", path, keys[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&opts); err != nil && err != io.EOF {
			return nil, fmt.Errorf("dtl: cannot read options from %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("dtl: unsupported options file extension %q", ext)
	}
	base := filepath.Dir(path)
	for _, dirs := range [][]string{opts.Dirs, opts.LibraryDirs} {
		for i, dir := range dirs {
			if !filepath.IsAbs(dir) {
				dirs[i] = filepath.Join(base, dir)
			}
		}
	}
	return &opts, nil
}
