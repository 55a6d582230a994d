// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader implements the loaders that read the source of templates.
//
// A loader reads templates from a file system (FS and Dir), from memory
// (Map), or from a sequence of other loaders (Chain). Cached wraps a loader
// and caches the sources it reads, and Watched reads the templates in a
// directory and reports the changes to the files it has read.
//
// For example:
//
//	l := loader.NewCached(loader.Chain{
//		loader.Dir("templates"),
//		loader.Map{"404.html": "Not found"},
//	}, nil)
package loader

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/open2b/dtl/internal/runtime"
)

// Loader is implemented by values that read the source of templates.
type Loader interface {
	// Read returns the source of the template with the given name. If the
	// template does not exist, it returns a *TemplateDoesNotExist error.
	Read(name string) (string, error)
}

// TemplateDoesNotExist is the error returned by a loader when a template
// does not exist.
type TemplateDoesNotExist struct {
	Tried []string // names of the templates tried
}

// NotExist returns a *TemplateDoesNotExist error for the given names.
func NotExist(names ...string) *TemplateDoesNotExist {
	return &TemplateDoesNotExist{Tried: names}
}

func (e *TemplateDoesNotExist) Error() string {
	return strings.Join(e.Tried, ", ")
}

// Is reports whether target is runtime.ErrTemplateDoesNotExist, so that
// errors.Is(err, dtl.ErrTemplateDoesNotExist) is true for e.
func (e *TemplateDoesNotExist) Is(target error) bool {
	return target == runtime.ErrTemplateDoesNotExist
}

// IsNotExist reports whether err is, or wraps, a *TemplateDoesNotExist
// error.
func IsNotExist(err error) bool {
	var e *TemplateDoesNotExist
	return errors.As(err, &e)
}

// Map is a loader that reads templates from a map from template names to
// sources.
type Map map[string]string

func (m Map) Read(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", NotExist(name)
	}
	return src, nil
}

// Chain is a loader that reads a template with the first of its loaders
// where the template exists.
type Chain []Loader

func (c Chain) Read(name string) (string, error) {
	var tried []string
	for _, l := range c {
		src, err := l.Read(name)
		if err == nil {
			return src, nil
		}
		var e *TemplateDoesNotExist
		if !errors.As(err, &e) {
			return "", err
		}
		for _, t := range e.Tried {
			if !slices.Contains(tried, t) {
				tried = append(tried, t)
			}
		}
	}
	if tried == nil {
		tried = []string{name}
	}
	return "", NotExist(tried...)
}

// discard returns logger, or a logger that discards its records if logger
// is nil.
func discard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
