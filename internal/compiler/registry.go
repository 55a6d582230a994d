// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import "github.com/open2b/dtl/native"

// Registry contains the filters and tags available to the templates.
type Registry struct {

	// Builtins is the library whose filters and tags can be used in every
	// template without loading it.
	Builtins *native.Library

	// Libraries are the libraries that can be loaded with the load tag.
	Libraries native.LibraryLoader
}
