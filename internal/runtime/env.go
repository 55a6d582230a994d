// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"context"
	"time"

	"github.com/open2b/dtl/native"
)

// scopes is a stack of variable scopes. The last scope is the innermost.
type scopes []map[string]any

// Get returns the value of the variable name, searching from the innermost
// scope, and reports whether it exists.
func (sc *scopes) Get(name string) (any, bool) {
	for i := len(*sc) - 1; i >= 0; i-- {
		if v, ok := (*sc)[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set sets the variable name in the innermost scope.
func (sc *scopes) Set(name string, value any) {
	(*sc)[len(*sc)-1][name] = value
}

func (sc *scopes) push(scope map[string]any) {
	*sc = append(*sc, scope)
}

func (sc *scopes) pop() {
	*sc = (*sc)[:len(*sc)-1]
}

// flatten returns the variables visible from the innermost scope.
func (sc *scopes) flatten() map[string]any {
	vars := map[string]any{}
	for _, scope := range *sc {
		for name, v := range scope {
			vars[name] = v
		}
	}
	return vars
}

// The state type implements the native.Env interface.

func (s *state) Autoescape() bool {
	return s.autoescape
}

func (s *state) Context() context.Context {
	return s.ctx
}

func (s *state) Now() time.Time {
	return s.now
}

func (s *state) Path() string {
	return s.path
}

func (s *state) Request() any {
	return s.opts.Request
}

func (s *state) Vars() native.Vars {
	return &s.vars
}

// canceled returns the error of the context if it has been canceled.
func (s *state) canceled() error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}
	return nil
}
