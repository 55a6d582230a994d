// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"

	"github.com/open2b/dtl/ast"
)

// Token type.
type tokenTyp int

const (
	tokenText     tokenTyp = iota // text
	tokenVariable                 // {{ ... }}
	tokenBlock                    // {% ... %}
	tokenComment                  // {# ... #}
	tokenEOF                      // end of the source
)

var tokenTypeName = [...]string{
	tokenText:     "text",
	tokenVariable: "variable",
	tokenBlock:    "block",
	tokenComment:  "comment",
	tokenEOF:      "EOF",
}

func (tt tokenTyp) String() string {
	return tokenTypeName[tt]
}

// token represents a lexical token.
type token struct {
	typ     tokenTyp // type
	span    ast.Span // position in the source, delimiters included
	txt     string   // content, trimmed for variable, block and comment tokens
	content ast.Span // position of txt in the source
}

// String returns the string representation of the token.
func (tok token) String() string {
	if tok.typ == tokenEOF {
		return "EOF"
	}
	return fmt.Sprintf("%s %q", tok.typ, tok.txt)
}
