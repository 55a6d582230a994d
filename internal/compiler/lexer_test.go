// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"testing"

	"github.com/open2b/dtl/ast"
)

var typeTests = map[string][]tokenTyp{
	``:                                       {},
	`a`:                                      {tokenText},
	`{`:                                      {tokenText},
	`}`:                                      {tokenText},
	`{a}`:                                    {tokenText},
	`{{a}}`:                                  {tokenVariable},
	`{{ a }}`:                                {tokenVariable},
	`a{{ b }}c`:                              {tokenText, tokenVariable, tokenText},
	`{% if a %}b{% endif %}`:                 {tokenBlock, tokenText, tokenBlock},
	`{# comment #}`:                          {tokenComment},
	`{# {% if %} #}`:                         {tokenComment},
	`{{ a }}{# b #}{% c %}`:                  {tokenVariable, tokenComment, tokenBlock},
	"{% if '\n' %}":                          {tokenText},
	"{{ a\n}}":                               {tokenText},
	`{% verbatim %}{{ a }}{% endverbatim %}`: {tokenBlock, tokenText, tokenBlock},
	`{% verbatim %}{% endverbatim %}`:        {tokenBlock, tokenBlock},

	`{% verbatim x %}{% endverbatim %}{% endverbatim x %}`: {tokenBlock, tokenText, tokenBlock},
	`{% verbatim %}{% if %}`:                               {tokenBlock, tokenText},
	`{{ '}}' }}`:                                           {tokenVariable, tokenText},
}

func TestLexerTypes(t *testing.T) {
TYPES:
	for source, types := range typeTests {
		var lex = scanTemplate(source)
		var i int
		for tok := range lex.Tokens() {
			if tok.typ == tokenEOF {
				break
			}
			if i >= len(types) {
				t.Errorf("source: %q, unexpected %s\n", source, tok)
				lex.Stop()
				continue TYPES
			}
			if tok.typ != types[i] {
				t.Errorf("source: %q, unexpected %s, expecting %s\n", source, tok, types[i])
				lex.Stop()
				continue TYPES
			}
			i++
		}
		if err := lex.error(); err != nil {
			t.Errorf("source: %q, error %s\n", source, err)
		}
		if i < len(types) {
			t.Errorf("source: %q, less types\n", source)
		}
	}
}

var spanTests = []struct {
	src     string
	spans   []ast.Span
	content []string
}{
	{"a", []ast.Span{{Start: 0, End: 1}}, []string{"a"}},
	{"{{ a }}", []ast.Span{{Start: 0, End: 7}}, []string{"a"}},
	{"{{a}}", []ast.Span{{Start: 0, End: 5}}, []string{"a"}},
	{"x {%  if  a %} y", []ast.Span{{Start: 0, End: 2}, {Start: 2, End: 14}, {Start: 14, End: 16}}, []string{"x ", "if  a", " y"}},
	{"{{}}", []ast.Span{{Start: 0, End: 4}}, []string{""}},
	{"{#  #}a", []ast.Span{{Start: 0, End: 6}, {Start: 6, End: 7}}, []string{"", "a"}},
	{"€{{ b }}", []ast.Span{{Start: 0, End: 3}, {Start: 3, End: 10}}, []string{"€", "b"}},
}

func TestLexerSpans(t *testing.T) {
	for _, test := range spanTests {
		var lex = scanTemplate(test.src)
		var i int
		for tok := range lex.Tokens() {
			if tok.typ == tokenEOF {
				if tok.span != (ast.Span{Start: len(test.src), End: len(test.src)}) {
					t.Errorf("source: %q, unexpected EOF span %s\n", test.src, tok.span)
				}
				break
			}
			if i >= len(test.spans) {
				t.Errorf("source: %q, unexpected %s\n", test.src, tok)
				break
			}
			if tok.span != test.spans[i] {
				t.Errorf("source: %q, token: %s, unexpected span %s, expecting %s\n", test.src, tok, tok.span, test.spans[i])
			}
			if tok.txt != test.content[i] {
				t.Errorf("source: %q, token: %s, unexpected content %q, expecting %q\n", test.src, tok, tok.txt, test.content[i])
			}
			if c := test.src[tok.content.Start:tok.content.End]; c != tok.txt {
				t.Errorf("source: %q, token: %s, content span %s does not match the content\n", test.src, tok, tok.content)
			}
			i++
		}
		lex.Stop()
		if i < len(test.spans) {
			t.Errorf("source: %q, less tokens\n", test.src)
		}
	}
}

var lexerErrorTests = []struct {
	src  string
	msg  string
	span ast.Span
}{
	{"{{", "Unclosed variable tag", ast.Span{Start: 0, End: 2}},
	{"a {{ b }", "Unclosed variable tag", ast.Span{Start: 2, End: 8}},
	{"{% if a %", "Unclosed block tag", ast.Span{Start: 0, End: 9}},
	{"ab{# c", "Unclosed comment", ast.Span{Start: 2, End: 6}},
}

func TestLexerErrors(t *testing.T) {
	for _, test := range lexerErrorTests {
		var lex = scanTemplate(test.src)
		for tok := range lex.Tokens() {
			if tok.typ == tokenEOF {
				t.Errorf("source: %q, unexpected EOF, expecting error", test.src)
			}
		}
		if lex.err == nil {
			t.Errorf("source: %q, expecting error %q, got no error", test.src, test.msg)
			continue
		}
		d := lex.err.Diagnostic
		if d.Message != test.msg {
			t.Errorf("source: %q, unexpected error %q, expecting %q", test.src, d.Message, test.msg)
		}
		if d.Span() != test.span {
			t.Errorf("source: %q, unexpected span %s, expecting %s", test.src, d.Span(), test.span)
		}
		if d.Labels[0].Text != "started here" {
			t.Errorf("source: %q, unexpected label %q, expecting \"started here\"", test.src, d.Labels[0].Text)
		}
	}
}
