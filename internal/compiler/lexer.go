// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"strings"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/diagnostic"
)

// scanTemplate scans a template source and returns a lexer.
func scanTemplate(src string) *lexer {
	tokens := make(chan token, 20)
	lex := &lexer{
		src:    src,
		tokens: tokens,
	}
	go lex.scan()
	return lex
}

// Tokens returns a channel to read the scanned tokens.
func (l *lexer) Tokens() <-chan token {
	return l.tokens
}

// error returns the last occurred error or nil if no error occurred.
func (l *lexer) error() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// Stop stops the lexing and closes the tokens channel.
func (l *lexer) Stop() {
	for range l.tokens {
	}
}

// lexer maintains the scanner status.
type lexer struct {
	src      string       // source on which the scan is performed
	verbatim string       // end marker of the current verbatim block, if not empty
	tokens   chan token   // tokens, is closed at the end of the scan
	err      *SyntaxError // error, reports whether there was an error
}

// delimiters of the tags, indexed by the character following '{'.
var delimiters = map[byte]struct {
	typ      tokenTyp
	end      string
	unclosed string
}{
	'{': {tokenVariable, "}}", "Unclosed variable tag"},
	'%': {tokenBlock, "%}", "Unclosed block tag"},
	'#': {tokenComment, "#}", "Unclosed comment"},
}

// emit emits a token of type typ spanning the bytes in [start,end) of the
// source. For tags, the content is the text between the delimiters without
// leading and trailing white space.
func (l *lexer) emit(typ tokenTyp, start, end int) {
	tok := token{typ: typ, span: ast.Span{Start: start, End: end}}
	switch typ {
	case tokenText:
		tok.txt = l.src[start:end]
		tok.content = tok.span
	case tokenEOF:
		tok.content = tok.span
	default:
		s, e := start+2, end-2
		for s < e && isSpace(l.src[s]) {
			s++
		}
		for e > s && isSpace(l.src[e-1]) {
			e--
		}
		tok.txt = l.src[s:e]
		tok.content = ast.Span{Start: s, End: e}
	}
	l.tokens <- tok
}

// scan scans the source by placing the tokens on the tokens channel. If an
// error occurs, it puts the error in err, closes the channel and returns.
func (l *lexer) scan() {

	p := 0 // index of the first byte of the current text

	for i := 0; i < len(l.src); {

		j := strings.IndexByte(l.src[i:], '{')
		if j < 0 || i+j+1 == len(l.src) {
			break
		}
		i += j
		delim, ok := delimiters[l.src[i+1]]
		if !ok {
			i++
			continue
		}

		n := strings.Index(l.src[i+2:], delim.end)
		if n < 0 {
			d := diagnostic.New(delim.unclosed, ast.Span{Start: i, End: len(l.src)}, "started here")
			l.err = &SyntaxError{Diagnostic: d}
			close(l.tokens)
			return
		}
		if strings.IndexByte(l.src[i+2:i+2+n], '\n') >= 0 {
			// Tags cannot span multiple lines.
			i++
			continue
		}
		end := i + 2 + n + 2

		if i > p {
			l.emit(tokenText, p, i)
		}
		l.emit(delim.typ, i, end)
		i, p = end, end

		if delim.typ == tokenBlock {
			if content := strings.TrimFunc(l.src[i-n-2:i-2], isSpaceRune); content == "verbatim" || strings.HasPrefix(content, "verbatim ") {
				l.verbatim = "end" + content
				i = l.skipVerbatimContent(i)
			}
		}

	}

	if p < len(l.src) {
		l.emit(tokenText, p, len(l.src))
	}
	l.emit(tokenEOF, len(l.src), len(l.src))

	close(l.tokens)
}

// skipVerbatimContent emits as text the content of the verbatim block that
// starts at index i of the source and returns the index of its end tag. If
// there is no end tag, the content extends to the end of the source.
func (l *lexer) skipVerbatimContent(i int) int {
	p := endVerbatimIndex(l.src[i:], l.verbatim)
	if p == -1 {
		p = len(l.src) - i
	}
	if p > 0 {
		l.emit(tokenText, i, i+p)
	}
	l.verbatim = ""
	return i + p
}

// endVerbatimIndex returns the index in src of the first block tag whose
// content is marker, or -1 if it is not present.
func endVerbatimIndex(src string, marker string) int {
	for i := 0; i < len(src); i++ {
		j := strings.Index(src[i:], "{%")
		if j == -1 {
			break
		}
		i += j
		n := strings.Index(src[i+2:], "%}")
		if n == -1 {
			break
		}
		if strings.TrimFunc(src[i+2:i+2+n], isSpaceRune) == marker {
			return i
		}
	}
	return -1
}

// isSpace reports whether c is a white space character.
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// isSpaceRune is like isSpace but for runes.
func isSpaceRune(r rune) bool {
	return r < 0x80 && isSpace(byte(r))
}
