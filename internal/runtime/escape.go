// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"strings"
	"unicode/utf8"
)

const hexchars = "0123456789ABCDEF"

type strWriter interface {
	Write(b []byte) (int, error)
	WriteString(s string) (int, error)
}

// HTMLEscape escapes the string s, so it can be placed inside HTML, and
// writes it on w.
func HTMLEscape(w strWriter, s string) error {
	last := 0
	for i := 0; i < len(s); i++ {
		var esc string
		switch s[i] {
		case '"':
			esc = "&quot;"
		case '\'':
			esc = "&#x27;"
		case '&':
			esc = "&amp;"
		case '<':
			esc = "&lt;"
		case '>':
			esc = "&gt;"
		default:
			continue
		}
		if last != i {
			_, err := w.WriteString(s[last:i])
			if err != nil {
				return err
			}
		}
		_, err := w.WriteString(esc)
		if err != nil {
			return err
		}
		last = i + 1
	}
	if last != len(s) {
		_, err := w.WriteString(s[last:])
		return err
	}
	return nil
}

// Escape returns s escaped for HTML.
func Escape(s string) string {
	if !strings.ContainsAny(s, `"'&<>`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	_ = HTMLEscape(&b, s)
	return b.String()
}

// jsEscapes contains the escape sequences of the ASCII characters escaped
// by EscapeJS, other than the control characters.
var jsEscapes = [128]string{
	'"':  `\u0022`,
	'&':  `\u0026`,
	'\'': `\u0027`,
	'-':  `\u002D`,
	';':  `\u003B`,
	'<':  `\u003C`,
	'=':  `\u003D`,
	'>':  `\u003E`,
	'\\': `\u005C`,
	'`':  "\\u0060",
}

// EscapeJS escapes the string s, so it can be placed inside a JavaScript
// string, and writes it on w.
func EscapeJS(w strWriter, s string) error {
	last := 0
	for i := 0; i < len(s); {
		c := s[i]
		var esc string
		size := 1
		switch {
		case c < 0x20:
			esc = `\u00` + string(hexchars[c>>4]) + string(hexchars[c&0xF])
		case c < utf8.RuneSelf:
			esc = jsEscapes[c]
		default:
			var r rune
			r, size = utf8.DecodeRuneInString(s[i:])
			switch r {
			case '\u2028':
				esc = `\u2028`
			case '\u2029':
				esc = `\u2029`
			}
		}
		if esc == "" {
			i += size
			continue
		}
		if last != i {
			_, err := w.WriteString(s[last:i])
			if err != nil {
				return err
			}
		}
		_, err := w.WriteString(esc)
		if err != nil {
			return err
		}
		i += size
		last = i
	}
	if last != len(s) {
		_, err := w.WriteString(s[last:])
		return err
	}
	return nil
}

// URLEscape percent-encodes the string s, so it can be placed inside a URL,
// and writes it on w. Letters, digits, the characters '_', '.', '-', '~' and
// the characters in safe are not encoded.
func URLEscape(w strWriter, s, safe string) error {
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
			c == '_' || c == '.' || c == '-' || c == '~' ||
			c < utf8.RuneSelf && strings.IndexByte(safe, c) >= 0 {
			continue
		}
		if last != i {
			_, err := w.WriteString(s[last:i])
			if err != nil {
				return err
			}
		}
		_, err := w.Write([]byte{'%', hexchars[c>>4], hexchars[c&0xF]})
		if err != nil {
			return err
		}
		last = i + 1
	}
	if last != len(s) {
		_, err := w.WriteString(s[last:])
		return err
	}
	return nil
}
