// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Casers are stateful, so a new one is returned on every call.

func lowerCaser() cases.Caser { return cases.Lower(language.Und) }
func upperCaser() cases.Caser { return cases.Upper(language.Und) }

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts s to a slug. It decomposes the characters of s, keeps
// only ASCII characters, converts them to lower case, removes the characters
// that are not alphanumerics, underscores, hyphens or spaces, trims leading
// and trailing white space and replaces any sequence of hyphens and spaces
// with a single hyphen.
//
// For example "Héllo, World!" becomes "hello-world".
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFKD.String(s) {
		if r < utf8.RuneSelf {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	s = nonWord.ReplaceAllString(b.String(), "")
	s = strings.TrimSpace(s)
	return separators.ReplaceAllString(s, "-")
}

// StripTags removes the HTML tags and comments from s. Character references
// are left unchanged.
func StripTags(s string) string {
	for strings.Contains(s, "<") {
		stripped := stripTags(s)
		if stripped == s {
			break
		}
		s = stripped
	}
	return s
}

func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '<' || i+1 == len(s) || !isTagStart(s[i+1]) {
			b.WriteByte(c)
			continue
		}
		end := ">"
		if strings.HasPrefix(s[i:], "<!--") {
			end = "-->"
		}
		j := strings.Index(s[i+1:], end)
		if j < 0 {
			// Unterminated tags are removed up to the end.
			break
		}
		i += j + len(end)
	}
	return b.String()
}

func isTagStart(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '/' || c == '!' || c == '?'
}

// Title converts the first letter of each word of s to upper case and the
// other letters to lower case. A letter that follows a digit is a lower case
// letter, as is a letter following an apostrophe that follows a lower case
// letter, so "they're 1st" becomes "They're 1st".
func Title(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	lowered := false
	for i, r := range s {
		if !unicode.IsLetter(r) {
			b.WriteRune(r)
			prev = r
			continue
		}
		lower := false
		if i > 0 {
			switch {
			case prev == '\'':
				lower = lowered
			case '0' <= prev && prev <= '9', unicode.IsLetter(prev):
				lower = true
			}
		}
		if lower {
			b.WriteString(lowerCaser().String(string(r)))
		} else {
			b.WriteString(upperCaser().String(string(r)))
		}
		lowered = lower
		prev = r
	}
	return b.String()
}

// WordWrap wraps the lines of s at width characters. Existing line breaks
// and indentation are preserved and each added line break replaces the
// space it breaks. Words longer than width are not broken.
func WordWrap(s string, width int) string {
	var b strings.Builder
	b.Grow(len(s))
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		words := strings.Fields(trimmed)
		if len(words) == 0 {
			b.WriteString(line)
			continue
		}
		indent := line[:len(line)-len(trimmed)]
		b.WriteString(indent)
		b.WriteString(words[0])
		n := utf8.RuneCountInString(indent) + utf8.RuneCountInString(words[0])
		for _, word := range words[1:] {
			l := utf8.RuneCountInString(word)
			if n+l < width {
				b.WriteByte(' ')
				n += 1 + l
			} else {
				b.WriteByte('\n')
				n = l
			}
			b.WriteString(word)
		}
	}
	return b.String()
}
