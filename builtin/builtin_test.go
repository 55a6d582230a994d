// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/open2b/dtl/internal/compiler"
	"github.com/open2b/dtl/internal/runtime"
	"github.com/open2b/dtl/native"
)

var registry = &compiler.Registry{
	Builtins:  Library(),
	Libraries: native.Libraries{"markup": Markup()},
}

func render(src string, vars map[string]any) (string, error) {
	tree, err := compiler.ParseString(src, nil, compiler.Options{Registry: registry})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	err = runtime.Render(&b, tree, vars, runtime.Options{
		Autoescape: true,
		FormatDate: FormatDate,
		Lorem:      Lorem,
	})
	return b.String(), err
}

type safeString string

func (s safeString) HTML() native.HTML { return native.HTML(s) }

var filterTests = []struct {
	src      string
	vars     map[string]any
	expected string
}{
	// add
	{`{{ 5|add:3 }}`, nil, `8`},
	{`{{ "1"|add:"2" }}`, nil, `3`},
	{`{{ a|add:"b" }}`, map[string]any{"a": "a"}, `ab`},
	{`{{ 1.5|add:1 }}`, nil, `2`},
	{`{{ a|add:b|length }}`, map[string]any{"a": []any{1}, "b": []string{"x", "y"}}, `3`},
	{`{{ a|add:1 }}`, map[string]any{"a": 9223372036854775807}, `9223372036854775808`},
	{`{{ a|add:1 }}`, map[string]any{"a": "x"}, ``},
	{`{{ missing|add:1 }}`, nil, ``},

	// addslashes
	{`{% autoescape off %}{{ a|addslashes }}{% endautoescape %}`, map[string]any{"a": `I'm "here"\`}, `I\'m \"here\"\\`},
	{`{{ a|addslashes }}`, map[string]any{"a": `'`}, `\&#x27;`},

	// capfirst
	{`{{ a|capfirst }}`, map[string]any{"a": "hello world"}, `Hello world`},
	{`{{ a|capfirst }}`, map[string]any{"a": "élan"}, `Élan`},
	{`{{ missing|capfirst }}`, nil, ``},
	{`{{ a|capfirst }}`, map[string]any{"a": []string{"hello"}}, `[&#x27;hello&#x27;]`},
	{`{{ a|capfirst }} {{ b|capfirst }}`, map[string]any{"a": "fred>", "b": native.HTML("fred&gt;")}, `Fred&gt; Fred&gt;`},
	{`{% for x in "ab" %}{{ forloop.first|capfirst }}{% endfor %}`, nil, `TrueFalse`},

	// center
	{`{{ a|center:5 }}`, map[string]any{"a": "123"}, ` 123 `},
	{`{{ a|center:15 }}`, map[string]any{"a": "Django"}, `     Django    `},
	{`{{ a|center:6 }}`, map[string]any{"a": "odd"}, ` odd  `},
	{`{{ a|center:7 }}`, map[string]any{"a": "even"}, `  even `},
	{`{{ a|center:2 }}`, map[string]any{"a": "test"}, `test`},
	{`{{ a|center:6.5 }}`, map[string]any{"a": "test"}, ` test `},
	{`{{ a|center:-5 }}`, map[string]any{"a": "test"}, `test`},

	// cut
	{`{{ a|cut:" " }}`, map[string]any{"a": "a b c"}, `abc`},
	{`{{ a|cut:"x" }} {{ b|cut:"x" }}`, map[string]any{"a": "x&y", "b": native.HTML("x&amp;y")}, `&amp;y &amp;y`},
	{`{{ b|cut:";" }}`, map[string]any{"b": native.HTML("&amp;")}, `&amp;amp`},

	// date
	{`{{ d|date }}`, map[string]any{"d": time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)}, `Jan. 1, 2008`},
	{`{{ d|date:"d F Y" }}`, map[string]any{"d": time.Date(2005, 12, 29, 0, 0, 0, 0, time.UTC)}, `29 December 2005`},
	{`{{ d|date:"m" }}`, map[string]any{"d": time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)}, `01`},
	{`{{ d|date:"Y" }}`, map[string]any{"d": "fail_string"}, ``},
	{`{{ d|date:"Y" }}`, map[string]any{"d": nil}, ``},
	{`{{ missing|date:"Y" }}`, nil, ``},

	// default and default_if_none
	{`{{ a|default:"x" }}`, map[string]any{"a": ""}, `x`},
	{`{{ a|default:"x" }}`, map[string]any{"a": 0}, `x`},
	{`{{ a|default:"x" }}`, map[string]any{"a": "a"}, `a`},
	{`{{ missing|default:"x" }}`, nil, `x`},
	{`{{ a|default_if_none:"x" }}`, map[string]any{"a": nil}, `x`},
	{`{{ a|default_if_none:"x" }}`, map[string]any{"a": 0}, `0`},
	{`{{ missing|default_if_none:"x" }}`, nil, ``},

	// divisibleby
	{`{{ a|divisibleby:2 }}`, map[string]any{"a": 4}, `True`},
	{`{{ a|divisibleby:2 }}`, map[string]any{"a": 5}, `False`},
	{`{{ a|divisibleby:5 }}`, map[string]any{"a": -10}, `True`},
	{`{{ a|divisibleby:2 }}`, map[string]any{"a": "6"}, `True`},
	{`{{ a|divisibleby:10 }}`, map[string]any{"a": new(big.Int).Lsh(big.NewInt(10), 100)}, `True`},

	// escape and force_escape
	{`{{ a|escape }}`, map[string]any{"a": `<a href="x">`}, `&lt;a href=&quot;x&quot;&gt;`},
	{`{% autoescape off %}{{ a|escape }}{% endautoescape %}`, map[string]any{"a": `<`}, `&lt;`},
	{`{{ a|escape }}`, map[string]any{"a": native.HTML("<b>")}, `<b>`},
	{`{{ a|force_escape }}`, map[string]any{"a": native.HTML("<b>")}, `&lt;b&gt;`},
	{`{{ a|safe|escape }}`, map[string]any{"a": "<b>"}, `<b>`},

	// escapejs
	{`{{ a|escapejs }}`, map[string]any{"a": `"a'`}, `\u0022a\u0027`},
	{`{{ a|escapejs }}`, map[string]any{"a": " \x01"}, ` \u0001`},

	// first and last
	{`{{ a|first }}{{ a|last }}`, map[string]any{"a": []any{"a", "b", "c"}}, `ac`},
	{`{{ a|first }}`, map[string]any{"a": []int{0, 1}}, `0`},
	{`{{ a|first }}`, map[string]any{"a": []any{}}, ``},
	{`{{ a|last }}`, map[string]any{"a": "hello"}, `o`},
	{`{{ a|last }} {{ b|last }}`, map[string]any{"a": []any{"x", "a&b"}, "b": []any{"x", native.HTML("a&b")}}, `a&amp;b a&b`},
	{`{{ missing|last }}`, nil, ``},

	// join
	{`{{ a|join:", " }}`, map[string]any{"a": []string{"a", "<b>"}}, `a, &lt;b&gt;`},
	{`{% autoescape off %}{{ a|join:"<br>" }}{% endautoescape %}`, map[string]any{"a": []string{"a", "<b>"}}, `a<br><b>`},
	{`{{ a|join:"-" }}`, map[string]any{"a": []any{1, 2, native.HTML("<i>")}}, `1-2-<i>`},

	// length
	{`{{ a|length }}`, map[string]any{"a": []int{1, 2, 3}}, `3`},
	{`{{ a|length }}`, map[string]any{"a": "héllo"}, `5`},
	{`{{ a|length }}`, map[string]any{"a": 5}, `0`},
	{`{{ missing|length }}`, nil, `0`},

	// linebreaksbr
	{`{{ a|linebreaksbr }}`, map[string]any{"a": "a\nb<\r\nc"}, `a<br>b&lt;<br>c`},
	{`{% autoescape off %}{{ a|linebreaksbr }}{% endautoescape %}`, map[string]any{"a": "<b>\n"}, `<b><br>`},

	// lower and upper
	{`{{ a|lower }}`, map[string]any{"a": "ÀB"}, `àb`},
	{`{{ a|upper }}`, map[string]any{"a": "àb&"}, `ÀB&amp;`},
	{`{{ a|upper }}`, map[string]any{"a": native.HTML("<i>")}, `<I>`},
	{`{{ missing|upper }}`, nil, ``},

	// safe
	{`{{ a|safe }}`, map[string]any{"a": "<b>"}, `<b>`},
	{`{{ a|safe }}`, map[string]any{"a": 5}, `5`},

	// slugify
	{`{{ a|slugify }}`, map[string]any{"a": " Héllo, World! "}, `hello-world`},
	{`{{ a|slugify }}`, map[string]any{"a": "a & b"}, `a-b`},
	{`{{ a|slugify }}`, map[string]any{"a": "a&€%"}, `a`},
	{`{{ a|slugify }}`, map[string]any{"a": 1}, `1`},
	{`{{ a|slugify }}`, map[string]any{"a": true}, `true`},

	// striptags
	{`{{ a|striptags }}`, map[string]any{"a": "<p>Hello <b>World</b></p><!-- c -->"}, `Hello World`},
	{`{{ a|striptags }}`, map[string]any{"a": "1 < 2"}, `1 &lt; 2`},

	// title
	{`{{ a|title }}`, map[string]any{"a": "they're bill's 1st"}, `They&#x27;re Bill&#x27;s 1st`},
	{`{{ a|title }}`, map[string]any{"a": "hELLO wORLD"}, `Hello World`},

	// urlencode
	{`{{ a|urlencode }}`, map[string]any{"a": "a b/c?"}, `a%20b/c%3F`},
	{`{{ a|urlencode:"" }}`, map[string]any{"a": "a b/c?"}, `a%20b%2Fc%3F`},

	// wordcount
	{`{{ a|wordcount }}`, map[string]any{"a": "a b  c\n d"}, `4`},
	{`{{ missing|wordcount }}`, nil, `0`},

	// wordwrap
	{`{{ a|wordwrap:10 }}`, map[string]any{"a": "Joel is a slug"}, "Joel is a\nslug"},
	{`{{ a|wordwrap:"10" }}`, map[string]any{"a": "Joel is a slug"}, "Joel is a\nslug"},
	{`{{ a|wordwrap:10.7 }}`, map[string]any{"a": "Joel is a slug"}, "Joel is a\nslug"},
	{`{{ a|wordwrap:w }}`, map[string]any{"a": "Joel is a slug", "w": new(big.Int).Lsh(big.NewInt(1), 70)}, "Joel is a slug"},
	{`{{ a|wordwrap:3 }} {{ b|safe|wordwrap:3 }}`, map[string]any{"a": "a & b", "b": "a & b"}, "a &amp;\nb a &\nb"},
	{`{{ missing|wordwrap:10 }}`, nil, ``},

	// yesno
	{`{{ a|yesno }}`, map[string]any{"a": true}, `yes`},
	{`{{ a|yesno }}`, map[string]any{"a": nil}, `maybe`},
	{`{{ missing|yesno }}`, nil, `no`},
	{`{{ a|yesno:"y,n" }}`, map[string]any{"a": nil}, `n`},
	{`{{ a|yesno:"y,n,m" }}`, map[string]any{"a": 0}, `n`},
	{`{{ a|yesno:"y" }}`, map[string]any{"a": 0}, `0`},

	// markup
	{`{% load markup %}{{ "# Hi *there*"|markdown }}`, nil, "<h1>Hi <em>there</em></h1>\n"},
	{`{% load markup %}{{ a|markdown }}`, map[string]any{"a": "<script>"}, "<!-- raw HTML omitted -->\n"},
}

func TestFilters(t *testing.T) {
	for _, test := range filterTests {
		t.Run(test.src, func(t *testing.T) {
			out, err := render(test.src, test.vars)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if out != test.expected {
				t.Fatalf("expecting %q, got %q", test.expected, out)
			}
		})
	}
}

var filterErrorTests = []struct {
	src     string
	vars    map[string]any
	kind    error
	message string
	span    string
	label   string
}{
	{`{{ t|wordwrap:0 }}`, map[string]any{"t": "hello"}, runtime.ErrValue, `invalid width 0 (must be > 0)`, "14:15", "width"},
	{`{{ t|wordwrap:-5 }}`, map[string]any{"t": "hello"}, runtime.ErrValue, `invalid width -5 (must be > 0)`, "14:16", "width"},
	{`{{ t|wordwrap:"x" }}`, map[string]any{"t": "hello"}, runtime.ErrValue, `Couldn't convert argument ('x') to integer`, "14:17", "argument"},
	{`{{ t|center:w }}`, map[string]any{"t": "hello", "w": "x"}, runtime.ErrValue, `Couldn't convert argument ('x') to integer`, "12:13", "argument"},
	{`{{ 10|divisibleby:0 }}`, nil, runtime.ErrZeroDivision, `integer modulo by zero`, "18:19", "here"},
	{`{{ n|divisibleby:2 }}`, map[string]any{"n": nil}, runtime.ErrType, `int() argument must be a string, a bytes-like object or a real number, not 'NoneType'`, "5:16", "here"},
	{`{{ missing|divisibleby:2 }}`, nil, runtime.ErrValue, `invalid literal for int() with base 10: ''`, "11:22", "here"},
	{`{{ v|last }}`, map[string]any{"v": 123}, runtime.ErrType, `'int' object is not subscriptable`, "5:9", "here"},
	{`{{ v|first }}`, map[string]any{"v": nil}, runtime.ErrType, `'NoneType' object is not subscriptable`, "5:10", "here"},
}

func TestFilterErrors(t *testing.T) {
	for _, test := range filterErrorTests {
		t.Run(test.src, func(t *testing.T) {
			_, err := render(test.src, test.vars)
			if err == nil {
				t.Fatal("expecting error, got nil")
			}
			var e *runtime.Error
			if !errors.As(err, &e) {
				t.Fatalf("unexpected error %T: %s", err, err)
			}
			if !errors.Is(err, test.kind) {
				t.Fatalf("unexpected error kind %v, expecting %v", e.Err, test.kind)
			}
			if e.Diagnostic.Message != test.message {
				t.Fatalf("unexpected message %q, expecting %q", e.Diagnostic.Message, test.message)
			}
			l := e.Diagnostic.Labels[0]
			if l.Span.String() != test.span || l.Text != test.label {
				t.Fatalf("unexpected label %s %q, expecting %s %q", l.Span, l.Text, test.span, test.label)
			}
		})
	}
}

func TestSafeStringer(t *testing.T) {
	out, err := render(`{{ a|upper }}{{ a|cut:"b" }}`, map[string]any{"a": safeString("<b>")})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if expected := "<B><>"; out != expected {
		t.Fatalf("expecting %q, got %q", expected, out)
	}
}

var wordWrapTests = []struct {
	width    int
	text     string
	expected string
}{
	{20, "short", "short"},
	{5, "verylongword", "verylongword"},
	{10, "line one\nline two is longer", "line one\nline two\nis longer"},
	{10, "hello    world", "hello\nworld"},
	{10, "", ""},
	{1, "a b c", "a\nb\nc"},
	{10, "hello world\n", "hello\nworld\n"},
	{10, "   ", "   "},
	{10, "hello\tworld world", "hello\nworld\nworld"},
	{10, "line1\n\nline2", "line1\n\nline2"},
	{15, "The quick brown fox jumps over the lazy dog", "The quick brown\nfox jumps over\nthe lazy dog"},
	{12, "a bb ccc dddd eeeee", "a bb ccc\ndddd eeeee"},
	{14, "this is a short paragraph of text.\n  But this line should be indented",
		"this is a\nshort\nparagraph of\ntext.\n  But this\nline should be\nindented"},
	{5, "first line\n \t\t\t \nsecond line", "first\nline\n \t\t\t \nsecond\nline"},
}

func TestWordWrap(t *testing.T) {
	for _, test := range wordWrapTests {
		if got := WordWrap(test.text, test.width); got != test.expected {
			t.Errorf("WordWrap(%q, %d): expecting %q, got %q", test.text, test.width, test.expected, got)
		}
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		src      string
		expected string
	}{
		{"", ""},
		{"a < b", "a < b"},
		{"<p>a</p>", "a"},
		{"<<b>p>x</p>", "x"},
		{"x<!-- <b> -->y", "xy"},
		{"a <b", "a "},
		{"&lt;b&gt;", "&lt;b&gt;"},
	}
	for _, test := range tests {
		if got := StripTags(test.src); got != test.expected {
			t.Errorf("StripTags(%q): expecting %q, got %q", test.src, test.expected, got)
		}
	}
}
