// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/internal/compiler"
	"github.com/open2b/dtl/native"

	"golang.org/x/tools/txtar"
)

func toUpper(_ native.Env, v any, _ ...any) (any, error) {
	s, err := ToString(v)
	return strings.ToUpper(s), err
}

func withDefault(_ native.Env, v any, args ...any) (any, error) {
	if t, err := Truth(v); err != nil || t {
		return v, err
	}
	return args[0], nil
}

func add(_ native.Env, v any, args ...any) (any, error) {
	a, ok1 := ToInt(v)
	b, ok2 := ToInt(args[0])
	if !ok1 || !ok2 {
		return nil, native.ArgumentErrorf(native.TypeError, "not an int", "unsupported operand types")
	}
	return a + b, nil
}

func multiply(_ native.Env, args []any, _ map[string]any) (any, error) {
	p := 1
	for _, arg := range args {
		n, ok := ToInt(arg)
		if !ok {
			return nil, native.Errorf(native.ValueError, "%v is not a number", arg)
		}
		p *= n
	}
	return p, nil
}

func repeat(_ native.Env, args []any, _ map[string]any) (any, error) {
	n, _ := ToInt(args[1])
	return native.HTML(strings.Repeat(string(args[0].(native.HTML)), n)), nil
}

func greet(env native.Env, args []any, kwargs map[string]any) (any, error) {
	user, _ := env.Vars().Get("user")
	return fmt.Sprintf("%s %v, %v%s", kwargs["greeting"], args[0], user, kwargs["punct"]), nil
}

var errHost = errors.New("host error")

var testRegistry = &compiler.Registry{
	Builtins: &native.Library{
		Filters: map[string]*native.Filter{
			"upper":   {Name: "upper", Func: toUpper, Arity: native.NoArg},
			"default": {Name: "default", Func: withDefault, Arity: native.RequiredArg},
			"add":     {Name: "add", Func: add, Arity: native.RequiredArg},
			"safe": {Name: "safe", Arity: native.NoArg, Func: func(_ native.Env, v any, _ ...any) (any, error) {
				s, err := ToString(v)
				return native.HTML(s), err
			}},
			"fail": {Name: "fail", Arity: native.NoArg, Func: func(native.Env, any, ...any) (any, error) {
				return nil, native.Errorf(native.ValueError, "invalid value")
			}},
			"host": {Name: "host", Arity: native.NoArg, Func: func(native.Env, any, ...any) (any, error) {
				return nil, errHost
			}},
		},
		Tags: map[string]*native.Tag{
			"multiply": {Name: "multiply", Func: multiply, Params: []string{"a", "b", "c"}, Defaults: []any{1}},
			"repeat":   {Name: "repeat", Func: repeat, Params: []string{"content", "n"}, Block: true},
			"greet": {Name: "greet", Func: greet, Params: []string{"context", "name"}, TakesContext: true,
				KwOnly: []string{"greeting", "punct"}, KwOnlyDefaults: map[string]any{"greeting": "Hello", "punct": "!"}},
		},
	},
}

// notExist is the error returned by archiveLoader for missing templates.
type notExist string

func (e notExist) Error() string        { return string(e) }
func (e notExist) Is(target error) bool { return target == ErrTemplateDoesNotExist }

// archiveLoader loads the templates from a txtar archive.
type archiveLoader struct {
	files map[string]string
}

func newArchiveLoader(archive string) *archiveLoader {
	l := &archiveLoader{files: map[string]string{}}
	for _, f := range txtar.Parse([]byte(archive)).Files {
		l.files[f.Name] = strings.TrimSuffix(string(f.Data), "\n")
	}
	return l
}

func (l *archiveLoader) Read(name string) (string, error) {
	src, ok := l.files[name]
	if !ok {
		return "", notExist(name)
	}
	return src, nil
}

func (l *archiveLoader) Template(names ...string) (*ast.Tree, error) {
	for _, name := range names {
		if _, ok := l.files[name]; ok {
			return compiler.ParseTemplate(name, l, nil, compiler.Options{Registry: testRegistry})
		}
	}
	return nil, notExist(strings.Join(names, ", "))
}

const renderArchive = `
-- base.html --
<title>{% block title %}Base{% endblock %}</title>{% block body %}{% endblock %}
-- greet.html --
Hello {{ name }}!
-- dir/relative.html --
{% include "./greet.html" %}
-- dir/greet.html --
Hi {{ name }}.
-- nested.html --
{% include "greet.html" with name="Nested" %}
-- loop.html --
{% include "loop.html" %}
`

type person struct {
	Name  string
	Title string `template:"title"`
	Age   int    `template:"-"`
}

func (p person) Greeting() string {
	return "Hi " + p.Name
}

func (p person) Fail() (string, error) {
	return "", errHost
}

// lazyText is a lazily translated string.
type lazyText string

func (lazyText) Translatable() {}

func (t lazyText) TemplateString() (string, error) { return string(t), nil }

type urlResolver struct{}

func (urlResolver) Reverse(_ native.Env, name string, args []any, kwargs map[string]any) (string, error) {
	if name != "home" {
		return "", fmt.Errorf("Reverse for '%s' not found. '%s' is not a valid view function or pattern name.: %w",
			name, name, ErrNoReverseMatch)
	}
	u := "/" + name + "/"
	for _, arg := range args {
		u += fmt.Sprint(arg) + "/"
	}
	if q, ok := kwargs["q"]; ok {
		u += fmt.Sprintf("?q=%v&x=1", q)
	}
	return u, nil
}

var testNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func testOptions(loader *archiveLoader) Options {
	return Options{
		Autoescape:  true,
		Now:         testNow,
		Loader:      loader,
		URLResolver: urlResolver{},
		FormatDate: func(t time.Time, format string) (string, error) {
			if format == "bad" {
				return "", native.Errorf(native.ValueError, "bad format")
			}
			return format + ":" + t.Format("2006"), nil
		},
		Lorem: func(count int, method ast.LoremMethod, common bool) string {
			return fmt.Sprintf("lorem(%d,%s,%t)", count, method, common)
		},
	}
}

func render(src string, vars map[string]any, opts Options) (string, error) {
	loader := opts.Loader.(*archiveLoader)
	tree, err := compiler.ParseString(src, loader, compiler.Options{Registry: testRegistry})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	err = Render(&b, tree, vars, opts)
	return b.String(), err
}

var renderTests = []struct {
	src      string
	vars     map[string]any
	expected string
}{
	// Output.
	{`a`, nil, `a`},
	{`{{ a }}`, map[string]any{"a": `<b class="x">'&'</b>`}, `&lt;b class=&quot;x&quot;&gt;&#x27;&amp;&#x27;&lt;/b&gt;`},
	{`{{ "<b>" }}`, nil, `<b>`},
	{`{{ a|safe }}`, map[string]any{"a": "<b>"}, `<b>`},
	{`{{ a }}`, map[string]any{"a": native.HTML("<b>")}, `<b>`},
	{`{{ missing }}`, nil, ``},
	{`{{ missing|default:"x" }}`, nil, `x`},
	{`{{ a|upper }}`, map[string]any{"a": "abc"}, `ABC`},
	{`{{ 5|add:3 }}`, nil, `8`},
	{`{{ 1.5 }}`, nil, `1.5`},
	{`{{ 2.0 }}`, nil, `2.0`},
	{`{{ 123456789012345678901234567890 }}`, nil, `123456789012345678901234567890`},
	{`{{ None }} {{ True }} {{ False }}`, nil, `None True False`},
	{`{{ a }}`, map[string]any{"a": []any{"x", 1, nil, true}}, `[&#x27;x&#x27;, 1, None, True]`},
	{`{{ a }}`, map[string]any{"a": map[string]any{"b": 1, "a": "x"}}, `{&#x27;a&#x27;: &#x27;x&#x27;, &#x27;b&#x27;: 1}`},

	// Variables.
	{`{{ a.b.c }}`, map[string]any{"a": map[string]any{"b": map[string]any{"c": "deep"}}}, `deep`},
	{`{{ a.1 }}`, map[string]any{"a": []string{"x", "y"}}, `y`},
	{`{{ a.5 }}`, map[string]any{"a": []string{"x", "y"}}, ``},
	{`{{ a.1 }}`, map[string]any{"a": "xyz"}, `y`},
	{`{{ a.2 }}`, map[string]any{"a": map[int]string{2: "two"}}, `two`},
	{`{{ p.Name }} {{ p.title }} {{ p.Title }} {{ p.Age }}`, map[string]any{"p": person{Name: "Ann", Title: "Dr", Age: 40}}, `Ann Dr  `},
	{`{{ p.Greeting }}`, map[string]any{"p": &person{Name: "Ann"}}, `Hi Ann`},
	{`{{ f }}`, map[string]any{"f": func() string { return "called" }}, `called`},
	{`{{ f }}`, map[string]any{"f": func(int) string { return "called" }}, ``},
	{`{{ m.keys }}`, map[string]any{"m": map[string]int{"b": 2, "a": 1}}, `[&#x27;a&#x27;, &#x27;b&#x27;]`},

	// If.
	{`{% if a %}yes{% else %}no{% endif %}`, map[string]any{"a": 1}, `yes`},
	{`{% if a %}yes{% else %}no{% endif %}`, map[string]any{"a": []int{}}, `no`},
	{`{% if missing %}yes{% else %}no{% endif %}`, nil, `no`},
	{`{% if a and not b %}yes{% else %}no{% endif %}`, map[string]any{"a": true, "b": false}, `yes`},
	{`{% if a or b %}yes{% else %}no{% endif %}`, map[string]any{"a": 0, "b": "x"}, `yes`},
	{`{% if a|fail or b %}yes{% else %}no{% endif %}`, map[string]any{"a": 0, "b": "x"}, `no`},
	{`{% if not a|fail %}yes{% else %}no{% endif %}`, nil, `no`},
	{`{% if a == 1 %}yes{% endif %}`, map[string]any{"a": 1.0}, `yes`},
	{`{% if a != "x" %}yes{% endif %}`, map[string]any{"a": "y"}, `yes`},
	{`{% if a < b %}yes{% endif %}`, map[string]any{"a": 1, "b": 2.5}, `yes`},
	{`{% if a >= "b" %}yes{% else %}no{% endif %}`, map[string]any{"a": "a"}, `no`},
	{`{% if a > 1 %}yes{% else %}no{% endif %}`, map[string]any{"a": "2"}, `no`},
	{`{% if "b" in "abc" %}yes{% endif %}`, nil, `yes`},
	{`{% if 2 in a %}yes{% endif %}`, map[string]any{"a": []int{1, 2}}, `yes`},
	{`{% if "k" in a %}yes{% endif %}`, map[string]any{"a": map[string]int{"k": 1}}, `yes`},
	{`{% if 3 not in a %}yes{% endif %}`, map[string]any{"a": []int{1, 2}}, `yes`},
	{`{% if 3 not in a %}yes{% else %}no{% endif %}`, map[string]any{"a": 5}, `no`},
	{`{% if missing is None %}yes{% endif %}`, nil, `yes`},
	{`{% if a is not None %}yes{% endif %}`, map[string]any{"a": 0}, `yes`},
	{`{% if a is True %}yes{% endif %}`, map[string]any{"a": true}, `yes`},
	{`{% if a %}1{% elif b %}2{% else %}3{% endif %}`, map[string]any{"b": 1}, `2`},

	// For.
	{`{% for x in a %}{{ forloop.counter }}:{{ x }}{% if not forloop.last %},{% endif %}{% endfor %}`,
		map[string]any{"a": []string{"a", "b", "c"}}, `1:a,2:b,3:c`},
	{`{% for x in a reversed %}{{ x }}{{ forloop.revcounter0 }}{% endfor %}`, map[string]any{"a": []int{1, 2, 3}}, `322110`},
	{`{% for x in a %}x{% empty %}none{% endfor %}`, map[string]any{"a": []int{}}, `none`},
	{`{% for x in missing %}x{% empty %}none{% endfor %}`, nil, `none`},
	{`{% for x in None %}x{% empty %}none{% endfor %}`, nil, `none`},
	{`{% for c in "ab" %}[{{ c }}]{% endfor %}`, nil, `[a][b]`},
	{`{% for k in m %}{{ k }}{% endfor %}`, map[string]any{"m": map[string]int{"b": 2, "a": 1, "c": 3}}, `abc`},
	{`{% for k, v in m.items %}{{ k }}={{ v }};{% endfor %}`, map[string]any{"m": map[string]int{"b": 2, "a": 1}}, `a=1;b=2;`},
	{`{% for a, b in l %}{{ a }}{{ b }}{% endfor %}`, map[string]any{"l": [][]int{{1, 2}, {3, 4}}}, `1234`},
	{`{% for x in a %}{% for y in a %}{{ forloop.parentloop.counter }}{{ forloop.counter }} {% endfor %}{% endfor %}`,
		map[string]any{"a": []int{1, 2}}, `11 12 21 22 `},
	{`{% for x in a %}{{ forloop }}{% endfor %}`, map[string]any{"a": []int{1}},
		`{&#x27;parentloop&#x27;: {}, &#x27;counter0&#x27;: 0, &#x27;counter&#x27;: 1, &#x27;revcounter&#x27;: 1, &#x27;revcounter0&#x27;: 0, &#x27;first&#x27;: True, &#x27;last&#x27;: True}`},
	{`{% for x in a %}{% endfor %}{{ x }}`, map[string]any{"a": []int{1}}, ``},

	// With and autoescape.
	{`{% with b=a|add:1 c="<i>" %}{{ b }}{{ c }}{% endwith %}{{ b }}`, map[string]any{"a": 1}, `2<i>`},
	{`{% autoescape off %}{{ a }}{% endautoescape %}{{ a }}`, map[string]any{"a": "<b>"}, `<b>&lt;b&gt;`},

	// Simple tags.
	{`{% multiply 2 3 c=4 %}`, nil, `24`},
	{`{% multiply 2 b=5 %}`, nil, `10`},
	{`{% multiply 2 3 as r %}[{{ r }}]`, nil, `[6]`},
	{`{% repeat 2 %}<{{ a }}>{% endrepeat %}`, map[string]any{"a": "&"}, `<&amp;><&amp;>`},
	{`{% greet "Bob" %}`, map[string]any{"user": "Ann"}, `Hello Bob, Ann!`},
	{`{% greet name="Bob" greeting="Hi" punct="?" %}`, map[string]any{"user": "<Ann>"}, `Hi Bob, &lt;Ann&gt;?`},

	// Other tags.
	{`{% csrf_token %}`, map[string]any{"csrf_token": `a"b`}, `<input type="hidden" name="csrfmiddlewaretoken" value="a&quot;b">`},
	{`{% csrf_token %}`, map[string]any{"csrf_token": "NOTPROVIDED"}, ``},
	{`{% csrf_token %}`, nil, ``},
	{`{% templatetag openblock %} {% templatetag closevariable %}`, nil, `{% }}`},
	{`{% now "Y" %}`, nil, `Y:2025`},
	{`{% now "Y" as year %}[{{ year }}]`, nil, `[Y:2025]`},
	{`{% lorem %}`, nil, `lorem(1,b,true)`},
	{`{% lorem 3 w random %}`, nil, `lorem(3,w,false)`},
	{`{% lorem n p %}`, map[string]any{"n": "2"}, `lorem(2,p,true)`},
	{`{% url "home" 1 q="a b" %}`, nil, `/home/1/?q=a b&amp;x=1`},
	{`{% url "other" as u %}[{{ u }}]`, nil, `[]`},
	{`{% url "home" as u %}{{ u }}`, nil, `/home/`},

	// Inheritance and includes.
	{`{% extends "base.html" %}{% block title %}Child {{ block.super }}{% endblock %}`, nil, `<title>Child Base</title>`},
	{`{% extends parent %}{% block body %}Body{% endblock %}`, map[string]any{"parent": "base.html"}, `<title>Base</title>Body`},
	{`{% block a %}A{% block b %}B{% endblock %}{% endblock %}`, nil, `AB`},
	{`{% include "greet.html" %}`, map[string]any{"name": "Ann"}, `Hello Ann!`},
	{`{% include "greet.html" with name="Bob" %}{{ name }}`, map[string]any{"name": "Ann"}, `Hello Bob!Ann`},
	{`{% include "greet.html" only %}`, map[string]any{"name": "Ann"}, `Hello !`},
	{`{% include "greet.html" with name=missing %}`, map[string]any{"name": "Ann"}, `Hello !`},
	{`{% include t %}`, map[string]any{"t": "greet.html", "name": "Ann"}, `Hello Ann!`},
	{`{% include t %}`, map[string]any{"t": []string{"none.html", "greet.html"}, "name": "Ann"}, `Hello Ann!`},
	{`{% include "nested.html" %}`, nil, `Hello Nested!`},
	{`{% include "dir/relative.html" with name="Rel" %}`, nil, `Hi Rel.`},
}

func TestRender(t *testing.T) {
	loader := newArchiveLoader(renderArchive)
	for _, test := range renderTests {
		t.Run(test.src, func(t *testing.T) {
			out, err := render(test.src, test.vars, testOptions(loader))
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if out != test.expected {
				t.Fatalf("unexpected output %q, expecting %q", out, test.expected)
			}
		})
	}
}

func TestStringIfInvalid(t *testing.T) {
	loader := newArchiveLoader(renderArchive)
	opts := testOptions(loader)
	opts.StringIfInvalid = "<invalid>"
	out, err := render(`{{ missing }}|{{ a.b }}|{% with x=missing %}{{ x }}{% endwith %}`, map[string]any{"a": 1}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if expected := "&lt;invalid&gt;|&lt;invalid&gt;|&lt;invalid&gt;"; out != expected {
		t.Fatalf("unexpected output %q, expecting %q", out, expected)
	}
}

type label struct {
	span string
	text string
}

var renderErrorTests = []struct {
	src     string
	vars    map[string]any
	kind    error
	message string
	labels  []label
}{
	{`{{ a|default:missing }}`, map[string]any{"a": 1}, ErrVariableDoesNotExist,
		`Failed lookup for key [missing] in {"False": False, "None": None, "True": True, "a": 1}`,
		[]label{{"13:20", "key"}}},
	{`{{ n|add:foo.bar.x }}`, map[string]any{"n": 1, "foo": map[string]any{"bar": 3}}, ErrVariableDoesNotExist,
		`Failed lookup for key [x] in 3`,
		[]label{{"17:18", "key"}, {"9:16", "3"}}},
	{`{% multiply a.b 2 %}`, map[string]any{"a": "s"}, ErrVariableDoesNotExist,
		`Failed lookup for key [b] in 's'`,
		[]label{{"14:15", "key"}, {"12:13", "'s'"}}},
	{`{{ a|fail }}`, nil, ErrValue, `invalid value`, []label{{"5:9", "here"}}},
	{`{{ a|add:"x" }}`, map[string]any{"a": 1}, ErrType, `unsupported operand types`, []label{{"9:12", "not an int"}}},
	{`{% for x in 5 %}{% endfor %}`, nil, ErrType, `'int' object is not iterable`, []label{{"12:13", "here"}}},
	{`{% for a, b in l %}{% endfor %}`, map[string]any{"l": []string{"abc"}}, ErrValue,
		`Need 2 values to unpack; got 3.`, []label{{"7:11", "unpacked here"}, {"15:16", "from here"}}},
	{`{% for a, b in l %}{% endfor %}`, map[string]any{"l": []int{1}}, ErrValue,
		`Need 2 values to unpack; got 1.`, []label{{"7:11", "unpacked here"}, {"15:16", "from here"}}},
	{`{% include "none.html" %}`, nil, ErrTemplateDoesNotExist, `none.html`, []label{{"11:22", "here"}}},
	{`{% include t %}`, nil, ErrTemplateDoesNotExist, `No template names provided`,
		[]label{{"11:12", "This variable is not in the context"}}},
	{`{% include t %}`, map[string]any{"t": 5}, ErrType, `Included template name must be a string or iterable of strings.`,
		[]label{{"11:12", "invalid template name: 5"}}},
	{`{% include t %}`, map[string]any{"t": "./greet.html"}, ErrTemplateDoesNotExist,
		`The relative path './greet.html' cannot be evaluated due to an unknown template origin.`, []label{{"11:12", "here"}}},
	{`{% include "loop.html" %}`, nil, ErrValue, `Maximum include depth of 32 exceeded`, []label{{"11:22", "here"}}},
	{`{% extends parent %}`, map[string]any{"parent": 3}, ErrType,
		`Invalid template name in 'extends' tag: 3. Got this from the 'parent' variable.`, []label{{"11:17", "here"}}},
	{`{% extends parent %}`, nil, ErrType,
		`Invalid template name in 'extends' tag: ''. Got this from the 'parent' variable.`, []label{{"11:17", "here"}}},
	{`{% include t %}`, map[string]any{"t": lazyText("greet.html")}, ErrType,
		`Included template name cannot be a translatable string.`, []label{{"11:12", "invalid template name"}}},
	{`{% extends t %}`, map[string]any{"t": lazyText("base.html")}, ErrType,
		`Extended template name cannot be a translatable string.`, []label{{"11:12", "invalid template name"}}},
	{`{% multiply "x" 2 %}`, nil, ErrValue, `x is not a number`, []label{{"0:20", "here"}}},
	{`{% url "other" %}`, nil, ErrNoReverseMatch,
		`Reverse for 'other' not found. 'other' is not a valid view function or pattern name.: no reverse match`,
		[]label{{"0:17", "here"}}},
	{`{% now "bad" %}`, nil, ErrValue, `bad format`, []label{{"0:15", "here"}}},
}

func TestRenderErrors(t *testing.T) {
	loader := newArchiveLoader(renderArchive)
	for _, test := range renderErrorTests {
		t.Run(test.src, func(t *testing.T) {
			out, err := render(test.src, test.vars, testOptions(loader))
			if err == nil {
				t.Fatalf("expecting error, got output %q", out)
			}
			if out != "" {
				t.Fatalf("unexpected output %q", out)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("unexpected error %T: %s", err, err)
			}
			if !errors.Is(err, test.kind) {
				t.Fatalf("unexpected error kind %v, expecting %v", e.Err, test.kind)
			}
			if e.Diagnostic.Message != test.message {
				t.Fatalf("unexpected message %q, expecting %q", e.Diagnostic.Message, test.message)
			}
			if len(e.Diagnostic.Labels) != len(test.labels) {
				t.Fatalf("unexpected labels %v, expecting %v", e.Diagnostic.Labels, test.labels)
			}
			for i, l := range e.Diagnostic.Labels {
				if l.Span.String() != test.labels[i].span || l.Text != test.labels[i].text {
					t.Fatalf("unexpected label %s %q, expecting %s %q", l.Span, l.Text, test.labels[i].span, test.labels[i].text)
				}
			}
		})
	}
}

func TestHostErrors(t *testing.T) {
	loader := newArchiveLoader(renderArchive)
	tests := []struct {
		src  string
		vars map[string]any
	}{
		{`{{ a|host }}`, nil},
		{`{{ p.Fail }}`, map[string]any{"p": person{}}},
		{`{% if p.Fail %}{% endif %}{{ p.Fail }}`, map[string]any{"p": person{}}},
	}
	for _, test := range tests {
		_, err := render(test.src, test.vars, testOptions(loader))
		if err != errHost {
			t.Errorf("%s: unexpected error %v, expecting %v", test.src, err, errHost)
		}
	}
}

func TestRenderCanceled(t *testing.T) {
	loader := newArchiveLoader(renderArchive)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := testOptions(loader)
	opts.Context = ctx
	_, err := render(`{% for x in a %}{{ x }}{% endfor %}`, map[string]any{"a": []int{1, 2}}, opts)
	if err != context.Canceled {
		t.Fatalf("unexpected error %v, expecting %v", err, context.Canceled)
	}
}

func TestErrorString(t *testing.T) {
	loader := newArchiveLoader(renderArchive)
	_, err := render("\n{{ a|fail }}", nil, testOptions(loader))
	if err == nil {
		t.Fatal("expecting error")
	}
	if expected := ":2:6: invalid value"; err.Error() != expected {
		t.Fatalf("unexpected error %q, expecting %q", err, expected)
	}
}

func TestVarsNotModified(t *testing.T) {
	loader := newArchiveLoader(renderArchive)
	vars := map[string]any{"a": 1}
	_, err := render(`{% multiply 2 3 as a %}{{ a }}`, vars, testOptions(loader))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if vars["a"] != 1 {
		t.Fatalf("variables have been modified: %v", vars)
	}
}
