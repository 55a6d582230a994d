// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"maps"
	"slices"
	"strings"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/native"
)

// words returns the spans of the words, separated by white space, in the
// span s of the source.
func (p *parsing) words(s ast.Span) []ast.Span {
	var words []ast.Span
	for i := s.Start; i < s.End; {
		if isSpace(p.src[i]) {
			i++
			continue
		}
		j := i
		for j < s.End && !isSpace(p.src[j]) {
			j++
		}
		words = append(words, ast.Span{Start: i, End: j})
		i = j
	}
	return words
}

// text returns the text of the source in the span s.
func (p *parsing) text(s ast.Span) string {
	return p.src[s.Start:s.End]
}

// parseAutoescape parses an autoescape tag and its body.
func (p *parsing) parseAutoescape(t tag) ast.Node {
	words := p.words(t.parts)
	switch {
	case len(words) == 0:
		panic(syntaxError(t.parts, "'autoescape' tag missing an 'on' or 'off' argument.", "here"))
	case len(words) > 1:
		panic(syntaxError(t.parts, "'autoescape' tag requires exactly one argument.", "here"))
	}
	var on bool
	switch p.text(words[0]) {
	case "on":
		on = true
	case "off":
	default:
		panic(syntaxError(words[0], "'autoescape' argument should be 'on' or 'off'.", "here"))
	}
	body, _ := p.parseNodes([]string{"endautoescape"}, "autoescape", t.span)
	return ast.NewAutoescape(t.span, on, body)
}

// parseBlock parses a block tag and its body.
func (p *parsing) parseBlock(t tag) ast.Node {
	words := p.words(t.parts)
	switch {
	case len(words) == 0:
		panic(syntaxError(t.parts, "'block' tag takes only one argument", "here"))
	case len(words) > 1:
		panic(syntaxError(ast.Span{Start: words[1].Start, End: t.parts.End},
			"'block' tag takes only one argument", "unexpected argument(s)"))
	}
	name := p.text(words[0])
	if first, ok := p.blocks[name]; ok {
		panic(syntaxErrorf(first.Span, "first defined here", "'block' tag with name '%s' appears more than once", name).
			withLabel(t.span, "defined again here"))
	}
	block := ast.NewBlock(t.span, name, nil)
	block.Path = p.path
	block.Source = p.src
	p.blocks[name] = block
	p.inBlock++
	body, end := p.parseNodes([]string{"endblock"}, "block", t.span)
	p.inBlock--
	words = p.words(end.parts)
	switch {
	case len(words) > 1:
		panic(syntaxError(ast.Span{Start: words[1].Start, End: end.parts.End},
			"'endblock' tag takes only one argument", "unexpected argument(s)"))
	case len(words) == 1 && p.text(words[0]) != name:
		panic(syntaxErrorf(end.span, "unexpected tag", "Unexpected tag endblock %s, expected endblock %s", p.text(words[0]), name).
			withLabel(t.span, "start tag"))
	}
	block.Body = body
	return block
}

// parseComment skips the content of a comment tag, up to the first
// endcomment tag. Comment tags do not nest.
func (p *parsing) parseComment(t tag) {
	for tok := range p.lex.Tokens() {
		switch tok.typ {
		case tokenBlock:
			if fields := strings.Fields(tok.txt); len(fields) > 0 && fields[0] == "endcomment" {
				return
			}
		case tokenEOF:
			panic(syntaxError(t.span, "Unclosed 'comment' tag. Looking for one of: endcomment", "started here"))
		}
	}
	panic(p.lex.err)
}

// parseExtends parses an extends tag.
func (p *parsing) parseExtends(t tag) *ast.Extends {
	if p.extends != nil {
		panic(syntaxError(t.span, "'extends' cannot appear more than once in the same template", "here").
			withLabel(p.extends.Span, "first extends here"))
	}
	if p.first != nil {
		panic(syntaxErrorf(t.span, "extends tag here", "%s must be the first tag in the template.", p.text(t.span)).
			withLabel(*p.first, "first tag here").
			withHelp("Move the extends tag before other tags and variables."))
	}
	l := newTagLexer(p.src, t.parts, false)
	el, ok := l.nextElement()
	if !ok || l.more() {
		panic(syntaxError(t.span, "'extends' takes one argument", "here"))
	}
	if el.kind == elementTranslated {
		panic(syntaxError(el.span, "Extended template name cannot be a translatable string.", "invalid template name"))
	}
	name := p.parseElement(el)
	ext := ast.NewExtends(t.span, name, "")
	if s, ok := literalName(name); ok {
		ext.Path = p.resolvePath(s)
	}
	p.extends = ext
	return ext
}

// literalName returns the string literal of the template name expr, if
// expr is a string literal without filters.
func literalName(expr *ast.FilterExpression) (*ast.String, bool) {
	if len(expr.Filters) > 0 {
		return nil, false
	}
	s, ok := expr.Base.(*ast.String)
	if !ok || s.Translated {
		return nil, false
	}
	return s, true
}

// parseFor parses a for tag, its body and the body of its empty tag.
func (p *parsing) parseFor(t tag) ast.Node {

	l := newTagLexer(p.src, t.parts, false)

	// Lex the variable names, separated by commas.
	var vars []*ast.Identifier
	for {
		l.skipSpaces()
		start := l.pos
		for l.pos < l.end && !isSpace(p.src[l.pos]) && p.src[l.pos] != ',' {
			l.pos++
		}
		if l.pos == start {
			break
		}
		span := ast.Span{Start: start, End: l.pos}
		if strings.ContainsAny(p.text(span), "'\"|") {
			panic(syntaxErrorf(span, "invalid variable name", "Invalid variable name %s in for loop:", p.text(span)))
		}
		vars = append(vars, ast.NewIdentifier(span, p.text(span)))
		l.skipSpaces()
		if l.pos == l.end || p.src[l.pos] != ',' {
			break
		}
		l.pos++
	}
	if len(vars) == 0 {
		panic(syntaxError(t.span, "Expected at least one variable name in for loop:", "in this tag"))
	}

	// Lex the 'in' keyword.
	last := vars[len(vars)-1]
	var in ast.Span
	if words := p.words(l.rest()); len(words) > 0 {
		in = words[0]
	}
	if p.text(in) != "in" {
		switch {
		case last.Name == "in" && len(vars) >= 2 && in.End > 0:
			panic(syntaxError(vars[len(vars)-2].Span, "Expected another variable when unpacking in for loop:", "after this variable"))
		case last.Name == "in":
			panic(syntaxError(last.Span, "Expected a variable name before the 'in' keyword:", "before this keyword"))
		case in.End == 0:
			panic(syntaxError(last.Span, "Expected the 'in' keyword or a variable name:", "after this name"))
		}
		panic(syntaxError(in, "Unexpected expression in for loop. Did you miss a comma when unpacking?", "unexpected expression"))
	}
	l.pos = in.End

	// Lex the iterated expression.
	el, ok := l.nextElement()
	if !ok {
		panic(syntaxError(in, "Expected an expression after the 'in' keyword:", "after this keyword"))
	}
	if el.kind == elementNumeric {
		panic(syntaxErrorf(el.span, "here", "%s is not iterable", p.text(el.span)))
	}
	iterable := p.parseElement(el)

	reversed := false
	if next, ok := l.nextElement(); ok {
		if p.text(next.span) != "reversed" || l.more() {
			if p.text(next.span) == "reversed" {
				next, _ = l.nextElement()
			}
			panic(syntaxError(next.span, "Unexpected expression in for loop:", "unexpected expression"))
		}
		reversed = true
	}

	body, end := p.parseNodes([]string{"empty", "endfor"}, "for", t.span)
	var empty []ast.Node
	if end.name == "empty" {
		empty, _ = p.parseNodes([]string{"endfor"}, "empty", end.span)
		if empty == nil {
			empty = []ast.Node{}
		}
	}

	return ast.NewFor(t.span, vars, iterable, reversed, body, empty)
}

// parseIf parses an if tag with its elif and else branches.
func (p *parsing) parseIf(t tag) ast.Node {
	var branches []*ast.IfBranch
	var els []ast.Node
	start, name := t, "if"
	for {
		cond := p.parseCondition(start)
		body, end := p.parseNodes([]string{"elif", "else", "endif"}, name, start.span)
		branches = append(branches, &ast.IfBranch{Cond: cond, Body: body})
		if end.name == "elif" {
			start, name = end, "elif"
			continue
		}
		if end.name == "else" {
			els, _ = p.parseNodes([]string{"endif"}, "else", end.span)
			if els == nil {
				els = []ast.Node{}
			}
		}
		break
	}
	return ast.NewIf(t.span, branches, els)
}

// parseInclude parses an include tag.
func (p *parsing) parseInclude(t tag) ast.Node {

	l := newTagLexer(p.src, t.parts, true)

	arg, ok := l.next()
	if !ok {
		panic(syntaxError(t.span, "Expected an argument", "here"))
	}
	if arg.name != nil {
		panic(syntaxError(arg.name.Span, "Unexpected keyword argument", "here"))
	}
	switch arg.value.kind {
	case elementNumeric:
		panic(syntaxError(arg.span, "Included template name must be a string or iterable of strings.", "invalid template name"))
	case elementTranslated:
		panic(syntaxError(arg.span, "Included template name cannot be a translatable string.", "invalid template name"))
	}
	name := p.parseElement(arg.value)
	var path string
	if s, ok := literalName(name); ok {
		path = p.resolvePath(s)
	}

	// option returns the option 'with' or 'only' if arg is one of them.
	option := func(arg tagArg) string {
		if arg.name == nil && arg.value.kind == elementVariable {
			if s := p.text(arg.span); s == "with" || s == "only" {
				return s
			}
		}
		return ""
	}
	const addWith = "Try adding the 'with' keyword before the argument."

	var with, only *ast.Span
	if arg, ok := l.next(); ok {
		switch option(arg) {
		case "with":
			with = &arg.span
		case "only":
			only = &arg.span
			if arg, ok := l.next(); ok {
				switch option(arg) {
				case "with":
					with = &arg.span
				case "only":
					panic(syntaxError(*only, "The 'only' option was specified more than once.", "first here").
						withLabel(arg.span, "second here").withHelp("Remove the second 'only'"))
				default:
					panic(syntaxError(arg.span, "Unexpected argument", "here").withHelp(addWith))
				}
			}
		default:
			panic(syntaxError(arg.span, "Unexpected argument", "here").withHelp(addWith))
		}
	}

	var kwargs []ast.KeywordArg
	if with != nil {
		for {
			arg, ok := l.next()
			if !ok {
				break
			}
			if arg.name != nil {
				kwargs = append(kwargs, ast.KeywordArg{Name: arg.name, Value: p.parseElement(arg.value)})
				continue
			}
			if option(arg) != "only" {
				panic(syntaxError(arg.span, "Expected a keyword argument", "here"))
			}
			if only != nil {
				panic(syntaxError(*only, "The 'only' option was specified more than once.", "first here").
					withLabel(arg.span, "second here").withHelp("Remove the second 'only'"))
			}
			only = &arg.span
			if arg, ok := l.next(); ok {
				panic(syntaxError(arg.span, "Unexpected argument", "here").
					withHelp("Try moving the argument before the 'only' option"))
			}
		}
		if len(kwargs) == 0 {
			panic(syntaxError(*with, "Expected a keyword argument", "after this"))
		}
	}

	include := ast.NewInclude(t.span, name, path, kwargs, only != nil)
	include.Origin = p.path
	return include
}

// parseLoad parses a load tag, loading the filters and the tags of the
// libraries into the parsing state.
func (p *parsing) parseLoad(t tag) {
	words := p.words(t.parts)
	if n := len(words); n >= 2 && p.text(words[n-2]) == "from" {
		libSpan := words[n-1]
		lib := p.library(libSpan)
		for _, w := range words[:n-2] {
			name := p.text(w)
			if f := lib.Filter(name); f != nil {
				p.filters[name] = f
			} else if tg := lib.Tag(name); tg != nil {
				p.loadTag(name, tg, w)
			} else {
				panic(syntaxErrorf(w, "tag or filter", "'%s' is not a valid tag or filter in tag library '%s'", name, p.text(libSpan)).
					withLabel(libSpan, "library"))
			}
		}
		return
	}
	for _, w := range words {
		lib := p.library(w)
		for name, f := range lib.Filters {
			p.filters[name] = f
		}
		for _, name := range slices.Sorted(maps.Keys(lib.Tags)) {
			p.loadTag(name, lib.Tags[name], t.span)
		}
	}
}

// library returns the library with the name in the span s.
func (p *parsing) library(s ast.Span) *native.Library {
	name := p.text(s)
	var lib *native.Library
	var names []string
	if p.registry.Libraries != nil {
		var err error
		lib, err = p.registry.Libraries.Load(name)
		if err != nil {
			panic(&hostError{err})
		}
		names = p.registry.Libraries.Names()
	}
	if lib == nil {
		panic(syntaxErrorf(s, "here", "'%s' is not a registered tag library.", name).
			withHelp("Must be one of:\n" + strings.Join(names, "\n")))
	}
	return lib
}

// loadTag loads the tag tg with the given name. span is the position to
// report if the tag is not valid.
func (p *parsing) loadTag(name string, tg *native.Tag, span ast.Span) {
	if err := tg.Check(); err != nil {
		panic(syntaxError(span, err.Error(), "loaded here"))
	}
	p.tags[name] = tg
}

// parseLorem parses a lorem tag.
func (p *parsing) parseLorem(t tag) ast.Node {

	const format = "Incorrect format for 'lorem' tag: "
	words := p.words(t.parts)

	// Validate the order of the arguments.
	var count, method, random *ast.Span
	for i := range words {
		w := &words[i]
		switch p.text(*w) {
		case "w", "p", "b":
			if random != nil {
				if count != nil {
					panic(syntaxError(*random, format+"'method' must come before the 'random' argument", "random").
						withLabel(*w, "method").withHelp("Move the 'method' argument before the 'random' argument"))
				}
				count = random
			}
			if method != nil {
				if count != nil {
					panic(syntaxError(*method, format+"'method' argument was provided more than once", "first 'method'").
						withLabel(*w, "second 'method'").withHelp("Try removing the second 'method'"))
				}
				count = method
			}
			method = w
		case "random":
			if random != nil {
				if count != nil {
					panic(syntaxError(*random, format+"'random' was provided more than once", "first 'random'").
						withLabel(*w, "second 'random'").withHelp("Try removing the second 'random'"))
				}
				count = random
			}
			random = w
		default:
			switch {
			case count != nil:
				panic(syntaxError(*count, format+"'count' argument was provided more than once", "first 'count'").
					withLabel(*w, "second 'count'").withHelp("Try removing the second 'count'"))
			case method != nil:
				panic(syntaxError(*method, format+"'count' must come before the 'method' argument", "method").
					withLabel(*w, "count").withHelp("Move the 'count' argument before the 'method' argument"))
			case random != nil:
				panic(syntaxError(*random, format+"'count' must come before the 'random' argument", "random").
					withLabel(*w, "count").withHelp("Move the 'count' argument before the 'random' argument"))
			}
			count = w
		}
	}

	// Take the arguments from the end.
	common := true
	if n := len(words); n > 0 && p.text(words[n-1]) == "random" {
		common = false
		words = words[:n-1]
	}
	m := ast.LoremBlocks
	if n := len(words); n > 0 {
		switch p.text(words[n-1]) {
		case "w":
			m = ast.LoremWords
		case "p":
			m = ast.LoremParagraphs
		}
		if m != ast.LoremBlocks || p.text(words[n-1]) == "b" {
			words = words[:n-1]
		}
	}
	var countExpr *ast.FilterExpression
	if len(words) > 0 {
		countExpr = p.parseFilterExpression(words[len(words)-1])
		words = words[:len(words)-1]
	}
	if len(words) > 0 {
		panic(syntaxError(words[0], "Incorrect format for 'lorem' tag", "here"))
	}

	return ast.NewLorem(t.span, countExpr, m, common)
}

// dateFormats are the named formats of the now tag.
var dateFormats = map[string]string{
	"DATE_FORMAT":           "N j, Y",
	"DATETIME_FORMAT":       "N j, Y, P",
	"SHORT_DATE_FORMAT":     "m/d/Y",
	"SHORT_DATETIME_FORMAT": "m/d/Y P",
	"TIME_FORMAT":           "P",
	"YEAR_MONTH_FORMAT":     "F Y",
	"MONTH_DAY_FORMAT":      "F j",
}

// parseNow parses a now tag.
func (p *parsing) parseNow(t tag) ast.Node {
	const takesOne = "'now' statement takes one argument"
	l := newTagLexer(p.src, t.parts, false)
	el, ok := l.nextElement()
	if !ok {
		panic(syntaxError(t.parts, "Expected an argument", "here"))
	}
	format := p.text(el.span)
	if len(format) >= 2 {
		format = format[1 : len(format)-1]
	} else {
		format = ""
	}
	if format == "" {
		format = "DATE_FORMAT"
	}
	if f, ok := dateFormats[format]; ok {
		format = f
	}
	var asVar *ast.Identifier
	if as, ok := l.nextElement(); ok {
		if p.text(as.span) != "as" {
			panic(syntaxError(as.span, takesOne, "here"))
		}
		name, ok := l.nextElement()
		if !ok {
			panic(syntaxError(as.span, takesOne, "here"))
		}
		if extra, ok := l.nextElement(); ok {
			panic(syntaxError(extra.span, takesOne, "here"))
		}
		asVar = ast.NewIdentifier(name.span, p.text(name.span))
	}
	return ast.NewNow(t.span, format, asVar)
}

// templateTags are the arguments of the templatetag tag.
var templateTags = map[string]string{
	"openblock":     "{%",
	"closeblock":    "%}",
	"openvariable":  "{{",
	"closevariable": "}}",
	"openbrace":     "{",
	"closebrace":    "}",
	"opencomment":   "{#",
	"closecomment":  "#}",
}

// parseTemplateTag parses a templatetag tag.
func (p *parsing) parseTemplateTag(t tag) ast.Node {
	const takesOne = "'templatetag' statement takes one argument"
	l := newTagLexer(p.src, t.parts, false)
	el, ok := l.nextElement()
	if !ok {
		panic(syntaxError(t.parts, takesOne, "missing argument"))
	}
	arg := p.text(el.span)
	text, ok := templateTags[arg]
	if !ok || el.kind != elementVariable {
		panic(syntaxErrorf(el.span, "invalid argument", "Invalid templatetag argument: '%s'", arg).
			withHelp("Must be one of: openblock, closeblock, openvariable, closevariable, openbrace, closebrace, opencomment, closecomment"))
	}
	if extra, ok := l.nextElement(); ok {
		panic(syntaxError(extra.span, takesOne, "extra argument"))
	}
	return ast.NewTemplateTag(t.span, text)
}

// parseURL parses an url tag.
func (p *parsing) parseURL(t tag) ast.Node {
	args := newTagLexer(p.src, t.parts, true).all()
	if len(args) == 0 {
		panic(syntaxError(t.span, "'url' takes at least one argument, a URL pattern name", "here"))
	}
	view := args[0].value
	if view.kind == elementNumeric {
		panic(syntaxError(view.span, "'url' view name must be a string or variable, not a number", "here"))
	}
	name := p.parseElement(view)
	asVar, args := p.asVar(args[1:])
	var positional []*ast.FilterExpression
	var kwargs []ast.KeywordArg
	for _, arg := range args {
		value := p.parseElement(arg.value)
		if arg.name == nil {
			positional = append(positional, value)
		} else {
			kwargs = append(kwargs, ast.KeywordArg{Name: arg.name, Value: value})
		}
	}
	if len(positional) > 0 && len(kwargs) > 0 {
		panic(syntaxError(t.span, "Cannot mix arguments and keyword arguments", "here"))
	}
	return ast.NewURL(t.span, name, positional, kwargs, asVar)
}

// asVar returns the variable name of a trailing 'as name' in args, and the
// arguments that precede it.
func (p *parsing) asVar(args []tagArg) (*ast.Identifier, []tagArg) {
	n := len(args)
	if n < 2 || args[n-2].name != nil || args[n-1].name != nil || p.text(args[n-2].span) != "as" {
		return nil, args
	}
	v := args[n-1].span
	return ast.NewIdentifier(v, p.text(v)), args[:n-2]
}

// parseVerbatim parses a verbatim tag. Its content has already been lexed
// as text.
func (p *parsing) parseVerbatim(t tag) ast.Node {
	nodes, _ := p.parseNodes([]string{"endverbatim"}, "verbatim", t.span)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// parseWith parses a with tag and its body.
func (p *parsing) parseWith(t tag) ast.Node {
	args := newTagLexer(p.src, t.parts, true).all()
	var vars []ast.KeywordArg
	if len(args) == 3 && args[0].name == nil && args[1].name == nil && args[2].name == nil && p.text(args[1].span) == "as" {
		// Legacy format 'with value as name'.
		name := ast.NewIdentifier(args[2].span, p.text(args[2].span))
		vars = append(vars, ast.KeywordArg{Name: name, Value: p.parseElement(args[0].value)})
	} else {
		for _, arg := range args {
			if arg.name == nil {
				panic(syntaxErrorf(arg.span, "here", "'with' received an invalid token: '%s'", p.text(arg.span)))
			}
			vars = append(vars, ast.KeywordArg{Name: arg.name, Value: p.parseElement(arg.value)})
		}
	}
	if len(vars) == 0 {
		panic(syntaxError(t.span, "'with' expected at least one variable assignment", "here"))
	}
	body, _ := p.parseNodes([]string{"endwith"}, "with", t.span)
	return ast.NewWith(t.span, vars, body)
}
