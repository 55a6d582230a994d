// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/internal/compiler"
	"github.com/open2b/dtl/native"
)

// Loader is implemented by values that load the templates extended and
// included with a name that is known only at rendering time.
type Loader interface {
	// Template returns the tree of the first template in names that exists.
	// If none exists, the returned error wraps ErrTemplateDoesNotExist.
	Template(names ...string) (*ast.Tree, error)
}

// URLResolver is implemented by values that reverse the view names of the
// url tag into URLs.
type URLResolver interface {
	// Reverse returns the URL of the named view. If it cannot be reversed,
	// the returned error wraps ErrNoReverseMatch.
	Reverse(env native.Env, name string, args []any, kwargs map[string]any) (string, error)
}

// Options are the rendering options.
type Options struct {
	Autoescape      bool            // reports whether the output is escaped
	StringIfInvalid string          // rendered in place of invalid variables
	Context         context.Context // context of the rendering
	Request         any             // request, returned by the Request method of native.Env
	Now             time.Time       // current time, the zero value means time.Now()

	// MaxDepth is the maximum depth of nested includes and of dynamically
	// extended templates. If it is zero, compiler.DefaultMaxDepth is used.
	MaxDepth int

	Loader      Loader
	URLResolver URLResolver

	// FormatDate formats a time according to a date format, it is used by
	// the now tag.
	FormatDate func(t time.Time, format string) (string, error)

	// Lorem returns random text, it is used by the lorem tag.
	Lorem func(count int, method ast.LoremMethod, common bool) string
}

// state is the state of a rendering. It implements native.Env.
type state struct {
	opts       Options
	ctx        context.Context
	now        time.Time
	maxDepth   int
	path       string // path of the template currently rendered
	src        string // source of the template currently rendered
	autoescape bool
	vars       scopes
	blocks     map[string][]*ast.Block // blocks of the rendered inheritance chain
	block      *blockFrame             // block currently rendered, nil if none
	includes   int                     // depth of nested includes
	extends    int                     // number of dynamically extended templates
}

// blockFrame is a block being rendered and its position in the chain of the
// blocks with the same name.
type blockFrame struct {
	chain []*ast.Block
	i     int
}

// Render renders tree on out with the variables vars. The output is written
// to out only if the rendering does not fail.
func Render(out io.Writer, tree *ast.Tree, vars map[string]any, opts Options) error {
	s := &state{
		opts:       opts,
		ctx:        opts.Context,
		now:        opts.Now,
		maxDepth:   opts.MaxDepth,
		autoescape: opts.Autoescape,
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.now.IsZero() {
		s.now = time.Now()
	}
	if s.maxDepth <= 0 {
		s.maxDepth = compiler.DefaultMaxDepth
	}
	scope := maps.Clone(vars)
	if scope == nil {
		scope = map[string]any{}
	}
	s.vars = scopes{builtinScope(), scope}
	var b strings.Builder
	err := s.renderTree(&b, tree, tree.Blocks)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, b.String())
	return err
}

// builtinScope returns the scope with the variables True, False and None.
func builtinScope() map[string]any {
	return map[string]any{"True": true, "False": false, "None": nil}
}

// renderTree renders the nodes of tree with the given blocks.
func (s *state) renderTree(w strWriter, tree *ast.Tree, blocks map[string][]*ast.Block) error {
	path, src, saved, frame := s.path, s.src, s.blocks, s.block
	s.path, s.src, s.blocks, s.block = tree.Path, tree.Source, blocks, nil
	err := s.renderNodes(w, tree.Nodes)
	s.path, s.src, s.blocks, s.block = path, src, saved, frame
	return err
}

// renderNodes renders nodes.
func (s *state) renderNodes(w strWriter, nodes []ast.Node) error {
	for _, node := range nodes {
		var err error
		switch n := node.(type) {
		case *ast.Text:
			_, err = w.WriteString(n.Text)
		case *ast.Output:
			err = s.renderOutput(w, n.Expr)
		case *ast.If:
			err = s.renderIf(w, n)
		case *ast.For:
			err = s.renderFor(w, n)
		case *ast.With:
			err = s.renderWith(w, n)
		case *ast.Autoescape:
			autoescape := s.autoescape
			s.autoescape = n.On
			err = s.renderNodes(w, n.Body)
			s.autoescape = autoescape
		case *ast.Block:
			err = s.renderBlock(w, n)
		case *ast.Extends:
			err = s.renderExtends(w, n)
		case *ast.Include:
			err = s.renderInclude(w, n)
		case *ast.SimpleTag:
			err = s.renderSimpleTag(w, n)
		case *ast.URL:
			err = s.renderURL(w, n)
		case *ast.Now:
			err = s.renderNow(w, n)
		case *ast.Lorem:
			err = s.renderLorem(w, n)
		case *ast.CsrfToken:
			err = s.renderCsrfToken(w)
		case *ast.TemplateTag:
			_, err = w.WriteString(n.Text)
		default:
			panic(fmt.Sprintf("dtl: unexpected node %T", node))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// renderOutput renders the value of expr.
func (s *state) renderOutput(w strWriter, expr *ast.FilterExpression) error {
	v, err := s.eval(expr)
	if err != nil {
		return err
	}
	if isMissing(v) {
		v = s.opts.StringIfInvalid
	}
	err = s.writeValue(w, v)
	if err != nil {
		return s.nativeError(err, expr.Span, "here")
	}
	return nil
}

// writeValue writes v to w. If autoescape is on, v is escaped unless it is
// a safe string.
func (s *state) writeValue(w strWriter, v any) error {
	switch v := v.(type) {
	case native.HTML:
		_, err := w.WriteString(string(v))
		return err
	case native.HTMLStringer:
		_, err := w.WriteString(string(v.HTML()))
		return err
	}
	str, err := ToString(v)
	if err != nil {
		return err
	}
	if s.autoescape {
		return HTMLEscape(w, str)
	}
	_, err = w.WriteString(str)
	return err
}

// eval evaluates expr. If its base is a variable that cannot be resolved,
// the filters receive native.Missing and, if there are no filters,
// native.Missing is returned.
func (s *state) eval(expr *ast.FilterExpression) (any, error) {
	return s.evalExpr(expr, false)
}

// evalArg is like eval but it evaluates an argument of a tag. The string
// literals are not safe and a failure in resolving a part of a variable,
// other than the first, is an error.
func (s *state) evalArg(expr *ast.FilterExpression) (any, error) {
	return s.evalExpr(expr, true)
}

func (s *state) evalExpr(expr *ast.FilterExpression, arg bool) (any, error) {
	var v any
	var err error
	switch base := expr.Base.(type) {
	case *ast.Variable:
		var f *failure
		v, f, err = s.resolve(base)
		if err != nil {
			return nil, err
		}
		if f != nil {
			if arg && f.i > 0 {
				return nil, s.lookupError(base, f)
			}
			v = native.Missing
		}
	case *ast.String:
		if arg {
			v = base.Text
		} else {
			v = native.HTML(base.Text)
		}
	default:
		v, err = s.literal(base)
		if err != nil {
			return nil, err
		}
	}
	for _, f := range expr.Filters {
		var args []any
		if f.Arg != nil {
			a, err := s.evalFilterArg(f.Arg)
			if err != nil {
				return nil, err
			}
			args = []any{a}
		}
		v, err = f.Filter.Func(s, v, args...)
		if err != nil {
			return nil, s.filterError(err, f)
		}
	}
	return v, nil
}

// evalFilterArg evaluates the argument of a filter. A variable that cannot
// be resolved is an error.
func (s *state) evalFilterArg(arg ast.Expression) (any, error) {
	switch arg := arg.(type) {
	case *ast.Variable:
		v, f, err := s.resolve(arg)
		if err != nil {
			return nil, err
		}
		if f != nil {
			return nil, s.lookupError(arg, f)
		}
		return v, nil
	case *ast.String:
		return arg.Text, nil
	}
	return s.literal(arg)
}

// literal returns the value of a literal expression or of block.super.
func (s *state) literal(expr ast.Expression) (any, error) {
	switch n := expr.(type) {
	case *ast.String:
		return native.HTML(n.Text), nil
	case *ast.Int:
		if n.Value.IsInt64() {
			if i := n.Value.Int64(); int64(int(i)) == i {
				return int(i), nil
			}
		}
		return new(big.Int).Set(n.Value), nil
	case *ast.Float:
		return n.Value, nil
	case *ast.BlockSuper:
		return s.blockSuper()
	}
	panic(fmt.Sprintf("dtl: unexpected expression %T", expr))
}

// filterError returns the error for err returned by the filter f.
func (s *state) filterError(err error, f *ast.Filter) error {
	var e *native.Error
	if errors.As(err, &e) && e.Argument && f.Arg != nil {
		return s.nativeError(err, f.Arg.Pos(), "here")
	}
	return s.nativeError(err, f.Span, "here")
}

// failure describes a variable that cannot be resolved.
type failure struct {
	i  int // index of the part that cannot be resolved
	in any // value in which the part has been searched, if i > 0
}

// resolve resolves the variable v. If it cannot be resolved, it returns a
// non-nil failure.
func (s *state) resolve(v *ast.Variable) (any, *failure, error) {
	first := v.Parts[0]
	value, ok := s.vars.Get(first.Name)
	if !ok {
		return nil, &failure{}, nil
	}
	value, ok, err := call(value)
	if err != nil {
		return nil, nil, s.nativeError(err, first.Span, "here")
	}
	if !ok {
		return nil, &failure{}, nil
	}
	for i := 1; i < len(v.Parts); i++ {
		part := v.Parts[i]
		m, ok, err := Member(value, part.Name)
		if err == nil && ok {
			m, ok, err = call(m)
		}
		if err != nil {
			return nil, nil, s.nativeError(err, part.Span, "here")
		}
		if !ok {
			return nil, &failure{i: i, in: value}, nil
		}
		value = m
	}
	return value, nil, nil
}

// lookupError returns the error for the variable v that cannot be resolved.
func (s *state) lookupError(v *ast.Variable, f *failure) error {
	part := v.Parts[f.i]
	if f.i == 0 {
		return s.errorf(ErrVariableDoesNotExist, part.Span, "key",
			"Failed lookup for key [%s] in %s", part.Name, s.snapshot())
	}
	in, err := Repr(f.in)
	if err != nil {
		in = "<" + TypeName(f.in) + ">"
	}
	e := s.errorf(ErrVariableDoesNotExist, part.Span, "key", "Failed lookup for key [%s] in %s", part.Name, in)
	e.Diagnostic.WithLabel(ast.Span{Start: v.Parts[0].Start, End: v.Parts[f.i-1].End}, in)
	return e
}

// snapshot returns a representation of the variables in scope.
func (s *state) snapshot() string {
	vars := s.vars.flatten()
	names := slices.Sorted(maps.Keys(vars))
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(name))
		b.WriteString(": ")
		r, err := Repr(vars[name])
		if err != nil {
			r = "<" + TypeName(vars[name]) + ">"
		}
		b.WriteString(r)
	}
	b.WriteByte('}')
	return b.String()
}
