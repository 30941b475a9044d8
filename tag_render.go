package liquid

import (
	"errors"
	"path"
	"regexp"
	"strings"

	"github.com/sschuldenzucker/liquidjs/lexer"
	"github.com/sschuldenzucker/liquidjs/value"
)

// render resolves, loads and renders a named partial in an isolated
// scope: the partial sees globals and the explicitly bound arguments,
// nothing else, and nothing it assigns survives the call.
//
//	{% render "product.html" %}
//	{% render "color" with "red", shape: "rect" %}
//	{% render "item" for items as thing %}
//
// The partial name may be a quoted literal, an unquoted bare path, or
// (with dynamic partials enabled) a template-string expression or
// variable evaluated at render time.

type hashArg struct {
	name string
	expr *Expression
}

type renderNode struct {
	tok      *lexer.TagToken
	name     partialName
	fromDir  string
	with     *Expression
	withAs   string
	forColl  *Expression
	forAs    string
	hash     []hashArg
}

func parseRenderTag(tok *lexer.TagToken, p *Parser) (Node, error) {
	node := &renderNode{tok: tok, fromDir: p.TemplateDir()}
	s := lexer.NewArgScanner(tok.Args)

	// A missing name parses; it fails at render time because the name
	// may be a runtime expression that only then turns out empty.
	node.name = scanPartialName(s)

	for !s.End() {
		if s.AcceptWord("with") {
			expr, alias, err := scanBoundValue(s, tok)
			if err != nil {
				return nil, err
			}
			node.with, node.withAs = expr, alias
			continue
		}
		if s.AcceptWord("for") {
			expr, alias, err := scanBoundValue(s, tok)
			if err != nil {
				return nil, err
			}
			node.forColl, node.forAs = expr, alias
			continue
		}
		key, val, ok := s.ScanHash()
		if !ok {
			return nil, NewError(ErrSyntax, "malformed render arguments").WithToken(tok)
		}
		expr, err := ParseExpression(val)
		if err != nil {
			return nil, err
		}
		node.hash = append(node.hash, hashArg{name: key, expr: expr})
	}
	return node, nil
}

func (n *renderNode) Render(ctx *Context, out *strings.Builder) error {
	name, err := n.name.resolve(ctx)
	if err != nil {
		return withTagContext(err, n.tok)
	}
	if name == "" {
		return NewError(ErrRender, "cannot render with empty filename").WithToken(n.tok)
	}

	tmpl, err := loadPartial(ctx, name, n.fromDir, n.tok)
	if err != nil {
		return err
	}

	base := partialBaseName(name)

	// Hash arguments are evaluated in the caller's scope; the partial
	// consumes them in its own isolated one.
	bound := make(map[string]value.Value, len(n.hash)+2)
	for _, arg := range n.hash {
		v, err := arg.expr.Evaluate(ctx)
		if err != nil {
			return withTagContext(err, n.tok)
		}
		bound[arg.name] = v
	}

	if n.forColl != nil {
		coll, err := n.forColl.Evaluate(ctx)
		if err != nil {
			return withTagContext(err, n.tok)
		}
		alias := n.forAs
		if alias == "" {
			alias = base
		}
		items := coll.Iter()
		for i, item := range items {
			child := ctx.Spawn(true)
			for k, v := range bound {
				child.Set(k, v)
			}
			child.Set(alias, item)
			child.Set("forloop", forloopValue(i, len(items)))
			if err := renderPartial(tmpl, child, out, n.tok); err != nil {
				return err
			}
		}
		return nil
	}

	child := ctx.Spawn(true)
	for k, v := range bound {
		child.Set(k, v)
	}
	if n.with != nil {
		v, err := n.with.Evaluate(ctx)
		if err != nil {
			return withTagContext(err, n.tok)
		}
		alias := n.withAs
		if alias == "" {
			alias = base
		}
		child.Set(alias, v)
	}
	return renderPartial(tmpl, child, out, n.tok)
}

// partialName is the unresolved name argument of a render or include
// tag, fixed at parse time and resolved on every render.
type partialName struct {
	src     string // raw source of the name argument
	literal string // unquoted content for quoted and bare-path names
	isExpr  bool   // true when the name is a variable reference
	expr    *Expression
}

func scanPartialName(s *lexer.ArgScanner) partialName {
	s.SkipSpaces()
	rest := s.Rest()
	if rest == "" {
		return partialName{}
	}

	if rest[0] == '\'' || rest[0] == '"' {
		v, ok := s.ScanValue()
		if !ok {
			return partialName{}
		}
		return partialName{src: v, literal: v[1 : len(v)-1]}
	}

	// Unquoted: a bare path like bar/foo.html, or a variable reference.
	if p, ok := s.ScanPath(); ok {
		if strings.ContainsAny(p, "./") {
			return partialName{src: p, literal: p}
		}
		if expr, err := ParseExpression(p); err == nil {
			return partialName{src: p, isExpr: true, expr: expr}
		}
		return partialName{src: p, literal: p}
	}
	if v, ok := s.ScanValue(); ok {
		if expr, err := ParseExpression(v); err == nil {
			return partialName{src: v, isExpr: true, expr: expr}
		}
	}
	return partialName{}
}

var rRelativePath = regexp.MustCompile(`^[\w./-]+$`)

// resolve produces the partial name for this render. With dynamic
// partials enabled, quoted names are treated as template strings and
// variable names are evaluated; in static mode the name must already be
// a syntactically valid relative path and is used without evaluation.
func (pn partialName) resolve(ctx *Context) (string, error) {
	if pn.src == "" {
		return "", nil
	}
	if ctx.env.dynamicPartials {
		if pn.isExpr {
			v, err := pn.expr.Evaluate(ctx)
			if err != nil {
				return "", err
			}
			return v.String(), nil
		}
		return evalTemplateString(pn.literal, ctx)
	}

	name := pn.literal
	if name == "" {
		name = pn.src
	}
	if !rRelativePath.MatchString(name) {
		return "", NewError(ErrRender, "illegal partial name "+name+" with dynamic partials disabled")
	}
	return name, nil
}

// evalTemplateString substitutes embedded {{ ... }} expressions using the
// render-time value map.
func evalTemplateString(s string, ctx *Context) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	var b strings.Builder
	for {
		start := strings.Index(s, "{{")
		if start < 0 {
			b.WriteString(s)
			return b.String(), nil
		}
		end := strings.Index(s[start:], "}}")
		if end < 0 {
			b.WriteString(s)
			return b.String(), nil
		}
		b.WriteString(s[:start])
		inner := strings.TrimSpace(s[start+2 : start+end])
		expr, err := ParseExpression(inner)
		if err != nil {
			return "", err
		}
		v, err := expr.Evaluate(ctx)
		if err != nil {
			return "", err
		}
		b.WriteString(v.String())
		s = s[start+end+2:]
	}
}

func scanBoundValue(s *lexer.ArgScanner, tok *lexer.TagToken) (*Expression, string, error) {
	src, ok := s.ScanValue()
	if !ok {
		return nil, "", NewError(ErrParse, "expected a value after with/for").WithToken(tok)
	}
	expr, err := ParseExpression(src)
	if err != nil {
		return nil, "", err
	}
	alias := ""
	if s.AcceptWord("as") {
		alias, ok = s.ScanIdent()
		if !ok {
			return nil, "", NewError(ErrParse, "expected a name after 'as'").WithToken(tok)
		}
	}
	return expr, alias, nil
}

// partialBaseName is the default binding name for `with`: the partial's
// file name without directories or extension.
func partialBaseName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

func loadPartial(ctx *Context, name, fromDir string, tok *lexer.TagToken) (*Template, error) {
	if ctx.depth >= maxRenderDepth {
		return nil, NewError(ErrRender, "partial render depth exceeded").WithToken(tok)
	}
	tmpl, err := ctx.env.getPartial(name, fromDir, ctx.Sync())
	if err != nil {
		return nil, withTagContext(err, tok)
	}
	return tmpl, nil
}

func renderPartial(tmpl *Template, child *Context, out *strings.Builder, tok *lexer.TagToken) error {
	if err := renderNodes(tmpl.nodes, child, out); err != nil {
		// Loop control does not cross the partial boundary: a break inside
		// a partial stops the partial, not a loop in the caller.
		if isLoopInterrupt(err) {
			return nil
		}
		// Keep the innermost location; only add ours when none is set.
		return withTagContext(err, tok)
	}
	return nil
}

func withTagContext(err error, tok *lexer.TagToken) error {
	var e *Error
	if errors.As(err, &e) {
		e.WithToken(tok)
	}
	return err
}
