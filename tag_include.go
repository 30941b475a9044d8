package liquid

import (
	"strings"

	"github.com/sschuldenzucker/liquidjs/lexer"
)

// include renders a partial that inherits the caller's scope, unlike
// render, which isolates it. Variables visible at the call site are
// visible inside the partial; assignments inside the partial still stay
// local to it.
//
//	{% include "header.html" %}
//	{% include "product" with featured, class: "wide" %}
type includeNode struct {
	tok     *lexer.TagToken
	name    partialName
	fromDir string
	with    *Expression
	withAs  string
	hash    []hashArg
}

func parseIncludeTag(tok *lexer.TagToken, p *Parser) (Node, error) {
	node := &includeNode{tok: tok, fromDir: p.TemplateDir()}
	s := lexer.NewArgScanner(tok.Args)
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
		key, val, ok := s.ScanHash()
		if !ok {
			return nil, NewError(ErrSyntax, "malformed include arguments").WithToken(tok)
		}
		expr, err := ParseExpression(val)
		if err != nil {
			return nil, err
		}
		node.hash = append(node.hash, hashArg{name: key, expr: expr})
	}
	return node, nil
}

func (n *includeNode) Render(ctx *Context, out *strings.Builder) error {
	name, err := n.name.resolve(ctx)
	if err != nil {
		return withTagContext(err, n.tok)
	}
	if name == "" {
		return NewError(ErrRender, "cannot include with empty filename").WithToken(n.tok)
	}

	tmpl, err := loadPartial(ctx, name, n.fromDir, n.tok)
	if err != nil {
		return err
	}

	child := ctx.Spawn(false)
	for _, arg := range n.hash {
		v, err := arg.expr.Evaluate(ctx)
		if err != nil {
			return withTagContext(err, n.tok)
		}
		child.Set(arg.name, v)
	}
	if n.with != nil {
		v, err := n.with.Evaluate(ctx)
		if err != nil {
			return withTagContext(err, n.tok)
		}
		alias := n.withAs
		if alias == "" {
			alias = partialBaseName(name)
		}
		child.Set(alias, v)
	}
	return renderPartial(tmpl, child, out, n.tok)
}
