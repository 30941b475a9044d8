package liquid

import (
	"strings"

	"github.com/sschuldenzucker/liquidjs/lexer"
	"github.com/sschuldenzucker/liquidjs/value"
)

// assign writes the value of an expression into the current scope:
// {% assign name = expr %}. Filters are allowed on the right-hand side.
type assignNode struct {
	name string
	expr *Expression
}

func parseAssignTag(tok *lexer.TagToken, _ *Parser) (Node, error) {
	s := lexer.NewArgScanner(tok.Args)
	name, ok := s.ScanIdent()
	if !ok {
		return nil, NewError(ErrParse, "assign expects a variable name").WithToken(tok)
	}
	if !s.AcceptByte('=') {
		return nil, NewError(ErrParse, "assign expects '='").WithToken(tok)
	}
	src := strings.TrimSpace(s.Rest())
	if src == "" {
		return nil, NewError(ErrParse, "assign expects a value").WithToken(tok)
	}
	expr, err := ParseExpression(src)
	if err != nil {
		return nil, err
	}
	return &assignNode{name: name, expr: expr}, nil
}

func (n *assignNode) Render(ctx *Context, _ *strings.Builder) error {
	v, err := n.expr.Evaluate(ctx)
	if err != nil {
		return err
	}
	ctx.Set(n.name, v)
	return nil
}

// capture renders its body into a variable instead of the output:
// {% capture name %}...{% endcapture %}.
type captureNode struct {
	name string
	body []Node
}

func parseCaptureTag(tok *lexer.TagToken, p *Parser) (Node, error) {
	s := lexer.NewArgScanner(tok.Args)
	name, ok := s.ScanIdent()
	if !ok || !s.End() {
		return nil, NewError(ErrParse, "capture expects a single variable name").WithToken(tok)
	}
	body, _, err := p.ParseUntil("endcapture")
	if err != nil {
		return nil, err
	}
	return &captureNode{name: name, body: body}, nil
}

func (n *captureNode) Render(ctx *Context, _ *strings.Builder) error {
	var captured strings.Builder
	if err := renderNodes(n.body, ctx, &captured); err != nil {
		return err
	}
	ctx.Set(n.name, value.FromString(captured.String()))
	return nil
}
