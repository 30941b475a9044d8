package liquid

import (
	"errors"
	"strings"

	"github.com/sschuldenzucker/liquidjs/lexer"
	"github.com/sschuldenzucker/liquidjs/value"
)

// for iterates a collection: {% for x in items %}...{% endfor %}, with
// optional limit/offset hash arguments and the reversed keyword, an
// optional {% else %} body for empty collections, and {% break %} /
// {% continue %} inside the body.

// sentinel errors for loop control
var (
	errBreak    = errors.New("break")
	errContinue = errors.New("continue")
)

// isLoopInterrupt reports whether err is a loop-control sentinel. Loop
// control reaching a template or partial boundary stops rendering there;
// it never surfaces to the caller as an error.
func isLoopInterrupt(err error) bool {
	return errors.Is(err, errBreak) || errors.Is(err, errContinue)
}

type forNode struct {
	varName  string
	collExpr *Expression
	limit    *Expression
	offset   *Expression
	reversed bool
	body     []Node
	elseBody []Node
}

func parseForTag(tok *lexer.TagToken, p *Parser) (Node, error) {
	s := lexer.NewArgScanner(tok.Args)
	varName, ok := s.ScanIdent()
	if !ok {
		return nil, NewError(ErrParse, "for expects a loop variable").WithToken(tok)
	}
	if !s.AcceptWord("in") {
		return nil, NewError(ErrParse, "for expects 'in'").WithToken(tok)
	}
	collSrc, ok := s.ScanValue()
	if !ok {
		return nil, NewError(ErrParse, "for expects a collection").WithToken(tok)
	}
	collExpr, err := ParseExpression(collSrc)
	if err != nil {
		return nil, err
	}

	node := &forNode{varName: varName, collExpr: collExpr}
	for !s.End() {
		if s.AcceptWord("reversed") {
			node.reversed = true
			continue
		}
		key, val, ok := s.ScanHash()
		if !ok {
			return nil, NewError(ErrSyntax, "malformed for arguments").WithToken(tok)
		}
		expr, err := ParseExpression(val)
		if err != nil {
			return nil, err
		}
		switch key {
		case "limit":
			node.limit = expr
		case "offset":
			node.offset = expr
		default:
			return nil, NewError(ErrParse, "for accepts only limit and offset arguments").WithToken(tok)
		}
	}

	body, stop, err := p.ParseUntil("else", "endfor")
	if err != nil {
		return nil, err
	}
	node.body = body
	if stop.Name == "else" {
		if node.elseBody, _, err = p.ParseUntil("endfor"); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (n *forNode) Render(ctx *Context, out *strings.Builder) error {
	coll, err := n.collExpr.Evaluate(ctx)
	if err != nil {
		return err
	}
	items := coll.Iter()

	if n.offset != nil {
		off, err := evalInt(n.offset, ctx)
		if err != nil {
			return err
		}
		if off < int64(len(items)) {
			items = items[off:]
		} else {
			items = nil
		}
	}
	if n.limit != nil {
		lim, err := evalInt(n.limit, ctx)
		if err != nil {
			return err
		}
		if lim < int64(len(items)) {
			items = items[:lim]
		}
	}
	if n.reversed {
		rev := make([]value.Value, len(items))
		for i, item := range items {
			rev[len(items)-1-i] = item
		}
		items = rev
	}

	if len(items) == 0 {
		return renderNodes(n.elseBody, ctx, out)
	}

	return ctx.WithFrame(nil, func() error {
		for i, item := range items {
			ctx.Set(n.varName, item)
			ctx.Set("forloop", forloopValue(i, len(items)))
			err := renderNodes(n.body, ctx, out)
			if errors.Is(err, errBreak) {
				return nil
			}
			if err != nil && !errors.Is(err, errContinue) {
				return err
			}
		}
		return nil
	})
}

func evalInt(expr *Expression, ctx *Context) (int64, error) {
	v, err := expr.Evaluate(ctx)
	if err != nil {
		return 0, err
	}
	i, ok := v.AsInt()
	if !ok || i < 0 {
		return 0, NewError(ErrRender, "limit and offset must be non-negative integers")
	}
	return i, nil
}

func forloopValue(index, length int) value.Value {
	return value.FromMap(map[string]value.Value{
		"index":   value.FromInt(int64(index + 1)),
		"index0":  value.FromInt(int64(index)),
		"rindex":  value.FromInt(int64(length - index)),
		"rindex0": value.FromInt(int64(length - index - 1)),
		"first":   value.FromBool(index == 0),
		"last":    value.FromBool(index == length-1),
		"length":  value.FromInt(int64(length)),
	})
}

func parseBreakTag(_ *lexer.TagToken, _ *Parser) (Node, error) {
	return flowNode{err: errBreak}, nil
}

func parseContinueTag(_ *lexer.TagToken, _ *Parser) (Node, error) {
	return flowNode{err: errContinue}, nil
}

type flowNode struct {
	err error
}

func (n flowNode) Render(_ *Context, _ *strings.Builder) error {
	return n.err
}
