package liquid

import (
	"fmt"
	"strings"

	"github.com/sschuldenzucker/liquidjs/lexer"
)

// Node is one executable instruction of a compiled template.
type Node interface {
	Render(ctx *Context, out *strings.Builder) error
}

// NodeFunc adapts a function to the Node interface. Custom tags can
// return one instead of defining a node type.
type NodeFunc func(ctx *Context, out *strings.Builder) error

// Render implements Node.
func (f NodeFunc) Render(ctx *Context, out *strings.Builder) error {
	return f(ctx, out)
}

// Parser turns a token stream into a node list. Block tags drive it from
// their parse phase to consume their body through ParseUntil.
type Parser struct {
	env    *Environment
	name   string // template name, for error messages
	dir    string // directory of the template, for partial resolution
	tokens []lexer.Token
	pos    int
}

func newParser(env *Environment, name, dir string, tokens []lexer.Token) *Parser {
	return &Parser{env: env, name: name, dir: dir, tokens: tokens}
}

func (p *Parser) parseAll() ([]Node, error) {
	nodes, stop, err := p.parseUntil(nil)
	if err != nil {
		return nil, err
	}
	if stop != nil {
		return nil, NewError(ErrSyntax, fmt.Sprintf("unexpected tag %q", stop.Name)).
			WithToken(stop).WithName(p.name)
	}
	return nodes, nil
}

// ParseUntil parses nodes until one of the named terminator tags is
// reached and returns the nodes plus the terminator's token. Running out
// of tokens first is a syntax error.
func (p *Parser) ParseUntil(terminators ...string) ([]Node, *lexer.TagToken, error) {
	nodes, stop, err := p.parseUntil(terminators)
	if err != nil {
		return nil, nil, err
	}
	if stop == nil {
		return nil, nil, NewError(ErrSyntax,
			fmt.Sprintf("expected %s before end of template", strings.Join(terminators, " or "))).
			WithName(p.name)
	}
	return nodes, stop, nil
}

func (p *Parser) parseUntil(terminators []string) ([]Node, *lexer.TagToken, error) {
	var nodes []Node
	for p.pos < len(p.tokens) {
		tok := &p.tokens[p.pos]
		p.pos++

		switch tok.Kind {
		case lexer.TokenText:
			if tok.Text != "" {
				nodes = append(nodes, &textNode{text: tok.Text})
			}

		case lexer.TokenOutput:
			expr, err := ParseExpression(tok.Text)
			if err != nil {
				if e, ok := err.(*Error); ok {
					e.WithSpan(tok.Span).WithName(p.name)
				}
				return nil, nil, err
			}
			nodes = append(nodes, &outputNode{expr: expr, span: tok.Span})

		case lexer.TokenTag:
			for _, name := range terminators {
				if tok.Tag.Name == name {
					return nodes, tok.Tag, nil
				}
			}
			tag, ok := p.env.getTag(tok.Tag.Name)
			if !ok {
				return nil, nil, unknownTagError(p.env, tok.Tag).WithName(p.name)
			}
			node, err := tag.Parse(tok.Tag, p)
			if err != nil {
				if e, ok := err.(*Error); ok {
					e.WithToken(tok.Tag)
					if e.Name == "" {
						e.WithName(p.name)
					}
				}
				return nil, nil, err
			}
			if node != nil {
				nodes = append(nodes, node)
			}
		}
	}
	return nodes, nil, nil
}

// NextRaw returns the raw source of the next token, consuming it. The raw
// tag uses it to re-emit its body verbatim.
func (p *Parser) NextRaw() (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	tok := &p.tokens[p.pos]
	p.pos++
	if tok.Kind == lexer.TokenText {
		return tok.Text, true
	}
	return tok.Raw, true
}

// PeekTag returns the next token's tag without consuming it, or nil.
func (p *Parser) PeekTag() *lexer.TagToken {
	if p.pos >= len(p.tokens) || p.tokens[p.pos].Kind != lexer.TokenTag {
		return nil
	}
	return p.tokens[p.pos].Tag
}

// TemplateDir returns the directory of the template being parsed,
// relative to the loader's search root.
func (p *Parser) TemplateDir() string {
	return p.dir
}

// renderNodes executes nodes in order against ctx, concatenating output
// left to right. Errors abort the remainder and propagate.
func renderNodes(nodes []Node, ctx *Context, out *strings.Builder) error {
	for _, node := range nodes {
		if err := ctx.steps.consume(1); err != nil {
			return err
		}
		if err := node.Render(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

type textNode struct {
	text string
}

func (n *textNode) Render(_ *Context, out *strings.Builder) error {
	out.WriteString(n.text)
	return nil
}

type outputNode struct {
	expr *Expression
	span lexer.Span
}

func (n *outputNode) Render(ctx *Context, out *strings.Builder) error {
	v, err := n.expr.Evaluate(ctx)
	if err != nil {
		if e, ok := err.(*Error); ok && e.Span == nil {
			e.WithSpan(n.span).WithSource(n.expr.Source())
		}
		return err
	}
	out.WriteString(v.String())
	return nil
}
