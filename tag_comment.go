package liquid

import (
	"strings"

	"github.com/sschuldenzucker/liquidjs/lexer"
)

// comment discards its body: {% comment %}...{% endcomment %}.
type commentNode struct{}

func parseCommentTag(_ *lexer.TagToken, p *Parser) (Node, error) {
	if _, _, err := p.ParseUntil("endcomment"); err != nil {
		return nil, err
	}
	return &commentNode{}, nil
}

func (n *commentNode) Render(_ *Context, _ *strings.Builder) error {
	return nil
}

// raw re-emits its body verbatim, without tokenizing output or tag
// syntax inside it: {% raw %}{{ not evaluated }}{% endraw %}.
type rawNode struct {
	text string
}

func parseRawTag(tok *lexer.TagToken, p *Parser) (Node, error) {
	var b strings.Builder
	for {
		if end := p.PeekTag(); end != nil && end.Name == "endraw" {
			p.NextRaw()
			return &rawNode{text: b.String()}, nil
		}
		raw, ok := p.NextRaw()
		if !ok {
			return nil, NewError(ErrSyntax, "expected endraw before end of template").WithToken(tok)
		}
		b.WriteString(raw)
	}
}

func (n *rawNode) Render(_ *Context, out *strings.Builder) error {
	out.WriteString(n.text)
	return nil
}
