package liquid

import (
	"strings"

	"github.com/sschuldenzucker/liquidjs/lexer"
)

// cycle rotates through its candidate list, one candidate per render:
// {% cycle 'a', 'b', 'c' %} or {% cycle group: 'a', 'b' %}. Rotation
// state lives in the register store, keyed by a fingerprint of the group
// value and the literal candidate list, so two cycle tags with the same
// group and candidates share one rotation counter even across distinct
// source occurrences.

const cycleRegisterKey = "cycle"

type cycleNode struct {
	group      *Expression // nil when ungrouped
	candidates []*Expression
	// fingerprint of the candidate list, fixed at parse time; the group
	// value is prepended at render time.
	listKey string
}

func parseCycleTag(tok *lexer.TagToken, _ *Parser) (Node, error) {
	s := lexer.NewArgScanner(tok.Args)

	node := &cycleNode{}
	var sources []string

	first, ok := s.ScanValue()
	if ok && s.AcceptByte(':') {
		group, err := ParseExpression(first)
		if err != nil {
			return nil, err
		}
		node.group = group
	} else if ok {
		sources = append(sources, first)
	}

	for {
		src, ok := s.ScanValue()
		if !ok {
			break
		}
		sources = append(sources, src)
	}
	if !s.End() {
		return nil, NewError(ErrSyntax, "malformed cycle arguments").WithToken(tok)
	}
	if len(sources) == 0 {
		return nil, NewError(ErrParse, "cannot have empty candidates").WithToken(tok)
	}

	node.candidates = make([]*Expression, len(sources))
	for i, src := range sources {
		expr, err := ParseExpression(src)
		if err != nil {
			return nil, err
		}
		node.candidates[i] = expr
	}
	node.listKey = strings.Join(sources, ",")
	return node, nil
}

func (n *cycleNode) Render(ctx *Context, out *strings.Builder) error {
	group := ""
	if n.group != nil {
		g, err := n.group.Evaluate(ctx)
		if err != nil {
			return err
		}
		group = g.String()
	}
	fingerprint := "cycle:" + group + ":" + n.listKey

	state := ctx.Register(cycleRegisterKey, func() any {
		return make(map[string]int)
	}).(map[string]int)

	idx := state[fingerprint] // initial state is 0
	v, err := n.candidates[idx].Evaluate(ctx)
	if err != nil {
		return err
	}
	out.WriteString(v.String())

	// The cycle never exhausts; it wraps indefinitely.
	state[fingerprint] = (idx + 1) % len(n.candidates)
	return nil
}
