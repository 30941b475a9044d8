package liquid

import (
	"strconv"
	"strings"

	"github.com/sschuldenzucker/liquidjs/lexer"
)

// increment and decrement maintain named counters in the register store,
// independent of variables created by assign. Counters persist across
// invocations within one render call, including inside loops and nested
// partials.

const counterRegisterKey = "counter"

func counterRegister(ctx *Context) map[string]int64 {
	return ctx.Register(counterRegisterKey, func() any {
		return make(map[string]int64)
	}).(map[string]int64)
}

type incrementNode struct {
	name string
}

func parseIncrementTag(tok *lexer.TagToken, _ *Parser) (Node, error) {
	name, err := counterName(tok)
	if err != nil {
		return nil, err
	}
	return &incrementNode{name: name}, nil
}

// Render emits the current counter value starting at 0, then increments.
func (n *incrementNode) Render(ctx *Context, out *strings.Builder) error {
	counters := counterRegister(ctx)
	v := counters[n.name]
	out.WriteString(strconv.FormatInt(v, 10))
	counters[n.name] = v + 1
	return nil
}

type decrementNode struct {
	name string
}

func parseDecrementTag(tok *lexer.TagToken, _ *Parser) (Node, error) {
	name, err := counterName(tok)
	if err != nil {
		return nil, err
	}
	return &decrementNode{name: name}, nil
}

// Render decrements first, so the sequence starts at -1.
func (n *decrementNode) Render(ctx *Context, out *strings.Builder) error {
	counters := counterRegister(ctx)
	v := counters[n.name] - 1
	counters[n.name] = v
	out.WriteString(strconv.FormatInt(v, 10))
	return nil
}

func counterName(tok *lexer.TagToken) (string, error) {
	s := lexer.NewArgScanner(tok.Args)
	name, ok := s.ScanIdent()
	if !ok || !s.End() {
		return "", NewError(ErrParse, tok.Name+" expects a single counter name").WithToken(tok)
	}
	return name, nil
}
