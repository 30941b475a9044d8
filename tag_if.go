package liquid

import (
	"strings"

	"github.com/sschuldenzucker/liquidjs/lexer"
)

// if / elsif / else / unless. Conditions are comparisons over value
// terms joined by "and"/"or", which Liquid evaluates right-associatively:
// "a and b or c" means "a and (b or c)".

type ifBranch struct {
	cond *condition // nil for else
	body []Node
}

type ifNode struct {
	branches []ifBranch
}

func parseIfTag(tok *lexer.TagToken, p *Parser) (Node, error) {
	return parseConditional(tok, p, false)
}

func parseUnlessTag(tok *lexer.TagToken, p *Parser) (Node, error) {
	return parseConditional(tok, p, true)
}

func parseConditional(tok *lexer.TagToken, p *Parser, negate bool) (Node, error) {
	end := "end" + tok.Name
	cond, err := parseCondition(tok.Args)
	if err != nil {
		return nil, err
	}
	cond.negate = negate

	node := &ifNode{}
	current := ifBranch{cond: cond}
	for {
		body, stop, err := p.ParseUntil("elsif", "else", end)
		if err != nil {
			return nil, err
		}
		current.body = body
		node.branches = append(node.branches, current)

		switch stop.Name {
		case end:
			return node, nil
		case "else":
			current = ifBranch{}
		case "elsif":
			cond, err := parseCondition(stop.Args)
			if err != nil {
				return nil, err
			}
			current = ifBranch{cond: cond}
		}
	}
}

func (n *ifNode) Render(ctx *Context, out *strings.Builder) error {
	for _, branch := range n.branches {
		take := true
		if branch.cond != nil {
			ok, err := branch.cond.eval(ctx)
			if err != nil {
				return err
			}
			take = ok
		}
		if take {
			return renderNodes(branch.body, ctx, out)
		}
	}
	return nil
}

// condition is a chain of comparisons joined by one connector, parsed
// right-associatively.
type condition struct {
	left    comparison
	connect string // "and" or "or"; empty when left stands alone
	right   *condition
	negate  bool
}

type comparison struct {
	left  term
	op    string // empty for bare truthiness
	right term
}

func parseCondition(src string) (*condition, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, NewError(ErrParse, "missing condition").WithSource(src)
	}

	// Split at the earliest connector so "a or b and c" parses as
	// "a or (b and c)".
	connect, at := "", -1
	for _, word := range []string{"and", "or"} {
		if i := findKeyword(src, word); i >= 0 && (at < 0 || i < at) {
			connect, at = word, i
		}
	}
	if at >= 0 {
		left, err := parseComparison(src[:at])
		if err != nil {
			return nil, err
		}
		right, err := parseCondition(src[at+len(connect):])
		if err != nil {
			return nil, err
		}
		return &condition{left: left, connect: connect, right: right}, nil
	}

	cmp, err := parseComparison(src)
	if err != nil {
		return nil, err
	}
	return &condition{left: cmp}, nil
}

var comparisonOps = []string{"==", "!=", "<>", "<=", ">=", "<", ">", "contains"}

func parseComparison(src string) (comparison, error) {
	src = strings.TrimSpace(src)
	for _, op := range comparisonOps {
		var i int
		if op == "contains" {
			i = findKeyword(src, op)
		} else {
			i = findOutsideQuotes(src, op)
		}
		if i < 0 {
			continue
		}
		left, err := parseTerm(strings.TrimSpace(src[:i]))
		if err != nil {
			return comparison{}, err
		}
		right, err := parseTerm(strings.TrimSpace(src[i+len(op):]))
		if err != nil {
			return comparison{}, err
		}
		return comparison{left: left, op: op, right: right}, nil
	}

	t, err := parseTerm(src)
	if err != nil {
		return comparison{}, err
	}
	return comparison{left: t}, nil
}

func (c *condition) eval(ctx *Context) (bool, error) {
	ok, err := c.left.eval(ctx)
	if err != nil {
		return false, err
	}
	switch c.connect {
	case "and":
		if ok {
			ok, err = c.right.eval(ctx)
			if err != nil {
				return false, err
			}
		}
	case "or":
		if !ok {
			ok, err = c.right.eval(ctx)
			if err != nil {
				return false, err
			}
		}
	}
	if c.negate {
		ok = !ok
	}
	return ok, nil
}

func (c comparison) eval(ctx *Context) (bool, error) {
	left, err := c.left.eval(ctx)
	if err != nil {
		return false, err
	}
	if c.op == "" {
		return left.IsTrue(), nil
	}
	right, err := c.right.eval(ctx)
	if err != nil {
		return false, err
	}
	switch c.op {
	case "==":
		return left.Equal(right), nil
	case "!=", "<>":
		return !left.Equal(right), nil
	case "contains":
		return left.Contains(right), nil
	}
	cmp, comparable := left.Compare(right)
	if !comparable {
		return false, nil
	}
	switch c.op {
	case "<":
		return cmp < 0, nil
	case ">":
		return cmp > 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">=":
		return cmp >= 0, nil
	}
	return false, nil
}

// findKeyword locates a word-bounded keyword outside quotes, or -1.
func findKeyword(src, word string) int {
	for i := 0; i+len(word) <= len(src); {
		j := findOutsideQuotesFrom(src, word, i)
		if j < 0 {
			return -1
		}
		beforeOK := j == 0 || !isIdentByte(src[j-1])
		afterOK := j+len(word) == len(src) || !isIdentByte(src[j+len(word)])
		if beforeOK && afterOK {
			return j
		}
		i = j + 1
	}
	return -1
}

func findOutsideQuotes(src, sub string) int {
	return findOutsideQuotesFrom(src, sub, 0)
}

func findOutsideQuotesFrom(src, sub string, from int) int {
	var quote byte
	for i := from; i+len(sub) <= len(src); i++ {
		c := src[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			continue
		}
		if src[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
