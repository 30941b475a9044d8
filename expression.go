package liquid

import (
	"strconv"
	"strings"

	"github.com/sschuldenzucker/liquidjs/value"
)

// Expression is an immutable parsed value-producing fragment: a literal,
// a variable path, or either followed by a filter chain. It is created
// once at tag parse time and re-evaluated against a Context on every
// render.
type Expression struct {
	src     string
	root    term
	filters []filterCall
}

type filterCall struct {
	name string
	args []term
}

type segKind int

const (
	segAttr segKind = iota
	segIndex
	segDynamic
)

type segment struct {
	kind segKind
	name string
	index int64
	inner *term // segDynamic: bracketed sub-term evaluated at render time
}

type term struct {
	literal   value.Value
	isLiteral bool
	path      []segment
}

// ParseExpression parses sourceText into an Expression. It fails with a
// syntax-kind error when the source matches neither a literal, a variable
// path, nor a filter chain over one of those.
func ParseExpression(src string) (*Expression, error) {
	parts := splitOutsideQuotes(src, '|')
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return nil, NewError(ErrSyntax, "empty expression").WithSource(src)
	}

	root, err := parseTerm(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, err
	}

	expr := &Expression{src: src, root: root}
	for _, part := range parts[1:] {
		fc, err := parseFilterCall(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		expr.filters = append(expr.filters, fc)
	}
	return expr, nil
}

// Source returns the original source text of the expression.
func (e *Expression) Source() string {
	return e.src
}

// Evaluate resolves the expression against ctx. An undefined variable
// path yields Undefined rather than an error; filter failures propagate.
func (e *Expression) Evaluate(ctx *Context) (value.Value, error) {
	v, err := e.root.eval(ctx)
	if err != nil {
		return value.Undefined(), err
	}
	for _, fc := range e.filters {
		args := make([]value.Value, len(fc.args))
		for i, arg := range fc.args {
			if args[i], err = arg.eval(ctx); err != nil {
				return value.Undefined(), err
			}
		}
		if v, err = ctx.env.applyFilter(ctx, fc.name, v, args); err != nil {
			return value.Undefined(), err
		}
	}
	return v, nil
}

func (t term) eval(ctx *Context) (value.Value, error) {
	if t.isLiteral {
		return t.literal, nil
	}
	v := ctx.Lookup(t.path[0].name)
	for _, seg := range t.path[1:] {
		switch seg.kind {
		case segAttr:
			v = v.GetAttr(seg.name)
		case segIndex:
			v = v.GetIndex(seg.index)
		default:
			key, err := seg.inner.eval(ctx)
			if err != nil {
				return value.Undefined(), err
			}
			if i, ok := key.AsInt(); ok {
				v = v.GetIndex(i)
			} else {
				v = v.GetAttr(key.String())
			}
		}
	}
	return v, nil
}

func parseFilterCall(src string) (filterCall, error) {
	name := src
	rest := ""
	if i := strings.IndexByte(src, ':'); i >= 0 {
		name = strings.TrimSpace(src[:i])
		rest = src[i+1:]
	}
	if name == "" || !isIdent(name) {
		return filterCall{}, NewError(ErrSyntax, "malformed filter").WithSource(src)
	}
	fc := filterCall{name: name}
	for _, arg := range splitOutsideQuotes(rest, ',') {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		t, err := parseTerm(arg)
		if err != nil {
			return filterCall{}, err
		}
		fc.args = append(fc.args, t)
	}
	return fc, nil
}

func parseTerm(src string) (term, error) {
	switch src {
	case "true":
		return term{literal: value.FromBool(true), isLiteral: true}, nil
	case "false":
		return term{literal: value.FromBool(false), isLiteral: true}, nil
	case "nil", "null":
		return term{literal: value.Nil(), isLiteral: true}, nil
	}

	if len(src) >= 2 {
		if (src[0] == '\'' && src[len(src)-1] == '\'') || (src[0] == '"' && src[len(src)-1] == '"') {
			return term{literal: value.FromString(src[1 : len(src)-1]), isLiteral: true}, nil
		}
	}

	if src != "" && (src[0] == '-' || (src[0] >= '0' && src[0] <= '9')) {
		if i, err := strconv.ParseInt(src, 10, 64); err == nil {
			return term{literal: value.FromInt(i), isLiteral: true}, nil
		}
		if f, err := strconv.ParseFloat(src, 64); err == nil {
			return term{literal: value.FromFloat(f), isLiteral: true}, nil
		}
		return term{}, NewError(ErrSyntax, "malformed number literal").WithSource(src)
	}

	path, err := parsePath(src)
	if err != nil {
		return term{}, err
	}
	return term{path: path}, nil
}

func parsePath(src string) ([]segment, error) {
	var segs []segment
	pos := 0
	for pos < len(src) {
		switch {
		case src[pos] == '.':
			pos++
			start := pos
			for pos < len(src) && isIdentByte(src[pos]) {
				pos++
			}
			if start == pos {
				return nil, NewError(ErrSyntax, "malformed variable path").WithSource(src)
			}
			segs = append(segs, segment{kind: segAttr, name: src[start:pos]})
		case src[pos] == '[':
			end := strings.IndexByte(src[pos:], ']')
			if end < 0 {
				return nil, NewError(ErrSyntax, "unclosed bracket in variable path").WithSource(src)
			}
			inner := strings.TrimSpace(src[pos+1 : pos+end])
			pos += end + 1
			sub, err := parseTerm(inner)
			if err != nil {
				return nil, err
			}
			if sub.isLiteral {
				if i, ok := sub.literal.AsInt(); ok {
					segs = append(segs, segment{kind: segIndex, index: i})
					continue
				}
				if s, ok := sub.literal.AsString(); ok {
					segs = append(segs, segment{kind: segAttr, name: s})
					continue
				}
			}
			segs = append(segs, segment{kind: segDynamic, inner: &sub})
		case len(segs) == 0:
			start := pos
			for pos < len(src) && isIdentByte(src[pos]) {
				pos++
			}
			if start == pos || (src[start] >= '0' && src[start] <= '9') {
				return nil, NewError(ErrSyntax, "malformed variable path").WithSource(src)
			}
			segs = append(segs, segment{kind: segAttr, name: src[start:pos]})
		default:
			return nil, NewError(ErrSyntax, "malformed variable path").WithSource(src)
		}
	}
	if len(segs) == 0 {
		return nil, NewError(ErrSyntax, "empty variable path").WithSource(src)
	}
	return segs, nil
}

// splitOutsideQuotes splits s on sep, ignoring separators inside quoted
// strings and brackets.
func splitOutsideQuotes(s string, sep byte) []string {
	var parts []string
	var quote byte
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func isIdent(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
