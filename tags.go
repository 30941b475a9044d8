package liquid

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/sschuldenzucker/liquidjs/lexer"
)

// Tag is the contract every tag implementation satisfies: a parse phase
// turning the raw token into a render-ready Node. Parse is a pure
// function of the token (plus, for block tags, the parser it drives to
// consume its body); a grammar violation fails with a parse- or
// syntax-kind error and aborts compilation of the enclosing template.
//
// The returned Node's Render is the render phase. It must not retain the
// Context beyond the call; it may write output, set variables in the
// current scope, or update register state.
type Tag interface {
	Parse(tok *lexer.TagToken, p *Parser) (Node, error)
}

// TagFunc adapts a function to the Tag interface.
type TagFunc func(tok *lexer.TagToken, p *Parser) (Node, error)

// Parse implements Tag.
func (f TagFunc) Parse(tok *lexer.TagToken, p *Parser) (Node, error) {
	return f(tok, p)
}

func registerDefaultTags(env *Environment) {
	env.RegisterTag("assign", TagFunc(parseAssignTag))
	env.RegisterTag("capture", TagFunc(parseCaptureTag))
	env.RegisterTag("increment", TagFunc(parseIncrementTag))
	env.RegisterTag("decrement", TagFunc(parseDecrementTag))
	env.RegisterTag("cycle", TagFunc(parseCycleTag))
	env.RegisterTag("if", TagFunc(parseIfTag))
	env.RegisterTag("unless", TagFunc(parseUnlessTag))
	env.RegisterTag("for", TagFunc(parseForTag))
	env.RegisterTag("break", TagFunc(parseBreakTag))
	env.RegisterTag("continue", TagFunc(parseContinueTag))
	env.RegisterTag("render", TagFunc(parseRenderTag))
	env.RegisterTag("include", TagFunc(parseIncludeTag))
	env.RegisterTag("comment", TagFunc(parseCommentTag))
	env.RegisterTag("raw", TagFunc(parseRawTag))
}

// unknownTagError builds the parse-time error for an unregistered tag,
// with a fuzzy-matched suggestion when one is close enough.
func unknownTagError(env *Environment, tok *lexer.TagToken) *Error {
	msg := fmt.Sprintf("tag %q not registered", tok.Name)
	if s := suggest(tok.Name, env.tagNames()); s != "" {
		msg += fmt.Sprintf(", did you mean %q?", s)
	}
	return NewError(ErrUnknownTag, msg).WithToken(tok)
}

// suggest returns the best fuzzy match for name among candidates, or ""
// when nothing ranks.
func suggest(name string, candidates []string) string {
	matches := fuzzy.Find(strings.ToLower(name), candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
