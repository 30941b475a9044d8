// Package lexer provides tokenization for Liquid templates.
package lexer

import "fmt"

// TokenKind represents the kind of a token.
type TokenKind int

const (
	// TokenText is raw template text between tags.
	TokenText TokenKind = iota

	// TokenOutput is an output statement: {{ expression }}.
	TokenOutput

	// TokenTag is a tag statement: {% name args %}.
	TokenTag
)

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "text"
	case TokenOutput:
		return "output"
	case TokenTag:
		return "tag"
	default:
		return "unknown"
	}
}

// TagToken is the parsed shell of one tag invocation: the tag name and
// its raw, unparsed argument string. Tags consume it once at parse time.
type TagToken struct {
	Name string // tag name, e.g. "render"
	Args string // raw argument string after the name
	Raw  string // original source including delimiters
	Span Span
}

func (t *TagToken) String() string {
	return fmt.Sprintf("{%% %s %s %%}", t.Name, t.Args)
}

// Token is one unit of the token stream produced by Tokenize.
type Token struct {
	Kind TokenKind
	Text string    // text content (TokenText), inner expression (TokenOutput)
	Tag  *TagToken // set when Kind is TokenTag
	Raw  string    // original source slice
	Span Span

	trimLeft  bool
	trimRight bool
}
