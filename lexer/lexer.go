package lexer

import (
	"fmt"
	"strings"
)

// Lexer tokenizes Liquid template source code.
type Lexer struct {
	source string
	pos    int
	line   uint16 // current line (1-indexed)
	col    uint16 // current column (0-indexed at line start)
	syntax SyntaxConfig
}

// New creates a new Lexer for the given input.
func New(input string, syntax SyntaxConfig) *Lexer {
	return &Lexer{
		source: input,
		line:   1,
		syntax: syntax,
	}
}

// Tokenize returns all tokens from the input with whitespace control
// ({%- ... -%}, {{- ... -}}) already applied to the surrounding text.
func Tokenize(input string, syntax SyntaxConfig) ([]Token, error) {
	l := New(input, syntax)
	tokens, err := l.All()
	if err != nil {
		return nil, err
	}
	applyWhitespaceControl(tokens)
	return tokens, nil
}

// All collects all tokens into a slice.
func (l *Lexer) All() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			break
		}
		tokens = append(tokens, *tok)
	}
	return tokens, nil
}

// Next returns the next token, or nil at end of input.
func (l *Lexer) Next() (*Token, error) {
	if l.pos >= len(l.source) {
		return nil, nil
	}

	rest := l.source[l.pos:]
	tagIdx := strings.Index(rest, l.syntax.TagStart)
	outIdx := strings.Index(rest, l.syntax.OutputStart)

	// {{ and {% share a first byte with the default syntax; the earlier
	// match wins, and a tie means {%.
	next := -1
	isTag := false
	switch {
	case tagIdx >= 0 && (outIdx < 0 || tagIdx <= outIdx):
		next, isTag = tagIdx, true
	case outIdx >= 0:
		next = outIdx
	}

	if next != 0 {
		end := len(rest)
		if next > 0 {
			end = next
		}
		tok := l.startToken()
		tok.Kind = TokenText
		tok.Text = rest[:end]
		tok.Raw = rest[:end]
		l.advance(end)
		l.endToken(tok)
		return tok, nil
	}

	if isTag {
		return l.scanTag()
	}
	return l.scanOutput()
}

func (l *Lexer) scanOutput() (*Token, error) {
	return l.scanDelimited(TokenOutput, l.syntax.OutputStart, l.syntax.OutputEnd)
}

func (l *Lexer) scanTag() (*Token, error) {
	tok, err := l.scanDelimited(TokenTag, l.syntax.TagStart, l.syntax.TagEnd)
	if err != nil {
		return nil, err
	}

	content := tok.Text
	name := content
	args := ""
	for i := 0; i < len(content); i++ {
		if content[i] == ' ' || content[i] == '\t' || content[i] == '\n' || content[i] == '\r' {
			name = content[:i]
			args = strings.TrimSpace(content[i:])
			break
		}
	}
	if name == "" {
		return nil, fmt.Errorf("empty tag at line %d", tok.Span.StartLine)
	}
	if !isTagName(name) {
		return nil, fmt.Errorf("malformed tag %q at line %d", name, tok.Span.StartLine)
	}

	tok.Tag = &TagToken{
		Name: name,
		Args: args,
		Raw:  tok.Raw,
		Span: tok.Span,
	}
	tok.Text = ""
	return tok, nil
}

func (l *Lexer) scanDelimited(kind TokenKind, start, end string) (*Token, error) {
	tok := l.startToken()
	tok.Kind = kind

	rest := l.source[l.pos:]
	endIdx := findDelimiter(rest[len(start):], end)
	if endIdx < 0 {
		return nil, fmt.Errorf("unclosed %q at line %d", start, l.line)
	}
	endIdx += len(start)

	raw := rest[:endIdx+len(end)]
	inner := rest[len(start):endIdx]

	// Whitespace control markers sit just inside the delimiters.
	if strings.HasPrefix(inner, "-") {
		tok.trimLeft = true
		inner = inner[1:]
	}
	if strings.HasSuffix(inner, "-") {
		tok.trimRight = true
		inner = inner[:len(inner)-1]
	}

	tok.Raw = raw
	tok.Text = strings.TrimSpace(inner)
	l.advance(len(raw))
	l.endToken(tok)
	return tok, nil
}

func (l *Lexer) startToken() *Token {
	return &Token{
		Span: Span{
			StartLine:   l.line,
			StartCol:    l.col,
			StartOffset: uint32(l.pos),
		},
	}
}

func (l *Lexer) endToken(tok *Token) {
	tok.Span.EndLine = l.line
	tok.Span.EndCol = l.col
	tok.Span.EndOffset = uint32(l.pos)
}

// advance consumes n bytes, tracking line and column.
func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		if l.source[l.pos+i] == '\n' {
			l.line++
			l.col = 0
		} else {
			l.col++
		}
	}
	l.pos += n
}

// findDelimiter locates the first occurrence of end outside quoted
// strings, so delimiters embedded in string literals do not close the
// token. Returns -1 when none is found, including inside an unclosed
// quote.
func findDelimiter(s, end string) int {
	var quote byte
	for i := 0; i+len(end) <= len(s); i++ {
		c := s[i]
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
		if s[i:i+len(end)] == end {
			return i
		}
	}
	return -1
}

func isTagName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// applyWhitespaceControl strips whitespace from text tokens adjacent to
// trim markers.
func applyWhitespaceControl(tokens []Token) {
	for i := range tokens {
		if tokens[i].Kind == TokenText {
			continue
		}
		if tokens[i].trimLeft && i > 0 && tokens[i-1].Kind == TokenText {
			tokens[i-1].Text = strings.TrimRight(tokens[i-1].Text, " \t\r\n")
		}
		if tokens[i].trimRight && i+1 < len(tokens) && tokens[i+1].Kind == TokenText {
			tokens[i+1].Text = strings.TrimLeft(tokens[i+1].Text, " \t\r\n")
		}
	}
}
