package lexer

// SyntaxConfig holds the delimiters for template syntax.
type SyntaxConfig struct {
	TagStart    string
	TagEnd      string
	OutputStart string
	OutputEnd   string
}

// DefaultSyntax returns the default Liquid syntax configuration.
func DefaultSyntax() SyntaxConfig {
	return SyntaxConfig{
		TagStart:    "{%",
		TagEnd:      "%}",
		OutputStart: "{{",
		OutputEnd:   "}}",
	}
}
