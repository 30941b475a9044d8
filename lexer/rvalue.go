package lexer

import "regexp"

// ValuePattern matches one lexical "value" unit of tag-argument grammar:
// a quoted string, a number, or a variable path with dot/bracket segments.
// Tags use it to split candidate lists and scan argument values.
var ValuePattern = regexp.MustCompile(
	`'[^']*'|"[^"]*"|-?\d+(?:\.\d+)?|[A-Za-z_][\w-]*(?:\.[A-Za-z_][\w-]*|\[[^\]]*\])*`)

var valueAt = regexp.MustCompile(
	`^(?:'[^']*'|"[^"]*"|-?\d+(?:\.\d+)?|[A-Za-z_][\w-]*(?:\.[A-Za-z_][\w-]*|\[[^\]]*\])*)`)

var identAt = regexp.MustCompile(`^[A-Za-z_][\w-]*`)

var pathAt = regexp.MustCompile(`^[\w./-]+`)

// SplitValues returns every value unit in s, in order.
func SplitValues(s string) []string {
	return ValuePattern.FindAllString(s, -1)
}

// ArgScanner is a cursor over a tag's raw argument string. Tags drive it
// from their parse phase to pick apart values, keywords and hash pairs.
type ArgScanner struct {
	src string
	pos int
}

// NewArgScanner creates a scanner over a raw argument string.
func NewArgScanner(src string) *ArgScanner {
	return &ArgScanner{src: src}
}

// SkipSpaces advances past spaces, tabs and commas. Liquid argument lists
// accept both separators interchangeably.
func (s *ArgScanner) SkipSpaces() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\r', '\n', ',':
			s.pos++
		default:
			return
		}
	}
}

// End reports whether only separators remain.
func (s *ArgScanner) End() bool {
	s.SkipSpaces()
	return s.pos >= len(s.src)
}

// Rest returns the unconsumed remainder.
func (s *ArgScanner) Rest() string {
	return s.src[s.pos:]
}

// ScanValue consumes one value unit, if one is next.
func (s *ArgScanner) ScanValue() (string, bool) {
	s.SkipSpaces()
	m := valueAt.FindString(s.src[s.pos:])
	if m == "" {
		return "", false
	}
	s.pos += len(m)
	return m, true
}

// ScanIdent consumes one identifier, if one is next.
func (s *ArgScanner) ScanIdent() (string, bool) {
	s.SkipSpaces()
	m := identAt.FindString(s.src[s.pos:])
	if m == "" {
		return "", false
	}
	s.pos += len(m)
	return m, true
}

// ScanPath consumes one unquoted relative path, if one is next. Unlike
// ScanValue it accepts slashes, so bare partial names like bar/foo.html
// scan as one unit.
func (s *ArgScanner) ScanPath() (string, bool) {
	s.SkipSpaces()
	m := pathAt.FindString(s.src[s.pos:])
	if m == "" {
		return "", false
	}
	s.pos += len(m)
	return m, true
}

// AcceptByte consumes b if it is the next non-space byte.
func (s *ArgScanner) AcceptByte(b byte) bool {
	s.SkipSpaces()
	if s.pos < len(s.src) && s.src[s.pos] == b {
		s.pos++
		return true
	}
	return false
}

// AcceptWord consumes the keyword w if it is next, requiring a word
// boundary after it so "with" does not match "withdrawal".
func (s *ArgScanner) AcceptWord(w string) bool {
	s.SkipSpaces()
	end := s.pos + len(w)
	if end > len(s.src) || s.src[s.pos:end] != w {
		return false
	}
	if end < len(s.src) && isWordByte(s.src[end]) {
		return false
	}
	s.pos = end
	return true
}

// ScanHash consumes one "key: value" or "key=value" pair, if one is next.
func (s *ArgScanner) ScanHash() (key, val string, ok bool) {
	s.SkipSpaces()
	mark := s.pos
	k, ok := s.ScanIdent()
	if !ok {
		return "", "", false
	}
	if !s.AcceptByte(':') && !s.AcceptByte('=') {
		s.pos = mark
		return "", "", false
	}
	v, ok := s.ScanValue()
	if !ok {
		s.pos = mark
		return "", "", false
	}
	return k, v, true
}

func isWordByte(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
