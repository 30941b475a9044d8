package liquid

import (
	"strings"
	"testing"

	"github.com/sschuldenzucker/liquidjs/lexer"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrRender, "something broke")
	if got := err.Error(); got != "render error: something broke" {
		t.Errorf("unexpected message: %q", got)
	}

	err = NewError(ErrSyntax, "bad tag").
		WithSource("{% bad %}").
		WithSpan(lexer.Span{StartLine: 3}).
		WithName("page.html")
	got := err.Error()
	for _, want := range []string{"syntax error", "bad tag", `"{% bad %}"`, "page.html", "line 3"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestErrorWithTokenKeepsInnermostLocation(t *testing.T) {
	inner := &lexer.TagToken{Name: "render", Raw: `{% render "x" %}`}
	inner.Span.StartLine = 9
	outer := &lexer.TagToken{Name: "render", Raw: `{% render "y" %}`}
	outer.Span.StartLine = 1

	err := NewError(ErrRender, "boom").WithToken(inner)
	err.WithToken(outer)
	if err.Span.StartLine != 9 {
		t.Errorf("outer token must not overwrite the inner span, got line %d", err.Span.StartLine)
	}
	if err.Source != `{% render "x" %}` {
		t.Errorf("expected inner source, got %q", err.Source)
	}
}

func TestErrorKindStrings(t *testing.T) {
	kinds := map[ErrorKind]string{
		ErrSyntax:           "syntax error",
		ErrParse:            "parse error",
		ErrRender:           "render error",
		ErrTemplateNotFound: "template not found",
		ErrUnknownFilter:    "unknown filter",
		ErrUnknownTag:       "unknown tag",
	}
	for kind, want := range kinds {
		if kind.String() != want {
			t.Errorf("expected %q, got %q", want, kind.String())
		}
	}
}
