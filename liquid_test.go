package liquid

import (
	"errors"
	"strings"
	"testing"
)

// mustRender parses and renders source against env, failing the test on
// any error.
func mustRender(t *testing.T, env *Environment, source string, data any) string {
	t.Helper()
	tmpl, err := env.ParseString(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := tmpl.Render(data)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	return out
}

func TestOutputBasics(t *testing.T) {
	env := NewEnvironment()
	cases := []struct {
		source string
		data   any
		want   string
	}{
		{"Hello {{ name }}!", map[string]any{"name": "World"}, "Hello World!"},
		{"{{ 'literal' }}", nil, "literal"},
		{"{{ 42 }} and {{ 1.5 }}", nil, "42 and 1.5"},
		{"{{ missing }}", nil, ""},
		{"{{ user.name }}", map[string]any{"user": map[string]any{"name": "amy"}}, "amy"},
		{"{{ items[1] }}", map[string]any{"items": []any{"a", "b", "c"}}, "b"},
		{"{{ items[-1] }}", map[string]any{"items": []any{"a", "b", "c"}}, "c"},
		{"{{ items.size }}", map[string]any{"items": []any{"a", "b", "c"}}, "3"},
	}
	for _, tc := range cases {
		if got := mustRender(t, env, tc.source, tc.data); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.source, tc.want, got)
		}
	}
}

func TestAssignAndCapture(t *testing.T) {
	env := NewEnvironment()
	got := mustRender(t, env, `{% assign greeting = "hi" %}{{ greeting }}`, nil)
	if got != "hi" {
		t.Errorf("expected %q, got %q", "hi", got)
	}

	got = mustRender(t, env, `{% assign n = "world" | upcase %}{{ n }}`, nil)
	if got != "WORLD" {
		t.Errorf("expected %q, got %q", "WORLD", got)
	}

	got = mustRender(t, env, `{% capture block %}a{{ 1 }}b{% endcapture %}[{{ block }}]`, nil)
	if got != "[a1b]" {
		t.Errorf("expected %q, got %q", "[a1b]", got)
	}

	got = mustRender(t, env, `{% assign x = "%}" %}{{ x }}`, nil)
	if got != "%}" {
		t.Errorf("expected %q, got %q", "%}", got)
	}
}

func TestIfAndUnless(t *testing.T) {
	env := NewEnvironment()
	cases := []struct {
		source string
		data   any
		want   string
	}{
		{`{% if x > 2 %}big{% else %}small{% endif %}`, map[string]any{"x": 3}, "big"},
		{`{% if x > 2 %}big{% else %}small{% endif %}`, map[string]any{"x": 1}, "small"},
		{`{% if x == 1 %}a{% elsif x == 2 %}b{% else %}c{% endif %}`, map[string]any{"x": 2}, "b"},
		{`{% unless done %}pending{% endunless %}`, map[string]any{"done": false}, "pending"},
		{`{% if s contains "ell" %}yes{% endif %}`, map[string]any{"s": "hello"}, "yes"},
		{`{% if a and b %}both{% endif %}`, map[string]any{"a": true, "b": true}, "both"},
		{`{% if a or b %}one{% endif %}`, map[string]any{"a": false, "b": true}, "one"},
		// Connectors chain right-associatively: a or (b and c).
		{`{% if a or b and c %}yes{% else %}no{% endif %}`,
			map[string]any{"a": true, "b": false, "c": false}, "yes"},
		// Zero and the empty string are truthy in Liquid.
		{`{% if zero %}truthy{% endif %}`, map[string]any{"zero": 0}, "truthy"},
		{`{% if nothing %}truthy{% else %}falsy{% endif %}`, nil, "falsy"},
	}
	for _, tc := range cases {
		if got := mustRender(t, env, tc.source, tc.data); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.source, tc.want, got)
		}
	}
}

func TestForLoop(t *testing.T) {
	env := NewEnvironment()
	data := map[string]any{"items": []any{"a", "b", "c", "d"}}
	cases := []struct {
		source string
		want   string
	}{
		{`{% for x in items %}{{ x }}{% endfor %}`, "abcd"},
		{`{% for x in items limit: 2 %}{{ x }}{% endfor %}`, "ab"},
		{`{% for x in items offset: 2 %}{{ x }}{% endfor %}`, "cd"},
		{`{% for x in items reversed %}{{ x }}{% endfor %}`, "dcba"},
		{`{% for x in items %}{{ forloop.index }}{% endfor %}`, "1234"},
		{`{% for x in items %}{% if forloop.last %}{{ x }}{% endif %}{% endfor %}`, "d"},
		{`{% for x in empty %}{{ x }}{% else %}none{% endfor %}`, "none"},
		{`{% for x in items %}{% if x == "c" %}{% break %}{% endif %}{{ x }}{% endfor %}`, "ab"},
		{`{% for x in items %}{% if x == "b" %}{% continue %}{% endif %}{{ x }}{% endfor %}`, "acd"},
	}
	for _, tc := range cases {
		if got := mustRender(t, env, tc.source, data); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.source, tc.want, got)
		}
	}
}

func TestLoopControlOutsideLoop(t *testing.T) {
	env := NewEnvironment()
	// Outside a for body, break and continue stop the template quietly;
	// output produced up to that point is kept.
	if got := mustRender(t, env, `a{% break %}b`, nil); got != "a" {
		t.Errorf("expected %q, got %q", "a", got)
	}
	if got := mustRender(t, env, `a{% continue %}b`, nil); got != "a" {
		t.Errorf("expected %q, got %q", "a", got)
	}
}

func TestBreakStaysInsidePartial(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("item.html", `!{% break %}?`)
	got := mustRender(t, env, `{% for x in items %}{{ x }}{% render "item.html" %}{% endfor %}`,
		map[string]any{"items": []any{"a", "b"}})
	if got != "a!b!" {
		t.Errorf("break must not cross the partial boundary, got %q", got)
	}
}

func TestForLoopVariableScoping(t *testing.T) {
	env := NewEnvironment()
	got := mustRender(t, env, `{% for x in items %}{{ x }}{% endfor %}{{ x }}`,
		map[string]any{"items": []any{"a"}})
	if got != "a" {
		t.Errorf("loop variable leaked: got %q", got)
	}
}

func TestCommentAndRaw(t *testing.T) {
	env := NewEnvironment()
	got := mustRender(t, env, `a{% comment %}hidden {{ x }}{% endcomment %}b`, nil)
	if got != "ab" {
		t.Errorf("expected %q, got %q", "ab", got)
	}
	got = mustRender(t, env, `{% raw %}{{ not_evaluated }}{% endraw %}`, nil)
	if got != "{{ not_evaluated }}" {
		t.Errorf("expected %q, got %q", "{{ not_evaluated }}", got)
	}
}

func TestWhitespaceControl(t *testing.T) {
	env := NewEnvironment()
	got := mustRender(t, env, "a \n{%- assign x = 1 -%}\n b{{ x }}", nil)
	if got != "ab1" {
		t.Errorf("expected %q, got %q", "ab1", got)
	}
}

func TestRenderPartialInline(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("bar/foo.html", "foo")
	got := mustRender(t, env, `bar{% render "bar/foo.html" %}bar`, nil)
	if got != "barfoobar" {
		t.Errorf("expected %q, got %q", "barfoobar", got)
	}
}

func TestRenderHashArguments(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("user.html", "{{role}} : {{alias}}")
	got := mustRender(t, env,
		`{% assign name="harttle" %}{% render "user.html", role: "admin", alias: name %}`, nil)
	if got != "admin : harttle" {
		t.Errorf("expected %q, got %q", "admin : harttle", got)
	}
}

func TestRenderWithBinding(t *testing.T) {
	env := NewEnvironment()
	env.SetExtname(".html")
	env.AddTemplate("color.html", "color:{{color}}, shape:{{shape}}")
	got := mustRender(t, env, `{% render "color" with "red", shape: "rect" %}`, nil)
	if got != "color:red, shape:rect" {
		t.Errorf("expected %q, got %q", "color:red, shape:rect", got)
	}
}

func TestRenderWithAlias(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("card.html", "[{{ item }}]")
	got := mustRender(t, env, `{% render "card.html" with product as item %}`,
		map[string]any{"product": "lamp"})
	if got != "[lamp]" {
		t.Errorf("expected %q, got %q", "[lamp]", got)
	}
}

func TestRenderForCollection(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("item.html", "{{ thing }}:{{ forloop.index }};")
	got := mustRender(t, env, `{% render "item.html" for items as thing %}`,
		map[string]any{"items": []any{"a", "b", "c"}})
	if got != "a:1;b:2;c:3;" {
		t.Errorf("expected %q, got %q", "a:1;b:2;c:3;", got)
	}
}

func TestRenderScopeIsolation(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("peek.html", "[{{ secret }}]{% assign inner = 'x' %}")
	got := mustRender(t, env, `{% assign secret = "hidden" %}{% render "peek.html" %}{{ inner }}`, nil)
	if got != "[]" {
		t.Errorf("expected isolation, got %q", got)
	}
}

func TestRenderGlobalsVisible(t *testing.T) {
	env := NewEnvironment()
	env.AddGlobal("site", "example.com")
	env.AddTemplate("footer.html", "{{ site }}")
	got := mustRender(t, env, `{% render "footer.html" %}`, nil)
	if got != "example.com" {
		t.Errorf("expected %q, got %q", "example.com", got)
	}
}

func TestIncludeInheritsScope(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("peek.html", "[{{ secret }}]{% assign inner = 'x' %}")
	got := mustRender(t, env, `{% assign secret = "shown" %}{% include "peek.html" %}{{ inner }}`, nil)
	if got != "[shown]" {
		t.Errorf("expected inherited scope with local writes, got %q", got)
	}
}

func TestRenderRelativePartial(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("views/page.html", `{% render "./side.html" %}`)
	env.AddTemplate("views/side.html", "side")
	tmpl, err := env.GetTemplate("views/page.html")
	if err != nil {
		t.Fatalf("get template error: %v", err)
	}
	got, err := tmpl.Render(nil)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got != "side" {
		t.Errorf("expected %q, got %q", "side", got)
	}
}

func TestRenderDynamicPartialName(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("profile.html", "profile")
	got := mustRender(t, env, `{% render "{{ which }}.html" %}`,
		map[string]any{"which": "profile"})
	if got != "profile" {
		t.Errorf("expected %q, got %q", "profile", got)
	}

	got = mustRender(t, env, `{% render which %}`,
		map[string]any{"which": "profile.html"})
	if got != "profile" {
		t.Errorf("expected %q, got %q", "profile", got)
	}
}

func TestRenderStaticPartialsRejectDynamicNames(t *testing.T) {
	env := NewEnvironment()
	env.SetDynamicPartials(false)
	env.AddTemplate("profile.html", "profile")

	tmpl, err := env.ParseString(`{% render "{{ which }}.html" %}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = tmpl.Render(map[string]any{"which": "profile"})
	if err == nil {
		t.Fatal("expected an error for a dynamic name in static mode")
	}
	if !strings.Contains(err.Error(), "illegal partial name") {
		t.Errorf("unexpected error: %v", err)
	}

	// Plain literal paths still work in static mode.
	got := mustRender(t, env, `{% render "profile.html" %}`, nil)
	if got != "profile" {
		t.Errorf("expected %q, got %q", "profile", got)
	}
}

func TestRenderEmptyFilename(t *testing.T) {
	env := NewEnvironment()
	for _, source := range []string{
		`{% render %}`,
		`{% render "" %}`,
		`{% render nonexistent_variable %}`,
	} {
		tmpl, err := env.ParseString(source)
		if err != nil {
			t.Fatalf("%s: parse error: %v", source, err)
		}
		_, err = tmpl.Render(nil)
		if err == nil {
			t.Fatalf("%s: expected an error", source)
		}
		var le *Error
		if !errors.As(err, &le) || le.Kind != ErrRender {
			t.Errorf("%s: expected a render error, got %v", source, err)
		}
		if !strings.Contains(err.Error(), "cannot render with empty filename") {
			t.Errorf("%s: unexpected message: %v", source, err)
		}
	}
}

func TestRenderPartialNotFound(t *testing.T) {
	env := NewEnvironment()
	tmpl, err := env.ParseString(`{% render "missing.html" %}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = tmpl.Render(nil)
	var le *Error
	if !errors.As(err, &le) || le.Kind != ErrTemplateNotFound {
		t.Fatalf("expected a template-not-found error, got %v", err)
	}
}

func TestRenderDepthLimit(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("loop.html", `{% render "loop.html" %}`)
	tmpl, err := env.ParseString(`{% render "loop.html" %}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = tmpl.Render(nil)
	if err == nil || !strings.Contains(err.Error(), "depth exceeded") {
		t.Fatalf("expected a depth error, got %v", err)
	}
}

func TestIncrementDecrement(t *testing.T) {
	env := NewEnvironment()
	got := mustRender(t, env, `{% increment c %}{% increment c %}{% increment c %}`, nil)
	if got != "012" {
		t.Errorf("expected %q, got %q", "012", got)
	}
	got = mustRender(t, env, `{% decrement c %}{% decrement c %}`, nil)
	if got != "-1-2" {
		t.Errorf("expected %q, got %q", "-1-2", got)
	}
	// Counters live in registers, independent of assigned variables.
	got = mustRender(t, env, `{% assign c = "str" %}{% increment c %}{{ c }}`, nil)
	if got != "0str" {
		t.Errorf("expected %q, got %q", "0str", got)
	}
}

func TestUnknownTagSuggestion(t *testing.T) {
	env := NewEnvironment()
	_, err := env.ParseString(`{% asign x = 1 %}`)
	if err == nil {
		t.Fatal("expected a parse error for an unknown tag")
	}
	if !strings.Contains(err.Error(), `"assign"`) {
		t.Errorf("expected a suggestion for assign, got %v", err)
	}
}

func TestSyntaxErrorHasLocation(t *testing.T) {
	env := NewEnvironment()
	_, err := env.ParseString("line one\n{{ unclosed")
	var le *Error
	if !errors.As(err, &le) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if le.Kind != ErrSyntax {
		t.Errorf("expected a syntax error, got %v", le.Kind)
	}
}
