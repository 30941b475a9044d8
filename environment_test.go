package liquid

import (
	"strings"
	"testing"
	"time"

	"github.com/sschuldenzucker/liquidjs/internal/future"
	"github.com/sschuldenzucker/liquidjs/lexer"
	"github.com/sschuldenzucker/liquidjs/value"
)

func TestRenderAsyncMatchesSync(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("row.html", "{{ forloop.index }}:{{ item }};")
	tmpl, err := env.ParseString(`{% render "row.html" for items as item %}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	data := map[string]any{"items": []any{"a", "b", "c"}}

	syncOut, err := tmpl.Render(data)
	if err != nil {
		t.Fatalf("sync render error: %v", err)
	}
	asyncOut, err := tmpl.RenderAsync(data).Await()
	if err != nil {
		t.Fatalf("async render error: %v", err)
	}
	if syncOut != asyncOut {
		t.Errorf("modes diverged: sync %q, async %q", syncOut, asyncOut)
	}
	if syncOut != "1:a;2:b;3:c;" {
		t.Errorf("expected %q, got %q", "1:a;2:b;3:c;", syncOut)
	}
}

func TestAsyncFilterRequiresAsyncMode(t *testing.T) {
	env := NewEnvironment()
	env.AddAsyncFilter("fetch", func(_ *Context, val value.Value, _ []value.Value) *future.Future[value.Value] {
		return future.Go(func() (value.Value, error) {
			time.Sleep(time.Millisecond)
			return value.FromString("fetched:" + val.String()), nil
		})
	})
	tmpl, err := env.ParseString(`{{ "id" | fetch }}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	_, err = tmpl.Render(nil)
	if err == nil {
		t.Fatal("expected a sync-mode error for the async filter")
	}
	if !strings.Contains(err.Error(), `cannot invoke async filter "fetch" in synchronous rendering`) {
		t.Errorf("unexpected error: %v", err)
	}

	out, err := tmpl.RenderAsync(nil).Await()
	if err != nil {
		t.Fatalf("async render error: %v", err)
	}
	if out != "fetched:id" {
		t.Errorf("expected %q, got %q", "fetched:id", out)
	}
}

func TestAsyncOutputOrderMatchesSource(t *testing.T) {
	env := NewEnvironment()
	env.AddAsyncFilter("slow", func(_ *Context, val value.Value, _ []value.Value) *future.Future[value.Value] {
		return future.Go(func() (value.Value, error) {
			if val.String() == "first" {
				time.Sleep(5 * time.Millisecond)
			}
			return val, nil
		})
	})
	tmpl, err := env.ParseString(`{{ "first" | slow }},{{ "second" | slow }}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := tmpl.RenderAsync(nil).Await()
	if err != nil {
		t.Fatalf("async render error: %v", err)
	}
	if out != "first,second" {
		t.Errorf("output must follow source order, got %q", out)
	}
}

func TestStepLimit(t *testing.T) {
	env := NewEnvironment()
	env.SetStepLimit(10)
	tmpl, err := env.ParseString(`{% for x in items %}{{ x }}{% endfor %}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	items := make([]any, 100)
	for i := range items {
		items[i] = i
	}
	_, err = tmpl.Render(map[string]any{"items": items})
	if err == nil || !strings.Contains(err.Error(), "step limit exceeded") {
		t.Fatalf("expected a step-limit error, got %v", err)
	}

	// Small renders stay under the limit.
	if _, err := tmpl.Render(map[string]any{"items": []any{1, 2}}); err != nil {
		t.Fatalf("render error: %v", err)
	}
}

func TestCustomTag(t *testing.T) {
	env := NewEnvironment()
	env.RegisterTag("shout", TagFunc(func(tok *lexer.TagToken, _ *Parser) (Node, error) {
		expr, err := ParseExpression(tok.Args)
		if err != nil {
			return nil, err
		}
		return NodeFunc(func(ctx *Context, out *strings.Builder) error {
			v, err := expr.Evaluate(ctx)
			if err != nil {
				return err
			}
			out.WriteString(strings.ToUpper(v.String()) + "!")
			return nil
		}), nil
	}))
	got := mustRender(t, env, `{% shout name %}`, map[string]any{"name": "hi"})
	if got != "HI!" {
		t.Errorf("expected %q, got %q", "HI!", got)
	}
}

func TestCustomFilter(t *testing.T) {
	env := NewEnvironment()
	env.AddFilter("shout", func(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
		return value.FromString(strings.ToUpper(val.String()) + "!"), nil
	})
	got := mustRender(t, env, `{{ "hi" | shout }}`, nil)
	if got != "HI!" {
		t.Errorf("expected %q, got %q", "HI!", got)
	}
}

func TestCustomSyntaxDelimiters(t *testing.T) {
	env := NewEnvironment()
	env.SetSyntax(lexer.SyntaxConfig{
		TagStart: "<%", TagEnd: "%>",
		OutputStart: "<<", OutputEnd: ">>",
	})
	got := mustRender(t, env, `<% assign x = "ok" %><< x >>`, nil)
	if got != "ok" {
		t.Errorf("expected %q, got %q", "ok", got)
	}
}

func TestExtnameDefaulting(t *testing.T) {
	env := NewEnvironment()
	env.SetExtname(".liquid")
	env.AddTemplate("head.liquid", "head")
	env.AddTemplate("tail.html", "tail")

	got := mustRender(t, env, `{% render "head" %}`, nil)
	if got != "head" {
		t.Errorf("extname should apply to bare names, got %q", got)
	}
	// Names that carry an extension are left alone.
	got = mustRender(t, env, `{% render "tail.html" %}`, nil)
	if got != "tail" {
		t.Errorf("expected %q, got %q", "tail", got)
	}
}

func TestAddTemplateReplacesCached(t *testing.T) {
	env := NewEnvironment()
	env.AddTemplate("a.html", "one")
	if got := mustRender(t, env, `{% render "a.html" %}`, nil); got != "one" {
		t.Fatalf("expected %q, got %q", "one", got)
	}
	env.AddTemplate("a.html", "two")
	if got := mustRender(t, env, `{% render "a.html" %}`, nil); got != "two" {
		t.Errorf("AddTemplate should invalidate the cache, got %q", got)
	}
}

func TestRenderDataMustBeMapping(t *testing.T) {
	env := NewEnvironment()
	tmpl, err := env.ParseString(`x`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := tmpl.Render(42); err == nil {
		t.Fatal("expected an error for non-mapping data")
	}
	if _, err := tmpl.Render(nil); err != nil {
		t.Fatalf("nil data should render: %v", err)
	}
}
