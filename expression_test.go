package liquid

import (
	"strings"
	"testing"

	"github.com/sschuldenzucker/liquidjs/value"
)

func evalExpr(t *testing.T, src string, data map[string]value.Value) value.Value {
	t.Helper()
	expr, err := ParseExpression(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	v, err := expr.Evaluate(testContext(NewEnvironment(), data))
	if err != nil {
		t.Fatalf("evaluate %q: %v", src, err)
	}
	return v
}

func TestExpressionLiterals(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`'single'`, "single"},
		{`"double"`, "double"},
		{`42`, "42"},
		{`-3`, "-3"},
		{`2.5`, "2.5"},
		{`true`, "true"},
		{`false`, "false"},
		{`nil`, ""},
	}
	for _, tc := range cases {
		if got := evalExpr(t, tc.src, nil).String(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.src, tc.want, got)
		}
	}
}

func TestExpressionPaths(t *testing.T) {
	data := map[string]value.Value{
		"user": value.FromMap(map[string]value.Value{
			"name": value.FromString("amy"),
			"tags": value.FromSlice([]value.Value{
				value.FromString("a"), value.FromString("b"),
			}),
		}),
		"key": value.FromString("name"),
		"i":   value.FromInt(1),
	}
	cases := []struct {
		src  string
		want string
	}{
		{`user.name`, "amy"},
		{`user["name"]`, "amy"},
		{`user[key]`, "amy"},
		{`user.tags[0]`, "a"},
		{`user.tags[i]`, "b"},
		{`user.tags[-1]`, "b"},
		{`user.tags.size`, "2"},
		{`user.missing`, ""},
		{`missing.attr[3]`, ""},
	}
	for _, tc := range cases {
		if got := evalExpr(t, tc.src, data).String(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.src, tc.want, got)
		}
	}
}

func TestExpressionFilterChain(t *testing.T) {
	data := map[string]value.Value{"name": value.FromString("world")}
	cases := []struct {
		src  string
		want string
	}{
		{`name | upcase`, "WORLD"},
		{`name | upcase | append: "!"`, "WORLD!"},
		{`"a,b,c" | split: "," | join: "-"`, "a-b-c"},
		{`missing | default: "fallback"`, "fallback"},
		{`"  pad  " | strip | append: "."`, "pad."},
		{`5 | plus: 3 | times: 2`, "16"},
	}
	for _, tc := range cases {
		if got := evalExpr(t, tc.src, data).String(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.src, tc.want, got)
		}
	}
}

func TestExpressionFilterArgsWithPipesInQuotes(t *testing.T) {
	got := evalExpr(t, `"a|b" | append: "|c"`, nil).String()
	if got != "a|b|c" {
		t.Errorf("expected %q, got %q", "a|b|c", got)
	}
}

func TestExpressionUnknownFilterLenient(t *testing.T) {
	got := evalExpr(t, `"x" | no_such_filter`, nil).String()
	if got != "x" {
		t.Errorf("lenient mode should pass through, got %q", got)
	}
}

func TestExpressionUnknownFilterStrict(t *testing.T) {
	env := NewEnvironment()
	env.SetStrictFilters(true)
	expr, err := ParseExpression(`"x" | upcse`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = expr.Evaluate(testContext(env, nil))
	if err == nil {
		t.Fatal("expected an unknown-filter error")
	}
	if !strings.Contains(err.Error(), `did you mean "upcase"`) {
		t.Errorf("expected a suggestion, got %v", err)
	}
}

func TestExpressionParseErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"   ",
		"1abc",
		"a.",
		"a[unclosed",
		"x | 9bad",
	} {
		if _, err := ParseExpression(src); err == nil {
			t.Errorf("%q: expected a parse error", src)
		}
	}
}

func TestExpressionSource(t *testing.T) {
	expr, err := ParseExpression("a.b | upcase")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if expr.Source() != "a.b | upcase" {
		t.Errorf("expected source round-trip, got %q", expr.Source())
	}
}
