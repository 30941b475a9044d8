// Package liquid provides a Liquid template engine for Go.
//
// It implements the Liquid template language with both synchronous and
// asynchronous rendering, partial templates, and an extensible tag and
// filter system.
//
// # Quick Start
//
// Basic usage:
//
//	env := liquid.NewEnvironment()
//	env.AddTemplate("hello", "Hello {{ name }}!")
//	tmpl, _ := env.GetTemplate("hello")
//	result, _ := tmpl.Render(map[string]any{"name": "World"})
//	fmt.Println(result) // Output: Hello World!
//
// # Template Syntax
//
// Key syntax elements:
//   - Output: {{ variable }}
//   - Tags: {% if condition %}...{% endif %}
//   - Filters: {{ value | upcase | append: "!" }}
//   - Partials: {% render "header.html" %}
//
// # Environment Configuration
//
// The Environment is the central configuration object:
//
//	env := liquid.NewEnvironment()
//
//	// Register in-memory templates
//	env.AddTemplate("footer.html", footerSource)
//
//	// Or resolve partials from the filesystem
//	env.SetRoot("./views", "./partials")
//	env.SetExtname(".html")
//
//	// Add globals visible to every scope, including isolated partials
//	env.AddGlobal("site_name", "example.com")
//
//	// Add custom filters and tags
//	env.AddFilter("shout", myShoutFilter)
//	env.RegisterTag("widget", myWidgetTag)
//
// # Rendering Modes
//
// Render runs synchronously; RenderAsync returns a future and permits
// asynchronous filters and loaders:
//
//	out, err := tmpl.RenderAsync(data).Await()
//
// Both modes produce identical output for the same template and data.
package liquid

import "github.com/sschuldenzucker/liquidjs/value"

// Value re-exports the dynamic value type templates operate on.
type Value = value.Value

// Convenience constructors for Value, re-exported from the value package.
var (
	Undefined  = value.Undefined
	NilValue   = value.Nil
	FromBool   = value.FromBool
	FromInt    = value.FromInt
	FromFloat  = value.FromFloat
	FromString = value.FromString
	FromSlice  = value.FromSlice
	FromMap    = value.FromMap
	FromAny    = value.FromAny
)
