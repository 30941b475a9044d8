package liquid

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/sschuldenzucker/liquidjs/internal/future"
	"github.com/sschuldenzucker/liquidjs/lexer"
	"github.com/sschuldenzucker/liquidjs/value"
)

// FilterFunc is the signature for filter functions. It receives the
// render context, the piped-in value and the filter arguments.
type FilterFunc func(ctx *Context, val value.Value, args []value.Value) (value.Value, error)

// AsyncFilterFunc is a filter whose result arrives asynchronously.
// Invoking one during a synchronous render is a render error.
type AsyncFilterFunc func(ctx *Context, val value.Value, args []value.Value) *future.Future[value.Value]

// Environment holds the configuration, registries and template cache.
type Environment struct {
	templates    map[string]*Template
	templatesMu  sync.RWMutex
	filters      map[string]FilterFunc
	asyncFilters map[string]AsyncFilterFunc
	tags         map[string]Tag
	globals      map[string]value.Value

	inMemory *MapLoader // backs AddTemplate
	loader   Loader

	syntax          lexer.SyntaxConfig
	extname         string
	dynamicPartials bool
	strictFilters   bool
	stepLimit       uint64
}

// NewEnvironment creates a new environment with the default tag and
// filter set, dynamic partial resolution enabled, and no step limit.
func NewEnvironment() *Environment {
	env := &Environment{
		templates:       make(map[string]*Template),
		filters:         make(map[string]FilterFunc),
		asyncFilters:    make(map[string]AsyncFilterFunc),
		tags:            make(map[string]Tag),
		globals:         make(map[string]value.Value),
		inMemory:        NewMapLoader(nil),
		syntax:          lexer.DefaultSyntax(),
		dynamicPartials: true,
	}
	registerDefaultTags(env)
	registerDefaultFilters(env)
	return env
}

// SetRoot points partial resolution at one or more filesystem search
// roots. Partial names never resolve outside them.
func (e *Environment) SetRoot(roots ...string) {
	e.loader = NewFSLoader(roots...)
}

// SetLoader sets the template loader used for partial resolution.
func (e *Environment) SetLoader(loader Loader) {
	e.loader = loader
}

// SetExtname sets the default extension appended to partial names that
// lack one, e.g. ".html".
func (e *Environment) SetExtname(ext string) {
	e.extname = ext
}

// SetDynamicPartials controls whether partial names are evaluated as
// expressions at render time. When disabled, names are restricted to
// validated literal relative paths.
func (e *Environment) SetDynamicPartials(enabled bool) {
	e.dynamicPartials = enabled
}

// SetStrictFilters makes references to unregistered filters an error.
// The default is lenient: an unknown filter passes its input through.
func (e *Environment) SetStrictFilters(strict bool) {
	e.strictFilters = strict
}

// SetStepLimit bounds the number of node renders in one render call.
// Zero means unlimited.
func (e *Environment) SetStepLimit(steps uint64) {
	e.stepLimit = steps
}

// SetSyntax sets the delimiter configuration.
func (e *Environment) SetSyntax(config lexer.SyntaxConfig) {
	e.syntax = config
}

// AddGlobal registers a global variable, visible to all scopes of every
// render call, including isolated partial scopes, unless shadowed.
func (e *Environment) AddGlobal(name string, v any) {
	e.globals[name] = value.FromAny(v)
}

// AddFilter registers a filter function.
func (e *Environment) AddFilter(name string, f FilterFunc) {
	e.filters[name] = f
}

// AddAsyncFilter registers an asynchronous filter function.
func (e *Environment) AddAsyncFilter(name string, f AsyncFilterFunc) {
	e.asyncFilters[name] = f
}

// RegisterTag registers a tag implementation under name.
func (e *Environment) RegisterTag(name string, tag Tag) {
	e.tags[name] = tag
}

func (e *Environment) getTag(name string) (Tag, bool) {
	t, ok := e.tags[name]
	return t, ok
}

func (e *Environment) tagNames() []string {
	names := make([]string, 0, len(e.tags))
	for name := range e.tags {
		names = append(names, name)
	}
	return names
}

func (e *Environment) filterNames() []string {
	names := make([]string, 0, len(e.filters)+len(e.asyncFilters))
	for name := range e.filters {
		names = append(names, name)
	}
	for name := range e.asyncFilters {
		names = append(names, name)
	}
	return names
}

func (e *Environment) newStepTracker() *stepTracker {
	if e.stepLimit == 0 {
		return nil
	}
	return newStepTracker(e.stepLimit)
}

// applyFilter invokes a filter by name. Unknown filters pass the value
// through unless strict filters are enabled. Async filters suspend the
// render step in async mode and fail in sync mode.
func (e *Environment) applyFilter(ctx *Context, name string, val value.Value, args []value.Value) (value.Value, error) {
	if f, ok := e.filters[name]; ok {
		out, err := f(ctx, val, args)
		if err != nil {
			if _, ok := err.(*Error); ok {
				return value.Undefined(), err
			}
			return value.Undefined(), NewError(ErrRender, fmt.Sprintf("filter %q failed: %s", name, err))
		}
		return out, nil
	}
	if f, ok := e.asyncFilters[name]; ok {
		if ctx.Sync() {
			return value.Undefined(), NewError(ErrRender,
				fmt.Sprintf("cannot invoke async filter %q in synchronous rendering", name))
		}
		out, err := f(ctx, val, args).Await()
		if err != nil {
			return value.Undefined(), NewError(ErrRender, fmt.Sprintf("filter %q failed: %s", name, err))
		}
		return out, nil
	}
	if e.strictFilters {
		msg := fmt.Sprintf("filter %q not registered", name)
		if s := suggest(name, e.filterNames()); s != "" {
			msg += fmt.Sprintf(", did you mean %q?", s)
		}
		return value.Undefined(), NewError(ErrUnknownFilter, msg)
	}
	return val, nil
}

// AddTemplate registers an in-memory template under name. It is parsed
// lazily, on first use.
func (e *Environment) AddTemplate(name, source string) {
	e.inMemory.Add(name, source)
	e.templatesMu.Lock()
	delete(e.templates, name)
	e.templatesMu.Unlock()
}

// ParseString compiles a template from source without storing it.
func (e *Environment) ParseString(source string) (*Template, error) {
	return e.parseNamed("<string>", "", source)
}

// GetTemplate retrieves a compiled template by name, consulting
// templates registered with AddTemplate first and the loader second.
func (e *Environment) GetTemplate(name string) (*Template, error) {
	return e.getPartial(name, "", true)
}

func (e *Environment) parseNamed(name, dir, source string) (*Template, error) {
	tokens, err := lexer.Tokenize(source, e.syntax)
	if err != nil {
		return nil, NewError(ErrSyntax, err.Error()).WithName(name)
	}
	nodes, err := newParser(e, name, dir, tokens).parseAll()
	if err != nil {
		return nil, err
	}
	return &Template{env: e, name: name, dir: dir, source: source, nodes: nodes}, nil
}

// getPartial resolves, loads and compiles the named partial. The name is
// given the default extension when it lacks one and resolved relative to
// fromDir and the configured search roots. Compiled partials are cached
// per resolved path.
func (e *Environment) getPartial(name, fromDir string, sync bool) (*Template, error) {
	if e.extname != "" && path.Ext(name) == "" {
		name += e.extname
	}

	loaders := make([]Loader, 0, 2)
	loaders = append(loaders, e.inMemory)
	if e.loader != nil {
		loaders = append(loaders, e.loader)
	}

	for _, loader := range loaders {
		resolved, err := loader.Resolve(name, fromDir)
		if err != nil {
			continue
		}

		e.templatesMu.RLock()
		cached, ok := e.templates[resolved]
		e.templatesMu.RUnlock()
		if ok {
			return cached, nil
		}

		source, err := loadFrom(loader, resolved, sync)
		if err != nil {
			continue
		}
		tmpl, err := e.parseNamed(resolved, dirOf(resolved), source)
		if err != nil {
			return nil, err
		}
		e.templatesMu.Lock()
		e.templates[resolved] = tmpl
		e.templatesMu.Unlock()
		return tmpl, nil
	}

	return nil, NewError(ErrTemplateNotFound, fmt.Sprintf("partial %q not found", name))
}

// loadFrom loads through the async interface when the render mode allows
// it and the loader supports it.
func loadFrom(loader Loader, resolved string, sync bool) (string, error) {
	if !sync {
		if al, ok := loader.(AsyncLoader); ok {
			return al.LoadAsync(resolved).Await()
		}
	}
	return loader.Load(resolved)
}

func dirOf(resolved string) string {
	d := path.Dir(strings.ReplaceAll(resolved, "\\", "/"))
	if d == "." {
		return ""
	}
	return d
}

// Template is a compiled template bound to its environment.
type Template struct {
	env    *Environment
	name   string
	dir    string
	source string
	nodes  []Node
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// Source returns the template source.
func (t *Template) Source() string {
	return t.source
}

// Render renders the template synchronously with the given data. Any
// operation requiring asynchronous work fails in this mode.
func (t *Template) Render(data any) (string, error) {
	return t.render(data, true)
}

// RenderAsync renders the template in asynchronous mode. The render tree
// still executes sequentially on one goroutine, so output order matches
// source order exactly as in sync mode.
func (t *Template) RenderAsync(data any) *future.Future[string] {
	return future.Go(func() (string, error) {
		return t.render(data, false)
	})
}

func (t *Template) render(data any, sync bool) (string, error) {
	frame, err := dataFrame(data)
	if err != nil {
		return "", err
	}
	ctx := newContext(t.env, frame, sync)
	var out strings.Builder
	if err := renderNodes(t.nodes, ctx, &out); err != nil {
		// break/continue outside a loop stop the template, not the caller.
		if isLoopInterrupt(err) {
			return out.String(), nil
		}
		if e, ok := err.(*Error); ok && e.Name == "" {
			e.WithName(t.name)
		}
		return "", err
	}
	return out.String(), nil
}

func dataFrame(data any) (map[string]value.Value, error) {
	if data == nil {
		return nil, nil
	}
	v := value.FromAny(data)
	m, ok := v.AsMap()
	if !ok {
		return nil, NewError(ErrRender, fmt.Sprintf("render data must be a mapping, got %s", v.Kind()))
	}
	return m, nil
}
