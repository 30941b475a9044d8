package liquid

import (
	"github.com/sschuldenzucker/liquidjs/value"
)

// Context is the runtime state for one render pass: a stack of variable
// scopes, the globals layer underneath it, and the register store for
// stateful tags.
//
// The scope stack is never shared across an isolation boundary. Globals
// and registers are shared by reference down the whole render-call tree,
// including every nested partial.
type Context struct {
	env       *Environment
	scopes    []map[string]value.Value
	globals   map[string]value.Value
	registers map[string]any
	sync      bool
	depth     int
	steps     *stepTracker
}

const maxRenderDepth = 100

func newContext(env *Environment, data map[string]value.Value, sync bool) *Context {
	root := make(map[string]value.Value, len(data))
	for k, v := range data {
		root[k] = v
	}
	return &Context{
		env:       env,
		scopes:    []map[string]value.Value{root},
		globals:   env.globals,
		registers: make(map[string]any),
		sync:      sync,
		steps:     env.newStepTracker(),
	}
}

// Lookup resolves a root variable name innermost scope first, falling
// through to globals. A miss yields Undefined, never an error.
func (c *Context) Lookup(name string) value.Value {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v
		}
	}
	if v, ok := c.globals[name]; ok {
		return v
	}
	return value.Undefined()
}

// Set writes a variable into the innermost scope frame. It never touches
// outer frames or globals.
func (c *Context) Set(name string, val value.Value) {
	c.scopes[len(c.scopes)-1][name] = val
}

// push and pop must balance 1:1; tags go through WithFrame instead of
// calling them directly.
func (c *Context) push(frame map[string]value.Value) {
	if frame == nil {
		frame = make(map[string]value.Value)
	}
	c.scopes = append(c.scopes, frame)
}

func (c *Context) pop() {
	if len(c.scopes) > 1 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

// WithFrame pushes frame, runs fn, and pops on every exit path including
// error propagation.
func (c *Context) WithFrame(frame map[string]value.Value, fn func() error) error {
	c.push(frame)
	defer c.pop()
	return fn()
}

// Register returns the state stored under key, creating it with init on
// first use. Register state outlives scope push/pop cycles and is shared
// across all tag invocations of one render call.
func (c *Context) Register(key string, init func() any) any {
	if v, ok := c.registers[key]; ok {
		return v
	}
	v := init()
	c.registers[key] = v
	return v
}

// Spawn produces a child context for rendering a partial. An isolated
// child sees only globals plus whatever the caller binds into its fresh
// top frame; a non-isolated child inherits the current scope stack as its
// base, with its own frame on top so writes stay local to the child.
func (c *Context) Spawn(isolated bool) *Context {
	child := &Context{
		env:       c.env,
		globals:   c.globals,
		registers: c.registers,
		sync:      c.sync,
		depth:     c.depth + 1,
		steps:     c.steps,
	}
	if isolated {
		child.scopes = []map[string]value.Value{make(map[string]value.Value)}
	} else {
		base := make([]map[string]value.Value, len(c.scopes), len(c.scopes)+1)
		copy(base, c.scopes)
		child.scopes = append(base, make(map[string]value.Value))
	}
	return child
}

// Sync reports whether this render call runs in synchronous mode.
func (c *Context) Sync() bool {
	return c.sync
}
