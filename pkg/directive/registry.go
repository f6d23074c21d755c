// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package directive

import (
	"fmt"
	"sort"
)

// Func is a registry entry. Args is the (resolved) argument node of the
// directive; the returned value replaces the directive node.
type Func interface {
	Call(ctx *Context, args interface{}) (interface{}, error)
}

// LazyFunc is implemented by functions that receive their argument node
// unresolved and resolve (parts of) it themselves.
type LazyFunc interface {
	Func
	LazyArgs() bool
}

// CallFunc adapts a plain Go function to Func.
type CallFunc func(ctx *Context, args interface{}) (interface{}, error)

var _ Func = CallFunc(nil)

func (f CallFunc) Call(ctx *Context, args interface{}) (interface{}, error) { return f(ctx, args) }

type Registry struct {
	funcs  map[string]Func
	frozen bool
}

func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Func{}}
}

// Register adds a function under a unique name. Shadowing an existing
// entry (built-in or otherwise) is refused.
func (r *Registry) Register(name string, fn Func) error {
	if r.frozen {
		return fmt.Errorf("Registering function '%s': registry is frozen", name)
	}
	if len(name) == 0 {
		return fmt.Errorf("Registering function: expected non-empty name")
	}
	if _, found := r.funcs[name]; found {
		return &ConflictError{Name: name}
	}
	r.funcs[name] = fn
	return nil
}

func (r *Registry) Lookup(name string) (Func, bool) {
	fn, found := r.funcs[name]
	return fn, found
}

func (r *Registry) Resolve(name string) (Func, error) {
	fn, found := r.funcs[name]
	if !found {
		return nil, &UnknownFunctionError{Name: name, Known: r.Names()}
	}
	return fn, nil
}

func (r *Registry) Names() []string {
	var names []string
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Freeze makes the registry immutable for the rest of the conversion.
func (r *Registry) Freeze() { r.frozen = true }
