// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package directive

import (
	"errors"
	"fmt"
	"path/filepath"

	"carvel.dev/zsyaml/pkg/nodepath"
	"carvel.dev/zsyaml/pkg/orderedmap"
)

const (
	FuncKey = "_f"
	ArgsKey = "_a"
)

// IsDirective reports whether node is a mapping with exactly the keys _f and _a.
func IsDirective(node interface{}) bool {
	m, ok := node.(*orderedmap.Map)
	return ok && m.HasExactKeys(FuncKey, ArgsKey)
}

// NewDirective builds a directive node calling fn with args.
func NewDirective(fn string, args interface{}) *orderedmap.Map {
	m := orderedmap.NewMap()
	m.Set(FuncKey, fn)
	m.Set(ArgsKey, args)
	return m
}

type Resolver struct {
	registry *Registry
}

func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry}
}

func (r *Resolver) Registry() *Registry { return r.registry }

// NewContext returns the root context for resolving the data of file.
func (r *Resolver) NewContext(file string, opts ContextOpts) *Context {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		abs = file
	}
	return &Context{
		File:     abs,
		BaseDir:  filepath.Dir(abs),
		MaxDepth: maxDepth,
		Path:     nodepath.Root,
		Source:   opts.Source,
		resolver: r,
		debugf:   opts.Debugf,
	}
}

// Resolve returns a new tree without directive nodes. The input tree is
// not modified.
func (r *Resolver) Resolve(ctx *Context, node interface{}) (interface{}, error) {
	return r.resolve(ctx, node)
}

func (r *Resolver) resolve(ctx *Context, node interface{}) (interface{}, error) {
	switch typedNode := node.(type) {
	case []interface{}:
		result := make([]interface{}, len(typedNode))
		for i, item := range typedNode {
			val, err := r.resolve(ctx.WithPath(ctx.Path.Elem(i)), item)
			if err != nil {
				return nil, err
			}
			result[i] = val
		}
		return result, nil

	case *orderedmap.Map:
		if IsDirective(typedNode) {
			return r.call(ctx, typedNode)
		}

		result := orderedmap.NewMap()
		err := typedNode.IterateErr(func(k string, v interface{}) error {
			val, err := r.resolve(ctx.WithPath(ctx.Path.Child(k)), v)
			if err != nil {
				return err
			}
			result.Set(k, val)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return result, nil

	default:
		return node, nil
	}
}

func (r *Resolver) call(ctx *Context, node *orderedmap.Map) (interface{}, error) {
	nameVal, _ := node.Get(FuncKey)
	args, _ := node.Get(ArgsKey)

	name, ok := nameVal.(string)
	if !ok {
		return nil, r.wrapErr(ctx, "", fmt.Errorf("Expected '%s' to be a function name string, but was %s",
			FuncKey, nodepath.KindOf(nameVal)))
	}

	// Arguments are resolved before the name is looked up; only a lazy
	// function has to be known first.
	fn, found := r.registry.Lookup(name)
	if lazy, ok := fn.(LazyFunc); !found || !ok || !lazy.LazyArgs() {
		var err error
		args, err = r.resolve(ctx.WithPath(ctx.Path.Child(ArgsKey)), args)
		if err != nil {
			return nil, err
		}
	}

	if !found {
		_, err := r.registry.Resolve(name)
		return nil, r.wrapErr(ctx, name, err)
	}

	ctx.Debugf("call: %s at '%s' in %s\n", name, ctx.Path, ctx.File)

	result, err := fn.Call(ctx, args)
	if err != nil {
		return nil, r.wrapErr(ctx, name, err)
	}
	return result, nil
}

// wrapErr tags err with the directive's location unless it already
// carries a location inside the same file.
func (r *Resolver) wrapErr(ctx *Context, name string, err error) error {
	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) && resolveErr.File == ctx.File {
		return err
	}
	return &ResolveError{File: ctx.File, Path: ctx.Path.String(), Func: name, Err: err}
}

// CheckResolved fails if any directive node remains in tree. Function
// results are not re-scanned, so a function returning a directive-shaped
// mapping leaves one behind.
func CheckResolved(tree interface{}) error {
	return checkResolved(nodepath.Root, tree)
}

func checkResolved(path nodepath.Path, node interface{}) error {
	switch typedNode := node.(type) {
	case []interface{}:
		for i, item := range typedNode {
			if err := checkResolved(path.Elem(i), item); err != nil {
				return err
			}
		}
	case *orderedmap.Map:
		if IsDirective(typedNode) {
			return fmt.Errorf("Expected no directive nodes after resolution, but found one at '%s'", path)
		}
		return typedNode.IterateErr(func(k string, v interface{}) error {
			return checkResolved(path.Child(k), v)
		})
	}
	return nil
}
