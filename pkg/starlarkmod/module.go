// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package starlarkmod

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"carvel.dev/zsyaml/pkg/directive"
	"carvel.dev/zsyaml/pkg/orderedmap"
	"github.com/k14s/starlark-go/resolve"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/syntax"
)

func init() {
	resolve.AllowFloat = true
	resolve.AllowSet = true
	resolve.AllowLambda = true
	resolve.AllowNestedDef = true
	resolve.AllowBitwise = true
	resolve.AllowRecursion = true
	resolve.AllowGlobalReassign = true
}

type Opts struct {
	// Now drives the clock module; defaults to time.Now.
	Now func() time.Time
}

// Module is an executed transformation module.
type Module struct {
	Path    string
	globals starlark.StringDict
	now     func() time.Time
}

type cacheKey struct {
	path string
	sum  [sha256.Size]byte
}

var (
	cacheLock sync.Mutex
	cache     = map[cacheKey]starlark.StringDict{}
)

// Load executes the module at path. Executed globals are frozen and cached
// by absolute path and content, so repeated loads of an unchanged file
// only cost a read.
func Load(path string, opts Opts) (*Module, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &directive.ModuleLoadError{Path: path, Err: err}
	}

	src, err := os.ReadFile(absPath)
	if err != nil {
		return nil, &directive.ModuleLoadError{Path: path, Err: err}
	}

	key := cacheKey{path: absPath, sum: sha256.Sum256(src)}

	cacheLock.Lock()
	globals, found := cache[key]
	cacheLock.Unlock()

	if !found {
		globals, err = execModule(absPath, src, opts.Now)
		if err != nil {
			return nil, &directive.ModuleLoadError{Path: path, Err: err}
		}
		cacheLock.Lock()
		cache[key] = globals
		cacheLock.Unlock()
	}

	return &Module{Path: absPath, globals: globals, now: opts.Now}, nil
}

func execModule(path string, src []byte, now func() time.Time) (gs starlark.StringDict, resultErr error) {
	defer func() {
		if err := recover(); err != nil {
			if typedErr, ok := err.(error); ok {
				resultErr = typedErr
			} else {
				resultErr = fmt.Errorf("(p) %s", err)
			}
		}
	}()

	f, err := syntax.Parse(path, src, 0)
	if err != nil {
		return nil, err
	}

	env := predeclared()

	prog, err := starlark.FileProgram(f, env.Has)
	if err != nil {
		return nil, err
	}

	globals, err := prog.Init(newThread("module="+filepath.Base(path), now), env)
	if err != nil {
		return nil, fmt.Errorf("Evaluating module: %s", err)
	}

	globals.Freeze()
	return globals, nil
}

// FuncNames returns the exported callables in sorted order.
func (m *Module) FuncNames() []string {
	var names []string
	for name, val := range m.globals {
		if strings.HasPrefix(name, "_") {
			continue
		}
		if _, ok := val.(starlark.Callable); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Register adds every exported callable to reg. A name that is already
// registered fails the whole module.
func (m *Module) Register(reg *directive.Registry) error {
	for _, name := range m.FuncNames() {
		fn := &Func{name: name, callable: m.globals[name].(starlark.Callable), module: m}
		if err := reg.Register(name, fn); err != nil {
			return &directive.ModuleLoadError{Path: m.Path, Err: err}
		}
	}
	return nil
}

// Func is a module callable adapted to directive.Func.
type Func struct {
	name     string
	callable starlark.Callable
	module   *Module
}

var _ directive.Func = &Func{}

func (f *Func) Call(ctx *directive.Context, args interface{}) (interface{}, error) {
	var posArgs starlark.Tuple
	var kwargs []starlark.Tuple

	if argsMap, ok := args.(*orderedmap.Map); ok {
		err := argsMap.IterateErr(func(k string, v interface{}) error {
			val, err := NewGoValue(v).AsStarlarkValue()
			if err != nil {
				return fmt.Errorf("Argument '%s': %w", k, err)
			}
			kwargs = append(kwargs, starlark.Tuple{starlark.String(k), val})
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		val, err := NewGoValue(args).AsStarlarkValue()
		if err != nil {
			return nil, err
		}
		posArgs = starlark.Tuple{val}
	}

	ctx.Debugf("calling starlark function '%s' from '%s'\n", f.name, f.module.Path)

	thread := newThread("func="+f.name, f.module.now)

	result, err := starlark.Call(thread, f.callable, posArgs, kwargs)
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return nil, fmt.Errorf("%s", evalErr.Backtrace())
		}
		return nil, err
	}

	return NewStarlarkValue(result).AsGoValue()
}
