// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package directive_test

import (
	"errors"
	"fmt"
	"testing"

	"carvel.dev/zsyaml/pkg/directive"
	"carvel.dev/zsyaml/pkg/orderedmap"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mapOf(kvs ...interface{}) *orderedmap.Map {
	m := orderedmap.NewMap()
	for i := 0; i < len(kvs); i += 2 {
		m.Set(kvs[i].(string), kvs[i+1])
	}
	return m
}

func call(fn string, args interface{}) *orderedmap.Map {
	return directive.NewDirective(fn, args)
}

// treeDiff renders maps as ordered item lists so cmp sees key order.
func treeDiff(expected, actual interface{}) string {
	return cmp.Diff(plain(expected), plain(actual))
}

func plain(node interface{}) interface{} {
	switch typed := node.(type) {
	case *orderedmap.Map:
		var items []interface{}
		typed.Iterate(func(k string, v interface{}) {
			items = append(items, []interface{}{k, plain(v)})
		})
		return items
	case []interface{}:
		var result []interface{}
		for _, item := range typed {
			result = append(result, plain(item))
		}
		return result
	default:
		return node
	}
}

func newResolver(t *testing.T, funcs map[string]directive.Func) (*directive.Resolver, *directive.Context) {
	reg := directive.NewRegistry()
	for name, fn := range funcs {
		require.NoError(t, reg.Register(name, fn))
	}
	reg.Freeze()
	r := directive.NewResolver(reg)
	return r, r.NewContext("/docs/input.yaml", directive.ContextOpts{})
}

func echo() directive.Func {
	return directive.CallFunc(func(_ *directive.Context, args interface{}) (interface{}, error) {
		return args, nil
	})
}

func TestResolveWithoutDirectivesIsIdentity(t *testing.T) {
	tree := mapOf(
		"name", "Ann",
		"age", int64(35),
		"tags", []interface{}{"a", nil, true, 1.5},
		"nested", mapOf("_f", "only one reserved key", "z", mapOf()),
		"almost", mapOf("_f", "x", "_a", 1, "extra", 2),
	)
	r, ctx := newResolver(t, nil)

	result, err := r.Resolve(ctx, tree)
	require.NoError(t, err)
	require.Empty(t, treeDiff(tree, result))
	require.NotSame(t, tree, result)
}

func TestResolveArgumentsBeforeCall(t *testing.T) {
	var seen []interface{}
	record := directive.CallFunc(func(_ *directive.Context, args interface{}) (interface{}, error) {
		seen = append(seen, args)
		return args, nil
	})
	tree := mapOf("field", call("outer", mapOf("inner", call("echo", []interface{}{"x", call("echo", "y")}))))
	r, ctx := newResolver(t, map[string]directive.Func{"outer": record, "echo": echo()})

	result, err := r.Resolve(ctx, tree)
	require.NoError(t, err)

	expected := mapOf("field", mapOf("inner", []interface{}{"x", "y"}))
	require.Empty(t, treeDiff(expected, result))
	require.Len(t, seen, 1)
	require.NoError(t, directive.CheckResolved(seen[0]))
}

func TestResolveKeepsKeyOrder(t *testing.T) {
	tree := mapOf("z", 1, "a", call("echo", 2), "m", 3)
	r, ctx := newResolver(t, map[string]directive.Func{"echo": echo()})

	result, err := r.Resolve(ctx, tree)
	require.NoError(t, err)
	require.Equal(t, []string{"z", "a", "m"}, result.(*orderedmap.Map).Keys())
}

func TestResolveUnknownFunctionNamesPath(t *testing.T) {
	tree := mapOf("members", []interface{}{mapOf("skills", call("no_such_fn", nil))})
	r, ctx := newResolver(t, map[string]directive.Func{"echo": echo()})

	_, err := r.Resolve(ctx, tree)
	require.Error(t, err)

	var unknownErr *directive.UnknownFunctionError
	require.True(t, errors.As(err, &unknownErr))
	require.Equal(t, "no_such_fn", unknownErr.Name)

	var resolveErr *directive.ResolveError
	require.True(t, errors.As(err, &resolveErr))
	require.Equal(t, "members[0].skills", resolveErr.Path)
	require.Equal(t, "/docs/input.yaml", resolveErr.File)
}

func TestResolveArgumentsBeforeLookup(t *testing.T) {
	r, ctx := newResolver(t, map[string]directive.Func{"echo": echo()})

	_, err := r.Resolve(ctx, mapOf("x", call("outer_missing", mapOf("v", call("inner_missing", nil)))))
	require.Error(t, err)

	var unknownErr *directive.UnknownFunctionError
	require.True(t, errors.As(err, &unknownErr))
	require.Equal(t, "inner_missing", unknownErr.Name)

	var resolveErr *directive.ResolveError
	require.True(t, errors.As(err, &resolveErr))
	require.Equal(t, "x._a.v", resolveErr.Path)
}

func TestResolveNonStringFunctionName(t *testing.T) {
	r, ctx := newResolver(t, nil)
	_, err := r.Resolve(ctx, mapOf("x", mapOf("_f", 12, "_a", nil)))
	require.ErrorContains(t, err, "Expected '_f' to be a function name string, but was number")
}

func TestResolveFunctionErrorIsTagged(t *testing.T) {
	failing := directive.CallFunc(func(_ *directive.Context, _ interface{}) (interface{}, error) {
		return nil, fmt.Errorf("boom")
	})
	r, ctx := newResolver(t, map[string]directive.Func{"fail": failing})

	_, err := r.Resolve(ctx, mapOf("a", mapOf("b", call("fail", nil))))
	require.EqualError(t, err, "Resolving 'a.b' in '/docs/input.yaml' (function 'fail'): boom")
}

func TestResolveResultIsNotRescanned(t *testing.T) {
	makeDirective := directive.CallFunc(func(_ *directive.Context, _ interface{}) (interface{}, error) {
		return call("echo", "never"), nil
	})
	r, ctx := newResolver(t, map[string]directive.Func{"make": makeDirective, "echo": echo()})

	result, err := r.Resolve(ctx, mapOf("a", call("make", nil)))
	require.NoError(t, err)
	require.True(t, directive.IsDirective(result.(*orderedmap.Map).Items()[0].Value))
	require.ErrorContains(t, directive.CheckResolved(result), "found one at 'a'")
}

type lazyCounter struct{ calls int }

func (l *lazyCounter) LazyArgs() bool { return true }

func (l *lazyCounter) Call(ctx *directive.Context, args interface{}) (interface{}, error) {
	var result []interface{}
	for i := 0; i < 2; i++ {
		val, err := ctx.Resolve(args)
		if err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, nil
}

func TestResolveLazyFunctionReceivesRawArgs(t *testing.T) {
	counter := 0
	next := directive.CallFunc(func(_ *directive.Context, _ interface{}) (interface{}, error) {
		counter++
		return int64(counter), nil
	})
	r, ctx := newResolver(t, map[string]directive.Func{"twice": &lazyCounter{}, "next": next})

	result, err := r.Resolve(ctx, mapOf("v", call("twice", call("next", nil))))
	require.NoError(t, err)
	require.Empty(t, treeDiff(mapOf("v", []interface{}{int64(1), int64(2)}), result))
}

func TestIncludeDepthLimit(t *testing.T) {
	r := directive.NewResolver(directive.NewRegistry())
	ctx := r.NewContext("/docs/a.yaml", directive.ContextOpts{MaxDepth: 3})

	var err error
	for i := 0; i < 3; i++ {
		ctx, err = ctx.Include("/docs/a.yaml")
		require.NoError(t, err)
	}
	require.Equal(t, 3, ctx.Depth)
	require.Equal(t, "/docs", ctx.BaseDir)

	_, err = ctx.Include("/docs/a.yaml")
	var limitErr *directive.RecursionLimitError
	require.True(t, errors.As(err, &limitErr))
	require.Equal(t, 3, limitErr.Depth)
}

func TestRegistry(t *testing.T) {
	reg := directive.NewRegistry()
	require.NoError(t, reg.Register("a", echo()))

	var conflictErr *directive.ConflictError
	require.True(t, errors.As(reg.Register("a", echo()), &conflictErr))

	_, err := reg.Resolve("b")
	require.EqualError(t, err, "Unknown function 'b' (registered: a)")

	reg.Freeze()
	require.Error(t, reg.Register("c", echo()))
	require.Equal(t, []string{"a"}, reg.Names())
}
