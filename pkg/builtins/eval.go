// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package builtins

import (
	"fmt"
	"sort"
	"time"

	"carvel.dev/zsyaml/pkg/directive"
	"carvel.dev/zsyaml/pkg/orderedmap"
	"carvel.dev/zsyaml/pkg/starlarkmod"
	"github.com/expr-lang/expr"
)

// evaluator runs trusted expressions. Nothing is sandboxed.
type evaluator struct {
	opts Opts
}

func (e evaluator) PyEval(ctx *directive.Context, args directive.Args) (interface{}, error) {
	src, err := args.String("expr")
	if err != nil {
		return nil, err
	}
	env, err := args.OptionalMap("env")
	if err != nil {
		return nil, err
	}

	ctx.Debugf("py_eval: %s\n", src)

	return starlarkmod.Eval(src, env, e.opts.Now)
}

func (e evaluator) ExprEval(ctx *directive.Context, args directive.Args) (interface{}, error) {
	src, err := args.String("expr")
	if err != nil {
		return nil, err
	}
	env, err := args.OptionalMap("env")
	if err != nil {
		return nil, err
	}

	ctx.Debugf("expr_eval: %s\n", src)

	exprEnv, ok := orderedmap.Conversion{Object: env}.AsUnorderedStringMaps().(map[string]interface{})
	if !ok {
		exprEnv = map[string]interface{}{}
	}

	program, err := expr.Compile(src, e.exprOpts()...)
	if err != nil {
		return nil, fmt.Errorf("Compiling expression: %w", err)
	}

	result, err := expr.Run(program, exprEnv)
	if err != nil {
		return nil, fmt.Errorf("Evaluating expression: %w", err)
	}

	return exprValue{}.AsNode(result)
}

// exprOpts adds the date helpers available to expressions: today() as
// YYYY-MM-DD and age(date), the whole years elapsed since a YYYY-MM-DD date.
func (e evaluator) exprOpts() []expr.Option {
	return []expr.Option{
		expr.Function("today", func(params ...any) (any, error) {
			return e.opts.Now().Format("2006-01-02"), nil
		}, new(func() string)),
		expr.Function("age", func(params ...any) (any, error) {
			born, err := dateParam("age", params)
			if err != nil {
				return nil, err
			}
			return int(yearsBetween(born, e.opts.Now())), nil
		}, new(func(string) int)),
	}
}

func dateParam(fn string, params []any) (time.Time, error) {
	if len(params) != 1 {
		return time.Time{}, fmt.Errorf("Expected %s() to take 1 argument, but was given %d", fn, len(params))
	}
	str, ok := params[0].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("Expected %s() argument to be a YYYY-MM-DD string, but was %T", fn, params[0])
	}
	date, err := time.Parse("2006-01-02", str)
	if err != nil {
		return time.Time{}, fmt.Errorf("Parsing %s() argument: %w", fn, err)
	}
	return date, nil
}

func yearsBetween(from, to time.Time) int64 {
	years := int64(to.Year() - from.Year())
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	return years
}

// exprValue normalizes expression results into document nodes.
type exprValue struct{}

func (v exprValue) AsNode(val interface{}) (interface{}, error) {
	switch typedVal := val.(type) {
	case nil, bool, string, int64, uint64, float64, []byte:
		return typedVal, nil
	case int:
		return int64(typedVal), nil
	case int32:
		return int64(typedVal), nil
	case uint:
		return uint64(typedVal), nil
	case float32:
		return float64(typedVal), nil
	case []interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			node, err := v.AsNode(item)
			if err != nil {
				return nil, err
			}
			result[i] = node
		}
		return result, nil
	case map[string]interface{}:
		var keys []string
		for k := range typedVal {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		result := orderedmap.NewMap()
		for _, k := range keys {
			node, err := v.AsNode(typedVal[k])
			if err != nil {
				return nil, err
			}
			result.Set(k, node)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("Unsupported expression result type %T", val)
	}
}
