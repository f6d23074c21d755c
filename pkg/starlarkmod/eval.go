// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package starlarkmod

import (
	"fmt"
	"time"

	"carvel.dev/zsyaml/pkg/orderedmap"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/syntax"
)

// Eval evaluates a single expression with env bound as globals, next to
// the clock and version modules.
func Eval(expr string, env *orderedmap.Map, now func() time.Time) (interface{}, error) {
	parsed, err := syntax.ParseExpr("<expr>", expr, 0)
	if err != nil {
		return nil, fmt.Errorf("Parsing expression: %s", err)
	}

	globals := predeclared()
	if env != nil {
		err := env.IterateErr(func(k string, v interface{}) error {
			val, err := NewGoValue(v).AsStarlarkValue()
			if err != nil {
				return fmt.Errorf("Binding '%s': %w", k, err)
			}
			globals[k] = val
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	result, err := starlark.EvalExpr(newThread("eval", now), parsed, globals)
	if err != nil {
		return nil, fmt.Errorf("Evaluating expression: %s", err)
	}

	return NewStarlarkValue(result).AsGoValue()
}
