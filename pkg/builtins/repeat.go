// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package builtins

import (
	"fmt"

	"carvel.dev/zsyaml/pkg/directive"
)

// MaxRepeatCount is the largest count repeat_node accepts.
const MaxRepeatCount = 1 << 20

// repeatNode resolves node count times. Each copy is resolved on its own,
// so functions inside node run once per copy.
func repeatNode(ctx *directive.Context, args directive.Args) (interface{}, error) {
	argsCtx := ctx.WithPath(ctx.Path.Child(directive.ArgsKey))

	countVal, err := argsCtx.Resolve(args.Value("count"))
	if err != nil {
		return nil, err
	}
	count, ok := directive.AsInt64(countVal)
	if !ok || countVal == nil {
		return nil, fmt.Errorf("Expected argument 'count' to be an integer, but was %v", countVal)
	}
	if count < 0 {
		return nil, fmt.Errorf("Expected argument 'count' to be non-negative, but was %d", count)
	}
	if count > MaxRepeatCount {
		return nil, fmt.Errorf("Expected argument 'count' to be at most %d, but was %d", MaxRepeatCount, count)
	}

	node := args.Value("node")
	result := []interface{}{}

	for i := int64(0); i < count; i++ {
		item, err := argsCtx.Resolve(node)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}
