// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package directive

import (
	"fmt"
	"math"

	"carvel.dev/zsyaml/pkg/nodepath"
	"carvel.dev/zsyaml/pkg/orderedmap"
)

// Params names a function's parameters in positional order.
type Params []string

// Args holds argument values bound to parameter names.
type Args struct {
	values map[string]interface{}
}

// Bind maps an argument node onto params: a mapping binds by name,
// a sequence binds by position and any other node binds to the first
// parameter.
func (ps Params) Bind(args interface{}) (Args, error) {
	values := map[string]interface{}{}

	switch typedArgs := args.(type) {
	case nil:
		// no arguments

	case *orderedmap.Map:
		err := typedArgs.IterateErr(func(k string, v interface{}) error {
			if !ps.has(k) {
				return fmt.Errorf("Unexpected argument '%s' (expected one of: %v)", k, []string(ps))
			}
			values[k] = v
			return nil
		})
		if err != nil {
			return Args{}, err
		}

	case []interface{}:
		if len(typedArgs) > len(ps) {
			return Args{}, fmt.Errorf("Expected at most %d positional arguments, but got %d", len(ps), len(typedArgs))
		}
		for i, v := range typedArgs {
			values[ps[i]] = v
		}

	default:
		if len(ps) == 0 {
			return Args{}, fmt.Errorf("Expected no arguments, but got %s", nodepath.KindOf(args))
		}
		values[ps[0]] = args
	}

	return Args{values}, nil
}

func (ps Params) has(name string) bool {
	for _, p := range ps {
		if p == name {
			return true
		}
	}
	return false
}

func (a Args) Has(name string) bool {
	_, found := a.values[name]
	return found
}

func (a Args) Value(name string) interface{} { return a.values[name] }

func (a Args) String(name string) (string, error) {
	val, found := a.values[name]
	if !found || val == nil {
		return "", fmt.Errorf("Expected argument '%s' to be provided", name)
	}
	return a.asString(name, val)
}

func (a Args) OptionalString(name string) (string, error) {
	val, found := a.values[name]
	if !found || val == nil {
		return "", nil
	}
	return a.asString(name, val)
}

func (Args) asString(name string, val interface{}) (string, error) {
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("Expected argument '%s' to be a string, but was %s", name, nodepath.KindOf(val))
	}
	return str, nil
}

func (a Args) Int(name string) (int64, error) {
	val, found := a.values[name]
	if !found || val == nil {
		return 0, fmt.Errorf("Expected argument '%s' to be provided", name)
	}
	i, ok := AsInt64(val)
	if !ok {
		return 0, fmt.Errorf("Expected argument '%s' to be an integer, but was %s (%v)", name, nodepath.KindOf(val), val)
	}
	return i, nil
}

func (a Args) OptionalMap(name string) (*orderedmap.Map, error) {
	val, found := a.values[name]
	if !found || val == nil {
		return orderedmap.NewMap(), nil
	}
	m, ok := val.(*orderedmap.Map)
	if !ok {
		return nil, fmt.Errorf("Expected argument '%s' to be a mapping, but was %s", name, nodepath.KindOf(val))
	}
	return m, nil
}

// AsInt64 converts integral numeric node values.
func AsInt64(val interface{}) (int64, bool) {
	switch typedVal := val.(type) {
	case int:
		return int64(typedVal), true
	case int64:
		return typedVal, true
	case uint64:
		if typedVal > math.MaxInt64 {
			return 0, false
		}
		return int64(typedVal), true
	case float64:
		if typedVal != math.Trunc(typedVal) || typedVal >= math.MaxInt64 || typedVal < math.MinInt64 {
			return 0, false
		}
		return int64(typedVal), true
	default:
		return 0, false
	}
}
