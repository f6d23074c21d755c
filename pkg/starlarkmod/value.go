// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package starlarkmod

import (
	"fmt"

	"carvel.dev/zsyaml/pkg/orderedmap"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/starlarkstruct"
)

// GoValue converts a document tree into Starlark values. Mappings become
// dicts (which keep insertion order) and bytes become strings.
type GoValue struct {
	val interface{}
}

func NewGoValue(val interface{}) GoValue { return GoValue{val} }

func (e GoValue) AsStarlarkValue() (starlark.Value, error) {
	return e.asStarlarkValue(e.val)
}

func (e GoValue) asStarlarkValue(val interface{}) (starlark.Value, error) {
	switch typedVal := val.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(typedVal), nil
	case string:
		return starlark.String(typedVal), nil
	case []byte:
		return starlark.String(typedVal), nil
	case int:
		return starlark.MakeInt(typedVal), nil
	case int64:
		return starlark.MakeInt64(typedVal), nil
	case uint64:
		return starlark.MakeUint64(typedVal), nil
	case float64:
		return starlark.Float(typedVal), nil

	case *orderedmap.Map:
		result := starlark.NewDict(typedVal.Len())
		err := typedVal.IterateErr(func(k string, v interface{}) error {
			item, err := e.asStarlarkValue(v)
			if err != nil {
				return err
			}
			return result.SetKey(starlark.String(k), item)
		})
		if err != nil {
			return nil, err
		}
		return result, nil

	case []interface{}:
		var items []starlark.Value
		for _, v := range typedVal {
			item, err := e.asStarlarkValue(v)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return starlark.NewList(items), nil

	default:
		return nil, fmt.Errorf("Unknown type %T for conversion to starlark value", val)
	}
}

// StarlarkValue converts Starlark values back into a document tree.
type StarlarkValue struct {
	val starlark.Value
}

func NewStarlarkValue(val starlark.Value) StarlarkValue { return StarlarkValue{val} }

func (e StarlarkValue) AsGoValue() (interface{}, error) {
	return e.asInterface(e.val)
}

func (e StarlarkValue) AsString() (string, error) {
	if typedVal, ok := e.val.(starlark.String); ok {
		return string(typedVal), nil
	}
	return "", fmt.Errorf("expected starlark.String, but was %s", e.val.Type())
}

func (e StarlarkValue) asInterface(val starlark.Value) (interface{}, error) {
	switch typedVal := val.(type) {
	case nil, starlark.NoneType:
		return nil, nil

	case starlark.Bool:
		return bool(typedVal), nil

	case starlark.String:
		return string(typedVal), nil

	case starlark.Int:
		if i1, ok := typedVal.Int64(); ok {
			return i1, nil
		}
		if i2, ok := typedVal.Uint64(); ok {
			return i2, nil
		}
		return nil, fmt.Errorf("Integer %s does not fit into 64 bits", typedVal)

	case starlark.Float:
		return float64(typedVal), nil

	case *starlark.Dict:
		return e.dictAsInterface(typedVal)

	case *Struct:
		return e.structAsInterface(typedVal)

	case *starlarkstruct.Struct:
		return e.nativeStructAsInterface(typedVal)

	case *starlark.List:
		return e.iterableAsInterface(typedVal)

	case starlark.Tuple:
		return e.iterableAsInterface(typedVal)

	case *starlark.Set:
		return e.iterableAsInterface(typedVal)

	default:
		return nil, fmt.Errorf("Unknown type %s for conversion to document value", val.Type())
	}
}

func (e StarlarkValue) dictAsInterface(val *starlark.Dict) (interface{}, error) {
	result := orderedmap.NewMap()
	for _, item := range val.Items() {
		key, ok := item.Index(0).(starlark.String)
		if !ok {
			return nil, fmt.Errorf("Expected dict key to be a string, but was %s", item.Index(0).Type())
		}
		v, err := e.asInterface(item.Index(1))
		if err != nil {
			return nil, err
		}
		result.Set(string(key), v)
	}
	return result, nil
}

func (e StarlarkValue) structAsInterface(val *Struct) (interface{}, error) {
	result := orderedmap.NewMap()
	err := val.data.IterateErr(func(k string, v interface{}) error {
		item, err := e.asInterface(v.(starlark.Value))
		if err != nil {
			return err
		}
		result.Set(k, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e StarlarkValue) nativeStructAsInterface(val *starlarkstruct.Struct) (interface{}, error) {
	// AttrNames is sorted
	result := orderedmap.NewMap()
	for _, key := range val.AttrNames() {
		v, err := val.Attr(key)
		if err != nil {
			return nil, err
		}
		item, err := e.asInterface(v)
		if err != nil {
			return nil, err
		}
		result.Set(key, item)
	}
	return result, nil
}

func (e StarlarkValue) iterableAsInterface(iterable starlark.Iterable) (interface{}, error) {
	iter := iterable.Iterate()
	defer iter.Done()

	result := []interface{}{}
	var x starlark.Value
	for iter.Next(&x) {
		item, err := e.asInterface(x)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}
