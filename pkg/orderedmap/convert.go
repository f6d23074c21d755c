// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package orderedmap

import (
	"fmt"
	"reflect"
	"sort"
)

type Conversion struct {
	Object interface{}
}

// AsUnorderedStringMaps converts nested *Map values into map[string]interface{}.
// Input is not modified.
func (c Conversion) AsUnorderedStringMaps() interface{} {
	return c.asUnorderedStringMaps(c.Object)
}

func (c Conversion) asUnorderedStringMaps(object interface{}) interface{} {
	switch typedObj := object.(type) {
	case map[string]interface{}:
		panic("Expected *orderedmap.Map instead of map[string]interface{} in asUnorderedStringMaps")

	case *Map:
		result := map[string]interface{}{}
		typedObj.Iterate(func(k string, v interface{}) {
			result[k] = c.asUnorderedStringMaps(v)
		})
		return result

	case []interface{}:
		result := make([]interface{}, len(typedObj))
		for i, item := range typedObj {
			result[i] = c.asUnorderedStringMaps(item)
		}
		return result

	default:
		return typedObj
	}
}

// FromUnorderedMaps converts nested Go maps into *Map with keys sorted,
// since native maps carry no order to preserve.
func (c Conversion) FromUnorderedMaps() interface{} {
	return c.fromUnorderedMaps(c.Object)
}

func (c Conversion) fromUnorderedMaps(object interface{}) interface{} {
	switch typedObj := object.(type) {
	case map[interface{}]interface{}:
		result := NewMap()
		keys := map[string]interface{}{}
		for k, v := range typedObj {
			keys[fmt.Sprintf("%v", k)] = v
		}
		for _, key := range c.sortedKeys(keys) {
			result.Set(key, c.fromUnorderedMaps(keys[key]))
		}
		return result

	case map[string]interface{}:
		result := NewMap()
		for _, key := range c.sortedKeys(typedObj) {
			result.Set(key, c.fromUnorderedMaps(typedObj[key]))
		}
		return result

	case *Map:
		panic("Expected map[string]interface{} instead of *orderedmap.Map in fromUnorderedMaps")

	case []interface{}:
		result := make([]interface{}, len(typedObj))
		for i, item := range typedObj {
			result[i] = c.fromUnorderedMaps(item)
		}
		return result

	case []map[string]interface{}:
		result := make([]interface{}, len(typedObj))
		for i, item := range typedObj {
			result[i] = c.fromUnorderedMaps(item)
		}
		return result

	default:
		return typedObj
	}
}

// DeepCopy copies nested maps and slices; scalars are shared.
func (c Conversion) DeepCopy() interface{} {
	return c.deepCopy(c.Object)
}

func (c Conversion) deepCopy(object interface{}) interface{} {
	switch typedObj := object.(type) {
	case *Map:
		result := NewMap()
		typedObj.Iterate(func(k string, v interface{}) {
			result.Set(k, c.deepCopy(v))
		})
		return result

	case []interface{}:
		result := make([]interface{}, len(typedObj))
		for i, item := range typedObj {
			result[i] = c.deepCopy(item)
		}
		return result

	case []byte:
		return append([]byte(nil), typedObj...)

	default:
		return typedObj
	}
}

// Equal compares two trees including key order.
func Equal(a, b interface{}) bool {
	switch typedA := a.(type) {
	case *Map:
		typedB, ok := b.(*Map)
		if !ok || typedA.Len() != typedB.Len() {
			return false
		}
		for i, item := range typedA.items {
			other := typedB.items[i]
			if item.Key != other.Key || !Equal(item.Value, other.Value) {
				return false
			}
		}
		return true

	case []interface{}:
		typedB, ok := b.([]interface{})
		if !ok || len(typedA) != len(typedB) {
			return false
		}
		for i := range typedA {
			if !Equal(typedA[i], typedB[i]) {
				return false
			}
		}
		return true

	default:
		return reflect.DeepEqual(a, b)
	}
}

func (Conversion) sortedKeys(m map[string]interface{}) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
