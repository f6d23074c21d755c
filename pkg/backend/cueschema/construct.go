// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cueschema

import (
	"fmt"

	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/nodepath"
	"carvel.dev/zsyaml/pkg/orderedmap"
	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
)

func (b *Backend) construct(ref backend.TypeRef, tree interface{}, initArgs []interface{}) (*Instance, error) {
	typeVal, layout, err := b.typeValue(ref, initArgs)
	if err != nil {
		return nil, err
	}

	coerced, err := coercion{}.Apply(layout, tree, nodepath.Root)
	if err != nil {
		return nil, err
	}

	dataVal := b.ctx.Encode(orderedmap.Conversion{Object: coerced}.AsUnorderedStringMaps())
	if err := dataVal.Err(); err != nil {
		return nil, fmt.Errorf("Encoding data: %s", cueerrors.Details(err, nil))
	}

	unified := typeVal.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("Validating data:\n%s", cueerrors.Details(err, nil))
	}

	normalized, err := normalizer{}.Apply(layout, unified, coerced)
	if err != nil {
		return nil, err
	}

	return &Instance{ref: ref, layout: layout, tree: normalized}, nil
}

// coercion adjusts a value tree to the shapes CUE expects before
// unification: integers become floats where a float is declared, and
// mappings are checked for fields the type does not declare.
type coercion struct{}

func (c coercion) Apply(layout *backend.Layout, val interface{}, path nodepath.Path) (interface{}, error) {
	switch layout.Kind {
	case backend.KindFloat:
		switch typedVal := val.(type) {
		case int64:
			return float64(typedVal), nil
		case int:
			return float64(typedVal), nil
		}
		return val, nil

	case backend.KindList:
		items, ok := val.([]interface{})
		if !ok {
			return val, nil
		}
		result := make([]interface{}, len(items))
		for i, item := range items {
			coerced, err := c.Apply(layout.Elem, item, path.Elem(i))
			if err != nil {
				return nil, err
			}
			result[i] = coerced
		}
		return result, nil

	case backend.KindStruct:
		m, ok := val.(*orderedmap.Map)
		if !ok {
			return val, nil
		}
		result := orderedmap.NewMap()
		err := m.IterateErr(func(k string, v interface{}) error {
			idx := layout.FieldIndex(k)
			if idx < 0 {
				return fmt.Errorf("Unknown field '%s' (expected one of: %v)", path.Child(k), layout.FieldNames())
			}
			coerced, err := c.Apply(layout.Fields[idx].Layout, v, path.Child(k))
			if err != nil {
				return err
			}
			result.Set(k, coerced)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return result, nil

	default:
		return val, nil
	}
}

// normalizer reads a validated CUE value back into an ordered value tree.
// Optional fields appear only when the data set them; defaults are applied
// to required fields.
type normalizer struct{}

func (n normalizer) Apply(layout *backend.Layout, val cue.Value, data interface{}) (interface{}, error) {
	if defVal, ok := val.Default(); ok {
		val = defVal
	}

	if val.Kind() == cue.NullKind {
		return nil, nil
	}

	switch layout.Kind {
	case backend.KindNull:
		return nil, nil
	case backend.KindBool:
		return val.Bool()
	case backend.KindInt:
		return val.Int64()
	case backend.KindFloat:
		return val.Float64()
	case backend.KindString:
		return val.String()
	case backend.KindBytes:
		return val.Bytes()

	case backend.KindList:
		iter, err := val.List()
		if err != nil {
			return nil, err
		}
		items, _ := data.([]interface{})
		result := []interface{}{}
		for i := 0; iter.Next(); i++ {
			var itemData interface{}
			if i < len(items) {
				itemData = items[i]
			}
			item, err := n.Apply(layout.Elem, iter.Value(), itemData)
			if err != nil {
				return nil, err
			}
			result = append(result, item)
		}
		return result, nil

	case backend.KindStruct:
		m, _ := data.(*orderedmap.Map)
		result := orderedmap.NewMap()
		for _, field := range layout.Fields {
			var fieldData interface{}
			present := false
			if m != nil {
				fieldData, present = m.Get(field.Name)
			}
			if field.Optional && !present {
				continue
			}
			fieldVal := val.LookupPath(cue.MakePath(cue.Str(field.Name)))
			if !fieldVal.Exists() {
				continue
			}
			item, err := n.Apply(field.Layout, fieldVal, fieldData)
			if err != nil {
				return nil, fmt.Errorf("Field '%s': %w", field.Name, err)
			}
			result.Set(field.Name, item)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("Unsupported layout kind '%s'", layout.Kind)
	}
}
