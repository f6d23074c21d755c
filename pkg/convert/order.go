// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/nodepath"
	"carvel.dev/zsyaml/pkg/orderedmap"
)

// orderCheck verifies that mapping keys follow the declaration order of the
// schema. Keys unknown to the schema are skipped; the backend rejects them.
type orderCheck struct{}

func (c orderCheck) Check(layout *backend.Layout, node interface{}) error {
	return c.check(layout, node, nodepath.Root)
}

func (c orderCheck) check(layout *backend.Layout, node interface{}, path nodepath.Path) error {
	switch typedNode := node.(type) {
	case *orderedmap.Map:
		if layout.Kind != backend.KindStruct {
			return nil
		}
		prevIdx := -1
		var prevKey string

		return typedNode.IterateErr(func(k string, v interface{}) error {
			idx := layout.FieldIndex(k)
			if idx < 0 {
				return nil
			}
			if idx < prevIdx {
				return &SchemaOrderError{
					Path:     path.String(),
					Key:      k,
					Previous: prevKey,
					Expected: layout.FieldNames(),
				}
			}
			prevIdx, prevKey = idx, k
			return c.check(layout.Fields[idx].Layout, v, path.Child(k))
		})

	case []interface{}:
		if layout.Kind != backend.KindList {
			return nil
		}
		for i, item := range typedNode {
			if err := c.check(layout.Elem, item, path.Elem(i)); err != nil {
				return err
			}
		}
		return nil

	default:
		return nil
	}
}
