// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cueschema

import (
	"fmt"

	"carvel.dev/zsyaml/pkg/backend"
	"cuelang.org/go/cue"
)

const maxLayoutDepth = 64

type layoutBuilder struct{}

// Build derives the encoding layout from a CUE value. Recursive types are
// cut off at maxLayoutDepth.
func (b layoutBuilder) Build(val cue.Value, depth int) (*backend.Layout, error) {
	if depth > maxLayoutDepth {
		return nil, fmt.Errorf("Expected type nesting to be at most %d levels", maxLayoutDepth)
	}

	kind := val.IncompleteKind()

	// Nullable values such as `*null | string` are encoded as the non-null kind.
	if kind&cue.NullKind != 0 && kind != cue.NullKind {
		kind &^= cue.NullKind
	}

	switch kind {
	case cue.NullKind:
		return &backend.Layout{Kind: backend.KindNull}, nil
	case cue.BoolKind:
		return &backend.Layout{Kind: backend.KindBool}, nil
	case cue.IntKind:
		return &backend.Layout{Kind: backend.KindInt}, nil
	case cue.FloatKind, cue.NumberKind:
		return &backend.Layout{Kind: backend.KindFloat}, nil
	case cue.StringKind:
		return &backend.Layout{Kind: backend.KindString}, nil
	case cue.BytesKind:
		return &backend.Layout{Kind: backend.KindBytes}, nil
	case cue.ListKind:
		return b.list(val, depth)
	case cue.StructKind:
		return b.structure(val, depth)
	default:
		return nil, fmt.Errorf("Unsupported schema kind '%s' at '%s'", kind, val.Path())
	}
}

func (b layoutBuilder) list(val cue.Value, depth int) (*backend.Layout, error) {
	elemVal := val.LookupPath(cue.MakePath(cue.AnyIndex))
	if !elemVal.Exists() {
		return nil, fmt.Errorf("Expected list at '%s' to declare an element type", val.Path())
	}
	elem, err := b.Build(elemVal, depth+1)
	if err != nil {
		return nil, err
	}
	return &backend.Layout{Kind: backend.KindList, Elem: elem}, nil
}

func (b layoutBuilder) structure(val cue.Value, depth int) (*backend.Layout, error) {
	layout := &backend.Layout{Kind: backend.KindStruct}

	iter, err := val.Fields(cue.Optional(true))
	if err != nil {
		return nil, err
	}

	for iter.Next() {
		sel := iter.Selector()
		if !sel.IsString() {
			continue
		}
		name := sel.Unquoted()
		fieldLayout, err := b.Build(iter.Value(), depth+1)
		if err != nil {
			return nil, fmt.Errorf("Field '%s': %w", name, err)
		}
		layout.Fields = append(layout.Fields, backend.Field{
			Name:     name,
			Optional: iter.IsOptional(),
			Layout:   fieldLayout,
		})
	}

	return layout, nil
}
