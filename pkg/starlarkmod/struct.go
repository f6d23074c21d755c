// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package starlarkmod

import (
	"fmt"

	"carvel.dev/zsyaml/pkg/orderedmap"
	"github.com/k14s/starlark-go/starlark"
)

// Struct is a read-only attribute bag that keeps attribute order, unlike
// starlarkstruct.Struct.
type Struct struct {
	data *orderedmap.Map // [string]starlark.Value
}

func NewStruct(data *orderedmap.Map) *Struct {
	return &Struct{data: data}
}

var _ starlark.Value = (*Struct)(nil)
var _ starlark.HasAttrs = (*Struct)(nil)

func (s *Struct) String() string        { return "struct(...)" }
func (s *Struct) Type() string          { return "struct" }
func (s *Struct) Freeze()               {}
func (s *Struct) Truth() starlark.Bool  { return s.data.Len() > 0 }
func (s *Struct) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: struct") }

// returns (nil, nil) if attribute not present
func (s *Struct) Attr(name string) (starlark.Value, error) {
	val, found := s.data.Get(name)
	if found {
		return val.(starlark.Value), nil
	}
	return nil, nil
}

func (s *Struct) AttrNames() []string { return s.data.Keys() }
