// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"fmt"
)

// TypeRef names a schema type. Dir anchors a relative Module reference
// (typically the directory of the document declaring it).
type TypeRef struct {
	Module string
	Type   string
	Dir    string
}

func (r TypeRef) String() string { return fmt.Sprintf("%s:%s", r.Module, r.Type) }

// Instance is a typed value owned by a Backend.
type Instance interface {
	Type() TypeRef
}

type Backend interface {
	Construct(ref TypeRef, tree interface{}, initArgs []interface{}) (Instance, error)
	EncodeBinary(Instance) ([]byte, error)
	EncodeText(Instance) ([]byte, error)
	DecodeBinary(ref TypeRef, data []byte, initArgs []interface{}) (Instance, error)
	DecodeText(ref TypeRef, data []byte, initArgs []interface{}) (Instance, error)
	// ToValueTree renders the instance with mappings in declaration order.
	ToValueTree(Instance) (interface{}, error)
}

// LayoutProvider is implemented by backends able to describe a type's
// structure ahead of construction, which allows checking field order
// before handing data over.
type LayoutProvider interface {
	Layout(ref TypeRef, initArgs []interface{}) (*Layout, error)
}

type Error struct {
	Op   string
	Type TypeRef
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Backend %s of '%s': %s", e.Op, e.Type, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
