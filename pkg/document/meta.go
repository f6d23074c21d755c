// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"

	"carvel.dev/zsyaml/pkg/nodepath"
	"carvel.dev/zsyaml/pkg/orderedmap"
)

const (
	metaSchemaModule         = "schema_module"
	metaSchemaType           = "schema_type"
	metaTransformationModule = "transformation_module"
	metaInitArgs             = "initialization_args"
)

// Meta is the Metadata block. It is read once per conversion and written
// back verbatim.
type Meta struct {
	SchemaModule         string
	SchemaType           string
	TransformationModule string
	InitArgs             []interface{}

	node *orderedmap.Map
}

func NewMeta(schemaModule, schemaType string) *Meta {
	node := orderedmap.NewMap()
	node.Set(metaSchemaModule, schemaModule)
	node.Set(metaSchemaType, schemaType)
	return &Meta{SchemaModule: schemaModule, SchemaType: schemaType, node: node}
}

func NewMetaFromNode(val interface{}) (*Meta, error) {
	node, ok := val.(*orderedmap.Map)
	if !ok {
		if val == nil {
			node = orderedmap.NewMap()
		} else {
			return nil, &MetadataError{Reason: fmt.Sprintf("expected '%s' to be a mapping, but was %s", MetaKey, nodepath.KindOf(val))}
		}
	}

	meta := &Meta{node: node}
	var err error

	meta.SchemaModule, err = meta.optionalString(metaSchemaModule)
	if err != nil {
		return nil, err
	}
	meta.SchemaType, err = meta.optionalString(metaSchemaType)
	if err != nil {
		return nil, err
	}
	meta.TransformationModule, err = meta.optionalString(metaTransformationModule)
	if err != nil {
		return nil, err
	}

	if args, found := node.Get(metaInitArgs); found && args != nil {
		typedArgs, ok := args.([]interface{})
		if !ok {
			return nil, &MetadataError{Reason: fmt.Sprintf("expected '%s' to be a sequence, but was %s", metaInitArgs, nodepath.KindOf(args))}
		}
		for i, arg := range typedArgs {
			switch arg.(type) {
			case *orderedmap.Map, []interface{}:
				return nil, &MetadataError{Reason: fmt.Sprintf("expected '%s[%d]' to be a plain value", metaInitArgs, i)}
			}
		}
		meta.InitArgs = typedArgs
	}

	return meta, nil
}

func (m *Meta) optionalString(key string) (string, error) {
	val, found := m.node.Get(key)
	if !found || val == nil {
		return "", nil
	}
	str, ok := val.(string)
	if !ok {
		return "", &MetadataError{Reason: fmt.Sprintf("expected '%s' to be a string, but was %s", key, nodepath.KindOf(val))}
	}
	return str, nil
}

// Validate checks fields required by any conversion involving the backend.
func (m *Meta) Validate() error {
	if m == nil {
		return &MetadataError{Reason: fmt.Sprintf("expected document to contain a '%s' block", MetaKey)}
	}
	if m.SchemaModule == "" || m.SchemaType == "" {
		return &MetadataError{Reason: fmt.Sprintf("expected '%s.%s' and '%s.%s' to be specified",
			MetaKey, metaSchemaModule, MetaKey, metaSchemaType)}
	}
	return nil
}

// Node returns the block exactly as read.
func (m *Meta) Node() *orderedmap.Map { return m.node }

type MetadataError struct {
	Reason string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("Invalid metadata: %s", e.Reason)
}
