// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cueschema

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/document"
	"carvel.dev/zsyaml/pkg/orderedmap"
)

type textEncoder struct{}

func (e textEncoder) Encode(layout *backend.Layout, val interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.write(&buf, layout, val); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func (e textEncoder) write(buf *bytes.Buffer, layout *backend.Layout, val interface{}) error {
	if val == nil {
		buf.WriteString("null")
		return nil
	}

	switch layout.Kind {
	case backend.KindBytes:
		bs, ok := val.([]byte)
		if !ok {
			return fmt.Errorf("Expected bytes, but was %T", val)
		}
		val = base64.StdEncoding.EncodeToString(bs)

	case backend.KindList:
		items, ok := val.([]interface{})
		if !ok {
			return fmt.Errorf("Expected list, but was %T", val)
		}
		buf.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.write(buf, layout.Elem, item); err != nil {
				return fmt.Errorf("Item %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil

	case backend.KindStruct:
		m, ok := val.(*orderedmap.Map)
		if !ok {
			return fmt.Errorf("Expected struct, but was %T", val)
		}
		buf.WriteByte('{')
		first := true
		for _, field := range layout.Fields {
			fieldVal, found := m.Get(field.Name)
			if !found {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, _ := json.Marshal(field.Name)
			buf.Write(key)
			buf.WriteByte(':')
			if err := e.write(buf, field.Layout, fieldVal); err != nil {
				return fmt.Errorf("Field '%s': %w", field.Name, err)
			}
		}
		buf.WriteByte('}')
		return nil
	}

	bs, err := json.Marshal(val)
	if err != nil {
		return err
	}
	buf.Write(bs)
	return nil
}

type textDecoder struct{}

func (d textDecoder) Decode(layout *backend.Layout, data []byte) (interface{}, error) {
	tree, err := document.ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("Parsing JSON: %w", err)
	}
	return d.convert(layout, tree)
}

// convert turns base64 strings back into bytes where the layout asks for them.
func (d textDecoder) convert(layout *backend.Layout, val interface{}) (interface{}, error) {
	if val == nil {
		return nil, nil
	}

	switch layout.Kind {
	case backend.KindBytes:
		s, ok := val.(string)
		if !ok {
			return val, nil
		}
		bs, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("Decoding base64: %w", err)
		}
		return bs, nil

	case backend.KindList:
		items, ok := val.([]interface{})
		if !ok {
			return val, nil
		}
		result := make([]interface{}, len(items))
		for i, item := range items {
			converted, err := d.convert(layout.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("Item %d: %w", i, err)
			}
			result[i] = converted
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
				result.Set(k, v)
				return nil
			}
			converted, err := d.convert(layout.Fields[idx].Layout, v)
			if err != nil {
				return fmt.Errorf("Field '%s': %w", k, err)
			}
			result.Set(k, converted)
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
